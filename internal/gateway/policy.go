package gateway

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/iWorld-y/sentiment_radar/internal/logger"
	dm "github.com/iWorld-y/sentiment_radar/internal/model"
)

// NewLimiter Limit 设置为 RPM/60，Burst 设置为 QPS
func NewLimiter(rpm, qps int) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), qps)
}

type limitedGateway struct {
	next    Gateway
	limiter *rate.Limiter
}

// WithLimiter 每次请求前等待限流令牌
func WithLimiter(next Gateway, limiter *rate.Limiter) Gateway {
	if limiter == nil {
		return next
	}
	return &limitedGateway{next: next, limiter: limiter}
}

func (g *limitedGateway) Complete(ctx context.Context, p Prompt, vars map[string]any, out Schema) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return &dm.TransportError{Op: p.Name, Err: err}
	}
	return g.next.Complete(ctx, p, vars, out)
}

// RetryPolicy 重试策略，只对限流和结构不符的结果重试
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

type retryGateway struct {
	next   Gateway
	policy RetryPolicy
}

// WithRetry 按指数退避重试，MaxRetries <= 0 时不包装
func WithRetry(next Gateway, policy RetryPolicy) Gateway {
	if policy.MaxRetries <= 0 {
		return next
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 2 * time.Second
	}
	return &retryGateway{next: next, policy: policy}
}

func (g *retryGateway) Complete(ctx context.Context, p Prompt, vars map[string]any, out Schema) error {
	var lastErr error
	for i := 0; i <= g.policy.MaxRetries; i++ {
		err := g.next.Complete(ctx, p, vars, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) || i == g.policy.MaxRetries {
			break
		}

		delay := g.policy.BaseDelay * time.Duration(1<<i)
		logger.Log.Warnf("请求失败 [%s]，等待 %v 后重试 (%d/%d): %v", p.Name, delay, i+1, g.policy.MaxRetries, err)
		select {
		case <-ctx.Done():
			return &dm.TransportError{Op: p.Name, Err: ctx.Err()}
		case <-time.After(delay):
		}
	}
	return lastErr
}

func retryable(err error) bool {
	var (
		rl *dm.RateLimitError
		sv *dm.SchemaValidationError
	)
	return errors.As(err, &rl) || errors.As(err, &sv)
}
