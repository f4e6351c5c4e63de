package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/iWorld-y/sentiment_radar/internal/config"
	"github.com/iWorld-y/sentiment_radar/internal/logger"
)

// NewGateway 根据配置创建 Gateway：模型后端 + 限流 + 可选重试
func NewGateway(ctx context.Context, cfg *config.Config) (Gateway, error) {
	cm, err := newChatModel(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}

	opts := []model.Option{model.WithMaxTokens(cfg.LLM.MaxTokens)}
	if cfg.LLM.Temperature != nil {
		opts = append(opts, model.WithTemperature(*cfg.LLM.Temperature))
	}
	gw := Gateway(NewChatGateway(cm, opts...))

	limiter := NewLimiter(cfg.Concurrency.RPM, cfg.Concurrency.QPS)
	logger.Log.Infof("限流器已配置: Limit=%.2f req/s, Burst=%d", limiter.Limit(), limiter.Burst())

	// 限流在内层，每次重试都重新取令牌
	gw = WithLimiter(gw, limiter)
	gw = WithRetry(gw, RetryPolicy{MaxRetries: cfg.LLM.MaxRetries})
	return gw, nil
}

func newChatModel(ctx context.Context, c config.LLMConfig) (model.BaseChatModel, error) {
	switch strings.ToLower(c.Provider) {
	case "", "openai":
		if c.APIKey == "" {
			return nil, fmt.Errorf("llm api key is missing")
		}
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: c.BaseURL,
			APIKey:  c.APIKey,
			Model:   c.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("LLM 初始化失败: %w", err)
		}
		return cm, nil

	case "anthropic":
		if c.APIKey == "" {
			return nil, fmt.Errorf("anthropic api key is missing")
		}
		return NewAnthropicChatModel(c.BaseURL, c.APIKey, c.Model, c.MaxTokens), nil

	default:
		return nil, fmt.Errorf("unknown llm provider: %s", c.Provider)
	}
}
