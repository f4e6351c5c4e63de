package analysis

import (
	"context"
	"fmt"
)

// gather 为每个下标启动一个 goroutine，结果按下标归位，与完成顺序无关。
// 首个失败立即返回并取消其余请求的 ctx，不再等待它们结束；
// results 带缓冲，被放弃的 goroutine 不会阻塞。
func gather[T any](ctx context.Context, n int, run func(ctx context.Context, i int) (T, error)) ([]T, error) {
	out := make([]T, n)
	if n == 0 {
		return out, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		i   int
		v   T
		err error
	}
	results := make(chan result, n)
	for i := 0; i < n; i++ {
		go func() {
			v, err := run(ctx, i)
			results <- result{i: i, v: v, err: err}
		}()
	}

	for remaining := n; remaining > 0; remaining-- {
		select {
		case r := <-results:
			if r.err != nil {
				return nil, fmt.Errorf("item %d: %w", r.i, r.err)
			}
			out[r.i] = r.v
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return out, nil
}
