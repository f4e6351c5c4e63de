package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/iWorld-y/sentiment_radar/internal/gateway"
	"github.com/iWorld-y/sentiment_radar/internal/logger"
	"github.com/iWorld-y/sentiment_radar/internal/model"
)

const (
	stageTopicExtraction    = model.StageTopicExtraction
	stageTopicOverlap       = model.StageTopicOverlap
	stageComparativeInsight = model.StageComparativeInsight
	stageFinalSynthesis     = model.StageFinalSynthesis
)

// Batch 一次请求的全部输入，只在本次调用内有效
type Batch struct {
	Company           string
	Articles          []model.Article
	Pairs             []model.SimilarityPair
	PrimaryLanguage   string
	SecondaryLanguage string
}

// Validate 在任何请求发出前校验输入
func (b *Batch) Validate() error {
	if strings.TrimSpace(b.Company) == "" {
		return model.NewValidationError("company name is required")
	}
	n := len(b.Articles)
	if n < 2 {
		return model.NewValidationError("insufficient articles: need at least 2, got %d", n)
	}
	for i, a := range b.Articles {
		if _, err := model.ParseSentiment(string(a.Sentiment)); err != nil {
			return model.NewValidationError("article %d: unrecognized sentiment label %q", i, a.Sentiment)
		}
	}
	for _, p := range b.Pairs {
		if p.A < 0 || p.A >= p.B || p.B >= n {
			return model.NewValidationError("invalid pair (%d, %d) for %d articles", p.A, p.B, n)
		}
	}
	if b.PrimaryLanguage == "" || b.SecondaryLanguage == "" {
		return model.NewValidationError("both summary languages are required")
	}
	return nil
}

// Results 四个阶段的输出：Topics 与文章顺序对齐，Overlaps/Insights 与 Pairs 顺序对齐
type Results struct {
	Topics    []model.TopicSet
	Overlaps  []model.TopicOverlap
	Insights  []model.ComparativeInsight
	Synthesis model.FinalSynthesis
}

// Orchestrator 按固定的四阶段依赖关系并发调用 Gateway
type Orchestrator struct {
	gw      gateway.Gateway
	sem     *semaphore.Weighted
	timeout time.Duration
}

// Option Orchestrator 可选项
type Option func(*Orchestrator)

// WithMaxInFlight 限制同时进行中的请求数，n <= 0 表示不限制
func WithMaxInFlight(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithRequestTimeout 单个请求的超时，d <= 0 表示不设超时
func WithRequestTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeout = d
	}
}

// New 创建 Orchestrator
func New(gw gateway.Gateway, opts ...Option) *Orchestrator {
	o := &Orchestrator{gw: gw}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run 阶段 1-3 同时启动并共同等待，阶段 4 在阶段 3 完成后执行。任一失败则整体失败。
func (o *Orchestrator) Run(ctx context.Context, b *Batch) (*Results, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	docs := make([]string, len(b.Articles))
	for i, a := range b.Articles {
		docs[i] = renderArticle(a)
	}

	var (
		topics   []model.TopicSet
		overlaps []model.TopicOverlap
		insights []model.ComparativeInsight
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := o.extractTopics(gctx, b, docs)
		if err != nil {
			return &model.StageError{Stage: stageTopicExtraction, Err: err}
		}
		topics = r
		return nil
	})
	g.Go(func() error {
		r, err := o.overlapTopics(gctx, b, docs)
		if err != nil {
			return &model.StageError{Stage: stageTopicOverlap, Err: err}
		}
		overlaps = r
		return nil
	})
	g.Go(func() error {
		r, err := o.compare(gctx, b, docs)
		if err != nil {
			return &model.StageError{Stage: stageComparativeInsight, Err: err}
		}
		insights = r
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Log.Errorf("分析阶段失败: %v", err)
		return nil, err
	}

	synthesis, err := o.synthesize(ctx, b, insights)
	if err != nil {
		logger.Log.Errorf("最终综合失败: %v", err)
		return nil, &model.StageError{Stage: stageFinalSynthesis, Err: err}
	}

	return &Results{
		Topics:    topics,
		Overlaps:  overlaps,
		Insights:  insights,
		Synthesis: synthesis,
	}, nil
}

func (o *Orchestrator) extractTopics(ctx context.Context, b *Batch, docs []string) ([]model.TopicSet, error) {
	out, err := gather(ctx, len(docs), func(ctx context.Context, i int) (model.TopicSet, error) {
		var res TopicExtraction
		err := o.complete(ctx, topicExtractionPrompt, map[string]any{
			"company": b.Company,
			"article": docs[i],
		}, &res)
		if err != nil {
			return nil, err
		}
		return model.TopicSet(res.Topics), nil
	})
	if err == nil {
		logger.Log.Infof("阶段 [%s] 完成: %d 个请求", stageTopicExtraction, len(docs))
	}
	return out, err
}

func (o *Orchestrator) overlapTopics(ctx context.Context, b *Batch, docs []string) ([]model.TopicOverlap, error) {
	out, err := gather(ctx, len(b.Pairs), func(ctx context.Context, i int) (model.TopicOverlap, error) {
		p := b.Pairs[i]
		var res TopicOverlapResult
		err := o.complete(ctx, topicOverlapPrompt, map[string]any{
			"company":   b.Company,
			"article_a": docs[p.A],
			"article_b": docs[p.B],
		}, &res)
		if err != nil {
			return model.TopicOverlap{}, err
		}
		return model.TopicOverlap{
			Pair:      p,
			Common:    res.CommonTopics,
			UniqueToA: res.UniqueTopics1,
			UniqueToB: res.UniqueTopics2,
		}, nil
	})
	if err == nil {
		logger.Log.Infof("阶段 [%s] 完成: %d 个请求", stageTopicOverlap, len(b.Pairs))
	}
	return out, err
}

func (o *Orchestrator) compare(ctx context.Context, b *Batch, docs []string) ([]model.ComparativeInsight, error) {
	out, err := gather(ctx, len(b.Pairs), func(ctx context.Context, i int) (model.ComparativeInsight, error) {
		p := b.Pairs[i]
		var res ComparativeInsightResult
		err := o.complete(ctx, comparativeInsightPrompt, map[string]any{
			"company":   b.Company,
			"id_a":      p.A,
			"id_b":      p.B,
			"article_a": docs[p.A],
			"article_b": docs[p.B],
		}, &res)
		if err != nil {
			return model.ComparativeInsight{}, err
		}
		return model.ComparativeInsight{
			Pair:       p,
			Comparison: res.Comparison,
			Impact:     res.Impact,
		}, nil
	})
	if err == nil {
		logger.Log.Infof("阶段 [%s] 完成: %d 个请求", stageComparativeInsight, len(b.Pairs))
	}
	return out, err
}

func (o *Orchestrator) synthesize(ctx context.Context, b *Batch, insights []model.ComparativeInsight) (model.FinalSynthesis, error) {
	if len(insights) == 0 {
		return model.FinalSynthesis{}, nil
	}

	var res FinalSynthesisResult
	err := o.complete(ctx, finalSynthesisPrompt, map[string]any{
		"company":            b.Company,
		"primary_language":   b.PrimaryLanguage,
		"secondary_language": b.SecondaryLanguage,
		"digest":             Digest(insights),
	}, &res)
	if err != nil {
		return model.FinalSynthesis{}, err
	}
	logger.Log.Infof("阶段 [%s] 完成: 汇总 %d 条对比", stageFinalSynthesis, len(insights))
	return model.FinalSynthesis{Primary: res.Primary, Secondary: res.Secondary}, nil
}

// complete 在并发上限和单请求超时之内调用 Gateway
func (o *Orchestrator) complete(ctx context.Context, p gateway.Prompt, vars map[string]any, out gateway.Schema) error {
	if o.sem != nil {
		if err := o.sem.Acquire(ctx, 1); err != nil {
			return err
		}
		defer o.sem.Release(1)
	}
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	return o.gw.Complete(ctx, p, vars, out)
}

// Digest 把阶段 3 的全部对比拼接成阶段 4 的输入
func Digest(insights []model.ComparativeInsight) string {
	var sb strings.Builder
	sb.WriteString("Comparative Analysis:\n")
	for _, in := range insights {
		fmt.Fprintf(&sb, "comparison: %s\nimpact: %s\n\n", in.Comparison, in.Impact)
	}
	return sb.String()
}

func renderArticle(a model.Article) string {
	return fmt.Sprintf("title: %s\nsummary: %s\nsentiment: %s", a.Title, a.Summary, a.Sentiment)
}
