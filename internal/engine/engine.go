package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/iWorld-y/sentiment_radar/internal/analysis"
	"github.com/iWorld-y/sentiment_radar/internal/config"
	embclient "github.com/iWorld-y/sentiment_radar/internal/embedding"
	"github.com/iWorld-y/sentiment_radar/internal/gateway"
	"github.com/iWorld-y/sentiment_radar/internal/logger"
	"github.com/iWorld-y/sentiment_radar/internal/model"
	"github.com/iWorld-y/sentiment_radar/internal/report"
	"github.com/iWorld-y/sentiment_radar/internal/similarity"
)

// Saver 报告归档，未配置数据库时为 nil
type Saver interface {
	SaveReport(ctx context.Context, r *model.Report) (string, error)
}

// Engine 核心处理引擎：相似度排序 -> 四阶段分析 -> 聚合
type Engine struct {
	embedder          embedding.Embedder
	orch              *analysis.Orchestrator
	store             Saver
	topK              int
	primaryLanguage   string
	secondaryLanguage string
	filterByCompany   bool
}

// Option Engine 可选项
type Option func(*Engine)

// WithStore 每次成功运行后归档报告
func WithStore(s Saver) Option {
	return func(e *Engine) { e.store = s }
}

// WithTopK 默认的文章对数量
func WithTopK(k int) Option {
	return func(e *Engine) { e.topK = k }
}

// WithLanguages 最终结论使用的两种语言
func WithLanguages(primary, secondary string) Option {
	return func(e *Engine) {
		e.primaryLanguage = primary
		e.secondaryLanguage = secondary
	}
}

// WithCompanyFilter 分析前丢弃未提及公司名的文章
func WithCompanyFilter(on bool) Option {
	return func(e *Engine) { e.filterByCompany = on }
}

// New 用已构建好的组件创建引擎
func New(embedder embedding.Embedder, orch *analysis.Orchestrator, opts ...Option) *Engine {
	e := &Engine{
		embedder:          embedder,
		orch:              orch,
		topK:              similarity.DefaultTopK,
		primaryLanguage:   "English",
		secondaryLanguage: "Hindi",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewEngine 根据配置创建引擎实例
func NewEngine(ctx context.Context, cfg *config.Config, store Saver) (*Engine, error) {
	gw, err := gateway.NewGateway(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("模型网关初始化失败: %w", err)
	}
	if cfg.Embedding.APIKey == "" {
		return nil, fmt.Errorf("embedding api key is missing")
	}
	embedder := embclient.NewClient(cfg.Embedding.BaseURL, cfg.Embedding.APIKey, cfg.Embedding.Model)

	orch := analysis.New(gw,
		analysis.WithMaxInFlight(cfg.Concurrency.MaxInFlight),
		analysis.WithRequestTimeout(cfg.Concurrency.Timeout()),
	)

	opts := []Option{
		WithTopK(cfg.Analysis.TopK),
		WithLanguages(cfg.Analysis.PrimaryLanguage, cfg.Analysis.SecondaryLanguage),
		WithCompanyFilter(cfg.Analysis.FilterByCompany),
	}
	if store != nil {
		opts = append(opts, WithStore(store))
	}
	return New(embedder, orch, opts...), nil
}

// ArticleInput 外部分类器给出的文章
type ArticleInput struct {
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Sentiment string `json:"sentiment"`
}

// RunOptions 运行选项
type RunOptions struct {
	Company          string
	Articles         []ArticleInput
	TopK             int // <= 0 时使用引擎默认值
	ProgressCallback func(status string, progress int)
}

// Run 执行一次对比分析，任一阶段失败则不产出报告
func (e *Engine) Run(ctx context.Context, opts RunOptions) (*model.Report, error) {
	progress := func(status string, p int) {
		if opts.ProgressCallback != nil {
			opts.ProgressCallback(status, p)
		}
	}
	progress("starting", 0)

	inputs := opts.Articles
	if e.filterByCompany {
		inputs = FilterByCompany(opts.Company, inputs)
		logger.Log.Infof("公司过滤: %d -> %d 篇文章", len(opts.Articles), len(inputs))
	}

	articles, err := buildArticles(opts.Company, inputs)
	if err != nil {
		return nil, err
	}
	logger.Log.Infof("开始分析公司 [%s]，共 %d 篇文章", opts.Company, len(articles))

	k := opts.TopK
	if k <= 0 {
		k = e.topK
	}
	texts := make([]string, len(articles))
	for i, a := range articles {
		texts[i] = a.Text()
	}

	progress("ranking similar articles", 10)
	pairs, err := similarity.NewRanker(e.embedder, k).Rank(ctx, texts)
	if err != nil {
		if model.IsValidation(err) {
			return nil, err
		}
		return nil, &model.StageError{Stage: model.StageSimilarity, Err: err}
	}

	progress("analyzing", 30)
	res, err := e.orch.Run(ctx, &analysis.Batch{
		Company:           opts.Company,
		Articles:          articles,
		Pairs:             pairs,
		PrimaryLanguage:   e.primaryLanguage,
		SecondaryLanguage: e.secondaryLanguage,
	})
	if err != nil {
		return nil, err
	}

	progress("aggregating", 90)
	r, err := report.Build(report.Input{
		Company:   opts.Company,
		Articles:  articles,
		Topics:    res.Topics,
		Pairs:     pairs,
		Overlaps:  res.Overlaps,
		Insights:  res.Insights,
		Synthesis: res.Synthesis,
	})
	if err != nil {
		return nil, err
	}

	if e.store != nil {
		// 归档失败不影响本次结果
		if id, err := e.store.SaveReport(ctx, r); err != nil {
			logger.Log.Errorf("保存报告失败 [%s]: %v", opts.Company, err)
		} else {
			logger.Log.Infof("报告已归档: %s", id)
		}
	}

	progress("completed", 100)
	return r, nil
}

// buildArticles 校验输入并编号，在任何外部调用之前完成
func buildArticles(company string, inputs []ArticleInput) ([]model.Article, error) {
	if strings.TrimSpace(company) == "" {
		return nil, model.NewValidationError("company name is required")
	}
	if len(inputs) < 2 {
		return nil, model.NewValidationError("insufficient articles: need at least 2, got %d", len(inputs))
	}
	articles := make([]model.Article, len(inputs))
	for i, in := range inputs {
		s, err := model.ParseSentiment(in.Sentiment)
		if err != nil {
			return nil, model.NewValidationError("article %d: unrecognized sentiment label %q", i, in.Sentiment)
		}
		articles[i] = model.Article{
			Index:     i,
			Title:     strings.TrimSpace(in.Title),
			Summary:   strings.TrimSpace(in.Summary),
			Sentiment: s,
		}
	}
	return articles, nil
}

// FilterByCompany 保留标题或摘要中提及公司名的文章（忽略大小写），保持原有顺序
func FilterByCompany(company string, articles []ArticleInput) []ArticleInput {
	name := strings.ToLower(strings.TrimSpace(company))
	if name == "" {
		return articles
	}
	out := make([]ArticleInput, 0, len(articles))
	for _, a := range articles {
		if strings.Contains(strings.ToLower(a.Title+" "+a.Summary), name) {
			out = append(out, a)
		}
	}
	return out
}
