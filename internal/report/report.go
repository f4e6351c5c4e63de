package report

import (
	"github.com/iWorld-y/sentiment_radar/internal/model"
)

// Input 聚合所需的全部阶段输出
type Input struct {
	Company   string
	Articles  []model.Article
	Topics    []model.TopicSet
	Pairs     []model.SimilarityPair
	Overlaps  []model.TopicOverlap
	Insights  []model.ComparativeInsight
	Synthesis model.FinalSynthesis
}

// Build 把各阶段结果合并为报告。不调用外部服务，相同输入得到相同报告。
func Build(in Input) (*model.Report, error) {
	if len(in.Topics) != len(in.Articles) {
		return nil, model.NewValidationError("topic count %d does not match article count %d", len(in.Topics), len(in.Articles))
	}
	if len(in.Overlaps) != len(in.Pairs) {
		return nil, model.NewValidationError("topic overlap count %d does not match pair count %d", len(in.Overlaps), len(in.Pairs))
	}
	if len(in.Insights) != len(in.Pairs) {
		return nil, model.NewValidationError("insight count %d does not match pair count %d", len(in.Insights), len(in.Pairs))
	}

	dist, err := Distribution(in.Articles)
	if err != nil {
		return nil, err
	}

	articles := make([]model.AnalyzedArticle, len(in.Articles))
	for i, a := range in.Articles {
		s, _ := model.ParseSentiment(string(a.Sentiment))
		a.Sentiment = s
		topics := in.Topics[i]
		if topics == nil {
			topics = model.TopicSet{}
		}
		articles[i] = model.AnalyzedArticle{
			Article: a,
			Topics:  append(model.TopicSet(nil), topics...),
		}
	}

	return &model.Report{
		Company:               in.Company,
		Articles:              articles,
		SentimentDistribution: dist,
		CoverageDifferences:   append([]model.ComparativeInsight{}, in.Insights...),
		TopicOverlap:          cloneOverlaps(in.Overlaps),
		FinalSynthesis:        in.Synthesis,
		Pairs:                 append([]model.SimilarityPair{}, in.Pairs...),
	}, nil
}

// Distribution 统计情感分布，三个桶总是存在
func Distribution(articles []model.Article) (map[model.Sentiment]int, error) {
	dist := make(map[model.Sentiment]int, len(model.Sentiments))
	for _, s := range model.Sentiments {
		dist[s] = 0
	}
	for i, a := range articles {
		s, err := model.ParseSentiment(string(a.Sentiment))
		if err != nil {
			return nil, model.NewValidationError("article %d: unrecognized sentiment label %q", i, a.Sentiment)
		}
		dist[s]++
	}
	return dist, nil
}

func cloneOverlaps(in []model.TopicOverlap) []model.TopicOverlap {
	out := make([]model.TopicOverlap, len(in))
	for i, o := range in {
		out[i] = model.TopicOverlap{
			Pair:      o.Pair,
			Common:    nonNil(o.Common),
			UniqueToA: nonNil(o.UniqueToA),
			UniqueToB: nonNil(o.UniqueToB),
		}
	}
	return out
}

func nonNil(s []string) []string {
	return append([]string{}, s...)
}
