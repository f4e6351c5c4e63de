package model

import (
	"encoding/json"
	"strings"
)

// Sentiment 情感标签
type Sentiment string

const (
	Positive Sentiment = "positive"
	Negative Sentiment = "negative"
	Neutral  Sentiment = "neutral"
)

// Sentiments 可识别的情感标签，顺序即报告中的展示顺序
var Sentiments = []Sentiment{Positive, Negative, Neutral}

// ParseSentiment 解析外部分类器给出的标签，忽略大小写和首尾空白
func ParseSentiment(raw string) (Sentiment, error) {
	s := Sentiment(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case Positive, Negative, Neutral:
		return s, nil
	}
	return "", NewValidationError("unrecognized sentiment label %q", raw)
}

// Article 带情感标签的文章，Index 为其在输入序列中的位置
type Article struct {
	Index     int       `json:"-"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Sentiment Sentiment `json:"sentiment"`
}

// Text 相似度计算使用的文本
func (a Article) Text() string {
	return a.Title + ". " + a.Summary
}

// SimilarityPair 一对相似文章，满足 A < B
type SimilarityPair struct {
	A     int     `json:"a"`
	B     int     `json:"b"`
	Score float64 `json:"score"`
}

// TopicSet 单篇文章的主题列表，保留抽取顺序
type TopicSet []string

// TopicOverlap 一对文章的主题重叠
type TopicOverlap struct {
	Pair      SimilarityPair `json:"-"`
	Common    []string       `json:"common"`
	UniqueToA []string       `json:"uniqueToA"`
	UniqueToB []string       `json:"uniqueToB"`
}

// ComparativeInsight 一对文章的对比结论
type ComparativeInsight struct {
	Pair       SimilarityPair `json:"-"`
	Comparison string         `json:"comparison"`
	Impact     string         `json:"impact"`
}

// FinalSynthesis 最终综合结论，两种语言各一句
type FinalSynthesis struct {
	Primary   string
	Secondary string
}

// MarshalJSON 输出为 [primary, secondary]
func (f FinalSynthesis) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{f.Primary, f.Secondary})
}

// AnalyzedArticle 报告中的文章条目
type AnalyzedArticle struct {
	Article
	Topics TopicSet `json:"topics"`
}

// Report 对比情感报告
type Report struct {
	Company               string
	Articles              []AnalyzedArticle
	SentimentDistribution map[Sentiment]int
	CoverageDifferences   []ComparativeInsight
	TopicOverlap          []TopicOverlap
	FinalSynthesis        FinalSynthesis
	// Pairs 相似度选出的文章对，不参与序列化
	Pairs []SimilarityPair
}

type comparativeScore struct {
	SentimentDistribution map[Sentiment]int    `json:"Sentiment Distribution"`
	CoverageDifferences   []ComparativeInsight `json:"Coverage Differences"`
	TopicOverlap          []TopicOverlap       `json:"Topic Overlap"`
}

type reportJSON struct {
	Company        string            `json:"Company"`
	Articles       []AnalyzedArticle `json:"Articles"`
	Comparative    comparativeScore  `json:"Comparative Sentiment Score"`
	FinalSentiment FinalSynthesis    `json:"Final Sentiment Analysis"`
}

// MarshalJSON 按对外约定的结构输出报告
func (r *Report) MarshalJSON() ([]byte, error) {
	articles := r.Articles
	if articles == nil {
		articles = []AnalyzedArticle{}
	}
	diffs := r.CoverageDifferences
	if diffs == nil {
		diffs = []ComparativeInsight{}
	}
	overlaps := r.TopicOverlap
	if overlaps == nil {
		overlaps = []TopicOverlap{}
	}
	return json.Marshal(reportJSON{
		Company:  r.Company,
		Articles: articles,
		Comparative: comparativeScore{
			SentimentDistribution: r.SentimentDistribution,
			CoverageDifferences:   diffs,
			TopicOverlap:          overlaps,
		},
		FinalSentiment: r.FinalSynthesis,
	})
}
