package analysis

import (
	"errors"
	"strings"

	"github.com/iWorld-y/sentiment_radar/internal/gateway"
)

// TopicExtraction 单篇文章的主题抽取结果
type TopicExtraction struct {
	Topics []string `json:"topics"`
}

func (t *TopicExtraction) SchemaName() string { return "TopicExtraction" }

func (t *TopicExtraction) FormatInstructions() string {
	return `Respond with: {"topics": ["<topic>", "<topic>"]}`
}

func (t *TopicExtraction) Validate() error {
	t.Topics = cleanList(t.Topics)
	if len(t.Topics) == 0 {
		return errors.New("topics must contain at least one topic")
	}
	return nil
}

// TopicOverlapResult 一对文章的主题重叠
type TopicOverlapResult struct {
	CommonTopics  []string `json:"common_topics"`
	UniqueTopics1 []string `json:"unique_topics_1"`
	UniqueTopics2 []string `json:"unique_topics_2"`
}

func (t *TopicOverlapResult) SchemaName() string { return "TopicOverlap" }

func (t *TopicOverlapResult) FormatInstructions() string {
	return `Respond with: {"common_topics": ["..."], "unique_topics_1": ["..."], "unique_topics_2": ["..."]}. Use an empty list when there is nothing to report.`
}

func (t *TopicOverlapResult) Validate() error {
	// nil 表示字段缺失，[] 是合法的空集合
	if t.CommonTopics == nil || t.UniqueTopics1 == nil || t.UniqueTopics2 == nil {
		return errors.New("common_topics, unique_topics_1 and unique_topics_2 are required")
	}
	t.CommonTopics = cleanList(t.CommonTopics)
	t.UniqueTopics1 = cleanList(t.UniqueTopics1)
	t.UniqueTopics2 = cleanList(t.UniqueTopics2)
	return nil
}

// ComparativeInsightResult 一对文章的对比与影响
type ComparativeInsightResult struct {
	Comparison string `json:"comparison"`
	Impact     string `json:"impact"`
}

func (c *ComparativeInsightResult) SchemaName() string { return "ComparativeInsight" }

func (c *ComparativeInsightResult) FormatInstructions() string {
	return `Respond with: {"comparison": "<one sentence>", "impact": "<one sentence>"}`
}

func (c *ComparativeInsightResult) Validate() error {
	c.Comparison = strings.TrimSpace(c.Comparison)
	c.Impact = strings.TrimSpace(c.Impact)
	if c.Comparison == "" || c.Impact == "" {
		return errors.New("comparison and impact are required")
	}
	return nil
}

// FinalSynthesisResult 两种语言的最终结论
type FinalSynthesisResult struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

func (f *FinalSynthesisResult) SchemaName() string { return "FinalSynthesis" }

func (f *FinalSynthesisResult) FormatInstructions() string {
	return `Respond with: {"primary": "<summary in the primary language>", "secondary": "<summary in the secondary language>"}`
}

func (f *FinalSynthesisResult) Validate() error {
	f.Primary = strings.TrimSpace(f.Primary)
	f.Secondary = strings.TrimSpace(f.Secondary)
	if f.Primary == "" || f.Secondary == "" {
		return errors.New("primary and secondary summaries are required")
	}
	return nil
}

var (
	_ gateway.Schema = (*TopicExtraction)(nil)
	_ gateway.Schema = (*TopicOverlapResult)(nil)
	_ gateway.Schema = (*ComparativeInsightResult)(nil)
	_ gateway.Schema = (*FinalSynthesisResult)(nil)
)

// cleanList 去掉空白项和重复项，保留首次出现的顺序
func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}
