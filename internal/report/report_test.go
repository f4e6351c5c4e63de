package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/sentiment_radar/internal/model"
)

func teslaInput() Input {
	pairs := []model.SimilarityPair{{A: 0, B: 1, Score: 0.82}, {A: 1, B: 2, Score: 0.41}}
	return Input{
		Company: "Tesla",
		Articles: []model.Article{
			{Index: 0, Title: "Tesla sales surge", Summary: "Record deliveries in Q3.", Sentiment: model.Positive},
			{Index: 1, Title: "Regulators investigate Autopilot", Summary: "Safety concerns mount.", Sentiment: model.Negative},
			{Index: 2, Title: "Tesla opens new plant", Summary: "Factory in Texas.", Sentiment: model.Neutral},
		},
		Topics: []model.TopicSet{
			{"Electric Vehicles", "Sales"},
			{"Regulation", "Self-Driving Cars"},
			{"Manufacturing"},
		},
		Pairs: pairs,
		Overlaps: []model.TopicOverlap{
			{Pair: pairs[0], Common: []string{"Electric Vehicles"}, UniqueToA: []string{"Sales"}, UniqueToB: []string{"Regulation"}},
			{Pair: pairs[1], Common: []string{}, UniqueToA: []string{"Regulation"}, UniqueToB: []string{"Manufacturing"}},
		},
		Insights: []model.ComparativeInsight{
			{Pair: pairs[0], Comparison: "Article 0 praises sales, Article 1 flags risk.", Impact: "Mixed investor signals."},
			{Pair: pairs[1], Comparison: "Article 1 is critical, Article 2 is neutral.", Impact: "Limited impact."},
		},
		Synthesis: model.FinalSynthesis{Primary: "Coverage is mixed.", Secondary: "कवरेज मिश्रित है।"},
	}
}

func TestBuildTeslaScenario(t *testing.T) {
	r, err := Build(teslaInput())
	require.NoError(t, err)

	require.Equal(t, "Tesla", r.Company)
	require.Len(t, r.Articles, 3)
	assert.Equal(t, model.TopicSet{"Regulation", "Self-Driving Cars"}, r.Articles[1].Topics)
	assert.Equal(t, map[model.Sentiment]int{model.Positive: 1, model.Negative: 1, model.Neutral: 1}, r.SentimentDistribution)
	assert.Len(t, r.CoverageDifferences, 2)
	assert.Len(t, r.TopicOverlap, 2)
	assert.Equal(t, model.SimilarityPair{A: 1, B: 2, Score: 0.41}, r.TopicOverlap[1].Pair)
}

func TestBuildDistributionSumsToArticleCount(t *testing.T) {
	in := teslaInput()
	in.Articles[2].Sentiment = "Positive"
	r, err := Build(in)
	require.NoError(t, err)

	total := 0
	for _, n := range r.SentimentDistribution {
		total += n
	}
	require.Equal(t, len(in.Articles), total)
	require.Equal(t, 2, r.SentimentDistribution[model.Positive])
	require.Zero(t, r.SentimentDistribution[model.Neutral])
	require.Equal(t, model.Positive, r.Articles[2].Sentiment)
}

func TestBuildRejectsMisalignedInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{name: "topic count", mutate: func(in *Input) { in.Topics = in.Topics[:2] }},
		{name: "overlap count", mutate: func(in *Input) { in.Overlaps = in.Overlaps[:1] }},
		{name: "insight count", mutate: func(in *Input) { in.Insights = nil }},
		{name: "unknown sentiment", mutate: func(in *Input) { in.Articles[0].Sentiment = "mixed" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := teslaInput()
			tt.mutate(&in)
			_, err := Build(in)
			require.True(t, model.IsValidation(err), "got %v", err)
		})
	}
}

func TestBuildDoesNotAliasInput(t *testing.T) {
	in := teslaInput()
	r, err := Build(in)
	require.NoError(t, err)

	in.Topics[0][0] = "changed"
	in.Overlaps[0].Common[0] = "changed"
	assert.Equal(t, "Electric Vehicles", r.Articles[0].Topics[0])
	assert.Equal(t, "Electric Vehicles", r.TopicOverlap[0].Common[0])
}

func TestReportJSONShape(t *testing.T) {
	in := teslaInput()
	in.Overlaps[1].Common = nil
	r, err := Build(in)
	require.NoError(t, err)

	raw, err := json.Marshal(r)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.ElementsMatch(t, []string{"Company", "Articles", "Comparative Sentiment Score", "Final Sentiment Analysis"}, keys(doc))

	var articles []map[string]any
	require.NoError(t, json.Unmarshal(doc["Articles"], &articles))
	require.Len(t, articles, 3)
	require.Equal(t, map[string]any{
		"title":     "Tesla sales surge",
		"summary":   "Record deliveries in Q3.",
		"sentiment": "positive",
		"topics":    []any{"Electric Vehicles", "Sales"},
	}, articles[0])

	var score map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc["Comparative Sentiment Score"], &score))
	require.ElementsMatch(t, []string{"Sentiment Distribution", "Coverage Differences", "Topic Overlap"}, keys(score))
	require.JSONEq(t, `{"positive":1,"negative":1,"neutral":1}`, string(score["Sentiment Distribution"]))
	require.JSONEq(t, `[
		{"comparison":"Article 0 praises sales, Article 1 flags risk.","impact":"Mixed investor signals."},
		{"comparison":"Article 1 is critical, Article 2 is neutral.","impact":"Limited impact."}
	]`, string(score["Coverage Differences"]))
	require.JSONEq(t, `[
		{"common":["Electric Vehicles"],"uniqueToA":["Sales"],"uniqueToB":["Regulation"]},
		{"common":[],"uniqueToA":["Regulation"],"uniqueToB":["Manufacturing"]}
	]`, string(score["Topic Overlap"]))
	require.JSONEq(t, `["Coverage is mixed.","कवरेज मिश्रित है।"]`, string(doc["Final Sentiment Analysis"]))
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
