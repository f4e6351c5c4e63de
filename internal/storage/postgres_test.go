package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/sentiment_radar/internal/model"
)

func newMockStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Storage{db: db}, mock
}

// jsonBody 匹配合法 JSON 且包含指定片段的参数
type jsonBody struct {
	contains string
}

func (j jsonBody) Match(v driver.Value) bool {
	var s string
	switch b := v.(type) {
	case string:
		s = b
	case []byte:
		s = string(b)
	default:
		return false
	}
	return json.Valid([]byte(s)) && strings.Contains(s, j.contains)
}

func testReport() *model.Report {
	pairs := []model.SimilarityPair{{A: 0, B: 1, Score: 0.9}, {A: 1, B: 2, Score: 0.4}}
	return &model.Report{
		Company: "Tesla",
		Articles: []model.AnalyzedArticle{
			{Article: model.Article{Title: "a", Summary: "s", Sentiment: model.Positive}, Topics: model.TopicSet{"EV"}},
			{Article: model.Article{Title: "b", Summary: "s", Sentiment: model.Negative}, Topics: model.TopicSet{"Recall"}},
			{Article: model.Article{Title: "c", Summary: "s", Sentiment: model.Neutral}, Topics: model.TopicSet{"Plant"}},
		},
		SentimentDistribution: map[model.Sentiment]int{model.Positive: 1, model.Negative: 1, model.Neutral: 1},
		CoverageDifferences: []model.ComparativeInsight{
			{Pair: pairs[0], Comparison: "first", Impact: "impact one"},
			{Pair: pairs[1], Comparison: "second", Impact: "impact two"},
		},
		TopicOverlap: []model.TopicOverlap{
			{Pair: pairs[0], Common: []string{}, UniqueToA: []string{"EV"}, UniqueToB: []string{"Recall"}},
			{Pair: pairs[1], Common: []string{}, UniqueToA: []string{"Recall"}, UniqueToB: []string{"Plant"}},
		},
		FinalSynthesis: model.FinalSynthesis{Primary: "p", Secondary: "s"},
		Pairs:          pairs,
	}
}

func TestSaveReportWritesRunAndPairsInOneTransaction(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_runs")).
		WithArgs(sqlmock.AnyArg(), "Tesla", 3, jsonBody{contains: `"Company":"Tesla"`}).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_pairs")).
		WithArgs(sqlmock.AnyArg(), 0, 1, 0.9, "first", "impact one").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_pairs")).
		WithArgs(sqlmock.AnyArg(), 1, 2, 0.4, "second", "impact two").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	id, err := s.SaveReport(context.Background(), testReport())
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveReportRollsBackOnPairFailure(t *testing.T) {
	s, mock := newMockStorage(t)
	boom := errors.New("insert failed")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_runs")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_pairs")).
		WillReturnError(boom)
	mock.ExpectRollback()

	id, err := s.SaveReport(context.Background(), testReport())
	require.ErrorIs(t, err, boom)
	require.Empty(t, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveReportKeepsEscapedBackslashValid(t *testing.T) {
	s, mock := newMockStorage(t)
	r := testReport()
	r.Company = `C:\u0000dir`
	r.Articles[0].Title = "bad\x00title"
	r.CoverageDifferences[0].Comparison = "nul\x00byte"

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_runs")).
		WithArgs(sqlmock.AnyArg(), `C:\u0000dir`, 3, jsonBody{contains: `"title":"badtitle"`}).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_pairs")).
		WithArgs(sqlmock.AnyArg(), 0, 1, 0.9, "nulbyte", "impact one").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_pairs")).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	_, err := s.SaveReport(context.Background(), r)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	// 调用方的报告不被修改
	require.Equal(t, "bad\x00title", r.Articles[0].Title)
}

func TestSanitizeReportRoundTrips(t *testing.T) {
	r := testReport()
	r.Company = `C:\u0000dir`
	r.FinalSynthesis.Secondary = "x\x00y"
	r.TopicOverlap[0].Common = []string{"a\x00b"}

	body, err := json.Marshal(sanitizeReport(r))
	require.NoError(t, err)
	require.True(t, json.Valid(body))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(body, &doc))
	require.Equal(t, `C:\u0000dir`, doc["Company"])
	require.Equal(t, []any{"p", "xy"}, doc["Final Sentiment Analysis"])
}

func TestGetReport(t *testing.T) {
	s, mock := newMockStorage(t)
	id := uuid.NewString()
	missing := uuid.NewString()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT report FROM report_runs WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"report"}).AddRow([]byte(`{"Company":"Tesla"}`)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT report FROM report_runs WHERE id = $1")).
		WithArgs(missing).
		WillReturnError(sql.ErrNoRows)

	body, err := s.GetReport(context.Background(), id)
	require.NoError(t, err)
	require.JSONEq(t, `{"Company":"Tesla"}`, string(body))

	_, err = s.GetReport(context.Background(), missing)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReportRejectsMalformedID(t *testing.T) {
	s, mock := newMockStorage(t)
	_, err := s.GetReport(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRunsPaging(t *testing.T) {
	created := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	tests := []struct {
		name           string
		page, pageSize int
		limit, offset  int
	}{
		{name: "third page", page: 3, pageSize: 20, limit: 20, offset: 40},
		{name: "defaults", page: 0, pageSize: 0, limit: 10, offset: 0},
		{name: "capped page size", page: 2, pageSize: 10_000_000, limit: MaxPageSize, offset: MaxPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStorage(t)
			mock.ExpectQuery(regexp.QuoteMeta("FROM report_runs ORDER BY created_at DESC LIMIT $1 OFFSET $2")).
				WithArgs(tt.limit, tt.offset).
				WillReturnRows(sqlmock.NewRows([]string{"id", "company", "article_count", "created_at"}).
					AddRow("run-1", "Tesla", 3, created))

			runs, err := s.ListRuns(context.Background(), tt.page, tt.pageSize)
			require.NoError(t, err)
			require.Equal(t, []RunSummary{{ID: "run-1", Company: "Tesla", Articles: 3, CreatedAt: created}}, runs)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSanitize(t *testing.T) {
	require.Equal(t, "Tesla", sanitize("Tes\x00la"))
	require.Equal(t, "ab", sanitize("a\xffb"))
	require.Equal(t, "टेस्ला", sanitize("टेस्ला"))
}
