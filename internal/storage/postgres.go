package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/iWorld-y/sentiment_radar/internal/config"
	"github.com/iWorld-y/sentiment_radar/internal/model"
)

// ErrNotFound 报告不存在
var ErrNotFound = errors.New("report not found")

// MaxPageSize ListRuns 单页上限
const MaxPageSize = 100

// Storage 报告归档
type Storage struct {
	db *sql.DB
}

// RunSummary 归档列表中的一条记录
type RunSummary struct {
	ID        string    `json:"id"`
	Company   string    `json:"company"`
	Articles  int       `json:"articles"`
	CreatedAt time.Time `json:"created_at"`
}

func NewStorage(cfg config.DBConfig) (*Storage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS report_runs (
			id UUID PRIMARY KEY,
			company TEXT NOT NULL,
			article_count INTEGER NOT NULL,
			report JSONB NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS report_pairs (
			id SERIAL PRIMARY KEY,
			run_id UUID REFERENCES report_runs(id) ON DELETE CASCADE,
			article_a INTEGER NOT NULL,
			article_b INTEGER NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			comparison TEXT,
			impact TEXT
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// SaveReport 在一个事务内写入报告及其文章对，返回运行 ID
func (s *Storage) SaveReport(ctx context.Context, r *model.Report) (string, error) {
	r = sanitizeReport(r)
	body, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO report_runs (id, company, article_count, report) VALUES ($1, $2, $3, $4)`,
		id, r.Company, len(r.Articles), string(body),
	); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = fmt.Errorf("%w: %v", err, rerr)
		}
		return "", err
	}

	for i, p := range r.Pairs {
		var comparison, impact string
		if i < len(r.CoverageDifferences) {
			comparison = r.CoverageDifferences[i].Comparison
			impact = r.CoverageDifferences[i].Impact
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO report_pairs (run_id, article_a, article_b, score, comparison, impact) VALUES ($1, $2, $3, $4, $5, $6)`,
			id, p.A, p.B, p.Score, comparison, impact,
		); err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				err = fmt.Errorf("%w: %v", err, rerr)
			}
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// GetReport 按运行 ID 取回序列化后的报告
func (s *Storage) GetReport(ctx context.Context, id string) (json.RawMessage, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT report FROM report_runs WHERE id = $1`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// ListRuns 按时间倒序分页列出归档
func (s *Storage) ListRuns(ctx context.Context, page, pageSize int) ([]RunSummary, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company, article_count, created_at FROM report_runs ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		pageSize, (page-1)*pageSize,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Company, &r.Articles, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// sanitizeReport 返回清理过全部文本字段的副本，序列化后的 JSONB 不会出现 \u0000
func sanitizeReport(r *model.Report) *model.Report {
	out := *r
	out.Company = sanitize(r.Company)

	out.Articles = make([]model.AnalyzedArticle, len(r.Articles))
	for i, a := range r.Articles {
		a.Title = sanitize(a.Title)
		a.Summary = sanitize(a.Summary)
		a.Topics = sanitizeAll(a.Topics)
		out.Articles[i] = a
	}

	out.CoverageDifferences = make([]model.ComparativeInsight, len(r.CoverageDifferences))
	for i, in := range r.CoverageDifferences {
		in.Comparison = sanitize(in.Comparison)
		in.Impact = sanitize(in.Impact)
		out.CoverageDifferences[i] = in
	}

	out.TopicOverlap = make([]model.TopicOverlap, len(r.TopicOverlap))
	for i, o := range r.TopicOverlap {
		o.Common = sanitizeAll(o.Common)
		o.UniqueToA = sanitizeAll(o.UniqueToA)
		o.UniqueToB = sanitizeAll(o.UniqueToB)
		out.TopicOverlap[i] = o
	}

	out.FinalSynthesis = model.FinalSynthesis{
		Primary:   sanitize(r.FinalSynthesis.Primary),
		Secondary: sanitize(r.FinalSynthesis.Secondary),
	}
	return &out
}

func sanitizeAll(items []string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = sanitize(item)
	}
	return out
}

// sanitize 去掉无效 UTF-8 和 NULL 字节，PostgreSQL 文本字段不接受它们
func sanitize(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return strings.ReplaceAll(s, "\x00", "")
}
