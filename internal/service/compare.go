package service

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/sentiment_radar/internal/engine"
	"github.com/iWorld-y/sentiment_radar/internal/model"
	"github.com/iWorld-y/sentiment_radar/internal/storage"
)

// Analyzer 执行一次对比分析
type Analyzer interface {
	Run(ctx context.Context, opts engine.RunOptions) (*model.Report, error)
}

// ReportArchive 报告归档，未配置数据库时为 nil
type ReportArchive interface {
	engine.Saver
	GetReport(ctx context.Context, id string) (json.RawMessage, error)
	ListRuns(ctx context.Context, page, pageSize int) ([]storage.RunSummary, error)
}

// CompareRequest POST /v1/compare 请求体
type CompareRequest struct {
	Company  string                `json:"company"`
	TopK     int                   `json:"top_k"`
	Articles []engine.ArticleInput `json:"articles"`
}

// ListReportsReply 归档列表
type ListReportsReply struct {
	Reports []storage.RunSummary `json:"reports"`
}

type CompareService struct {
	analyzer Analyzer
	archive  ReportArchive
	log      *log.Helper
}

func NewCompareService(analyzer Analyzer, archive ReportArchive, logger log.Logger) *CompareService {
	return &CompareService{
		analyzer: analyzer,
		archive:  archive,
		log:      log.NewHelper(logger),
	}
}

// Compare 对一组文章做对比情感分析
func (s *CompareService) Compare(ctx context.Context, req *CompareRequest) (*model.Report, error) {
	r, err := s.analyzer.Run(ctx, engine.RunOptions{
		Company:  req.Company,
		Articles: req.Articles,
		TopK:     req.TopK,
	})
	if err != nil {
		s.log.WithContext(ctx).Errorf("compare [%s] failed: %v", req.Company, err)
		return nil, toHTTPError(err)
	}
	return r, nil
}

func (s *CompareService) GetReport(ctx context.Context, id string) (json.RawMessage, error) {
	if s.archive == nil {
		return nil, errors.NotFound("ARCHIVE_DISABLED", "report archive is not configured")
	}
	body, err := s.archive.GetReport(ctx, id)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, errors.NotFound("REPORT_NOT_FOUND", "report not found")
		}
		return nil, errors.InternalServer("ARCHIVE_ERROR", err.Error())
	}
	return body, nil
}

func (s *CompareService) ListReports(ctx context.Context, page, pageSize int) (*ListReportsReply, error) {
	if s.archive == nil {
		return nil, errors.NotFound("ARCHIVE_DISABLED", "report archive is not configured")
	}
	runs, err := s.archive.ListRuns(ctx, page, pageSize)
	if err != nil {
		return nil, errors.InternalServer("ARCHIVE_ERROR", err.Error())
	}
	if runs == nil {
		runs = []storage.RunSummary{}
	}
	return &ListReportsReply{Reports: runs}, nil
}

// toHTTPError 把流水线错误映射为 HTTP 状态码
func toHTTPError(err error) error {
	reason := "PIPELINE_FAILED"
	var se *model.StageError
	if stderrors.As(err, &se) {
		reason = "STAGE_" + string(se.Stage)
	}

	switch {
	case model.IsValidation(err):
		return errors.BadRequest("INVALID_INPUT", err.Error())
	case model.IsRateLimit(err):
		return errors.New(429, reason, err.Error())
	case model.IsSchema(err):
		return errors.New(502, reason, err.Error())
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.GatewayTimeout(reason, err.Error())
	case model.IsTransport(err):
		return errors.ServiceUnavailable(reason, err.Error())
	default:
		return errors.InternalServer(reason, err.Error())
	}
}
