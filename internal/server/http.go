package server

import (
	"context"
	"strconv"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/sentiment_radar/internal/config"
	"github.com/iWorld-y/sentiment_radar/internal/service"
)

func NewHTTPServer(c *config.Config, s *service.CompareService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(recovery.WithHandler(func(ctx context.Context, req, err any) error {
				log.NewHelper(logger).WithContext(ctx).Errorf("panic recovered: %v", err)
				return errors.InternalServer("PANIC", "internal error")
			})),
		),
	}
	if c.Server.Addr != "" {
		opts = append(opts, http.Address(c.Server.Addr))
	}
	if c.Server.Timeout != "" {
		if d, err := time.ParseDuration(c.Server.Timeout); err == nil {
			opts = append(opts, http.Timeout(d))
		}
	}

	srv := http.NewServer(opts...)
	registerRoutes(srv, s)
	return srv
}

func registerRoutes(srv *http.Server, s *service.CompareService) {
	r := srv.Route("/")

	r.POST("/v1/compare", func(ctx http.Context) error {
		var in service.CompareRequest
		if err := ctx.Bind(&in); err != nil {
			return errors.BadRequest("INVALID_BODY", err.Error())
		}
		h := ctx.Middleware(func(c context.Context, req any) (any, error) {
			return s.Compare(c, req.(*service.CompareRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.GET("/v1/reports", func(ctx http.Context) error {
		page, _ := strconv.Atoi(ctx.Query().Get("page"))
		pageSize, _ := strconv.Atoi(ctx.Query().Get("page_size"))
		out, err := s.ListReports(ctx, page, pageSize)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.GET("/v1/reports/{id}", func(ctx http.Context) error {
		out, err := s.GetReport(ctx, ctx.Vars().Get("id"))
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})
}
