package server

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	"github.com/iWorld-y/sentiment_radar/internal/config"
	"github.com/iWorld-y/sentiment_radar/internal/engine"
	"github.com/iWorld-y/sentiment_radar/internal/logger"
	"github.com/iWorld-y/sentiment_radar/internal/service"
	"github.com/iWorld-y/sentiment_radar/internal/storage"
)

// ProviderSet 是对比服务的依赖注入 Provider 集合
var ProviderSet = wire.NewSet(
	NewHTTPServer,
	NewArchive,
	NewRadarEngine,
	wire.Bind(new(service.Analyzer), new(*engine.Engine)),
	service.NewCompareService,
)

// NewArchive 配置了数据库时打开归档，否则返回 nil
func NewArchive(c *config.Config, l log.Logger) (service.ReportArchive, func(), error) {
	helper := log.NewHelper(l)
	if c.DB.Host == "" {
		helper.Info("db.host is empty, report archive disabled")
		return nil, func() {}, nil
	}
	store, err := storage.NewStorage(c.DB)
	if err != nil {
		helper.Errorf("Failed to init storage: %v", err)
		return nil, nil, err
	}
	cleanup := func() {
		helper.Info("closing the report archive")
		store.Close()
	}
	return store, cleanup, nil
}

// NewRadarEngine 初始化分析引擎
func NewRadarEngine(c *config.Config, archive service.ReportArchive, l log.Logger) (*engine.Engine, error) {
	if err := logger.InitLogger(c.Log.Level, c.Log.File); err != nil {
		log.NewHelper(l).Errorf("Failed to init engine logger: %v", err)
		_ = logger.InitLogger("info", "") // 降级处理
	}

	var saver engine.Saver
	if archive != nil {
		saver = archive
	}
	eng, err := engine.NewEngine(context.Background(), c, saver)
	if err != nil {
		log.NewHelper(l).Errorf("Failed to init engine: %v", err)
		return nil, err
	}
	return eng, nil
}
