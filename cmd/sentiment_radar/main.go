package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/iWorld-y/sentiment_radar/internal/config"
	"github.com/iWorld-y/sentiment_radar/internal/engine"
	"github.com/iWorld-y/sentiment_radar/internal/logger"
	"github.com/iWorld-y/sentiment_radar/internal/storage"
)

var (
	flagconf    string
	flagInput   string
	flagCompany string
	flagTopK    int
	flagOut     string
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
	flag.StringVar(&flagInput, "input", "", "JSON file with [{title, summary, sentiment}]")
	flag.StringVar(&flagCompany, "company", "", "company name")
	flag.IntVar(&flagTopK, "k", 0, "number of similar article pairs, 0 uses analysis.top_k")
	flag.StringVar(&flagOut, "out", "", "output file, empty writes to stdout")
}

func main() {
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadConfig(flagconf)
	if err != nil {
		log.Fatalf("无法加载配置文件: %v", err)
	}
	if flagInput == "" || flagCompany == "" {
		log.Fatal("参数错误: 必须指定 -input 和 -company")
	}

	// 2. 初始化日志
	if err = logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}

	// 3. 读取文章
	data, err := os.ReadFile(flagInput)
	if err != nil {
		logger.Log.Fatalf("无法读取文章文件: %v", err)
	}
	var articles []engine.ArticleInput
	if err := json.Unmarshal(data, &articles); err != nil {
		logger.Log.Fatalf("文章文件格式错误: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. 可选的归档
	var saver engine.Saver
	if cfg.DB.Host != "" {
		store, err := storage.NewStorage(cfg.DB)
		if err != nil {
			logger.Log.Errorf("数据库初始化失败，跳过归档: %v", err)
		} else {
			defer store.Close()
			saver = store
		}
	}

	eng, err := engine.NewEngine(ctx, cfg, saver)
	if err != nil {
		logger.Log.Fatalf("引擎初始化失败: %v", err)
	}

	// 5. 运行
	report, err := eng.Run(ctx, engine.RunOptions{
		Company:  flagCompany,
		Articles: articles,
		TopK:     flagTopK,
		ProgressCallback: func(status string, progress int) {
			logger.Log.Infof("[%3d%%] %s", progress, status)
		},
	})
	if err != nil {
		logger.Log.Fatalf("分析失败: %v", err)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Log.Fatalf("报告序列化失败: %v", err)
	}
	if flagOut == "" {
		os.Stdout.Write(append(out, '\n'))
		return
	}
	if err := os.WriteFile(flagOut, out, 0o644); err != nil {
		logger.Log.Fatalf("写入报告失败: %v", err)
	}
	logger.Log.Infof("报告已生成: %s", flagOut)
}
