package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"cv-pipeline-go/internal/config"
	"cv-pipeline-go/internal/embedding"
	"cv-pipeline-go/internal/extractor"
	"cv-pipeline-go/internal/logger"
	"cv-pipeline-go/internal/processor"
	"cv-pipeline-go/internal/storage"
	"cv-pipeline-go/internal/tracing"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径，留空则按默认搜索路径查找")
	pflag.Parse()

	// 1. 加载配置文件
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置文件失败")
	}

	// 2. 初始化日志系统
	initLogger(cfg)

	// 3. 初始化链路追踪
	ctx := context.Background()
	shutdownTracer, err := tracing.InitTracer(ctx, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化链路追踪失败")
	}

	// 4. 初始化存储管理器
	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化存储管理器失败")
	}
	defer storageManager.Close()

	if storageManager.MySQL == nil || storageManager.MinIO == nil || storageManager.RabbitMQ == nil {
		logger.Fatal().Msg("提取流水线需要MySQL、MinIO和RabbitMQ均可用")
	}

	// 5. 声明消息队列拓扑
	if err := storageManager.RabbitMQ.EnsureExtractionTopology(); err != nil {
		logger.Fatal().Err(err).Msg("声明消息队列拓扑失败")
	}

	// 6. 配置句向量模型单例（加载失败时语义信号自动降级）
	embedding.Configure(&cfg.Embedding)

	// 7. 组装提取器与编排器
	ocrEngine, err := extractor.NewGosseractEngine(cfg.Extractor.OCRLanguages)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化OCR引擎失败")
	}
	defer ocrEngine.Close()

	textExtractor := extractor.New(&cfg.Extractor, ocrEngine)
	textExtractor.SetVersion(cfg.ActiveExtractorVersion)
	pipeline := processor.NewPipeline(storageManager.MySQL, storageManager.MinIO, textExtractor)

	// 8. 启动消费者工作池
	consumerCtx, cancelConsumers := context.WithCancel(ctx)
	consumer := processor.NewConsumer(
		pipeline,
		storageManager.RabbitMQ,
		storageManager.MySQL,
		storageManager.RabbitMQ,
		&cfg.RabbitMQ,
		&cfg.Pipeline,
	)
	if err := consumer.Start(consumerCtx); err != nil {
		cancelConsumers()
		logger.Fatal().Err(err).Msg("启动消费者工作池失败")
	}

	logger.Info().Str("queue", cfg.RabbitMQ.ExtractionQueue).Msg("提取流水线已就绪")

	// 9. 等待终止信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("接收到终止信号，正在优雅退出...")

	cancelConsumers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Pipeline.ShutdownTimeoutDuration())
	defer cancel()
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("关闭链路追踪导出器失败")
	}

	logger.Info().Msg("优雅退出完成")
}

// 初始化日志系统
func initLogger(cfg *config.Config) {
	logConfig := logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	}
	if os.Getenv("ENV") == "production" && logConfig.Format == "" {
		logConfig.Level = "info"
		logConfig.Format = "json"
	}
	if logConfig.TimeFormat == "" {
		logConfig.TimeFormat = time.RFC3339
	}

	logger.Init(logConfig)

	// 设置全局字段
	logger.Logger = logger.Logger.With().
		Str("app", "cv-pipeline").
		Logger()
}
