// Package evalflow provides a top-level convenience entry point that wires
// the multimodal content pipeline from configuration.
//
// Usage:
//
//	import "github.com/BaSui01/evalflow"
//
//	sys, err := evalflow.Open("config.yaml")
//	payload, resolved, err := sys.Dispatcher.Dispatch(ctx, req)
//	err = sys.Sink.Record(ctx, sampleID, req.Provider, req.Model, resolved, err)
//
// Each component can also be constructed directly from its own package when
// finer control is needed.
package evalflow

import (
	"context"
	"fmt"

	"github.com/BaSui01/evalflow/capability"
	"github.com/BaSui01/evalflow/config"
	"github.com/BaSui01/evalflow/dispatch"
	"github.com/BaSui01/evalflow/evallog"
	"github.com/BaSui01/evalflow/internal/database"
	"github.com/BaSui01/evalflow/internal/metrics"
	"github.com/BaSui01/evalflow/internal/telemetry"
	"github.com/BaSui01/evalflow/upload"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// System 持有按配置装配好的整条流水线。
type System struct {
	Config     *config.Config
	Logger     *zap.Logger
	Registry   *capability.Registry
	Cache      *upload.Cache
	Dispatcher *dispatch.Dispatcher
	Redactor   *evallog.Redactor
	Sink       *evallog.Sink

	collector *metrics.Collector
	closers   []func() error
}

// Open 从配置文件（可被环境变量覆盖）装配系统。
func Open(configPath string) (*System, error) {
	cfg, err := config.NewLoader().WithConfigPath(configPath).Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return New(cfg)
}

// New 按给定配置装配系统。
func New(cfg *config.Config) (*System, error) {
	logger := buildLogger(cfg.Log)

	sys := &System{Config: cfg, Logger: logger}
	sys.closers = append(sys.closers, func() error {
		_ = logger.Sync()
		return nil
	})

	if cfg.Metrics.Enabled {
		sys.collector = metrics.NewCollector(cfg.Metrics.Namespace, logger)
	}

	if cfg.Telemetry.Enabled {
		providers, err := telemetry.Init(cfg.Telemetry, logger)
		if err != nil {
			return nil, fmt.Errorf("init telemetry: %w", err)
		}
		sys.closers = append(sys.closers, func() error {
			return providers.Shutdown(context.Background())
		})
	}

	table, err := loadCapabilityTable(cfg.Media.CapabilityTable)
	if err != nil {
		return nil, err
	}
	sys.Registry = capability.NewRegistry(table, logger)

	store, err := buildRecordStore(cfg, logger, sys)
	if err != nil {
		return nil, err
	}
	sys.Cache = upload.NewCache(store, upload.CacheConfig{
		TTL:             cfg.Upload.TTL,
		MaxFileBytes:    cfg.Upload.MaxFileBytes,
		MaxAccountBytes: cfg.Upload.MaxAccountBytes,
	}, sys.collector, logger)

	opts := []dispatch.Option{dispatch.WithConcurrency(cfg.Media.ResolveConcurrency)}
	if sys.collector != nil {
		opts = append(opts, dispatch.WithMetrics(sys.collector))
	}
	sys.Dispatcher = dispatch.NewDispatcher(sys.Registry, sys.Cache, logger, opts...)

	if cfg.Providers.Gemini.APIKey != "" {
		sys.Dispatcher.RegisterUploader("gemini", upload.NewGeminiUploader(upload.GeminiConfig{
			APIKey:       cfg.Providers.Gemini.APIKey,
			BaseURL:      cfg.Providers.Gemini.BaseURL,
			Timeout:      cfg.Providers.Gemini.Timeout,
			RateLimit:    cfg.Providers.Gemini.UploadRateLimit,
			PollInterval: cfg.Providers.Gemini.UploadPollInterval,
		}, logger))
	}

	sys.Redactor = evallog.NewRedactor(cfg.Media.IncludeInLogs, sys.collector, logger)

	db, err := database.Open(database.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open eval log database: %w", err)
	}
	sys.closers = append(sys.closers, db.Close)

	sys.Sink, err = evallog.NewSink(db, sys.Redactor, sys.collector, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("evalflow system initialized",
		zap.Bool("media_in_logs", cfg.Media.IncludeInLogs),
		zap.String("upload_store", cfg.Upload.Store),
		zap.Int("capability_table_version", sys.Registry.Version()),
	)
	return sys, nil
}

// Close 逆序关闭所有组件。
func (s *System) Close() error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func loadCapabilityTable(path string) (*capability.Table, error) {
	if path == "" {
		return nil, nil
	}
	table, err := capability.LoadTable(path)
	if err != nil {
		return nil, fmt.Errorf("load capability table: %w", err)
	}
	return table, nil
}

func buildRecordStore(cfg *config.Config, logger *zap.Logger, sys *System) (upload.RecordStore, error) {
	switch cfg.Upload.Store {
	case "redis":
		store, err := upload.NewRedisStore(upload.RedisConfig{
			Addr:      cfg.Upload.Redis.Addr,
			Password:  cfg.Upload.Redis.Password,
			DB:        cfg.Upload.Redis.DB,
			PoolSize:  cfg.Upload.Redis.PoolSize,
			KeyPrefix: "evalflow:upload:",
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open upload record store: %w", err)
		}
		sys.closers = append(sys.closers, store.Close)
		return store, nil
	default:
		return upload.NewMemoryStore(), nil
	}
}

// buildLogger 按日志配置构建 zap logger。
func buildLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	if err := level.Set(cfg.Level); err != nil {
		level = zapcore.InfoLevel
	}

	// 配置编码器
	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputPaths := cfg.OutputPaths
	if len(outputPaths) == 0 {
		outputPaths = []string{"stdout"}
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         "json",
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}
	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	}

	var opts []zap.Option
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	if cfg.EnableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	logger, err := zapConfig.Build(opts...)
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}
	return logger
}
