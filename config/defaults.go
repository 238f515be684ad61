package config

import "time"

// DefaultConfig 返回完整默认配置
func DefaultConfig() *Config {
	return &Config{
		Media:     DefaultMediaConfig(),
		Upload:    DefaultUploadConfig(),
		Providers: DefaultProvidersConfig(),
		Database:  DefaultDatabaseConfig(),
		Log:       DefaultLogConfig(),
		Metrics:   DefaultMetricsConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultMediaConfig 返回默认媒体处理配置
func DefaultMediaConfig() MediaConfig {
	return MediaConfig{
		IncludeInLogs:      true,
		CapabilityTable:    "",
		ResolveConcurrency: 8,
	}
}

// DefaultUploadConfig 返回默认上传缓存配置
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		TTL:             48 * time.Hour,
		MaxFileBytes:    2 << 30,
		MaxAccountBytes: 20 << 30,
		Store:           "memory",
		Redis:           DefaultRedisConfig(),
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:     "localhost:6379",
		Password: "",
		DB:       0,
		PoolSize: 10,
	}
}

// DefaultProvidersConfig 返回默认提供商配置
func DefaultProvidersConfig() ProvidersConfig {
	return ProvidersConfig{
		OpenAI: ProviderConfig{
			BaseURL: "https://api.openai.com/v1",
			Timeout: 120 * time.Second,
		},
		Anthropic: ProviderConfig{
			BaseURL: "https://api.anthropic.com",
			Timeout: 120 * time.Second,
		},
		Gemini: GeminiConfig{
			BaseURL:            "https://generativelanguage.googleapis.com",
			Timeout:            180 * time.Second,
			UploadRateLimit:    2,
			UploadPollInterval: 2 * time.Second,
		},
	}
}

// DefaultDatabaseConfig 返回默认数据库配置
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "sqlite",
		DSN:             "evalflow.db",
		MaxOpenConns:    100,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "evalflow",
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "evalflow",
		SampleRate:   1.0,
	}
}
