// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// 媒体解析指标
	resolutionsTotal   *prometheus.CounterVec
	resolutionFailures *prometheus.CounterVec
	resolvedBytes      *prometheus.HistogramVec

	// 调度指标
	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	optionsDropped   *prometheus.CounterVec

	// 上传指标
	uploadsTotal   *prometheus.CounterVec
	uploadDuration *prometheus.HistogramVec
	uploadBytes    *prometheus.HistogramVec

	// 上传缓存指标
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// 日志脱敏指标
	redactionsTotal *prometheus.CounterVec

	// 数据库指标
	dbQueryDuration *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// 媒体解析指标
	c.resolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_resolutions_total",
			Help:      "Total number of media reference resolutions",
		},
		[]string{"kind", "source"},
	)

	c.resolutionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_resolution_failures_total",
			Help:      "Total number of failed media resolutions",
		},
		[]string{"kind", "code"},
	)

	c.resolvedBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "media_resolved_bytes",
			Help:      "Size of resolved media in bytes",
			Buckets:   prometheus.ExponentialBuckets(1024, 8, 8),
		},
		[]string{"kind"},
	)

	// 调度指标
	c.dispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Total number of content dispatch attempts",
		},
		[]string{"provider", "model", "status"},
	)

	c.dispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Content dispatch duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider", "model"},
	)

	c.optionsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_options_dropped_total",
			Help:      "Total number of unsupported media options dropped",
		},
		[]string{"provider", "option"},
	)

	// 上传指标
	c.uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Total number of media uploads issued",
		},
		[]string{"provider", "status"},
	)

	c.uploadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "Media upload duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 180},
		},
		[]string{"provider"},
	)

	c.uploadBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_bytes",
			Help:      "Size of uploaded media in bytes",
			Buckets:   prometheus.ExponentialBuckets(1024, 8, 10),
		},
		[]string{"provider"},
	)

	// 上传缓存指标
	c.cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	c.cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// 日志脱敏指标
	c.redactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_redactions_total",
			Help:      "Total number of media items redacted from logs",
		},
		[]string{"kind"},
	)

	// 数据库指标
	c.dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"database", "operation"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🖼️ 媒体解析指标记录
// =============================================================================

// RecordResolution 记录一次媒体解析
func (c *Collector) RecordResolution(kind, source string, sizeBytes int64) {
	c.resolutionsTotal.WithLabelValues(kind, source).Inc()
	c.resolvedBytes.WithLabelValues(kind).Observe(float64(sizeBytes))
}

// RecordResolutionFailure 记录一次解析失败
func (c *Collector) RecordResolutionFailure(kind, code string) {
	c.resolutionFailures.WithLabelValues(kind, code).Inc()
}

// =============================================================================
// 🚚 调度指标记录
// =============================================================================

// RecordDispatch 记录一次内容调度
func (c *Collector) RecordDispatch(provider, model, status string, duration time.Duration) {
	c.dispatchTotal.WithLabelValues(provider, model, status).Inc()
	c.dispatchDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
}

// RecordOptionDropped 记录一次被降级丢弃的选项
func (c *Collector) RecordOptionDropped(provider, option string) {
	c.optionsDropped.WithLabelValues(provider, option).Inc()
}

// =============================================================================
// ☁️ 上传指标记录
// =============================================================================

// RecordUpload 记录一次上传
func (c *Collector) RecordUpload(provider, status string, sizeBytes int64, duration time.Duration) {
	c.uploadsTotal.WithLabelValues(provider, status).Inc()
	c.uploadDuration.WithLabelValues(provider).Observe(duration.Seconds())
	c.uploadBytes.WithLabelValues(provider).Observe(float64(sizeBytes))
}

// =============================================================================
// 💾 缓存指标记录
// =============================================================================

// RecordCacheHit 记录缓存命中
func (c *Collector) RecordCacheHit(cacheType string) {
	c.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (c *Collector) RecordCacheMiss(cacheType string) {
	c.cacheMisses.WithLabelValues(cacheType).Inc()
}

// =============================================================================
// 🙈 日志脱敏指标记录
// =============================================================================

// RecordRedaction 记录一次媒体脱敏
func (c *Collector) RecordRedaction(kind string) {
	c.redactionsTotal.WithLabelValues(kind).Inc()
}

// =============================================================================
// 🗄️ 数据库指标记录
// =============================================================================

// RecordDBQuery 记录数据库查询
func (c *Collector) RecordDBQuery(database, operation string, duration time.Duration) {
	c.dbQueryDuration.WithLabelValues(database, operation).Observe(duration.Seconds())
}
