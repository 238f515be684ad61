// Package upload implements the upload-once, reference-many pattern for
// providers that require media to be uploaded before it can be referenced.
package upload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/BaSui01/evalflow/internal/metrics"
	"github.com/BaSui01/evalflow/types"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// 上传缓存的默认约束。TTL 与提供商的文件保留策略对齐，
// 体积上限与账户配额是上传前的本地预检，提供商侧仍可能二次拒绝。
const (
	DefaultTTL             = 48 * time.Hour
	DefaultMaxFileBytes    = 2 << 30  // 2 GB
	DefaultMaxAccountBytes = 20 << 30 // 20 GB
)

// Uploader 是提供商上传 API 的外部协作者，每个需要预上传的
// 提供商一个实现。
type Uploader interface {
	// Provider 返回提供商标识，用于错误与指标归属。
	Provider() string

	// Upload 上传媒体字节并返回远端引用。配额或体积被提供商拒绝时
	// 必须返回 MEDIA_UPLOAD_QUOTA_EXCEEDED 语义的错误。
	Upload(ctx context.Context, media *types.ResolvedMedia) (*types.UploadResult, error)
}

// CacheConfig 上传缓存配置
type CacheConfig struct {
	// 记录有效期
	TTL time.Duration `yaml:"ttl" json:"ttl"`

	// 单文件体积上限
	MaxFileBytes int64 `yaml:"max_file_bytes" json:"max_file_bytes"`

	// 账户存量上限
	MaxAccountBytes int64 `yaml:"max_account_bytes" json:"max_account_bytes"`
}

// DefaultCacheConfig 返回默认上传缓存配置
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:             DefaultTTL,
		MaxFileBytes:    DefaultMaxFileBytes,
		MaxAccountBytes: DefaultMaxAccountBytes,
	}
}

// Cache 按内容指纹去重上传：相同内容只上传一次，之后按 URL 复用。
// 相同指纹的并发请求合并为一次在途上传（single-flight），
// 不同指纹完全并行。过期采用懒惰语义，查到过期记录视作未命中。
type Cache struct {
	store     RecordStore
	config    CacheConfig
	group     singleflight.Group
	collector *metrics.Collector
	logger    *zap.Logger

	// 供测试注入时钟
	now func() time.Time
}

// NewCache 创建上传缓存。collector 可为 nil。
func NewCache(store RecordStore, config CacheConfig, collector *metrics.Collector, logger *zap.Logger) *Cache {
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	if config.MaxFileBytes <= 0 {
		config.MaxFileBytes = DefaultMaxFileBytes
	}
	if config.MaxAccountBytes <= 0 {
		config.MaxAccountBytes = DefaultMaxAccountBytes
	}

	return &Cache{
		store:     store,
		config:    config,
		collector: collector,
		logger:    logger.With(zap.String("component", "upload_cache")),
		now:       time.Now,
	}
}

// Fingerprint 计算媒体内容的稳定指纹。
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// GetOrUpload 返回该内容的远端 URL：有未过期记录直接复用，
// 否则调用 uploader 上传并落记录。配额预检失败返回
// MEDIA_UPLOAD_QUOTA_EXCEEDED，上传失败不自动重试，原样上抛。
func (c *Cache) GetOrUpload(ctx context.Context, media *types.ResolvedMedia, uploader Uploader) (string, error) {
	fingerprint := Fingerprint(media.Bytes)

	v, err, _ := c.group.Do(fingerprint, func() (interface{}, error) {
		return c.getOrUpload(ctx, fingerprint, media, uploader)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Cache) getOrUpload(ctx context.Context, fingerprint string, media *types.ResolvedMedia, uploader Uploader) (string, error) {
	now := c.now()

	record, err := c.store.Get(ctx, fingerprint)
	if err == nil && record.Live(now) {
		c.recordHit()
		c.logger.Debug("upload cache hit",
			zap.String("fingerprint", fingerprint),
			zap.String("url", record.URL),
		)
		return record.URL, nil
	}
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		return "", fmt.Errorf("upload record lookup: %w", err)
	}
	c.recordMiss()

	if err := c.checkQuota(ctx, media, uploader.Provider(), now); err != nil {
		return "", err
	}

	start := now
	result, err := uploader.Upload(ctx, media)
	if err != nil {
		c.recordUpload(uploader.Provider(), "error", media.SizeBytes, c.now().Sub(start))
		if types.IsErrorCode(err, types.ErrUploadQuotaExceeded) {
			return "", err
		}
		return "", types.NewError(types.ErrUploadFailed, "media upload failed").
			WithProvider(uploader.Provider()).WithCause(err)
	}
	c.recordUpload(uploader.Provider(), "success", media.SizeBytes, c.now().Sub(start))

	expiresAt := start.Add(c.config.TTL)
	if !result.ExpiresAt.IsZero() && result.ExpiresAt.Before(expiresAt) {
		expiresAt = result.ExpiresAt
	}

	newRecord := &Record{
		Fingerprint: fingerprint,
		URL:         result.URL,
		SizeBytes:   media.SizeBytes,
		UploadedAt:  start,
		ExpiresAt:   expiresAt,
	}

	// 上传已经完成，取消的评测运行也要留痕，便于同一样本重试复用
	if err := c.store.Put(context.WithoutCancel(ctx), newRecord); err != nil {
		c.logger.Warn("failed to store upload record",
			zap.String("fingerprint", fingerprint),
			zap.Error(err),
		)
	}

	c.logger.Info("media uploaded",
		zap.String("provider", uploader.Provider()),
		zap.String("fingerprint", fingerprint),
		zap.Int64("size_bytes", media.SizeBytes),
		zap.Time("expires_at", expiresAt),
	)
	return result.URL, nil
}

func (c *Cache) checkQuota(ctx context.Context, media *types.ResolvedMedia, provider string, now time.Time) error {
	if media.SizeBytes > c.config.MaxFileBytes {
		return types.NewUploadQuotaExceededError(provider,
			fmt.Sprintf("file size %d exceeds per-file limit %d", media.SizeBytes, c.config.MaxFileBytes))
	}

	liveSize, err := c.store.LiveSize(ctx, now)
	if err != nil {
		return fmt.Errorf("upload quota check: %w", err)
	}
	if liveSize+media.SizeBytes > c.config.MaxAccountBytes {
		return types.NewUploadQuotaExceededError(provider,
			fmt.Sprintf("stored %d + new %d exceeds account limit %d", liveSize, media.SizeBytes, c.config.MaxAccountBytes))
	}
	return nil
}

func (c *Cache) recordHit() {
	if c.collector != nil {
		c.collector.RecordCacheHit("upload")
	}
}

func (c *Cache) recordMiss() {
	if c.collector != nil {
		c.collector.RecordCacheMiss("upload")
	}
}

func (c *Cache) recordUpload(provider, status string, sizeBytes int64, duration time.Duration) {
	if c.collector != nil {
		c.collector.RecordUpload(provider, status, sizeBytes, duration)
	}
}
