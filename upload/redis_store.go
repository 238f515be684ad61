package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// =============================================================================
// 💾 Redis 记录存储
// =============================================================================

// RedisConfig Redis 记录存储配置
type RedisConfig struct {
	// Redis 地址
	Addr string `yaml:"addr" json:"addr" env:"UPLOAD_REDIS_ADDR"`

	// 密码
	Password string `yaml:"password" json:"password" env:"UPLOAD_REDIS_PASSWORD"`

	// 数据库编号
	DB int `yaml:"db" json:"db" env:"UPLOAD_REDIS_DB"`

	// 最大重试次数
	MaxRetries int `yaml:"max_retries" json:"max_retries"`

	// 连接池大小
	PoolSize int `yaml:"pool_size" json:"pool_size"`

	// 键前缀
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:       "localhost:6379",
		Password:   "",
		DB:         0,
		MaxRetries: 3,
		PoolSize:   10,
		KeyPrefix:  "evalflow:upload:",
	}
}

// RedisStore 把上传记录存入 Redis，多个评测进程可共享同一批上传，
// 避免对相同内容重复付出上传成本。键 TTL 与记录过期时刻对齐，
// Redis 到期自动清除即表现为缓存未命中。
type RedisStore struct {
	client *redis.Client
	config RedisConfig
	logger *zap.Logger
}

// NewRedisStore 创建 Redis 记录存储并验证连通性。
func NewRedisStore(config RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:       config.Addr,
		Password:   config.Password,
		DB:         config.DB,
		MaxRetries: config.MaxRetries,
		PoolSize:   config.PoolSize,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if config.KeyPrefix == "" {
		config.KeyPrefix = "evalflow:upload:"
	}

	s := &RedisStore{
		client: client,
		config: config,
		logger: logger.With(zap.String("component", "upload_store")),
	}

	logger.Info("upload record store initialized",
		zap.String("addr", config.Addr),
		zap.String("key_prefix", config.KeyPrefix),
	)

	return s, nil
}

func (s *RedisStore) key(fingerprint string) string {
	return s.config.KeyPrefix + fingerprint
}

// Get 读取指纹对应的上传记录。
func (s *RedisStore) Get(ctx context.Context, fingerprint string) (*Record, error) {
	data, err := s.client.Get(ctx, s.key(fingerprint)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var record Record
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("unmarshal upload record: %w", err)
	}
	return &record, nil
}

// Put 写入记录，键 TTL 对齐记录的剩余有效期。
func (s *RedisStore) Put(ctx context.Context, record *Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal upload record: %w", err)
	}

	ttl := time.Until(record.ExpiresAt)
	if ttl <= 0 {
		// 已过期的记录没有存储价值
		return nil
	}

	if err := s.client.Set(ctx, s.key(record.Fingerprint), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	s.logger.Debug("upload record stored",
		zap.String("fingerprint", record.Fingerprint),
		zap.Int64("size_bytes", record.SizeBytes),
		zap.Time("expires_at", record.ExpiresAt),
	)
	return nil
}

// LiveSize 扫描前缀下的全部记录并求和。记录数量与上传次数同量级，
// SCAN 的开销可以接受。
func (s *RedisStore) LiveSize(ctx context.Context, now time.Time) (int64, error) {
	var total int64

	iter := s.client.Scan(ctx, 0, s.config.KeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("redis get %s: %w", iter.Val(), err)
		}

		var record Record
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			continue
		}
		if record.Live(now) {
			total += record.SizeBytes
		}
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan: %w", err)
	}
	return total, nil
}

// Close 关闭底层 Redis 连接。
func (s *RedisStore) Close() error {
	return s.client.Close()
}
