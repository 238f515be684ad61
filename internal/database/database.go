// Package database provides internal database access.
// This package is internal and should not be imported by external projects.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// =============================================================================
// 🗄️ 数据库连接管理
// =============================================================================

// Config 数据库配置
type Config struct {
	// 驱动类型：postgres / mysql / sqlite
	Driver string `yaml:"driver" json:"driver" env:"DB_DRIVER"`

	// 连接串。sqlite 时为文件路径，":memory:" 表示内存库
	DSN string `yaml:"dsn" json:"dsn" env:"DB_DSN"`

	// 最大空闲连接数
	MaxIdleConns int `yaml:"max_idle_conns" json:"max_idle_conns"`

	// 最大打开连接数
	MaxOpenConns int `yaml:"max_open_conns" json:"max_open_conns"`

	// 连接最大生命周期
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
}

// DefaultConfig 返回默认数据库配置
func DefaultConfig() Config {
	return Config{
		Driver:          "sqlite",
		DSN:             "evalflow.db",
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Hour,
	}
}

// DB 包装 GORM 实例与底层连接池。
type DB struct {
	gorm   *gorm.DB
	sqlDB  *sql.DB
	logger *zap.Logger
}

// Open 按配置的驱动打开数据库并应用连接池参数。
func Open(config Config, logger *zap.Logger) (*DB, error) {
	dialector, err := dialectorFor(config)
	if err != nil {
		return nil, err
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	logger = logger.With(zap.String("component", "database"))
	logger.Info("database opened",
		zap.String("driver", config.Driver),
		zap.Int("max_open_conns", config.MaxOpenConns),
	)

	return &DB{gorm: gormDB, sqlDB: sqlDB, logger: logger}, nil
}

func dialectorFor(config Config) (gorm.Dialector, error) {
	switch strings.ToLower(config.Driver) {
	case "postgres", "postgresql":
		return postgres.Open(config.DSN), nil
	case "mysql":
		return mysql.Open(config.DSN), nil
	case "sqlite", "":
		return sqlite.Open(config.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", config.Driver)
	}
}

// Gorm 返回 GORM 数据库实例
func (d *DB) Gorm() *gorm.DB { return d.gorm }

// Ping 检查数据库连接
func (d *DB) Ping(ctx context.Context) error {
	return d.sqlDB.PingContext(ctx)
}

// Stats 返回连接池统计信息
func (d *DB) Stats() sql.DBStats {
	return d.sqlDB.Stats()
}

// Close 关闭数据库连接
func (d *DB) Close() error {
	d.logger.Info("closing database")
	return d.sqlDB.Close()
}

// =============================================================================
// 🔄 事务管理
// =============================================================================

// TransactionFunc 事务函数类型
type TransactionFunc func(tx *gorm.DB) error

// WithTransaction 在事务中执行函数
func (d *DB) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	return d.gorm.WithContext(ctx).Transaction(fn)
}

// WithTransactionRetry 在事务中执行函数（带指数退避重试）
func (d *DB) WithTransactionRetry(ctx context.Context, maxRetries int, fn TransactionFunc) error {
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		err := d.WithTransaction(ctx, fn)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return err
		}

		d.logger.Warn("transaction failed, retrying",
			zap.Int("attempt", i+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
		)

		backoff := time.Duration(1<<uint(i)) * 100 * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("transaction failed after %d retries: %w", maxRetries, lastErr)
}

// isRetryableError 判断错误是否可重试
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errMsg := strings.ToLower(err.Error())

	// 死锁与序列化失败（PostgreSQL SQLSTATE 40001）
	if strings.Contains(errMsg, "deadlock") ||
		strings.Contains(errMsg, "serialization failure") ||
		strings.Contains(errMsg, "40001") {
		return true
	}

	// 连接相关错误
	if strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "broken pipe") ||
		strings.Contains(errMsg, "bad connection") {
		return true
	}

	// 锁超时
	return strings.Contains(errMsg, "lock timeout") || strings.Contains(errMsg, "lock wait timeout")
}
