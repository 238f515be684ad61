package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// =============================================================================
// 🧪 database 测试
// =============================================================================

func openTestDB(t *testing.T) *DB {
	t.Helper()

	config := DefaultConfig()
	config.DSN = ":memory:"

	db, err := Open(config, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenSQLite(t *testing.T) {
	db := openTestDB(t)

	assert.NotNil(t, db.Gorm())
	assert.NoError(t, db.Ping(context.Background()))
	assert.GreaterOrEqual(t, db.Stats().OpenConnections, 0)
}

func TestOpenUnknownDriver(t *testing.T) {
	config := Config{Driver: "oracle", DSN: "whatever"}

	_, err := Open(config, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestDialectorSelection(t *testing.T) {
	for _, driver := range []string{"postgres", "postgresql", "mysql", "sqlite", ""} {
		_, err := dialectorFor(Config{Driver: driver, DSN: "dsn"})
		assert.NoError(t, err, "driver %q", driver)
	}
}

func TestWithTransaction(t *testing.T) {
	db := openTestDB(t)

	type row struct {
		ID   uint `gorm:"primarykey"`
		Name string
	}
	require.NoError(t, db.Gorm().AutoMigrate(&row{}))

	err := db.WithTransaction(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&row{Name: "one"}).Error
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Gorm().Model(&row{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// 回调报错时整个事务回滚
	err = db.WithTransaction(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Create(&row{Name: "two"}).Error; err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	require.NoError(t, db.Gorm().Model(&row{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestWithTransactionRetryGivesUpOnPermanentError(t *testing.T) {
	db := openTestDB(t)

	attempts := 0
	err := db.WithTransactionRetry(context.Background(), 3, func(tx *gorm.DB) error {
		attempts++
		return assert.AnError
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.False(t, isRetryableError(assert.AnError))
	assert.True(t, isRetryableError(errDeadlock{}))
}

type errDeadlock struct{}

func (errDeadlock) Error() string { return "Deadlock found when trying to get lock" }
