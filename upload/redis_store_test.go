package upload

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	config := DefaultRedisConfig()
	config.Addr = mr.Addr()

	store, err := NewRedisStore(config, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store, mr
}

func TestRedisStorePutGet(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	record := &Record{
		Fingerprint: "abc123",
		URL:         "https://files.example/abc123",
		SizeBytes:   2048,
		UploadedAt:  time.Now().Truncate(time.Second),
		ExpiresAt:   time.Now().Add(48 * time.Hour).Truncate(time.Second),
	}
	require.NoError(t, store.Put(ctx, record))

	got, err := store.Get(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, record.URL, got.URL)
	assert.Equal(t, record.SizeBytes, got.SizeBytes)
	assert.True(t, got.ExpiresAt.Equal(record.ExpiresAt))
}

func TestRedisStoreMissingRecord(t *testing.T) {
	store, _ := newTestRedisStore(t)

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestRedisStoreKeyTTL(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	record := &Record{
		Fingerprint: "ttl-check",
		URL:         "https://files.example/ttl",
		SizeBytes:   100,
		UploadedAt:  time.Now(),
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	require.NoError(t, store.Put(ctx, record))

	// 键 TTL 与记录有效期对齐
	ttl := mr.TTL("evalflow:upload:ttl-check")
	assert.Greater(t, ttl, 55*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)

	// Redis 到期后记录消失，表现为未命中
	mr.FastForward(2 * time.Hour)
	_, err := store.Get(ctx, "ttl-check")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestRedisStoreSkipsExpiredPut(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	record := &Record{
		Fingerprint: "already-dead",
		URL:         "https://files.example/dead",
		SizeBytes:   100,
		UploadedAt:  time.Now().Add(-49 * time.Hour),
		ExpiresAt:   time.Now().Add(-time.Hour),
	}
	require.NoError(t, store.Put(ctx, record))

	_, err := store.Get(ctx, "already-dead")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestRedisStoreLiveSize(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Put(ctx, &Record{
		Fingerprint: "one", URL: "u1", SizeBytes: 100,
		UploadedAt: now, ExpiresAt: now.Add(time.Hour),
	}))
	require.NoError(t, store.Put(ctx, &Record{
		Fingerprint: "two", URL: "u2", SizeBytes: 250,
		UploadedAt: now, ExpiresAt: now.Add(time.Hour),
	}))

	total, err := store.LiveSize(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(350), total)
}

func TestCacheWithRedisStore(t *testing.T) {
	store, _ := newTestRedisStore(t)
	cache := NewCache(store, CacheConfig{}, nil, zap.NewNop())
	uploader := &fakeUploader{}

	url1, err := cache.GetOrUpload(context.Background(), testMedia("redis-backed"), uploader)
	require.NoError(t, err)

	url2, err := cache.GetOrUpload(context.Background(), testMedia("redis-backed"), uploader)
	require.NoError(t, err)

	assert.Equal(t, url1, url2)
	assert.Equal(t, int64(1), uploader.calls.Load())
}
