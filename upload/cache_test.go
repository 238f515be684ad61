package upload

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BaSui01/evalflow/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeUploader 记录调用次数，可注入延迟与错误。
type fakeUploader struct {
	calls     atomic.Int64
	delay     time.Duration
	err       error
	urlPrefix string
}

func (f *fakeUploader) Provider() string { return "fake" }

func (f *fakeUploader) Upload(ctx context.Context, media *types.ResolvedMedia) (*types.UploadResult, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	prefix := f.urlPrefix
	if prefix == "" {
		prefix = "https://files.example/"
	}
	return &types.UploadResult{URL: prefix + Fingerprint(media.Bytes)[:12]}, nil
}

func newTestCache(t *testing.T, config CacheConfig) (*Cache, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return NewCache(store, config, nil, zap.NewNop()), store
}

func testMedia(data string) *types.ResolvedMedia {
	return &types.ResolvedMedia{
		Kind:      types.MediaAudio,
		Bytes:     []byte(data),
		MimeType:  "audio/mp3",
		SizeBytes: int64(len(data)),
	}
}

func TestGetOrUploadCachesByFingerprint(t *testing.T) {
	cache, _ := newTestCache(t, CacheConfig{})
	uploader := &fakeUploader{}

	url1, err := cache.GetOrUpload(context.Background(), testMedia("same-bytes"), uploader)
	require.NoError(t, err)

	url2, err := cache.GetOrUpload(context.Background(), testMedia("same-bytes"), uploader)
	require.NoError(t, err)

	assert.Equal(t, url1, url2)
	assert.Equal(t, int64(1), uploader.calls.Load())

	_, err = cache.GetOrUpload(context.Background(), testMedia("other-bytes"), uploader)
	require.NoError(t, err)
	assert.Equal(t, int64(2), uploader.calls.Load())
}

// 相同指纹的并发请求必须合并为恰好一次上传。
func TestConcurrentSingleFlight(t *testing.T) {
	cache, _ := newTestCache(t, CacheConfig{})
	uploader := &fakeUploader{delay: 50 * time.Millisecond}

	const workers = 16
	var wg sync.WaitGroup
	urls := make([]string, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			urls[i], errs[i] = cache.GetOrUpload(context.Background(), testMedia("contended"), uploader)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, urls[0], urls[i])
	}
	assert.Equal(t, int64(1), uploader.calls.Load())
}

// 超过 48 小时的记录按未命中处理，触发重新上传。
func TestExpiredRecordTriggersReupload(t *testing.T) {
	cache, _ := newTestCache(t, CacheConfig{})
	uploader := &fakeUploader{}

	now := time.Now()
	cache.now = func() time.Time { return now }

	_, err := cache.GetOrUpload(context.Background(), testMedia("aging"), uploader)
	require.NoError(t, err)
	assert.Equal(t, int64(1), uploader.calls.Load())

	// 47 小时后仍然命中
	cache.now = func() time.Time { return now.Add(47 * time.Hour) }
	_, err = cache.GetOrUpload(context.Background(), testMedia("aging"), uploader)
	require.NoError(t, err)
	assert.Equal(t, int64(1), uploader.calls.Load())

	// 49 小时后视作未命中
	cache.now = func() time.Time { return now.Add(49 * time.Hour) }
	_, err = cache.GetOrUpload(context.Background(), testMedia("aging"), uploader)
	require.NoError(t, err)
	assert.Equal(t, int64(2), uploader.calls.Load())
}

func TestPerFileQuota(t *testing.T) {
	cache, _ := newTestCache(t, CacheConfig{MaxFileBytes: 10})
	uploader := &fakeUploader{}

	_, err := cache.GetOrUpload(context.Background(), testMedia("this is more than ten bytes"), uploader)
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrUploadQuotaExceeded))
	assert.Equal(t, int64(0), uploader.calls.Load())
}

func TestAccountQuota(t *testing.T) {
	cache, store := newTestCache(t, CacheConfig{MaxAccountBytes: 20})
	uploader := &fakeUploader{}

	require.NoError(t, store.Put(context.Background(), &Record{
		Fingerprint: "existing",
		URL:         "https://files.example/existing",
		SizeBytes:   15,
		UploadedAt:  time.Now(),
		ExpiresAt:   time.Now().Add(time.Hour),
	}))

	_, err := cache.GetOrUpload(context.Background(), testMedia("ten bytes!"), uploader)
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrUploadQuotaExceeded))

	// 过期记录不计入账户存量
	require.NoError(t, store.Put(context.Background(), &Record{
		Fingerprint: "existing",
		URL:         "https://files.example/existing",
		SizeBytes:   15,
		UploadedAt:  time.Now().Add(-2 * time.Hour),
		ExpiresAt:   time.Now().Add(-time.Hour),
	}))

	_, err = cache.GetOrUpload(context.Background(), testMedia("ten bytes!"), uploader)
	require.NoError(t, err)
}

func TestUploadErrorPropagates(t *testing.T) {
	cache, _ := newTestCache(t, CacheConfig{})
	uploader := &fakeUploader{err: assert.AnError}

	_, err := cache.GetOrUpload(context.Background(), testMedia("doomed"), uploader)
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrUploadFailed))
	assert.ErrorIs(t, err, assert.AnError)

	// 失败不落记录，下次调用重新尝试
	_, err = cache.GetOrUpload(context.Background(), testMedia("doomed"), uploader)
	require.Error(t, err)
	assert.Equal(t, int64(2), uploader.calls.Load())
}

func TestUploaderQuotaErrorPassesThrough(t *testing.T) {
	cache, _ := newTestCache(t, CacheConfig{})
	uploader := &fakeUploader{err: types.NewUploadQuotaExceededError("fake", "server said no")}

	_, err := cache.GetOrUpload(context.Background(), testMedia("big"), uploader)
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrUploadQuotaExceeded))
}

func TestProviderExpiryShortensTTL(t *testing.T) {
	store := NewMemoryStore()
	cache := NewCache(store, CacheConfig{}, nil, zap.NewNop())

	now := time.Now()
	cache.now = func() time.Time { return now }

	uploader := &uploaderWithExpiry{expiresAt: now.Add(time.Hour)}
	_, err := cache.GetOrUpload(context.Background(), testMedia("short-lived"), uploader)
	require.NoError(t, err)

	record, err := store.Get(context.Background(), Fingerprint([]byte("short-lived")))
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), record.ExpiresAt)
}

type uploaderWithExpiry struct {
	expiresAt time.Time
}

func (u *uploaderWithExpiry) Provider() string { return "fake" }

func (u *uploaderWithExpiry) Upload(_ context.Context, media *types.ResolvedMedia) (*types.UploadResult, error) {
	return &types.UploadResult{URL: "https://files.example/x", ExpiresAt: u.expiresAt}, nil
}

func TestFingerprintStable(t *testing.T) {
	a := Fingerprint([]byte("payload"))
	b := Fingerprint([]byte("payload"))
	c := Fingerprint([]byte("payload2"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
