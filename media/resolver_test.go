package media

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/BaSui01/evalflow/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// 构造一个模拟数据集目录：/tmp/xxx/ds.jsonl 旁边放媒体文件
func setupDatasetDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pic.png"), []byte("png-bytes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sample.mp3"), []byte("mp3-bytes"), 0o644))
	return dir
}

func TestResolveRelativeToDatasetDir(t *testing.T) {
	dir := setupDatasetDir(t)

	// 切换工作目录，确保解析不依赖进程 CWD
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	r := NewPathResolver(dir, zap.NewNop())
	ref := types.NewFileReference(types.MediaImage, "pic.png")

	resolved, err := r.Resolve(context.Background(), &ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), resolved.Bytes)
	assert.Equal(t, int64(9), resolved.SizeBytes)
	assert.Equal(t, "image/png", resolved.MimeType)
	assert.Equal(t, "pic.png", resolved.Origin)
}

func TestResolveMissingFile(t *testing.T) {
	r := NewPathResolver(t.TempDir(), zap.NewNop())
	ref := types.NewFileReference(types.MediaImage, "nope.png")

	_, err := r.Resolve(context.Background(), &ref)
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrReferenceNotFound))
}

func TestResolveAbsolutePath(t *testing.T) {
	dir := setupDatasetDir(t)
	r := NewPathResolver("/somewhere/else", zap.NewNop())
	ref := types.NewFileReference(types.MediaAudio, filepath.Join(dir, "sample.mp3")).WithFormat("mp3")

	resolved, err := r.Resolve(context.Background(), &ref)
	require.NoError(t, err)
	assert.Equal(t, "audio/mp3", resolved.MimeType)
}

func TestResolveInlineDataURL(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("wav-bytes"))
	ref := types.NewInlineReference(types.MediaAudio, "data:audio/wav;base64,"+payload, "").WithFormat("wav")

	// 基目录指向不存在的路径：内联解码不得访问文件系统
	r := NewPathResolver("/definitely/not/there", zap.NewNop())
	resolved, err := r.Resolve(context.Background(), &ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("wav-bytes"), resolved.Bytes)
	assert.Equal(t, "audio/wav", resolved.MimeType)
	assert.Equal(t, "inline", resolved.Origin)
}

func TestResolveInlineBadBase64(t *testing.T) {
	ref := types.NewInlineReference(types.MediaImage, "!!not-base64!!", "image/png")
	r := NewPathResolver(t.TempDir(), zap.NewNop())

	_, err := r.Resolve(context.Background(), &ref)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidReference))
}

func TestResolveMalformedDataURL(t *testing.T) {
	r := NewPathResolver(t.TempDir(), zap.NewNop())

	ref := types.NewInlineReference(types.MediaImage, "data:image/png;base64", "")
	_, err := r.Resolve(context.Background(), &ref)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidReference))

	ref = types.NewInlineReference(types.MediaImage, "data:image/png,rawdata", "")
	_, err = r.Resolve(context.Background(), &ref)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidReference))
}

func TestResolveUploadedPassthrough(t *testing.T) {
	ref := types.NewUploadedReference(types.MediaVideo, "https://files.example/v1/abc").WithFormat("mp4")
	r := NewPathResolver(t.TempDir(), zap.NewNop())

	resolved, err := r.Resolve(context.Background(), &ref)
	require.NoError(t, err)
	assert.Empty(t, resolved.Bytes)
	assert.Equal(t, "https://files.example/v1/abc", resolved.RemoteURL)
	assert.Equal(t, "video/mp4", resolved.MimeType)
}

func TestResolveCancelledContext(t *testing.T) {
	dir := setupDatasetDir(t)
	r := NewPathResolver(dir, zap.NewNop())
	ref := types.NewFileReference(types.MediaImage, "pic.png")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Resolve(ctx, &ref)
	assert.ErrorIs(t, err, context.Canceled)
}
