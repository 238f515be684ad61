// Package media resolves and validates multimodal content references
// before they are handed to a provider adapter.
package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BaSui01/evalflow/types"
	"go.uber.org/zap"
)

// PathResolver 将 MediaReference 解析为可调度的 ResolvedMedia。
// 相对路径相对于数据集文件所在目录解析，而非进程工作目录；
// 内联 base64 / Data URL 来源就地解码，不触碰文件系统。
type PathResolver struct {
	baseDir string
	logger  *zap.Logger
}

// NewPathResolver 创建解析器。baseDir 是引用该媒体的数据集文件所在目录。
func NewPathResolver(baseDir string, logger *zap.Logger) *PathResolver {
	return &PathResolver{
		baseDir: baseDir,
		logger:  logger.With(zap.String("component", "media_resolver")),
	}
}

// Resolve 解析单个媒体引用。
// 文件来源：路径解析 + 读取；不存在时返回 MEDIA_REFERENCE_NOT_FOUND。
// 内联来源：base64 解码；解码失败返回 MEDIA_INVALID_REFERENCE。
// 上传来源：透传远端 URL，不做网络访问。
func (r *PathResolver) Resolve(ctx context.Context, ref *types.MediaReference) (*types.ResolvedMedia, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch ref.Source.Kind {
	case types.SourceFile:
		return r.resolveFile(ref)
	case types.SourceInline:
		return resolveInline(ref)
	case types.SourceUploaded:
		return &types.ResolvedMedia{
			Kind:      ref.Kind,
			RemoteURL: ref.Source.URL,
			MimeType:  mimeTypeFor(ref),
			Origin:    ref.Source.URL,
		}, nil
	default:
		return nil, types.NewError(types.ErrInvalidReference,
			fmt.Sprintf("unknown media source kind: %s", ref.Source.Kind))
	}
}

func (r *PathResolver) resolveFile(ref *types.MediaReference) (*types.ResolvedMedia, error) {
	path := ref.Source.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewReferenceNotFoundError(path)
		}
		return nil, types.NewReferenceNotFoundError(path).WithCause(err)
	}
	if info.IsDir() {
		return nil, types.NewError(types.ErrInvalidReference,
			fmt.Sprintf("media reference is a directory: %s", path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewReferenceNotFoundError(path).WithCause(err)
	}

	r.logger.Debug("resolved media file",
		zap.String("path", path),
		zap.String("kind", string(ref.Kind)),
		zap.Int64("size_bytes", info.Size()),
	)

	return &types.ResolvedMedia{
		Kind:      ref.Kind,
		Bytes:     data,
		MimeType:  mimeTypeFor(ref),
		SizeBytes: int64(len(data)),
		Origin:    ref.Source.Path,
	}, nil
}

func resolveInline(ref *types.MediaReference) (*types.ResolvedMedia, error) {
	raw := ref.Source.Data
	mimeType := ref.Source.MimeType

	// 完整 Data URL（data:audio/mp3;base64,xxxx）也被接受
	if strings.HasPrefix(raw, "data:") {
		var err error
		mimeType, raw, err = splitDataURL(raw)
		if err != nil {
			return nil, err
		}
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidReference, "invalid base64 media data").WithCause(err)
	}

	if mimeType == "" {
		mimeType = mimeTypeFor(ref)
	}

	return &types.ResolvedMedia{
		Kind:      ref.Kind,
		Bytes:     data,
		MimeType:  mimeType,
		SizeBytes: int64(len(data)),
		Origin:    "inline",
	}, nil
}

// splitDataURL 拆出 Data URL 的 MIME 类型与 base64 载荷。
func splitDataURL(u string) (mimeType, payload string, err error) {
	rest := strings.TrimPrefix(u, "data:")
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return "", "", types.NewError(types.ErrInvalidReference, "malformed data URL: missing payload")
	}

	meta := rest[:comma]
	payload = rest[comma+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return "", "", types.NewError(types.ErrInvalidReference, "malformed data URL: only base64 encoding is supported")
	}
	mimeType = strings.TrimSuffix(meta, ";base64")
	return mimeType, payload, nil
}
