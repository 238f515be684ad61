package media

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BaSui01/evalflow/types"
)

// 音频/视频的受支持格式集合。图像不做格式枚举限制。
var (
	audioFormats = map[string]struct{}{
		"mp3": {},
		"wav": {},
	}
	videoFormats = map[string]struct{}{
		"mp4":  {},
		"mpeg": {},
		"mov":  {},
	}
)

// ValidateFormat 校验声明的格式是否属于该模态的允许集合。
// 音频与视频的 format 字段为必填；缺失或不在集合内均返回
// MEDIA_UNSUPPORTED_FORMAT。不做内容嗅探，信任声明值。
func ValidateFormat(ref *types.MediaReference) error {
	switch ref.Kind {
	case types.MediaAudio:
		return validateIn(ref, audioFormats)
	case types.MediaVideo:
		return validateIn(ref, videoFormats)
	case types.MediaImage:
		// 图像无枚举限制
		return nil
	default:
		return types.NewError(types.ErrInvalidReference,
			fmt.Sprintf("unknown media kind: %s", ref.Kind))
	}
}

func normalize(format string) string {
	return strings.ToLower(strings.TrimSpace(format))
}

func validateIn(ref *types.MediaReference, allowed map[string]struct{}) error {
	format := normalize(ref.Format)
	if format == "" {
		return types.NewUnsupportedFormatError(ref.Kind, "")
	}
	if _, ok := allowed[format]; !ok {
		return types.NewUnsupportedFormatError(ref.Kind, format)
	}
	return nil
}

// AudioFormats 返回受支持的音频格式列表（用于错误信息与文档）。
func AudioFormats() []string { return sortedKeys(audioFormats) }

// VideoFormats 返回受支持的视频格式列表。
func VideoFormats() []string { return sortedKeys(videoFormats) }

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	// 小集合，插入排序足够
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// mimeTypeFor 根据声明格式或文件扩展名推导 MIME 类型。
func mimeTypeFor(ref *types.MediaReference) string {
	format := normalize(ref.Format)
	if format == "" && ref.Source.Kind == types.SourceFile {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(ref.Source.Path)), ".")
	}
	if format == "" {
		return ""
	}

	switch ref.Kind {
	case types.MediaImage:
		if format == "jpg" {
			format = "jpeg"
		}
		return "image/" + format
	case types.MediaAudio:
		return "audio/" + format
	case types.MediaVideo:
		if format == "mov" {
			return "video/quicktime"
		}
		return "video/" + format
	default:
		return ""
	}
}
