package dispatch

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/BaSui01/evalflow/types"
)

// Payload 是发往提供商适配器的最终内容：按原始顺序排列的
// 提供商专用部件。
type Payload struct {
	Provider string           `json:"provider"`
	Model    string           `json:"model"`
	Parts    []map[string]any `json:"parts"`
}

// MarshalParts 序列化部件数组，供适配器嵌入请求体。
func (p *Payload) MarshalParts() ([]byte, error) {
	return json.Marshal(p.Parts)
}

// buildPart 把一个已解析条目转换为提供商专用部件。
// includeDetail 在能力检查通过后由调度器决定。
func buildPart(provider string, resolved *types.ResolvedContent, includeDetail bool) (map[string]any, error) {
	if resolved.Item.Type == types.ContentText {
		return textPart(provider, resolved.Item.Text), nil
	}

	switch provider {
	case "openai":
		return openAIMediaPart(resolved, includeDetail)
	case "anthropic":
		return anthropicMediaPart(resolved)
	case "gemini":
		return geminiMediaPart(resolved)
	default:
		return nil, fmt.Errorf("no payload builder for provider %q", provider)
	}
}

func textPart(provider, text string) map[string]any {
	if provider == "gemini" {
		return map[string]any{"text": text}
	}
	return map[string]any{"type": "text", "text": text}
}

// openAIMediaPart 生成 OpenAI 的 image_url / input_audio 部件。
func openAIMediaPart(resolved *types.ResolvedContent, includeDetail bool) (map[string]any, error) {
	media := resolved.Media
	ref := resolved.Item.Media

	switch media.Kind {
	case types.MediaImage:
		imageURL := map[string]any{}
		if media.RemoteURL != "" {
			imageURL["url"] = media.RemoteURL
		} else {
			imageURL["url"] = dataURL(media)
		}
		if includeDetail && ref.Detail != "" {
			imageURL["detail"] = string(ref.Detail)
		}
		return map[string]any{"type": "image_url", "image_url": imageURL}, nil

	case types.MediaAudio:
		return map[string]any{
			"type": "input_audio",
			"input_audio": map[string]any{
				"data":   base64.StdEncoding.EncodeToString(media.Bytes),
				"format": ref.Format,
			},
		}, nil

	default:
		return nil, fmt.Errorf("openai payload: unsupported media kind %s", media.Kind)
	}
}

// anthropicMediaPart 生成 Anthropic 的 content block（base64 或 url source）。
func anthropicMediaPart(resolved *types.ResolvedContent) (map[string]any, error) {
	media := resolved.Media
	if media.Kind != types.MediaImage {
		return nil, fmt.Errorf("anthropic payload: unsupported media kind %s", media.Kind)
	}

	var source map[string]any
	if media.RemoteURL != "" {
		source = map[string]any{
			"type": "url",
			"url":  media.RemoteURL,
		}
	} else {
		source = map[string]any{
			"type":       "base64",
			"media_type": media.MimeType,
			"data":       base64.StdEncoding.EncodeToString(media.Bytes),
		}
	}
	return map[string]any{"type": "image", "source": source}, nil
}

// geminiMediaPart 生成 Gemini 的 inline_data / file_data 部件。
// 已上传的媒体按 file_uri 引用，其余内联 base64。
func geminiMediaPart(resolved *types.ResolvedContent) (map[string]any, error) {
	media := resolved.Media

	if media.RemoteURL != "" {
		return map[string]any{
			"file_data": map[string]any{
				"file_uri":  media.RemoteURL,
				"mime_type": media.MimeType,
			},
		}, nil
	}
	return map[string]any{
		"inline_data": map[string]any{
			"mime_type": media.MimeType,
			"data":      base64.StdEncoding.EncodeToString(media.Bytes),
		},
	}, nil
}

func dataURL(media *types.ResolvedMedia) string {
	return fmt.Sprintf("data:%s;base64,%s", media.MimeType, base64.StdEncoding.EncodeToString(media.Bytes))
}
