package media

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BaSui01/evalflow/types"
)

// recordItem 是数据集记录中内容条目的线格式：
//
//	{"type":"text","text":"..."}
//	{"type":"image","image":"pic.png","detail":"low"}
//	{"type":"audio","audio":"sample.mp3","format":"mp3"}
//	{"type":"video","video":"data:video/mp4;base64,...","format":"mp4"}
//
// image/audio/video 字段接受相对/绝对路径、Data URL 或 http(s) URL。
type recordItem struct {
	Type   string `json:"type"`
	Text   string `json:"text,omitempty"`
	Image  string `json:"image,omitempty"`
	Audio  string `json:"audio,omitempty"`
	Video  string `json:"video,omitempty"`
	Format string `json:"format,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// DecodeContentItems 将数据集记录的 content 数组解码为 ContentItem 列表，
// 保持原始顺序。数据集文件本身的读取由调用方负责。
func DecodeContentItems(data []byte) ([]types.ContentItem, error) {
	var raw []recordItem
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, types.NewError(types.ErrInvalidReference, "malformed content array").WithCause(err)
	}

	items := make([]types.ContentItem, 0, len(raw))
	for i, r := range raw {
		item, err := r.toContentItem()
		if err != nil {
			return nil, fmt.Errorf("content item %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (r recordItem) toContentItem() (types.ContentItem, error) {
	switch r.Type {
	case "text":
		return types.NewTextItem(r.Text), nil
	case "image":
		return r.toMediaItem(types.MediaImage, r.Image)
	case "audio":
		return r.toMediaItem(types.MediaAudio, r.Audio)
	case "video":
		return r.toMediaItem(types.MediaVideo, r.Video)
	default:
		return types.ContentItem{}, types.NewError(types.ErrInvalidReference,
			fmt.Sprintf("unknown content type: %q", r.Type))
	}
}

func (r recordItem) toMediaItem(kind types.MediaKind, location string) (types.ContentItem, error) {
	if location == "" {
		return types.ContentItem{}, types.NewError(types.ErrInvalidReference,
			fmt.Sprintf("%s content item is missing its %s field", kind, kind))
	}

	var ref types.MediaReference
	switch {
	case strings.HasPrefix(location, "data:"):
		ref = types.NewInlineReference(kind, location, "")
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		ref = types.NewUploadedReference(kind, location)
	default:
		ref = types.NewFileReference(kind, location)
	}

	ref = ref.WithFormat(r.Format)
	if kind == types.MediaImage && r.Detail != "" {
		detail := types.ImageDetail(r.Detail)
		switch detail {
		case types.DetailAuto, types.DetailLow, types.DetailHigh:
			ref = ref.WithDetail(detail)
		default:
			return types.ContentItem{}, types.NewError(types.ErrInvalidReference,
				fmt.Sprintf("invalid image detail: %q", r.Detail))
		}
	}

	return types.NewMediaItem(ref), nil
}

// EncodeContentItems 将 ContentItem 列表编码回数据集线格式，
// 与 DecodeContentItems 对称，供日志与调试输出使用。
func EncodeContentItems(items []types.ContentItem) ([]byte, error) {
	raw := make([]recordItem, 0, len(items))
	for _, item := range items {
		r := recordItem{Type: string(item.Type)}
		if item.Type == types.ContentText {
			r.Text = item.Text
			raw = append(raw, r)
			continue
		}
		if item.Media == nil {
			continue
		}

		location := item.Media.Source.Path
		switch item.Media.Source.Kind {
		case types.SourceInline:
			location = item.Media.Source.Data
		case types.SourceUploaded:
			location = item.Media.Source.URL
		}
		switch item.Media.Kind {
		case types.MediaImage:
			r.Image = location
		case types.MediaAudio:
			r.Audio = location
		case types.MediaVideo:
			r.Video = location
		}
		r.Format = item.Media.Format
		r.Detail = string(item.Media.Detail)
		raw = append(raw, r)
	}
	return json.Marshal(raw)
}
