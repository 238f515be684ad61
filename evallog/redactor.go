// Package evallog persists per-sample evaluation results, with media
// payloads included or redacted per process-wide policy.
package evallog

import (
	"encoding/base64"

	"github.com/BaSui01/evalflow/internal/metrics"
	"github.com/BaSui01/evalflow/types"
	"go.uber.org/zap"
)

// LoggedItem 是内容条目在评测日志中的持久化形态。
// 脱敏开启时媒体只留占位符（原始路径 / URL / "inline"），
// 绝不出现 base64 字节。
type LoggedItem struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
	SizeBytes   int64  `json:"size_bytes,omitempty"`
	Data        string `json:"data,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

// Redactor 决定媒体字节是否进入持久化日志。策略在构造时定一次，
// 整个进程内统一应用；它只影响日志形态，不影响发给提供商的载荷。
type Redactor struct {
	includeMedia bool
	collector    *metrics.Collector
	logger       *zap.Logger
}

// NewRedactor 创建脱敏器。includeMedia 默认应为 true，
// 由配置或 CLI 开关关闭。collector 可为 nil。
func NewRedactor(includeMedia bool, collector *metrics.Collector, logger *zap.Logger) *Redactor {
	return &Redactor{
		includeMedia: includeMedia,
		collector:    collector,
		logger:       logger.With(zap.String("component", "log_redactor")),
	}
}

// IncludeMedia 报告当前策略是否在日志中保留媒体字节。
func (r *Redactor) IncludeMedia() bool { return r.includeMedia }

// Redact 把已解析内容转换为日志形态，顺序保持不变。
func (r *Redactor) Redact(resolved []types.ResolvedContent) []LoggedItem {
	items := make([]LoggedItem, 0, len(resolved))
	for i := range resolved {
		items = append(items, r.redactOne(&resolved[i]))
	}
	return items
}

func (r *Redactor) redactOne(rc *types.ResolvedContent) LoggedItem {
	if rc.Item.Type == types.ContentText {
		return LoggedItem{Type: string(types.ContentText), Text: rc.Item.Text}
	}

	item := LoggedItem{Type: string(rc.Item.Type)}
	if rc.Media == nil {
		return item
	}
	item.MimeType = rc.Media.MimeType
	item.SizeBytes = rc.Media.SizeBytes

	if r.includeMedia {
		switch {
		case len(rc.Media.Bytes) > 0:
			item.Data = base64.StdEncoding.EncodeToString(rc.Media.Bytes)
		case rc.Media.RemoteURL != "":
			item.Data = rc.Media.RemoteURL
		}
		return item
	}

	item.Placeholder = placeholderFor(rc.Media)
	if r.collector != nil {
		r.collector.RecordRedaction(string(rc.Media.Kind))
	}
	return item
}

// placeholderFor 返回被脱敏媒体的不透明引用。
func placeholderFor(media *types.ResolvedMedia) string {
	switch {
	case media.Origin != "":
		return media.Origin
	case media.RemoteURL != "":
		return media.RemoteURL
	default:
		return "media"
	}
}
