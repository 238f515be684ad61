// Package capability answers "can this provider/model accept this content"
// before any network call is made.
package capability

import (
	"strings"

	"github.com/BaSui01/evalflow/types"
	"go.uber.org/zap"
)

// Registry 基于能力表回答模态与选项支持问题。
// 查表按条目顺序做首个匹配；表在构造后只读，可被任意并发读取。
type Registry struct {
	table  *Table
	logger *zap.Logger
}

// NewRegistry 用给定能力表创建注册表。table 为 nil 时使用内置默认表。
func NewRegistry(table *Table, logger *zap.Logger) *Registry {
	if table == nil {
		table = DefaultTable()
	}
	return &Registry{
		table:  table,
		logger: logger.With(zap.String("component", "capability_registry")),
	}
}

// Supports 报告 provider+model 是否接受给定模态。
func (r *Registry) Supports(provider, model string, kind types.MediaKind) bool {
	entry := r.lookup(provider, model)
	if entry == nil {
		return false
	}
	return contains(entry.Modalities, string(kind))
}

// SupportsOption 报告 provider+model 是否接受给定选项（如 image_detail）。
func (r *Registry) SupportsOption(provider, model, option string) bool {
	entry := r.lookup(provider, model)
	if entry == nil {
		return false
	}
	return contains(entry.Options, option)
}

// RequiresUpload 报告该模态在此提供商下是否需要先上传、再按 URL 引用
// （而非内联 base64 嵌入）。
func (r *Registry) RequiresUpload(provider, model string, kind types.MediaKind) bool {
	entry := r.lookup(provider, model)
	if entry == nil {
		return false
	}
	return contains(entry.UploadModalities, string(kind))
}

// CheckModality 是 Supports 的报错版本，供调度器快速失败使用。
func (r *Registry) CheckModality(provider, model string, kind types.MediaKind) error {
	if r.Supports(provider, model, kind) {
		return nil
	}
	r.logger.Debug("modality rejected by capability table",
		zap.String("provider", provider),
		zap.String("model", model),
		zap.String("kind", string(kind)),
	)
	return types.NewUnsupportedModalityError(provider, model, kind)
}

// Version 返回当前加载的能力表版本号。
func (r *Registry) Version() int { return r.table.Version }

func (r *Registry) lookup(provider, model string) *Entry {
	for i := range r.table.Entries {
		e := &r.table.Entries[i]
		if e.Provider != provider {
			continue
		}
		if matchPattern(e.ModelPattern, model) {
			return e
		}
	}
	return nil
}

// matchPattern 做前缀通配匹配："gemini-*" 匹配所有 gemini- 开头的模型，
// "*" 匹配任意模型，不含 "*" 时要求精确相等。
func matchPattern(pattern, model string) bool {
	if pattern == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(model, prefix)
	}
	return pattern == model
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
