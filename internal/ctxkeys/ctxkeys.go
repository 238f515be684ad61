// Package ctxkeys 提供类型安全的 context 键，贯穿调度与落库链路传递
// 追踪 ID、评测运行 ID 与样本 ID。
package ctxkeys

import "context"

// contextKey 用于在 context 中存储值的键类型
type contextKey string

const (
	traceIDKey  contextKey = "trace_id"
	runIDKey    contextKey = "run_id"
	sampleIDKey contextKey = "sample_id"
)

// WithTraceID 设置 TraceID
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID 获取 TraceID
func TraceID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(traceIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithRunID 设置评测运行 ID
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunID 获取评测运行 ID
func RunID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(runIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithSampleID 设置样本 ID，调度与落库日志按它归属
func WithSampleID(ctx context.Context, sampleID string) context.Context {
	return context.WithValue(ctx, sampleIDKey, sampleID)
}

// SampleID 获取样本 ID
func SampleID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sampleIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
