// Package dispatch orchestrates resolution, validation, capability checks,
// uploads and payload assembly for one provider/model pair.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/BaSui01/evalflow/capability"
	"github.com/BaSui01/evalflow/internal/ctxkeys"
	"github.com/BaSui01/evalflow/internal/metrics"
	"github.com/BaSui01/evalflow/media"
	"github.com/BaSui01/evalflow/types"
	"github.com/BaSui01/evalflow/upload"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/BaSui01/evalflow/dispatch"

// Request 描述一次调度：一个 provider+model 目标与按作者意图排序的
// 内容条目。BaseDir 是数据集文件所在目录，相对路径引用据此解析。
type Request struct {
	Provider string
	Model    string
	BaseDir  string
	Items    []types.ContentItem
}

// Dispatcher 是编排入口。校验与能力检查在任何网络调用之前完成；
// 需要预上传的模态经上传缓存换取 URL，其余内联 base64；
// 输出部件顺序与输入条目顺序严格一致。
type Dispatcher struct {
	registry  *capability.Registry
	cache     *upload.Cache
	uploaders map[string]upload.Uploader
	collector *metrics.Collector
	logger    *zap.Logger

	// 单次调度内并发解析的上限
	concurrency int
}

// Option 配置 Dispatcher。
type Option func(*Dispatcher)

// WithMetrics 启用指标采集。
func WithMetrics(collector *metrics.Collector) Option {
	return func(d *Dispatcher) { d.collector = collector }
}

// WithConcurrency 设置单次调度内的并发解析上限。
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// NewDispatcher 创建调度器。cache 为 nil 时禁用预上传路由，
// 所有媒体内联发送。
func NewDispatcher(registry *capability.Registry, cache *upload.Cache, logger *zap.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:    registry,
		cache:       cache,
		uploaders:   make(map[string]upload.Uploader),
		logger:      logger.With(zap.String("component", "dispatcher")),
		concurrency: 8,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RegisterUploader 注册某提供商的上传实现。
func (d *Dispatcher) RegisterUploader(provider string, uploader upload.Uploader) {
	d.uploaders[provider] = uploader
}

// Dispatch 解析并组装一次请求的全部内容。
// 返回的 ResolvedContent 列表与输入条目一一对应，供评测日志使用。
// 任一媒体条目失败即整个样本失败，错误携带失败原因上抛。
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) (*Payload, []types.ResolvedContent, error) {
	start := time.Now()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "dispatch.Dispatch")
	span.SetAttributes(
		attribute.String("provider", req.Provider),
		attribute.String("model", req.Model),
		attribute.Int("items", len(req.Items)),
	)
	defer span.End()

	resolved, err := d.resolveAll(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.recordDispatch(req, "error", time.Since(start))
		return nil, nil, err
	}

	payload, err := d.assemble(req, resolved)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.recordDispatch(req, "error", time.Since(start))
		return nil, nil, err
	}

	d.recordDispatch(req, "success", time.Since(start))

	fields := []zap.Field{
		zap.String("provider", req.Provider),
		zap.String("model", req.Model),
		zap.Int("items", len(req.Items)),
		zap.Duration("elapsed", time.Since(start)),
	}
	if sampleID, ok := ctxkeys.SampleID(ctx); ok {
		fields = append(fields, zap.String("sample_id", sampleID))
	}
	if traceID, ok := ctxkeys.TraceID(ctx); ok {
		fields = append(fields, zap.String("trace_id", traceID))
	}
	d.logger.Debug("content dispatched", fields...)
	return payload, resolved, nil
}

// resolveAll 并发解析所有条目，结果按原始下标落位，顺序不变。
func (d *Dispatcher) resolveAll(ctx context.Context, req *Request) ([]types.ResolvedContent, error) {
	resolver := media.NewPathResolver(req.BaseDir, d.logger)
	resolved := make([]types.ResolvedContent, len(req.Items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for i := range req.Items {
		item := req.Items[i]
		if !item.IsMedia() {
			resolved[i] = types.ResolvedContent{Item: item}
			continue
		}

		g.Go(func() error {
			out, err := d.resolveMedia(ctx, req, resolver, item)
			if err != nil {
				return err
			}
			resolved[i] = types.ResolvedContent{Item: item, Media: out}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resolved, nil
}

// resolveMedia 按 校验格式 → 能力检查 → 解析 → 上传路由 的顺序处理
// 单个媒体条目。纯本地检查在前，网络 I/O 在最后。
func (d *Dispatcher) resolveMedia(ctx context.Context, req *Request, resolver *media.PathResolver, item types.ContentItem) (*types.ResolvedMedia, error) {
	ref := item.Media

	if err := media.ValidateFormat(ref); err != nil {
		d.recordResolutionFailure(ref, err)
		return nil, err
	}
	if err := d.registry.CheckModality(req.Provider, req.Model, ref.Kind); err != nil {
		d.recordResolutionFailure(ref, err)
		return nil, err
	}

	out, err := resolver.Resolve(ctx, ref)
	if err != nil {
		d.recordResolutionFailure(ref, err)
		return nil, err
	}
	if d.collector != nil {
		d.collector.RecordResolution(string(ref.Kind), string(ref.Source.Kind), out.SizeBytes)
	}

	if len(out.Bytes) > 0 && d.registry.RequiresUpload(req.Provider, req.Model, ref.Kind) {
		url, err := d.upload(ctx, req, out)
		if err != nil {
			return nil, err
		}
		out.RemoteURL = url
	}
	return out, nil
}

func (d *Dispatcher) upload(ctx context.Context, req *Request, out *types.ResolvedMedia) (string, error) {
	if d.cache == nil {
		return "", fmt.Errorf("provider %s requires upload for %s but no upload cache is configured",
			req.Provider, out.Kind)
	}
	uploader, ok := d.uploaders[req.Provider]
	if !ok {
		return "", fmt.Errorf("provider %s requires upload for %s but no uploader is registered",
			req.Provider, out.Kind)
	}
	return d.cache.GetOrUpload(ctx, out, uploader)
}

// assemble 按原始顺序组装提供商部件。不受支持的 detail 选项在这里
// 降级：告警并丢弃，不中断样本。
func (d *Dispatcher) assemble(req *Request, resolved []types.ResolvedContent) (*Payload, error) {
	parts := make([]map[string]any, 0, len(resolved))

	for i := range resolved {
		rc := &resolved[i]

		includeDetail := false
		if rc.Item.IsMedia() && rc.Item.Media.Kind == types.MediaImage && rc.Item.Media.Detail != "" {
			includeDetail = d.registry.SupportsOption(req.Provider, req.Model, capability.OptionImageDetail)
			if !includeDetail {
				d.logger.Warn("image detail option not supported, dropping",
					zap.String("provider", req.Provider),
					zap.String("model", req.Model),
					zap.String("detail", string(rc.Item.Media.Detail)),
				)
				if d.collector != nil {
					d.collector.RecordOptionDropped(req.Provider, capability.OptionImageDetail)
				}
			}
		}

		part, err := buildPart(req.Provider, rc, includeDetail)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}

	return &Payload{Provider: req.Provider, Model: req.Model, Parts: parts}, nil
}

func (d *Dispatcher) recordDispatch(req *Request, status string, elapsed time.Duration) {
	if d.collector != nil {
		d.collector.RecordDispatch(req.Provider, req.Model, status, elapsed)
	}
}

func (d *Dispatcher) recordResolutionFailure(ref *types.MediaReference, err error) {
	if d.collector == nil {
		return
	}
	code := types.GetErrorCode(err)
	d.collector.RecordResolutionFailure(string(ref.Kind), string(code))
}
