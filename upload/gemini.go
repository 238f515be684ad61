package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/BaSui01/evalflow/internal/tlsutil"
	"github.com/BaSui01/evalflow/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// =============================================================================
// ☁️ Gemini Files API 上传器
// =============================================================================

// GeminiConfig Gemini 上传器配置
type GeminiConfig struct {
	// API 密钥
	APIKey string `yaml:"api_key" json:"api_key" env:"GEMINI_API_KEY"`

	// API 基础地址
	BaseURL string `yaml:"base_url" json:"base_url"`

	// 单次上传超时
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// 上传速率限制（次/秒）
	RateLimit float64 `yaml:"rate_limit" json:"rate_limit"`

	// 处理状态轮询间隔
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
}

// DefaultGeminiConfig 返回默认 Gemini 上传器配置
func DefaultGeminiConfig() GeminiConfig {
	return GeminiConfig{
		BaseURL:      "https://generativelanguage.googleapis.com",
		Timeout:      180 * time.Second,
		RateLimit:    2,
		PollInterval: 2 * time.Second,
	}
}

// GeminiUploader 通过 Files API 的可恢复上传协议上传媒体，
// 返回 file_uri 供 generateContent 的 file_data 部件引用。
// 上传后的文件由服务端保留 48 小时。
type GeminiUploader struct {
	config  GeminiConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewGeminiUploader 创建 Gemini 上传器。
func NewGeminiUploader(config GeminiConfig, logger *zap.Logger) *GeminiUploader {
	if config.BaseURL == "" {
		config.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if config.Timeout == 0 {
		config.Timeout = 180 * time.Second
	}
	if config.RateLimit <= 0 {
		config.RateLimit = 2
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 2 * time.Second
	}

	return &GeminiUploader{
		config:  config,
		client:  tlsutil.SecureHTTPClient(config.Timeout),
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		logger:  logger.With(zap.String("component", "gemini_uploader")),
	}
}

func (u *GeminiUploader) Provider() string { return "gemini" }

type geminiFileMeta struct {
	File struct {
		Name           string `json:"name"`
		URI            string `json:"uri"`
		State          string `json:"state"`
		ExpirationTime string `json:"expirationTime"`
	} `json:"file"`
}

// Upload 执行一次可恢复上传：start 拿到会话 URL，随后单次提交全部
// 字节并 finalize，最后轮询到 ACTIVE 状态。
func (u *GeminiUploader) Upload(ctx context.Context, media *types.ResolvedMedia) (*types.UploadResult, error) {
	if err := u.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	sessionURL, err := u.startSession(ctx, media)
	if err != nil {
		return nil, err
	}

	meta, err := u.uploadBytes(ctx, sessionURL, media.Bytes)
	if err != nil {
		return nil, err
	}

	meta, err = u.awaitActive(ctx, meta)
	if err != nil {
		return nil, err
	}

	expiresAt, _ := time.Parse(time.RFC3339, meta.File.ExpirationTime)

	u.logger.Debug("gemini file uploaded",
		zap.String("name", meta.File.Name),
		zap.String("uri", meta.File.URI),
		zap.Int64("size_bytes", media.SizeBytes),
	)

	return &types.UploadResult{URL: meta.File.URI, ExpiresAt: expiresAt}, nil
}

func (u *GeminiUploader) startSession(ctx context.Context, media *types.ResolvedMedia) (string, error) {
	displayName := "evalflow-" + uuid.NewString()
	body, _ := json.Marshal(map[string]any{
		"file": map[string]any{"display_name": displayName},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		u.config.BaseURL+"/upload/v1beta/files", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-goog-api-key", u.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Upload-Protocol", "resumable")
	req.Header.Set("X-Goog-Upload-Command", "start")
	req.Header.Set("X-Goog-Upload-Header-Content-Length", fmt.Sprintf("%d", media.SizeBytes))
	req.Header.Set("X-Goog-Upload-Header-Content-Type", media.MimeType)

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini upload start: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", u.mapError(resp.StatusCode, readBody(resp.Body))
	}

	sessionURL := resp.Header.Get("X-Goog-Upload-URL")
	if sessionURL == "" {
		return "", types.NewError(types.ErrUploadFailed, "gemini upload start: missing session URL").
			WithProvider("gemini")
	}
	return sessionURL, nil
}

func (u *GeminiUploader) uploadBytes(ctx context.Context, sessionURL string, data []byte) (*geminiFileMeta, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sessionURL, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Goog-Upload-Command", "upload, finalize")
	req.Header.Set("X-Goog-Upload-Offset", "0")
	req.ContentLength = int64(len(data))

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini upload bytes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, u.mapError(resp.StatusCode, readBody(resp.Body))
	}

	var meta geminiFileMeta
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("gemini upload response: %w", err)
	}
	return &meta, nil
}

// awaitActive 等待服务端处理完成。视频上传后短暂处于 PROCESSING 状态，
// 此时引用该文件的请求会被拒绝。
func (u *GeminiUploader) awaitActive(ctx context.Context, meta *geminiFileMeta) (*geminiFileMeta, error) {
	for meta.File.State == "PROCESSING" {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(u.config.PollInterval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			u.config.BaseURL+"/v1beta/"+meta.File.Name, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("x-goog-api-key", u.config.APIKey)

		resp, err := u.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("gemini file status: %w", err)
		}

		if resp.StatusCode >= 400 {
			msg := readBody(resp.Body)
			resp.Body.Close()
			return nil, u.mapError(resp.StatusCode, msg)
		}

		var file struct {
			Name           string `json:"name"`
			URI            string `json:"uri"`
			State          string `json:"state"`
			ExpirationTime string `json:"expirationTime"`
		}
		err = json.NewDecoder(resp.Body).Decode(&file)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("gemini file status response: %w", err)
		}
		meta.File = file
	}

	if meta.File.State == "FAILED" {
		return nil, types.NewError(types.ErrUploadFailed,
			fmt.Sprintf("gemini file processing failed: %s", meta.File.Name)).WithProvider("gemini")
	}
	return meta, nil
}

func (u *GeminiUploader) mapError(status int, msg string) error {
	switch status {
	case http.StatusTooManyRequests:
		return types.NewUploadQuotaExceededError("gemini", msg)
	case http.StatusForbidden, http.StatusBadRequest:
		if strings.Contains(msg, "quota") || strings.Contains(msg, "limit") {
			return types.NewUploadQuotaExceededError("gemini", msg)
		}
	}
	return types.NewError(types.ErrUploadFailed,
		fmt.Sprintf("gemini upload failed: status=%d msg=%s", status, msg)).
		WithProvider("gemini").WithRetryable(status >= 500)
}

func readBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	return string(data)
}
