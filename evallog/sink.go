package evallog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BaSui01/evalflow/internal/ctxkeys"
	"github.com/BaSui01/evalflow/internal/database"
	"github.com/BaSui01/evalflow/internal/metrics"
	"github.com/BaSui01/evalflow/types"
	"go.uber.org/zap"
)

// Entry 是一条样本级评测日志。失败的样本同样落库并带上错误，
// 绝不会从结果中无声消失。
type Entry struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	RunID     string `gorm:"index" json:"run_id,omitempty"`
	SampleID  string `gorm:"index" json:"sample_id"`
	Provider  string `gorm:"index" json:"provider"`
	Model     string `json:"model"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`

	// Content 是 []LoggedItem 的 JSON 序列化
	Content string `json:"content"`
}

// TableName 指定表名。
func (Entry) TableName() string { return "eval_entries" }

// 样本状态
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Sink 把样本结果写入数据库，媒体部分先经 Redactor 处理。
type Sink struct {
	db        *database.DB
	redactor  *Redactor
	collector *metrics.Collector
	logger    *zap.Logger
}

// NewSink 创建日志落库器并迁移表结构。collector 可为 nil。
func NewSink(db *database.DB, redactor *Redactor, collector *metrics.Collector, logger *zap.Logger) (*Sink, error) {
	if err := db.Gorm().AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate eval log schema: %w", err)
	}

	return &Sink{
		db:        db,
		redactor:  redactor,
		collector: collector,
		logger:    logger.With(zap.String("component", "eval_sink")),
	}, nil
}

// Record 写入一条样本结果。sampleErr 非空时状态为 error，
// 错误信息与错误码一并落库。若 context 携带评测运行 ID，随条目一起记录。
func (s *Sink) Record(ctx context.Context, sampleID, provider, model string, resolved []types.ResolvedContent, sampleErr error) error {
	logged := s.redactor.Redact(resolved)
	content, err := json.Marshal(logged)
	if err != nil {
		return fmt.Errorf("marshal logged content: %w", err)
	}

	entry := &Entry{
		SampleID: sampleID,
		RunID:    runIDFrom(ctx),
		Provider: provider,
		Model:    model,
		Status:   StatusSuccess,
		Content:  string(content),
	}
	if sampleErr != nil {
		entry.Status = StatusError
		entry.Error = sampleErr.Error()
		entry.ErrorCode = string(types.GetErrorCode(sampleErr))
	}

	start := time.Now()
	if err := s.db.Gorm().WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("write eval log entry: %w", err)
	}
	if s.collector != nil {
		s.collector.RecordDBQuery("evallog", "insert", time.Since(start))
	}

	s.logger.Debug("sample recorded",
		zap.String("sample_id", sampleID),
		zap.String("status", entry.Status),
		zap.Int("items", len(logged)),
	)
	return nil
}

func runIDFrom(ctx context.Context) string {
	runID, _ := ctxkeys.RunID(ctx)
	return runID
}

// ByRun 返回某次评测运行的全部日志条目，按写入顺序排列。
func (s *Sink) ByRun(ctx context.Context, runID string) ([]Entry, error) {
	var entries []Entry
	start := time.Now()
	err := s.db.Gorm().WithContext(ctx).
		Where("run_id = ?", runID).
		Order("id").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("query eval log entries: %w", err)
	}
	if s.collector != nil {
		s.collector.RecordDBQuery("evallog", "select", time.Since(start))
	}
	return entries, nil
}

// BySample 返回某个样本的全部日志条目，按写入顺序排列。
func (s *Sink) BySample(ctx context.Context, sampleID string) ([]Entry, error) {
	var entries []Entry
	start := time.Now()
	err := s.db.Gorm().WithContext(ctx).
		Where("sample_id = ?", sampleID).
		Order("id").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("query eval log entries: %w", err)
	}
	if s.collector != nil {
		s.collector.RecordDBQuery("evallog", "select", time.Since(start))
	}
	return entries, nil
}
