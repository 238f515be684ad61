package upload

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrRecordNotFound 表示存储中没有该指纹的上传记录。
var ErrRecordNotFound = errors.New("upload record not found")

// Record 是一次成功上传的留痕：内容指纹到远端 URL 的映射。
// 只由 Cache 写入；过期记录等同于不存在（懒惰过期，不主动清扫）。
type Record struct {
	Fingerprint string    `json:"fingerprint"`
	URL         string    `json:"url"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedAt  time.Time `json:"uploaded_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Live 报告记录在给定时刻是否仍然有效。
func (r *Record) Live(now time.Time) bool {
	return now.Before(r.ExpiresAt)
}

// RecordStore 是上传记录的持久化接口。进程内用 MemoryStore，
// 多进程共享用 RedisStore。
type RecordStore interface {
	// Get 返回指纹对应的记录；不存在时返回 ErrRecordNotFound。
	// 过期判断由调用方负责，存储层只管存取。
	Get(ctx context.Context, fingerprint string) (*Record, error)

	// Put 写入（或覆盖）一条记录。
	Put(ctx context.Context, record *Record) error

	// LiveSize 返回所有未过期记录的字节总和，供账户配额预检使用。
	LiveSize(ctx context.Context, now time.Time) (int64, error)
}

// MemoryStore 是进程内的记录存储。
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore 创建内存记录存储。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Get(_ context.Context, fingerprint string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[fingerprint]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &record, nil
}

func (s *MemoryStore) Put(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.Fingerprint] = *record
	return nil
}

func (s *MemoryStore) LiveSize(_ context.Context, now time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, record := range s.records {
		if record.Live(now) {
			total += record.SizeBytes
		}
	}
	return total, nil
}
