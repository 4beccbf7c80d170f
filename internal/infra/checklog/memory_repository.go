package checklog

import (
	"context"
	"sync"

	"github.com/yanqian/circulabot/internal/domain/advisor"
)

// MemoryRepository is an in-memory CheckRepository used for tests/dev and
// as the fallback when no Postgres DSN is configured.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []advisor.CheckRecord
}

// NewMemoryRepository constructs a repo backed by memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Save implements advisor.CheckRepository.
func (r *MemoryRepository) Save(_ context.Context, record advisor.CheckRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

// Recent implements advisor.CheckRepository, newest first.
func (r *MemoryRepository) Recent(_ context.Context, limit int) ([]advisor.CheckRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 {
		limit = 20
	}
	out := make([]advisor.CheckRecord, 0, limit)
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.records[i])
	}
	return out, nil
}

var _ advisor.CheckRepository = (*MemoryRepository)(nil)
