package levelstore

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/circulabot/internal/domain/advisor"
)

type cachedReport struct {
	payload   advisor.ContingencyReport
	expiresAt time.Time
}

// MemoryStore is the in-memory ReportStore used for tests/dev and as the
// fallback when no Valkey address is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]cachedReport
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[string]cachedReport)}
}

// Get implements advisor.ReportStore.
func (s *MemoryStore) Get(_ context.Context, date string) (advisor.ContingencyReport, bool, error) {
	s.mu.RLock()
	entry, ok := s.reports[date]
	s.mu.RUnlock()
	if !ok {
		return advisor.ContingencyReport{}, false, nil
	}
	if !entry.expiresAt.IsZero() && entry.expiresAt.Before(time.Now()) {
		s.mu.Lock()
		delete(s.reports, date)
		s.mu.Unlock()
		return advisor.ContingencyReport{}, false, nil
	}
	return entry.payload, true, nil
}

// Save implements advisor.ReportStore.
func (s *MemoryStore) Save(_ context.Context, date string, report advisor.ContingencyReport, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp := time.Time{}
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	s.reports[date] = cachedReport{payload: report, expiresAt: exp}
	return nil
}

var _ advisor.ReportStore = (*MemoryStore)(nil)
