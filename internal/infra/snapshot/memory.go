package snapshot

import (
	"context"
	"sync"

	"github.com/yanqian/circulabot/internal/domain/advisor"
)

// MemoryArchive keeps evidence pages in process memory for tests/dev.
type MemoryArchive struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryArchive constructs the in-memory archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{objects: make(map[string][]byte)}
}

// Put implements advisor.SnapshotArchive.
func (a *MemoryArchive) Put(_ context.Context, key string, html []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[key] = append([]byte(nil), html...)
	return nil
}

// Get returns a stored page, used by tests.
func (a *MemoryArchive) Get(key string) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	data, ok := a.objects[key]
	return data, ok
}

var _ advisor.SnapshotArchive = (*MemoryArchive)(nil)
