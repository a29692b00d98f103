package memory

import (
	"context"
	"sync"

	"github.com/northmart/go-order-processing/internal/domains/rollup/domain"
	"github.com/northmart/go-order-processing/internal/domains/rollup/ports"
)

var _ ports.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore keeps the active rollup generation in memory. Publishing
// swaps one pointer, so readers always see a complete snapshot.
type SnapshotStore struct {
	mu      sync.RWMutex
	current *domain.Snapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

func (s *SnapshotStore) Publish(_ context.Context, snapshot *domain.Snapshot) error {
	clone := cloneSnapshot(snapshot)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = clone
	return nil
}

func (s *SnapshotStore) Current(_ context.Context) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ports.ErrNoSnapshot
	}
	return cloneSnapshot(s.current), nil
}

func cloneSnapshot(snapshot *domain.Snapshot) *domain.Snapshot {
	clone := *snapshot
	clone.Daily = make([]domain.DailyRollup, len(snapshot.Daily))
	copy(clone.Daily, snapshot.Daily)
	clone.Categories = make([]domain.CategoryRollup, len(snapshot.Categories))
	copy(clone.Categories, snapshot.Categories)
	return &clone
}
