package memory

import (
	"context"
	"sync"
	"time"

	"github.com/northmart/go-order-processing/internal/domains/inventory/domain"
	"github.com/northmart/go-order-processing/internal/domains/inventory/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory stock store. The mutex stands in for the
// exclusive row lock of the SQL adapter, so MutateUnderLock keeps the same
// one-holder-at-a-time semantics.
type Repository struct {
	mu     sync.Mutex
	levels map[int64]*domain.StockLevel
	ledger []*domain.LedgerEntry
	nextID int64
}

func NewRepository() *Repository {
	return &Repository{levels: map[int64]*domain.StockLevel{}}
}

// Put registers or overwrites a product's stock level. A zero version is
// normalized to the initial version 1.
func (r *Repository) Put(level domain.StockLevel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if level.Version == 0 {
		level.Version = 1
	}
	r.levels[level.ProductID] = &level
}

func (r *Repository) Level(_ context.Context, productID int64) (*domain.StockLevel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	level, ok := r.levels[productID]
	if !ok {
		return nil, ports.ErrProductNotFound
	}
	clone := *level
	return &clone, nil
}

func (r *Repository) MutateUnderLock(_ context.Context, productID int64, fn ports.MutateFunc) (*domain.StockLevel, *domain.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	level, ok := r.levels[productID]
	if !ok {
		return nil, nil, ports.ErrProductNotFound
	}
	working := *level
	entry, err := fn(&working)
	if err != nil {
		return nil, nil, err
	}
	r.nextID++
	entry.ID = r.nextID
	entry.RecordedAt = time.Now().UTC()
	r.levels[productID] = &working
	r.ledger = append(r.ledger, entry)
	levelCopy := working
	entryCopy := *entry
	return &levelCopy, &entryCopy, nil
}

func (r *Repository) History(_ context.Context, query ports.HistoryQuery) ([]*domain.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var entries []*domain.LedgerEntry
	for i := len(r.ledger) - 1; i >= 0; i-- {
		entry := r.ledger[i]
		if entry.ProductID != query.ProductID {
			continue
		}
		if len(query.Kinds) > 0 && !containsKind(query.Kinds, entry.Kind) {
			continue
		}
		if !query.From.IsZero() && entry.RecordedAt.Before(query.From) {
			continue
		}
		if !query.To.IsZero() && !entry.RecordedAt.Before(query.To) {
			continue
		}
		clone := *entry
		entries = append(entries, &clone)
		if query.Limit > 0 && len(entries) == query.Limit {
			break
		}
	}
	return entries, nil
}

// Snapshot captures the full repository state so a caller holding a larger
// atomic unit can roll the stock store back on failure.
type Snapshot struct {
	levels map[int64]domain.StockLevel
	ledger []domain.LedgerEntry
	nextID int64
}

func (r *Repository) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := Snapshot{levels: make(map[int64]domain.StockLevel, len(r.levels)), nextID: r.nextID}
	for id, level := range r.levels {
		snap.levels[id] = *level
	}
	snap.ledger = make([]domain.LedgerEntry, len(r.ledger))
	for i, entry := range r.ledger {
		snap.ledger[i] = *entry
	}
	return snap
}

func (r *Repository) RestoreSnapshot(snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels = make(map[int64]*domain.StockLevel, len(snap.levels))
	for id, level := range snap.levels {
		clone := level
		r.levels[id] = &clone
	}
	r.ledger = make([]*domain.LedgerEntry, len(snap.ledger))
	for i, entry := range snap.ledger {
		clone := entry
		r.ledger[i] = &clone
	}
	r.nextID = snap.nextID
}

func containsKind(kinds []domain.MovementKind, kind domain.MovementKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
