package memory

import (
	"context"
	"sync"
	"time"

	"github.com/northmart/go-order-processing/internal/domains/orders/domain"
	"github.com/northmart/go-order-processing/internal/domains/orders/ports"
)

var _ ports.SegmentEnsurer = (*SegmentEnsurer)(nil)

// SegmentEnsurer tracks provisioned storage windows in memory. Creation is
// idempotent; concurrent first-writers of a new window all succeed.
type SegmentEnsurer struct {
	mu       sync.Mutex
	segments map[string]domain.StorageWindow
}

func NewSegmentEnsurer() *SegmentEnsurer {
	return &SegmentEnsurer{segments: map[string]domain.StorageWindow{}}
}

func (e *SegmentEnsurer) EnsureSegment(_ context.Context, window domain.StorageWindow) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.segments[window.Suffix()] = window
	return nil
}

func (e *SegmentEnsurer) RetireBefore(_ context.Context, cutoff time.Time) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	retired := 0
	for suffix, window := range e.segments {
		if !window.End.After(cutoff.UTC()) {
			delete(e.segments, suffix)
			retired++
		}
	}
	return retired, nil
}

// Segments lists the provisioned window suffixes, for tests.
func (e *SegmentEnsurer) Segments() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	suffixes := make([]string, 0, len(e.segments))
	for suffix := range e.segments {
		suffixes = append(suffixes, suffix)
	}
	return suffixes
}
