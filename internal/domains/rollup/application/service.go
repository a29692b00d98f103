package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/northmart/go-order-processing/internal/domains/rollup/domain"
	"github.com/northmart/go-order-processing/internal/domains/rollup/ports"
)

// DefaultWindow is the trailing range a rebuild covers.
const DefaultWindow = 90 * 24 * time.Hour

// Service recomputes the read-side rollups out-of-band. It only reads
// committed order data and never participates in order creation or
// cancellation.
type Service struct {
	source ports.SalesSource
	store  ports.SnapshotStore
	window time.Duration
	now    func() time.Time
}

type Option func(*Service)

// WithWindow overrides the trailing window length.
func WithWindow(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.window = window
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(source ports.SalesSource, store ports.SnapshotStore, opts ...Option) *Service {
	s := &Service{source: source, store: store, window: DefaultWindow, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Rebuild recomputes the trailing window from scratch and publishes the
// result as one new generation.
func (s *Service) Rebuild(ctx context.Context) (*domain.Snapshot, error) {
	now := s.now().UTC()
	from := now.Add(-s.window)
	lines, err := s.source.SoldLines(ctx, from, now)
	if err != nil {
		return nil, err
	}
	snapshot := domain.Build(uuid.New(), from, now, now, lines)
	if err := s.store.Publish(ctx, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Current returns the active snapshot.
func (s *Service) Current(ctx context.Context) (*domain.Snapshot, error) {
	return s.store.Current(ctx)
}

var _ ports.Service = (*Service)(nil)
