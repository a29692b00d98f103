package ports

import (
	"context"
	"errors"
	"time"

	"github.com/northmart/go-order-processing/internal/domains/rollup/domain"
)

var ErrNoSnapshot = errors.New("no rollup snapshot published")

// SalesSource reads committed sales for the trailing window, half-open
// [from, to). Cancelled and returned orders are excluded at the source.
type SalesSource interface {
	SoldLines(ctx context.Context, from, to time.Time) ([]domain.SoldLine, error)
}

// SnapshotStore publishes and serves rollup generations. Publish replaces
// the active generation atomically; Current returns ErrNoSnapshot until the
// first publish.
type SnapshotStore interface {
	Publish(ctx context.Context, snapshot *domain.Snapshot) error
	Current(ctx context.Context) (*domain.Snapshot, error)
}

// Service rebuilds and serves the read-side rollups.
type Service interface {
	Rebuild(ctx context.Context) (*domain.Snapshot, error)
	Current(ctx context.Context) (*domain.Snapshot, error)
}
