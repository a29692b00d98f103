package ports

import (
	"context"
	"errors"
	"time"

	inventoryports "github.com/northmart/go-order-processing/internal/domains/inventory/ports"
	"github.com/northmart/go-order-processing/internal/domains/orders/domain"
)

var ErrOrderNotFound = errors.New("order not found")

// TimeRange is half-open: [From, To). Zero bounds mean unbounded.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// OrderReader serves the read-side access patterns.
type OrderReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	ListByUser(ctx context.Context, userID int64, window TimeRange) ([]*domain.Order, error)
	ListByStatus(ctx context.Context, statuses []domain.Status, window TimeRange) ([]*domain.Order, error)
	ListByTimeRange(ctx context.Context, window TimeRange) ([]*domain.Order, error)
}

// OrderWriter mutates orders. It is only reachable through a TxScope, so
// every write happens inside an atomic unit.
type OrderWriter interface {
	// Insert persists the order with its items and fills generated ids.
	Insert(ctx context.Context, order *domain.Order) (*domain.Order, error)
	// LockByID loads the order with its items while holding an exclusive
	// lock on the order row until the surrounding unit ends.
	LockByID(ctx context.Context, id int64) (*domain.Order, error)
	// UpdateStatus persists the order's status and cancellation fields.
	UpdateStatus(ctx context.Context, order *domain.Order) error
}

// TxScope exposes the collaborators bound to one atomic unit. Stock taken
// from the scope participates in the same transaction as the order writes.
type TxScope interface {
	Orders() OrderWriter
	Stock() inventoryports.Controller
}

// UnitOfWork runs fn inside one atomic unit. A non-nil error from fn rolls
// every write back, including stock mutations done through the scope.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(scope TxScope) error) error
}

// SegmentEnsurer provisions and retires the monthly order segments.
type SegmentEnsurer interface {
	// EnsureSegment creates the segment for the window if it does not exist.
	// Safe to call concurrently; every racer converges on success.
	EnsureSegment(ctx context.Context, window domain.StorageWindow) error
	// RetireBefore drops whole segments whose window ended before the
	// cutoff and returns how many were dropped.
	RetireBefore(ctx context.Context, cutoff time.Time) (int, error)
}
