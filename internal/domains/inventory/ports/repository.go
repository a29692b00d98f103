package ports

import (
	"context"
	"errors"
	"time"

	"github.com/northmart/go-order-processing/internal/domains/inventory/domain"
)

var ErrProductNotFound = errors.New("product stock not found")

// MutateFunc is invoked with the current stock level while the underlying row
// is exclusively held. Returning an error abandons the mutation.
type MutateFunc func(level *domain.StockLevel) (*domain.LedgerEntry, error)

// HistoryQuery filters the stock ledger. Zero values mean "no filter"; the
// time range is half-open [From, To).
type HistoryQuery struct {
	ProductID int64
	Kinds     []domain.MovementKind
	From      time.Time
	To        time.Time
	Limit     int
}

// Repository persists stock levels and the movement ledger.
type Repository interface {
	// Level reads the current (available, version) pair without locking.
	Level(ctx context.Context, productID int64) (*domain.StockLevel, error)
	// MutateUnderLock loads the level under an exclusive lock, runs fn, and
	// persists the mutated level together with the ledger entry fn produced.
	// When fn fails nothing is written and the error passes through unchanged.
	MutateUnderLock(ctx context.Context, productID int64, fn MutateFunc) (*domain.StockLevel, *domain.LedgerEntry, error)
	// History reads ledger entries, newest first.
	History(ctx context.Context, query HistoryQuery) ([]*domain.LedgerEntry, error)
}
