package ports

import (
	"context"

	"github.com/northmart/go-order-processing/internal/domains/inventory/domain"
)

// DecrementCommand removes stock for one order line under an optimistic
// version check.
type DecrementCommand struct {
	ProductID       int64
	Quantity        int64
	ExpectedVersion int64
	OrderID         *int64
	UserID          *int64
}

// RestoreCommand returns previously decremented stock, typically as the
// compensation for a cancelled order.
type RestoreCommand struct {
	ProductID int64
	Quantity  int64
	OrderID   *int64
	UserID    *int64
}

// ReceiveCommand books an inbound stock arrival.
type ReceiveCommand struct {
	ProductID int64
	Quantity  int64
	UserID    *int64
}

// AdjustCommand corrects the available quantity to an absolute value.
type AdjustCommand struct {
	ProductID       int64
	NewQuantity     int64
	ExpectedVersion int64
	UserID          *int64
}

// StockReceipt reports the outcome of a successful mutation: the new level and
// the ledger entry that was appended for it.
type StockReceipt struct {
	Level domain.StockLevel
	Entry domain.LedgerEntry
}

// Controller is the only write path to the (stock, version) pair.
type Controller interface {
	AttemptDecrement(ctx context.Context, cmd DecrementCommand) (*StockReceipt, error)
	Restore(ctx context.Context, cmd RestoreCommand) (*StockReceipt, error)
	Receive(ctx context.Context, cmd ReceiveCommand) (*StockReceipt, error)
	Adjust(ctx context.Context, cmd AdjustCommand) (*StockReceipt, error)
	Level(ctx context.Context, productID int64) (*domain.StockLevel, error)
	History(ctx context.Context, query HistoryQuery) ([]*domain.LedgerEntry, error)
}
