package application

import (
	"context"
	"fmt"

	"github.com/northmart/go-order-processing/internal/domains/inventory/domain"
	"github.com/northmart/go-order-processing/internal/domains/inventory/ports"
)

// Service owns every mutation of the (stock, version) pair. Conflicts and
// shortages surface as values; the service never retries on behalf of the
// caller.
type Service struct {
	repo ports.Repository
}

func NewService(repo ports.Repository) *Service {
	return &Service{repo: repo}
}

// AttemptDecrement removes stock for one order line. The version check, the
// stock check, the write, and the ledger append happen in a single step while
// the product row is exclusively held.
func (s *Service) AttemptDecrement(ctx context.Context, cmd ports.DecrementCommand) (*ports.StockReceipt, error) {
	if cmd.ProductID <= 0 {
		return nil, fmt.Errorf("%w: product id must be greater than zero", ErrInvalidInput)
	}
	return s.mutate(ctx, cmd.ProductID, func(level *domain.StockLevel) (*domain.LedgerEntry, error) {
		entry, err := level.Decrement(cmd.Quantity, cmd.ExpectedVersion)
		if err != nil {
			return nil, err
		}
		entry.OrderID = cmd.OrderID
		entry.UserID = cmd.UserID
		return entry, nil
	})
}

// Restore returns stock unconditionally. It carries no version check: the
// compensation must succeed regardless of sales that happened since the
// decrement.
func (s *Service) Restore(ctx context.Context, cmd ports.RestoreCommand) (*ports.StockReceipt, error) {
	if cmd.ProductID <= 0 {
		return nil, fmt.Errorf("%w: product id must be greater than zero", ErrInvalidInput)
	}
	return s.mutate(ctx, cmd.ProductID, func(level *domain.StockLevel) (*domain.LedgerEntry, error) {
		entry, err := level.Restore(cmd.Quantity)
		if err != nil {
			return nil, err
		}
		entry.OrderID = cmd.OrderID
		entry.UserID = cmd.UserID
		return entry, nil
	})
}

// Receive books an inbound arrival.
func (s *Service) Receive(ctx context.Context, cmd ports.ReceiveCommand) (*ports.StockReceipt, error) {
	if cmd.ProductID <= 0 {
		return nil, fmt.Errorf("%w: product id must be greater than zero", ErrInvalidInput)
	}
	return s.mutate(ctx, cmd.ProductID, func(level *domain.StockLevel) (*domain.LedgerEntry, error) {
		entry, err := level.Receive(cmd.Quantity)
		if err != nil {
			return nil, err
		}
		entry.UserID = cmd.UserID
		return entry, nil
	})
}

// Adjust corrects the counted quantity under the optimistic version check.
func (s *Service) Adjust(ctx context.Context, cmd ports.AdjustCommand) (*ports.StockReceipt, error) {
	if cmd.ProductID <= 0 {
		return nil, fmt.Errorf("%w: product id must be greater than zero", ErrInvalidInput)
	}
	return s.mutate(ctx, cmd.ProductID, func(level *domain.StockLevel) (*domain.LedgerEntry, error) {
		entry, err := level.Adjust(cmd.NewQuantity, cmd.ExpectedVersion)
		if err != nil {
			return nil, err
		}
		entry.UserID = cmd.UserID
		return entry, nil
	})
}

// Level reads the current (available, version) pair without locking. This is
// the sanctioned read for preliminary availability checks.
func (s *Service) Level(ctx context.Context, productID int64) (*domain.StockLevel, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("%w: product id must be greater than zero", ErrInvalidInput)
	}
	return s.repo.Level(ctx, productID)
}

// History reads the movement ledger.
func (s *Service) History(ctx context.Context, query ports.HistoryQuery) ([]*domain.LedgerEntry, error) {
	if query.ProductID <= 0 {
		return nil, fmt.Errorf("%w: product id must be greater than zero", ErrInvalidInput)
	}
	for _, kind := range query.Kinds {
		if !kind.Valid() {
			return nil, fmt.Errorf("%w: unknown movement kind %q", ErrInvalidInput, kind)
		}
	}
	return s.repo.History(ctx, query)
}

func (s *Service) mutate(ctx context.Context, productID int64, fn ports.MutateFunc) (*ports.StockReceipt, error) {
	level, entry, err := s.repo.MutateUnderLock(ctx, productID, fn)
	if err != nil {
		return nil, mapError(err)
	}
	return &ports.StockReceipt{Level: *level, Entry: *entry}, nil
}

var _ ports.Controller = (*Service)(nil)
