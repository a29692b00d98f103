package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northmart/go-order-processing/internal/domains/inventory/domain"
	"github.com/northmart/go-order-processing/internal/domains/inventory/ports"
)

type fakeStockRepo struct {
	levels map[int64]*domain.StockLevel
	ledger []*domain.LedgerEntry
	nextID int64
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{levels: map[int64]*domain.StockLevel{}}
}

func (f *fakeStockRepo) seed(productID, available, version int64) {
	f.levels[productID] = &domain.StockLevel{ProductID: productID, Available: available, Version: version}
}

func (f *fakeStockRepo) Level(_ context.Context, productID int64) (*domain.StockLevel, error) {
	level, ok := f.levels[productID]
	if !ok {
		return nil, ports.ErrProductNotFound
	}
	clone := *level
	return &clone, nil
}

func (f *fakeStockRepo) MutateUnderLock(_ context.Context, productID int64, fn ports.MutateFunc) (*domain.StockLevel, *domain.LedgerEntry, error) {
	level, ok := f.levels[productID]
	if !ok {
		return nil, nil, ports.ErrProductNotFound
	}
	working := *level
	entry, err := fn(&working)
	if err != nil {
		return nil, nil, err
	}
	f.nextID++
	entry.ID = f.nextID
	entry.RecordedAt = time.Now().UTC()
	f.levels[productID] = &working
	f.ledger = append(f.ledger, entry)
	result := working
	return &result, entry, nil
}

func (f *fakeStockRepo) History(_ context.Context, query ports.HistoryQuery) ([]*domain.LedgerEntry, error) {
	var entries []*domain.LedgerEntry
	for i := len(f.ledger) - 1; i >= 0; i-- {
		if f.ledger[i].ProductID == query.ProductID {
			entries = append(entries, f.ledger[i])
		}
	}
	return entries, nil
}

func TestAttemptDecrement_Succeeds(t *testing.T) {
	repo := newFakeStockRepo()
	repo.seed(5, 10, 1)
	svc := NewService(repo)

	orderID := int64(42)
	receipt, err := svc.AttemptDecrement(context.Background(), ports.DecrementCommand{
		ProductID: 5, Quantity: 3, ExpectedVersion: 1, OrderID: &orderID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), receipt.Level.Available)
	assert.Equal(t, int64(2), receipt.Level.Version)
	assert.Equal(t, domain.MovementOutbound, receipt.Entry.Kind)
	require.NotNil(t, receipt.Entry.OrderID)
	assert.Equal(t, orderID, *receipt.Entry.OrderID)
	assert.False(t, receipt.Entry.RecordedAt.IsZero())
}

func TestAttemptDecrement_StaleVersionThenRetry(t *testing.T) {
	repo := newFakeStockRepo()
	repo.seed(5, 10, 1)
	svc := NewService(repo)
	ctx := context.Background()

	// A first sale moves the version to 2.
	_, err := svc.AttemptDecrement(ctx, ports.DecrementCommand{ProductID: 5, Quantity: 6, ExpectedVersion: 1})
	require.NoError(t, err)

	// A client still holding version 1 conflicts and learns the current version.
	_, err = svc.AttemptDecrement(ctx, ports.DecrementCommand{ProductID: 5, Quantity: 3, ExpectedVersion: 1})
	require.ErrorIs(t, err, domain.ErrVersionConflict)
	var conflict *domain.VersionConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, int64(2), conflict.CurrentVersion)

	// Re-issuing with the fresh version succeeds.
	receipt, err := svc.AttemptDecrement(ctx, ports.DecrementCommand{ProductID: 5, Quantity: 3, ExpectedVersion: conflict.CurrentVersion})
	require.NoError(t, err)
	assert.Equal(t, int64(1), receipt.Level.Available)
	assert.Equal(t, int64(3), receipt.Level.Version)
}

func TestAttemptDecrement_InsufficientLeavesStateUntouched(t *testing.T) {
	repo := newFakeStockRepo()
	repo.seed(5, 2, 1)
	svc := NewService(repo)

	_, err := svc.AttemptDecrement(context.Background(), ports.DecrementCommand{ProductID: 5, Quantity: 3, ExpectedVersion: 1})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	level, err := svc.Level(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), level.Available)
	assert.Equal(t, int64(1), level.Version)
	assert.Empty(t, repo.ledger)
}

func TestAttemptDecrement_UnknownProduct(t *testing.T) {
	svc := NewService(newFakeStockRepo())

	_, err := svc.AttemptDecrement(context.Background(), ports.DecrementCommand{ProductID: 99, Quantity: 1, ExpectedVersion: 1})
	assert.ErrorIs(t, err, ports.ErrProductNotFound)
}

func TestAttemptDecrement_RejectsBadInput(t *testing.T) {
	repo := newFakeStockRepo()
	repo.seed(5, 10, 1)
	svc := NewService(repo)

	_, err := svc.AttemptDecrement(context.Background(), ports.DecrementCommand{ProductID: 0, Quantity: 1, ExpectedVersion: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.AttemptDecrement(context.Background(), ports.DecrementCommand{ProductID: 5, Quantity: 0, ExpectedVersion: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRestore_SucceedsDespiteNewerVersion(t *testing.T) {
	repo := newFakeStockRepo()
	repo.seed(5, 4, 7)
	svc := NewService(repo)

	receipt, err := svc.Restore(context.Background(), ports.RestoreCommand{ProductID: 5, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(6), receipt.Level.Available)
	assert.Equal(t, int64(8), receipt.Level.Version)
	assert.Equal(t, domain.MovementReturn, receipt.Entry.Kind)
}

func TestReceiveAndAdjust(t *testing.T) {
	repo := newFakeStockRepo()
	repo.seed(5, 0, 1)
	svc := NewService(repo)
	ctx := context.Background()

	receipt, err := svc.Receive(ctx, ports.ReceiveCommand{ProductID: 5, Quantity: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(20), receipt.Level.Available)

	receipt, err = svc.Adjust(ctx, ports.AdjustCommand{ProductID: 5, NewQuantity: 17, ExpectedVersion: receipt.Level.Version})
	require.NoError(t, err)
	assert.Equal(t, int64(17), receipt.Level.Available)
	assert.Equal(t, domain.MovementAdjustment, receipt.Entry.Kind)
	assert.Equal(t, int64(-3), receipt.Entry.Delta())
}

func TestHistory_RejectsUnknownKind(t *testing.T) {
	svc := NewService(newFakeStockRepo())

	_, err := svc.History(context.Background(), ports.HistoryQuery{ProductID: 5, Kinds: []domain.MovementKind{"teleport"}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestHistory_ReturnsNewestFirst(t *testing.T) {
	repo := newFakeStockRepo()
	repo.seed(5, 0, 1)
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Receive(ctx, ports.ReceiveCommand{ProductID: 5, Quantity: 10})
	require.NoError(t, err)
	_, err = svc.AttemptDecrement(ctx, ports.DecrementCommand{ProductID: 5, Quantity: 4, ExpectedVersion: 2})
	require.NoError(t, err)

	entries, err := svc.History(ctx, ports.HistoryQuery{ProductID: 5})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.MovementOutbound, entries[0].Kind)
	assert.Equal(t, domain.MovementInbound, entries[1].Kind)
}
