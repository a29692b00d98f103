package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northmart/go-order-processing/internal/domains/inventory/application"
	"github.com/northmart/go-order-processing/internal/domains/inventory/domain"
	"github.com/northmart/go-order-processing/internal/domains/inventory/ports"
)

func TestMutateUnderLock_FailedFnWritesNothing(t *testing.T) {
	repo := NewRepository()
	repo.Put(domain.StockLevel{ProductID: 1, Available: 5})

	_, _, err := repo.MutateUnderLock(context.Background(), 1, func(level *domain.StockLevel) (*domain.LedgerEntry, error) {
		return level.Decrement(3, 99)
	})
	require.ErrorIs(t, err, domain.ErrVersionConflict)

	level, err := repo.Level(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), level.Available)
	assert.Equal(t, int64(1), level.Version)

	entries, err := repo.History(context.Background(), ports.HistoryQuery{ProductID: 1})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConcurrentDecrements_ExactlyOneWinsPerVersion(t *testing.T) {
	repo := NewRepository()
	repo.Put(domain.StockLevel{ProductID: 1, Available: 100})
	svc := application.NewService(repo)
	ctx := context.Background()

	const goroutines = 16
	var wg sync.WaitGroup
	results := make([]error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, err := svc.AttemptDecrement(ctx, ports.DecrementCommand{ProductID: 1, Quantity: 1, ExpectedVersion: 1})
			results[slot] = err
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		default:
			require.ErrorIs(t, err, domain.ErrVersionConflict)
			conflicts++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, goroutines-1, conflicts)

	level, err := repo.Level(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(99), level.Available)
	assert.Equal(t, int64(2), level.Version)

	entries, err := repo.History(ctx, ports.HistoryQuery{ProductID: 1})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestHistory_FiltersByKindAndLimit(t *testing.T) {
	repo := NewRepository()
	repo.Put(domain.StockLevel{ProductID: 1})
	svc := application.NewService(repo)
	ctx := context.Background()

	_, err := svc.Receive(ctx, ports.ReceiveCommand{ProductID: 1, Quantity: 10})
	require.NoError(t, err)
	_, err = svc.AttemptDecrement(ctx, ports.DecrementCommand{ProductID: 1, Quantity: 2, ExpectedVersion: 2})
	require.NoError(t, err)
	_, err = svc.AttemptDecrement(ctx, ports.DecrementCommand{ProductID: 1, Quantity: 1, ExpectedVersion: 3})
	require.NoError(t, err)

	outbound, err := svc.History(ctx, ports.HistoryQuery{ProductID: 1, Kinds: []domain.MovementKind{domain.MovementOutbound}})
	require.NoError(t, err)
	assert.Len(t, outbound, 2)

	limited, err := svc.History(ctx, ports.HistoryQuery{ProductID: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, domain.MovementOutbound, limited[0].Kind)
}

func TestSnapshotRestore_RollsBackLevelsAndLedger(t *testing.T) {
	repo := NewRepository()
	repo.Put(domain.StockLevel{ProductID: 1, Available: 10})
	ctx := context.Background()

	snap := repo.Snapshot()

	_, _, err := repo.MutateUnderLock(ctx, 1, func(level *domain.StockLevel) (*domain.LedgerEntry, error) {
		return level.Decrement(4, 1)
	})
	require.NoError(t, err)

	repo.RestoreSnapshot(snap)

	level, err := repo.Level(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), level.Available)
	assert.Equal(t, int64(1), level.Version)

	entries, err := repo.History(ctx, ports.HistoryQuery{ProductID: 1})
	require.NoError(t, err)
	assert.Empty(t, entries)
}
