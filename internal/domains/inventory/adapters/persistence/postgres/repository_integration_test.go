//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/northmart/go-order-processing/internal/domains/inventory/application"
	"github.com/northmart/go-order-processing/internal/domains/inventory/domain"
	"github.com/northmart/go-order-processing/internal/domains/inventory/ports"
	"github.com/northmart/go-order-processing/internal/platform/migrations"
)

func setupStockPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("orderproc_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func seedProduct(t *testing.T, db *gorm.DB, id, stock int64) {
	t.Helper()
	record := productRecord{ID: id, Name: "test product", Active: true, Stock: stock, Version: 1}
	require.NoError(t, db.Create(&record).Error)
}

func TestRepository_MutateUnderLock_DecrementAndLedger(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupStockPostgresContainer(t)
	defer cleanup()

	seedProduct(t, db, 1, 10)
	repo := NewRepository(db)
	svc := application.NewService(repo)
	ctx := context.Background()

	orderID := int64(55)
	receipt, err := svc.AttemptDecrement(ctx, ports.DecrementCommand{
		ProductID: 1, Quantity: 4, ExpectedVersion: 1, OrderID: &orderID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6), receipt.Level.Available)
	assert.Equal(t, int64(2), receipt.Level.Version)

	level, err := repo.Level(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(6), level.Available)

	entries, err := repo.History(ctx, ports.HistoryQuery{ProductID: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.MovementOutbound, entries[0].Kind)
	assert.Equal(t, int64(10), entries[0].QuantityBefore)
	assert.Equal(t, int64(6), entries[0].QuantityAfter)
	require.NotNil(t, entries[0].OrderID)
	assert.Equal(t, orderID, *entries[0].OrderID)
}

func TestRepository_MutateUnderLock_ConflictWritesNothing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupStockPostgresContainer(t)
	defer cleanup()

	seedProduct(t, db, 1, 10)
	repo := NewRepository(db)
	ctx := context.Background()

	_, _, err := repo.MutateUnderLock(ctx, 1, func(level *domain.StockLevel) (*domain.LedgerEntry, error) {
		return level.Decrement(1, 99)
	})
	require.ErrorIs(t, err, domain.ErrVersionConflict)

	level, err := repo.Level(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), level.Available)
	assert.Equal(t, int64(1), level.Version)

	entries, err := repo.History(ctx, ports.HistoryQuery{ProductID: 1})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRepository_ConcurrentDecrements_RowLockSerializes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupStockPostgresContainer(t)
	defer cleanup()

	seedProduct(t, db, 1, 100)
	svc := application.NewService(NewRepository(db))
	ctx := context.Background()

	const goroutines = 8
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

	var wins int
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, domain.ErrVersionConflict)
		}
	}
	assert.Equal(t, 1, wins)

	level, err := svc.Level(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(99), level.Available)
	assert.Equal(t, int64(2), level.Version)
}

func TestRepository_RestoreAndHistoryFilter(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupStockPostgresContainer(t)
	defer cleanup()

	seedProduct(t, db, 1, 5)
	svc := application.NewService(NewRepository(db))
	ctx := context.Background()

	_, err := svc.AttemptDecrement(ctx, ports.DecrementCommand{ProductID: 1, Quantity: 2, ExpectedVersion: 1})
	require.NoError(t, err)
	_, err = svc.Restore(ctx, ports.RestoreCommand{ProductID: 1, Quantity: 2})
	require.NoError(t, err)

	returns, err := svc.History(ctx, ports.HistoryQuery{ProductID: 1, Kinds: []domain.MovementKind{domain.MovementReturn}})
	require.NoError(t, err)
	require.Len(t, returns, 1)
	assert.Equal(t, int64(2), returns[0].Delta())

	all, err := svc.History(ctx, ports.HistoryQuery{ProductID: 1})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	level, err := svc.Level(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), level.Available)
	assert.Equal(t, int64(3), level.Version)
}

func TestRepository_UnknownProduct(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupStockPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	_, err := repo.Level(context.Background(), 404)
	assert.ErrorIs(t, err, ports.ErrProductNotFound)
}
