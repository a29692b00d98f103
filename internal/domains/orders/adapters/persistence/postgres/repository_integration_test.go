//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	inventorypostgres "github.com/northmart/go-order-processing/internal/domains/inventory/adapters/persistence/postgres"
	inventoryapp "github.com/northmart/go-order-processing/internal/domains/inventory/application"
	invdomain "github.com/northmart/go-order-processing/internal/domains/inventory/domain"
	invports "github.com/northmart/go-order-processing/internal/domains/inventory/ports"
	ordersapp "github.com/northmart/go-order-processing/internal/domains/orders/application"
	"github.com/northmart/go-order-processing/internal/domains/orders/domain"
	"github.com/northmart/go-order-processing/internal/domains/orders/ports"
	"github.com/northmart/go-order-processing/internal/platform/migrations"
)

func setupOrdersPostgresContainer(t *testing.T) (*gorm.DB, func()) {
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

func newOrderService(db *gorm.DB) *ordersapp.Service {
	return ordersapp.NewService(
		NewUnitOfWork(db),
		NewRepository(db),
		inventoryapp.NewService(inventorypostgres.NewRepository(db)),
		NewSegmentEnsurer(db),
		NewUserDirectory(db),
		NewProductCatalog(db),
	)
}

func seedOrderFixtures(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Exec(
		`INSERT INTO users (id, username, active, created_at, updated_at) VALUES (1, 'buyer', true, NOW(), NOW())`,
	).Error)
	category := int64(7)
	for _, p := range []struct {
		id    int64
		stock int64
	}{{5, 10}, {9, 4}} {
		require.NoError(t, db.Exec(
			`INSERT INTO products (id, name, price, category_id, category_name, active, stock, version, created_at, updated_at)
			 VALUES (?, 'fixture', 10.00, ?, 'gadgets', true, ?, 1, NOW(), NOW())`,
			p.id, category, p.stock,
		).Error)
	}
}

func TestCreateOrder_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()
	seedOrderFixtures(t, db)

	svc := newOrderService(db)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, ports.CreateOrderCommand{
		UserID: 1,
		Items: []ports.OrderLine{
			{ProductID: 9, Quantity: 2, UnitPrice: decimal.RequireFromString("3.50")},
			{ProductID: 5, Quantity: 6, UnitPrice: decimal.RequireFromString("2.00")},
		},
		Shipping:      domain.ShippingAddress{Recipient: "A. Buyer", Line1: "1 Main St", City: "Springfield", Country: "US"},
		PaymentMethod: "card",
	})
	require.NoError(t, err)
	require.NotZero(t, order.ID)
	assert.Equal(t, domain.StatusPending, order.Status)

	stock := inventoryapp.NewService(inventorypostgres.NewRepository(db))
	level5, err := stock.Level(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(4), level5.Available)
	assert.Equal(t, int64(2), level5.Version)

	entries, err := stock.History(ctx, invports.HistoryQuery{ProductID: 5, Kinds: []invdomain.MovementKind{invdomain.MovementOutbound}})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].OrderID)
	assert.Equal(t, order.ID, *entries[0].OrderID)

	fetched, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Items, 2)
	assert.Equal(t, int64(5), fetched.Items[0].ProductID)
	assert.True(t, fetched.Total.Equal(decimal.RequireFromString("19.00")))
}

func TestCreateOrder_ShortLineRollsBackEverything(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()
	seedOrderFixtures(t, db)

	svc := newOrderService(db)
	ctx := context.Background()
	stock := inventoryapp.NewService(inventorypostgres.NewRepository(db))

	// Product 9 holds 4 units; asking for 5 fails the order.
	_, err := svc.CreateOrder(ctx, ports.CreateOrderCommand{
		UserID: 1,
		Items: []ports.OrderLine{
			{ProductID: 5, Quantity: 2, UnitPrice: decimal.RequireFromString("2.00")},
			{ProductID: 9, Quantity: 5, UnitPrice: decimal.RequireFromString("3.50")},
		},
	})
	require.ErrorIs(t, err, ordersapp.ErrStockShort)

	// Nothing stuck: no orders, no items, no ledger rows, stock untouched.
	var orderCount int64
	require.NoError(t, db.Table("orders").Count(&orderCount).Error)
	assert.Zero(t, orderCount)
	var itemCount int64
	require.NoError(t, db.Table("order_items").Count(&itemCount).Error)
	assert.Zero(t, itemCount)

	level5, err := stock.Level(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(10), level5.Available)
	assert.Equal(t, int64(1), level5.Version)
	entries, err := stock.History(ctx, invports.HistoryQuery{ProductID: 5})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCancelOrder_RestoresStock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()
	seedOrderFixtures(t, db)

	svc := newOrderService(db)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, ports.CreateOrderCommand{
		UserID: 1,
		Items:  []ports.OrderLine{{ProductID: 5, Quantity: 6, UnitPrice: decimal.RequireFromString("2.00")}},
	})
	require.NoError(t, err)

	cancelled, err := svc.CancelOrder(ctx, ports.CancelOrderCommand{OrderID: order.ID, Reason: "test"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)

	stock := inventoryapp.NewService(inventorypostgres.NewRepository(db))
	level, err := stock.Level(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(10), level.Available)
	assert.Equal(t, int64(3), level.Version)

	returns, err := stock.History(ctx, invports.HistoryQuery{ProductID: 5, Kinds: []invdomain.MovementKind{invdomain.MovementReturn}})
	require.NoError(t, err)
	require.Len(t, returns, 1)
	assert.Equal(t, int64(6), returns[0].Delta())
}

func TestEnsureSegment_ConcurrentRacersAllSucceed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	ensurer := NewSegmentEnsurer(db)
	window := domain.WindowFor(time.Date(2031, time.March, 15, 0, 0, 0, 0, time.UTC))

	const racers = 8
	var wg sync.WaitGroup
	results := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			results[slot] = ensurer.EnsureSegment(context.Background(), window)
		}(i)
	}
	wg.Wait()
	for _, err := range results {
		require.NoError(t, err)
	}

	var exists bool
	require.NoError(t, db.Raw(`SELECT to_regclass('orders_p203103') IS NOT NULL`).Scan(&exists).Error)
	assert.True(t, exists)
}

func TestRetireBefore_DropsOldSegments(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	ensurer := NewSegmentEnsurer(db)
	ctx := context.Background()
	old := domain.WindowFor(time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC))
	recent := domain.WindowFor(time.Now().UTC())
	require.NoError(t, ensurer.EnsureSegment(ctx, old))
	require.NoError(t, ensurer.EnsureSegment(ctx, recent))

	retired, err := ensurer.RetireBefore(ctx, time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, retired)

	var exists bool
	require.NoError(t, db.Raw(`SELECT to_regclass('orders_p202001') IS NOT NULL`).Scan(&exists).Error)
	assert.False(t, exists)
	require.NoError(t, db.Raw(`SELECT to_regclass(?) IS NOT NULL`, "orders_"+recent.Suffix()).Scan(&exists).Error)
	assert.True(t, exists)
}

func TestListQueries(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()
	seedOrderFixtures(t, db)

	svc := newOrderService(db)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, ports.CreateOrderCommand{
		UserID: 1,
		Items:  []ports.OrderLine{{ProductID: 5, Quantity: 1, UnitPrice: decimal.RequireFromString("2.00")}},
	})
	require.NoError(t, err)

	byUser, err := svc.ListByUser(ctx, 1, ports.TimeRange{})
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, order.ID, byUser[0].ID)
	require.Len(t, byUser[0].Items, 1)

	pending, err := svc.ListByStatus(ctx, []domain.Status{domain.StatusPending, domain.StatusApproved}, ports.TimeRange{})
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	none, err := svc.ListByTimeRange(ctx, ports.TimeRange{To: time.Now().UTC().Add(-time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, none)
}
