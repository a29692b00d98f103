package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	catalogclient "github.com/northmart/go-order-processing/internal/clients/http/catalog"
	inventorymemory "github.com/northmart/go-order-processing/internal/domains/inventory/adapters/memory"
	inventoryobs "github.com/northmart/go-order-processing/internal/domains/inventory/adapters/observability"
	inventorypostgres "github.com/northmart/go-order-processing/internal/domains/inventory/adapters/persistence/postgres"
	inventoryapp "github.com/northmart/go-order-processing/internal/domains/inventory/application"
	inventoryports "github.com/northmart/go-order-processing/internal/domains/inventory/ports"
	ordersmemory "github.com/northmart/go-order-processing/internal/domains/orders/adapters/memory"
	ordersobs "github.com/northmart/go-order-processing/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/northmart/go-order-processing/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/northmart/go-order-processing/internal/domains/orders/application"
	ordersports "github.com/northmart/go-order-processing/internal/domains/orders/ports"
	rollupmemory "github.com/northmart/go-order-processing/internal/domains/rollup/adapters/memory"
	rollupobs "github.com/northmart/go-order-processing/internal/domains/rollup/adapters/observability"
	rolluppostgres "github.com/northmart/go-order-processing/internal/domains/rollup/adapters/persistence/postgres"
	rollupapp "github.com/northmart/go-order-processing/internal/domains/rollup/application"
	rollupports "github.com/northmart/go-order-processing/internal/domains/rollup/ports"
	platformmigrations "github.com/northmart/go-order-processing/internal/platform/migrations"
	platformobservability "github.com/northmart/go-order-processing/internal/platform/observability"
	platformpostgres "github.com/northmart/go-order-processing/internal/platform/postgres"
)

// Services bundles the wired application services the processes consume.
type Services struct {
	Orders   ordersports.Service
	Stock    inventoryports.Controller
	Rollup   rollupports.Service
	Segments ordersports.SegmentEnsurer
}

// Run boots the order processing HTTP API with observability, storage, and
// all three bounded contexts wired.
func Run(ctx context.Context) error {
	const serviceName = "order-processing-api"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	services, cleanup := BuildServices(ctx, cfg, instruments)
	defer cleanup()

	handlers := APIHandlers{
		OrderAPI:  NewOrderAPI(services.Orders),
		StockAPI:  NewStockAPI(services.Stock),
		RollupAPI: NewRollupAPI(services.Rollup),
	}
	router := NewRouter(handlers)
	router.Use(otelgin.Middleware(serviceName))

	addr := ":" + cfg.Port
	logger.Info("order processing API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("order processing API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

// BuildServices wires the bounded contexts against Postgres when POSTGRES_DSN
// is usable, and against the in-memory adapters otherwise. The returned
// cleanup closes whatever connections were opened.
func BuildServices(ctx context.Context, cfg Config, instruments *platformobservability.Instruments) (*Services, func()) {
	logger := instruments.Logger
	db, cleanup := connectPostgres(ctx, cfg, logger)

	var (
		stockCore  inventoryports.Controller
		ordersCore ordersports.Service
		rollupCore rollupports.Service
		segments   ordersports.SegmentEnsurer
	)
	if db != nil {
		stockCore = inventoryapp.NewService(inventorypostgres.NewRepository(db))
		stock := decorateStock(stockCore, instruments)

		segments = orderspostgres.NewSegmentEnsurer(db)
		catalog := buildCatalog(cfg, logger, orderspostgres.NewProductCatalog(db))
		ordersCore = ordersapp.NewService(
			orderspostgres.NewUnitOfWork(db),
			orderspostgres.NewRepository(db),
			stock,
			segments,
			orderspostgres.NewUserDirectory(db),
			catalog,
		)
		rollupCore = rollupapp.NewService(
			rolluppostgres.NewSalesSource(db),
			rolluppostgres.NewSnapshotStore(db),
			rollupapp.WithWindow(time.Duration(cfg.RollupWindowDays)*24*time.Hour),
		)
		return decorate(stock, ordersCore, rollupCore, segments, instruments), cleanup
	}

	stockRepo := inventorymemory.NewRepository()
	stockCore = inventoryapp.NewService(stockRepo)
	stock := decorateStock(stockCore, instruments)

	ordersRepo := ordersmemory.NewRepository()
	segments = ordersmemory.NewSegmentEnsurer()
	users := ordersmemory.NewUserDirectory()
	users.Put(ordersports.UserInfo{ID: 1, Active: true})
	logger.Info("in-memory user directory seeded with demo user", slog.Int64("userId", 1))
	memCatalog := ordersmemory.NewProductCatalog()
	catalog := buildCatalog(cfg, logger, memCatalog)
	ordersCore = ordersapp.NewService(
		ordersmemory.NewUnitOfWork(ordersRepo, stockRepo),
		ordersRepo,
		stock,
		segments,
		users,
		catalog,
	)
	rollupCore = rollupapp.NewService(
		rollupmemory.NewSalesSource(ordersRepo, catalog),
		rollupmemory.NewSnapshotStore(),
		rollupapp.WithWindow(time.Duration(cfg.RollupWindowDays)*24*time.Hour),
	)
	return decorate(stock, ordersCore, rollupCore, segments, instruments), cleanup
}

func decorate(
	stock inventoryports.Controller,
	orders ordersports.Service,
	rollup rollupports.Service,
	segments ordersports.SegmentEnsurer,
	instruments *platformobservability.Instruments,
) *Services {
	logger := instruments.Logger
	return &Services{
		Stock: stock,
		Orders: ordersobs.New(
			orders,
			ordersobs.WithLogger(logger),
			ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
			ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
		),
		Rollup: rollupobs.New(
			rollup,
			rollupobs.WithLogger(logger),
			rollupobs.WithTracer(instruments.Tracer("internal.rollup.application")),
			rollupobs.WithMeter(instruments.Meter("internal.rollup.application")),
		),
		Segments: segments,
	}
}

func decorateStock(stock inventoryports.Controller, instruments *platformobservability.Instruments) inventoryports.Controller {
	return inventoryobs.New(
		stock,
		inventoryobs.WithLogger(instruments.Logger),
		inventoryobs.WithTracer(instruments.Tracer("internal.inventory.application")),
		inventoryobs.WithMeter(instruments.Meter("internal.inventory.application")),
	)
}

func connectPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*gorm.DB, func()) {
	if cfg.PostgresDSN == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory repositories")
		return nil, func() {}
	}
	db, err := platformpostgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Warn("failed to connect to postgres, falling back to memory", slog.String("error", err.Error()))
		return nil, func() {}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("failed to unwrap postgres connection, falling back to memory", slog.String("error", err.Error()))
		return nil, func() {}
	}
	if err := platformmigrations.Run(db); err != nil {
		logger.Warn("failed to run migrations, falling back to memory", slog.String("error", err.Error()))
		_ = sqlDB.Close()
		return nil, func() {}
	}
	logger.Info("repositories configured with postgres")
	return db, func() { _ = sqlDB.Close() }
}

func buildCatalog(cfg Config, logger *slog.Logger, fallback ordersports.ProductCatalog) ordersports.ProductCatalog {
	if cfg.CatalogBaseURL == "" {
		return fallback
	}
	client, err := catalogclient.New(cfg.CatalogBaseURL, nil)
	if err != nil {
		logger.Warn("failed to build catalog client, using local catalog", slog.String("error", err.Error()))
		return fallback
	}
	logger.Info("product catalog configured with remote service", slog.String("baseUrl", cfg.CatalogBaseURL))
	return client
}
