package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	orderspostgres "github.com/northmart/go-order-processing/internal/domains/orders/adapters/persistence/postgres"
	rolluppostgres "github.com/northmart/go-order-processing/internal/domains/rollup/adapters/persistence/postgres"
	rollupapp "github.com/northmart/go-order-processing/internal/domains/rollup/application"
	platformpostgres "github.com/northmart/go-order-processing/internal/platform/postgres"
)

// One-shot rollup rebuild for deployments without a Temporal worker, plus
// optional segment retirement when PARTITION_RETAIN_MONTHS is set.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot rebuild rollups")
	}

	service := rollupapp.NewService(
		rolluppostgres.NewSalesSource(db),
		rolluppostgres.NewSnapshotStore(db),
		rollupapp.WithWindow(windowFromEnv()),
	)
	snapshot, err := service.Rebuild(ctx)
	if err != nil {
		log.Fatalf("failed to rebuild rollups: %v", err)
	}
	log.Printf("rollup rebuild completed: generation=%s days=%d categories=%d",
		snapshot.Generation, len(snapshot.Daily), len(snapshot.Categories))

	if months := retainMonthsFromEnv(); months > 0 {
		cutoff := time.Now().UTC().AddDate(0, -months, 0)
		dropped, err := orderspostgres.NewSegmentEnsurer(db).RetireBefore(ctx, cutoff)
		if err != nil {
			log.Fatalf("failed to retire order segments: %v", err)
		}
		log.Printf("segment retirement completed: dropped=%d cutoff=%s", dropped, cutoff.Format(time.RFC3339))
	}
}

func windowFromEnv() time.Duration {
	raw := strings.TrimSpace(os.Getenv("ROLLUP_WINDOW_DAYS"))
	if raw == "" {
		return rollupapp.DefaultWindow
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return rollupapp.DefaultWindow
	}
	return time.Duration(days) * 24 * time.Hour
}

func retainMonthsFromEnv() int {
	raw := strings.TrimSpace(os.Getenv("PARTITION_RETAIN_MONTHS"))
	if raw == "" {
		return 0
	}
	months, err := strconv.Atoi(raw)
	if err != nil || months < 0 {
		return 0
	}
	return months
}
