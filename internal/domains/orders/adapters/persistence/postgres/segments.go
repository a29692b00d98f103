package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/northmart/go-order-processing/internal/domains/orders/domain"
	"github.com/northmart/go-order-processing/internal/domains/orders/ports"
)

var _ ports.SegmentEnsurer = (*SegmentEnsurer)(nil)

// SegmentEnsurer provisions and retires the monthly partitions of the orders
// and order_items tables. Segment names and bounds derive from the pure
// window function only, never from caller-supplied strings.
type SegmentEnsurer struct {
	db *gorm.DB
}

func NewSegmentEnsurer(db *gorm.DB) *SegmentEnsurer {
	return &SegmentEnsurer{db: db}
}

// EnsureSegment creates the window's partitions if they do not exist yet.
// Concurrent first-writers of a new month race here; IF NOT EXISTS plus
// tolerating duplicate-object errors makes every racer succeed.
func (e *SegmentEnsurer) EnsureSegment(ctx context.Context, window domain.StorageWindow) error {
	if e == nil || e.db == nil {
		return errors.New("postgres segment ensurer not configured")
	}
	for _, parent := range []string{"orders", "order_items"} {
		stmt := fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s_%s PARTITION OF %s FOR VALUES FROM ('%s') TO ('%s')",
			parent, window.Suffix(), parent,
			window.Start.Format(time.RFC3339), window.End.Format(time.RFC3339),
		)
		if err := e.db.WithContext(ctx).Exec(stmt).Error; err != nil && !isDuplicateObject(err) {
			return fmt.Errorf("ensure segment %s_%s: %w", parent, window.Suffix(), err)
		}
	}
	return nil
}

// RetireBefore drops every segment whose window ended before the cutoff and
// returns how many order segments were dropped. Retirement is bulk: whole
// partitions go, never individual rows.
func (e *SegmentEnsurer) RetireBefore(ctx context.Context, cutoff time.Time) (int, error) {
	if e == nil || e.db == nil {
		return 0, errors.New("postgres segment ensurer not configured")
	}
	var names []string
	err := e.db.WithContext(ctx).Raw(
		`SELECT c.relname FROM pg_inherits i
		 JOIN pg_class c ON c.oid = i.inhrelid
		 JOIN pg_class p ON p.oid = i.inhparent
		 WHERE p.relname = 'orders'`,
	).Scan(&names).Error
	if err != nil {
		return 0, err
	}
	retired := 0
	for _, name := range names {
		window, ok := windowFromSegmentName(name, "orders_")
		if !ok || window.End.After(cutoff.UTC()) {
			continue
		}
		suffix := window.Suffix()
		for _, parent := range []string{"order_items", "orders"} {
			if err := e.db.WithContext(ctx).Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s_%s", parent, suffix)).Error; err != nil {
				return retired, fmt.Errorf("retire segment %s_%s: %w", parent, suffix, err)
			}
		}
		retired++
	}
	return retired, nil
}

// windowFromSegmentName recovers the storage window from a segment relation
// name like orders_p202608. Non-segment children are skipped.
func windowFromSegmentName(name, prefix string) (domain.StorageWindow, bool) {
	rest, ok := strings.CutPrefix(name, prefix+"p")
	if !ok {
		return domain.StorageWindow{}, false
	}
	start, err := time.ParseInLocation("200601", rest, time.UTC)
	if err != nil {
		return domain.StorageWindow{}, false
	}
	return domain.WindowFor(start), true
}

// isDuplicateObject matches the duplicate-table and unique-violation states a
// lost partition-creation race surfaces as.
func isDuplicateObject(err error) bool {
	var state interface{ SQLState() string }
	if errors.As(err, &state) {
		code := state.SQLState()
		return code == "42P07" || code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
