package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SoldLine is one denormalized order line from committed, non-cancelled,
// non-returned orders. The aggregator consumes these and nothing else.
type SoldLine struct {
	OrderID      int64
	UserID       int64
	PlacedAt     time.Time
	CategoryID   *int64
	CategoryName string
	Quantity     int64
	LineTotal    decimal.Decimal
}

// Totals are the aggregate figures shared by every rollup dimension.
type Totals struct {
	GrossValue    decimal.Decimal
	OrderCount    int64
	CustomerCount int64
	AverageTicket decimal.Decimal
}

// DailyRollup aggregates one calendar day (UTC).
type DailyRollup struct {
	Day time.Time
	Totals
}

// CategoryRollup aggregates one product category. A nil CategoryID is the
// uncategorized bucket.
type CategoryRollup struct {
	CategoryID   *int64
	CategoryName string
	Totals
}

// Snapshot is one complete rollup generation. It is published atomically;
// readers see either the previous generation or this one, never a mix.
type Snapshot struct {
	Generation  uuid.UUID
	WindowStart time.Time
	WindowEnd   time.Time
	BuiltAt     time.Time
	Daily       []DailyRollup
	Categories  []CategoryRollup
}

// Build aggregates the lines into a snapshot. Pure: same lines, same output
// (up to the generation id and build time stamped on it).
func Build(generation uuid.UUID, windowStart, windowEnd, builtAt time.Time, lines []SoldLine) *Snapshot {
	days := map[time.Time]*accumulator{}
	categories := map[int64]*accumulator{}
	categoryNames := map[int64]string{}
	categoryIDs := map[int64]*int64{}

	for i := range lines {
		line := &lines[i]
		day := line.PlacedAt.UTC().Truncate(24 * time.Hour)
		accumulate(days, day, line)

		// Key 0 collects lines without a category.
		key := int64(0)
		if line.CategoryID != nil {
			key = *line.CategoryID
		}
		accumulate(categories, key, line)
		categoryIDs[key] = line.CategoryID
		if line.CategoryName != "" {
			categoryNames[key] = line.CategoryName
		}
	}

	snapshot := &Snapshot{
		Generation:  generation,
		WindowStart: windowStart.UTC(),
		WindowEnd:   windowEnd.UTC(),
		BuiltAt:     builtAt.UTC(),
	}
	for day, acc := range days {
		snapshot.Daily = append(snapshot.Daily, DailyRollup{Day: day, Totals: acc.totals()})
	}
	sort.Slice(snapshot.Daily, func(a, b int) bool {
		return snapshot.Daily[a].Day.Before(snapshot.Daily[b].Day)
	})
	for key, acc := range categories {
		snapshot.Categories = append(snapshot.Categories, CategoryRollup{
			CategoryID:   categoryIDs[key],
			CategoryName: categoryNames[key],
			Totals:       acc.totals(),
		})
	}
	sort.Slice(snapshot.Categories, func(a, b int) bool {
		left, right := snapshot.Categories[a], snapshot.Categories[b]
		if left.CategoryName != right.CategoryName {
			return left.CategoryName < right.CategoryName
		}
		return categoryKey(left.CategoryID) < categoryKey(right.CategoryID)
	})
	return snapshot
}

type accumulator struct {
	gross     decimal.Decimal
	orders    map[int64]struct{}
	customers map[int64]struct{}
}

func accumulate[K comparable](buckets map[K]*accumulator, key K, line *SoldLine) {
	acc, ok := buckets[key]
	if !ok {
		acc = &accumulator{orders: map[int64]struct{}{}, customers: map[int64]struct{}{}}
		buckets[key] = acc
	}
	acc.gross = acc.gross.Add(line.LineTotal)
	acc.orders[line.OrderID] = struct{}{}
	acc.customers[line.UserID] = struct{}{}
}

func (a *accumulator) totals() Totals {
	totals := Totals{
		GrossValue:    a.gross,
		OrderCount:    int64(len(a.orders)),
		CustomerCount: int64(len(a.customers)),
		AverageTicket: decimal.Zero,
	}
	if totals.OrderCount > 0 {
		totals.AverageTicket = a.gross.Div(decimal.NewFromInt(totals.OrderCount)).Round(2)
	}
	return totals
}

func categoryKey(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}
