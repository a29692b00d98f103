package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/northmart/go-order-processing/internal/domains/rollup/domain"
	"github.com/northmart/go-order-processing/internal/domains/rollup/ports"
)

var _ ports.SalesSource = (*SalesSource)(nil)

// SalesSource reads denormalized sold lines straight off the committed order
// partitions. It never locks anything; order traffic is unaffected.
type SalesSource struct {
	db *gorm.DB
}

func NewSalesSource(db *gorm.DB) *SalesSource {
	return &SalesSource{db: db}
}

type soldLineRow struct {
	OrderID      int64           `gorm:"column:order_id"`
	UserID       int64           `gorm:"column:user_id"`
	PlacedAt     time.Time       `gorm:"column:placed_at"`
	CategoryID   *int64          `gorm:"column:category_id"`
	CategoryName string          `gorm:"column:category_name"`
	Quantity     int64           `gorm:"column:quantity"`
	LineTotal    decimal.Decimal `gorm:"column:line_total"`
}

func (s *SalesSource) SoldLines(ctx context.Context, from, to time.Time) ([]domain.SoldLine, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("postgres sales source not configured")
	}
	var rows []soldLineRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT o.id AS order_id, o.user_id, o.created_at AS placed_at,
		        p.category_id, p.category_name,
		        i.quantity, (i.quantity * i.unit_price - i.discount) AS line_total
		 FROM orders o
		 JOIN order_items i ON i.order_id = o.id AND i.order_created_at = o.created_at
		 LEFT JOIN products p ON p.id = i.product_id
		 WHERE o.created_at >= ? AND o.created_at < ?
		   AND o.status NOT IN ('cancelled', 'returned')`,
		from, to,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	lines := make([]domain.SoldLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, domain.SoldLine{
			OrderID:      row.OrderID,
			UserID:       row.UserID,
			PlacedAt:     row.PlacedAt,
			CategoryID:   row.CategoryID,
			CategoryName: row.CategoryName,
			Quantity:     row.Quantity,
			LineTotal:    row.LineTotal,
		})
	}
	return lines, nil
}
