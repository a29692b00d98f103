package memory

import (
	"context"
	"time"

	ordersmemory "github.com/northmart/go-order-processing/internal/domains/orders/adapters/memory"
	ordersdomain "github.com/northmart/go-order-processing/internal/domains/orders/domain"
	ordersports "github.com/northmart/go-order-processing/internal/domains/orders/ports"
	"github.com/northmart/go-order-processing/internal/domains/rollup/domain"
	"github.com/northmart/go-order-processing/internal/domains/rollup/ports"
)

var _ ports.SalesSource = (*SalesSource)(nil)

// SalesSource denormalizes sold lines from the in-memory order store,
// labeling categories through the catalog, for the no-database fallback mode.
type SalesSource struct {
	orders  *ordersmemory.Repository
	catalog ordersports.ProductCatalog
}

func NewSalesSource(orders *ordersmemory.Repository, catalog ordersports.ProductCatalog) *SalesSource {
	return &SalesSource{orders: orders, catalog: catalog}
}

func (s *SalesSource) SoldLines(ctx context.Context, from, to time.Time) ([]domain.SoldLine, error) {
	orders, err := s.orders.ListByTimeRange(ctx, ordersports.TimeRange{From: from, To: to})
	if err != nil {
		return nil, err
	}
	var lines []domain.SoldLine
	for _, order := range orders {
		if order.Status == ordersdomain.StatusCancelled || order.Status == ordersdomain.StatusReturned {
			continue
		}
		for _, item := range order.Items {
			line := domain.SoldLine{
				OrderID:   order.ID,
				UserID:    order.UserID,
				PlacedAt:  order.CreatedAt,
				Quantity:  item.Quantity,
				LineTotal: item.LineTotal(),
			}
			if product, err := s.catalog.Lookup(ctx, item.ProductID); err == nil {
				line.CategoryID = product.CategoryID
				line.CategoryName = product.CategoryName
			}
			lines = append(lines, line)
		}
	}
	return lines, nil
}
