package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/northmart/go-order-processing/internal/domains/orders/domain"
)

// OrderLine is one requested line with its price snapshot. Pricing decisions
// happen upstream; this module records them.
type OrderLine struct {
	ProductID int64
	Quantity  int64
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
}

// CreateOrderCommand places a multi-item order. Creation is not idempotent;
// submission deduplication is the caller's concern.
type CreateOrderCommand struct {
	UserID        int64
	Items         []OrderLine
	Shipping      domain.ShippingAddress
	PaymentMethod string
}

// CancelOrderCommand cancels an order and compensates its stock.
type CancelOrderCommand struct {
	OrderID     int64
	Reason      string
	CancelledBy *int64
}

// Service exposes the order use cases.
type Service interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
	CancelOrder(ctx context.Context, cmd CancelOrderCommand) (*domain.Order, error)
	AdvanceStatus(ctx context.Context, orderID int64, next domain.Status) (*domain.Order, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListByUser(ctx context.Context, userID int64, window TimeRange) ([]*domain.Order, error)
	ListByStatus(ctx context.Context, statuses []domain.Status, window TimeRange) ([]*domain.Order, error)
	ListByTimeRange(ctx context.Context, window TimeRange) ([]*domain.Order, error)
}
