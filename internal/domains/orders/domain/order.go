package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates order progression.
type Status string

const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusReturned   Status = "returned"
)

var (
	ErrInvalidUserID          = errors.New("user id must be greater than zero")
	ErrInvalidProductID       = errors.New("product id must be greater than zero")
	ErrInvalidQuantity        = errors.New("quantity must be greater than zero")
	ErrNoItems                = errors.New("order needs at least one item")
	ErrDuplicateProduct       = errors.New("order lists a product more than once")
	ErrNegativePrice          = errors.New("unit price must not be negative")
	ErrInvalidDiscount        = errors.New("discount must be between zero and the line gross")
	ErrInvalidStatus          = errors.New("order status is invalid")
	ErrInvalidStateTransition = errors.New("order status transition not allowed")
)

// StateTransitionError reports a refused status change, carrying the state the
// order was actually in.
type StateTransitionError struct {
	OrderID int64
	From    Status
	To      Status
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("order %d: cannot move from %s to %s", e.OrderID, e.From, e.To)
}

func (e *StateTransitionError) Unwrap() error { return ErrInvalidStateTransition }

// transitions lists the legal forward moves. Cancellation is absent on
// purpose: it restores stock, so it only happens through the cancellation
// flow, never through a plain status update.
var transitions = map[Status][]Status{
	StatusPending:    {StatusApproved},
	StatusApproved:   {StatusProcessing},
	StatusProcessing: {StatusShipped},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {StatusReturned},
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusPending, StatusApproved, StatusProcessing, StatusShipped,
		StatusDelivered, StatusCancelled, StatusReturned:
		return true
	default:
		return false
	}
}

// ShippingAddress is the destination snapshot captured at purchase time.
type ShippingAddress struct {
	Recipient  string
	Line1      string
	Line2      string
	City       string
	Region     string
	PostalCode string
	Country    string
}

// Item is one order line. UnitPrice and Discount are snapshots taken when the
// order was placed and never change afterwards, whatever the catalog does.
type Item struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int64
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
}

// LineTotal is quantity times unit price minus the line discount.
func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity)).Sub(i.Discount)
}

// Validate enforces the line invariants.
func (i Item) Validate() error {
	if i.ProductID <= 0 {
		return ErrInvalidProductID
	}
	if i.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if i.UnitPrice.IsNegative() {
		return ErrNegativePrice
	}
	gross := i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
	if i.Discount.IsNegative() || i.Discount.GreaterThan(gross) {
		return ErrInvalidDiscount
	}
	return nil
}

// Order models the purchase order aggregate.
type Order struct {
	ID            int64
	UserID        int64
	Status        Status
	Items         []Item
	Total         decimal.Decimal
	Shipping      ShippingAddress
	PaymentMethod string
	CancelReason  string
	CancelledBy   *int64
	CancelledAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewOrder validates and constructs a pending order. Items come out sorted by
// ascending product id; every later multi-product walk relies on that order.
func NewOrder(userID int64, items []Item, shipping ShippingAddress, paymentMethod string) (*Order, error) {
	if userID <= 0 {
		return nil, ErrInvalidUserID
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	seen := make(map[int64]struct{}, len(items))
	sorted := make([]Item, len(items))
	copy(sorted, items)
	for _, item := range sorted {
		if err := item.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[item.ProductID]; dup {
			return nil, ErrDuplicateProduct
		}
		seen[item.ProductID] = struct{}{}
	}
	SortItemsByProduct(sorted)
	order := &Order{
		UserID:        userID,
		Status:        StatusPending,
		Items:         sorted,
		Shipping:      shipping,
		PaymentMethod: paymentMethod,
	}
	order.Total = order.ComputeTotal()
	return order, nil
}

// ComputeTotal sums the line totals.
func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Cancellable reports whether the order can still be compensated. Shipped and
// later states carry physical side effects the stock restore cannot undo.
func (o *Order) Cancellable() bool {
	switch o.Status {
	case StatusPending, StatusApproved, StatusProcessing:
		return true
	default:
		return false
	}
}

// MarkCancelled moves the order to cancelled, recording who and why.
func (o *Order) MarkCancelled(reason string, by *int64, at time.Time) error {
	if !o.Cancellable() {
		return &StateTransitionError{OrderID: o.ID, From: o.Status, To: StatusCancelled}
	}
	o.Status = StatusCancelled
	o.CancelReason = reason
	o.CancelledBy = by
	cancelledAt := at
	o.CancelledAt = &cancelledAt
	return nil
}

// Advance moves the order one step along the fulfillment chain.
func (o *Order) Advance(next Status) error {
	if !isValidStatus(next) {
		return ErrInvalidStatus
	}
	for _, allowed := range transitions[o.Status] {
		if allowed == next {
			o.Status = next
			return nil
		}
	}
	return &StateTransitionError{OrderID: o.ID, From: o.Status, To: next}
}

// SortItemsByProduct orders items by ascending product id, the fixed
// acquisition order for every per-product stock walk.
func SortItemsByProduct(items []Item) {
	sort.Slice(items, func(a, b int) bool {
		return items[a].ProductID < items[b].ProductID
	})
}
