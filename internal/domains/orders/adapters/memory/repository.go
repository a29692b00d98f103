package memory

import (
	"context"
	"sync"
	"time"

	"github.com/northmart/go-order-processing/internal/domains/orders/domain"
	"github.com/northmart/go-order-processing/internal/domains/orders/ports"
)

var (
	_ ports.OrderReader = (*Repository)(nil)
	_ ports.OrderWriter = (*Repository)(nil)
)

// Repository is an in-memory order store. It backs the unit tests and the
// no-database fallback mode; the mutex stands in for row locks.
type Repository struct {
	mu        sync.Mutex
	orders    map[int64]*domain.Order
	nextOrder int64
	nextItem  int64
}

func NewRepository() *Repository {
	return &Repository{orders: map[int64]*domain.Order{}}
}

func (r *Repository) Insert(_ context.Context, order *domain.Order) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := cloneOrder(order)
	r.nextOrder++
	clone.ID = r.nextOrder
	for i := range clone.Items {
		r.nextItem++
		clone.Items[i].ID = r.nextItem
		clone.Items[i].OrderID = clone.ID
	}
	r.orders[clone.ID] = clone
	return cloneOrder(clone), nil
}

func (r *Repository) LockByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

func (r *Repository) UpdateStatus(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if !ok {
		return ports.ErrOrderNotFound
	}
	stored.Status = order.Status
	stored.CancelReason = order.CancelReason
	stored.CancelledBy = order.CancelledBy
	stored.CancelledAt = order.CancelledAt
	stored.UpdatedAt = order.UpdatedAt
	return nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

func (r *Repository) ListByUser(_ context.Context, userID int64, window ports.TimeRange) ([]*domain.Order, error) {
	return r.list(func(o *domain.Order) bool {
		return o.UserID == userID && inRange(o.CreatedAt, window)
	})
}

func (r *Repository) ListByStatus(_ context.Context, statuses []domain.Status, window ports.TimeRange) ([]*domain.Order, error) {
	return r.list(func(o *domain.Order) bool {
		for _, status := range statuses {
			if o.Status == status {
				return inRange(o.CreatedAt, window)
			}
		}
		return false
	})
}

func (r *Repository) ListByTimeRange(_ context.Context, window ports.TimeRange) ([]*domain.Order, error) {
	return r.list(func(o *domain.Order) bool {
		return inRange(o.CreatedAt, window)
	})
}

func (r *Repository) list(keep func(*domain.Order) bool) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var orders []*domain.Order
	for _, order := range r.orders {
		if keep(order) {
			orders = append(orders, cloneOrder(order))
		}
	}
	return orders, nil
}

// Snapshot captures the full store so the unit of work can roll back.
type Snapshot struct {
	orders    map[int64]*domain.Order
	nextOrder int64
	nextItem  int64
}

func (r *Repository) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := Snapshot{orders: make(map[int64]*domain.Order, len(r.orders)), nextOrder: r.nextOrder, nextItem: r.nextItem}
	for id, order := range r.orders {
		snap.orders[id] = cloneOrder(order)
	}
	return snap
}

func (r *Repository) RestoreSnapshot(snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = make(map[int64]*domain.Order, len(snap.orders))
	for id, order := range snap.orders {
		r.orders[id] = cloneOrder(order)
	}
	r.nextOrder = snap.nextOrder
	r.nextItem = snap.nextItem
}

func inRange(t time.Time, window ports.TimeRange) bool {
	if !window.From.IsZero() && t.Before(window.From) {
		return false
	}
	if !window.To.IsZero() && !t.Before(window.To) {
		return false
	}
	return true
}

func cloneOrder(order *domain.Order) *domain.Order {
	clone := *order
	clone.Items = make([]domain.Item, len(order.Items))
	copy(clone.Items, order.Items)
	if order.CancelledAt != nil {
		at := *order.CancelledAt
		clone.CancelledAt = &at
	}
	if order.CancelledBy != nil {
		by := *order.CancelledBy
		clone.CancelledBy = &by
	}
	return &clone
}
