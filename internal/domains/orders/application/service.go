package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	inventoryports "github.com/northmart/go-order-processing/internal/domains/inventory/ports"
	"github.com/northmart/go-order-processing/internal/domains/orders/domain"
	"github.com/northmart/go-order-processing/internal/domains/orders/ports"
)

// Service orchestrates order creation, cancellation, and fulfillment
// progression over the stock controller and the order store.
type Service struct {
	uow      ports.UnitOfWork
	reader   ports.OrderReader
	stock    inventoryports.Controller
	segments ports.SegmentEnsurer
	users    ports.UserDirectory
	catalog  ports.ProductCatalog
}

func NewService(
	uow ports.UnitOfWork,
	reader ports.OrderReader,
	stock inventoryports.Controller,
	segments ports.SegmentEnsurer,
	users ports.UserDirectory,
	catalog ports.ProductCatalog,
) *Service {
	return &Service{
		uow:      uow,
		reader:   reader,
		stock:    stock,
		segments: segments,
		users:    users,
		catalog:  catalog,
	}
}

// CreateOrder places a multi-item order in two phases. Phase one checks the
// user, the catalog, and stock levels without taking any lock, walking lines
// in ascending product id and rejecting on the first miss. Phase two runs in
// one atomic unit: the pending order and its lines are inserted, then stock
// is claimed line by line in the same ascending order; any failed claim rolls
// the whole order back. Either the order exists with all its stock claimed, or
// nothing exists at all.
func (s *Service) CreateOrder(ctx context.Context, cmd ports.CreateOrderCommand) (*domain.Order, error) {
	order, err := domain.NewOrder(cmd.UserID, toItems(cmd.Items), cmd.Shipping, cmd.PaymentMethod)
	if err != nil {
		return nil, mapError(err)
	}

	user, err := s.users.Lookup(ctx, cmd.UserID)
	if err != nil {
		if errors.Is(err, ports.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: user %d not found", ErrInvalidInput, cmd.UserID)
		}
		return nil, err
	}
	if !user.Active {
		return nil, fmt.Errorf("%w: user %d is not active", ErrInvalidInput, cmd.UserID)
	}

	for i := range order.Items {
		if err := s.checkLine(ctx, &order.Items[i]); err != nil {
			return nil, err
		}
	}

	// The creation instant decides the storage segment, so it is fixed here
	// and the segment is provisioned before the atomic unit opens: schema
	// changes do not belong inside the order transaction.
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now
	if err := s.segments.EnsureSegment(ctx, domain.WindowFor(now)); err != nil {
		return nil, err
	}

	var created *domain.Order
	err = s.uow.WithinTx(ctx, func(scope ports.TxScope) error {
		inserted, err := scope.Orders().Insert(ctx, order)
		if err != nil {
			return err
		}
		domain.SortItemsByProduct(inserted.Items)
		for i := range inserted.Items {
			item := &inserted.Items[i]
			level, err := scope.Stock().Level(ctx, item.ProductID)
			if err != nil {
				return &CreationFailedError{ProductID: item.ProductID, Err: err}
			}
			_, err = scope.Stock().AttemptDecrement(ctx, inventoryports.DecrementCommand{
				ProductID:       item.ProductID,
				Quantity:        item.Quantity,
				ExpectedVersion: level.Version,
				OrderID:         &inserted.ID,
				UserID:          &inserted.UserID,
			})
			if err != nil {
				return &CreationFailedError{ProductID: item.ProductID, Err: err}
			}
		}
		created = inserted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CancelOrder compensates an order: under the order's lock it verifies the
// state still allows cancellation, restores stock line by line in ascending
// product id, and records the cancellation. Restores carry no version check;
// they must succeed regardless of sales since the decrement.
func (s *Service) CancelOrder(ctx context.Context, cmd ports.CancelOrderCommand) (*domain.Order, error) {
	if cmd.OrderID <= 0 {
		return nil, fmt.Errorf("%w: order id must be greater than zero", ErrInvalidInput)
	}
	var cancelled *domain.Order
	err := s.uow.WithinTx(ctx, func(scope ports.TxScope) error {
		order, err := scope.Orders().LockByID(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if err := order.MarkCancelled(cmd.Reason, cmd.CancelledBy, time.Now().UTC()); err != nil {
			return err
		}
		domain.SortItemsByProduct(order.Items)
		for _, item := range order.Items {
			_, err := scope.Stock().Restore(ctx, inventoryports.RestoreCommand{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				OrderID:   &order.ID,
				UserID:    cmd.CancelledBy,
			})
			if err != nil {
				return err
			}
		}
		if err := scope.Orders().UpdateStatus(ctx, order); err != nil {
			return err
		}
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// AdvanceStatus moves an order one step along the fulfillment chain.
// Cancellation is not reachable here; it has stock effects and goes through
// CancelOrder.
func (s *Service) AdvanceStatus(ctx context.Context, orderID int64, next domain.Status) (*domain.Order, error) {
	if orderID <= 0 {
		return nil, fmt.Errorf("%w: order id must be greater than zero", ErrInvalidInput)
	}
	var advanced *domain.Order
	err := s.uow.WithinTx(ctx, func(scope ports.TxScope) error {
		order, err := scope.Orders().LockByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := order.Advance(next); err != nil {
			return mapError(err)
		}
		order.UpdatedAt = time.Now().UTC()
		if err := scope.Orders().UpdateStatus(ctx, order); err != nil {
			return err
		}
		advanced = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return advanced, nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: order id must be greater than zero", ErrInvalidInput)
	}
	return s.reader.GetByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID int64, window ports.TimeRange) ([]*domain.Order, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id must be greater than zero", ErrInvalidInput)
	}
	return s.reader.ListByUser(ctx, userID, window)
}

func (s *Service) ListByStatus(ctx context.Context, statuses []domain.Status, window ports.TimeRange) ([]*domain.Order, error) {
	if len(statuses) == 0 {
		return nil, fmt.Errorf("%w: at least one status is required", ErrInvalidInput)
	}
	return s.reader.ListByStatus(ctx, statuses, window)
}

func (s *Service) ListByTimeRange(ctx context.Context, window ports.TimeRange) ([]*domain.Order, error) {
	return s.reader.ListByTimeRange(ctx, window)
}

// checkLine runs the lock-free preliminary checks for one line: the product
// must be offered and the observed stock must cover the quantity. A pass here
// is advisory only; the atomic unit re-checks under the row lock.
func (s *Service) checkLine(ctx context.Context, item *domain.Item) error {
	product, err := s.catalog.Lookup(ctx, item.ProductID)
	if err != nil {
		if errors.Is(err, ports.ErrProductNotFound) {
			return &ProductUnavailableError{ProductID: item.ProductID, Reason: "not in catalog"}
		}
		return err
	}
	if !product.Active {
		return &ProductUnavailableError{ProductID: item.ProductID, Reason: "inactive"}
	}
	level, err := s.stock.Level(ctx, item.ProductID)
	if err != nil {
		if errors.Is(err, inventoryports.ErrProductNotFound) {
			return &ProductUnavailableError{ProductID: item.ProductID, Reason: "no stock record"}
		}
		return err
	}
	if level.Available < item.Quantity {
		return &StockShortError{ProductID: item.ProductID, Requested: item.Quantity, Available: level.Available}
	}
	return nil
}

func toItems(lines []ports.OrderLine) []domain.Item {
	items := make([]domain.Item, 0, len(lines))
	for _, line := range lines {
		items = append(items, domain.Item{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Discount:  line.Discount,
		})
	}
	return items
}

var _ ports.Service = (*Service)(nil)
