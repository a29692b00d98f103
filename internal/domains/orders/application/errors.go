package application

import (
	"errors"
	"fmt"

	"github.com/northmart/go-order-processing/internal/domains/orders/domain"
)

var (
	// ErrInvalidInput signals the command violated an order invariant or
	// references a party that cannot transact.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrProductUnavailable signals a line references a product the catalog
	// does not offer.
	ErrProductUnavailable = errors.New("product unavailable")
	// ErrStockShort signals the preliminary availability check found too
	// little stock, before any lock was taken.
	ErrStockShort = errors.New("insufficient stock for order")
	// ErrCreationFailed wraps a failure inside the atomic creation unit.
	// Everything written for the order has been rolled back.
	ErrCreationFailed = errors.New("order creation failed")
)

// ProductUnavailableError names the line that cannot be fulfilled.
type ProductUnavailableError struct {
	ProductID int64
	Reason    string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %d unavailable: %s", e.ProductID, e.Reason)
}

func (e *ProductUnavailableError) Unwrap() error { return ErrProductUnavailable }

// StockShortError reports the first line the preliminary check rejected.
type StockShortError struct {
	ProductID int64
	Requested int64
	Available int64
}

func (e *StockShortError) Error() string {
	return fmt.Sprintf("product %d: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *StockShortError) Unwrap() error { return ErrStockShort }

// CreationFailedError names the line whose stock claim failed and carries the
// cause, so callers can distinguish a version conflict from a shortage.
type CreationFailedError struct {
	ProductID int64
	Err       error
}

func (e *CreationFailedError) Error() string {
	return fmt.Sprintf("order creation failed at product %d: %v", e.ProductID, e.Err)
}

func (e *CreationFailedError) Unwrap() []error { return []error{ErrCreationFailed, e.Err} }

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidUserID) ||
		errors.Is(err, domain.ErrInvalidProductID) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrNoItems) ||
		errors.Is(err, domain.ErrDuplicateProduct) ||
		errors.Is(err, domain.ErrNegativePrice) ||
		errors.Is(err, domain.ErrInvalidDiscount) ||
		errors.Is(err, domain.ErrInvalidStatus) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
