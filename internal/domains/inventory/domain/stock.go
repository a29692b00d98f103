package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrNegativeQuantity  = errors.New("quantity must not be negative")
	ErrVersionConflict   = errors.New("stock version conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// VersionConflictError reports that the observed version no longer matches the
// stored one. CurrentVersion lets the caller re-issue the command without an
// extra read.
type VersionConflictError struct {
	ProductID       int64
	ExpectedVersion int64
	CurrentVersion  int64
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("product %d: expected version %d, found %d", e.ProductID, e.ExpectedVersion, e.CurrentVersion)
}

func (e *VersionConflictError) Unwrap() error { return ErrVersionConflict }

// InsufficientStockError reports that the requested quantity exceeds what is
// available.
type InsufficientStockError struct {
	ProductID int64
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("product %d: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// StockLevel is the per-product stock aggregate: the available quantity plus
// the version counter guarding optimistic mutations. Available never goes
// negative and Version grows by exactly one per successful mutation.
type StockLevel struct {
	ProductID int64
	Available int64
	Version   int64
}

// Decrement removes quantity units if the caller's observed version still
// matches and enough stock remains. The version check runs before the stock
// check so a stale caller always learns about the conflict first.
func (s *StockLevel) Decrement(quantity, expectedVersion int64) (*LedgerEntry, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if s.Version != expectedVersion {
		return nil, &VersionConflictError{ProductID: s.ProductID, ExpectedVersion: expectedVersion, CurrentVersion: s.Version}
	}
	if s.Available < quantity {
		return nil, &InsufficientStockError{ProductID: s.ProductID, Requested: quantity, Available: s.Available}
	}
	return s.apply(-quantity, MovementOutbound), nil
}

// Restore adds quantity units back without any version check. Restores are
// additive and commute with concurrent sales, so rejecting one on a version
// mismatch would only lose the compensation.
func (s *StockLevel) Restore(quantity int64) (*LedgerEntry, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	return s.apply(quantity, MovementReturn), nil
}

// Receive books an inbound stock arrival.
func (s *StockLevel) Receive(quantity int64) (*LedgerEntry, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	return s.apply(quantity, MovementInbound), nil
}

// Adjust sets the available quantity to an absolute value under the same
// optimistic version check as Decrement, so a manual correction cannot race a
// concurrent sale unnoticed.
func (s *StockLevel) Adjust(newQuantity, expectedVersion int64) (*LedgerEntry, error) {
	if newQuantity < 0 {
		return nil, ErrNegativeQuantity
	}
	if s.Version != expectedVersion {
		return nil, &VersionConflictError{ProductID: s.ProductID, ExpectedVersion: expectedVersion, CurrentVersion: s.Version}
	}
	entry := s.apply(newQuantity-s.Available, MovementAdjustment)
	return entry, nil
}

func (s *StockLevel) apply(delta int64, kind MovementKind) *LedgerEntry {
	before := s.Available
	s.Available += delta
	s.Version++
	return &LedgerEntry{
		ProductID:      s.ProductID,
		QuantityBefore: before,
		QuantityAfter:  s.Available,
		Kind:           kind,
	}
}
