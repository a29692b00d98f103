package application

import (
	"errors"
	"fmt"

	"github.com/northmart/go-order-processing/internal/domains/inventory/domain"
)

var (
	// ErrInvalidInput signals the command violated a stock invariant.
	ErrInvalidInput = errors.New("invalid stock command")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidQuantity) || errors.Is(err, domain.ErrNegativeQuantity) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
