package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecrement_HappyPath(t *testing.T) {
	level := &StockLevel{ProductID: 7, Available: 10, Version: 1}

	entry, err := level.Decrement(4, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(6), level.Available)
	assert.Equal(t, int64(2), level.Version)
	assert.Equal(t, int64(10), entry.QuantityBefore)
	assert.Equal(t, int64(6), entry.QuantityAfter)
	assert.Equal(t, MovementOutbound, entry.Kind)
	assert.Equal(t, int64(-4), entry.Delta())
}

func TestDecrement_VersionConflictCarriesCurrent(t *testing.T) {
	level := &StockLevel{ProductID: 7, Available: 10, Version: 3}

	_, err := level.Decrement(1, 1)
	require.ErrorIs(t, err, ErrVersionConflict)

	var conflict *VersionConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, int64(7), conflict.ProductID)
	assert.Equal(t, int64(1), conflict.ExpectedVersion)
	assert.Equal(t, int64(3), conflict.CurrentVersion)

	assert.Equal(t, int64(10), level.Available)
	assert.Equal(t, int64(3), level.Version)
}

func TestDecrement_InsufficientStock(t *testing.T) {
	level := &StockLevel{ProductID: 7, Available: 2, Version: 1}

	_, err := level.Decrement(3, 1)
	require.ErrorIs(t, err, ErrInsufficientStock)

	var short *InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, int64(3), short.Requested)
	assert.Equal(t, int64(2), short.Available)

	assert.Equal(t, int64(2), level.Available)
	assert.Equal(t, int64(1), level.Version)
}

func TestDecrement_ConflictCheckedBeforeStock(t *testing.T) {
	level := &StockLevel{ProductID: 7, Available: 0, Version: 5}

	_, err := level.Decrement(1, 2)
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.NotErrorIs(t, err, ErrInsufficientStock)
}

func TestDecrement_ExactRemainingStock(t *testing.T) {
	level := &StockLevel{ProductID: 7, Available: 3, Version: 1}

	_, err := level.Decrement(3, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), level.Available)
}

func TestDecrement_InvalidQuantity(t *testing.T) {
	level := &StockLevel{ProductID: 7, Available: 3, Version: 1}

	_, err := level.Decrement(0, 1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = level.Decrement(-2, 1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, int64(1), level.Version)
}

func TestRestore_IgnoresVersion(t *testing.T) {
	level := &StockLevel{ProductID: 7, Available: 1, Version: 9}

	entry, err := level.Restore(4)
	require.NoError(t, err)
	assert.Equal(t, int64(5), level.Available)
	assert.Equal(t, int64(10), level.Version)
	assert.Equal(t, MovementReturn, entry.Kind)
	assert.Equal(t, int64(4), entry.Delta())
}

func TestReceive_AddsStock(t *testing.T) {
	level := &StockLevel{ProductID: 7, Available: 0, Version: 1}

	entry, err := level.Receive(25)
	require.NoError(t, err)
	assert.Equal(t, int64(25), level.Available)
	assert.Equal(t, int64(2), level.Version)
	assert.Equal(t, MovementInbound, entry.Kind)
}

func TestAdjust_SetsAbsoluteQuantity(t *testing.T) {
	level := &StockLevel{ProductID: 7, Available: 12, Version: 2}

	entry, err := level.Adjust(9, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(9), level.Available)
	assert.Equal(t, int64(3), level.Version)
	assert.Equal(t, MovementAdjustment, entry.Kind)
	assert.Equal(t, int64(-3), entry.Delta())
}

func TestAdjust_VersionConflict(t *testing.T) {
	level := &StockLevel{ProductID: 7, Available: 12, Version: 2}

	_, err := level.Adjust(9, 1)
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, int64(12), level.Available)
}

func TestAdjust_RejectsNegativeTarget(t *testing.T) {
	level := &StockLevel{ProductID: 7, Available: 12, Version: 2}

	_, err := level.Adjust(-1, 2)
	assert.ErrorIs(t, err, ErrNegativeQuantity)
}

func TestVersionGrowsByOnePerMutation(t *testing.T) {
	level := &StockLevel{ProductID: 7, Available: 0, Version: 1}

	_, err := level.Receive(10)
	require.NoError(t, err)
	_, err = level.Decrement(3, 2)
	require.NoError(t, err)
	_, err = level.Restore(3)
	require.NoError(t, err)
	_, err = level.Adjust(5, 4)
	require.NoError(t, err)

	assert.Equal(t, int64(5), level.Version)
}
