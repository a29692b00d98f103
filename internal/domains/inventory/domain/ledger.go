package domain

import "time"

// MovementKind classifies a stock ledger entry.
type MovementKind string

const (
	MovementInbound    MovementKind = "inbound"
	MovementOutbound   MovementKind = "outbound"
	MovementAdjustment MovementKind = "adjustment"
	MovementReturn     MovementKind = "return"
)

// Valid reports whether the kind is one of the known movement kinds.
func (k MovementKind) Valid() bool {
	switch k {
	case MovementInbound, MovementOutbound, MovementAdjustment, MovementReturn:
		return true
	default:
		return false
	}
}

// LedgerEntry records one stock movement. Entries are append-only: they are
// never updated or deleted once persisted.
type LedgerEntry struct {
	ID             int64
	ProductID      int64
	QuantityBefore int64
	QuantityAfter  int64
	Kind           MovementKind
	OrderID        *int64
	UserID         *int64
	RecordedAt     time.Time
}

// Delta returns the signed stock change the entry represents.
func (e *LedgerEntry) Delta() int64 {
	return e.QuantityAfter - e.QuantityBefore
}
