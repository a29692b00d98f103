package memory

import (
	"context"
	"sync"

	inventorymemory "github.com/northmart/go-order-processing/internal/domains/inventory/adapters/memory"
	inventoryapp "github.com/northmart/go-order-processing/internal/domains/inventory/application"
	inventoryports "github.com/northmart/go-order-processing/internal/domains/inventory/ports"
	"github.com/northmart/go-order-processing/internal/domains/orders/ports"
)

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWork gives the memory adapters real transaction semantics: both
// stores are snapshotted before fn runs and restored when fn fails, so a
// failed order creation leaves no order rows and no stock mutations behind,
// same as the SQL rollback. Units serialize on one mutex, which is fine for
// tests and the no-database fallback mode.
type UnitOfWork struct {
	mu     sync.Mutex
	orders *Repository
	stock  *inventorymemory.Repository
}

func NewUnitOfWork(orders *Repository, stock *inventorymemory.Repository) *UnitOfWork {
	return &UnitOfWork{orders: orders, stock: stock}
}

func (u *UnitOfWork) WithinTx(_ context.Context, fn func(scope ports.TxScope) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	orderSnap := u.orders.Snapshot()
	stockSnap := u.stock.Snapshot()
	scope := &txScope{orders: u.orders, stock: inventoryapp.NewService(u.stock)}
	if err := fn(scope); err != nil {
		u.orders.RestoreSnapshot(orderSnap)
		u.stock.RestoreSnapshot(stockSnap)
		return err
	}
	return nil
}

type txScope struct {
	orders *Repository
	stock  inventoryports.Controller
}

func (s *txScope) Orders() ports.OrderWriter        { return s.orders }
func (s *txScope) Stock() inventoryports.Controller { return s.stock }
