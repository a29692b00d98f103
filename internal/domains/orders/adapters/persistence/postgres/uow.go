package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	inventorypostgres "github.com/northmart/go-order-processing/internal/domains/inventory/adapters/persistence/postgres"
	inventoryapp "github.com/northmart/go-order-processing/internal/domains/inventory/application"
	inventoryports "github.com/northmart/go-order-processing/internal/domains/inventory/ports"
	"github.com/northmart/go-order-processing/internal/domains/orders/ports"
)

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWork wraps fn in one database transaction. The scope's order writer
// and stock controller share that transaction, so a failed stock claim rolls
// back the order and item rows written before it; the stock controller's own
// per-product lock step nests as a savepoint inside it.
type UnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(scope ports.TxScope) error) error {
	if u == nil || u.db == nil {
		return errors.New("postgres unit of work not configured")
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txScope{
			orders: NewRepository(tx),
			stock:  inventoryapp.NewService(inventorypostgres.NewRepository(tx)),
		})
	})
}

type txScope struct {
	orders *Repository
	stock  inventoryports.Controller
}

func (s *txScope) Orders() ports.OrderWriter        { return s.orders }
func (s *txScope) Stock() inventoryports.Controller { return s.stock }
