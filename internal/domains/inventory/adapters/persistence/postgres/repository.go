package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/northmart/go-order-processing/internal/domains/inventory/domain"
	"github.com/northmart/go-order-processing/internal/domains/inventory/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists stock levels and the movement ledger in PostgreSQL.
// Schema is owned by platform/migrations. The db handle may be a transaction:
// when it is, MutateUnderLock nests via a savepoint so the caller's atomic
// unit stays intact.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// productRecord maps the catalog row. Only stock and version are ever written
// here; the remaining columns are owned by the catalog feed.
type productRecord struct {
	ID           int64           `gorm:"primaryKey;column:id"`
	Name         string          `gorm:"column:name"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	CategoryID   *int64          `gorm:"column:category_id;index"`
	CategoryName string          `gorm:"column:category_name"`
	Active       bool            `gorm:"column:active"`
	Stock        int64           `gorm:"column:stock"`
	Version      int64           `gorm:"column:version;default:1"`
	CreatedAt    time.Time       `gorm:"column:created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

type stockHistoryRecord struct {
	ID             int64     `gorm:"primaryKey;autoIncrement;column:id"`
	ProductID      int64     `gorm:"column:product_id;index:idx_stock_history_product_recorded"`
	QuantityBefore int64     `gorm:"column:quantity_before"`
	QuantityAfter  int64     `gorm:"column:quantity_after"`
	Kind           string    `gorm:"column:kind;type:varchar(16);index"`
	OrderID        *int64    `gorm:"column:order_id;index"`
	UserID         *int64    `gorm:"column:user_id"`
	RecordedAt     time.Time `gorm:"column:recorded_at;index:idx_stock_history_product_recorded"`
}

func (stockHistoryRecord) TableName() string { return "stock_history" }

// Level reads the current (stock, version) pair without locking.
func (r *Repository) Level(ctx context.Context, productID int64) (*domain.StockLevel, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record productRecord
	if err := r.db.WithContext(ctx).Select("id", "stock", "version").First(&record, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrProductNotFound
		}
		return nil, err
	}
	return &domain.StockLevel{ProductID: record.ID, Available: record.Stock, Version: record.Version}, nil
}

// MutateUnderLock fetches the product row with SELECT ... FOR UPDATE, applies
// fn, and persists the new level plus the ledger entry in one transaction.
// gorm turns the inner Transaction into a savepoint when r.db already is one.
func (r *Repository) MutateUnderLock(ctx context.Context, productID int64, fn ports.MutateFunc) (*domain.StockLevel, *domain.LedgerEntry, error) {
	if err := r.ensureDB(); err != nil {
		return nil, nil, err
	}
	var (
		level *domain.StockLevel
		entry *domain.LedgerEntry
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record productRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&record, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ports.ErrProductNotFound
			}
			return err
		}
		working := &domain.StockLevel{ProductID: record.ID, Available: record.Stock, Version: record.Version}
		produced, err := fn(working)
		if err != nil {
			return err
		}
		if err := tx.Model(&productRecord{}).Where("id = ?", productID).Updates(map[string]any{
			"stock":      working.Available,
			"version":    working.Version,
			"updated_at": gorm.Expr("NOW()"),
		}).Error; err != nil {
			return err
		}
		history := stockHistoryRecord{
			ProductID:      produced.ProductID,
			QuantityBefore: produced.QuantityBefore,
			QuantityAfter:  produced.QuantityAfter,
			Kind:           string(produced.Kind),
			OrderID:        produced.OrderID,
			UserID:         produced.UserID,
			RecordedAt:     time.Now().UTC(),
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}
		produced.ID = history.ID
		produced.RecordedAt = history.RecordedAt
		level, entry = working, produced
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return level, entry, nil
}

// History reads ledger entries, newest first.
func (r *Repository) History(ctx context.Context, query ports.HistoryQuery) ([]*domain.LedgerEntry, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	q := r.db.WithContext(ctx).Model(&stockHistoryRecord{}).Where("product_id = ?", query.ProductID)
	if len(query.Kinds) > 0 {
		kinds := make([]string, 0, len(query.Kinds))
		for _, kind := range query.Kinds {
			kinds = append(kinds, string(kind))
		}
		q = q.Where("kind = ANY(?)", pq.Array(kinds))
	}
	if !query.From.IsZero() {
		q = q.Where("recorded_at >= ?", query.From)
	}
	if !query.To.IsZero() {
		q = q.Where("recorded_at < ?", query.To)
	}
	q = q.Order("recorded_at DESC, id DESC")
	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}
	var records []stockHistoryRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	entries := make([]*domain.LedgerEntry, 0, len(records))
	for i := range records {
		entries = append(entries, records[i].toDomain())
	}
	return entries, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres stock repository not configured")
	}
	return nil
}

func (rec stockHistoryRecord) toDomain() *domain.LedgerEntry {
	return &domain.LedgerEntry{
		ID:             rec.ID,
		ProductID:      rec.ProductID,
		QuantityBefore: rec.QuantityBefore,
		QuantityAfter:  rec.QuantityAfter,
		Kind:           domain.MovementKind(rec.Kind),
		OrderID:        rec.OrderID,
		UserID:         rec.UserID,
		RecordedAt:     rec.RecordedAt,
	}
}
