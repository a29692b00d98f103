package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/northmart/go-order-processing/internal/domains/orders/domain"
	"github.com/northmart/go-order-processing/internal/domains/orders/ports"
)

var (
	_ ports.OrderReader = (*Repository)(nil)
	_ ports.OrderWriter = (*Repository)(nil)
)

// Repository persists orders in PostgreSQL. Both tables are range-partitioned
// by creation time (platform/migrations owns the parents, the SegmentEnsurer
// the monthly segments), so every write and key lookup carries created_at.
// The db handle may be a transaction; the unit of work hands out repositories
// bound to one.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type orderRecord struct {
	ID             int64           `gorm:"primaryKey;autoIncrement;column:id"`
	UserID         int64           `gorm:"column:user_id;index"`
	Status         string          `gorm:"column:status;type:varchar(32);index"`
	Total          decimal.Decimal `gorm:"column:total;type:numeric(14,2)"`
	ShipRecipient  string          `gorm:"column:ship_recipient"`
	ShipLine1      string          `gorm:"column:ship_line1"`
	ShipLine2      string          `gorm:"column:ship_line2"`
	ShipCity       string          `gorm:"column:ship_city"`
	ShipRegion     string          `gorm:"column:ship_region"`
	ShipPostalCode string          `gorm:"column:ship_postal_code"`
	ShipCountry    string          `gorm:"column:ship_country"`
	PaymentMethod  string          `gorm:"column:payment_method"`
	CancelReason   string          `gorm:"column:cancel_reason"`
	CancelledBy    *int64          `gorm:"column:cancelled_by"`
	CancelledAt    *time.Time      `gorm:"column:cancelled_at"`
	CreatedAt      time.Time       `gorm:"primaryKey;column:created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

type orderItemRecord struct {
	ID             int64           `gorm:"primaryKey;autoIncrement;column:id"`
	OrderID        int64           `gorm:"column:order_id;index"`
	OrderCreatedAt time.Time       `gorm:"primaryKey;column:order_created_at"`
	ProductID      int64           `gorm:"column:product_id;index"`
	Quantity       int64           `gorm:"column:quantity"`
	UnitPrice      decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2)"`
	Discount       decimal.Decimal `gorm:"column:discount;type:numeric(12,2)"`
}

func (orderItemRecord) TableName() string { return "order_items" }

// Insert persists the order with its items and fills the generated ids.
func (r *Repository) Insert(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	record := toRecord(order)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	items := make([]orderItemRecord, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemRecord{
			OrderID:        record.ID,
			OrderCreatedAt: record.CreatedAt,
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			Discount:       item.Discount,
		})
	}
	if err := r.db.WithContext(ctx).Create(&items).Error; err != nil {
		return nil, err
	}
	return record.toDomain(items), nil
}

// LockByID loads the order with its items under FOR UPDATE. The lock lives
// until the surrounding transaction ends.
func (r *Repository) LockByID(ctx context.Context, id int64) (*domain.Order, error) {
	return r.getOne(ctx, id, true)
}

// GetByID fetches an order with its items, lock-free.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	return r.getOne(ctx, id, false)
}

func (r *Repository) getOne(ctx context.Context, id int64, lock bool) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var record orderRecord
	if err := q.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrOrderNotFound
		}
		return nil, err
	}
	var items []orderItemRecord
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND order_created_at = ?", record.ID, record.CreatedAt).
		Order("product_id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return record.toDomain(items), nil
}

// UpdateStatus persists the order's status and cancellation fields.
func (r *Repository) UpdateStatus(ctx context.Context, order *domain.Order) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Model(&orderRecord{}).
		Where("id = ? AND created_at = ?", order.ID, order.CreatedAt).
		Updates(map[string]any{
			"status":        string(order.Status),
			"cancel_reason": order.CancelReason,
			"cancelled_by":  order.CancelledBy,
			"cancelled_at":  order.CancelledAt,
			"updated_at":    gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrOrderNotFound
	}
	return nil
}

func (r *Repository) ListByUser(ctx context.Context, userID int64, window ports.TimeRange) ([]*domain.Order, error) {
	return r.list(ctx, window, "user_id = ?", userID)
}

func (r *Repository) ListByStatus(ctx context.Context, statuses []domain.Status, window ports.TimeRange) ([]*domain.Order, error) {
	names := make([]string, 0, len(statuses))
	for _, status := range statuses {
		names = append(names, string(status))
	}
	return r.list(ctx, window, "status = ANY(?)", pq.Array(names))
}

func (r *Repository) ListByTimeRange(ctx context.Context, window ports.TimeRange) ([]*domain.Order, error) {
	return r.list(ctx, window)
}

func (r *Repository) list(ctx context.Context, window ports.TimeRange, conds ...any) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	q := r.db.WithContext(ctx).Model(&orderRecord{})
	if len(conds) > 0 {
		q = q.Where(conds[0], conds[1:]...)
	}
	// Bounding on created_at also bounds the partitions scanned.
	if !window.From.IsZero() {
		q = q.Where("created_at >= ?", window.From)
	}
	if !window.To.IsZero() {
		q = q.Where("created_at < ?", window.To)
	}
	var records []orderRecord
	if err := q.Order("created_at DESC, id DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	itemsByOrder, err := r.loadItems(ctx, records)
	if err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain(itemsByOrder[records[i].ID]))
	}
	return orders, nil
}

func (r *Repository) loadItems(ctx context.Context, records []orderRecord) (map[int64][]orderItemRecord, error) {
	if len(records) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(records))
	for i := range records {
		ids = append(ids, records[i].ID)
	}
	var items []orderItemRecord
	if err := r.db.WithContext(ctx).
		Where("order_id = ANY(?)", pq.Array(ids)).
		Order("product_id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	byOrder := make(map[int64][]orderItemRecord, len(records))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	return byOrder, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toRecord(order *domain.Order) orderRecord {
	return orderRecord{
		ID:             order.ID,
		UserID:         order.UserID,
		Status:         string(order.Status),
		Total:          order.Total,
		ShipRecipient:  order.Shipping.Recipient,
		ShipLine1:      order.Shipping.Line1,
		ShipLine2:      order.Shipping.Line2,
		ShipCity:       order.Shipping.City,
		ShipRegion:     order.Shipping.Region,
		ShipPostalCode: order.Shipping.PostalCode,
		ShipCountry:    order.Shipping.Country,
		PaymentMethod:  order.PaymentMethod,
		CancelReason:   order.CancelReason,
		CancelledBy:    order.CancelledBy,
		CancelledAt:    order.CancelledAt,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
}

func (r orderRecord) toDomain(items []orderItemRecord) *domain.Order {
	order := &domain.Order{
		ID:     r.ID,
		UserID: r.UserID,
		Status: domain.Status(r.Status),
		Total:  r.Total,
		Shipping: domain.ShippingAddress{
			Recipient:  r.ShipRecipient,
			Line1:      r.ShipLine1,
			Line2:      r.ShipLine2,
			City:       r.ShipCity,
			Region:     r.ShipRegion,
			PostalCode: r.ShipPostalCode,
			Country:    r.ShipCountry,
		},
		PaymentMethod: r.PaymentMethod,
		CancelReason:  r.CancelReason,
		CancelledBy:   r.CancelledBy,
		CancelledAt:   r.CancelledAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	order.Items = make([]domain.Item, 0, len(items))
	for _, item := range items {
		order.Items = append(order.Items, domain.Item{
			ID:        item.ID,
			OrderID:   item.OrderID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Discount:  item.Discount,
		})
	}
	return order
}
