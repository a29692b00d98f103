package migrations

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. The non-partitioned tables
// go through AutoMigrate; the order tables need raw DDL because GORM cannot
// declare PARTITION BY RANGE parents. Monthly segments are not created here —
// the orders SegmentEnsurer provisions them on first use.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	if err := db.AutoMigrate(
		&productRecord{},
		&stockHistoryRecord{},
		&userRecord{},
		&generationRecord{},
		&dailyRecord{},
		&categoryRecord{},
		&activeRecord{},
	); err != nil {
		return err
	}
	for _, stmt := range partitionedDDL {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// partitionedDDL declares the range-partitioned order tables. The partition
// key must be part of the primary key, so both keys carry the creation time.
var partitionedDDL = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id bigint GENERATED BY DEFAULT AS IDENTITY,
		user_id bigint NOT NULL,
		status varchar(32) NOT NULL,
		total numeric(14,2) NOT NULL,
		ship_recipient text NOT NULL DEFAULT '',
		ship_line1 text NOT NULL DEFAULT '',
		ship_line2 text NOT NULL DEFAULT '',
		ship_city text NOT NULL DEFAULT '',
		ship_region text NOT NULL DEFAULT '',
		ship_postal_code text NOT NULL DEFAULT '',
		ship_country text NOT NULL DEFAULT '',
		payment_method text NOT NULL DEFAULT '',
		cancel_reason text NOT NULL DEFAULT '',
		cancelled_by bigint,
		cancelled_at timestamptz,
		created_at timestamptz NOT NULL,
		updated_at timestamptz NOT NULL,
		PRIMARY KEY (id, created_at)
	) PARTITION BY RANGE (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id bigint GENERATED BY DEFAULT AS IDENTITY,
		order_id bigint NOT NULL,
		order_created_at timestamptz NOT NULL,
		product_id bigint NOT NULL,
		quantity bigint NOT NULL,
		unit_price numeric(12,2) NOT NULL,
		discount numeric(12,2) NOT NULL DEFAULT 0,
		PRIMARY KEY (id, order_created_at)
	) PARTITION BY RANGE (order_created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items (order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items (product_id)`,
}

// Product schema mirrors the inventory Postgres adapter. Catalog columns are
// written by the external catalog feed; stock and version only by the stock
// controller.
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

// Stock ledger schema mirrors the inventory Postgres adapter. Append-only.
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

// User read-model consumed by the order directory port. Ownership of user
// data lives outside this system.
type userRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	Username  string    `gorm:"column:username;uniqueIndex"`
	Active    bool      `gorm:"column:active"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (userRecord) TableName() string { return "users" }

// Rollup schema mirrors the rollup Postgres adapter.
type generationRecord struct {
	ID          uuid.UUID `gorm:"primaryKey;column:id;type:uuid"`
	WindowStart time.Time `gorm:"column:window_start"`
	WindowEnd   time.Time `gorm:"column:window_end"`
	BuiltAt     time.Time `gorm:"column:built_at"`
}

func (generationRecord) TableName() string { return "rollup_generations" }

type dailyRecord struct {
	ID            int64           `gorm:"primaryKey;autoIncrement;column:id"`
	GenerationID  uuid.UUID       `gorm:"column:generation_id;type:uuid;index"`
	Day           time.Time       `gorm:"column:day"`
	GrossValue    decimal.Decimal `gorm:"column:gross_value;type:numeric(14,2)"`
	OrderCount    int64           `gorm:"column:order_count"`
	CustomerCount int64           `gorm:"column:customer_count"`
	AverageTicket decimal.Decimal `gorm:"column:average_ticket;type:numeric(14,2)"`
}

func (dailyRecord) TableName() string { return "rollup_daily" }

type categoryRecord struct {
	ID            int64           `gorm:"primaryKey;autoIncrement;column:id"`
	GenerationID  uuid.UUID       `gorm:"column:generation_id;type:uuid;index"`
	CategoryID    *int64          `gorm:"column:category_id"`
	CategoryName  string          `gorm:"column:category_name"`
	GrossValue    decimal.Decimal `gorm:"column:gross_value;type:numeric(14,2)"`
	OrderCount    int64           `gorm:"column:order_count"`
	CustomerCount int64           `gorm:"column:customer_count"`
	AverageTicket decimal.Decimal `gorm:"column:average_ticket;type:numeric(14,2)"`
}

func (categoryRecord) TableName() string { return "rollup_category" }

type activeRecord struct {
	ID           int32     `gorm:"primaryKey;column:id"`
	GenerationID uuid.UUID `gorm:"column:generation_id;type:uuid"`
}

func (activeRecord) TableName() string { return "rollup_active" }
