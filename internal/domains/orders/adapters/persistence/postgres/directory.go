package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/northmart/go-order-processing/internal/domains/orders/ports"
)

var (
	_ ports.UserDirectory  = (*UserDirectory)(nil)
	_ ports.ProductCatalog = (*ProductCatalog)(nil)
)

// UserDirectory answers user existence and activity from the replicated
// users read-model. User management itself lives elsewhere.
type UserDirectory struct {
	db *gorm.DB
}

func NewUserDirectory(db *gorm.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

type userRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	Username  string    `gorm:"column:username;uniqueIndex"`
	Active    bool      `gorm:"column:active"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (userRecord) TableName() string { return "users" }

func (d *UserDirectory) Lookup(ctx context.Context, userID int64) (*ports.UserInfo, error) {
	if d == nil || d.db == nil {
		return nil, errors.New("postgres user directory not configured")
	}
	var record userRecord
	if err := d.db.WithContext(ctx).Select("id", "active").First(&record, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrUserNotFound
		}
		return nil, err
	}
	return &ports.UserInfo{ID: record.ID, Active: record.Active}, nil
}

// ProductCatalog resolves products from the products table. The catalog
// columns read here are owned by the external catalog feed; this repo only
// ever writes stock and version, through the stock controller.
type ProductCatalog struct {
	db *gorm.DB
}

func NewProductCatalog(db *gorm.DB) *ProductCatalog {
	return &ProductCatalog{db: db}
}

type catalogRecord struct {
	ID           int64           `gorm:"primaryKey;column:id"`
	Name         string          `gorm:"column:name"`
	Price        decimal.Decimal `gorm:"column:price"`
	CategoryID   *int64          `gorm:"column:category_id"`
	CategoryName string          `gorm:"column:category_name"`
	Active       bool            `gorm:"column:active"`
}

func (catalogRecord) TableName() string { return "products" }

func (c *ProductCatalog) Lookup(ctx context.Context, productID int64) (*ports.CatalogProduct, error) {
	if c == nil || c.db == nil {
		return nil, errors.New("postgres product catalog not configured")
	}
	var record catalogRecord
	if err := c.db.WithContext(ctx).First(&record, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrProductNotFound
		}
		return nil, err
	}
	return &ports.CatalogProduct{
		ID:           record.ID,
		Name:         record.Name,
		Active:       record.Active,
		Price:        record.Price,
		CategoryID:   record.CategoryID,
		CategoryName: record.CategoryName,
	}, nil
}
