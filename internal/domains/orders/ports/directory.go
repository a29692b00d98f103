package ports

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrProductNotFound = errors.New("product not found in catalog")
)

// UserInfo is the narrow user view order processing needs.
type UserInfo struct {
	ID     int64
	Active bool
}

// UserDirectory answers whether a user exists and may transact. Ownership of
// user data lives elsewhere; this port only consumes it.
type UserDirectory interface {
	Lookup(ctx context.Context, userID int64) (*UserInfo, error)
}

// CatalogProduct is the catalog view consumed here: identity, availability,
// list price, and the category labels the rollups report on.
type CatalogProduct struct {
	ID           int64
	Name         string
	Active       bool
	Price        decimal.Decimal
	CategoryID   *int64
	CategoryName string
}

// ProductCatalog resolves products. Catalog management is out of scope; the
// adapter may read a replicated table or call the catalog service.
type ProductCatalog interface {
	Lookup(ctx context.Context, productID int64) (*CatalogProduct, error)
}
