package memory

import (
	"context"
	"sync"

	"github.com/northmart/go-order-processing/internal/domains/orders/ports"
)

var (
	_ ports.UserDirectory  = (*UserDirectory)(nil)
	_ ports.ProductCatalog = (*ProductCatalog)(nil)
)

// UserDirectory is an in-memory stand-in for the external user service.
type UserDirectory struct {
	mu    sync.RWMutex
	users map[int64]ports.UserInfo
}

func NewUserDirectory() *UserDirectory {
	return &UserDirectory{users: map[int64]ports.UserInfo{}}
}

func (d *UserDirectory) Put(user ports.UserInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[user.ID] = user
}

func (d *UserDirectory) Lookup(_ context.Context, userID int64) (*ports.UserInfo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	user, ok := d.users[userID]
	if !ok {
		return nil, ports.ErrUserNotFound
	}
	clone := user
	return &clone, nil
}

// ProductCatalog is an in-memory stand-in for the external catalog service.
type ProductCatalog struct {
	mu       sync.RWMutex
	products map[int64]ports.CatalogProduct
}

func NewProductCatalog() *ProductCatalog {
	return &ProductCatalog{products: map[int64]ports.CatalogProduct{}}
}

func (c *ProductCatalog) Put(product ports.CatalogProduct) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[product.ID] = product
}

func (c *ProductCatalog) Lookup(_ context.Context, productID int64) (*ports.CatalogProduct, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	product, ok := c.products[productID]
	if !ok {
		return nil, ports.ErrProductNotFound
	}
	clone := product
	return &clone, nil
}
