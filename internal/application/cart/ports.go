package cart

import (
	"context"

	domcatalog "github.com/Zhima-Mochi/notafiscal-console/internal/domain/catalog"
)

// Catalog is the part of the catalog store the cart needs to move stock.
type Catalog interface {
	Product(ctx context.Context, productID string) (*domcatalog.Product, error)
	Selected(productID string) int
	ResetSelector(productID string)
	Reserve(ctx context.Context, productID string, quantity int) (*domcatalog.Product, error)
	Release(ctx context.Context, productID string, quantity int) (*domcatalog.Product, error)
	Commit(ctx context.Context, productID string, quantity int) (*domcatalog.Product, error)
}
