package catalog

import (
	"context"

	domain "github.com/Zhima-Mochi/notafiscal-console/internal/domain/catalog"
)

// StockGateway is the stock service as seen by the catalog.
type StockGateway interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, draft domain.Draft) (domain.Product, error)
}
