package httpgateway

import (
	"context"
	"net/http"

	domcatalog "github.com/Zhima-Mochi/notafiscal-console/internal/domain/catalog"
	"github.com/Zhima-Mochi/notafiscal-console/internal/observability"
)

const peerStock = "stock"

// StockClient calls the stock service.
type StockClient struct {
	c *client
}

func NewStockClient(opts Options, tel observability.Observability) *StockClient {
	return &StockClient{c: newClient(peerStock, opts, tel)}
}

func (s *StockClient) ListProducts(ctx context.Context) ([]domcatalog.Product, error) {
	var out []productDTO
	if err := s.c.do(ctx, call{
		op:       "list products",
		method:   http.MethodGet,
		endpoint: "products",
		path:     "/products",
		result:   &out,
	}); err != nil {
		return nil, err
	}

	products := make([]domcatalog.Product, 0, len(out))
	for _, d := range out {
		products = append(products, toProduct(d))
	}
	return products, nil
}

func (s *StockClient) CreateProduct(ctx context.Context, draft domcatalog.Draft) (domcatalog.Product, error) {
	var out productDTO
	if err := s.c.do(ctx, call{
		op:       "create product",
		method:   http.MethodPost,
		endpoint: "products",
		path:     "/products",
		body:     fromDraft(draft),
		result:   &out,
	}); err != nil {
		return domcatalog.Product{}, err
	}
	return toProduct(out), nil
}
