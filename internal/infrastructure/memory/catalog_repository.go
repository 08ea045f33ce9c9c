package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/notafiscal-console/internal/domain/catalog"
)

// CatalogRepository keeps products in the order the stock service returned them.
type CatalogRepository struct {
	mu    sync.RWMutex
	order []string
	items map[string]*domain.Product
}

func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{
		items: make(map[string]*domain.Product),
	}
}

func (r *CatalogRepository) ReplaceAll(ctx context.Context, products []*domain.Product) error {
	_ = ctx

	order := make([]string, 0, len(products))
	items := make(map[string]*domain.Product, len(products))
	for _, p := range products {
		if p == nil {
			continue
		}
		if _, dup := items[p.ID]; !dup {
			order = append(order, p.ID)
		}
		items[p.ID] = p.Clone()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.order = order
	r.items = items
	return nil
}

func (r *CatalogRepository) List(ctx context.Context) ([]*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Product, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id].Clone())
	}
	return out, nil
}

func (r *CatalogRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

// Save updates an existing product in place or appends a new one.
func (r *CatalogRepository) Save(ctx context.Context, product *domain.Product) error {
	_ = ctx
	if product == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[product.ID]; !ok {
		r.order = append(r.order, product.ID)
	}
	r.items[product.ID] = product.Clone()
	return nil
}
