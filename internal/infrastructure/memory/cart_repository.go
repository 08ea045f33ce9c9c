package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/notafiscal-console/internal/domain/cart"
)

// CartRepository holds the single cart of the console session.
type CartRepository struct {
	mu   sync.RWMutex
	cart *domain.Cart
}

func NewCartRepository() *CartRepository {
	return &CartRepository{cart: &domain.Cart{}}
}

func (r *CartRepository) Get(ctx context.Context) (*domain.Cart, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.cart.Clone(), nil
}

func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	r.cart = cart.Clone()
	return nil
}
