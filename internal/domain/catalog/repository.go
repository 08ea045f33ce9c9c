package catalog

import "context"

type Repository interface {
	ReplaceAll(ctx context.Context, products []*Product) error
	List(ctx context.Context) ([]*Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	Save(ctx context.Context, product *Product) error
}
