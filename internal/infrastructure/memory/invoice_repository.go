package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/notafiscal-console/internal/domain/invoice"
)

type InvoiceRepository struct {
	mu   sync.RWMutex
	open []domain.Invoice
}

func NewInvoiceRepository() *InvoiceRepository {
	return &InvoiceRepository{}
}

func (r *InvoiceRepository) ReplaceOpen(ctx context.Context, invoices []domain.Invoice) error {
	_ = ctx

	cp := cloneInvoices(invoices)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.open = cp
	return nil
}

func (r *InvoiceRepository) ListOpen(ctx context.Context) ([]domain.Invoice, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	return cloneInvoices(r.open), nil
}

func cloneInvoices(in []domain.Invoice) []domain.Invoice {
	out := make([]domain.Invoice, len(in))
	for i, inv := range in {
		inv.Products = append(inv.Products[:0:0], inv.Products...)
		out[i] = inv
	}
	return out
}
