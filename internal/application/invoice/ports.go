package invoice

import (
	"context"

	domcart "github.com/Zhima-Mochi/notafiscal-console/internal/domain/cart"
	domain "github.com/Zhima-Mochi/notafiscal-console/internal/domain/invoice"
)

// BillingGateway is the billing service as seen by the workflow.
type BillingGateway interface {
	CreateInvoice(ctx context.Context, inv domain.Invoice) (domain.Invoice, error)
	ListOpenInvoices(ctx context.Context) ([]domain.Invoice, error)
	CloseInvoice(ctx context.Context, code string) (domain.Invoice, error)
}

// Cart is the part of the cart aggregator the workflow reads and settles.
type Cart interface {
	Lines(ctx context.Context) ([]domcart.Line, error)
	Settle(ctx context.Context, invoiced []domcart.Line) error
}

// Printer renders a closed invoice and returns where it was written.
type Printer interface {
	Print(ctx context.Context, inv domain.Invoice) (string, error)
}
