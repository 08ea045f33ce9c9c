package httpgateway

import (
	"context"
	"net/http"
	"net/url"

	dominvoice "github.com/Zhima-Mochi/notafiscal-console/internal/domain/invoice"
	"github.com/Zhima-Mochi/notafiscal-console/internal/observability"
)

const peerBilling = "billing"

// BillingClient calls the billing service.
type BillingClient struct {
	c *client
}

func NewBillingClient(opts Options, tel observability.Observability) *BillingClient {
	return &BillingClient{c: newClient(peerBilling, opts, tel)}
}

func (b *BillingClient) CreateInvoice(ctx context.Context, inv dominvoice.Invoice) (dominvoice.Invoice, error) {
	var out invoiceDTO
	if err := b.c.do(ctx, call{
		op:       "create invoice",
		method:   http.MethodPost,
		endpoint: "invoice",
		path:     "/invoice",
		body:     fromInvoice(inv),
		result:   &out,
	}); err != nil {
		return dominvoice.Invoice{}, err
	}
	return toInvoice(out), nil
}

func (b *BillingClient) ListOpenInvoices(ctx context.Context) ([]dominvoice.Invoice, error) {
	var out []invoiceDTO
	if err := b.c.do(ctx, call{
		op:       "list open invoices",
		method:   http.MethodGet,
		endpoint: "invoices/open",
		path:     "/invoices/open",
		result:   &out,
	}); err != nil {
		return nil, err
	}

	invoices := make([]dominvoice.Invoice, 0, len(out))
	for _, d := range out {
		invoices = append(invoices, toInvoice(d))
	}
	return invoices, nil
}

func (b *BillingClient) CloseInvoice(ctx context.Context, code string) (dominvoice.Invoice, error) {
	var out closeResponse
	if err := b.c.do(ctx, call{
		op:       "close invoice",
		method:   http.MethodPut,
		endpoint: "invoices/{code}/close",
		path:     "/invoices/" + url.PathEscape(code) + "/close",
		result:   &out,
	}); err != nil {
		return dominvoice.Invoice{}, err
	}
	return toInvoice(out.invoice()), nil
}
