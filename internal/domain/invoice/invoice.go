package invoice

import (
	"context"

	"github.com/Zhima-Mochi/notafiscal-console/internal/domain/cart"
	"github.com/shopspring/decimal"
)

// Status values are assigned by the billing service.
type Status string

const (
	StatusOpen   Status = "ABERTO"
	StatusClosed Status = "FECHADA"
)

// Invoice is a request/response payload. Only Products is set client-side;
// the rest comes back from billing.
type Invoice struct {
	ID         string
	Code       string
	Status     Status
	TotalValue decimal.Decimal
	Products   []cart.Line
	CreatedAt  string
}

// FromLines builds the creation request for the given cart lines.
func FromLines(lines []cart.Line) Invoice {
	return Invoice{Products: append([]cart.Line(nil), lines...)}
}

func (i Invoice) IsOpen() bool { return i.Status == StatusOpen }

// Repository caches the open-invoice list currently on display.
type Repository interface {
	ReplaceOpen(ctx context.Context, invoices []Invoice) error
	ListOpen(ctx context.Context) ([]Invoice, error)
}
