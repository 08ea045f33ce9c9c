package httpgateway

import (
	domcart "github.com/Zhima-Mochi/notafiscal-console/internal/domain/cart"
	domcatalog "github.com/Zhima-Mochi/notafiscal-console/internal/domain/catalog"
	dominvoice "github.com/Zhima-Mochi/notafiscal-console/internal/domain/invoice"
	"github.com/shopspring/decimal"
)

type productDTO struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Balance     int     `json:"balance"`
}

func toProduct(d productDTO) domcatalog.Product {
	return domcatalog.Product{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       decimal.NewFromFloat(d.Price).Round(2),
		Balance:     d.Balance,
	}
}

func fromDraft(d domcatalog.Draft) productDTO {
	price, _ := d.Price.Round(2).Float64()
	return productDTO{
		Name:        d.Name,
		Description: d.Description,
		Price:       price,
		Balance:     d.Balance,
	}
}

type invoiceProductDTO struct {
	ID          string  `json:"id,omitempty"`
	InvoiceCode string  `json:"invoice_code,omitempty"`
	ProductID   string  `json:"product_id"`
	Name        string  `json:"name,omitempty"`
	Price       float64 `json:"price,omitempty"`
	Amount      int     `json:"amount"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

type invoiceDTO struct {
	ID         string              `json:"id,omitempty"`
	Code       string              `json:"code,omitempty"`
	Status     string              `json:"status,omitempty"`
	TotalValue float64             `json:"totalValue,omitempty"`
	Products   []invoiceProductDTO `json:"products"`
	CreatedAt  string              `json:"created_at,omitempty"`
}

// closeResponse accepts both {"message": ..., "invoice": {...}} and a bare invoice.
type closeResponse struct {
	invoiceDTO
	Message string      `json:"message"`
	Invoice *invoiceDTO `json:"invoice"`
}

func (r closeResponse) invoice() invoiceDTO {
	if r.Invoice != nil {
		return *r.Invoice
	}
	return r.invoiceDTO
}

func fromInvoice(inv dominvoice.Invoice) invoiceDTO {
	products := make([]invoiceProductDTO, 0, len(inv.Products))
	for _, l := range inv.Products {
		price, _ := l.Price.Float64()
		products = append(products, invoiceProductDTO{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     price,
			Amount:    l.Amount,
		})
	}
	return invoiceDTO{
		ID:         inv.ID,
		Code:       inv.Code,
		Status:     string(inv.Status),
		TotalValue: inv.TotalValue.InexactFloat64(),
		Products:   products,
	}
}

func toInvoice(d invoiceDTO) dominvoice.Invoice {
	lines := make([]domcart.Line, 0, len(d.Products))
	for _, p := range d.Products {
		lines = append(lines, domcart.Line{
			ProductID: p.ProductID,
			Name:      p.Name,
			Price:     decimal.NewFromFloat(p.Price).Round(2),
			Amount:    p.Amount,
		})
	}
	return dominvoice.Invoice{
		ID:         d.ID,
		Code:       d.Code,
		Status:     dominvoice.Status(d.Status),
		TotalValue: decimal.NewFromFloat(d.TotalValue).Round(2),
		Products:   lines,
		CreatedAt:  d.CreatedAt,
	}
}
