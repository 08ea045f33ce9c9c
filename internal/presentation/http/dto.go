package httppresentation

import (
	"time"

	appcatalog "github.com/Zhima-Mochi/notafiscal-console/internal/application/catalog"
	appinvoice "github.com/Zhima-Mochi/notafiscal-console/internal/application/invoice"
	domcart "github.com/Zhima-Mochi/notafiscal-console/internal/domain/cart"
	domcatalog "github.com/Zhima-Mochi/notafiscal-console/internal/domain/catalog"
	dominvoice "github.com/Zhima-Mochi/notafiscal-console/internal/domain/invoice"
	domnotification "github.com/Zhima-Mochi/notafiscal-console/internal/domain/notification"
	"github.com/shopspring/decimal"
)

type productResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Balance     int             `json:"balance"`
	Reserved    int             `json:"reserved"`
}

func toProductResponse(p *domcatalog.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Balance:     p.Balance,
		Reserved:    p.Reserved,
	}
}

type rowResponse struct {
	productResponse
	Selected int `json:"selected"`
	Max      int `json:"max"`
}

type catalogResponse struct {
	Loading  bool          `json:"loading"`
	Error    string        `json:"error,omitempty"`
	Products []rowResponse `json:"products"`
}

func toCatalogResponse(rows []appcatalog.Row, state appcatalog.State) catalogResponse {
	out := catalogResponse{
		Loading:  state.Loading,
		Error:    state.Error,
		Products: make([]rowResponse, 0, len(rows)),
	}
	for _, r := range rows {
		out.Products = append(out.Products, rowResponse{
			productResponse: toProductResponse(r.Product),
			Selected:        r.Selector.Selected,
			Max:             r.Selector.Max,
		})
	}
	return out
}

type selectionRequest struct {
	Quantity int `json:"quantity"`
}

type addLineRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	// Quantity falls back to the row selector when omitted.
	Quantity *int `json:"quantity"`
}

type lineResponse struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Amount    int             `json:"amount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func toLineResponses(lines []domcart.Line) []lineResponse {
	out := make([]lineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, lineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.Price,
			Amount:    l.Amount,
			Subtotal:  l.Subtotal(),
		})
	}
	return out
}

type cartResponse struct {
	Lines []lineResponse  `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

type invoiceResponse struct {
	ID         string          `json:"id,omitempty"`
	Code       string          `json:"code,omitempty"`
	Status     string          `json:"status,omitempty"`
	TotalValue decimal.Decimal `json:"total_value"`
	Products   []lineResponse  `json:"products"`
	CreatedAt  string          `json:"created_at,omitempty"`
}

func toInvoiceResponse(inv dominvoice.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:         inv.ID,
		Code:       inv.Code,
		Status:     string(inv.Status),
		TotalValue: inv.TotalValue,
		Products:   toLineResponses(inv.Products),
		CreatedAt:  inv.CreatedAt,
	}
}

type openInvoicesResponse struct {
	Loading  bool              `json:"loading"`
	Error    string            `json:"error,omitempty"`
	Printing []string          `json:"printing"`
	Invoices []invoiceResponse `json:"invoices"`
}

func toOpenInvoicesResponse(invoices []dominvoice.Invoice, state appinvoice.State) openInvoicesResponse {
	out := openInvoicesResponse{
		Loading:  state.Loading,
		Error:    state.Error,
		Printing: state.Printing,
		Invoices: make([]invoiceResponse, 0, len(invoices)),
	}
	for _, inv := range invoices {
		out.Invoices = append(out.Invoices, toInvoiceResponse(inv))
	}
	return out
}

type printResponse struct {
	Invoice invoiceResponse `json:"invoice"`
	File    string          `json:"file,omitempty"`
}

type notificationResponse struct {
	ID       string    `json:"id"`
	Severity string    `json:"severity"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

func toNotificationResponses(ns []domnotification.Notification) []notificationResponse {
	out := make([]notificationResponse, 0, len(ns))
	for _, n := range ns {
		out = append(out, notificationResponse{
			ID:       n.ID,
			Severity: string(n.Severity),
			Title:    n.Title,
			Message:  n.Message,
			At:       n.At,
		})
	}
	return out
}
