package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Draft is the product creation form.
type Draft struct {
	Name        string          `json:"name" validate:"required,min=2"`
	Description string          `json:"description" validate:"required,min=2"`
	Price       decimal.Decimal `json:"price" validate:"gte=0.01"`
	Balance     int             `json:"balance" validate:"gte=0"`
}

// Normalize trims the free-text fields and rounds the price to cents, the
// precision the stock service stores.
func (d *Draft) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	d.Price = d.Price.Round(2)
}
