package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("cart: amount must be greater than zero")

// Line is one aggregated product entry waiting to be invoiced.
type Line struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	Amount    int
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Amount)))
}

// Cart keeps at most one line per product, in insertion order.
type Cart struct {
	Lines []Line
}

// Add merges amount into the line for productID, or appends a new line.
// A merged line keeps the name and price it was first added with.
func (c *Cart) Add(productID, name string, price decimal.Decimal, amount int) (Line, error) {
	if amount <= 0 {
		return Line{}, ErrInvalidAmount
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Amount += amount
			return c.Lines[i], nil
		}
	}
	line := Line{ProductID: productID, Name: name, Price: price, Amount: amount}
	c.Lines = append(c.Lines, line)
	return line, nil
}

func (c *Cart) Find(productID string) (Line, bool) {
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return Line{}, false
}

func (c *Cart) Remove(productID string) (Line, bool) {
	for i, l := range c.Lines {
		if l.ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return l, true
		}
	}
	return Line{}, false
}

// Take removes up to amount from the line for productID, dropping the line
// once it reaches zero. It returns the amount actually removed.
func (c *Cart) Take(productID string, amount int) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID != productID {
			continue
		}
		if amount >= c.Lines[i].Amount {
			taken := c.Lines[i].Amount
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return taken
		}
		if amount <= 0 {
			return 0
		}
		c.Lines[i].Amount -= amount
		return amount
	}
	return 0
}

// Total is Σ price × amount, computed on every call.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c *Cart) Empty() bool { return len(c.Lines) == 0 }

func (c *Cart) Clear() { c.Lines = nil }

func (c *Cart) Clone() *Cart {
	if c == nil {
		return &Cart{}
	}
	return &Cart{Lines: append([]Line(nil), c.Lines...)}
}

type Repository interface {
	Get(ctx context.Context) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
}
