package catalog

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("catalog: product not found")
	ErrInvalidQuantity   = errors.New("catalog: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("catalog: insufficient stock")
	ErrNotReserved       = errors.New("catalog: quantity exceeds reservation")
)

// Product is one catalog row. Balance is the quantity still available to the
// user; Reserved is what the cart holds and has not been invoiced yet.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Balance     int
	Reserved    int
	UpdatedAt   time.Time

	// unbacked is the part of Reserved the stock service no longer has.
	// Releasing it does not return anything to Balance.
	unbacked int
}

// Reserve moves quantity from the available balance into the reservation.
func (p *Product) Reserve(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > p.Balance {
		return ErrInsufficientStock
	}
	p.Balance -= quantity
	p.Reserved += quantity
	p.touch()
	return nil
}

// Release hands reserved quantity back to the available balance.
func (p *Product) Release(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > p.Reserved {
		return ErrNotReserved
	}
	p.Reserved -= quantity
	p.Balance += quantity - p.absorbUnbacked(quantity)
	p.touch()
	return nil
}

// Commit drops reserved quantity for good; the balance stays decremented.
func (p *Product) Commit(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > p.Reserved {
		return ErrNotReserved
	}
	// committed units use the backed part of the reservation first
	backed := p.Reserved - p.unbacked
	p.Reserved -= quantity
	p.absorbUnbacked(max(quantity-backed, 0))
	p.touch()
	return nil
}

// Rebase applies an outstanding reservation onto a balance fresh from the
// stock service. A reservation larger than the fresh balance is kept, with
// the excess marked unbacked.
func (p *Product) Rebase(reserved int) {
	p.unbacked = 0
	if reserved <= 0 {
		return
	}
	p.Reserved = reserved
	p.Balance -= reserved
	if p.Balance < 0 {
		p.unbacked = -p.Balance
		p.Balance = 0
	}
	p.touch()
}

// Unbacked reports how much of the reservation the stock service no longer has.
func (p *Product) Unbacked() int { return p.unbacked }

func (p *Product) absorbUnbacked(quantity int) int {
	n := min(quantity, p.unbacked)
	p.unbacked -= n
	return n
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}
