package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Zhima-Mochi/notafiscal-console/internal/application"
	domain "github.com/Zhima-Mochi/notafiscal-console/internal/domain/cart"
	domcatalog "github.com/Zhima-Mochi/notafiscal-console/internal/domain/catalog"
	"github.com/Zhima-Mochi/notafiscal-console/internal/domain/failure"
	"github.com/Zhima-Mochi/notafiscal-console/internal/domain/notification"
	"github.com/Zhima-Mochi/notafiscal-console/internal/observability"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

const (
	cartService    = "cart-aggregator"
	useCaseAdd     = "cart.add"
	useCaseRemove  = "cart.remove_line"
	useCaseDiscard = "cart.discard"
	useCaseSettle  = "cart.settle"
	notifyTitle    = "Cart"
)

var ErrLineNotFound = errors.New("cart: line not found")

// Aggregator merges catalog picks into cart lines. Every quantity in the
// cart is reserved in the catalog until it is released or committed.
type Aggregator struct {
	repo    domain.Repository
	catalog Catalog
	sink    notification.Sink
	ins     application.Instrument

	mu sync.Mutex
}

func NewAggregator(repo domain.Repository, catalog Catalog, sink notification.Sink, tel observability.Observability) *Aggregator {
	return &Aggregator{
		repo:    repo,
		catalog: catalog,
		sink:    sink,
		ins:     application.NewInstrument(tel, cartService),
	}
}

// AddToCart reserves quantity of productID and merges it into the cart.
// Rejections leave both the catalog and the cart untouched.
func (a *Aggregator) AddToCart(ctx context.Context, productID string, quantity int) (_ domain.Line, err error) {
	ctx, call := a.ins.Begin(ctx, useCaseAdd, "AddToCart",
		attribute.String("product.id", productID),
		attribute.Int("cart.quantity", quantity),
	)
	defer func() { call.End(ctx, err) }()

	a.mu.Lock()
	defer a.mu.Unlock()

	reject := func(status, msg string, v failure.Violation) (domain.Line, error) {
		call.Fail(status)
		a.sink.Notify(ctx, notification.SeverityError, notifyTitle, msg)
		return domain.Line{}, failure.Validation(msg, v)
	}

	product, err := a.catalog.Product(ctx, productID)
	if errors.Is(err, domcatalog.ErrNotFound) {
		return reject("PRODUCT_NOT_FOUND", "product not found",
			failure.Violation{Field: "product_id", Rule: "exists"})
	}
	if err != nil {
		call.Fail("CATALOG_LOOKUP_FAILED")
		return domain.Line{}, fmt.Errorf("cart: add: %w", err)
	}
	if quantity <= 0 {
		return reject("QUANTITY_INVALID", "select a valid quantity",
			failure.Violation{Field: "quantity", Rule: "gt", Param: "0"})
	}
	if quantity > product.Balance {
		return reject("STOCK_INSUFFICIENT", "requested quantity exceeds available stock",
			failure.Violation{Field: "quantity", Rule: "lte", Param: fmt.Sprint(product.Balance)})
	}

	cart, err := a.repo.Get(ctx)
	if err != nil {
		call.Fail("REPO_GET_FAILED")
		return domain.Line{}, fmt.Errorf("cart: add: %w", err)
	}

	if _, err := a.catalog.Reserve(ctx, productID, quantity); err != nil {
		if errors.Is(err, domcatalog.ErrInsufficientStock) {
			return reject("STOCK_INSUFFICIENT", "requested quantity exceeds available stock",
				failure.Violation{Field: "quantity", Rule: "lte"})
		}
		call.Fail("RESERVE_FAILED")
		return domain.Line{}, fmt.Errorf("cart: add: %w", err)
	}

	line, err := cart.Add(product.ID, product.Name, product.Price, quantity)
	if err == nil {
		err = a.repo.Save(ctx, cart)
	}
	if err != nil {
		call.Fail("CART_SAVE_FAILED")
		if _, rerr := a.catalog.Release(ctx, productID, quantity); rerr != nil {
			call.Logger().Error("reservation_rollback_failed",
				observability.F("product_id", productID),
				observability.Err(rerr),
			)
		}
		return domain.Line{}, fmt.Errorf("cart: add: %w", err)
	}

	a.catalog.ResetSelector(productID)
	call.With("line_amount", line.Amount)
	a.sink.Notify(ctx, notification.SeveritySuccess, "", fmt.Sprintf("%d x %s added to cart", quantity, product.Name))
	return line, nil
}

// AddSelected adds the quantity currently picked on the catalog row.
func (a *Aggregator) AddSelected(ctx context.Context, productID string) (domain.Line, error) {
	return a.AddToCart(ctx, productID, a.catalog.Selected(productID))
}

// RemoveLine drops the line for productID and hands its quantity back to the catalog.
func (a *Aggregator) RemoveLine(ctx context.Context, productID string) (err error) {
	ctx, call := a.ins.Begin(ctx, useCaseRemove, "RemoveLine",
		attribute.String("product.id", productID),
	)
	defer func() { call.End(ctx, err) }()

	a.mu.Lock()
	defer a.mu.Unlock()

	cart, err := a.repo.Get(ctx)
	if err != nil {
		call.Fail("REPO_GET_FAILED")
		return fmt.Errorf("cart: remove: %w", err)
	}
	line, ok := cart.Remove(productID)
	if !ok {
		call.Fail("LINE_NOT_FOUND")
		return ErrLineNotFound
	}
	if err := a.repo.Save(ctx, cart); err != nil {
		call.Fail("CART_SAVE_FAILED")
		return fmt.Errorf("cart: remove: %w", err)
	}

	a.release(ctx, call, line)
	a.sink.Notify(ctx, notification.SeverityInfo, notifyTitle, fmt.Sprintf("%s removed from cart", line.Name))
	return nil
}

// Discard releases every line and empties the cart.
func (a *Aggregator) Discard(ctx context.Context) (err error) {
	ctx, call := a.ins.Begin(ctx, useCaseDiscard, "Discard")
	defer func() { call.End(ctx, err) }()

	a.mu.Lock()
	defer a.mu.Unlock()

	cart, err := a.repo.Get(ctx)
	if err != nil {
		call.Fail("REPO_GET_FAILED")
		return fmt.Errorf("cart: discard: %w", err)
	}
	if cart.Empty() {
		return nil
	}

	lines := cart.Lines
	cart.Clear()
	if err := a.repo.Save(ctx, cart); err != nil {
		call.Fail("CART_SAVE_FAILED")
		return fmt.Errorf("cart: discard: %w", err)
	}
	for _, line := range lines {
		a.release(ctx, call, line)
	}

	call.With("lines", len(lines))
	a.sink.Notify(ctx, notification.SeverityInfo, notifyTitle, "cart discarded")
	return nil
}

// Settle commits the reservations of invoiced lines and removes them from the cart.
// Quantities added after the invoice was submitted stay in the cart.
func (a *Aggregator) Settle(ctx context.Context, invoiced []domain.Line) (err error) {
	ctx, call := a.ins.Begin(ctx, useCaseSettle, "Settle")
	defer func() { call.End(ctx, err) }()

	a.mu.Lock()
	defer a.mu.Unlock()

	cart, err := a.repo.Get(ctx)
	if err != nil {
		call.Fail("REPO_GET_FAILED")
		return fmt.Errorf("cart: settle: %w", err)
	}

	for _, line := range invoiced {
		taken := cart.Take(line.ProductID, line.Amount)
		if taken == 0 {
			continue
		}
		if _, cerr := a.catalog.Commit(ctx, line.ProductID, taken); cerr != nil && !errors.Is(cerr, domcatalog.ErrNotFound) {
			call.Logger().Warn("reservation_commit_failed",
				observability.F("product_id", line.ProductID),
				observability.Err(cerr),
			)
		}
	}

	if err := a.repo.Save(ctx, cart); err != nil {
		call.Fail("CART_SAVE_FAILED")
		return fmt.Errorf("cart: settle: %w", err)
	}
	call.With("lines", len(invoiced))
	return nil
}

func (a *Aggregator) Lines(ctx context.Context) ([]domain.Line, error) {
	cart, err := a.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	return cart.Lines, nil
}

// Total is recomputed from the current lines on every call.
func (a *Aggregator) Total(ctx context.Context) (decimal.Decimal, error) {
	cart, err := a.repo.Get(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return cart.Total(), nil
}

// release returns a line's quantity to the catalog. A product that vanished
// on reload has nothing to return to.
func (a *Aggregator) release(ctx context.Context, call *application.Call, line domain.Line) {
	_, err := a.catalog.Release(ctx, line.ProductID, line.Amount)
	if err == nil || errors.Is(err, domcatalog.ErrNotFound) {
		return
	}
	call.Logger().Warn("reservation_release_failed",
		observability.F("product_id", line.ProductID),
		observability.F("amount", line.Amount),
		observability.Err(err),
	)
}
