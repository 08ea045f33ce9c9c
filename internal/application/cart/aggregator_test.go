package cart

import (
	"context"
	"sync"
	"testing"

	appcatalog "github.com/Zhima-Mochi/notafiscal-console/internal/application/catalog"
	domain "github.com/Zhima-Mochi/notafiscal-console/internal/domain/cart"
	domcatalog "github.com/Zhima-Mochi/notafiscal-console/internal/domain/catalog"
	"github.com/Zhima-Mochi/notafiscal-console/internal/domain/failure"
	"github.com/Zhima-Mochi/notafiscal-console/internal/domain/notification"
	"github.com/Zhima-Mochi/notafiscal-console/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/notafiscal-console/internal/observability"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stockStub struct{ products []domcatalog.Product }

func (s stockStub) ListProducts(context.Context) ([]domcatalog.Product, error) {
	return s.products, nil
}

func (s stockStub) CreateProduct(context.Context, domcatalog.Draft) (domcatalog.Product, error) {
	return domcatalog.Product{}, nil
}

type sinkStub struct {
	mu   sync.Mutex
	sent []notification.Notification
}

func (s *sinkStub) Notify(_ context.Context, sev notification.Severity, title, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, notification.New(sev, title, msg))
}

func (s *sinkStub) last() notification.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent[len(s.sent)-1]
}

type fixture struct {
	catalog *appcatalog.Store
	agg     *Aggregator
	sink    *sinkStub
}

func newFixture(t *testing.T, products ...domcatalog.Product) fixture {
	t.Helper()
	sink := &sinkStub{}
	store := appcatalog.NewStore(memory.NewCatalogRepository(), stockStub{products: products}, sink, observability.Nop())
	_, err := store.Load(context.Background())
	require.NoError(t, err)
	return fixture{
		catalog: store,
		agg:     NewAggregator(memory.NewCartRepository(), store, sink, observability.Nop()),
		sink:    sink,
	}
}

func pen() domcatalog.Product {
	return domcatalog.Product{ID: "p-1", Name: "Pen", Price: decimal.RequireFromString("10.00"), Balance: 5}
}

func (f fixture) balance(t *testing.T, id string) int {
	t.Helper()
	p, err := f.catalog.Product(context.Background(), id)
	require.NoError(t, err)
	return p.Balance
}

func (f fixture) total(t *testing.T) decimal.Decimal {
	t.Helper()
	total, err := f.agg.Total(context.Background())
	require.NoError(t, err)
	return total
}

func TestAggregator_AddToCartScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, pen())

	line, err := f.agg.AddToCart(ctx, "p-1", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, line.Amount)
	assert.Equal(t, 2, f.balance(t, "p-1"))
	assert.True(t, f.total(t).Equal(decimal.RequireFromString("30.00")))
	assert.Equal(t, "3 x Pen added to cart", f.sink.last().Message)

	_, err = f.agg.AddToCart(ctx, "p-1", 2)
	require.NoError(t, err)
	assert.Equal(t, 0, f.balance(t, "p-1"))
	assert.True(t, f.total(t).Equal(decimal.RequireFromString("50.00")))

	lines, err := f.agg.Lines(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Amount)

	_, err = f.agg.AddToCart(ctx, "p-1", 1)
	assert.True(t, failure.IsValidation(err))
	assert.Equal(t, notification.SeverityError, f.sink.last().Severity)
	assert.Equal(t, 0, f.balance(t, "p-1"))
	assert.True(t, f.total(t).Equal(decimal.RequireFromString("50.00")))
}

func TestAggregator_AddToCartRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, pen())

	for name, tc := range map[string]struct {
		id  string
		qty int
	}{
		"zero":     {"p-1", 0},
		"negative": {"p-1", -2},
		"too many": {"p-1", 6},
		"unknown":  {"p-404", 1},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.agg.AddToCart(ctx, tc.id, tc.qty)
			var verr *failure.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.NotEmpty(t, verr.Violations)
		})
	}

	assert.Equal(t, 5, f.balance(t, "p-1"))
	lines, err := f.agg.Lines(ctx)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestAggregator_AddSelectedResetsSelector(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, pen())

	require.NoError(t, f.catalog.Select(ctx, "p-1", 4))
	_, err := f.agg.AddSelected(ctx, "p-1")
	require.NoError(t, err)

	rows, err := f.catalog.Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, rows[0].Selector.Selected)
	assert.Equal(t, 1, rows[0].Selector.Max)

	_, err = f.agg.AddSelected(ctx, "p-1")
	assert.True(t, failure.IsValidation(err), "nothing selected")
}

func TestAggregator_RemoveLineReleasesStock(t *testing.T) {
	ctx := context.Background()
	notebook := domcatalog.Product{ID: "p-2", Name: "Notebook", Price: decimal.RequireFromString("4.25"), Balance: 3}
	f := newFixture(t, pen(), notebook)

	_, err := f.agg.AddToCart(ctx, "p-1", 2)
	require.NoError(t, err)
	_, err = f.agg.AddToCart(ctx, "p-2", 1)
	require.NoError(t, err)

	require.NoError(t, f.agg.RemoveLine(ctx, "p-1"))
	assert.Equal(t, 5, f.balance(t, "p-1"))
	assert.True(t, f.total(t).Equal(decimal.RequireFromString("4.25")))

	assert.ErrorIs(t, f.agg.RemoveLine(ctx, "p-1"), ErrLineNotFound)

	require.NoError(t, f.agg.Discard(ctx))
	assert.Equal(t, 3, f.balance(t, "p-2"))
	assert.True(t, f.total(t).IsZero())
}

func TestAggregator_SettleCommitsInvoicedLines(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, pen())

	_, err := f.agg.AddToCart(ctx, "p-1", 3)
	require.NoError(t, err)
	invoiced, err := f.agg.Lines(ctx)
	require.NoError(t, err)

	_, err = f.agg.AddToCart(ctx, "p-1", 1)
	require.NoError(t, err)

	require.NoError(t, f.agg.Settle(ctx, invoiced))

	p, err := f.catalog.Product(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Balance)
	assert.Equal(t, 1, p.Reserved)

	lines, err := f.agg.Lines(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, domain.Line{ProductID: "p-1", Name: "Pen", Price: lines[0].Price, Amount: 1}, lines[0])
	assert.True(t, lines[0].Subtotal().Equal(decimal.RequireFromString("10")))
}
