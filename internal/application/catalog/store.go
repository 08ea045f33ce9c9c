package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/Zhima-Mochi/notafiscal-console/internal/application"
	domain "github.com/Zhima-Mochi/notafiscal-console/internal/domain/catalog"
	"github.com/Zhima-Mochi/notafiscal-console/internal/domain/failure"
	"github.com/Zhima-Mochi/notafiscal-console/internal/domain/notification"
	"github.com/Zhima-Mochi/notafiscal-console/internal/observability"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
)

const (
	catalogService      = "catalog-store"
	useCaseLoad         = "catalog.load"
	useCaseCreate       = "catalog.create_product"
	notifyLoadTitle     = "Products"
	notifyCreateTitle   = "New product"
	errLoadProductsText = "could not load products"
)

// Row is one catalog line as displayed, with its quantity selector.
type Row struct {
	Product  *domain.Product
	Selector domain.Selector
}

// State is the view status of the catalog.
type State struct {
	Loading bool
	Error   string
}

// Store owns the product list, its reservations and the per-row selectors.
// It is the only place stock balances change.
type Store struct {
	repo     domain.Repository
	gateway  StockGateway
	sink     notification.Sink
	validate *validator.Validate
	ins      application.Instrument

	// stockMu serializes read-modify-write cycles on products.
	stockMu sync.Mutex

	mu       sync.RWMutex
	loading  bool
	lastErr  string
	selected map[string]int
	draft    domain.Draft
}

func NewStore(repo domain.Repository, gateway StockGateway, sink notification.Sink, tel observability.Observability) *Store {
	return &Store{
		repo:     repo,
		gateway:  gateway,
		sink:     sink,
		validate: newValidator(),
		ins:      application.NewInstrument(tel, catalogService),
		selected: make(map[string]int),
	}
}

// Load replaces the product list with the stock service's, keeping
// outstanding reservations applied on top of the fresh balances.
func (s *Store) Load(ctx context.Context) (_ []*domain.Product, err error) {
	ctx, call := s.ins.Begin(ctx, useCaseLoad, "LoadProducts")
	defer func() { call.End(ctx, err) }()

	s.setLoading(true)
	defer s.setLoading(false)

	fresh, err := s.gateway.ListProducts(ctx)
	if err != nil {
		call.Fail("GATEWAY_FAILED")
		s.setError(failure.UserMessage(err))
		s.sink.Notify(ctx, notification.SeverityError, notifyLoadTitle, failure.UserMessage(err))
		return nil, fmt.Errorf("catalog: load: %w", err)
	}

	s.stockMu.Lock()
	defer s.stockMu.Unlock()

	current, err := s.repo.List(ctx)
	if err != nil {
		call.Fail("REPO_LIST_FAILED")
		return nil, fmt.Errorf("catalog: load: %w", err)
	}
	reserved := make(map[string]int, len(current))
	for _, p := range current {
		if p.Reserved > 0 {
			reserved[p.ID] = p.Reserved
		}
	}

	products := make([]*domain.Product, 0, len(fresh))
	for i := range fresh {
		p := fresh[i].Clone()
		p.Reserved = 0
		p.Rebase(reserved[p.ID])
		products = append(products, p)
	}
	if err := s.repo.ReplaceAll(ctx, products); err != nil {
		call.Fail("REPO_REPLACE_FAILED")
		return nil, fmt.Errorf("catalog: load: %w", err)
	}

	s.mu.Lock()
	selected := make(map[string]int, len(products))
	for _, p := range products {
		selected[p.ID] = clamp(s.selected[p.ID], p.Balance)
	}
	s.selected = selected
	s.lastErr = ""
	s.mu.Unlock()

	call.With("products", len(products))
	call.With("reserved_products", len(reserved))
	return products, nil
}

// CreateProduct validates the draft locally, then creates it on the stock service.
func (s *Store) CreateProduct(ctx context.Context, draft domain.Draft) (_ *domain.Product, err error) {
	ctx, call := s.ins.Begin(ctx, useCaseCreate, "CreateProduct",
		attribute.String("product.name", draft.Name),
	)
	defer func() { call.End(ctx, err) }()

	draft.Normalize()
	s.mu.Lock()
	s.draft = draft
	s.mu.Unlock()

	if err := validateDraft(s.validate, draft); err != nil {
		call.Fail("DRAFT_INVALID")
		s.sink.Notify(ctx, notification.SeverityError, notifyCreateTitle, failure.UserMessage(err))
		return nil, err
	}

	created, err := s.gateway.CreateProduct(ctx, draft)
	if err != nil {
		call.Fail("GATEWAY_FAILED")
		s.sink.Notify(ctx, notification.SeverityError, notifyCreateTitle, failure.UserMessage(err))
		return nil, fmt.Errorf("catalog: create product: %w", err)
	}

	product := created.Clone()
	product.Reserved = 0
	if err := s.repo.Save(ctx, product); err != nil {
		call.Fail("REPO_SAVE_FAILED")
		return nil, fmt.Errorf("catalog: create product: %w", err)
	}

	s.mu.Lock()
	s.selected[product.ID] = 0
	s.draft = domain.Draft{}
	s.mu.Unlock()

	call.With("product_id", product.ID)
	s.sink.Notify(ctx, notification.SeveritySuccess, "", fmt.Sprintf("product %s created", product.Name))
	return product, nil
}

// Select sets the quantity picked on a row; it must stay within 0..balance.
func (s *Store) Select(ctx context.Context, productID string, quantity int) error {
	p, err := s.repo.Get(ctx, productID)
	if err != nil {
		return fmt.Errorf("catalog: select: %w", err)
	}
	sel := domain.Selector{ProductID: p.ID, Selected: quantity, Max: p.Balance}
	if !sel.Accepts(quantity) {
		return failure.Validation(
			fmt.Sprintf("quantity must be between 0 and %d", p.Balance),
			failure.Violation{Field: "quantity", Rule: "range", Param: fmt.Sprintf("0-%d", p.Balance)},
		)
	}

	s.mu.Lock()
	s.selected[p.ID] = quantity
	s.mu.Unlock()
	return nil
}

// Selected returns the quantity picked on the row for productID.
func (s *Store) Selected(productID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected[productID]
}

// ResetSelector sets the row back to 0 after its quantity has been used.
func (s *Store) ResetSelector(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.selected[productID]; ok {
		s.selected[productID] = 0
	}
}

func (s *Store) Reserve(ctx context.Context, productID string, quantity int) (*domain.Product, error) {
	return s.mutate(ctx, productID, func(p *domain.Product) error { return p.Reserve(quantity) })
}

func (s *Store) Release(ctx context.Context, productID string, quantity int) (*domain.Product, error) {
	return s.mutate(ctx, productID, func(p *domain.Product) error { return p.Release(quantity) })
}

func (s *Store) Commit(ctx context.Context, productID string, quantity int) (*domain.Product, error) {
	return s.mutate(ctx, productID, func(p *domain.Product) error { return p.Commit(quantity) })
}

func (s *Store) mutate(ctx context.Context, productID string, apply func(*domain.Product) error) (*domain.Product, error) {
	s.stockMu.Lock()
	defer s.stockMu.Unlock()

	p, err := s.repo.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := apply(p); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("catalog: save: %w", err)
	}

	s.mu.Lock()
	s.selected[p.ID] = clamp(s.selected[p.ID], p.Balance)
	s.mu.Unlock()
	return p, nil
}

func (s *Store) Product(ctx context.Context, productID string) (*domain.Product, error) {
	return s.repo.Get(ctx, productID)
}

func (s *Store) Products(ctx context.Context) ([]*domain.Product, error) {
	return s.repo.List(ctx)
}

// Rows pairs every product with its selector, in catalog order.
func (s *Store) Rows(ctx context.Context) ([]Row, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]Row, 0, len(products))
	for _, p := range products {
		rows = append(rows, Row{
			Product: p,
			Selector: domain.Selector{
				ProductID: p.ID,
				Selected:  clamp(s.selected[p.ID], p.Balance),
				Max:       p.Balance,
			},
		})
	}
	return rows, nil
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{Loading: s.loading, Error: s.lastErr}
}

// Draft is the last submitted, not yet created, product form.
func (s *Store) Draft() domain.Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft
}

func (s *Store) setLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

func (s *Store) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg == "" {
		msg = errLoadProductsText
	}
	s.lastErr = msg
}

func clamp(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}
