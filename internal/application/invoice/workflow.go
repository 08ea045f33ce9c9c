package invoice

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Zhima-Mochi/notafiscal-console/internal/application"
	domain "github.com/Zhima-Mochi/notafiscal-console/internal/domain/invoice"
	"github.com/Zhima-Mochi/notafiscal-console/internal/domain/failure"
	"github.com/Zhima-Mochi/notafiscal-console/internal/domain/notification"
	"github.com/Zhima-Mochi/notafiscal-console/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

const (
	invoiceService  = "invoice-workflow"
	useCaseGenerate = "invoice.generate"
	useCaseLoadOpen = "invoice.load_open"
	useCasePrint    = "invoice.print"
	notifyTitle     = "Invoice"
)

// State is the view status of the invoice screens.
type State struct {
	Loading    bool
	Generating bool
	Printing   []string
	Error      string
}

// PrintResult is a closed invoice and, when a printer is configured, its PDF path.
type PrintResult struct {
	Invoice domain.Invoice
	File    string
}

// Workflow turns the cart into invoices and closes them on request.
type Workflow struct {
	repo    domain.Repository
	billing BillingGateway
	cart    Cart
	printer Printer
	sink    notification.Sink
	ins     application.Instrument

	mu         sync.Mutex
	generating bool
	printing   map[string]struct{}
	loading    bool
	lastErr    string
}

// NewWorkflow wires the workflow; printer may be nil to skip PDF output.
func NewWorkflow(
	repo domain.Repository,
	billing BillingGateway,
	cart Cart,
	printer Printer,
	sink notification.Sink,
	tel observability.Observability,
) *Workflow {
	return &Workflow{
		repo:     repo,
		billing:  billing,
		cart:     cart,
		printer:  printer,
		sink:     sink,
		ins:      application.NewInstrument(tel, invoiceService),
		printing: make(map[string]struct{}),
	}
}

// GenerateInvoice submits the cart as a new invoice. On success the invoiced
// reservations are committed and the cart is emptied; on failure nothing changes.
func (w *Workflow) GenerateInvoice(ctx context.Context) (_ domain.Invoice, err error) {
	ctx, call := w.ins.Begin(ctx, useCaseGenerate, "GenerateInvoice")
	defer func() { call.End(ctx, err) }()

	if !w.acquireGenerate() {
		call.Fail("IN_FLIGHT")
		return domain.Invoice{}, failure.ErrInFlight
	}
	defer w.releaseGenerate()

	lines, err := w.cart.Lines(ctx)
	if err != nil {
		call.Fail("CART_READ_FAILED")
		return domain.Invoice{}, fmt.Errorf("invoice: generate: %w", err)
	}
	if len(lines) == 0 {
		call.Fail("CART_EMPTY")
		msg := "add at least one product to the cart"
		w.sink.Notify(ctx, notification.SeverityError, notifyTitle, msg)
		return domain.Invoice{}, failure.Validation(msg, failure.Violation{Field: "products", Rule: "min", Param: "1"})
	}
	call.Span().SetAttributes(attribute.Int("invoice.lines", len(lines)))

	created, err := w.billing.CreateInvoice(ctx, domain.FromLines(lines))
	if err != nil {
		call.Fail("GATEWAY_FAILED")
		w.sink.Notify(ctx, notification.SeverityError, notifyTitle, failure.UserMessage(err))
		return domain.Invoice{}, fmt.Errorf("invoice: generate: %w", err)
	}

	if err := w.cart.Settle(ctx, lines); err != nil {
		// The invoice exists on the server; the cart keeps its lines.
		call.Logger().Error("cart_settle_failed",
			observability.F("invoice_code", created.Code),
			observability.Err(err),
		)
	}

	call.With("invoice_code", created.Code)
	w.sink.Notify(ctx, notification.SeveritySuccess, "", invoiceCreatedText(created))
	return created, nil
}

// LoadOpenInvoices replaces the displayed open list. A failure keeps the old
// list and sets the error text until the next successful load.
func (w *Workflow) LoadOpenInvoices(ctx context.Context) (_ []domain.Invoice, err error) {
	ctx, call := w.ins.Begin(ctx, useCaseLoadOpen, "LoadOpenInvoices")
	defer func() { call.End(ctx, err) }()

	w.setLoading(true)
	defer w.setLoading(false)

	invoices, err := w.billing.ListOpenInvoices(ctx)
	if err != nil {
		call.Fail("GATEWAY_FAILED")
		w.setError(failure.UserMessage(err))
		return nil, fmt.Errorf("invoice: load open: %w", err)
	}
	if err := w.repo.ReplaceOpen(ctx, invoices); err != nil {
		call.Fail("REPO_REPLACE_FAILED")
		return nil, fmt.Errorf("invoice: load open: %w", err)
	}

	w.setError("")
	call.With("invoices", len(invoices))
	return invoices, nil
}

// PrintInvoice closes the invoice identified by code, refreshes the open list
// and renders the closed invoice when a printer is configured.
func (w *Workflow) PrintInvoice(ctx context.Context, code string) (_ PrintResult, err error) {
	code = strings.TrimSpace(code)
	ctx, call := w.ins.Begin(ctx, useCasePrint, "PrintInvoice",
		attribute.String("invoice.code", code),
	)
	defer func() { call.End(ctx, err) }()

	if code == "" {
		call.Fail("CODE_MISSING")
		return PrintResult{}, failure.Validation("invoice code is required",
			failure.Violation{Field: "code", Rule: "required"})
	}
	if !w.acquirePrint(code) {
		call.Fail("IN_FLIGHT")
		return PrintResult{}, failure.ErrInFlight
	}
	defer w.releasePrint(code)

	closed, err := w.billing.CloseInvoice(ctx, code)
	if err != nil {
		call.Fail("GATEWAY_FAILED")
		w.sink.Notify(ctx, notification.SeverityError, notifyTitle, failure.UserMessage(err))
		return PrintResult{}, fmt.Errorf("invoice: print %s: %w", code, err)
	}
	if closed.Code == "" {
		closed.Code = code
	}

	if _, lerr := w.LoadOpenInvoices(ctx); lerr != nil {
		call.Logger().Warn("open_invoices_reload_failed", observability.Err(lerr))
	}

	res := PrintResult{Invoice: closed}
	if w.printer != nil {
		file, perr := w.printer.Print(ctx, closed)
		if perr != nil {
			call.Logger().Error("invoice_render_failed", observability.Err(perr))
			w.sink.Notify(ctx, notification.SeverityWarn, notifyTitle,
				fmt.Sprintf("invoice %s closed but could not be rendered", code))
			return res, nil
		}
		res.File = file
		call.With("file", file)
	}

	w.sink.Notify(ctx, notification.SeveritySuccess, "", fmt.Sprintf("invoice %s printed", code))
	return res, nil
}

// OpenInvoices is the list as of the last successful load.
func (w *Workflow) OpenInvoices(ctx context.Context) ([]domain.Invoice, error) {
	return w.repo.ListOpen(ctx)
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	printing := make([]string, 0, len(w.printing))
	for code := range w.printing {
		printing = append(printing, code)
	}
	sort.Strings(printing)
	return State{
		Loading:    w.loading,
		Generating: w.generating,
		Printing:   printing,
		Error:      w.lastErr,
	}
}

func (w *Workflow) acquireGenerate() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.generating {
		return false
	}
	w.generating = true
	return true
}

func (w *Workflow) releaseGenerate() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.generating = false
}

func (w *Workflow) acquirePrint(code string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, busy := w.printing[code]; busy {
		return false
	}
	w.printing[code] = struct{}{}
	return true
}

func (w *Workflow) releasePrint(code string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.printing, code)
}

func (w *Workflow) setLoading(v bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loading = v
}

func (w *Workflow) setError(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastErr = msg
}

func invoiceCreatedText(inv domain.Invoice) string {
	if inv.Code == "" {
		return "invoice created"
	}
	return fmt.Sprintf("invoice %s created, total %s", inv.Code, inv.TotalValue.StringFixed(2))
}
