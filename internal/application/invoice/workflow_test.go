package invoice

import (
	"context"
	"errors"
	"sync"
	"testing"

	domcart "github.com/Zhima-Mochi/notafiscal-console/internal/domain/cart"
	"github.com/Zhima-Mochi/notafiscal-console/internal/domain/failure"
	domain "github.com/Zhima-Mochi/notafiscal-console/internal/domain/invoice"
	"github.com/Zhima-Mochi/notafiscal-console/internal/domain/notification"
	"github.com/Zhima-Mochi/notafiscal-console/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/notafiscal-console/internal/observability"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type billingMock struct{ mock.Mock }

func (m *billingMock) CreateInvoice(ctx context.Context, inv domain.Invoice) (domain.Invoice, error) {
	args := m.Called(ctx, inv)
	return args.Get(0).(domain.Invoice), args.Error(1)
}

func (m *billingMock) ListOpenInvoices(ctx context.Context) ([]domain.Invoice, error) {
	args := m.Called(ctx)
	invoices, _ := args.Get(0).([]domain.Invoice)
	return invoices, args.Error(1)
}

func (m *billingMock) CloseInvoice(ctx context.Context, code string) (domain.Invoice, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(domain.Invoice), args.Error(1)
}

type cartStub struct {
	mu      sync.Mutex
	lines   []domcart.Line
	settled [][]domcart.Line
}

func (c *cartStub) Lines(context.Context) ([]domcart.Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domcart.Line(nil), c.lines...), nil
}

func (c *cartStub) Settle(_ context.Context, invoiced []domcart.Line) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settled = append(c.settled, invoiced)
	c.lines = nil
	return nil
}

type printerStub struct {
	err     error
	printed []string
}

func (p *printerStub) Print(_ context.Context, inv domain.Invoice) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.printed = append(p.printed, inv.Code)
	return "/tmp/" + inv.Code + ".pdf", nil
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

func penLine(amount int) domcart.Line {
	return domcart.Line{ProductID: "p-1", Name: "Pen", Price: decimal.NewFromInt(10), Amount: amount}
}

func newWorkflow(billing BillingGateway, cart Cart, printer Printer) (*Workflow, *sinkStub) {
	sink := &sinkStub{}
	return NewWorkflow(memory.NewInvoiceRepository(), billing, cart, printer, sink, observability.Nop()), sink
}

func TestWorkflow_GenerateInvoice(t *testing.T) {
	ctx := context.Background()
	billing := &billingMock{}
	cart := &cartStub{lines: []domcart.Line{penLine(3)}}
	wf, sink := newWorkflow(billing, cart, nil)

	billing.On("CreateInvoice", mock.Anything, domain.Invoice{Products: []domcart.Line{penLine(3)}}).
		Return(domain.Invoice{ID: "i-1", Code: "NF-1", Status: domain.StatusOpen, TotalValue: decimal.NewFromInt(30)}, nil).Once()

	inv, err := wf.GenerateInvoice(ctx)
	require.NoError(t, err)
	assert.Equal(t, "NF-1", inv.Code)
	require.Len(t, cart.settled, 1)
	assert.Equal(t, 3, cart.settled[0][0].Amount)
	assert.Equal(t, notification.SeveritySuccess, sink.last().Severity)
	assert.Equal(t, "invoice NF-1 created, total 30.00", sink.last().Message)
	assert.False(t, wf.State().Generating)
	billing.AssertExpectations(t)
}

func TestWorkflow_GenerateInvoiceEmptyCart(t *testing.T) {
	billing := &billingMock{}
	wf, sink := newWorkflow(billing, &cartStub{}, nil)

	_, err := wf.GenerateInvoice(context.Background())
	assert.True(t, failure.IsValidation(err))
	assert.Equal(t, notification.SeverityError, sink.last().Severity)
	billing.AssertNotCalled(t, "CreateInvoice", mock.Anything, mock.Anything)
}

func TestWorkflow_GenerateInvoiceFailureKeepsCart(t *testing.T) {
	billing := &billingMock{}
	cart := &cartStub{lines: []domcart.Line{penLine(2)}}
	wf, sink := newWorkflow(billing, cart, nil)

	billing.On("CreateInvoice", mock.Anything, mock.Anything).
		Return(domain.Invoice{}, &failure.FetchError{Op: "create invoice", Status: 500, Message: "Error creating invoice"}).Once()

	_, err := wf.GenerateInvoice(context.Background())
	assert.True(t, failure.IsFetch(err))
	assert.Equal(t, "Error creating invoice", sink.last().Message)
	assert.Empty(t, cart.settled)
	assert.Len(t, cart.lines, 1)
}

type blockingBilling struct {
	billingMock
	entered chan struct{}
	release chan struct{}
}

func (b *blockingBilling) CreateInvoice(context.Context, domain.Invoice) (domain.Invoice, error) {
	close(b.entered)
	<-b.release
	return domain.Invoice{Code: "NF-2"}, nil
}

func (b *blockingBilling) CloseInvoice(_ context.Context, code string) (domain.Invoice, error) {
	close(b.entered)
	<-b.release
	return domain.Invoice{Code: code, Status: domain.StatusClosed}, nil
}

func TestWorkflow_GenerateInvoiceInFlight(t *testing.T) {
	ctx := context.Background()
	billing := &blockingBilling{entered: make(chan struct{}), release: make(chan struct{})}
	wf, _ := newWorkflow(billing, &cartStub{lines: []domcart.Line{penLine(1)}}, nil)

	done := make(chan error, 1)
	go func() {
		_, err := wf.GenerateInvoice(ctx)
		done <- err
	}()
	<-billing.entered

	assert.True(t, wf.State().Generating)
	_, err := wf.GenerateInvoice(ctx)
	assert.ErrorIs(t, err, failure.ErrInFlight)

	close(billing.release)
	require.NoError(t, <-done)
	assert.False(t, wf.State().Generating)
}

func TestWorkflow_PrintInvoiceInFlightPerCode(t *testing.T) {
	ctx := context.Background()
	billing := &blockingBilling{entered: make(chan struct{}), release: make(chan struct{})}
	billing.On("ListOpenInvoices", mock.Anything).Return([]domain.Invoice{}, nil)
	wf, _ := newWorkflow(billing, &cartStub{}, nil)

	done := make(chan error, 1)
	go func() {
		_, err := wf.PrintInvoice(ctx, "NF-1")
		done <- err
	}()
	<-billing.entered

	assert.Equal(t, []string{"NF-1"}, wf.State().Printing)
	_, err := wf.PrintInvoice(ctx, "NF-1")
	assert.ErrorIs(t, err, failure.ErrInFlight)

	close(billing.release)
	require.NoError(t, <-done)
	assert.Empty(t, wf.State().Printing)
}

func TestWorkflow_LoadOpenInvoices(t *testing.T) {
	ctx := context.Background()
	billing := &billingMock{}
	wf, _ := newWorkflow(billing, &cartStub{}, nil)

	billing.On("ListOpenInvoices", mock.Anything).
		Return([]domain.Invoice{{Code: "NF-1", Status: domain.StatusOpen}}, nil).Once()
	invoices, err := wf.LoadOpenInvoices(ctx)
	require.NoError(t, err)
	assert.Len(t, invoices, 1)

	billing.On("ListOpenInvoices", mock.Anything).
		Return(nil, &failure.FetchError{Op: "list open invoices", Message: "billing service unreachable"}).Once()
	_, err = wf.LoadOpenInvoices(ctx)
	require.Error(t, err)
	assert.Equal(t, "billing service unreachable", wf.State().Error)

	kept, err := wf.OpenInvoices(ctx)
	require.NoError(t, err)
	assert.Len(t, kept, 1, "failed load keeps the previous list")

	billing.On("ListOpenInvoices", mock.Anything).Return([]domain.Invoice{}, nil).Once()
	_, err = wf.LoadOpenInvoices(ctx)
	require.NoError(t, err)
	assert.Empty(t, wf.State().Error)
}

func TestWorkflow_PrintInvoice(t *testing.T) {
	ctx := context.Background()
	billing := &billingMock{}
	printer := &printerStub{}
	wf, sink := newWorkflow(billing, &cartStub{}, printer)

	billing.On("CloseInvoice", mock.Anything, "NF-1").
		Return(domain.Invoice{Code: "NF-1", Status: domain.StatusClosed}, nil).Once()
	billing.On("ListOpenInvoices", mock.Anything).Return([]domain.Invoice{}, nil).Once()

	res, err := wf.PrintInvoice(ctx, " NF-1 ")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, res.Invoice.Status)
	assert.Equal(t, "/tmp/NF-1.pdf", res.File)
	assert.Equal(t, []string{"NF-1"}, printer.printed)
	assert.Equal(t, notification.SeveritySuccess, sink.last().Severity)
	billing.AssertExpectations(t)
}

func TestWorkflow_PrintInvoiceFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("missing code", func(t *testing.T) {
		wf, _ := newWorkflow(&billingMock{}, &cartStub{}, nil)
		_, err := wf.PrintInvoice(ctx, "  ")
		assert.True(t, failure.IsValidation(err))
	})

	t.Run("server rejects", func(t *testing.T) {
		billing := &billingMock{}
		wf, sink := newWorkflow(billing, &cartStub{}, nil)
		billing.On("CloseInvoice", mock.Anything, "NF-1").
			Return(domain.Invoice{}, &failure.FetchError{Op: "close invoice", Status: 400, Message: "Invoice is already closed"}).Once()

		_, err := wf.PrintInvoice(ctx, "NF-1")
		assert.True(t, failure.IsFetch(err))
		assert.Equal(t, "Invoice is already closed", sink.last().Message)
		billing.AssertNotCalled(t, "ListOpenInvoices", mock.Anything)
	})

	t.Run("render fails", func(t *testing.T) {
		billing := &billingMock{}
		wf, sink := newWorkflow(billing, &cartStub{}, &printerStub{err: errors.New("disk full")})
		billing.On("CloseInvoice", mock.Anything, "NF-1").Return(domain.Invoice{Status: domain.StatusClosed}, nil).Once()
		billing.On("ListOpenInvoices", mock.Anything).Return([]domain.Invoice{}, nil).Once()

		res, err := wf.PrintInvoice(ctx, "NF-1")
		require.NoError(t, err)
		assert.Equal(t, "NF-1", res.Invoice.Code)
		assert.Empty(t, res.File)
		assert.Equal(t, notification.SeverityWarn, sink.last().Severity)
	})
}
