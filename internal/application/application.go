package application

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/notafiscal-console/internal/observability"
	"github.com/Zhima-Mochi/notafiscal-console/internal/observability/logctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const spanPrefix = "UC."

// Instrument holds the RED instruments shared by the use cases of one service.
type Instrument struct {
	tracer       observability.Tracer
	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

// NewInstrument prebinds the service field and resolves instruments from tel.
func NewInstrument(tel observability.Observability, service string) Instrument {
	if tel == nil {
		tel = observability.Nop()
	}
	return Instrument{
		tracer:       tel.Tracer(),
		log:          tel.Logger().With(observability.F("service", service)),
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
	}
}

// Logger is the service logger with no request-scoped fields.
func (i Instrument) Logger() observability.Logger { return i.log }

// Call tracks a single use case execution from Begin to End.
type Call struct {
	useCase string
	span    trace.Span
	start   time.Time
	logger  observability.Logger
	fields  []observability.Field
	ins     Instrument

	Outcome string
	Status  string
}

// Begin opens the span and the request-scoped logger for useCase.
func (i Instrument) Begin(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, *Call) {
	attrs = append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)
	ctx, span := i.tracer.Start(ctx, spanPrefix+spanName, attrs...)

	logger := logctx.FromOr(ctx, i.log).With(observability.F("use_case", useCase))
	return ctx, &Call{
		useCase: useCase,
		span:    span,
		start:   time.Now(),
		logger:  logger,
		Outcome: "success",
		Status:  "OK",
		ins:     i,
	}
}

// Fail marks the call as failed with a machine-readable status.
func (c *Call) Fail(status string) {
	c.Outcome, c.Status = "error", status
}

// With adds a field to the final use_case_done entry.
func (c *Call) With(k string, v any) {
	c.fields = append(c.fields, observability.F(k, v))
}

func (c *Call) Span() trace.Span { return c.span }

func (c *Call) Logger() observability.Logger { return c.logger }

// End records metrics, closes the span and writes use_case_done.
func (c *Call) End(ctx context.Context, err error) {
	if err != nil && c.Outcome == "success" {
		c.Fail("ERROR")
	}
	lat := time.Since(c.start).Seconds()

	if c.span != nil {
		if err != nil {
			c.span.RecordError(err)
			c.span.SetStatus(codes.Error, c.Status)
		} else {
			c.span.SetStatus(codes.Ok, c.Status)
		}
		c.span.End()
	}

	c.ins.reqCounter.Add(1,
		observability.L("use_case", c.useCase),
		observability.L("outcome", c.Outcome),
	)
	c.ins.durHistogram.Observe(lat,
		observability.L("use_case", c.useCase),
	)

	fields := []observability.Field{
		observability.F("outcome", c.Outcome),
		observability.F("status", c.Status),
		observability.F("latency_seconds", lat),
	}
	fields = append(fields, logctx.TraceFields(ctx)...)
	fields = append(fields, c.fields...)
	if err != nil {
		fields = append(fields, observability.Err(err))
	}

	c.logger.Info("use_case_done", fields...)
}
