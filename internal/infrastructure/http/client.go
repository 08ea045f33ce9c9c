// Package httpgateway talks JSON over HTTP to the stock and billing services.
package httpgateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Zhima-Mochi/notafiscal-console/internal/domain/failure"
	"github.com/Zhima-Mochi/notafiscal-console/internal/observability"
	"github.com/Zhima-Mochi/notafiscal-console/internal/observability/logctx"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
)

const (
	defaultTimeout = 30 * time.Second
	spanPrefix     = "GW."
)

// Options configures one backend client.
type Options struct {
	BaseURL string
	Timeout time.Duration
}

// client is the resty wrapper shared by the stock and billing clients.
type client struct {
	peer  string
	rc    *resty.Client
	tel   observability.Observability
	log   observability.Logger
	prop  propagation.TextMapPropagator
	extRq observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extDu observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func newClient(peer string, opts Options, tel observability.Observability) *client {
	if tel == nil {
		tel = observability.Nop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	rc := resty.New()
	rc.SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)

	return &client{
		peer:  peer,
		rc:    rc,
		tel:   tel,
		log:   tel.Logger().With(observability.F("component", "gateway"), observability.F("peer", peer)),
		prop:  otel.GetTextMapPropagator(),
		extRq: tel.Metrics().Counter(observability.MExternalRequests),
		extDu: tel.Metrics().Histogram(observability.MExternalRequestDuration),
	}
}

// call is one gateway request. endpoint is the low-cardinality route label.
type call struct {
	op       string
	method   string
	endpoint string
	path     string
	body     any
	result   any
}

// do executes c and converts every failure into a *failure.FetchError.
func (cl *client) do(ctx context.Context, c call) (err error) {
	ctx, span := cl.tel.Tracer().Start(ctx, spanPrefix+c.op,
		attribute.String("peer.service", cl.peer),
		attribute.String("http.method", c.method),
		attribute.String("http.route", c.endpoint),
	)
	start := time.Now()
	outcome := "success"
	status := 0

	defer func() {
		lat := time.Since(start).Seconds()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		} else {
			span.SetStatus(codes.Ok, "OK")
		}
		if status > 0 {
			span.SetAttributes(attribute.Int("http.status_code", status))
		}
		span.End()

		cl.extRq.Add(1,
			observability.L("peer", cl.peer),
			observability.L("endpoint", c.endpoint),
			observability.L("outcome", outcome),
		)
		cl.extDu.Observe(lat,
			observability.L("peer", cl.peer),
			observability.L("endpoint", c.endpoint),
		)

		fields := []observability.Field{
			observability.F("op", c.op),
			observability.F("endpoint", c.endpoint),
			observability.F("status", status),
			observability.F("latency_seconds", lat),
		}
		logger := logctx.FromOr(ctx, cl.log)
		if err != nil {
			logger.Warn("gateway_call_failed", append(fields, observability.Err(err))...)
			return
		}
		logger.Debug("gateway_call_done", fields...)
	}()

	req := cl.rc.R().SetContext(ctx).ForceContentType("application/json")
	cl.prop.Inject(ctx, propagation.HeaderCarrier(req.Header))
	if c.body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(c.body)
	}
	if c.result != nil {
		req.SetResult(c.result)
	}

	resp, rerr := req.Execute(c.method, c.path)
	if rerr != nil && resp != nil && resp.RawResponse != nil && resp.IsSuccess() {
		// the call went through; resty failed to unmarshal the result
		outcome = "decode_error"
		status = resp.StatusCode()
		return &failure.FetchError{
			Op:      c.op,
			Status:  status,
			Message: fmt.Sprintf("unexpected response from %s", cl.peer),
			Err:     rerr,
		}
	}
	if rerr != nil {
		outcome = "transport_error"
		if resp != nil {
			status = resp.StatusCode()
		}
		return &failure.FetchError{
			Op:      c.op,
			Status:  status,
			Message: transportMessage(cl.peer, rerr),
			Err:     rerr,
		}
	}

	status = resp.StatusCode()
	if resp.IsError() || status >= http.StatusMultipleChoices {
		outcome = "http_error"
		return &failure.FetchError{
			Op:      c.op,
			Status:  status,
			Message: serverMessage(resp.Body(), status),
		}
	}

	return nil
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

type fieldError struct {
	FailedField string `json:"failedField"`
	Tag         string `json:"tag"`
	Value       string `json:"value"`
}

// serverMessage extracts the user-facing text of an error response. Both
// {"error": "..."} and the field-error array of validation failures are understood.
func serverMessage(body []byte, status int) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		return eb.Error
	}

	var fields []fieldError
	if err := json.Unmarshal(body, &fields); err == nil && len(fields) > 0 {
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			name := f.FailedField
			if i := strings.LastIndex(name, "."); i >= 0 {
				name = name[i+1:]
			}
			parts = append(parts, strings.ToLower(name)+" "+f.Tag)
		}
		return "invalid data: " + strings.Join(parts, ", ")
	}

	if text := http.StatusText(status); text != "" {
		return strings.ToLower(text)
	}
	return fmt.Sprintf("request failed with status %d", status)
}

func transportMessage(peer string, err error) string {
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		return fmt.Sprintf("%s service timed out", peer)
	}
	if errors.Is(err, context.Canceled) {
		return "request canceled"
	}
	return fmt.Sprintf("%s service unreachable", peer)
}
