package httppresentation

import (
	"strconv"
	"time"

	"github.com/Zhima-Mochi/notafiscal-console/internal/observability"
	"github.com/Zhima-Mochi/notafiscal-console/internal/observability/logctx"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-ID"
	unknownRoute    = "unknown"
)

// ObservabilityMiddleware runs after otelgin and combines:
// - X-Request-ID generation + echo
// - request-scoped logger injection (dynamic fields only)
// - HTTP metrics (counter + histogram) with low-cardinality labels
// - a single access log line per request
func ObservabilityMiddleware(base observability.Logger, tel observability.Observability) gin.HandlerFunc {
	if tel == nil {
		tel = observability.Nop()
	}
	if base == nil {
		base = tel.Logger()
	}
	requests := tel.Metrics().Counter(observability.MHTTPRequests)
	durations := tel.Metrics().Histogram(observability.MHTTPRequestDuration)

	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(headerRequestID, rid)

		ctx := c.Request.Context()
		fields := append([]observability.Field{observability.F("request_id", rid)}, logctx.TraceFields(ctx)...)
		reqLogger := base.With(fields...)
		c.Request = c.Request.WithContext(logctx.With(ctx, reqLogger))

		c.Next()

		route := c.FullPath() // low-cardinality template
		if route == "" {
			route = unknownRoute
		}
		status := strconv.Itoa(c.Writer.Status())
		lat := time.Since(start)

		requests.Add(1,
			observability.L("method", c.Request.Method),
			observability.L("route", route),
			observability.L("status", status),
		)
		durations.Observe(lat.Seconds(),
			observability.L("method", c.Request.Method),
			observability.L("route", route),
			observability.L("status", status),
		)

		reqLogger.Info("http_access",
			observability.F("method", c.Request.Method),
			observability.F("route", route),
			observability.F("path", c.Request.URL.Path),
			observability.F("status", c.Writer.Status()),
			observability.F("latency_ms", lat.Milliseconds()),
		)
	}
}
