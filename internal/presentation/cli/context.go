package clipresentation

import (
	"context"

	"github.com/Zhima-Mochi/notafiscal-console/internal/observability"
	"github.com/Zhima-Mochi/notafiscal-console/internal/observability/logctx"
	"github.com/google/uuid"
)

// WithCommandContext injects a request-scoped logger for one CLI invocation.
// Dynamic fields only: command_id (generated if empty), the command name,
// trace_id/span_id when valid, plus caller-provided low-cardinality attributes.
func WithCommandContext(
	ctx context.Context,
	base observability.Logger,
	command string,
	attrs map[string]string,
) context.Context {
	if base == nil {
		base = observability.NopLogger()
	}

	fields := make([]observability.Field, 0, 4+len(attrs))

	cmdID := attrs["command_id"]
	if cmdID == "" {
		cmdID = uuid.NewString()
	}
	fields = append(fields,
		observability.F("command_id", cmdID),
		observability.F("command", command),
	)

	fields = append(fields, logctx.TraceFields(ctx)...)

	for k, v := range attrs {
		if k == "command_id" || v == "" {
			continue
		}
		fields = append(fields, observability.F(k, v))
	}

	return logctx.With(ctx, base.With(fields...))
}
