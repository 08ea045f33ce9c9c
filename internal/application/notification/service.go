package notification

import (
	"context"
	"time"

	domain "github.com/Zhima-Mochi/notafiscal-console/internal/domain/notification"
	domoutbox "github.com/Zhima-Mochi/notafiscal-console/internal/domain/outbox"
	"github.com/Zhima-Mochi/notafiscal-console/internal/observability"
	"github.com/Zhima-Mochi/notafiscal-console/internal/observability/logctx"
)

const publishTimeout = 300 * time.Millisecond

// Service is the Sink handed to every use case. It publishes each
// notification on the bus and never reports failures to the caller.
type Service struct {
	publisher domoutbox.Publisher
	log       observability.Logger
}

var _ domain.Sink = (*Service)(nil)

func NewService(publisher domoutbox.Publisher, logger observability.Logger) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		publisher: publisher,
		log:       logger.With(observability.F("component", "notification_sink")),
	}
}

func (s *Service) Notify(ctx context.Context, severity domain.Severity, title, message string) {
	n := domain.New(severity, title, message)
	if s.publisher == nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, n); err != nil {
		logctx.FromOr(ctx, s.log).Warn("notification_dropped",
			observability.F("notification_id", n.ID),
			observability.F("severity", string(n.Severity)),
			observability.Err(err),
		)
	}
}
