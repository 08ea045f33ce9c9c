package notification

import (
	"context"

	domain "github.com/Zhima-Mochi/notafiscal-console/internal/domain/notification"
	domoutbox "github.com/Zhima-Mochi/notafiscal-console/internal/domain/outbox"
	"github.com/Zhima-Mochi/notafiscal-console/internal/observability"
	"github.com/Zhima-Mochi/notafiscal-console/internal/observability/logctx"
)

const workerService = "notification_worker"

// Worker delivers published notifications to the feed and the log.
type Worker struct {
	subscriber domoutbox.Subscriber
	feed       *Feed

	log     observability.Logger
	counter observability.Counter // notifications_total{severity}
}

func NewWorker(subscriber domoutbox.Subscriber, feed *Feed, tel observability.Observability) *Worker {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Worker{
		subscriber: subscriber,
		feed:       feed,
		log:        tel.Logger().With(observability.F("service", workerService)),
		counter:    tel.Metrics().Counter(observability.MNotifications),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.feed == nil {
		return
	}
	w.subscriber.Subscribe(domain.Notification{}.EventName(), w.handle)
}

func (w *Worker) handle(ctx context.Context, e domoutbox.Event) error {
	n, ok := e.(domain.Notification)
	if !ok {
		return nil
	}

	w.feed.Append(n)
	w.counter.Add(1, observability.L("severity", string(n.Severity)))

	fields := []observability.Field{
		observability.F("notification_id", n.ID),
		observability.F("severity", string(n.Severity)),
		observability.F("title", n.Title),
		observability.F("message", n.Message),
	}
	logger := logctx.FromOr(ctx, w.log)
	if n.Severity == domain.SeverityError {
		logger.Warn("notification", fields...)
	} else {
		logger.Info("notification", fields...)
	}
	return nil
}
