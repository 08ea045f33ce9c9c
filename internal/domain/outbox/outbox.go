// Package outbox defines the in-process event ports. Use cases publish
// events (notifications) and workers subscribe to them by name.
package outbox

import "context"

// Event is anything published on the bus; EventName selects subscribers.
type Event interface {
	EventName() string
}

// Handler processes one event. A returned error is logged, never retried.
type Handler func(ctx context.Context, e Event) error

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Subscriber interface {
	Subscribe(eventName string, h Handler)
}

// Bus is both ends of the outbox, started before the first Publish and
// stopped once no more events are expected.
type Bus interface {
	Publisher
	Subscriber
	Start(ctx context.Context)
	Stop(ctx context.Context)
}
