package notification

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	domain "github.com/Zhima-Mochi/notafiscal-console/internal/domain/notification"
	domoutbox "github.com/Zhima-Mochi/notafiscal-console/internal/domain/outbox"
	"github.com/Zhima-Mochi/notafiscal-console/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/notafiscal-console/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeed_BoundedAndOrdered(t *testing.T) {
	feed := NewFeed(3)
	for i := 0; i < 5; i++ {
		feed.Append(domain.New(domain.SeverityInfo, "", fmt.Sprintf("m%d", i)))
	}

	recent := feed.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "m3", recent[0].Message)
	assert.Equal(t, "m4", recent[1].Message)

	all := feed.Drain()
	require.Len(t, all, 3)
	assert.Equal(t, "m2", all[0].Message)
	assert.Equal(t, 0, feed.Len())
	assert.Empty(t, feed.Recent(0))
}

func TestSinkDeliversInDisplayOrder(t *testing.T) {
	ctx := context.Background()
	bus := outbox.NewBus(observability.NopLogger())
	feed := NewFeed(10)
	NewWorker(bus, feed, observability.Nop()).Start()
	bus.Start(ctx)

	sink := NewService(bus, observability.NopLogger())
	sink.Notify(ctx, domain.SeveritySuccess, "", "3 x Pen added to cart")
	sink.Notify(ctx, domain.SeverityError, "Invoice", "billing unavailable")
	sink.Notify(ctx, domain.SeverityInfo, "", "bye")

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	bus.Stop(stopCtx)

	got := feed.Recent(0)
	require.Len(t, got, 3)
	assert.Equal(t, "Success", got[0].Title)
	assert.Equal(t, "Invoice", got[1].Title)
	assert.Equal(t, domain.SeverityError, got[1].Severity)
	assert.Equal(t, "bye", got[2].Message)
	assert.NotEmpty(t, got[0].ID)
}

type failingPublisher struct{ calls int }

func (p *failingPublisher) Publish(context.Context, domoutbox.Event) error {
	p.calls++
	return errors.New("queue full")
}

func TestService_NotifyNeverFails(t *testing.T) {
	pub := &failingPublisher{}
	sink := NewService(pub, nil)

	assert.NotPanics(t, func() {
		sink.Notify(context.Background(), domain.SeverityWarn, "", "careful")
	})
	assert.Equal(t, 1, pub.calls)

	assert.NotPanics(t, func() {
		NewService(nil, nil).Notify(context.Background(), domain.SeverityInfo, "", "nobody listens")
	})
}
