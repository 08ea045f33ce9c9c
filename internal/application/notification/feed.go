package notification

import (
	"sync"

	domain "github.com/Zhima-Mochi/notafiscal-console/internal/domain/notification"
)

const defaultFeedSize = 50

// Feed is a bounded, ordered buffer of delivered notifications.
// The oldest entry is evicted once capacity is reached.
type Feed struct {
	mu    sync.Mutex
	size  int
	items []domain.Notification
}

func NewFeed(size int) *Feed {
	if size <= 0 {
		size = defaultFeedSize
	}
	return &Feed{size: size}
}

func (f *Feed) Append(n domain.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.items = append(f.items, n)
	if over := len(f.items) - f.size; over > 0 {
		f.items = append(f.items[:0:0], f.items[over:]...)
	}
}

// Recent returns up to n of the newest notifications, oldest first.
// n <= 0 returns everything held.
func (f *Feed) Recent(n int) []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	start := 0
	if n > 0 && n < len(f.items) {
		start = len(f.items) - n
	}
	return append([]domain.Notification(nil), f.items[start:]...)
}

// Drain returns every notification held and empties the feed.
func (f *Feed) Drain() []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := f.items
	f.items = nil
	return out
}

func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}
