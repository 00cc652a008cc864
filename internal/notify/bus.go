package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Listener handles a single notification. Listeners run synchronously on the
// publishing goroutine; long work belongs behind the listener's own queue.
type Listener func(ctx context.Context, n Notification)

// Bus is a synchronous in-process notification dispatcher. Listeners for a
// kind run in registration order. A panicking listener is recovered and
// logged, and dispatch continues with the next listener; there is no
// rollback of listeners that already ran.
type Bus struct {
	mu        sync.RWMutex
	logger    *slog.Logger
	listeners map[Kind][]Listener
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		logger:    logger,
		listeners: make(map[Kind][]Listener),
	}
}

// Subscribe registers a listener for the given kinds.
func (b *Bus) Subscribe(l Listener, kinds ...Kind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range kinds {
		b.listeners[k] = append(b.listeners[k], l)
	}
}

// Publish delivers the notification to all listeners of its kind, in
// registration order, on the calling goroutine.
func (b *Bus) Publish(ctx context.Context, n Notification) {
	b.mu.RLock()
	listeners := b.listeners[n.Kind()]
	b.mu.RUnlock()

	for _, l := range listeners {
		b.dispatch(ctx, l, n)
	}
}

func (b *Bus) dispatch(ctx context.Context, l Listener, n Notification) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.ErrorContext(ctx, "notification listener panicked",
				slog.String("kind", string(n.Kind())),
				slog.Any("panic", rec),
			)
		}
	}()
	l(ctx, n)
}
