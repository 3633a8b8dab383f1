package events

import (
	"context"
	"errors"
	"sync"
)

// Local delivers events to in-process handlers. It stands in for the
// broker when no AMQP URL is configured.
type Local struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Subscribe(h Handler) {
	l.mu.Lock()
	l.handlers = append(l.handlers, h)
	l.mu.Unlock()
}

// Publish runs every handler in subscription order and joins their errors.
func (l *Local) Publish(ctx context.Context, e Event) error {
	l.mu.RLock()
	handlers := append([]Handler(nil), l.handlers...)
	l.mu.RUnlock()
	var errs []error
	for _, h := range handlers {
		if err := h(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
