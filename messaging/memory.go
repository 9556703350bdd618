package messaging

import (
	"context"
	"encoding/json"
	"sync"
)

// InMemoryBus delivers events synchronously inside one process.
// Every published event is kept so callers can inspect what was sent.
type InMemoryBus struct {
	mu        sync.RWMutex
	handlers  map[string][]Handler
	published []DomainEvent
	closed    bool

	// PublishErr, when set, is returned by Publish without delivering the event
	PublishErr error
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
	}
}

func (b *InMemoryBus) Subscribe(eventType string, handler Handler) error {
	if handler == nil {
		return ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// Publish round-trips the event through JSON, then runs each handler in subscription order
func (b *InMemoryBus) Publish(ctx context.Context, event DomainEvent) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBusClosed
	}
	if b.PublishErr != nil {
		b.mu.Unlock()
		return b.PublishErr
	}
	b.published = append(b.published, event)
	handlers := append([]Handler(nil), b.handlers[event.EventType]...)
	b.mu.Unlock()

	if len(handlers) == 0 {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	for _, h := range handlers {
		dispatch(ctx, event.EventType, payload, h)
	}
	return nil
}

// Published returns a copy of every event accepted so far
func (b *InMemoryBus) Published() []DomainEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]DomainEvent(nil), b.published...)
}

// PublishedOfType filters Published by event type
func (b *InMemoryBus) PublishedOfType(eventType string) []DomainEvent {
	var out []DomainEvent
	for _, e := range b.Published() {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (b *InMemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = make(map[string][]Handler)
	return nil
}
