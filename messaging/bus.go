package messaging

import (
	"context"
	"errors"
)

var (
	ErrBusClosed  = errors.New("event bus is closed")
	ErrNilHandler = errors.New("handler cannot be nil")
)

// Handler processes one event. Returned errors are logged by the bus; the message is not redelivered.
type Handler func(ctx context.Context, event DomainEvent) error

// Publisher publishes domain events
type Publisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}

// Subscriber registers handlers per event type
type Subscriber interface {
	Subscribe(eventType string, handler Handler) error
}

// Bus is a Publisher and Subscriber with a lifecycle
type Bus interface {
	Publisher
	Subscriber
	Close() error
}
