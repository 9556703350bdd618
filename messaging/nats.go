package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/nats-io/nats.go"
)

// NATSConfig configures the NATS bus connection
type NATSConfig struct {
	URL           string
	Name          string
	FlushTimeout  time.Duration
	DrainTimeout  time.Duration
	ReconnectWait time.Duration
}

// NATSBus is a Bus backed by one long-lived NATS connection shared by every publish and subscription
type NATSBus struct {
	conn         *nats.Conn
	flushTimeout time.Duration
	drainTimeout time.Duration
	closed       chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	subs []*nats.Subscription
}

// ConnectNATS dials NATS once. The connection reconnects forever until Close.
func ConnectNATS(cfg NATSConfig) (*NATSBus, error) {
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = 5 * time.Second
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 10 * time.Second
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = 2 * time.Second
	}

	closed := make(chan struct{})
	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnw("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Infow("nats reconnected", "url", c.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			close(closed)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", cfg.URL, err)
	}

	log.Infow("connected to nats", "url", conn.ConnectedUrl(), "name", cfg.Name)

	ctx, cancel := context.WithCancel(context.Background())
	return &NATSBus{
		conn:         conn,
		flushTimeout: cfg.FlushTimeout,
		drainTimeout: cfg.DrainTimeout,
		closed:       closed,
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// Publish sends the event on events.<type> and waits for the server to acknowledge the flush
func (b *NATSBus) Publish(ctx context.Context, event DomainEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", event.EventID, err)
	}

	subject := Subject(event.EventType)
	if err := b.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	if err := b.conn.FlushTimeout(b.flushTimeout); err != nil {
		return fmt.Errorf("failed to flush %s: %w", subject, err)
	}

	log.Debugw("event published", "subject", subject, "eventId", event.EventID)
	return nil
}

// Subscribe delivers events of eventType to handler one message at a time.
// Malformed envelopes and mismatched event types are logged and dropped.
func (b *NATSBus) Subscribe(eventType string, handler Handler) error {
	if handler == nil {
		return ErrNilHandler
	}
	if b.conn.IsClosed() {
		return ErrBusClosed
	}

	subject := Subject(eventType)
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		dispatch(b.ctx, eventType, msg.Data, handler)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	log.Infow("subscribed", "subject", subject)
	return nil
}

// Close drains subscriptions and pending publishes, then closes the connection
func (b *NATSBus) Close() error {
	if b.conn.IsClosed() {
		return nil
	}

	defer b.cancel()

	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
		return fmt.Errorf("failed to drain nats connection: %w", err)
	}

	select {
	case <-b.closed:
	case <-time.After(b.drainTimeout):
		log.Warn("nats drain timed out, closing connection")
		b.conn.Close()
	}
	return nil
}

// IsConnected reports whether the underlying connection is currently up
func (b *NATSBus) IsConnected() bool {
	return b.conn.IsConnected()
}

func dispatch(ctx context.Context, eventType string, data []byte, handler Handler) {
	var event DomainEvent
	if err := json.Unmarshal(data, &event); err != nil {
		log.Errorw("dropping malformed event", "eventType", eventType, "error", err)
		return
	}
	if event.EventType != eventType {
		log.Warnw("dropping event with unexpected type", "want", eventType, "got", event.EventType, "eventId", event.EventID)
		return
	}

	if err := handler(ctx, event); err != nil {
		log.Errorw("event handler failed", "eventType", eventType, "eventId", event.EventID, "error", err)
	}
}
