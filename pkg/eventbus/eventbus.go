// Package eventbus publishes and consumes JSON events over NATS core subjects.
package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/richxcame/cod-risk/pkg/logger"
	"go.uber.org/zap"
)

// ErrClosed is returned when publishing on a closed bus
var ErrClosed = errors.New("event bus is closed")

// Event is the envelope carried on every subject
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// Handler processes a single event. A returned error is logged; core NATS has no redelivery.
type Handler func(ctx context.Context, event *Event) error

// NewEvent wraps data in an Event envelope
func NewEvent(eventType, source string, data interface{}) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Data:      raw,
	}, nil
}

// Bus is a thin wrapper over a NATS connection
type Bus struct {
	conn *nats.Conn

	mu     sync.Mutex
	subs   []*nats.Subscription
	closed bool
}

// Connect dials NATS and returns a Bus that reconnects forever
func Connect(url, name string) (*Bus, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			logger.Error("nats async error", zap.String("subject", subject), zap.Error(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	logger.Info("connected to nats", zap.String("url", conn.ConnectedUrl()))
	return NewBus(conn), nil
}

// NewBus wraps an existing connection
func NewBus(conn *nats.Conn) *Bus {
	return &Bus{conn: conn}
}

// Conn returns the underlying connection, for health checks
func (b *Bus) Conn() *nats.Conn {
	return b.conn
}

// Publish sends event on subject
func (b *Bus) Publish(ctx context.Context, subject string, event *Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	closed := b.closed || b.conn == nil
	b.mu.Unlock()
	if closed {
		return ErrClosed
	}

	if event.CorrelationID == "" {
		event.CorrelationID = logger.CorrelationIDFromContext(ctx)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Type, err)
	}
	if err := b.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe registers handler on subject within a queue group, so each event
// is handled by one member of the group
func (b *Bus) Subscribe(ctx context.Context, subject, queue string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.conn == nil {
		return ErrClosed
	}

	sub, err := b.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		dispatch(ctx, msg.Subject, msg.Data, handler)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	b.subs = append(b.subs, sub)
	return nil
}

// Close drains subscriptions and closes the connection
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true

	for _, sub := range b.subs {
		if err := sub.Drain(); err != nil {
			logger.Warn("failed to drain subscription", zap.String("subject", sub.Subject), zap.Error(err))
		}
	}
	if b.conn != nil {
		if err := b.conn.Drain(); err != nil {
			b.conn.Close()
		}
	}
}

func dispatch(ctx context.Context, subject string, data []byte, handler Handler) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		logger.Error("dropping malformed event", zap.String("subject", subject), zap.Error(err))
		return
	}

	if event.CorrelationID != "" {
		ctx = logger.ContextWithCorrelationID(ctx, event.CorrelationID)
	}

	start := time.Now()
	if err := handler(ctx, &event); err != nil {
		logger.WithContext(ctx).Error("event handler failed",
			zap.String("subject", subject),
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return
	}

	logger.WithContext(ctx).Debug("event handled",
		zap.String("subject", subject),
		zap.String("event_id", event.ID),
		zap.Duration("elapsed", time.Since(start)),
	)
}
