// Package events publishes cart change notifications to NATS.
//
// Every written mutation becomes one JSON message on subject
// {prefix}.{op}, for example:
//
//	cart.changed.add
//	cart.changed.set_quantity
//
// Subscribers that only care that something changed can listen on
// {prefix}.>.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/cartd/internal/cart"
)

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "cart.changed"

// Event is the message body published for a cart change.
type Event struct {
	ID        string      `json:"id"`
	Key       string      `json:"key,omitempty"`
	Op        cart.Op     `json:"op"`
	ItemID    int         `json:"item_id"`
	Changed   bool        `json:"changed"`
	ItemCount int         `json:"item_count"`
	Total     int64       `json:"total"`
	Lines     []cart.Line `json:"lines"`
	Degraded  bool        `json:"degraded,omitempty"`
	At        time.Time   `json:"at"`
}

// NewEvent builds the event for change.
func NewEvent(key string, change cart.Change) Event {
	lines := change.Snapshot.Lines
	if lines == nil {
		lines = []cart.Line{}
	}
	return Event{
		ID:        uuid.New().String(),
		Key:       key,
		Op:        change.Op,
		ItemID:    change.ItemID,
		Changed:   change.Changed,
		ItemCount: change.Snapshot.ItemCount,
		Total:     change.Snapshot.Total,
		Lines:     lines,
		Degraded:  change.Snapshot.Degraded,
		At:        time.Now().UTC(),
	}
}

// Subject returns the subject an op is published on.
func Subject(prefix string, op cart.Op) string {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return fmt.Sprintf("%s.%s", prefix, op)
}

// Publisher is a cart.Observer that forwards changes to NATS.
type Publisher struct {
	nc     *nats.Conn
	prefix string
	key    string
	logger *zap.Logger
}

// NewPublisher creates a Publisher on an open connection. key identifies
// the cart in published events.
func NewPublisher(nc *nats.Conn, prefix, key string, logger *zap.Logger) (*Publisher, error) {
	if nc == nil {
		return nil, errors.New("nats connection is required")
	}
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		nc:     nc,
		prefix: prefix,
		key:    key,
		logger: logger,
	}, nil
}

// CartChanged implements cart.Observer. Failures are logged and swallowed;
// a lost notification never fails the mutation that caused it.
func (p *Publisher) CartChanged(ctx context.Context, change cart.Change) {
	if err := p.Publish(ctx, change); err != nil {
		p.logger.Warn("failed to publish cart change",
			zap.String("op", string(change.Op)),
			zap.Error(err),
		)
	}
}

// Publish sends change and returns any error.
func (p *Publisher) Publish(ctx context.Context, change cart.Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := Subject(p.prefix, change.Op)
	data, err := json.Marshal(NewEvent(p.key, change))
	if err != nil {
		return fmt.Errorf("marshal cart event: %w", err)
	}
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	p.logger.Debug("published cart change", zap.String("subject", subject))
	return nil
}

// Connect dials NATS with the reconnect policy the daemon uses.
func Connect(url string, logger *zap.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	nc, err := nats.Connect(url,
		nats.Name("cartd"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// Watch subscribes to every change under prefix and decodes each message
// into an Event. The returned subscription must be drained or unsubscribed
// by the caller.
func Watch(nc *nats.Conn, prefix string, fn func(Event)) (*nats.Subscription, error) {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return nc.Subscribe(prefix+".>", func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return
		}
		fn(ev)
	})
}
