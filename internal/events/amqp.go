package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"gastos/internal/logger"
)

const publishTimeout = 5 * time.Second

// publisher is the part of *amqp091.Channel the forwarder uses.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Forwarder publishes bus changes to a topic exchange as JSON.
type Forwarder struct {
	conn     *amqp091.Connection
	channel  publisher
	exchange string
}

// DialForwarder connects to url and declares a durable topic exchange.
func DialForwarder(url, exchange string) (*Forwarder, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &Forwarder{conn: conn, channel: channel, exchange: exchange}, nil
}

// Publish sends a single change.
func (f *Forwarder) Publish(ctx context.Context, c Change) error {
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = f.channel.PublishWithContext(ctx, f.exchange, c.RoutingKey(), false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    c.At,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", c.RoutingKey(), err)
	}
	return nil
}

// Run forwards changes until ctx is done or changes is closed. Publish
// failures are logged and the change is dropped.
func (f *Forwarder) Run(ctx context.Context, changes <-chan Change) {
	log := logger.Named("events")
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			if err := f.Publish(ctx, c); err != nil {
				log.Warnw("failed to forward change", "routing_key", c.RoutingKey(), "id", c.ID, "error", err)
			}
		}
	}
}

// Close closes the channel and connection.
func (f *Forwarder) Close() error {
	if f.channel != nil {
		f.channel.Close()
	}
	if f.conn != nil {
		return f.conn.Close()
	}
	return nil
}
