// Package amqp ships record batches to a RabbitMQ exchange, one persistent
// JSON message per record.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	amqp091 "github.com/rabbitmq/amqp091-go"

	"github.com/gaborage/logfan"
)

// Publisher is the subset of *amqp091.Channel the sink needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// Sink publishes records to an exchange with a fixed routing key.
type Sink struct {
	ch         Publisher
	exchange   string
	routingKey string
}

var _ logfan.BatchSink = (*Sink)(nil)

// New creates a sink over an open channel. The caller owns the connection
// and channel lifecycle.
func New(ch Publisher, exchange, routingKey string) (*Sink, error) {
	if ch == nil {
		return nil, ErrNilChannel
	}
	return &Sink{ch: ch, exchange: exchange, routingKey: routingKey}, nil
}

// LogRecords publishes the batch in order. The first publish failure aborts
// the batch so the flush engine can retry it as a whole.
func (s *Sink) LogRecords(ctx context.Context, records []logfan.Record) error {
	for i := range records {
		body, err := json.Marshal(records[i])
		if err != nil {
			return fmt.Errorf("amqp: failed to serialize record: %w", err)
		}

		msg := amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    records[i].Time,
			Type:         records[i].Level.String(),
			AppId:        records[i].Logger,
			Body:         body,
		}
		if err := s.ch.PublishWithContext(ctx, s.exchange, s.routingKey, false, false, msg); err != nil {
			return fmt.Errorf("amqp: failed to publish record %d of %d: %w", i+1, len(records), err)
		}
	}
	return nil
}
