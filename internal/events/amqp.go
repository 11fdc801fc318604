package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	exchangeName = "ecoleta.events"
	exchangeType = "topic"
)

// AMQPSink publishes events to a durable topic exchange, routed by event type.
type AMQPSink struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewAMQPSink dials url and declares the exchange.
func NewAMQPSink(url string) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		exchangeName,
		exchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declaring exchange: %w", err)
	}

	slog.Info("connected to RabbitMQ", "exchange", exchangeName)
	return &AMQPSink{conn: conn, channel: channel}, nil
}

func (a *AMQPSink) Send(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	return a.channel.PublishWithContext(ctx,
		exchangeName,
		e.Type,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			MessageId:    e.ID,
			Body:         body,
			Headers: amqp.Table{
				"event_type":    e.Type,
				"event_version": e.Version,
			},
		},
	)
}

func (a *AMQPSink) Close() error {
	if err := a.channel.Close(); err != nil {
		slog.Error("failed to close AMQP channel", "error", err)
	}
	return a.conn.Close()
}
