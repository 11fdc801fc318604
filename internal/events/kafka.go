package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer used by KafkaSink.
// This allows for easy mocking in unit tests.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink writes events to a Kafka topic keyed by point id, so every event
// for one point lands on the same partition.
type KafkaSink struct {
	writer MessageWriter
}

// Writer settings. The default one second batch timeout would delay every
// request that publishes, since each event is written on its own.
const (
	kafkaBatchTimeout = 5 * time.Millisecond
	kafkaIOTimeout    = 2 * time.Second
)

// NewKafkaSink returns a sink producing to topic on brokers.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, fmt.Errorf("kafka brokers and topic required")
	}
	return &KafkaSink{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           kafkaBatchTimeout,
		ReadTimeout:            kafkaIOTimeout,
		WriteTimeout:           kafkaIOTimeout,
		MaxAttempts:            3,
		AllowAutoTopicCreation: true,
	}}, nil
}

// NewKafkaSinkWithWriter wraps an existing writer.
func NewKafkaSinkWithWriter(w MessageWriter) *KafkaSink {
	return &KafkaSink{writer: w}
}

func (k *KafkaSink) Send(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Key),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
			{Key: "event_version", Value: []byte(e.Version)},
		},
	})
}

func (k *KafkaSink) Close() error {
	return k.writer.Close()
}
