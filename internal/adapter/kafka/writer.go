package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/checkin-geofence-service/internal/config"
	"github.com/couchcryptid/checkin-geofence-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces decision events to a Kafka topic.
// It implements checkin.DecisionPublisher.
type Writer struct {
	writer  *kafkago.Writer
	brokers []string
	logger  *slog.Logger
}

// NewWriter creates an asynchronous Kafka producer for the decision topic.
// Delivery failures are reported through the logger, not to callers.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaDecisionTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
	}
	w.Completion = func(messages []kafkago.Message, err error) {
		if err != nil {
			logger.Error("decision events not delivered", "error", err, "count", len(messages))
		}
	}
	return &Writer{writer: w, brokers: cfg.KafkaBrokers, logger: logger}
}

// Publish enqueues event. With an async writer this returns once the message
// is buffered.
func (w *Writer) Publish(ctx context.Context, event domain.DecisionEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

// CheckReadiness dials the brokers until one answers.
func (w *Writer) CheckReadiness(ctx context.Context) error {
	var errs []error
	for _, broker := range w.brokers {
		conn, err := kafkago.DialContext(ctx, "tcp", broker)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return conn.Close()
	}
	return fmt.Errorf("no kafka broker reachable: %w", errors.Join(errs...))
}

// Close flushes buffered messages and closes the producer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a DecisionEvent into a Kafka message.
func serializeToMessage(event domain.DecisionEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize decision event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "outcome", Value: []byte(event.Outcome())},
			{Key: "checked_at", Value: []byte(event.CheckedAt.Format(time.RFC3339))},
		},
	}, nil
}
