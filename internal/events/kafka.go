package events

import (
	"context"
	"encoding/json"
	"fmt"

	"polleria/internal/config"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher mirrors events onto a Kafka topic for other backends.
type KafkaPublisher struct {
	writer messageWriter
	logger zerolog.Logger
}

// NewKafkaPublisher creates an asynchronous publisher. Delivery failures
// are reported through the logger.
func NewKafkaPublisher(cfg config.EventsConfig, logger zerolog.Logger) *KafkaPublisher {
	log := logger.With().Str("component", "kafka-publisher").Str("topic", cfg.KafkaTopic).Logger()
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				log.Error().Err(err).Int("messages", len(msgs)).Msg("failed to deliver events")
			}
		},
	}
	return newKafkaPublisher(w, log)
}

func newKafkaPublisher(w messageWriter, logger zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, logger: logger}
}

// Publish queues ev on the topic keyed by entity.
func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	value, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", ev.Name, err)
	}

	msg := kafka.Message{
		Key:     []byte(ev.Key),
		Value:   value,
		Headers: injectTrace(ctx, []kafka.Header{{Key: "event", Value: []byte(ev.Name)}}),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error().Err(err).Str("event", ev.Name).Msg("failed to publish event")
		return fmt.Errorf("failed to publish event %s: %w", ev.Name, err)
	}
	return nil
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func injectTrace(ctx context.Context, headers []kafka.Header) []kafka.Header {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return headers
}
