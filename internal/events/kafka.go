package events

import (
	"context"
	"fmt"

	"servicely/pkg/kafka"
	kafka_config "servicely/pkg/kafka/config"
	kafka_middleware "servicely/pkg/kafka/middleware"
	"servicely/pkg/logger"
	"servicely/pkg/middleware"
)

type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type kafkaPublisher struct {
	producer messagePublisher
}

func NewKafkaPublisher(producer *kafka.Producer) Publisher {
	return &kafkaPublisher{producer: producer}
}

func (p *kafkaPublisher) Publish(ctx context.Context, env Envelope) error {
	if env.BookingID == "" {
		return fmt.Errorf("%w: event %s has no booking id", kafka.ErrInvalidMessage, env.Type)
	}

	msg, err := kafka.NewMessage().
		WithKey(env.BookingID).
		WithEventType(string(env.Type)).
		WithCorrelationID(middleware.GetRequestID(ctx)).
		WithSchemaVersion(kafka_config.SchemaVersion).
		WithSource(kafka_config.SourceName).
		WithTimestamp(env.OccurredAt).
		WithValue(env).
		Build()
	if err != nil {
		return err
	}

	return p.producer.Publish(ctx, msg)
}

// Decode reads an envelope back from a consumed message.
func Decode(msg kafka.Message) (Envelope, error) {
	var env Envelope
	if err := msg.DecodeValue(&env); err != nil {
		return Envelope{}, kafka.NewPermanentError("failed to decode event", err)
	}
	if env.Type == "" {
		env.Type = Type(msg.GetEventType())
	}
	return env, nil
}

// Setup builds the publisher described by the Kafka environment and returns
// a close func for shutdown.
func Setup(topic string, metrics *kafka_middleware.Metrics, log *logger.Logger) (Publisher, func() error, error) {
	kcfg, err := kafka_config.Load()
	if err != nil {
		return nil, nil, err
	}
	kcfg.LogConfiguration(log.Info)

	producer, err := kafka.NewProducer(kcfg, topic, log)
	if err != nil {
		return nil, nil, err
	}
	if kcfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(log))
		producer.Use(metrics.ProducerMiddleware())
	}
	return NewKafkaPublisher(producer), producer.Close, nil
}
