package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tupiana/lexipipe/internal/application/seeding"
	"github.com/tupiana/lexipipe/internal/config"
	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// writerInterface abstracts kafka.Writer for testing.
type writerInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes enveloped events.  Continuations are keyed by job id so
// all chunks of one job stay on one partition and resume in order.
type Producer struct {
	writer writerInterface
	logger logging.Logger
}

// NewProducer builds a producer over the configured brokers.
func NewProducer(cfg config.KafkaConfig, log logging.Logger) *Producer {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 100 * time.Millisecond
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  max(cfg.ProducerRetries, 1),
		BatchSize:    cfg.BatchSize,
		BatchTimeout: batchTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return &Producer{writer: writer, logger: log.Named("kafka.producer")}
}

// newProducerWithWriter is the test seam.
func newProducerWithWriter(w writerInterface, log logging.Logger) *Producer {
	return &Producer{writer: w, logger: log}
}

// Publish wraps payload in an envelope and writes it to topic.
func (p *Producer) Publish(ctx context.Context, topic, key, eventType string, payload any) error {
	env, err := NewEnvelope(eventType, payload)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "event payload marshal failed")
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "event envelope marshal failed")
	}
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: raw,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "kafka publish failed")
	}
	p.logger.Debug("event published",
		logging.String("topic", topic),
		logging.String("event_type", eventType),
		logging.String("event_id", env.EventID))
	return nil
}

// PublishContinuation implements seeding.ContinuationPublisher.
func (p *Producer) PublishContinuation(ctx context.Context, cont *seeding.Continuation) error {
	if err := p.Publish(ctx, TopicJobContinuation, cont.JobID, "job.continuation", cont); err != nil {
		return errors.Wrap(err, errors.ErrCodeJobContinuationFailed, "continuation publish failed")
	}
	return nil
}

// Close flushes and releases the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
