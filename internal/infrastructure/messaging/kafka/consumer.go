package kafka

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"io"

	"github.com/segmentio/kafka-go"

	"github.com/tupiana/lexipipe/internal/application/seeding"
	"github.com/tupiana/lexipipe/internal/config"
	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// ContinuationHandler resumes a job at the given chunk.
type ContinuationHandler func(ctx context.Context, cont *seeding.Continuation) error

// readerInterface abstracts kafka.Reader for testing.
type readerInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// deadLetterer forwards poison messages.
type deadLetterer interface {
	Publish(ctx context.Context, topic, key, eventType string, payload any) error
}

// Consumer reads the continuation topic within a consumer group and drives
// the handler.  Handler failures forward the message to the dead-letter
// topic and commit the offset, so one bad continuation never wedges the
// partition.
type Consumer struct {
	reader     readerInterface
	deadLetter deadLetterer
	logger     logging.Logger
}

// NewConsumer builds a group consumer on the continuation topic.
func NewConsumer(cfg config.KafkaConfig, producer *Producer, log logging.Logger) *Consumer {
	startOffset := kafka.LastOffset
	if cfg.AutoOffsetReset == "earliest" {
		startOffset = kafka.FirstOffset
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       TopicJobContinuation,
		StartOffset: startOffset,
		MaxWait:     cfg.ReadTimeout,
	})
	return &Consumer{reader: reader, deadLetter: producer, logger: log.Named("kafka.consumer")}
}

// newConsumerWithReader is the test seam.
func newConsumerWithReader(r readerInterface, dl deadLetterer, log logging.Logger) *Consumer {
	return &Consumer{reader: r, deadLetter: dl, logger: log}
}

// Run consumes until the context is cancelled.
func (c *Consumer) Run(ctx context.Context, handle ContinuationHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || goerrors.Is(err, context.Canceled) || goerrors.Is(err, io.EOF) {
				return nil
			}
			return errors.Wrap(err, errors.ErrCodeExternalService, "kafka fetch failed")
		}
		c.process(ctx, msg, handle)
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return errors.Wrap(err, errors.ErrCodeExternalService, "kafka commit failed")
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message, handle ContinuationHandler) {
	cont, err := decodeContinuation(msg.Value)
	if err != nil {
		c.logger.Error("undecodable continuation message", logging.Err(err))
		c.sendToDeadLetter(ctx, msg, err)
		return
	}
	if err := handle(ctx, cont); err != nil {
		c.logger.Error("continuation handler failed",
			logging.String("job_id", cont.JobID),
			logging.Int("next_chunk_index", cont.NextChunkIndex),
			logging.Err(err))
		c.sendToDeadLetter(ctx, msg, err)
	}
}

func (c *Consumer) sendToDeadLetter(ctx context.Context, msg kafka.Message, cause error) {
	if c.deadLetter == nil {
		return
	}
	payload := map[string]string{
		"original_topic": msg.Topic,
		"key":            string(msg.Key),
		"value":          string(msg.Value),
		"error":          cause.Error(),
	}
	if err := c.deadLetter.Publish(ctx, TopicDeadLetter, string(msg.Key), "job.dead_letter", payload); err != nil {
		c.logger.Error("dead-letter publish failed", logging.Err(err))
	}
}

// Close releases the reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

func decodeContinuation(raw []byte) (*seeding.Continuation, error) {
	var env EventEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "envelope decode failed")
	}
	var cont seeding.Continuation
	if err := json.Unmarshal(env.Payload, &cont); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "continuation decode failed")
	}
	if cont.JobID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "continuation has empty job id")
	}
	if cont.NextChunkIndex < 0 {
		return nil, errors.New(errors.ErrCodeValidation, "continuation has negative chunk index")
	}
	return &cont, nil
}
