// Package events publishes service audit entries to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"inventorycore/internal/core"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewWriter builds an asynchronous Kafka writer for topic on brokers.
// WriteMessages only enqueues; delivery failures surface through the
// completion callback, which logs them.
func NewWriter(brokers []string, topic string, logger zerolog.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
		Async:                  true,
		Completion:             logCompletion(logger),
	}
}

func logCompletion(logger zerolog.Logger) func([]kafka.Message, error) {
	return func(msgs []kafka.Message, err error) {
		if err == nil {
			return
		}
		logger.Warn().Err(err).Int("messages", len(msgs)).Msg("deliver audit entries")
	}
}

// AuditPublisher implements core.AuditRecorder. Entries are keyed by entity
// so every change to one record lands on the same partition. Publish
// failures are logged and never fail the audited operation. With the writer
// from NewWriter, Record does not wait for the broker.
type AuditPublisher struct {
	writer  MessageWriter
	logger  zerolog.Logger
	timeout time.Duration
}

// NewAuditPublisher wraps writer.
func NewAuditPublisher(writer MessageWriter, logger zerolog.Logger) *AuditPublisher {
	return &AuditPublisher{writer: writer, logger: logger, timeout: 5 * time.Second}
}

// Record publishes entry.
func (p *AuditPublisher) Record(ctx context.Context, entry core.AuditEntry) {
	value, err := json.Marshal(entry)
	if err != nil {
		p.logger.Error().Err(err).Str("op", entry.Operation).Msg("encode audit entry")
		return
	}
	msg := kafka.Message{
		Key:   []byte(messageKey(entry)),
		Value: value,
		Time:  entry.Timestamp,
		Headers: []kafka.Header{
			{Key: "operation", Value: []byte(entry.Operation)},
			{Key: "status", Value: []byte(entry.Status)},
		},
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		p.logger.Warn().Err(err).Str("op", entry.Operation).Msg("publish audit entry")
	}
}

// Close flushes and closes the writer.
func (p *AuditPublisher) Close() error { return p.writer.Close() }

func messageKey(entry core.AuditEntry) string {
	if entry.Entity == "" {
		return entry.Operation
	}
	return fmt.Sprintf("%s-%d", entry.Entity, entry.EntityID)
}
