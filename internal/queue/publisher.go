package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	internalkafka "github.com/luguas/priceye/internal/kafka"
	"github.com/luguas/priceye/internal/records"
)

// Envelope is the payload placed on the signal topic: one canonical record
// plus its capture time.
type Envelope struct {
	Record     records.Record `json:"record"`
	CapturedAt time.Time      `json:"captured_at"`
}

// Writer owns a producer for the signal topic.
type Writer struct {
	w *kafka.Writer
}

// NewWriter wraps a producer for the given brokers and topic.
func NewWriter(brokers []string, topic string) *Writer {
	return &Writer{w: internalkafka.NewWriter(brokers, topic)}
}

// Publish sends a batch of canonical records downstream.
func (p *Writer) Publish(ctx context.Context, recs []records.Record) error {
	return PublishRecords(ctx, p.w, recs)
}

func (p *Writer) Close() error {
	if p == nil || p.w == nil {
		return nil
	}
	return p.w.Close()
}

// PublishRecords sends a batch of canonical records downstream. Message keys
// carry the record identity so compacted topics keep the latest version per
// (source, location, date).
func PublishRecords(ctx context.Context, writer *kafka.Writer, recs []records.Record) error {
	if writer == nil || len(recs) == 0 {
		return nil
	}

	captured := time.Now().UTC()
	msgs := make([]kafka.Message, 0, len(recs))
	for _, rec := range recs {
		payload, err := json.Marshal(Envelope{Record: rec, CapturedAt: captured})
		if err != nil {
			return fmt.Errorf("marshal record %s: %w", rec.Key(), err)
		}
		msgs = append(msgs, kafka.Message{Key: []byte(rec.Key()), Value: payload})
	}
	return writer.WriteMessages(ctx, msgs...)
}
