// Package kafka publishes JSON documents to Kafka topics with
// segmentio/kafka-go.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/config"
)

// Message is one document. Key selects the partition and Value is encoded
// as JSON.
type Message struct {
	Key   string
	Value any
}

// Producer writes to a single topic.
type Producer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              500,
		BatchBytes:             16 << 20,
		BatchTimeout:           50 * time.Millisecond,
		MaxAttempts:            3,
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: true,
	}
	return &Producer{
		writer: w,
		logger: slog.Default().With("component", "kafka-producer", "topic", topic),
	}
}

func (p *Producer) Topic() string { return p.writer.Topic }

// PublishBatch encodes msgs and writes them synchronously in one call.
func (p *Producer) PublishBatch(ctx context.Context, msgs []Message) error {
	out := make([]kafka.Message, 0, len(msgs))
	for _, m := range msgs {
		value, err := json.Marshal(m.Value)
		if err != nil {
			return fmt.Errorf("marshaling %s: %w", m.Key, err)
		}
		out = append(out, kafka.Message{Key: []byte(m.Key), Value: value})
	}
	if err := p.writer.WriteMessages(ctx, out...); err != nil {
		p.logger.Error("failed to publish batch", "count", len(out), "error", err)
		return fmt.Errorf("publishing batch to %s: %w", p.writer.Topic, err)
	}
	p.logger.Debug("batch published", "count", len(out))
	return nil
}

// Stats returns the writer counters accumulated since the last call.
func (p *Producer) Stats() kafka.WriterStats {
	return p.writer.Stats()
}

// Close flushes pending writes.
func (p *Producer) Close() error {
	return p.writer.Close()
}
