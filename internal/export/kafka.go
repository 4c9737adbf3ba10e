package export

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/kafka"
)

// Publisher writes keyed documents to one topic. *kafka.Producer
// satisfies it.
type Publisher interface {
	PublishBatch(ctx context.Context, msgs []kafka.Message) error
}

// KafkaSink publishes persons and publications as JSON documents keyed by
// record key. Replays are harmless on compacted topics.
type KafkaSink struct {
	persons      Publisher
	publications Publisher
}

func NewKafkaSink(persons, publications Publisher) *KafkaSink {
	return &KafkaSink{persons: persons, publications: publications}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) WritePersons(ctx context.Context, docs []PersonDoc) error {
	msgs := make([]kafka.Message, len(docs))
	for i, d := range docs {
		msgs[i] = kafka.Message{Key: d.Key, Value: d}
	}
	return s.persons.PublishBatch(ctx, msgs)
}

func (s *KafkaSink) WritePublications(ctx context.Context, docs []PublicationDoc) error {
	msgs := make([]kafka.Message, len(docs))
	for i, d := range docs {
		msgs[i] = kafka.Message{Key: d.Key, Value: d}
	}
	return s.publications.PublishBatch(ctx, msgs)
}
