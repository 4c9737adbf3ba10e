package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/export"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/kafka"
)

func TestPostgresExportIsIdempotent(t *testing.T) {
	client := skipIfNoPostgres(t)
	ctx := context.Background()
	_, err := client.DB.ExecContext(ctx, `DROP TABLE IF EXISTS authorship, publications, persons`)
	require.NoError(t, err)

	sink := export.NewPostgresSink(client)
	require.NoError(t, sink.CreateSchema(ctx))
	exp := export.New(loadDB(t).Store(), export.Options{BatchSize: 1}, nil)

	for range 2 {
		sum, err := exp.Run(ctx, sink)
		require.NoError(t, err)
		assert.Equal(t, 2, sum.Publications)
	}

	var n int
	require.NoError(t, client.DB.QueryRowContext(ctx, `SELECT count(*) FROM publications`).Scan(&n))
	assert.Equal(t, 2, n)
	require.NoError(t, client.DB.QueryRowContext(ctx, `SELECT count(*) FROM authorship`).Scan(&n))
	assert.Equal(t, 4, n)

	var authors []string
	var venue string
	require.NoError(t, client.DB.QueryRowContext(ctx,
		`SELECT authors, venue FROM publications WHERE key = $1`, "conf/y/BC21",
	).Scan(pq.Array(&authors), &venue))
	assert.Equal(t, []string{"Bob", "Cid"}, authors)
	assert.Equal(t, "Y", venue)

	var personKey *string
	require.NoError(t, client.DB.QueryRowContext(ctx,
		`SELECT person_key FROM authorship WHERE publication_key = $1 AND position = 1`, "conf/y/BC21",
	).Scan(&personKey))
	assert.Nil(t, personKey, "Cid has no profile")
}

func TestKafkaExport(t *testing.T) {
	broker := envOrDefault("TEST_KAFKA_BROKER", "localhost:9092")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	conn, err := kafkago.DialContext(ctx, "tcp", broker)
	if err != nil {
		t.Skipf("skipping integration test: kafka unavailable: %v", err)
	}
	conn.Close()

	suffix := time.Now().UnixNano()
	cfg := config.KafkaConfig{
		Brokers: []string{broker},
		Topics: config.KafkaTopics{
			Publications: fmt.Sprintf("test.publications.%d", suffix),
			Persons:      fmt.Sprintf("test.persons.%d", suffix),
		},
	}
	persons := kafka.NewProducer(cfg, cfg.Topics.Persons)
	defer persons.Close()
	pubs := kafka.NewProducer(cfg, cfg.Topics.Publications)
	defer pubs.Close()

	exp := export.New(loadDB(t).Store(), export.Options{BatchSize: 10, MaxAttempts: 5, InitialDelay: time.Second}, nil)
	_, err = exp.Run(ctx, export.NewKafkaSink(persons, pubs))
	require.NoError(t, err)

	reader := kafkago.NewReader(kafkago.ReaderConfig{Brokers: cfg.Brokers, Topic: cfg.Topics.Publications})
	defer reader.Close()
	var keys []string
	for range 2 {
		msg, err := reader.ReadMessage(ctx)
		require.NoError(t, err)
		var doc export.PublicationDoc
		require.NoError(t, json.Unmarshal(msg.Value, &doc))
		assert.Equal(t, string(msg.Key), doc.Key)
		keys = append(keys, doc.Key)
	}
	assert.ElementsMatch(t, []string{"conf/y/BC21", "journals/x/AB20"}, keys)
}
