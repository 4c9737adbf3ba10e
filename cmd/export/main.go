// Command export loads a dblp XML dump and copies it into Postgres and/or
// Kafka. With both sinks enabled they are written concurrently.
//
// Usage:
//
//	go run ./cmd/export -postgres -kafka [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/export"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	xmlPath := flag.String("xml", "", "dblp XML dump, overrides mmdb.xmlPath")
	toPostgres := flag.Bool("postgres", false, "export to PostgreSQL")
	toKafka := flag.Bool("kafka", false, "export to Kafka")
	flag.Parse()

	if !*toPostgres && !*toKafka {
		fmt.Fprintln(os.Stderr, "nothing to do: pass -postgres and/or -kafka")
		os.Exit(2)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *xmlPath != "" {
		cfg.MMDB.XMLPath = *xmlPath
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *toPostgres, *toKafka); err != nil {
		slog.Error("export failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, toPostgres, toKafka bool) error {
	m := metrics.New()
	if cfg.Metrics.Enabled {
		ms, err := metrics.Listen(cfg.Metrics.Port)
		if err != nil {
			return err
		}
		defer ms.Shutdown(context.Background())
	}
	db, err := mmdb.Open(ctx, cfg.MMDB, m, mmdb.WithTracing(cfg.Tracing.Enabled))
	if err != nil {
		return err
	}

	var sinks []export.Sink
	if toPostgres {
		client, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer client.Close()
		sink := export.NewPostgresSink(client)
		if err := sink.CreateSchema(ctx); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if toKafka {
		persons := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.Persons)
		defer persons.Close()
		pubs := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.Publications)
		defer pubs.Close()
		sinks = append(sinks, export.NewKafkaSink(persons, pubs))
	}

	exp := export.New(db.Store(), export.OptionsFromConfig(cfg.Export), m)
	sums, err := exp.RunAll(ctx, sinks...)
	for _, s := range sums {
		slog.Info("sink summary",
			"sink", s.Sink,
			"persons", s.Persons,
			"publications", s.Publications,
			"batches", s.Batches,
			"duration", s.Duration,
		)
	}
	return err
}
