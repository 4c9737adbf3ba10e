// Package export copies the loaded database into external systems: a
// relational copy in Postgres and a document stream in Kafka. Records are
// written in key order, in batches, each batch retried with backoff.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/store"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/resilience"
)

const (
	defaultBatchSize    = 500
	defaultBatchTimeout = 30 * time.Second
)

// Sink receives exported batches. Writes must be idempotent: a retried
// batch may already be partially applied.
type Sink interface {
	Name() string
	WritePersons(ctx context.Context, docs []PersonDoc) error
	WritePublications(ctx context.Context, docs []PublicationDoc) error
}

// Retryer is implemented by sinks that can tell transient errors apart.
type Retryer interface {
	Retryable(err error) bool
}

type Options struct {
	BatchSize    int
	BatchTimeout time.Duration
	MaxAttempts  int
	// InitialDelay is the first retry backoff; zero uses the retry default.
	InitialDelay time.Duration
}

func OptionsFromConfig(cfg config.ExportConfig) Options {
	return Options{
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		MaxAttempts:  cfg.MaxAttempts,
	}
}

// Summary reports one finished export.
type Summary struct {
	Sink         string
	Persons      int
	Publications int
	Batches      int
	Duration     time.Duration
}

type Exporter struct {
	st      *store.Store
	opts    Options
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates an exporter over st. m may be nil.
func New(st *store.Store, opts Options, m *metrics.Metrics) *Exporter {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = defaultBatchTimeout
	}
	return &Exporter{
		st:      st,
		opts:    opts,
		metrics: m,
		logger:  slog.Default().With("component", "exporter"),
	}
}

// Run writes every person, then every publication, to sink.
func (e *Exporter) Run(ctx context.Context, sink Sink) (Summary, error) {
	start := time.Now()
	sum := Summary{Sink: sink.Name()}
	log := e.logger.With("sink", sink.Name())
	log.Info("export started", "persons", e.st.NumberOfPersons(), "publications", e.st.NumberOfPublications())

	n, batches, err := exportBatches(ctx, e, sink, "person", e.st.Persons(),
		func(p *store.Person) PersonDoc { return PersonDocOf(e.st, p) },
		sink.WritePersons)
	sum.Persons, sum.Batches = n, batches
	if err != nil {
		return sum, err
	}

	n, batches, err = exportBatches(ctx, e, sink, "publication", e.st.Publications(),
		PublicationDocOf,
		sink.WritePublications)
	sum.Publications, sum.Batches = n, sum.Batches+batches
	sum.Duration = time.Since(start)
	if err != nil {
		return sum, err
	}
	log.Info("export finished",
		"persons", sum.Persons,
		"publications", sum.Publications,
		"batches", sum.Batches,
		"duration", sum.Duration,
	)
	return sum, nil
}

// RunAll exports to all sinks concurrently. The first failure cancels the
// others.
func (e *Exporter) RunAll(ctx context.Context, sinks ...Sink) ([]Summary, error) {
	sums := make([]Summary, len(sinks))
	g, gctx := errgroup.WithContext(ctx)
	for i, sink := range sinks {
		g.Go(func() error {
			s, err := e.Run(gctx, sink)
			sums[i] = s
			if err != nil {
				return fmt.Errorf("exporting to %s: %w", sink.Name(), err)
			}
			return nil
		})
	}
	return sums, g.Wait()
}

func exportBatches[R any, D any](
	ctx context.Context,
	e *Exporter,
	sink Sink,
	kind string,
	records []R,
	convert func(R) D,
	write func(context.Context, []D) error,
) (written, batches int, err error) {
	for lo := 0; lo < len(records); lo += e.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return written, batches, err
		}
		hi := min(lo+e.opts.BatchSize, len(records))
		batch := make([]D, 0, hi-lo)
		for _, r := range records[lo:hi] {
			batch = append(batch, convert(r))
		}
		if err := e.writeBatch(ctx, sink, kind, func(ctx context.Context) error {
			return write(ctx, batch)
		}); err != nil {
			return written, batches, fmt.Errorf("%s batch at offset %d: %w", kind, lo, err)
		}
		written += len(batch)
		batches++
		if e.metrics != nil {
			e.metrics.ExportedRecordsTotal.WithLabelValues(sink.Name(), kind).Add(float64(len(batch)))
		}
	}
	return written, batches, nil
}

func (e *Exporter) writeBatch(ctx context.Context, sink Sink, kind string, fn func(context.Context) error) error {
	retryable := func(err error) bool {
		if errors.Is(err, context.Canceled) {
			return false
		}
		if errors.Is(err, apperrors.ErrTimeout) {
			return true
		}
		if r, ok := sink.(Retryer); ok {
			return r.Retryable(err)
		}
		return true
	}
	name := "export." + sink.Name() + "." + kind
	err := resilience.Retry(ctx, name, resilience.RetryConfig{
		MaxAttempts:  e.opts.MaxAttempts,
		InitialDelay: e.opts.InitialDelay,
		Retryable:    retryable,
	}, func(ctx context.Context) error {
		return resilience.Deadline(ctx, e.opts.BatchTimeout, name, fn)
	})
	if e.metrics != nil {
		status := "ok"
		if err != nil {
			status = "failed"
		}
		e.metrics.ExportBatchesTotal.WithLabelValues(sink.Name(), status).Inc()
	}
	return err
}
