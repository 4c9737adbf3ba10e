// Package mmdb is the entry point to the in-memory dblp database. A DB
// wraps a loaded store and builds its secondary indexes (external ids,
// homonyms, coauthor graph and title search) on first use.
package mmdb

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/graph"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/homonym"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/idindex"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/ingest"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/store"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/search"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/tracing"
)

// DB is safe for concurrent use.
type DB struct {
	st      *store.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	trace   bool

	group    singleflight.Group
	ids      atomic.Pointer[idindex.Index]
	homonyms atomic.Pointer[homonym.Index]
	graph    atomic.Pointer[graph.Graph]
	titles   atomic.Pointer[search.Index]
}

type Option func(*DB)

// WithMetrics records index build durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(db *DB) { db.metrics = m }
}

// WithTracing logs the span of every index build.
func WithTracing(enabled bool) Option {
	return func(db *DB) { db.trace = enabled }
}

func WithLogger(l *slog.Logger) Option {
	return func(db *DB) { db.logger = l }
}

// New wraps an already loaded store.
func New(st *store.Store, opts ...Option) *DB {
	db := &DB{st: st, logger: logger.WithComponent("mmdb")}
	for _, o := range opts {
		o(db)
	}
	return db
}

// Open loads the corpus named by cfg. With cfg.Eager set the secondary
// indexes are built before Open returns.
func Open(ctx context.Context, cfg config.MMDBConfig, m *metrics.Metrics, opts ...Option) (*DB, error) {
	if cfg.XMLPath == "" {
		return nil, fmt.Errorf("%w: no xml path configured", apperrors.ErrInvalidInput)
	}
	db := New(nil, append([]Option{WithMetrics(m)}, opts...)...)

	iopts := ingest.OptionsFromConfig(cfg)
	iopts.Metrics = m
	iopts.Logger = db.logger
	iopts.Trace = db.trace
	var st *store.Store
	err := resilience.Deadline(ctx, cfg.LoadTimeout, "load", func(ctx context.Context) error {
		var err error
		st, err = ingest.ParseFile(ctx, cfg.XMLPath, cfg.DTDPath, iopts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", cfg.XMLPath, err)
	}
	db.st = st
	if cfg.Eager {
		db.EnsureIDIndex()
		db.EnsureHomonymIndex()
		db.EnsureCoauthorGraph()
		db.EnsureSearchIndex()
	}
	return db, nil
}

// ensure returns the index held by ptr, building it once through the
// singleflight group. Later callers load the stored pointer.
func ensure[T any](db *DB, ptr *atomic.Pointer[T], name string, build func() *T) *T {
	if v := ptr.Load(); v != nil {
		return v
	}
	v, _, _ := db.group.Do(name, func() (any, error) {
		if v := ptr.Load(); v != nil {
			return v, nil
		}
		_, span := tracing.Start(context.Background(), "index."+name)
		built := build()
		d := span.End()
		ptr.Store(built)

		db.logger.Info("index built", "index", name, "duration_ms", d.Milliseconds())
		if db.metrics != nil {
			db.metrics.IndexBuildDuration.WithLabelValues(name).Observe(d.Seconds())
		}
		if db.trace {
			span.Log(db.logger)
		}
		return built, nil
	})
	return v.(*T)
}

func (db *DB) EnsureIDIndex() *idindex.Index {
	return ensure(db, &db.ids, "ids", func() *idindex.Index { return idindex.Build(db.st) })
}

func (db *DB) EnsureHomonymIndex() *homonym.Index {
	return ensure(db, &db.homonyms, "homonyms", func() *homonym.Index { return homonym.Build(db.st) })
}

// EnsureCoauthorGraph returns the coauthor graph. The graph itself is still
// lazy; see graph.Graph.EnsureAll for full materialisation.
func (db *DB) EnsureCoauthorGraph() *graph.Graph {
	return ensure(db, &db.graph, "coauthors", func() *graph.Graph { return graph.New(db.st) })
}

func (db *DB) EnsureSearchIndex() *search.Index {
	return ensure(db, &db.titles, "titles", func() *search.Index { return search.Build(db.st) })
}

// Store exposes the underlying record store.
func (db *DB) Store() *store.Store { return db.st }

// Stats describes the store and which indexes have been built.
type Stats struct {
	store.Stats
	IDIndex       bool `json:"id_index"`
	HomonymIndex  bool `json:"homonym_index"`
	CoauthorGraph bool `json:"coauthor_graph"`
	SearchIndex   bool `json:"search_index"`
	IDs           int  `json:"ids,omitempty"`
	AdjacencyMaps int  `json:"adjacency_maps,omitempty"`
}

func (db *DB) Stats() Stats {
	s := Stats{Stats: db.st.Stats()}
	if x := db.ids.Load(); x != nil {
		s.IDIndex = true
		s.IDs = x.Size()
	}
	s.HomonymIndex = db.homonyms.Load() != nil
	if g := db.graph.Load(); g != nil {
		s.CoauthorGraph = true
		s.AdjacencyMaps, _ = g.Size()
	}
	s.SearchIndex = db.titles.Load() != nil
	return s
}
