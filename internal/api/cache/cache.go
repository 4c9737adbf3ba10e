// Package cache keeps JSON-encoded responses of the expensive read queries
// (title search, shortest paths) in Redis. Redis failures never fail a
// query: the breaker opens and the cache is bypassed until it recovers.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/resilience"
)

// Backend is the byte store behind the cache. *redis.Client satisfies it.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Flush(ctx context.Context) (int64, error)
}

type Cache struct {
	backend Backend
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
	errs    atomic.Int64
}

// New wraps backend. m may be nil.
func New(backend Backend, cfg config.RedisConfig, m *metrics.Metrics) *Cache {
	c := &Cache{
		backend: backend,
		ttl:     cfg.CacheTTL,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
	c.breaker = resilience.NewCircuitBreaker("redis", resilience.CircuitBreakerConfig{
		FailureThreshold:    cfg.BreakerThreshold,
		ResetTimeout:        cfg.BreakerReset,
		HalfOpenMaxRequests: 1,
		OnStateChange: func(name string, _, to resilience.State) {
			if m != nil {
				m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
	})
	return c
}

// Key derives the backend key of a query. params must already be in a
// canonical order.
func Key(kind, params string) string {
	sum := sha256.Sum256([]byte(params))
	return fmt.Sprintf("%s:%x", kind, sum[:16])
}

func (c *Cache) get(ctx context.Context, key string, dst any) bool {
	var data []byte
	var found bool
	err := c.breaker.Execute(func() error {
		var err error
		data, found, err = c.backend.Get(ctx, key)
		return err
	})
	if err != nil {
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			c.errs.Add(1)
			c.logger.Warn("cache get failed", "key", key, "error", err)
		}
		return false
	}
	if !found {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return false
	}
	return true
}

func (c *Cache) set(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.backend.Set(ctx, key, data, c.ttl)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.errs.Add(1)
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

func (c *Cache) hit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *Cache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// GetOrCompute returns the cached value under key or computes, stores and
// returns it. Concurrent misses on one key share a single computation. A nil
// cache always computes.
func GetOrCompute[T any](ctx context.Context, c *Cache, key string, compute func() (T, error)) (T, bool, error) {
	if c == nil {
		v, err := compute()
		return v, false, err
	}
	var cached T
	if c.get(ctx, key, &cached) {
		c.hit()
		return cached, true, nil
	}
	c.miss()
	v, err, _ := c.group.Do(key, func() (any, error) {
		v, err := compute()
		if err != nil {
			return v, err
		}
		c.set(ctx, key, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return v.(T), false, nil
}

// Invalidate drops every cached response.
func (c *Cache) Invalidate(ctx context.Context) (int64, error) {
	var deleted int64
	err := c.breaker.Execute(func() error {
		var err error
		deleted, err = c.backend.Flush(ctx)
		return err
	})
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Errors  int64   `json:"errors"`
	HitRate float64 `json:"hit_rate"`
	Breaker string  `json:"breaker"`
}

func (c *Cache) Stats() Stats {
	s := Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Errors:  c.errs.Load(),
		Breaker: c.breaker.State().String(),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}
