package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/api/cache"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/api/handler"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/config"
)

func TestRedisBackedQueryCache(t *testing.T) {
	client := skipIfNoRedis(t)
	ctx := context.Background()

	c := cache.New(client, config.RedisConfig{CacheTTL: time.Minute}, nil)
	calls := 0
	compute := func() ([]string, error) {
		calls++
		return []string{"homepages/a/Ann", "homepages/b/Bob"}, nil
	}
	for range 3 {
		v, _, err := cache.GetOrCompute(ctx, c, cache.Key("path", "a|b"), compute)
		require.NoError(t, err)
		assert.Len(t, v, 2)
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, int64(2), c.Stats().Hits)

	n, err := c.Invalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSearchThroughRedis(t *testing.T) {
	client := skipIfNoRedis(t)
	c := cache.New(client, config.RedisConfig{CacheTTL: time.Minute}, nil)

	mux := http.NewServeMux()
	handler.New(loadDB(t), c, nil, config.SearchConfig{}).Register(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	for range 2 {
		resp, err := http.Get(srv.URL + "/api/v1/search?q=graphs")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	s := c.Stats()
	assert.Equal(t, int64(1), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
}
