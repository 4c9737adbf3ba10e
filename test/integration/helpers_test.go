// Package integration exercises the exporters and the query cache against
// real PostgreSQL, Redis and Kafka instances. Each test skips when its
// service is not reachable.
//
// Run with:
//
//	go test -v ./test/integration/...
package integration

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/ingest"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/redis"
)

const corpus = `<?xml version="1.0"?>
<dblp>
<article key="journals/x/AB20" mdate="2020-01-01"><author>Ann</author><author>Bob</author><title>Graphs.</title><journal>X</journal><year>2020</year><ee>https://doi.org/10.1/ab</ee></article>
<inproceedings key="conf/y/BC21" mdate="2021-01-01"><author>Bob</author><author>Cid</author><title>More Graphs.</title><booktitle>Y</booktitle><year>2021</year></inproceedings>
<www key="homepages/a/Ann" mdate="2020-01-01"><author>Ann</author><title>Home Page</title></www>
<www key="homepages/b/Bob" mdate="2020-01-01"><author>Bob</author><title>Home Page</title></www>
</dblp>
`

func loadDB(t *testing.T) *mmdb.DB {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := ingest.Parse(context.Background(), strings.NewReader(corpus), ingest.Options{Logger: quiet})
	if err != nil {
		t.Fatalf("parsing corpus: %v", err)
	}
	return mmdb.New(st, mmdb.WithLogger(quiet))
}

// skipIfNoPostgres skips the test when PostgreSQL is unavailable.
func skipIfNoPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            envOrDefaultInt("TEST_POSTGRES_PORT", 5432),
		Database:        envOrDefault("TEST_POSTGRES_DB", "dblp_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "dblp"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	})
	if err != nil {
		t.Skipf("skipping integration test: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// skipIfNoRedis skips the test when Redis is unavailable. Keys live under a
// per-test prefix that is flushed on cleanup.
func skipIfNoRedis(t *testing.T) *pkgredis.Client {
	t.Helper()
	client, err := pkgredis.NewClient(config.RedisConfig{
		Addr:     envOrDefault("TEST_REDIS_ADDR", "localhost:6379"),
		PoolSize: 4,
	}, "mmdb-test:"+strconv.FormatInt(time.Now().UnixNano(), 36)+":")
	if err != nil {
		t.Skipf("skipping integration test: redis unavailable: %v", err)
	}
	t.Cleanup(func() {
		client.Flush(context.Background())
		client.Close()
	})
	return client
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
