// Command mmdbd loads a dblp XML dump into memory and serves the read API.
//
// Usage:
//
//	go run ./cmd/mmdbd [-config configs/development.yaml] [-xml data/dblp.xml.gz]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/api/cache"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/api/handler"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	xmlPath := flag.String("xml", "", "dblp XML dump, overrides mmdb.xmlPath")
	noCache := flag.Bool("no-cache", false, "do not connect to Redis")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *xmlPath != "" {
		cfg.MMDB.XMLPath = *xmlPath
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting mmdb service", "port", cfg.Server.Port, "xml", cfg.MMDB.XMLPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.Metrics.Enabled {
		ms, err := metrics.Listen(cfg.Metrics.Port)
		if err != nil {
			slog.Error("failed to start metrics server", "error", err)
			os.Exit(1)
		}
		defer ms.Shutdown(context.Background())
	}

	db, err := mmdb.Open(ctx, cfg.MMDB, m, mmdb.WithTracing(cfg.Tracing.Enabled))
	if err != nil {
		slog.Error("failed to load database", "error", err)
		os.Exit(1)
	}
	stats := db.Stats()
	slog.Info("database loaded",
		"publications", stats.Publications,
		"persons", stats.Persons,
		"redirects", stats.Redirects,
	)

	var queryCache *cache.Cache
	var redisClient *pkgredis.Client
	if !*noCache {
		redisClient, err = pkgredis.NewClient(cfg.Redis, "mmdb:")
		if err != nil {
			slog.Warn("redis unavailable, query caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis, m)
			slog.Info("query cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	checker := health.NewChecker()
	checker.Register("store", func(ctx context.Context) health.ComponentHealth {
		n := db.Store().NumberOfPublications()
		if n == 0 {
			return health.ComponentHealth{Status: health.StatusDown, Message: "no publications loaded"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d publications", n)}
	})
	if redisClient != nil {
		checker.RegisterOptional("redis", health.Ping(redisClient.Ping))
	}

	mux := http.NewServeMux()
	handler.New(db, queryCache, m, cfg.Search).Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler(2*time.Second))

	mws := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Timeout(cfg.Server.WriteTimeout),
		middleware.Metrics(m),
	}
	if cfg.Server.RateLimit > 0 {
		limiter := middleware.NewLimiter(cfg.Server.RateLimit, cfg.Server.RateWindow)
		mws = append(mws, middleware.RateLimit(limiter))
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      middleware.Chain(mux, mws...),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout + time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("mmdb service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("mmdb service stopped")
}
