// Command discovery runs the story discovery service: the HTTP API, the
// periodic index rebuild loop, and (when configured) the Kafka analytics
// pipeline and Prometheus metrics server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BotCoder254/story-discovery/internal/analytics"
	"github.com/BotCoder254/story-discovery/internal/content"
	"github.com/BotCoder254/story-discovery/internal/content/postgresstore"
	"github.com/BotCoder254/story-discovery/internal/discovery"
	"github.com/BotCoder254/story-discovery/internal/discovery/handler"
	"github.com/BotCoder254/story-discovery/internal/discovery/router"
	"github.com/BotCoder254/story-discovery/internal/ratelimit"
	"github.com/BotCoder254/story-discovery/pkg/config"
	"github.com/BotCoder254/story-discovery/pkg/health"
	"github.com/BotCoder254/story-discovery/pkg/kafka"
	"github.com/BotCoder254/story-discovery/pkg/logger"
	"github.com/BotCoder254/story-discovery/pkg/metrics"
	"github.com/BotCoder254/story-discovery/pkg/postgres"
	pkgredis "github.com/BotCoder254/story-discovery/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	storeKind := flag.String("store", "postgres", "content store backend: postgres or memory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting discovery service", "port", cfg.Server.Port, "store", *storeKind)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Content store
	var store content.Store
	var pgStore *postgresstore.Store
	switch *storeKind {
	case "postgres":
		pg, err := postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		pgStore = postgresstore.New(pg)
		store = pgStore
		slog.Info("content store connected", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	case "memory":
		// in-memory store for local development without a database
		store = content.NewMemoryStore()
		slog.Warn("using in-memory content store; corpus starts empty")
	default:
		fmt.Fprintf(os.Stderr, "unknown store backend %q\n", *storeKind)
		os.Exit(1)
	}

	// Redis (optional): response cache + persisted search history
	var redisClient *pkgredis.Client
	var respCache *discovery.ResponseCache
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, response caching and history persistence disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
		respCache = discovery.NewResponseCache(redisClient, cfg.Redis)
		slog.Info("response cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	history := discovery.NewHistory(cfg.Discovery.HistorySize, redisClient)
	history.Load(ctx)

	// Kafka analytics pipeline (optional)
	var collector *analytics.Collector
	var aggregator *analytics.Aggregator
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.EventsTopic)
		defer producer.Close()
		collector = analytics.NewCollector(producer, 0)
		collector.Start(ctx)
		defer collector.Close()

		aggregator = analytics.NewAggregator()
		consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.EventsTopic, analytics.HandleEvent(aggregator))
		go func() {
			if err := aggregator.Start(ctx, consumer); err != nil {
				slog.Error("analytics aggregator error", "error", err)
			}
		}()
		slog.Info("analytics pipeline started", "topic", cfg.Kafka.EventsTopic)
	}

	// Metrics
	var m *metrics.Metrics
	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		m = metrics.New()
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	// Discovery service
	opts := []discovery.Option{}
	if respCache != nil {
		opts = append(opts, discovery.WithResponseCache(respCache))
	}
	if collector != nil {
		opts = append(opts, discovery.WithCollector(collector))
	}
	if m != nil {
		opts = append(opts, discovery.WithMetrics(m))
	}
	svc := discovery.New(store, history, cfg.Discovery, cfg.Geo, opts...)

	if err := svc.RebuildIndex(ctx); err != nil {
		// the store may still be warming up; the rebuild loop will retry
		slog.Warn("initial index build failed", "error", err)
	}
	svc.StartRebuildLoop(ctx)

	// Health checks
	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		if !svc.Index().Ready() {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "index not built yet"}
		}
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d items indexed", svc.Index().DocCount()),
		}
	})
	if pgStore != nil {
		checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
			if err := pgStore.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	// HTTP server
	h := handler.New(svc, aggregator)
	api := router.New(h, m, ratelimit.New(time.Minute), router.Config{
		RateLimitPerMin: cfg.Server.RateLimitPerMin,
		RequestTimeout:  cfg.Server.RequestTimeout,
	})

	mux := http.NewServeMux()
	mux.Handle("/", api)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if metricsShutdown != nil {
			if err := metricsShutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}
	}()

	slog.Info("discovery service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("discovery service stopped")
}
