// cmd/resolver-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"context-resolver/internal/common/config"
	"context-resolver/internal/common/database"
	apperrors "context-resolver/internal/common/errors"
	"context-resolver/internal/common/logger"
	"context-resolver/internal/common/observability"
	"context-resolver/internal/defaults"
	"context-resolver/internal/disambiguation"
	"context-resolver/internal/engine"
	"context-resolver/internal/resolver"
	"context-resolver/internal/resolver/search"
	"context-resolver/internal/server"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting resolver server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	var checks []server.HealthCheck

	// --- Search store, selected by driver ---
	var client search.Client
	switch cfg.Database.Driver {
	case "elasticsearch":
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries",
				zap.Error(err), zap.String("code", string(apperrors.ErrCodeStoreUnavailable)))
		}
		zapLog.Info("Elasticsearch connected successfully")

		client = search.NewESStore(esClient.Client, cfg.Database.Elasticsearch.IndexPrefix, log)
		checks = append(checks, server.HealthCheck{
			Name:  "elasticsearch",
			Check: func(context.Context) error { return esClient.Ping() },
		})

	case "postgres":
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries",
				zap.Error(err), zap.String("code", string(apperrors.ErrCodeStoreUnavailable)))
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")

		client = search.NewPGStore(pg.DB, log)
		checks = append(checks, server.HealthCheck{Name: "postgres", Check: pg.Ping})

	default:
		zapLog.Fatal("unknown database driver", zap.String("driver", cfg.Database.Driver))
	}

	// --- Result cache, selected by backend ---
	ttl := config.GetDuration(cfg.Cache.TTLSeconds)
	var cache resolver.Cache
	if cfg.Cache.Backend == "redis" {
		var rdb *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries",
				zap.Error(err), zap.String("code", string(apperrors.ErrCodeStoreUnavailable)))
		}
		defer rdb.Close()
		zapLog.Info("Redis connected successfully")

		cache = resolver.NewRedisCache(rdb.Client, ttl, log)
		checks = append(checks, server.HealthCheck{Name: "redis", Check: rdb.Ping})
	} else {
		cache = resolver.NewMemoryCache(ttl, nil)
	}

	// --- Pipeline wiring ---
	res := resolver.New(client, cache, resolver.Options{
		MaxTermsPerClass:      cfg.Resolver.MaxTermsPerClass,
		MaxCustomerEnrichment: cfg.Resolver.MaxCustomerEnrichment,
		MaxProjectEnrichment:  cfg.Resolver.MaxProjectEnrichment,
		MaxInFlight:           cfg.Resolver.MaxInFlight,
		ConfidenceThreshold:   cfg.Resolver.ConfidenceThreshold,
	}, log)

	def := defaults.New(client, defaults.Config{
		InvoiceScanLimit:      cfg.Defaults.InvoiceScanLimit,
		DefaultCurrency:       cfg.Defaults.DefaultCurrency,
		DefaultNetDays:        cfg.Defaults.DefaultNetDays,
		ProductiveHoursPerDay: cfg.Defaults.ProductiveHoursPerDay,
	}, nil, log)

	router := disambiguation.NewRouter(client, cfg.Defaults.CreditRiskOverdueDays, log)

	eng := engine.New(res, def, router, obs, cfg.Resolver.ConfidenceThreshold, cfg.Resolver.DefaultLimit, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.New(eng, checks, log).Handler(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Resolver server stopped gracefully")
}
