// Command server runs the storefront backend: the HTTP API, the settlement
// worker, and the live stock-update relay, all wired to SQLite, Redis, and
// Kafka from one configuration.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-store-backend/internal/cache"
	"github.com/tbourn/go-store-backend/internal/config"
	httpapi "github.com/tbourn/go-store-backend/internal/http"
	"github.com/tbourn/go-store-backend/internal/observability"
	"github.com/tbourn/go-store-backend/internal/queue"
	"github.com/tbourn/go-store-backend/internal/relay"
	"github.com/tbourn/go-store-backend/internal/repo"
	"github.com/tbourn/go-store-backend/internal/services"
	"github.com/tbourn/go-store-backend/internal/sysutil"
	"github.com/tbourn/go-store-backend/internal/worker"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// Local development convenience; ignored when the file is absent.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	// Store
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("sqlite open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	if err := repo.EnsureProduct(ctx, db,
		cfg.Seed.ProductID, cfg.Seed.ProductName, cfg.Seed.ProductStock, cfg.Seed.ProductPrice); err != nil {
		log.Fatal().Err(err).Msg("default product seed failed")
	}
	if added, err := repo.SeedProducts(ctx, db, repo.SampleProducts); err != nil {
		log.Fatal().Err(err).Msg("sample catalog seed failed")
	} else if added > 0 {
		log.Info().Int("added", added).Msg("sample catalog seeded")
	}

	// Cache / notification channel
	rdb, err := cache.New(ctx, cache.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TLS:      cfg.Redis.TLS,
	})
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis connect failed")
	}

	// Warm the cache for the seeded catalog so first reads hit Redis.
	invSvc := services.NewInventoryService(db, repoShim{}, rdb, cfg.Redis.StockChannel)
	if products, err := repo.ListAllProducts(ctx, db); err == nil {
		for i := range products {
			invSvc.RefreshProduct(ctx, products[i].ID)
		}
	}

	// Purchase-intent queue
	producer := queue.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.PurchaseTopic)

	// Settlement worker
	settle := &worker.Settlement{
		DB:      db,
		Repo:    repoShim{},
		Mirror:  invSvc,
		Events:  rdb,
		Channel: cfg.Redis.StockChannel,
		NewConsumer: func() queue.Consumer {
			return queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.PurchaseTopic, cfg.Kafka.ConsumerGroup)
		},
		PaymentDelay: cfg.Worker.PaymentDelay,
		MinBackoff:   cfg.Worker.MinBackoff,
		MaxBackoff:   cfg.Worker.MaxBackoff,
	}
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		_ = settle.Run(ctx)
	}()

	// Live updates
	stream := relay.New(rdb, cfg.Redis.StockChannel, cfg.SSEKeepAlive, cfg.Worker.MinBackoff, cfg.Worker.MaxBackoff)

	// HTTP
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{DB: db, Cache: rdb, Queue: producer, Stream: stream}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("settlement worker did not stop in time")
	}
	if err := producer.Close(); err != nil {
		log.Warn().Err(err).Msg("producer close failed")
	}
	if err := rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close failed")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown failed")
	}
	log.Info().Msg("bye")
}
