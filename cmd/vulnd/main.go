package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/assetcanon/vulnd/internal/application/catalog"
	"github.com/assetcanon/vulnd/internal/application/enrichment"
	"github.com/assetcanon/vulnd/internal/config"
	eventsmem "github.com/assetcanon/vulnd/pkg/adapters/events/memory"
	eventsredis "github.com/assetcanon/vulnd/pkg/adapters/events/redis"
	"github.com/assetcanon/vulnd/pkg/adapters/epss"
	"github.com/assetcanon/vulnd/pkg/adapters/kev"
	"github.com/assetcanon/vulnd/pkg/adapters/metrics/prometheus"
	"github.com/assetcanon/vulnd/pkg/adapters/nvd"
	storagemem "github.com/assetcanon/vulnd/pkg/adapters/storage/memory"
	storageredis "github.com/assetcanon/vulnd/pkg/adapters/storage/redis"
	"github.com/assetcanon/vulnd/pkg/api/http"
	"github.com/assetcanon/vulnd/pkg/api/websocket"
	"github.com/assetcanon/vulnd/pkg/ports"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting vulnd",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	// Initialize cache and event bus per configured backend
	var (
		cache       ports.EnrichmentCache
		eventBus    ports.EventBus
		redisClient *goredis.Client
	)

	switch cfg.Backend {
	case "redis":
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

		cache = storageredis.NewCache(redisClient, cfg.Enrich.CacheTTL, logger)

		bus, err := eventsredis.NewStreamsBus(
			redisClient,
			"vulnd-consumers",
			fmt.Sprintf("vulnd-%d", os.Getpid()),
			logger,
		)
		if err != nil {
			logger.Fatal("failed to create event bus", zap.Error(err))
		}
		eventBus = bus

	case "memory":
		cache = storagemem.NewCache(cfg.Enrich.CacheTTL)
		eventBus = eventsmem.NewBus()
		logger.Info("using in-memory backend")
	}

	// Upstream source clients
	nvdClient := nvd.NewClient(&nvd.Config{
		BaseURL:           cfg.NVD.BaseURL,
		APIKey:            cfg.NVD.APIKey,
		RequestTimeout:    cfg.NVD.RequestTimeout,
		MaxRetries:        cfg.NVD.MaxRetries,
		InitialBackoff:    cfg.NVD.InitialBackoff,
		RateLimitRequests: cfg.NVD.RateLimitRequests,
		RateLimitPeriod:   cfg.NVD.RateLimitPeriod,
	}, logger)

	kevClient := kev.NewClient(&kev.Config{
		CatalogURL:     cfg.KEV.CatalogURL,
		RequestTimeout: cfg.KEV.RequestTimeout,
	}, logger)

	epssClient := epss.NewClient(&epss.Config{
		BaseURL:        cfg.EPSS.BaseURL,
		RequestTimeout: cfg.EPSS.RequestTimeout,
	}, logger)

	metricsCollector := prometheus.NewCollector()

	// Application components
	engine := enrichment.NewEngine(
		nvdClient,
		kevClient,
		epssClient,
		cache,
		eventBus,
		metricsCollector,
		logger,
		cfg.Enrich.MaxFindings,
	)

	service := enrichment.NewService(
		engine,
		enrichment.NewSummarizer(),
		eventBus,
		metricsCollector,
		logger,
		cfg.Enrich.BatchLimit,
		cfg.Enrich.PacingDelay,
	)

	refresher := catalog.NewRefresher(
		kevClient,
		cfg.KEV.RefreshInterval,
		eventBus,
		metricsCollector,
		logger,
	)
	refresher.Start()

	// HTTP API server
	httpServer := http.NewServer(&http.Config{
		Port:     cfg.HTTPPort,
		Service:  service,
		Enricher: engine,
		Logger:   logger,
	})

	// Add WebSocket handler to HTTP server
	wsHandler := websocket.NewHandler(eventBus, logger)
	httpServer.SetupWebSocket(wsHandler)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	logger.Info("vulnd started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.String("backend", cfg.Backend),
		zap.Int("batch_limit", cfg.Enrich.BatchLimit))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	refresher.Stop()

	if err := eventBus.Close(); err != nil {
		logger.Error("event bus close error", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}

	logger.Info("vulnd shut down complete")
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
