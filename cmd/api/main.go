package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/italygeo/explorer/internal/adapters/http"
	"github.com/italygeo/explorer/internal/adapters/memory"
	natsadapter "github.com/italygeo/explorer/internal/adapters/nats"
	"github.com/italygeo/explorer/internal/adapters/postgres"
	"github.com/italygeo/explorer/internal/adapters/redis"
	"github.com/italygeo/explorer/internal/adapters/temporal"
	"github.com/italygeo/explorer/internal/adapters/valkey"
	"github.com/italygeo/explorer/internal/core/domain"
	"github.com/italygeo/explorer/internal/core/ports"
	"github.com/italygeo/explorer/internal/core/usecases"
	"github.com/italygeo/explorer/internal/pkg/config"
	"github.com/italygeo/explorer/internal/pkg/logging"
	"github.com/italygeo/explorer/internal/pkg/metrics"
	"github.com/italygeo/explorer/internal/pkg/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load("italygeo-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	deps := &http.Dependencies{
		Service:   cfg.Telemetry.ServiceName,
		Version:   version,
		StartedAt: time.Now(),
	}

	// Storage
	var (
		landmarkRepo ports.LandmarkRepository
		analysisRepo ports.AnalysisRepository
	)
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		deps.DB = db

		repo := postgres.NewLandmarkRepo(db)
		if cfg.Storage.Seed {
			seedPostgres(ctx, repo)
		}
		landmarkRepo = repo
		analysisRepo = postgres.NewAnalysisRepo(db)

		go reportPoolStats(ctx, db)

	default:
		repo := memory.NewLandmarkRepo()
		if cfg.Storage.Seed {
			if err := repo.Seed(ctx, domain.SampleLandmarks()); err != nil {
				log.Fatalf("seed: %v", err)
			}
		}
		landmarkRepo = repo
		analysisRepo = memory.NewAnalysisRepo()
	}
	slog.Info("storage ready", "driver", cfg.Storage.Driver)

	// Cache
	var cache ports.CacheService
	switch cfg.Cache.Driver {
	case config.CacheValkey:
		c, err := valkey.New(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
		if err != nil {
			slog.Warn("valkey unavailable, caching disabled", "error", err)
		} else {
			defer c.Close()
			cache, deps.Cache = c, c
		}
	case config.CacheRedis:
		c, err := redis.New(ctx, cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
		if err != nil {
			slog.Warn("redis unavailable, caching disabled", "error", err)
		} else {
			defer c.Close()
			cache, deps.Cache = c, c
		}
	}

	// NATS
	var events ports.EventPublisher = natsadapter.NoopPublisher{}
	if cfg.NATS.URL != "" {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, events disabled", "error", err)
		} else {
			defer pub.Close()
			events = pub
		}

		// Raw NATS connection for WebSocket relay
		nc, err := natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats ws conn unavailable", "error", err)
		} else {
			defer nc.Drain()
			deps.NATS = nc
		}
	}

	// Temporal
	var scheduler ports.AnalysisScheduler
	if cfg.Temporal.Enabled {
		tc, err := temporal.Dial(cfg.Temporal.HostPort, cfg.Temporal.Namespace)
		if err != nil {
			slog.Warn("temporal unavailable, background analyses disabled", "error", err)
		} else {
			defer tc.Close()
			scheduler = temporal.NewScheduler(tc, cfg.Temporal.TaskQueue)
		}
	}

	// Use cases
	deps.Landmarks = usecases.NewLandmarkService(landmarkRepo, cache, events)
	deps.Datasets = usecases.NewDatasetService(landmarkRepo, cache, events)
	deps.Analysis = usecases.NewAnalysisService(landmarkRepo, analysisRepo, events, scheduler)

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    10 * 1024 * 1024, // GeoJSON imports can be large
		AppName:      "Italy Geospatial Explorer",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, If-None-Match",
		ExposeHeaders:    "ETag, Link, Location, X-Request-ID, X-Total-Count, Deprecation, Sunset",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps, http.RouteOptions{RateLimit: cfg.Server.RateLimit})

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "version", version)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// seedPostgres loads the sample landmarks into an empty table.
func seedPostgres(ctx context.Context, repo *postgres.LandmarkRepo) {
	n, err := repo.Count(ctx)
	if err != nil {
		slog.Warn("seed: count landmarks", "error", err)
		return
	}
	if n > 0 {
		return
	}
	ids, err := repo.InsertBatch(ctx, domain.SampleLandmarks())
	if err != nil {
		slog.Warn("seed: insert sample landmarks", "error", err)
		return
	}
	slog.Info("seeded sample landmarks", "count", len(ids))
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		}
	}
}
