package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/italygeo/explorer/internal/core/domain"
	"github.com/italygeo/explorer/internal/pkg/metrics"
)

// RouteOptions tunes the middleware stack.
type RouteOptions struct {
	// RateLimit is the number of requests allowed per IP per minute.
	RateLimit int
	// RequestTimeout bounds each REST handler.
	RequestTimeout time.Duration
}

func (o RouteOptions) withDefaults() RouteOptions {
	if o.RateLimit <= 0 {
		o.RateLimit = 120
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 15 * time.Second
	}
	return o
}

// deprecatedRoutes lists endpoints kept for older clients.
var deprecatedRoutes = []DeprecatedRoute{
	{
		Method:      fiber.MethodPost,
		Path:        "/api/spatial/nearest",
		SunsetDate:  time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC),
		Alternative: "/api/landmarks/nearest",
	},
}

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies, opts RouteOptions) {
	opts = opts.withDefaults()

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(TracingMiddleware())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	app.Use(limiter.New(limiter.Config{
		Max:        opts.RateLimit,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(DeprecationMiddleware(deprecatedRoutes))

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/api/health", HealthHandler(deps))
	app.Get("/api/ready", ReadyHandler(deps))

	withTimeout := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, opts.RequestTimeout)
	}

	api := app.Group("/api")

	// Literal segments before /:id
	api.Get("/landmarks", withTimeout(ListLandmarksHandler(deps)))
	api.Get("/landmarks/nearby", withTimeout(NearbyLandmarksHandler(deps)))
	api.Get("/landmarks/nearest", withTimeout(NearestLandmarksHandler(deps)))
	api.Get("/landmarks/:id", withTimeout(GetLandmarkHandler(deps)))
	api.Post("/landmarks", withTimeout(CreateLandmarkHandler(deps)))
	api.Put("/landmarks/:id", withTimeout(UpdateLandmarkHandler(deps)))
	api.Delete("/landmarks/:id", withTimeout(DeleteLandmarkHandler(deps)))

	api.Post("/spatial/nearest", withTimeout(SpatialNearestHandler(deps)))
	api.Post("/spatial/analyze", withTimeout(SpatialAnalyzeHandler(deps)))
	api.Post("/spatial/density", withTimeout(CollectionAnalysisHandler(deps, domain.AnalysisDensity)))
	api.Post("/spatial/accessibility", withTimeout(CollectionAnalysisHandler(deps, domain.AnalysisAccessibility)))
	api.Post("/spatial/cluster", withTimeout(CollectionAnalysisHandler(deps, domain.AnalysisClustering)))

	api.Post("/analysis/spatial", withTimeout(SpatialAnalysisHandler(deps)))
	api.Post("/analysis/jobs", withTimeout(ScheduleAnalysisHandler(deps)))
	api.Get("/analysis/history", withTimeout(AnalysisHistoryHandler(deps)))

	api.Get("/statistics", withTimeout(StatisticsHandler(deps)))
	api.Get("/stats", APIInfoHandler(deps))

	api.Get("/data/export", withTimeout(ExportHandler(deps)))
	api.Post("/data/import", withTimeout(ImportHandler(deps)))
	api.Post("/data/clean", withTimeout(CleanDataHandler(deps)))
	api.Post("/data/validate", withTimeout(ValidateDataHandler(deps)))
	api.Post("/realtime/process", withTimeout(RealtimeProcessHandler(deps)))

	app.Post("/graphql", withTimeout(GraphQLHandler(deps)))

	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if deps.NATS == nil {
			return errUnavailable(c, "realtime relay is not configured")
		}
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
