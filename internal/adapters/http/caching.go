package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Handlers that set their own header win.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if existing := c.GetRespHeader(fiber.HeaderCacheControl); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/api/health" || path == "/api/ready":
			ttl = "no-cache"

		case path == "/metrics":
			ttl = "no-cache"

		case path == "/api/data/export":
			ttl = "no-store"

		case path == "/api/statistics":
			ttl = "public, max-age=60"

		case path == "/api/stats" || strings.HasPrefix(path, "/docs"):
			ttl = "public, max-age=3600"

		case strings.HasPrefix(path, "/api/landmarks/nearby"),
			strings.HasPrefix(path, "/api/landmarks/nearest"):
			ttl = "public, max-age=60"

		case strings.HasPrefix(path, "/api/analysis/history"):
			ttl = "private, max-age=0"

		case strings.HasPrefix(path, "/api/landmarks/"):
			ttl = "public, max-age=300" // single landmark

		case strings.HasPrefix(path, "/api/"):
			ttl = "public, max-age=30"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}

		return err
	}
}
