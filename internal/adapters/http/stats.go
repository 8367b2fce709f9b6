package http

import (
	"github.com/gofiber/fiber/v2"
)

// StatisticsHandler returns dataset statistics.
func StatisticsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := deps.Landmarks.Statistics(c.UserContext())
		if err != nil {
			return errService(c, err)
		}
		return c.JSON(st)
	}
}

// APIInfoHandler describes the API surface.
func APIInfoHandler(deps *Dependencies) fiber.Handler {
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"api_version": version,
			"endpoints_available": []string{
				"/api/landmarks",
				"/api/landmarks/nearby",
				"/api/landmarks/nearest",
				"/api/spatial/analyze",
				"/api/spatial/density",
				"/api/spatial/accessibility",
				"/api/spatial/cluster",
				"/api/analysis/spatial",
				"/api/analysis/jobs",
				"/api/analysis/history",
				"/api/statistics",
				"/api/data/import",
				"/api/data/clean",
				"/api/data/validate",
				"/api/data/export",
				"/api/realtime/process",
				"/graphql",
				"/ws",
			},
			"supported_formats":  []string{"geojson"},
			"supported_analyses": []string{"density", "accessibility", "clustering"},
			"realtime_channels":  []string{"all", "landmarks", "analysis", "realtime", "data"},
		})
	}
}
