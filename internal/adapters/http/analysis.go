package http

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/italygeo/explorer/internal/core/domain"
	"github.com/italygeo/explorer/internal/pkg/telemetry"
)

func parseAnalysisRequest(c *fiber.Ctx) (domain.AnalysisRequest, error) {
	var req domain.AnalysisRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return req, err
	}
	trace.SpanFromContext(c.UserContext()).SetAttributes(telemetry.AttrAnalysisType.String(req.Type))
	return req, nil
}

// SpatialAnalysisHandler runs an analysis synchronously over all landmarks.
func SpatialAnalysisHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := parseAnalysisRequest(c)
		if err != nil {
			return errBadRequest(c, "invalid request body")
		}

		res, err := deps.Analysis.Run(c.UserContext(), req)
		if err != nil {
			return errService(c, err)
		}
		return c.JSON(fiber.Map{
			"success":       true,
			"analysis_id":   res.ID,
			"analysis_type": res.Type,
			"parameters":    res.Parameters,
			"results":       res.Results,
			"timestamp":     res.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
}

// ScheduleAnalysisHandler queues an analysis as a background job.
func ScheduleAnalysisHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := parseAnalysisRequest(c)
		if err != nil {
			return errBadRequest(c, "invalid request body")
		}

		jobID, err := deps.Analysis.Schedule(c.UserContext(), req)
		if err != nil {
			return errService(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"job_id":        jobID,
			"analysis_type": req.Type,
			"status":        "scheduled",
		})
	}
}

// AnalysisHistoryHandler lists past analysis runs, newest first.
func AnalysisHistoryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		history, err := deps.Analysis.History(c.UserContext(), c.QueryInt("limit", 0))
		if err != nil {
			return errService(c, err)
		}
		if history == nil {
			history = []domain.AnalysisResult{}
		}
		return c.JSON(fiber.Map{
			"analyses": history,
			"count":    len(history),
		})
	}
}
