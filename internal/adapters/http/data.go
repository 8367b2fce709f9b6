package http

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb/geojson"
	"go.opentelemetry.io/otel/trace"

	"github.com/italygeo/explorer/internal/core/domain"
	"github.com/italygeo/explorer/internal/pkg/telemetry"
)

// parseCollection decodes a GeoJSON FeatureCollection request body.
func parseCollection(c *fiber.Ctx) (*geojson.FeatureCollection, error) {
	body := c.Body()
	if len(body) == 0 {
		return nil, fmt.Errorf("request body is empty")
	}
	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("invalid GeoJSON FeatureCollection: %w", err)
	}
	if fc.Type != "" && fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("expected a FeatureCollection, got %q", fc.Type)
	}
	trace.SpanFromContext(c.UserContext()).SetAttributes(telemetry.AttrFeatureCount.Int(len(fc.Features)))
	return fc, nil
}

// ExportHandler downloads every landmark as a GeoJSON file.
func ExportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fc, err := deps.Datasets.Export(c.UserContext(), c.Query("type"))
		if err != nil {
			return errService(c, err)
		}
		data, err := json.MarshalIndent(fc, "", "  ")
		if err != nil {
			return errService(c, err)
		}

		c.Attachment(fmt.Sprintf("italy_landmarks_%s.geojson", time.Now().Format("20060102")))
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(data)
	}
}

// ImportHandler stores every feature of a posted FeatureCollection.
func ImportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fc, err := parseCollection(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		report, err := deps.Datasets.Import(c.UserContext(), fc)
		if err != nil {
			return errService(c, err)
		}
		return c.JSON(fiber.Map{
			"success":           true,
			"format":            "geojson",
			"imported_features": report.Imported,
			"skipped_features":  report.Skipped,
			"ids":               report.IDs,
			"errors":            report.Errors,
		})
	}
}

// CleanDataHandler returns a cleaned copy of a posted FeatureCollection and
// a report of what was removed or filled in.
func CleanDataHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fc, err := parseCollection(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		cleaned, report, err := deps.Datasets.Clean(fc)
		if err != nil {
			return errService(c, err)
		}
		return c.JSON(fiber.Map{
			"success":         true,
			"cleaned_data":    cleaned,
			"cleaning_report": report,
		})
	}
}

// ValidateDataHandler grades the data quality of a posted FeatureCollection.
func ValidateDataHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fc, err := parseCollection(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		quality, err := deps.Datasets.Validate(fc)
		if err != nil {
			return errService(c, err)
		}
		return c.JSON(fiber.Map{
			"success":            true,
			"validation_results": quality,
		})
	}
}

// collectionAnalysisParams are read from the query string of the
// collection analysis endpoints.
var collectionAnalysisParams = []string{"grid_size", "transport_speed", "method", "precision"}

// CollectionAnalysisHandler runs one analysis type over a posted
// FeatureCollection instead of the stored landmarks.
func CollectionAnalysisHandler(deps *Dependencies, analysisType string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fc, err := parseCollection(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		params := map[string]any{}
		for _, k := range collectionAnalysisParams {
			if v := c.Query(k); v != "" {
				params[k] = v
			}
		}
		res, err := deps.Datasets.Analyze(fc, domain.AnalysisRequest{Type: analysisType, Parameters: params})
		if err != nil {
			return errService(c, err)
		}
		return c.JSON(fiber.Map{
			"success":       true,
			"analysis_type": res.Type,
			"parameters":    res.Parameters,
			"results":       res.Results,
			"timestamp":     res.CreatedAt.Format(time.RFC3339),
		})
	}
}

// SpatialAnalyzeHandler summarises a posted FeatureCollection.
func SpatialAnalyzeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fc, err := parseCollection(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		summary, err := deps.Datasets.Summarize(fc)
		if err != nil {
			return errService(c, err)
		}
		return c.JSON(fiber.Map{
			"success":   true,
			"analysis":  summary,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// RealtimeProcessHandler summarises a posted FeatureCollection and
// broadcasts the result to realtime subscribers.
func RealtimeProcessHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fc, err := parseCollection(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		summary, err := deps.Datasets.ProcessRealtime(c.UserContext(), fc)
		if err != nil {
			return errService(c, err)
		}
		return c.JSON(summary)
	}
}
