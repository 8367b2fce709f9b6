package http

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb/geojson"
	"go.opentelemetry.io/otel/trace"

	"github.com/italygeo/explorer/internal/core/domain"
	"github.com/italygeo/explorer/internal/pkg/geospatial"
	"github.com/italygeo/explorer/internal/pkg/telemetry"
)

// landmarkCollection is a GeoJSON FeatureCollection with paging metadata.
type landmarkCollection struct {
	Type       string             `json:"type"`
	Features   []*geojson.Feature `json:"features"`
	Total      int                `json:"total"`
	Pagination Pagination         `json:"pagination"`
}

// landmarkRequest is the body of POST and PUT /api/landmarks.
type landmarkRequest struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	LandmarkType string          `json:"landmark_type"`
	Type         string          `json:"type"`
	Geometry     json.RawMessage `json:"geometry"`
	Properties   map[string]any  `json:"properties"`
}

func (r landmarkRequest) input() (domain.LandmarkInput, error) {
	in := domain.LandmarkInput{
		Name:        r.Name,
		Description: r.Description,
		Type:        r.LandmarkType,
		Properties:  r.Properties,
	}
	if in.Type == "" {
		in.Type = r.Type
	}
	if len(r.Geometry) == 0 || string(r.Geometry) == "null" {
		return in, fmt.Errorf("%w: geometry is required", domain.ErrInvalidInput)
	}
	g, err := geojson.UnmarshalGeometry(r.Geometry)
	if err != nil {
		return in, fmt.Errorf("%w: invalid geometry: %v", domain.ErrInvalidInput, err)
	}
	in.Geometry = g.Geometry()
	return in, nil
}

// pointResponse describes a proximity query result.
type pointResponse struct {
	QueryPoint domain.GeoPoint         `json:"query_point"`
	RadiusKm   float64                 `json:"radius_km,omitempty"`
	Landmarks  []domain.NearbyLandmark `json:"nearest_landmarks"`
	Count      int                     `json:"count"`
}

// ListLandmarksHandler returns a page of landmarks as a FeatureCollection.
func ListLandmarksHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter := domain.LandmarkFilter{
			Type:   c.Query("type", c.Query("landmark_type")),
			Limit:  c.QueryInt("limit", 0),
			Offset: c.QueryInt("offset", 0),
		}
		if raw := c.Query("bbox"); raw != "" {
			b, err := geospatial.ParseBBox(raw)
			if err != nil {
				return errBadRequest(c, err.Error())
			}
			bounds := domain.BoundsFromOrb(b)
			filter.Bounds = &bounds
		}

		landmarks, total, err := deps.Landmarks.List(c.UserContext(), filter)
		if err != nil {
			return errService(c, err)
		}

		pg := Pagination{Offset: filter.Offset, Limit: effectiveLimit(filter.Limit, 100, 1000), Total: total}
		SetLinkHeaders(c, pg)

		fc := domain.FeatureCollection(landmarks)
		return c.JSON(landmarkCollection{
			Type:       "FeatureCollection",
			Features:   fc.Features,
			Total:      total,
			Pagination: pg,
		})
	}
}

// NearbyLandmarksHandler returns landmarks within a radius (km) of a point.
func NearbyLandmarksHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, lon, err := queryPoint(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		radius := c.QueryFloat("radius", 50)
		if math.IsNaN(radius) || math.IsInf(radius, 0) {
			return errBadRequest(c, "radius must be a finite number")
		}
		if radius <= 0 {
			radius = 50
		}
		radius = min(radius, 1000)
		limit := c.QueryInt("limit", 0)

		nearby, err := deps.Landmarks.Nearby(c.UserContext(), lat, lon, radius, limit)
		if err != nil {
			return errService(c, err)
		}
		return c.JSON(pointResponse{
			QueryPoint: domain.GeoPoint{Lat: lat, Lon: lon},
			RadiusKm:   radius,
			Landmarks:  nearby,
			Count:      len(nearby),
		})
	}
}

// NearestLandmarksHandler returns the landmarks closest to a point.
func NearestLandmarksHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, lon, err := queryPoint(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return nearest(c, deps, lat, lon, c.QueryInt("limit", 0))
	}
}

// SpatialNearestHandler is the body-based form of NearestLandmarksHandler.
func SpatialNearestHandler(deps *Dependencies) fiber.Handler {
	type nearestRequest struct {
		Lat   *float64 `json:"lat"`
		Lon   *float64 `json:"lon"`
		Limit int      `json:"limit"`
	}

	return func(c *fiber.Ctx) error {
		var req nearestRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Lat == nil || req.Lon == nil {
			return errBadRequest(c, "lat and lon are required")
		}
		return nearest(c, deps, *req.Lat, *req.Lon, req.Limit)
	}
}

func nearest(c *fiber.Ctx, deps *Dependencies, lat, lon float64, limit int) error {
	ranked, err := deps.Landmarks.Nearest(c.UserContext(), lat, lon, limit)
	if err != nil {
		return errService(c, err)
	}
	return c.JSON(pointResponse{
		QueryPoint: domain.GeoPoint{Lat: lat, Lon: lon},
		Landmarks:  ranked,
		Count:      len(ranked),
	})
}

// GetLandmarkHandler returns a single landmark as a GeoJSON Feature.
func GetLandmarkHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := landmarkID(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		l, err := deps.Landmarks.Get(c.UserContext(), id)
		if err != nil {
			return errService(c, err)
		}
		return c.JSON(l.Feature())
	}
}

// CreateLandmarkHandler stores a new landmark.
func CreateLandmarkHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req landmarkRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		in, err := req.input()
		if err != nil {
			return errService(c, err)
		}

		l, err := deps.Landmarks.Create(c.UserContext(), in)
		if err != nil {
			return errService(c, err)
		}
		trace.SpanFromContext(c.UserContext()).SetAttributes(telemetry.AttrLandmarkID.Int64(l.ID))

		c.Location("/api/landmarks/" + strconv.FormatInt(l.ID, 10))
		return c.Status(fiber.StatusCreated).JSON(l.Feature())
	}
}

// UpdateLandmarkHandler replaces an existing landmark.
func UpdateLandmarkHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := landmarkID(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		var req landmarkRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		in, err := req.input()
		if err != nil {
			return errService(c, err)
		}

		l, err := deps.Landmarks.Update(c.UserContext(), id, in)
		if err != nil {
			return errService(c, err)
		}
		return c.JSON(l.Feature())
	}
}

// DeleteLandmarkHandler removes a landmark.
func DeleteLandmarkHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := landmarkID(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if err := deps.Landmarks.Delete(c.UserContext(), id); err != nil {
			return errService(c, err)
		}
		return c.JSON(fiber.Map{"id": id, "message": "landmark deleted"})
	}
}

func landmarkID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid landmark id %q", c.Params("id"))
	}
	trace.SpanFromContext(c.UserContext()).SetAttributes(telemetry.AttrLandmarkID.Int64(id))
	return id, nil
}

// queryPoint reads the required lat and lon query parameters.
func queryPoint(c *fiber.Ctx) (float64, float64, error) {
	rawLat, rawLon := c.Query("lat"), c.Query("lon")
	if rawLat == "" || rawLon == "" {
		return 0, 0, fmt.Errorf("lat and lon are required")
	}
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid lat %q", rawLat)
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid lon %q", rawLon)
	}
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return 0, 0, fmt.Errorf("lat and lon must be finite numbers")
	}
	return lat, lon, nil
}

func effectiveLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, maxLimit)
}
