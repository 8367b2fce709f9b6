package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/italygeo/explorer/internal/core/domain"
	"github.com/italygeo/explorer/internal/core/ports"
	"github.com/italygeo/explorer/internal/pkg/geospatial"
	"github.com/italygeo/explorer/internal/pkg/metrics"
)

// DatasetService moves landmarks in and out as GeoJSON and summarises
// ad-hoc feature collections.
type DatasetService struct {
	landmarks ports.LandmarkRepository
	cache     ports.CacheService
	events    ports.EventPublisher
	now       func() time.Time
}

// NewDatasetService creates a new DatasetService. cache and events may be nil.
func NewDatasetService(landmarks ports.LandmarkRepository, cache ports.CacheService, events ports.EventPublisher) *DatasetService {
	return &DatasetService{landmarks: landmarks, cache: cache, events: events, now: time.Now}
}

// Export returns every landmark, optionally of one type, as a feature collection.
func (s *DatasetService) Export(ctx context.Context, landmarkType string) (*geojson.FeatureCollection, error) {
	all, err := s.landmarks.All(ctx)
	if err != nil {
		return nil, err
	}
	if landmarkType == "" {
		return domain.FeatureCollection(all), nil
	}
	filtered := make([]domain.Landmark, 0, len(all))
	for _, l := range all {
		if l.Type == landmarkType {
			filtered = append(filtered, l)
		}
	}
	return domain.FeatureCollection(filtered), nil
}

// FeatureToInput maps a GeoJSON feature onto landmark fields. n numbers the
// feature for the fallback name.
func FeatureToInput(f *geojson.Feature, n int) domain.LandmarkInput {
	in := domain.LandmarkInput{
		Name:       fmt.Sprintf("Imported Feature %d", n),
		Type:       "unknown",
		Geometry:   f.Geometry,
		Properties: map[string]any{},
	}
	for k, v := range f.Properties {
		switch k {
		case "name":
			if s, ok := v.(string); ok && s != "" {
				in.Name = s
			}
		case "description":
			if s, ok := v.(string); ok {
				in.Description = s
			}
		case "type":
			if s, ok := v.(string); ok && s != "" {
				in.Type = s
			}
		case "id", "created_at", "updated_at":
		default:
			in.Properties[k] = v
		}
	}
	return in
}

// Import stores every valid feature as a new landmark. Invalid features are
// skipped and reported; they do not abort the import.
func (s *DatasetService) Import(ctx context.Context, fc *geojson.FeatureCollection) (*domain.ImportReport, error) {
	if fc == nil {
		return nil, fmt.Errorf("%w: feature collection is required", domain.ErrInvalidInput)
	}

	report := &domain.ImportReport{IDs: []int64{}}
	for i, f := range fc.Features {
		in := FeatureToInput(f, i+1)
		if err := in.Validate(); err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("feature %d: %v", i, err))
			metrics.LandmarksImported.WithLabelValues("skipped").Inc()
			continue
		}
		l, err := s.landmarks.Create(ctx, in)
		if err != nil {
			return report, fmt.Errorf("import feature %d: %w", i, err)
		}
		report.Imported++
		report.IDs = append(report.IDs, l.ID)
		metrics.LandmarksImported.WithLabelValues("imported").Inc()
	}

	if report.Imported > 0 && s.cache != nil {
		_ = s.cache.Delete(ctx, statsKey)
	}
	slog.InfoContext(ctx, "geojson import finished", "imported", report.Imported, "skipped", report.Skipped)
	publishEvent(ctx, s.events, domain.EventDataImported, report, s.now())
	return report, nil
}

// Summarize reports counts, centroid extent, type mix, planar area and
// perimeter of a feature collection.
func (s *DatasetService) Summarize(fc *geojson.FeatureCollection) (*domain.CollectionSummary, error) {
	if fc == nil {
		return nil, fmt.Errorf("%w: feature collection is required", domain.ErrInvalidInput)
	}

	sum := &domain.CollectionSummary{FeatureTypes: map[string]int{}}
	first := true
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		sum.TotalFeatures++
		if t, ok := f.Properties["type"].(string); ok && t != "" {
			sum.FeatureTypes[t]++
		}
		sum.TotalAreaSqKm += geospatial.AreaSqKm(f.Geometry)
		sum.TotalPerimeterKm += geospatial.PerimeterKm(f.Geometry)

		c := geospatial.Centroid(f.Geometry)
		if first {
			sum.Bounds = domain.Bounds{MinLat: c.Lat(), MinLon: c.Lon(), MaxLat: c.Lat(), MaxLon: c.Lon()}
			first = false
			continue
		}
		sum.Bounds.MinLat = min(sum.Bounds.MinLat, c.Lat())
		sum.Bounds.MaxLat = max(sum.Bounds.MaxLat, c.Lat())
		sum.Bounds.MinLon = min(sum.Bounds.MinLon, c.Lon())
		sum.Bounds.MaxLon = max(sum.Bounds.MaxLon, c.Lon())
	}
	sum.TotalAreaSqKm = geospatial.Round(sum.TotalAreaSqKm, 4)
	sum.TotalPerimeterKm = geospatial.Round(sum.TotalPerimeterKm, 4)
	return sum, nil
}

// ProcessRealtime summarises a pushed feature collection and broadcasts the
// summary to realtime subscribers.
func (s *DatasetService) ProcessRealtime(ctx context.Context, fc *geojson.FeatureCollection) (*domain.RealtimeSummary, error) {
	if fc == nil {
		return nil, fmt.Errorf("%w: feature collection is required", domain.ErrInvalidInput)
	}

	out := &domain.RealtimeSummary{
		GeometryTypes: map[string]int{},
		Bounds:        []float64{},
		Timestamp:     s.now().UTC(),
	}
	geoms := make([]orb.Geometry, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		out.FeatureCount++
		out.GeometryTypes[f.Geometry.GeoJSONType()]++
		geoms = append(geoms, f.Geometry)
	}
	if b, ok := geospatial.Extent(geoms); ok {
		out.Bounds = []float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()}
	}

	publishEvent(ctx, s.events, domain.EventRealtimeAnalysis, out, out.Timestamp)
	return out, nil
}
