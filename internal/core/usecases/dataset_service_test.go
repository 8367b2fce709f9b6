package usecases_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/italygeo/explorer/internal/core/domain"
	"github.com/italygeo/explorer/internal/core/usecases"
)

func TestDatasetService_Export_FiltersByType(t *testing.T) {
	repo := &mockLandmarkRepo{
		allFn: func(ctx context.Context) ([]domain.Landmark, error) { return sampleLandmarks(), nil },
	}
	svc := usecases.NewDatasetService(repo, nil, nil)

	fc, err := svc.Export(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fc.Features) != 8 {
		t.Fatalf("expected 8 features, got %d", len(fc.Features))
	}

	fc, err = svc.Export(context.Background(), "monument")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("expected 2 monuments, got %d", len(fc.Features))
	}
	if fc.Features[0].Properties["name"] != "Colosseum" {
		t.Errorf("unexpected first feature %v", fc.Features[0].Properties)
	}
	if fc.Features[0].Properties["built"] != "70-80 AD" {
		t.Errorf("custom properties should be exported")
	}
}

func TestFeatureToInput(t *testing.T) {
	f := geojson.NewFeature(orb.Point{11.2558, 43.7731})
	f.Properties["name"] = "Duomo"
	f.Properties["type"] = "cathedral"
	f.Properties["height"] = "114m"
	f.Properties["created_at"] = "2020-01-01T00:00:00Z"

	in := usecases.FeatureToInput(f, 4)
	if in.Name != "Duomo" || in.Type != "cathedral" {
		t.Errorf("unexpected core fields %+v", in)
	}
	if in.Properties["height"] != "114m" {
		t.Errorf("extra property dropped")
	}
	if _, ok := in.Properties["name"]; ok {
		t.Errorf("core field leaked into properties")
	}
	if _, ok := in.Properties["created_at"]; ok {
		t.Errorf("timestamps must not be imported as properties")
	}

	bare := usecases.FeatureToInput(geojson.NewFeature(orb.Point{1, 1}), 7)
	if bare.Name != "Imported Feature 7" || bare.Type != "unknown" {
		t.Errorf("unexpected fallbacks %+v", bare)
	}
}

func TestDatasetService_Import_SkipsInvalid(t *testing.T) {
	var created []domain.LandmarkInput
	repo := &mockLandmarkRepo{
		createFn: func(ctx context.Context, in domain.LandmarkInput) (*domain.Landmark, error) {
			created = append(created, in)
			return &domain.Landmark{ID: int64(len(created) + 10), Name: in.Name}, nil
		},
	}
	pub := &mockPublisher{}
	cache := newMockCache()
	svc := usecases.NewDatasetService(repo, cache, pub)

	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.Point{12.4922, 41.8902}))
	fc.Append(geojson.NewFeature(orb.MultiPoint{{1, 1}, {2, 2}}))
	fc.Append(geojson.NewFeature(orb.Point{200, 41}))
	fc.Append(geojson.NewFeature(orb.LineString{{12, 45}, {12.1, 45.1}}))

	report, err := svc.Import(context.Background(), fc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Imported != 2 || report.Skipped != 2 {
		t.Errorf("expected 2 imported and 2 skipped, got %+v", report)
	}
	if len(report.IDs) != 2 || report.IDs[0] != 11 {
		t.Errorf("unexpected ids %v", report.IDs)
	}
	if len(report.Errors) != 2 {
		t.Errorf("expected 2 error messages, got %v", report.Errors)
	}
	if len(pub.events) != 1 || pub.events[0].Type != domain.EventDataImported {
		t.Errorf("expected data_imported event, got %+v", pub.events)
	}
	if len(cache.deleted) == 0 {
		t.Error("expected stats invalidation after import")
	}
}

func TestDatasetService_Import_RepoError(t *testing.T) {
	repo := &mockLandmarkRepo{
		createFn: func(ctx context.Context, in domain.LandmarkInput) (*domain.Landmark, error) {
			return nil, errors.New("disk full")
		},
	}
	svc := usecases.NewDatasetService(repo, nil, nil)
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.Point{1, 1}))
	if _, err := svc.Import(context.Background(), fc); err == nil {
		t.Error("expected error")
	}
}

func TestDatasetService_Summarize(t *testing.T) {
	svc := usecases.NewDatasetService(&mockLandmarkRepo{}, nil, nil)
	fc := domain.FeatureCollection(sampleLandmarks())

	sum, err := svc.Summarize(fc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.TotalFeatures != 8 {
		t.Errorf("expected 8 features, got %d", sum.TotalFeatures)
	}
	if sum.FeatureTypes["monument"] != 2 || sum.FeatureTypes["lake"] != 1 {
		t.Errorf("unexpected type counts %v", sum.FeatureTypes)
	}
	// The Amalfi Coast centroid lies south of Pompeii.
	if sum.Bounds.MinLat <= 40.634 || sum.Bounds.MinLat >= 40.7489 {
		t.Errorf("unexpected min lat %v", sum.Bounds.MinLat)
	}
	// Only the two polygons have area.
	if math.Abs(sum.TotalAreaSqKm-(123.21+0.0121*0.0072*111*111)) > 0.01 {
		t.Errorf("unexpected area %v", sum.TotalAreaSqKm)
	}

	if _, err := svc.Summarize(nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDatasetService_Summarize_Perimeter(t *testing.T) {
	svc := usecases.NewDatasetService(nil, nil, nil)
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}))
	fc.Append(geojson.NewFeature(orb.LineString{{0, 0}, {0, 1}}))
	fc.Append(geojson.NewFeature(orb.Point{5, 5}))

	sum, err := svc.Summarize(fc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.TotalPerimeterKm != 555 {
		t.Errorf("expected perimeter 555 km, got %v", sum.TotalPerimeterKm)
	}
	if sum.TotalAreaSqKm != 12321 {
		t.Errorf("expected area 12321 sq km, got %v", sum.TotalAreaSqKm)
	}
}

func TestDatasetService_ProcessRealtime(t *testing.T) {
	pub := &mockPublisher{}
	svc := usecases.NewDatasetService(&mockLandmarkRepo{}, nil, pub)

	out, err := svc.ProcessRealtime(context.Background(), domain.FeatureCollection(sampleLandmarks()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.FeatureCount != 8 {
		t.Errorf("expected 8, got %d", out.FeatureCount)
	}
	if out.GeometryTypes["Point"] != 4 || out.GeometryTypes["Polygon"] != 2 {
		t.Errorf("unexpected geometry types %v", out.GeometryTypes)
	}
	want := []float64{9.2, 40.634, 14.9, 46.1}
	for i := range want {
		if out.Bounds[i] != want[i] {
			t.Fatalf("expected bounds %v, got %v", want, out.Bounds)
		}
	}
	if len(pub.events) != 1 || pub.events[0].Type != domain.EventRealtimeAnalysis {
		t.Errorf("expected realtime_analysis event, got %+v", pub.events)
	}
}

func TestDatasetService_ProcessRealtime_Empty(t *testing.T) {
	svc := usecases.NewDatasetService(&mockLandmarkRepo{}, nil, nil)
	out, err := svc.ProcessRealtime(context.Background(), geojson.NewFeatureCollection())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.FeatureCount != 0 || len(out.Bounds) != 0 {
		t.Errorf("unexpected summary %+v", out)
	}
}
