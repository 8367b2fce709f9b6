package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/italygeo/explorer/internal/core/domain"
	"github.com/italygeo/explorer/internal/core/usecases"
)

func landmarksAt(points ...[2]float64) []domain.Landmark {
	out := make([]domain.Landmark, len(points))
	for i, p := range points {
		out[i] = domain.Landmark{ID: int64(i + 1), Name: string(rune('A' + i)), Type: "test", Geometry: point(p[0], p[1])}
	}
	return out
}

func TestDensity(t *testing.T) {
	got := usecases.Density(landmarksAt([2]float64{0, 0}, [2]float64{0.1, 0.1}, [2]float64{1, 1}), 0.5)

	if got.TotalCells != 4 {
		t.Fatalf("expected 4 cells, got %d", got.TotalCells)
	}
	if got.OccupiedCells != 2 {
		t.Fatalf("expected 2 occupied cells, got %d", got.OccupiedCells)
	}
	first, last := got.DensityData[0], got.DensityData[1]
	if first.CellID != 0 || first.LandmarkCount != 2 || first.Density != 8 {
		t.Errorf("unexpected first cell %+v", first)
	}
	if first.CenterLat != 0.25 || first.CenterLon != 0.25 {
		t.Errorf("unexpected first cell centre %+v", first)
	}
	// The far corner belongs to the last cell.
	if last.CellID != 3 || last.LandmarkCount != 1 || last.Density != 4 {
		t.Errorf("unexpected last cell %+v", last)
	}
	if got.MaxDensity != 8 {
		t.Errorf("expected max density 8, got %v", got.MaxDensity)
	}
}

func TestDensity_Degenerate(t *testing.T) {
	got := usecases.Density(landmarksAt([2]float64{12, 42}), 0.1)
	if got.TotalCells != 0 || len(got.DensityData) != 0 {
		t.Errorf("expected no cells, got %+v", got)
	}
	if empty := usecases.Density(nil, 0.1); empty.TotalCells != 0 {
		t.Errorf("expected no cells for empty input")
	}
}

func TestDensity_SampleCountsEveryLandmark(t *testing.T) {
	got := usecases.Density(sampleLandmarks(), 0.1)
	total := 0
	for _, c := range got.DensityData {
		total += c.LandmarkCount
	}
	if total != 8 {
		t.Errorf("expected all 8 landmarks counted, got %d", total)
	}
}

func TestAccessibilityOf(t *testing.T) {
	got := usecases.AccessibilityOf(landmarksAt([2]float64{0, 0}, [2]float64{1, 0}, [2]float64{2, 0}), 50)

	if len(got.AccessibilityData) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got.AccessibilityData))
	}
	mid := got.AccessibilityData[1]
	if mid.MinDistanceKm != mid.MaxDistanceKm {
		t.Errorf("middle point should be equidistant: %+v", mid)
	}
	if mid.AvgDistanceKm < 111 || mid.AvgDistanceKm > 111.3 {
		t.Errorf("expected ~111.2 km, got %v", mid.AvgDistanceKm)
	}
	if mid.AvgTravelTimeHours != 2.22 {
		t.Errorf("expected 2.22 h, got %v", mid.AvgTravelTimeHours)
	}
	if got.MostAccessible == nil || got.MostAccessible.LandmarkID != 2 {
		t.Errorf("expected landmark 2 most accessible, got %+v", got.MostAccessible)
	}
	if got.LeastAccessible == nil || got.LeastAccessible.LandmarkID != 1 {
		t.Errorf("expected landmark 1 least accessible, got %+v", got.LeastAccessible)
	}
}

func TestAccessibilityOf_Single(t *testing.T) {
	got := usecases.AccessibilityOf(landmarksAt([2]float64{12, 42}), 50)
	a := got.AccessibilityData[0]
	if a.AvgDistanceKm != 0 || a.MinDistanceKm != 0 || a.AccessibilityScore != 1 {
		t.Errorf("unexpected lone landmark metrics %+v", a)
	}
}

func TestClusterByGeohash(t *testing.T) {
	got := usecases.ClusterByGeohash(sampleLandmarks(), 1)

	if got.NClusters != 2 {
		t.Fatalf("expected 2 clusters, got %d: %+v", got.NClusters, got.Clusters)
	}
	if got.Clusters[0].Key != "s" || got.Clusters[0].Count != 6 {
		t.Errorf("unexpected southern cluster %+v", got.Clusters[0])
	}
	if got.Clusters[1].Key != "u" || got.Clusters[1].Count != 2 {
		t.Errorf("unexpected northern cluster %+v", got.Clusters[1])
	}
	if len(got.Labels) != 8 || got.Labels[2] != "u" {
		t.Errorf("expected Venice labelled u, got %v", got.Labels)
	}
}

func TestNormalizeAnalysis(t *testing.T) {
	p, err := usecases.NormalizeAnalysis(domain.AnalysisRequest{Type: domain.AnalysisDensity})
	if err != nil || p["grid_size"] != 0.1 {
		t.Errorf("expected default grid_size, got %v (%v)", p, err)
	}
	p, err = usecases.NormalizeAnalysis(domain.AnalysisRequest{
		Type:       domain.AnalysisClustering,
		Parameters: map[string]any{"precision": float64(4)},
	})
	if err != nil || p["precision"] != 4 || p["method"] != "geohash" {
		t.Errorf("unexpected clustering params %v (%v)", p, err)
	}

	bad := []domain.AnalysisRequest{
		{},
		{Type: "heatmap"},
		{Type: domain.AnalysisDensity, Parameters: map[string]any{"grid_size": 0.0}},
		{Type: domain.AnalysisDensity, Parameters: map[string]any{"grid_size": 11.0}},
		{Type: domain.AnalysisDensity, Parameters: map[string]any{"grid_size": "wide"}},
		{Type: domain.AnalysisDensity, Parameters: map[string]any{"grid_size": "NaN"}},
		{Type: domain.AnalysisAccessibility, Parameters: map[string]any{"transport_speed": -1.0}},
		{Type: domain.AnalysisAccessibility, Parameters: map[string]any{"transport_speed": "Inf"}},
		{Type: domain.AnalysisClustering, Parameters: map[string]any{"method": "kmeans"}},
		{Type: domain.AnalysisClustering, Parameters: map[string]any{"precision": 7.0}},
		{Type: domain.AnalysisClustering, Parameters: map[string]any{"precision": 2.5}},
	}
	for _, req := range bad {
		if _, err := usecases.NormalizeAnalysis(req); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("%+v: expected ErrInvalidInput, got %v", req, err)
		}
	}
}

func TestAnalysisService_Run(t *testing.T) {
	repo := &mockLandmarkRepo{
		allFn: func(ctx context.Context) ([]domain.Landmark, error) { return sampleLandmarks(), nil },
	}
	results := &mockAnalysisRepo{}
	pub := &mockPublisher{}
	svc := usecases.NewAnalysisService(repo, results, pub, nil)

	res, err := svc.Run(context.Background(), domain.AnalysisRequest{Type: domain.AnalysisAccessibility})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ID != 1 || res.Type != domain.AnalysisAccessibility {
		t.Errorf("unexpected result %+v", res)
	}
	if _, ok := res.Results.(*domain.AccessibilityAnalysis); !ok {
		t.Errorf("unexpected results type %T", res.Results)
	}
	if len(results.saved) != 1 {
		t.Errorf("expected run to be saved")
	}
	if len(pub.events) != 1 || pub.events[0].Type != domain.EventAnalysisCompleted {
		t.Errorf("expected analysis_completed event, got %+v", pub.events)
	}
}

func TestAnalysisService_Run_SaveError(t *testing.T) {
	repo := &mockLandmarkRepo{}
	pub := &mockPublisher{}
	svc := usecases.NewAnalysisService(repo, &mockAnalysisRepo{saveErr: errors.New("db down")}, pub, nil)
	if _, err := svc.Run(context.Background(), domain.AnalysisRequest{Type: domain.AnalysisDensity}); err == nil {
		t.Fatal("expected error")
	}
	if len(pub.events) != 0 {
		t.Error("unsaved analysis must not be announced")
	}
}

func TestAnalysisService_Schedule(t *testing.T) {
	svc := usecases.NewAnalysisService(&mockLandmarkRepo{}, &mockAnalysisRepo{}, nil, nil)
	_, err := svc.Schedule(context.Background(), domain.AnalysisRequest{Type: domain.AnalysisDensity})
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable without a scheduler, got %v", err)
	}

	sched := &mockScheduler{}
	svc = usecases.NewAnalysisService(&mockLandmarkRepo{}, &mockAnalysisRepo{}, nil, sched)
	if _, err := svc.Schedule(context.Background(), domain.AnalysisRequest{Type: "bogus"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	id, err := svc.Schedule(context.Background(), domain.AnalysisRequest{Type: domain.AnalysisClustering})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "analysis-job-1" || len(sched.scheduled) != 1 {
		t.Errorf("unexpected schedule outcome %q %v", id, sched.scheduled)
	}
}

func TestAnalysisService_History_DefaultLimit(t *testing.T) {
	var got int
	results := &mockAnalysisRepo{
		historyFn: func(ctx context.Context, limit int) ([]domain.AnalysisResult, error) {
			got = limit
			return nil, nil
		},
	}
	svc := usecases.NewAnalysisService(&mockLandmarkRepo{}, results, nil, nil)
	if _, err := svc.History(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	if got != 50 {
		t.Errorf("expected default limit 50, got %d", got)
	}
}
