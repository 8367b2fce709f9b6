package usecases

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/pierrre/geohash"

	"github.com/italygeo/explorer/internal/core/domain"
	"github.com/italygeo/explorer/internal/core/ports"
	"github.com/italygeo/explorer/internal/pkg/geospatial"
	"github.com/italygeo/explorer/internal/pkg/metrics"
)

const (
	defaultGridSize       = 0.1
	maxGridSize           = 10.0
	defaultTransportSpeed = 50.0
	defaultPrecision      = 3
	maxPrecision          = 6
	defaultHistoryLimit   = 50
	maxHistoryLimit       = 500

	methodGeohash = "geohash"
)

// AnalysisService runs spatial analyses over the stored landmarks.
type AnalysisService struct {
	landmarks ports.LandmarkRepository
	results   ports.AnalysisRepository
	events    ports.EventPublisher
	scheduler ports.AnalysisScheduler
	now       func() time.Time
}

// NewAnalysisService creates a new AnalysisService. events and scheduler may be nil.
func NewAnalysisService(landmarks ports.LandmarkRepository, results ports.AnalysisRepository, events ports.EventPublisher, scheduler ports.AnalysisScheduler) *AnalysisService {
	return &AnalysisService{landmarks: landmarks, results: results, events: events, scheduler: scheduler, now: time.Now}
}

// Run computes, persists and announces an analysis.
func (s *AnalysisService) Run(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	res, err := s.Compute(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, res); err != nil {
		return nil, err
	}
	publishEvent(ctx, s.events, domain.EventAnalysisCompleted, res, s.now())
	return res, nil
}

// Compute runs an analysis without persisting it. Parameters in the result
// include the defaults that were applied.
func (s *AnalysisService) Compute(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	params, err := NormalizeAnalysis(req)
	if err != nil {
		return nil, err
	}

	landmarks, err := s.landmarks.All(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.AnalysisResult{
		Type:       req.Type,
		Parameters: params,
		Results:    analyze(req.Type, params, landmarks),
		CreatedAt:  s.now().UTC(),
	}, nil
}

// analyze dispatches on the analysis type. params must come from
// NormalizeAnalysis.
func analyze(analysisType string, params map[string]any, landmarks []domain.Landmark) any {
	start := time.Now()
	var out any
	switch analysisType {
	case domain.AnalysisDensity:
		out = Density(landmarks, params["grid_size"].(float64))
	case domain.AnalysisAccessibility:
		out = AccessibilityOf(landmarks, params["transport_speed"].(float64))
	case domain.AnalysisClustering:
		out = ClusterByGeohash(landmarks, params["precision"].(int))
	}
	metrics.AnalysisDuration.WithLabelValues(analysisType).Observe(time.Since(start).Seconds())
	metrics.AnalysisRuns.WithLabelValues(analysisType, "ok").Inc()
	return out
}

// Save persists a computed analysis and assigns its ID.
func (s *AnalysisService) Save(ctx context.Context, res *domain.AnalysisResult) error {
	if err := s.results.Save(ctx, res); err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	return nil
}

// Publish announces a completed analysis. Unlike Run it reports failures.
func (s *AnalysisService) Publish(ctx context.Context, res *domain.AnalysisResult) error {
	if s.events == nil {
		return nil
	}
	return s.events.Publish(ctx, domain.Event{
		Type:      domain.EventAnalysisCompleted,
		Data:      res,
		Timestamp: s.now().UTC(),
	})
}

// Schedule validates the request and hands it to the background worker.
func (s *AnalysisService) Schedule(ctx context.Context, req domain.AnalysisRequest) (string, error) {
	if _, err := NormalizeAnalysis(req); err != nil {
		return "", err
	}
	if s.scheduler == nil {
		return "", fmt.Errorf("%w: background analysis is not configured", domain.ErrUnavailable)
	}
	return s.scheduler.Schedule(ctx, req)
}

// History lists past analysis runs, newest first.
func (s *AnalysisService) History(ctx context.Context, limit int) ([]domain.AnalysisResult, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.results.History(ctx, limit)
}

// NormalizeAnalysis validates an analysis request and returns its parameters
// with defaults filled in.
func NormalizeAnalysis(req domain.AnalysisRequest) (map[string]any, error) {
	p := req.Parameters
	switch req.Type {
	case domain.AnalysisDensity:
		g, err := floatParam(p, "grid_size", defaultGridSize)
		if err != nil {
			return nil, err
		}
		if g <= 0 || g > maxGridSize {
			return nil, fmt.Errorf("%w: grid_size must be in (0, %g]", domain.ErrInvalidInput, maxGridSize)
		}
		return map[string]any{"grid_size": g}, nil

	case domain.AnalysisAccessibility:
		v, err := floatParam(p, "transport_speed", defaultTransportSpeed)
		if err != nil {
			return nil, err
		}
		if v <= 0 {
			return nil, fmt.Errorf("%w: transport_speed must be positive", domain.ErrInvalidInput)
		}
		return map[string]any{"transport_speed": v}, nil

	case domain.AnalysisClustering:
		method := methodGeohash
		if m, ok := p["method"]; ok {
			s, _ := m.(string)
			if s != methodGeohash {
				return nil, fmt.Errorf("%w: clustering method %v is not supported, use geohash", domain.ErrInvalidInput, m)
			}
		}
		prec, err := floatParam(p, "precision", defaultPrecision)
		if err != nil {
			return nil, err
		}
		if prec != math.Trunc(prec) || prec < 1 || prec > maxPrecision {
			return nil, fmt.Errorf("%w: precision must be an integer in [1, %d]", domain.ErrInvalidInput, maxPrecision)
		}
		return map[string]any{"method": method, "precision": int(prec)}, nil

	case "":
		return nil, fmt.Errorf("%w: analysis_type is required", domain.ErrInvalidInput)
	default:
		return nil, fmt.Errorf("%w: unknown analysis type %q", domain.ErrInvalidInput, req.Type)
	}
}

func floatParam(p map[string]any, key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		var err error
		if f, err = strconv.ParseFloat(n, 64); err != nil {
			return 0, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
	default:
		return 0, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
	}
	if !finite(f) {
		return 0, fmt.Errorf("%w: %s must be a finite number", domain.ErrInvalidInput, key)
	}
	return f, nil
}

// Density counts landmark centroids per grid cell. The grid spans the
// centroid extent in cells of gridSize degrees; each cell covers
// [min, min+gridSize) on both axes, except the last row and column which
// also take centroids lying exactly on the far edge. A degenerate extent
// (all centroids on one meridian or parallel) has no cells.
func Density(landmarks []domain.Landmark, gridSize float64) *domain.DensityAnalysis {
	out := &domain.DensityAnalysis{GridSize: gridSize, DensityData: []domain.DensityCell{}}
	if len(landmarks) == 0 {
		return out
	}

	lats := make([]float64, len(landmarks))
	lons := make([]float64, len(landmarks))
	minLat, minLon := math.Inf(1), math.Inf(1)
	maxLat, maxLon := math.Inf(-1), math.Inf(-1)
	for i, l := range landmarks {
		c := geospatial.Centroid(l.Geometry)
		lats[i], lons[i] = c.Lat(), c.Lon()
		minLat, maxLat = min(minLat, c.Lat()), max(maxLat, c.Lat())
		minLon, maxLon = min(minLon, c.Lon()), max(maxLon, c.Lon())
	}

	nx := int(math.Ceil((maxLon - minLon) / gridSize))
	ny := int(math.Ceil((maxLat - minLat) / gridSize))
	out.TotalCells = nx * ny
	if out.TotalCells == 0 {
		return out
	}

	counts := make(map[int]int)
	for i := range landmarks {
		ix := min(int(math.Floor((lons[i]-minLon)/gridSize)), nx-1)
		iy := min(int(math.Floor((lats[i]-minLat)/gridSize)), ny-1)
		counts[ix*ny+iy]++
	}

	ids := make([]int, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	area := gridSize * gridSize
	for _, id := range ids {
		ix, iy := id/ny, id%ny
		cell := domain.DensityCell{
			CellID:        id,
			LandmarkCount: counts[id],
			Density:       float64(counts[id]) / area,
			CenterLat:     minLat + (float64(iy)+0.5)*gridSize,
			CenterLon:     minLon + (float64(ix)+0.5)*gridSize,
		}
		out.DensityData = append(out.DensityData, cell)
		out.MaxDensity = max(out.MaxDensity, cell.Density)
	}
	out.OccupiedCells = len(out.DensityData)
	return out
}

// AccessibilityOf measures, for each landmark, the great-circle distance to
// every other landmark and the travel time at speedKmh.
func AccessibilityOf(landmarks []domain.Landmark, speedKmh float64) *domain.AccessibilityAnalysis {
	out := &domain.AccessibilityAnalysis{TransportSpeedKmh: speedKmh, AccessibilityData: []domain.Accessibility{}}

	centroids := make([][2]float64, len(landmarks))
	for i, l := range landmarks {
		c := geospatial.Centroid(l.Geometry)
		centroids[i] = [2]float64{c.Lat(), c.Lon()}
	}

	for i, l := range landmarks {
		var sum float64
		minD, maxD := math.Inf(1), 0.0
		n := 0
		for j := range landmarks {
			if i == j {
				continue
			}
			d := geospatial.HaversineKm(centroids[i][0], centroids[i][1], centroids[j][0], centroids[j][1])
			sum += d
			minD = min(minD, d)
			maxD = max(maxD, d)
			n++
		}
		var avg float64
		if n > 0 {
			avg = sum / float64(n)
		} else {
			minD = 0
		}
		out.AccessibilityData = append(out.AccessibilityData, domain.Accessibility{
			LandmarkID:         l.ID,
			Name:               l.Name,
			AvgDistanceKm:      geospatial.Round(avg, 2),
			MinDistanceKm:      geospatial.Round(minD, 2),
			MaxDistanceKm:      geospatial.Round(maxD, 2),
			AvgTravelTimeHours: geospatial.Round(avg/speedKmh, 2),
			MinTravelTimeHours: geospatial.Round(minD/speedKmh, 2),
			MaxTravelTimeHours: geospatial.Round(maxD/speedKmh, 2),
			AccessibilityScore: geospatial.Round(1/(avg+1), 4),
		})
	}

	for i := range out.AccessibilityData {
		a := &out.AccessibilityData[i]
		if out.MostAccessible == nil || a.AccessibilityScore > out.MostAccessible.AccessibilityScore {
			out.MostAccessible = a
		}
		if out.LeastAccessible == nil || a.AccessibilityScore < out.LeastAccessible.AccessibilityScore {
			out.LeastAccessible = a
		}
	}
	return out
}

// ClusterByGeohash groups landmarks whose centroids share a geohash of the
// given precision. Labels follow the input order; clusters are sorted by key.
func ClusterByGeohash(landmarks []domain.Landmark, precision int) *domain.ClusteringAnalysis {
	out := &domain.ClusteringAnalysis{
		Method:    methodGeohash,
		Precision: precision,
		Labels:    make([]string, 0, len(landmarks)),
		Clusters:  []domain.Cluster{},
	}

	type acc struct {
		latSum, lonSum float64
		names          []string
	}
	groups := make(map[string]*acc)
	for _, l := range landmarks {
		c := geospatial.Centroid(l.Geometry)
		key := geohash.Encode(c.Lat(), c.Lon(), precision)
		out.Labels = append(out.Labels, key)

		g, ok := groups[key]
		if !ok {
			g = &acc{}
			groups[key] = g
		}
		g.latSum += c.Lat()
		g.lonSum += c.Lon()
		g.names = append(g.names, l.Name)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		g := groups[k]
		n := float64(len(g.names))
		out.Clusters = append(out.Clusters, domain.Cluster{
			Key:         k,
			Count:       len(g.names),
			CentroidLat: geospatial.Round(g.latSum/n, 6),
			CentroidLon: geospatial.Round(g.lonSum/n, 6),
			Landmarks:   g.names,
		})
	}
	out.NClusters = len(out.Clusters)
	return out
}
