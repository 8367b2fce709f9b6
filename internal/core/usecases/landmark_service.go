package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/paulmach/orb"

	"github.com/italygeo/explorer/internal/core/domain"
	"github.com/italygeo/explorer/internal/core/ports"
	"github.com/italygeo/explorer/internal/pkg/geospatial"
	"github.com/italygeo/explorer/internal/pkg/metrics"
)

const (
	defaultListLimit    = 100
	maxListLimit        = 1000
	defaultRadiusKm     = 50.0
	maxRadiusKm         = 1000.0
	defaultNearestLimit = 10
	maxNearestLimit     = 100

	landmarkTTL  = 600 // 10 min for a single landmark
	statsTTL     = 60
	statsKey     = "landmarks:stats"
	recentWindow = 7 * 24 * time.Hour
)

func landmarkKey(id int64) string {
	return "landmarks:id:" + strconv.FormatInt(id, 10)
}

// LandmarkService handles landmark CRUD and proximity queries.
type LandmarkService struct {
	landmarks ports.LandmarkRepository
	cache     ports.CacheService
	events    ports.EventPublisher
	now       func() time.Time
}

// NewLandmarkService creates a new LandmarkService. cache and events may be nil.
func NewLandmarkService(landmarks ports.LandmarkRepository, cache ports.CacheService, events ports.EventPublisher) *LandmarkService {
	return &LandmarkService{landmarks: landmarks, cache: cache, events: events, now: time.Now}
}

// List returns a page of landmarks and the total number of matches.
func (s *LandmarkService) List(ctx context.Context, filter domain.LandmarkFilter) ([]domain.Landmark, int, error) {
	if filter.Offset < 0 {
		return nil, 0, fmt.Errorf("%w: offset must not be negative", domain.ErrInvalidInput)
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Bounds != nil {
		if err := filter.Bounds.Validate(); err != nil {
			return nil, 0, err
		}
	}
	return s.landmarks.List(ctx, filter)
}

// Get returns a single landmark, read through the cache.
func (s *LandmarkService) Get(ctx context.Context, id int64) (*domain.Landmark, error) {
	key := landmarkKey(id)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var l domain.Landmark
			if err := json.Unmarshal(data, &l); err == nil {
				metrics.CacheHits.WithLabelValues("landmark").Inc()
				return &l, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("landmark").Inc()
	}

	l, err := s.landmarks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(l); err == nil {
			_ = s.cache.Set(ctx, key, data, landmarkTTL)
		}
	}
	return l, nil
}

// Create validates and stores a new landmark.
func (s *LandmarkService) Create(ctx context.Context, in domain.LandmarkInput) (*domain.Landmark, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	l, err := s.landmarks.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create landmark: %w", err)
	}
	metrics.LandmarkMutations.WithLabelValues("create").Inc()
	s.invalidate(ctx, 0)
	s.publish(ctx, domain.EventLandmarkCreated, l)
	return l, nil
}

// Update replaces every editable field of an existing landmark.
func (s *LandmarkService) Update(ctx context.Context, id int64, in domain.LandmarkInput) (*domain.Landmark, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	l, err := s.landmarks.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	metrics.LandmarkMutations.WithLabelValues("update").Inc()
	s.invalidate(ctx, id)
	s.publish(ctx, domain.EventLandmarkUpdated, l)
	return l, nil
}

// Delete removes a landmark.
func (s *LandmarkService) Delete(ctx context.Context, id int64) error {
	if err := s.landmarks.Delete(ctx, id); err != nil {
		return err
	}
	metrics.LandmarkMutations.WithLabelValues("delete").Inc()
	s.invalidate(ctx, id)
	s.publish(ctx, domain.EventLandmarkDeleted, map[string]int64{"id": id})
	return nil
}

// Nearby returns landmarks within radiusKm of a point, closest first.
func (s *LandmarkService) Nearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.NearbyLandmark, error) {
	if err := validatePoint(lat, lon); err != nil {
		return nil, err
	}
	if !finite(radiusKm) {
		return nil, fmt.Errorf("%w: radius must be a finite number", domain.ErrInvalidInput)
	}
	if radiusKm <= 0 {
		radiusKm = defaultRadiusKm
	}
	if radiusKm > maxRadiusKm {
		radiusKm = maxRadiusKm
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	landmarks, err := s.landmarks.Within(ctx, lat, lon, radiusKm, limit)
	if err != nil {
		return nil, err
	}
	return rankByDistance(landmarks, lat, lon, limit), nil
}

// Nearest returns the limit landmarks closest to a point by great-circle
// distance to each landmark centroid.
func (s *LandmarkService) Nearest(ctx context.Context, lat, lon float64, limit int) ([]domain.NearbyLandmark, error) {
	if err := validatePoint(lat, lon); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultNearestLimit
	}
	if limit > maxNearestLimit {
		limit = maxNearestLimit
	}

	landmarks, err := s.landmarks.All(ctx)
	if err != nil {
		return nil, err
	}
	return rankByDistance(landmarks, lat, lon, limit), nil
}

// Statistics summarises the stored dataset. Results are cached briefly.
func (s *LandmarkService) Statistics(ctx context.Context) (*domain.Statistics, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, statsKey); err == nil {
			var st domain.Statistics
			if err := json.Unmarshal(data, &st); err == nil {
				metrics.CacheHits.WithLabelValues("statistics").Inc()
				return &st, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("statistics").Inc()
	}

	landmarks, err := s.landmarks.All(ctx)
	if err != nil {
		return nil, err
	}
	st := ComputeStatistics(landmarks, s.now())

	if s.cache != nil {
		if data, err := json.Marshal(st); err == nil {
			_ = s.cache.Set(ctx, statsKey, data, statsTTL)
		}
	}
	return st, nil
}

// ComputeStatistics derives dataset statistics as of now.
func ComputeStatistics(landmarks []domain.Landmark, now time.Time) *domain.Statistics {
	st := &domain.Statistics{
		TotalLandmarks:   len(landmarks),
		TypeDistribution: make(map[string]int),
		LastUpdated:      now.UTC(),
	}
	cutoff := now.Add(-recentWindow)
	geoms := make([]orb.Geometry, 0, len(landmarks))
	for _, l := range landmarks {
		st.TypeDistribution[l.Type]++
		if l.CreatedAt.After(cutoff) {
			st.RecentActivity++
		}
		geoms = append(geoms, l.Geometry)
	}
	if b, ok := geospatial.Extent(geoms); ok {
		st.SpatialBounds = domain.BoundsFromOrb(b)
	}
	return st
}

func (s *LandmarkService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if id > 0 {
		_ = s.cache.Delete(ctx, landmarkKey(id))
	}
	_ = s.cache.Delete(ctx, statsKey)
}

func (s *LandmarkService) publish(ctx context.Context, eventType string, data any) {
	publishEvent(ctx, s.events, eventType, data, s.now())
}

func rankByDistance(landmarks []domain.Landmark, lat, lon float64, limit int) []domain.NearbyLandmark {
	out := make([]domain.NearbyLandmark, 0, len(landmarks))
	for _, l := range landmarks {
		c := geospatial.Centroid(l.Geometry)
		d := geospatial.HaversineKm(lat, lon, c.Lat(), c.Lon())
		out = append(out, domain.NearbyLandmark{Landmark: l, DistanceKm: geospatial.Round(d, 2)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func validatePoint(lat, lon float64) error {
	if !finite(lat) || !finite(lon) {
		return fmt.Errorf("%w: lat and lon must be finite numbers", domain.ErrInvalidInput)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: lat must be within [-90, 90]", domain.ErrInvalidInput)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("%w: lon must be within [-180, 180]", domain.ErrInvalidInput)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// publishEvent sends a domain event. Publishing is best effort: failures are
// logged and counted but never fail the caller.
func publishEvent(ctx context.Context, events ports.EventPublisher, eventType string, data any, now time.Time) {
	if events == nil {
		return
	}
	err := events.Publish(ctx, domain.Event{Type: eventType, Data: data, Timestamp: now.UTC()})
	if err != nil {
		metrics.EventsPublished.WithLabelValues(eventType, "error").Inc()
		slog.WarnContext(ctx, "publish event failed", "type", eventType, "error", err)
		return
	}
	metrics.EventsPublished.WithLabelValues(eventType, "ok").Inc()
}
