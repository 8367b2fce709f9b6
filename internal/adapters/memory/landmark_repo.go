// Package memory keeps landmarks and analysis runs in process memory. It is
// the default storage driver and needs no external services.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"github.com/italygeo/explorer/internal/core/domain"
	"github.com/italygeo/explorer/internal/pkg/geospatial"
)

// LandmarkRepo implements ports.LandmarkRepository over a guarded slice.
type LandmarkRepo struct {
	mu        sync.RWMutex
	landmarks []domain.Landmark
	nextID    int64
	now       func() time.Time
}

// NewLandmarkRepo creates an empty LandmarkRepo.
func NewLandmarkRepo() *LandmarkRepo {
	return &LandmarkRepo{nextID: 1, now: time.Now}
}

// Seed stores every input. It is meant for loading the sample dataset at
// startup and stops at the first invalid input.
func (r *LandmarkRepo) Seed(ctx context.Context, inputs []domain.LandmarkInput) error {
	for _, in := range inputs {
		if err := in.Validate(); err != nil {
			return err
		}
		if _, err := r.Create(ctx, in); err != nil {
			return err
		}
	}
	return nil
}

// List returns one page of matches ordered by created_at DESC, id DESC.
func (r *LandmarkRepo) List(ctx context.Context, f domain.LandmarkFilter) ([]domain.Landmark, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var bbox orb.Bound
	if f.Bounds != nil {
		bbox = f.Bounds.Bound()
	}

	matches := make([]domain.Landmark, 0, len(r.landmarks))
	for _, l := range r.landmarks {
		if f.Type != "" && l.Type != f.Type {
			continue
		}
		if f.Bounds != nil && !l.Geometry.Bound().Intersects(bbox) {
			continue
		}
		matches = append(matches, l)
	}
	sortNewestFirst(matches)

	total := len(matches)
	if f.Offset >= total {
		return []domain.Landmark{}, total, nil
	}
	end := total
	if f.Limit > 0 && f.Offset+f.Limit < end {
		end = f.Offset + f.Limit
	}
	return cloneAll(matches[f.Offset:end]), total, nil
}

// GetByID returns a landmark or domain.ErrNotFound.
func (r *LandmarkRepo) GetByID(ctx context.Context, id int64) (*domain.Landmark, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	l := clone(r.landmarks[i])
	return &l, nil
}

// Create assigns the next ID and stores the landmark.
func (r *LandmarkRepo) Create(ctx context.Context, in domain.LandmarkInput) (*domain.Landmark, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	l := domain.Landmark{
		ID:          r.nextID,
		Name:        in.Name,
		Description: in.Description,
		Type:        in.Type,
		Geometry:    orb.Clone(in.Geometry),
		Properties:  cloneProps(in.Properties),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.nextID++
	r.landmarks = append(r.landmarks, l)

	out := clone(l)
	return &out, nil
}

// Update replaces the editable fields of a landmark.
func (r *LandmarkRepo) Update(ctx context.Context, id int64, in domain.LandmarkInput) (*domain.Landmark, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	l := &r.landmarks[i]
	l.Name = in.Name
	l.Description = in.Description
	l.Type = in.Type
	l.Geometry = orb.Clone(in.Geometry)
	l.Properties = cloneProps(in.Properties)
	l.UpdatedAt = r.now().UTC()

	out := clone(*l)
	return &out, nil
}

// Delete removes a landmark or returns domain.ErrNotFound.
func (r *LandmarkRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	r.landmarks = append(r.landmarks[:i], r.landmarks[i+1:]...)
	return nil
}

// Within returns landmarks whose centroid is within radiusKm of the point on
// the planar approximation, closest first.
func (r *LandmarkRepo) Within(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Landmark, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type hit struct {
		l    domain.Landmark
		dist float64
	}
	// The box is padded so it never drops a centroid the planar check would
	// keep. Near the poles only the latitude bound is applied.
	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(lat, lon, 2*radiusKm*1000)
	checkLon := minLat > -89 && maxLat < 89

	var hits []hit
	for _, l := range r.landmarks {
		c := geospatial.Centroid(l.Geometry)
		if c.Lat() < minLat || c.Lat() > maxLat {
			continue
		}
		if checkLon && (c.Lon() < minLon || c.Lon() > maxLon) {
			continue
		}
		d := geospatial.PlanarDistanceKm(lat, lon, c.Lat(), c.Lon())
		if d <= radiusKm {
			hits = append(hits, hit{l: l, dist: d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]domain.Landmark, len(hits))
	for i, h := range hits {
		out[i] = clone(h.l)
	}
	return out, nil
}

// All returns every landmark ordered by created_at DESC, id DESC.
func (r *LandmarkRepo) All(ctx context.Context) ([]domain.Landmark, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := cloneAll(r.landmarks)
	sortNewestFirst(out)
	return out, nil
}

// Count returns the number of stored landmarks.
func (r *LandmarkRepo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.landmarks), nil
}

func (r *LandmarkRepo) indexOf(id int64) int {
	for i := range r.landmarks {
		if r.landmarks[i].ID == id {
			return i
		}
	}
	return -1
}

func sortNewestFirst(ls []domain.Landmark) {
	sort.SliceStable(ls, func(i, j int) bool {
		if !ls[i].CreatedAt.Equal(ls[j].CreatedAt) {
			return ls[i].CreatedAt.After(ls[j].CreatedAt)
		}
		return ls[i].ID > ls[j].ID
	})
}

func clone(l domain.Landmark) domain.Landmark {
	l.Geometry = orb.Clone(l.Geometry)
	l.Properties = cloneProps(l.Properties)
	return l
}

func cloneAll(ls []domain.Landmark) []domain.Landmark {
	out := make([]domain.Landmark, len(ls))
	for i, l := range ls {
		out[i] = clone(l)
	}
	return out
}

func cloneProps(p map[string]any) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
