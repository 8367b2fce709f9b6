package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/paulmach/orb"

	"github.com/italygeo/explorer/internal/core/domain"
)

// --- Mock LandmarkRepository ---

type mockLandmarkRepo struct {
	listFn    func(ctx context.Context, f domain.LandmarkFilter) ([]domain.Landmark, int, error)
	getByIDFn func(ctx context.Context, id int64) (*domain.Landmark, error)
	createFn  func(ctx context.Context, in domain.LandmarkInput) (*domain.Landmark, error)
	updateFn  func(ctx context.Context, id int64, in domain.LandmarkInput) (*domain.Landmark, error)
	deleteFn  func(ctx context.Context, id int64) error
	withinFn  func(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Landmark, error)
	allFn     func(ctx context.Context) ([]domain.Landmark, error)
}

func (m *mockLandmarkRepo) List(ctx context.Context, f domain.LandmarkFilter) ([]domain.Landmark, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, f)
	}
	return nil, 0, nil
}

func (m *mockLandmarkRepo) GetByID(ctx context.Context, id int64) (*domain.Landmark, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockLandmarkRepo) Create(ctx context.Context, in domain.LandmarkInput) (*domain.Landmark, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return &domain.Landmark{ID: 1, Name: in.Name, Type: in.Type, Geometry: in.Geometry}, nil
}

func (m *mockLandmarkRepo) Update(ctx context.Context, id int64, in domain.LandmarkInput) (*domain.Landmark, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, in)
	}
	return &domain.Landmark{ID: id, Name: in.Name, Type: in.Type, Geometry: in.Geometry}, nil
}

func (m *mockLandmarkRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockLandmarkRepo) Within(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Landmark, error) {
	if m.withinFn != nil {
		return m.withinFn(ctx, lat, lon, radiusKm, limit)
	}
	return nil, nil
}

func (m *mockLandmarkRepo) All(ctx context.Context) ([]domain.Landmark, error) {
	if m.allFn != nil {
		return m.allFn(ctx)
	}
	return nil, nil
}

func (m *mockLandmarkRepo) Count(ctx context.Context) (int, error) {
	all, err := m.All(ctx)
	return len(all), err
}

// --- Mock AnalysisRepository ---

type mockAnalysisRepo struct {
	saved     []domain.AnalysisResult
	saveErr   error
	historyFn func(ctx context.Context, limit int) ([]domain.AnalysisResult, error)
}

func (m *mockAnalysisRepo) Save(ctx context.Context, r *domain.AnalysisResult) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	r.ID = int64(len(m.saved) + 1)
	m.saved = append(m.saved, *r)
	return nil
}

func (m *mockAnalysisRepo) History(ctx context.Context, limit int) ([]domain.AnalysisResult, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, limit)
	}
	return m.saved, nil
}

// --- Mock CacheService ---

var errCacheMiss = errors.New("cache miss")

type mockCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMockCache() *mockCache { return &mockCache{data: map[string][]byte{}} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	m.deleted = append(m.deleted, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	events []domain.Event
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, e domain.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

// --- Mock AnalysisScheduler ---

type mockScheduler struct {
	scheduled []domain.AnalysisRequest
}

func (m *mockScheduler) Schedule(ctx context.Context, req domain.AnalysisRequest) (string, error) {
	m.scheduled = append(m.scheduled, req)
	return "analysis-job-1", nil
}

// sampleLandmarks returns the bundled dataset with IDs assigned.
func sampleLandmarks() []domain.Landmark {
	inputs := domain.SampleLandmarks()
	out := make([]domain.Landmark, len(inputs))
	for i, in := range inputs {
		out[i] = domain.Landmark{
			ID:          int64(i + 1),
			Name:        in.Name,
			Description: in.Description,
			Type:        in.Type,
			Geometry:    in.Geometry,
			Properties:  in.Properties,
		}
	}
	return out
}

func point(lon, lat float64) orb.Geometry { return orb.Point{lon, lat} }
