package ports

import (
	"context"

	"github.com/italygeo/explorer/internal/core/domain"
)

// LandmarkRepository persists landmarks.
type LandmarkRepository interface {
	// List returns one page of landmarks matching the filter and the total
	// number of matches before paging.
	List(ctx context.Context, filter domain.LandmarkFilter) ([]domain.Landmark, int, error)
	GetByID(ctx context.Context, id int64) (*domain.Landmark, error)
	Create(ctx context.Context, in domain.LandmarkInput) (*domain.Landmark, error)
	Update(ctx context.Context, id int64, in domain.LandmarkInput) (*domain.Landmark, error)
	Delete(ctx context.Context, id int64) error
	// Within returns landmarks whose centroid lies within radiusKm of the point.
	Within(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Landmark, error)
	All(ctx context.Context) ([]domain.Landmark, error)
	Count(ctx context.Context) (int, error)
}

// AnalysisRepository persists analysis runs.
type AnalysisRepository interface {
	Save(ctx context.Context, result *domain.AnalysisResult) error
	History(ctx context.Context, limit int) ([]domain.AnalysisResult, error)
}
