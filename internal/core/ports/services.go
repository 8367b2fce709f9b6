package ports

import (
	"context"

	"github.com/italygeo/explorer/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// AnalysisScheduler hands analyses to a background worker and returns the job ID.
type AnalysisScheduler interface {
	Schedule(ctx context.Context, req domain.AnalysisRequest) (string, error)
}
