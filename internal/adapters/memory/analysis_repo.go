package memory

import (
	"context"
	"sync"

	"github.com/italygeo/explorer/internal/core/domain"
)

// AnalysisRepo implements ports.AnalysisRepository in memory.
type AnalysisRepo struct {
	mu      sync.RWMutex
	results []domain.AnalysisResult
}

// NewAnalysisRepo creates an empty AnalysisRepo.
func NewAnalysisRepo() *AnalysisRepo {
	return &AnalysisRepo{}
}

// Save appends a run and assigns its ID.
func (r *AnalysisRepo) Save(ctx context.Context, res *domain.AnalysisResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res.ID = int64(len(r.results) + 1)
	r.results = append(r.results, *res)
	return nil
}

// History returns up to limit runs, newest first.
func (r *AnalysisRepo) History(ctx context.Context, limit int) ([]domain.AnalysisResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.results)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.AnalysisResult, 0, n)
	for i := len(r.results) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, r.results[i])
	}
	return out, nil
}
