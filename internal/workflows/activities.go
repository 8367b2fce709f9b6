package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/italygeo/explorer/internal/core/domain"
	"github.com/italygeo/explorer/internal/core/usecases"
)

// ErrTypeInvalidRequest marks analysis requests that retrying cannot fix.
const ErrTypeInvalidRequest = "InvalidAnalysisRequest"

// AnalysisActivities holds the activity implementations for the analysis workflow.
type AnalysisActivities struct {
	Analysis *usecases.AnalysisService
}

// ComputeAnalysis runs the requested analysis over the current landmarks.
func (a *AnalysisActivities) ComputeAnalysis(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	res, err := a.Analysis.Compute(ctx, req)
	if errors.Is(err, domain.ErrInvalidInput) {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidRequest, err)
	}
	if err != nil {
		return nil, fmt.Errorf("compute %s analysis: %w", req.Type, err)
	}
	return res, nil
}

// SaveAnalysis persists a computed analysis and returns it with its ID.
func (a *AnalysisActivities) SaveAnalysis(ctx context.Context, res domain.AnalysisResult) (*domain.AnalysisResult, error) {
	if err := a.Analysis.Save(ctx, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// PublishAnalysis announces a stored analysis to realtime subscribers.
func (a *AnalysisActivities) PublishAnalysis(ctx context.Context, res domain.AnalysisResult) error {
	activity.GetLogger(ctx).Info("publishing analysis", "id", res.ID, "type", res.Type)
	return a.Analysis.Publish(ctx, &res)
}
