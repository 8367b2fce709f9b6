package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/italygeo/explorer/internal/core/domain"
)

// TaskQueue is the default queue analysis workers poll.
const TaskQueue = "analysis-queue"

// AnalysisInput is the input for the analysis workflow.
type AnalysisInput struct {
	Request     domain.AnalysisRequest
	RequestedAt time.Time
}

// AnalysisOutput identifies the stored analysis.
type AnalysisOutput struct {
	ResultID int64
	Type     string
}

// AnalysisWorkflow computes an analysis, stores it and announces it. A failed
// announcement is logged but does not fail the workflow: the result is
// already persisted and visible in the history.
func AnalysisWorkflow(ctx workflow.Context, input AnalysisInput) (*AnalysisOutput, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting analysis workflow", "type", input.Request.Type)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
			NonRetryableErrorTypes: []string{
				ErrTypeInvalidRequest,
			},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Compute
	var result domain.AnalysisResult
	if err := workflow.ExecuteActivity(ctx, "ComputeAnalysis", input.Request).Get(ctx, &result); err != nil {
		return nil, err
	}

	// Step 2: Persist
	var saved domain.AnalysisResult
	if err := workflow.ExecuteActivity(ctx, "SaveAnalysis", result).Get(ctx, &saved); err != nil {
		return nil, err
	}

	// Step 3: Announce
	if err := workflow.ExecuteActivity(ctx, "PublishAnalysis", saved).Get(ctx, nil); err != nil {
		logger.Warn("analysis announcement failed", "id", saved.ID, "error", err)
	}

	logger.Info("Analysis stored", "id", saved.ID)
	return &AnalysisOutput{ResultID: saved.ID, Type: saved.Type}, nil
}
