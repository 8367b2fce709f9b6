// Package temporal starts background analyses on a Temporal cluster.
package temporal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"github.com/italygeo/explorer/internal/core/domain"
	"github.com/italygeo/explorer/internal/workflows"
)

// Scheduler implements ports.AnalysisScheduler by starting AnalysisWorkflow runs.
type Scheduler struct {
	client    client.Client
	taskQueue string
}

// Dial connects to the Temporal frontend.
func Dial(hostPort, namespace string) (client.Client, error) {
	c, err := client.Dial(client.Options{HostPort: hostPort, Namespace: namespace})
	if err != nil {
		return nil, fmt.Errorf("temporal dial: %w", err)
	}
	return c, nil
}

// NewScheduler creates a Scheduler on taskQueue.
func NewScheduler(c client.Client, taskQueue string) *Scheduler {
	if taskQueue == "" {
		taskQueue = workflows.TaskQueue
	}
	return &Scheduler{client: c, taskQueue: taskQueue}
}

// Schedule starts a workflow and returns its ID.
func (s *Scheduler) Schedule(ctx context.Context, req domain.AnalysisRequest) (string, error) {
	opts := client.StartWorkflowOptions{
		ID:                       "analysis-" + uuid.NewString(),
		TaskQueue:                s.taskQueue,
		WorkflowExecutionTimeout: 5 * time.Minute,
	}
	run, err := s.client.ExecuteWorkflow(ctx, opts, workflows.AnalysisWorkflow, workflows.AnalysisInput{
		Request:     req,
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("start analysis workflow: %w", err)
	}
	return run.GetID(), nil
}
