package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/fadepin/internal/core/domain"
	"github.com/samirrijal/fadepin/internal/core/ports"
)

// WorkflowStarter is the part of client.Client the expiry starter needs.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

var _ ports.ExpiryScheduler = (*ExpiryStarter)(nil)

// ExpiryStarter starts one MarkerExpiryWorkflow per added marker.
type ExpiryStarter struct {
	client    WorkflowStarter
	taskQueue string
	grace     time.Duration
}

func NewExpiryStarter(c WorkflowStarter, taskQueue string, grace time.Duration) *ExpiryStarter {
	return &ExpiryStarter{client: c, taskQueue: taskQueue, grace: grace}
}

// ScheduleExpiry implements ports.ExpiryScheduler. A workflow already running
// for the marker is not an error.
func (s *ExpiryStarter) ScheduleExpiry(ctx context.Context, slotKey string, marker domain.Marker) error {
	opts := client.StartWorkflowOptions{
		ID:        WorkflowID(marker.ID),
		TaskQueue: s.taskQueue,
	}
	input := ExpiryInput{
		SlotKey:   slotKey,
		MarkerID:  marker.ID,
		ExpiresAt: marker.ExpiresAt,
		Grace:     s.grace,
	}

	_, err := s.client.ExecuteWorkflow(ctx, opts, MarkerExpiryWorkflow, input)
	var started *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &started) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("start expiry workflow for %s: %w", marker.ID, err)
	}
	return nil
}
