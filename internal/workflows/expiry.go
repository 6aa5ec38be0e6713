package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// ExpiryInput is the input for MarkerExpiryWorkflow.
type ExpiryInput struct {
	SlotKey   string
	MarkerID  string
	ExpiresAt int64 // epoch milliseconds
	Grace     time.Duration
}

// WorkflowID returns the deterministic workflow id for a marker.
func WorkflowID(markerID string) string {
	return "marker-expiry-" + markerID
}

// MarkerExpiryWorkflow waits until the marker's expiry plus the grace period
// and then prunes the shared slot.
func MarkerExpiryWorkflow(ctx workflow.Context, input ExpiryInput) (int, error) {
	logger := workflow.GetLogger(ctx)

	deadline := time.UnixMilli(input.ExpiresAt).Add(input.Grace)
	if wait := deadline.Sub(workflow.Now(ctx)); wait > 0 {
		logger.Info("Waiting for marker expiry", "markerID", input.MarkerID, "wait", wait)
		if err := workflow.Sleep(ctx, wait); err != nil {
			return 0, err
		}
	}

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        5,
			NonRetryableErrorTypes: []string{ErrTypeWrongSlot},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var removed int
	err := workflow.ExecuteActivity(ctx, "PruneSlot", PruneInput{SlotKey: input.SlotKey}).Get(ctx, &removed)
	if err != nil {
		return 0, err
	}

	logger.Info("Slot pruned", "markerID", input.MarkerID, "removed", removed)
	return removed, nil
}
