package workflows

import (
	"context"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/fadepin/internal/core/usecases"
)

// ErrTypeWrongSlot marks a prune request for a slot this worker does not own.
const ErrTypeWrongSlot = "WrongSlot"

// PruneInput is the input for the PruneSlot activity.
type PruneInput struct {
	SlotKey string
}

// ExpiryActivities holds the activity implementations for the expiry workflow.
type ExpiryActivities struct {
	Store  *usecases.MarkerStore
	Logger *slog.Logger
}

// PruneSlot reloads the slot and removes every expired marker from it. It
// returns the number of markers removed.
func (a *ExpiryActivities) PruneSlot(ctx context.Context, input PruneInput) (int, error) {
	if key := a.Store.Config().SlotKey; input.SlotKey != key {
		return 0, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("slot %q is served by another worker (this one owns %q)", input.SlotKey, key),
			ErrTypeWrongSlot, nil)
	}

	a.Store.Sync(ctx)
	before := len(a.Store.Markers())
	after := len(a.Store.RemoveExpired(ctx))
	removed := before - after
	if removed < 0 {
		removed = 0
	}

	if a.Logger != nil {
		a.Logger.Info("pruned slot", "slot", input.SlotKey, "removed", removed, "remaining", after)
	}
	return removed, nil
}
