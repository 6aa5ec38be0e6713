package ports

import (
	"context"
	"errors"
	"time"

	"github.com/samirrijal/fadepin/internal/core/domain"
)

// ErrSlotNotFound is returned by SlotStore.Load when the key was never written
// or has been evicted.
var ErrSlotNotFound = errors.New("slot not found")

// SlotStore persists the encoded marker set under a single key.
type SlotStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	// Save replaces the slot value. ttl > 0 lets backends that support it
	// drop the slot once every marker in it has expired.
	Save(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// ChangeNotifier broadcasts that a slot changed. Notifications carry only the
// slot key; observers re-read the slot themselves.
type ChangeNotifier interface {
	Publish(ctx context.Context, key string) error
	Subscribe(ctx context.Context, key string, handler func(ctx context.Context, key string)) (unsubscribe func(), err error)
}

// ExpiryScheduler arranges an out-of-process prune once a marker has expired.
type ExpiryScheduler interface {
	ScheduleExpiry(ctx context.Context, slotKey string, marker domain.Marker) error
}
