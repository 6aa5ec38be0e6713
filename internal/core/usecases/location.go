package usecases

import (
	"sync"

	"github.com/samirrijal/fadepin/internal/core/domain"
)

// LocationTracker holds the latest observer position reported by the
// location collaborator together with its loading or error status.
// On error the last known origin is kept.
type LocationTracker struct {
	mu       sync.RWMutex
	origin   *domain.GeoPoint
	status   domain.LocationStatus
	reason   domain.LocationErrorReason
	fallback *domain.GeoPoint
}

// NewLocationTracker starts in the loading state. fallback, if non-nil, is
// used as the origin until a first fix arrives.
func NewLocationTracker(fallback *domain.GeoPoint) *LocationTracker {
	t := &LocationTracker{status: domain.LocationLoading, fallback: fallback}
	if fallback != nil {
		p := *fallback
		t.origin = &p
	}
	return t
}

// Update records a position fix.
func (t *LocationTracker) Update(p domain.GeoPoint) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.origin = &p
	t.status = domain.LocationReady
	t.reason = ""
}

// Fail records that no position is available. Unknown reasons are reported
// as position_unavailable.
func (t *LocationTracker) Fail(reason domain.LocationErrorReason) {
	if !reason.Valid() {
		reason = domain.ReasonPositionUnavailable
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = domain.LocationError
	t.reason = reason
}

// Request marks a new fix as pending without dropping the current origin.
func (t *LocationTracker) Request() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = domain.LocationLoading
}

// Current returns the location as exposed to presentation.
func (t *LocationTracker) Current() domain.Location {
	t.mu.RLock()
	defer t.mu.RUnlock()

	loc := domain.Location{Status: t.status}
	if t.origin != nil {
		p := *t.origin
		loc.Origin = &p
	}
	if t.status == domain.LocationError {
		loc.Reason = t.reason
		loc.Message = t.reason.Message()
	}
	return loc
}
