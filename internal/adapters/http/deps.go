package http

import (
	"context"
	"time"

	"github.com/samirrijal/fadepin/internal/core/domain"
	"github.com/samirrijal/fadepin/internal/core/usecases"
)

// ReadyCheck is a named backend check reported by /v1/ready.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Views *usecases.ViewService
	// Location is the server-wide observer used by REST and GraphQL when a
	// request carries no coordinates.
	Location *usecases.LocationTracker
	// DefaultOrigin seeds the per-connection tracker of WebSocket clients.
	DefaultOrigin *domain.GeoPoint
	// RefreshInterval is how often WebSocket clients receive a fresh view
	// for countdown labels.
	RefreshInterval time.Duration
	Checks          []ReadyCheck
}
