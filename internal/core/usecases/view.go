package usecases

import (
	"context"
	"time"

	"github.com/samirrijal/fadepin/internal/core/domain"
	"github.com/samirrijal/fadepin/internal/pkg/geospatial"
)

// MarkerView is a marker decorated for presentation.
type MarkerView struct {
	domain.Marker
	State            domain.FadeState `json:"state"`
	RemainingSeconds int64            `json:"remaining_seconds"`
	ElapsedLabel     string           `json:"elapsed_label"`
	RemainingLabel   string           `json:"remaining_label"`
	Style            domain.Style     `json:"style"`
}

// View is what the presentation collaborator renders.
type View struct {
	Visible   []MarkerView    `json:"visible"`
	FadingIDs []string        `json:"fading_ids"`
	Location  domain.Location `json:"location"`
	RadiusKm  float64         `json:"radius_km"`
	At        int64           `json:"at"`
}

// ViewService composes the store, the visibility filter and an observer
// location into a View.
type ViewService struct {
	store    *MarkerStore
	filter   *VisibilityFilter
	fadeLead time.Duration
	now      func() time.Time
}

// NewViewService creates a ViewService.
func NewViewService(store *MarkerStore, filter *VisibilityFilter, fadeLead time.Duration, now func() time.Time) *ViewService {
	if now == nil {
		now = time.Now
	}
	return &ViewService{store: store, filter: filter, fadeLead: fadeLead, now: now}
}

// Store returns the underlying marker store.
func (s *ViewService) Store() *MarkerStore {
	return s.store
}

// RadiusKm returns the default visibility radius.
func (s *ViewService) RadiusKm() float64 {
	return s.filter.RadiusKm
}

// AddMarker forwards a user placement to the store.
func (s *ViewService) AddMarker(ctx context.Context, lat, lng float64, t domain.MarkerType) (domain.Marker, error) {
	return s.store.AddMarker(ctx, lat, lng, t)
}

// View builds the view for loc. radiusKm <= 0 uses the default radius.
func (s *ViewService) View(loc domain.Location, radiusKm float64) View {
	if radiusKm <= 0 {
		radiusKm = s.filter.RadiusKm
	}
	now := s.now()

	visible := FilterByRadius(s.store.Markers(), loc.Origin, radiusKm)
	out := make([]MarkerView, 0, len(visible))
	for _, m := range visible {
		out = append(out, MarkerView{
			Marker:           m,
			State:            m.StateAt(now, s.fadeLead),
			RemainingSeconds: geospatial.RemainingSeconds(m.ExpiresAt, now),
			ElapsedLabel:     geospatial.FormatDuration(geospatial.ElapsedSeconds(m.CreatedAt, now)),
			RemainingLabel:   geospatial.FormatDuration(geospatial.RemainingSeconds(m.ExpiresAt, now)),
			Style:            m.Type.Style(),
		})
	}

	return View{
		Visible:   out,
		FadingIDs: s.store.FadingIDs(),
		Location:  loc,
		RadiusKm:  radiusKm,
		At:        now.UnixMilli(),
	}
}
