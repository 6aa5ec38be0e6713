package usecases

import (
	"github.com/samirrijal/fadepin/internal/core/domain"
	"github.com/samirrijal/fadepin/internal/pkg/geospatial"
)

// FilterByRadius returns the markers within radiusKm of origin, boundary
// included. A nil origin returns markers unfiltered.
func FilterByRadius(markers []domain.Marker, origin *domain.GeoPoint, radiusKm float64) []domain.Marker {
	if origin == nil {
		return markers
	}

	out := make([]domain.Marker, 0, len(markers))
	for _, m := range markers {
		if geospatial.DistanceKm(*origin, m.Point()) <= radiusKm {
			out = append(out, m)
		}
	}
	return out
}

// VisibilityFilter applies a fixed visibility radius.
type VisibilityFilter struct {
	RadiusKm float64
}

// NewVisibilityFilter creates a filter with the given radius in kilometers.
func NewVisibilityFilter(radiusKm float64) *VisibilityFilter {
	return &VisibilityFilter{RadiusKm: radiusKm}
}

// Visible returns the markers an observer at origin can see.
func (f *VisibilityFilter) Visible(markers []domain.Marker, origin *domain.GeoPoint) []domain.Marker {
	return FilterByRadius(markers, origin, f.RadiusKm)
}
