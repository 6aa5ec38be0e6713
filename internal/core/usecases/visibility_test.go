package usecases_test

import (
	"testing"
	"time"

	"github.com/samirrijal/fadepin/internal/core/domain"
	"github.com/samirrijal/fadepin/internal/core/usecases"
	"github.com/samirrijal/fadepin/internal/pkg/geospatial"
)

var kyiv = domain.GeoPoint{Lat: 50.4501, Lng: 30.5234}

func markerAt(id string, p domain.GeoPoint) domain.Marker {
	return domain.NewMarker(id, p.Lat, p.Lng, domain.MarkerBlue, t0, 30*time.Minute)
}

func TestFilterByRadius(t *testing.T) {
	near := markerAt("near", geospatial.Destination(kyiv, 90, 4.9))
	far := markerAt("far", geospatial.Destination(kyiv, 90, 5.1))
	north := markerAt("north", geospatial.Destination(kyiv, 0, 1))

	got := usecases.FilterByRadius([]domain.Marker{near, far, north}, &kyiv, 5)
	if len(got) != 2 {
		t.Fatalf("expected 2 visible markers, got %d", len(got))
	}
	if got[0].ID != "near" || got[1].ID != "north" {
		t.Errorf("unexpected visible markers %v", ids(got))
	}
}

func TestFilterByRadius_BoundaryInclusive(t *testing.T) {
	here := markerAt("here", kyiv)

	got := usecases.FilterByRadius([]domain.Marker{here}, &kyiv, 0)
	if len(got) != 1 {
		t.Fatalf("marker at distance 0 should be visible with radius 0, got %d", len(got))
	}
}

func TestFilterByRadius_NilOriginShowsAll(t *testing.T) {
	markers := []domain.Marker{
		markerAt("a", kyiv),
		markerAt("b", domain.GeoPoint{Lat: -33.86, Lng: 151.21}),
	}

	got := usecases.FilterByRadius(markers, nil, 5)
	if len(got) != len(markers) {
		t.Errorf("expected all %d markers without an origin, got %d", len(markers), len(got))
	}
}

func TestVisibilityFilter_Visible(t *testing.T) {
	f := usecases.NewVisibilityFilter(5)
	markers := []domain.Marker{
		markerAt("near", geospatial.Destination(kyiv, 180, 2)),
		markerAt("far", geospatial.Destination(kyiv, 180, 20)),
	}

	got := f.Visible(markers, &kyiv)
	if len(got) != 1 || got[0].ID != "near" {
		t.Errorf("expected only near, got %v", ids(got))
	}
}
