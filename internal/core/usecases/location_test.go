package usecases_test

import (
	"testing"

	"github.com/samirrijal/fadepin/internal/core/domain"
	"github.com/samirrijal/fadepin/internal/core/usecases"
)

func TestLocationTracker_Lifecycle(t *testing.T) {
	tr := usecases.NewLocationTracker(&kyiv)

	loc := tr.Current()
	if loc.Status != domain.LocationLoading {
		t.Fatalf("expected loading, got %s", loc.Status)
	}
	if loc.Origin == nil || *loc.Origin != kyiv {
		t.Fatalf("expected fallback origin, got %+v", loc.Origin)
	}

	lviv := domain.GeoPoint{Lat: 49.8397, Lng: 24.0297}
	tr.Update(lviv)
	loc = tr.Current()
	if loc.Status != domain.LocationReady || *loc.Origin != lviv {
		t.Fatalf("expected ready at lviv, got %+v", loc)
	}

	tr.Fail(domain.ReasonPermissionDenied)
	loc = tr.Current()
	if loc.Status != domain.LocationError {
		t.Fatalf("expected error, got %s", loc.Status)
	}
	if loc.Reason != domain.ReasonPermissionDenied || loc.Message == "" {
		t.Errorf("unexpected error detail %+v", loc)
	}
	if loc.Origin == nil || *loc.Origin != lviv {
		t.Errorf("last known origin should survive an error, got %+v", loc.Origin)
	}

	tr.Request()
	if got := tr.Current(); got.Status != domain.LocationLoading || got.Reason != "" {
		t.Errorf("expected clean loading state, got %+v", got)
	}
}

func TestLocationTracker_NoFallback(t *testing.T) {
	tr := usecases.NewLocationTracker(nil)
	if tr.Current().Origin != nil {
		t.Error("expected no origin")
	}

	tr.Fail("bogus")
	if got := tr.Current().Reason; got != domain.ReasonPositionUnavailable {
		t.Errorf("unknown reason should map to position_unavailable, got %s", got)
	}
}
