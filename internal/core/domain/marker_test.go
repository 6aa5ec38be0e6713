package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/samirrijal/fadepin/internal/core/domain"
)

func TestMarkerType_RoundTrip(t *testing.T) {
	for _, mt := range domain.AllMarkerTypes() {
		parsed, err := domain.ParseMarkerType(mt.String())
		if err != nil {
			t.Fatalf("parse %s: %v", mt, err)
		}
		if parsed != mt {
			t.Errorf("expected %s, got %s", mt, parsed)
		}
	}
}

func TestMarkerType_EveryTypeHasStyle(t *testing.T) {
	for _, mt := range domain.AllMarkerTypes() {
		s := mt.Style()
		if s.Color == "" || s.Label == "" {
			t.Errorf("type %s has incomplete style %+v", mt, s)
		}
	}
	if domain.MarkerSplit.Style().AccentColor == "" {
		t.Error("split marker needs an accent color")
	}
}

func TestParseMarkerType_Unknown(t *testing.T) {
	if _, err := domain.ParseMarkerType("purple"); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestMarker_JSON(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	m := domain.NewMarker("m1", 50.45, 30.52, domain.MarkerSplit, now, 30*time.Minute)

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["type"] != "split" {
		t.Errorf("expected type split on the wire, got %v", raw["type"])
	}
	if raw["createdAt"].(float64) != 1_700_000_000_000 {
		t.Errorf("unexpected createdAt %v", raw["createdAt"])
	}

	var back domain.Marker
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back != m {
		t.Errorf("round trip mismatch: %+v != %+v", back, m)
	}
}

func TestMarker_Expiry(t *testing.T) {
	now := time.UnixMilli(1_000_000)
	m := domain.NewMarker("m1", 0, 0, domain.MarkerBlue, now, time.Second)

	if m.ExpiresAt-m.CreatedAt != 1000 {
		t.Fatalf("expected expiresAt - createdAt == ttl, got %d", m.ExpiresAt-m.CreatedAt)
	}
	if m.ExpiredAt(now.Add(999 * time.Millisecond)) {
		t.Error("marker expired too early")
	}
	if !m.ExpiredAt(now.Add(time.Second)) {
		t.Error("marker should be expired exactly at expiresAt")
	}
}

func TestLocationErrorReason_Message(t *testing.T) {
	reasons := []domain.LocationErrorReason{
		domain.ReasonPermissionDenied,
		domain.ReasonPositionUnavailable,
		domain.ReasonTimeout,
		domain.ReasonUnsupported,
	}
	seen := map[string]bool{}
	for _, r := range reasons {
		if !r.Valid() {
			t.Errorf("%s should be valid", r)
		}
		msg := r.Message()
		if seen[msg] {
			t.Errorf("duplicate message %q", msg)
		}
		seen[msg] = true
	}
	if domain.LocationErrorReason("nope").Valid() {
		t.Error("unknown reason reported valid")
	}
}

func TestMarker_StateAt(t *testing.T) {
	t0 := time.UnixMilli(0)
	m := domain.NewMarker("m1", 0, 0, domain.MarkerBlue, t0, 1800*time.Second)
	lead := 5 * time.Second

	tests := []struct {
		at   time.Duration
		want domain.FadeState
	}{
		{0, domain.FadeActive},
		{1794 * time.Second, domain.FadeActive},
		{1795*time.Second - time.Millisecond, domain.FadeActive},
		{1795 * time.Second, domain.FadeFading},
		{1799*time.Second + 999*time.Millisecond, domain.FadeFading},
		{1800 * time.Second, domain.FadeRemoved},
	}
	for _, tt := range tests {
		if got := m.StateAt(t0.Add(tt.at), lead); got != tt.want {
			t.Errorf("at %v: expected %s, got %s", tt.at, tt.want, got)
		}
	}
}
