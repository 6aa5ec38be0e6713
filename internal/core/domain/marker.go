package domain

import (
	"fmt"
	"time"
)

// MarkerType is the closed set of marker categories.
type MarkerType uint8

const (
	MarkerBlue  MarkerType = iota + 1 // category A
	MarkerGreen                       // category B
	MarkerSplit                       // mixed A/B
)

// AllMarkerTypes lists every marker type in display order.
func AllMarkerTypes() []MarkerType {
	return []MarkerType{MarkerBlue, MarkerGreen, MarkerSplit}
}

// String returns the wire name of the type.
func (t MarkerType) String() string {
	switch t {
	case MarkerBlue:
		return "blue"
	case MarkerGreen:
		return "green"
	case MarkerSplit:
		return "split"
	default:
		return fmt.Sprintf("MarkerType(%d)", uint8(t))
	}
}

// ParseMarkerType converts a wire name into a MarkerType.
func ParseMarkerType(s string) (MarkerType, error) {
	for _, t := range AllMarkerTypes() {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown marker type %q", s)
}

// Valid reports whether t is a member of the closed set.
func (t MarkerType) Valid() bool {
	switch t {
	case MarkerBlue, MarkerGreen, MarkerSplit:
		return true
	}
	return false
}

func (t MarkerType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid marker type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *MarkerType) UnmarshalText(b []byte) error {
	parsed, err := ParseMarkerType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Style is the presentation hint attached to a marker type.
type Style struct {
	Color       string `json:"color"`
	AccentColor string `json:"accent_color,omitempty"`
	Label       string `json:"label"`
}

// Style maps every marker type to its presentation hint.
func (t MarkerType) Style() Style {
	switch t {
	case MarkerBlue:
		return Style{Color: "#2563eb", Label: "Blue"}
	case MarkerGreen:
		return Style{Color: "#16a34a", Label: "Green"}
	case MarkerSplit:
		return Style{Color: "#2563eb", AccentColor: "#16a34a", Label: "Blue / Green"}
	default:
		panic(fmt.Sprintf("domain: no style for %s", t))
	}
}

// FadeState is the transient lifecycle state of a marker. It is never
// persisted; it is derived from CreatedAt and the clock.
type FadeState uint8

const (
	FadeActive FadeState = iota
	FadeFading
	FadeRemoved
)

func (s FadeState) String() string {
	switch s {
	case FadeActive:
		return "active"
	case FadeFading:
		return "fading"
	case FadeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

func (s FadeState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *FadeState) UnmarshalText(b []byte) error {
	for _, st := range []FadeState{FadeActive, FadeFading, FadeRemoved} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown fade state %q", b)
}

// Marker is an ephemeral, typed location pin.
// CreatedAt and ExpiresAt are epoch milliseconds.
type Marker struct {
	ID        string     `json:"id"`
	Lat       float64    `json:"lat"`
	Lng       float64    `json:"lng"`
	Type      MarkerType `json:"type"`
	CreatedAt int64      `json:"createdAt"`
	ExpiresAt int64      `json:"expiresAt"`
}

// NewMarker builds a marker created at now that lives for ttl.
func NewMarker(id string, lat, lng float64, t MarkerType, now time.Time, ttl time.Duration) Marker {
	created := now.UnixMilli()
	return Marker{
		ID:        id,
		Lat:       lat,
		Lng:       lng,
		Type:      t,
		CreatedAt: created,
		ExpiresAt: created + ttl.Milliseconds(),
	}
}

// Point returns the marker position.
func (m Marker) Point() GeoPoint {
	return GeoPoint{Lat: m.Lat, Lng: m.Lng}
}

// Created returns CreatedAt as a time.
func (m Marker) Created() time.Time {
	return time.UnixMilli(m.CreatedAt)
}

// Expires returns ExpiresAt as a time.
func (m Marker) Expires() time.Time {
	return time.UnixMilli(m.ExpiresAt)
}

// ExpiredAt reports whether the marker is expired at t (expiresAt <= t).
func (m Marker) ExpiredAt(t time.Time) bool {
	return m.ExpiresAt <= t.UnixMilli()
}

// StateAt derives the fade state at now. A marker fades during the last
// fadeLead before expiry and counts as removed from expiry on.
func (m Marker) StateAt(now time.Time, fadeLead time.Duration) FadeState {
	ms := now.UnixMilli()
	switch {
	case ms >= m.ExpiresAt:
		return FadeRemoved
	case ms >= m.ExpiresAt-fadeLead.Milliseconds():
		return FadeFading
	default:
		return FadeActive
	}
}
