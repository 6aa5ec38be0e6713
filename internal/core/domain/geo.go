package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LocationStatus is the state of the observer location feed.
type LocationStatus string

const (
	LocationLoading LocationStatus = "loading"
	LocationReady   LocationStatus = "ready"
	LocationError   LocationStatus = "error"
)

// LocationErrorReason classifies why no position is available.
type LocationErrorReason string

const (
	ReasonPermissionDenied    LocationErrorReason = "permission_denied"
	ReasonPositionUnavailable LocationErrorReason = "position_unavailable"
	ReasonTimeout             LocationErrorReason = "timeout"
	ReasonUnsupported         LocationErrorReason = "unsupported"
)

// Message returns a human-readable explanation for the reason.
func (r LocationErrorReason) Message() string {
	switch r {
	case ReasonPermissionDenied:
		return "location access was denied"
	case ReasonPositionUnavailable:
		return "location information is unavailable"
	case ReasonTimeout:
		return "timed out waiting for a location fix"
	case ReasonUnsupported:
		return "location is not supported by this client"
	default:
		return "could not determine location"
	}
}

// Valid reports whether r is one of the known reasons.
func (r LocationErrorReason) Valid() bool {
	switch r {
	case ReasonPermissionDenied, ReasonPositionUnavailable, ReasonTimeout, ReasonUnsupported:
		return true
	}
	return false
}

// Location is the observer location as seen by the presentation layer.
// Origin is nil when no position (not even a fallback) is known.
type Location struct {
	Origin  *GeoPoint           `json:"origin,omitempty"`
	Status  LocationStatus      `json:"status"`
	Reason  LocationErrorReason `json:"reason,omitempty"`
	Message string              `json:"message,omitempty"`
}
