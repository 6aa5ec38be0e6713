package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/fadepin/internal/core/domain"
	"github.com/samirrijal/fadepin/internal/core/usecases"
)

// addMarkerRequest is the body of POST /v1/markers.
type addMarkerRequest struct {
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
	Type string   `json:"type"`
}

// locationRequest is the body of POST /v1/location: either a fix or an error.
type locationRequest struct {
	Lat   *float64 `json:"lat"`
	Lng   *float64 `json:"lng"`
	Error string   `json:"error"`
}

// MarkerTypeInfo describes one member of the marker type set.
type MarkerTypeInfo struct {
	Type  domain.MarkerType `json:"type"`
	Style domain.Style      `json:"style"`
}

// AddMarkerHandler places a marker at the given coordinates.
func AddMarkerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req addMarkerRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Lat == nil || req.Lng == nil {
			return errBadRequest(c, "lat and lng are required")
		}
		t, err := domain.ParseMarkerType(req.Type)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		m, err := deps.Views.AddMarker(c.UserContext(), *req.Lat, *req.Lng, t)
		if errors.Is(err, usecases.ErrInvalidMarkerType) {
			return errBadRequest(c, err.Error())
		}
		if err != nil {
			return errInternal(c, err.Error())
		}

		LoggerFromCtx(c.UserContext()).Info("marker placed", "id", m.ID, "type", m.Type.String())
		return c.Status(fiber.StatusCreated).JSON(m)
	}
}

// ListMarkersHandler returns the view for an observer. lat and lng override
// the server-wide location; radius overrides the default radius in km.
func ListMarkersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		loc, err := locationFromQuery(c, deps)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		radius := 0.0
		if raw := c.Query("radius"); raw != "" {
			radius, err = strconv.ParseFloat(raw, 64)
			if err != nil || radius <= 0 {
				return errBadRequest(c, "radius must be a positive number of kilometers")
			}
		}

		return c.JSON(deps.Views.View(loc, radius))
	}
}

// FadingMarkersHandler returns the ids currently fading out.
func FadingMarkersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"fading_ids": deps.Views.Store().FadingIDs()})
	}
}

// MarkerTypesHandler lists the marker types with their styles.
func MarkerTypesHandler() fiber.Handler {
	types := make([]MarkerTypeInfo, 0, len(domain.AllMarkerTypes()))
	for _, t := range domain.AllMarkerTypes() {
		types = append(types, MarkerTypeInfo{Type: t, Style: t.Style()})
	}

	return func(c *fiber.Ctx) error {
		return c.JSON(types)
	}
}

// GetLocationHandler returns the server-wide observer location.
func GetLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Location.Current())
	}
}

// UpdateLocationHandler records a position fix or a location error for the
// server-wide observer.
func UpdateLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req locationRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		switch {
		case req.Error != "":
			deps.Location.Fail(domain.LocationErrorReason(req.Error))
		case req.Lat != nil && req.Lng != nil:
			deps.Location.Update(domain.GeoPoint{Lat: *req.Lat, Lng: *req.Lng})
		default:
			return errBadRequest(c, "either lat and lng or error is required")
		}

		return c.JSON(deps.Location.Current())
	}
}

func locationFromQuery(c *fiber.Ctx, deps *Dependencies) (domain.Location, error) {
	latRaw, lngRaw := c.Query("lat"), c.Query("lng")
	if latRaw == "" && lngRaw == "" {
		return deps.Location.Current(), nil
	}
	if latRaw == "" || lngRaw == "" {
		return domain.Location{}, errors.New("lat and lng must be given together")
	}

	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return domain.Location{}, errors.New("lat must be a number")
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil {
		return domain.Location{}, errors.New("lng must be a number")
	}
	return domain.Location{Origin: &domain.GeoPoint{Lat: lat, Lng: lng}, Status: domain.LocationReady}, nil
}
