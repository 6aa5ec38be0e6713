package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/fadepin/internal/core/domain"
	"github.com/samirrijal/fadepin/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	styleType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Style",
		Fields: graphql.Fields{
			"color":        &graphql.Field{Type: graphql.String},
			"accent_color": &graphql.Field{Type: graphql.String},
			"label":        &graphql.Field{Type: graphql.String},
		},
	})

	markerTypeEnum := graphql.NewEnum(graphql.EnumConfig{
		Name:   "MarkerType",
		Values: markerTypeValues(),
	})

	// createdAt and expiresAt are epoch milliseconds, beyond GraphQL Int range.
	markerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Marker",
		Fields: graphql.Fields{
			"id":               &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"lat":              &graphql.Field{Type: graphql.Float},
			"lng":              &graphql.Field{Type: graphql.Float},
			"type":             &graphql.Field{Type: markerTypeEnum},
			"createdAt":        &graphql.Field{Type: graphql.Float},
			"expiresAt":        &graphql.Field{Type: graphql.Float},
			"state":            &graphql.Field{Type: graphql.String},
			"remainingSeconds": &graphql.Field{Type: graphql.Int},
			"remainingLabel":   &graphql.Field{Type: graphql.String},
			"elapsedLabel":     &graphql.Field{Type: graphql.String},
			"style":            &graphql.Field{Type: styleType},
		},
	})

	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Location",
		Fields: graphql.Fields{
			"lat":     &graphql.Field{Type: graphql.Float},
			"lng":     &graphql.Field{Type: graphql.Float},
			"status":  &graphql.Field{Type: graphql.String},
			"reason":  &graphql.Field{Type: graphql.String},
			"message": &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"markers": &graphql.Field{
				Type:        graphql.NewList(markerType),
				Description: "Markers visible from a location (server-wide location when omitted)",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.Float},
					"lng":    &graphql.ArgumentConfig{Type: graphql.Float},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					loc := deps.Location.Current()
					lat, hasLat := p.Args["lat"].(float64)
					lng, hasLng := p.Args["lng"].(float64)
					if hasLat != hasLng {
						return nil, errors.New("lat and lng must be given together")
					}
					if hasLat {
						loc = domain.Location{Origin: &domain.GeoPoint{Lat: lat, Lng: lng}, Status: domain.LocationReady}
					}
					radius, _ := p.Args["radius"].(float64)

					view := deps.Views.View(loc, radius)
					out := make([]map[string]interface{}, 0, len(view.Visible))
					for _, mv := range view.Visible {
						out = append(out, markerViewMap(mv))
					}
					return out, nil
				},
			},
			"fadingIds": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "Ids of markers currently fading out",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Views.Store().FadingIDs(), nil
				},
			},
			"location": &graphql.Field{
				Type:        locationType,
				Description: "Server-wide observer location",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return locationMap(deps.Location.Current()), nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"addMarker": &graphql.Field{
				Type:        markerType,
				Description: "Place a marker",
				Args: graphql.FieldConfigArgument{
					"lat":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"type": &graphql.ArgumentConfig{Type: graphql.NewNonNull(markerTypeEnum)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					t, ok := p.Args["type"].(domain.MarkerType)
					if !ok {
						return nil, usecases.ErrInvalidMarkerType
					}
					m, err := deps.Views.AddMarker(p.Context, p.Args["lat"].(float64), p.Args["lng"].(float64), t)
					if err != nil {
						return nil, err
					}
					return markerMap(m), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

func markerTypeValues() graphql.EnumValueConfigMap {
	values := graphql.EnumValueConfigMap{}
	for _, t := range domain.AllMarkerTypes() {
		values[t.String()] = &graphql.EnumValueConfig{Value: t, Description: t.Style().Label}
	}
	return values
}

func markerMap(m domain.Marker) map[string]interface{} {
	return map[string]interface{}{
		"id":        m.ID,
		"lat":       m.Lat,
		"lng":       m.Lng,
		"type":      m.Type,
		"createdAt": float64(m.CreatedAt),
		"expiresAt": float64(m.ExpiresAt),
		"style":     styleMap(m.Type.Style()),
	}
}

func markerViewMap(mv usecases.MarkerView) map[string]interface{} {
	out := markerMap(mv.Marker)
	out["state"] = mv.State.String()
	out["remainingSeconds"] = int(mv.RemainingSeconds)
	out["remainingLabel"] = mv.RemainingLabel
	out["elapsedLabel"] = mv.ElapsedLabel
	return out
}

func styleMap(s domain.Style) map[string]interface{} {
	return map[string]interface{}{
		"color":        s.Color,
		"accent_color": s.AccentColor,
		"label":        s.Label,
	}
}

func locationMap(loc domain.Location) map[string]interface{} {
	out := map[string]interface{}{
		"status":  string(loc.Status),
		"reason":  string(loc.Reason),
		"message": loc.Message,
	}
	if loc.Origin != nil {
		out["lat"] = loc.Origin.Lat
		out["lng"] = loc.Origin.Lng
	}
	return out
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
