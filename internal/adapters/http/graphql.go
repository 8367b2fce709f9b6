package http

import (
	"encoding/json"
	"sort"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
	"github.com/paulmach/orb/geojson"

	"github.com/italygeo/explorer/internal/core/domain"
	"github.com/italygeo/explorer/internal/pkg/geospatial"
)

// asLandmark accepts both value and pointer sources.
func asLandmark(src any) (domain.Landmark, bool) {
	switch l := src.(type) {
	case domain.Landmark:
		return l, true
	case *domain.Landmark:
		if l != nil {
			return *l, true
		}
	}
	return domain.Landmark{}, false
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"min_lat": &graphql.Field{Type: graphql.Float},
			"min_lon": &graphql.Field{Type: graphql.Float},
			"max_lat": &graphql.Field{Type: graphql.Float},
			"max_lon": &graphql.Field{Type: graphql.Float},
		},
	})

	landmarkType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Landmark",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.Int},
			"name":        &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"type":        &graphql.Field{Type: graphql.String},
			"created_at":  &graphql.Field{Type: graphql.DateTime},
			"updated_at":  &graphql.Field{Type: graphql.DateTime},
			"geometry_type": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					l, ok := asLandmark(p.Source)
					if !ok || l.Geometry == nil {
						return nil, nil
					}
					return l.Geometry.GeoJSONType(), nil
				},
			},
			"centroid": &graphql.Field{
				Type: geoPointType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					l, ok := asLandmark(p.Source)
					if !ok || l.Geometry == nil {
						return nil, nil
					}
					c := geospatial.Centroid(l.Geometry)
					return domain.GeoPoint{Lat: c.Lat(), Lon: c.Lon()}, nil
				},
			},
			"geometry": &graphql.Field{
				Type:        graphql.String,
				Description: "GeoJSON geometry encoded as a string",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					l, ok := asLandmark(p.Source)
					if !ok || l.Geometry == nil {
						return nil, nil
					}
					data, err := json.Marshal(geojson.NewGeometry(l.Geometry))
					if err != nil {
						return nil, err
					}
					return string(data), nil
				},
			},
		},
	})

	nearbyType := graphql.NewObject(graphql.ObjectConfig{
		Name: "NearbyLandmark",
		Fields: graphql.Fields{
			"landmark":    &graphql.Field{Type: landmarkType},
			"distance_km": &graphql.Field{Type: graphql.Float},
		},
	})

	typeCountType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TypeCount",
		Fields: graphql.Fields{
			"type":  &graphql.Field{Type: graphql.String},
			"count": &graphql.Field{Type: graphql.Int},
		},
	})

	statisticsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Statistics",
		Fields: graphql.Fields{
			"total_landmarks": &graphql.Field{Type: graphql.Int},
			"spatial_bounds":  &graphql.Field{Type: boundsType},
			"recent_activity": &graphql.Field{Type: graphql.Int},
			"last_updated":    &graphql.Field{Type: graphql.DateTime},
			"type_distribution": &graphql.Field{
				Type: graphql.NewList(typeCountType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					st, ok := p.Source.(*domain.Statistics)
					if !ok || st == nil {
						return nil, nil
					}
					out := make([]map[string]any, 0, len(st.TypeDistribution))
					for t, n := range st.TypeDistribution {
						out = append(out, map[string]any{"type": t, "count": n})
					}
					sort.Slice(out, func(i, j int) bool { return out[i]["type"].(string) < out[j]["type"].(string) })
					return out, nil
				},
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"landmarks": &graphql.Field{
				Type:        graphql.NewList(landmarkType),
				Description: "List landmarks, newest first",
				Args: graphql.FieldConfigArgument{
					"type":   &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 100},
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					landmarks, _, err := deps.Landmarks.List(p.Context, domain.LandmarkFilter{
						Type:   p.Args["type"].(string),
						Limit:  p.Args["limit"].(int),
						Offset: p.Args["offset"].(int),
					})
					return landmarks, err
				},
			},
			"landmark": &graphql.Field{
				Type:        landmarkType,
				Description: "Get a landmark by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Landmarks.Get(p.Context, int64(p.Args["id"].(int)))
				},
			},
			"nearestLandmarks": &graphql.Field{
				Type:        graphql.NewList(nearbyType),
				Description: "Landmarks closest to a point",
				Args: graphql.FieldConfigArgument{
					"lat":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					limit := p.Args["limit"].(int)
					return deps.Landmarks.Nearest(p.Context, lat, lon, limit)
				},
			},
			"statistics": &graphql.Field{
				Type:        statisticsType,
				Description: "Dataset statistics",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Landmarks.Statistics(p.Context)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
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
		if err := json.Unmarshal(c.Body(), &req); err != nil || req.Query == "" {
			return errBadRequest(c, "invalid GraphQL request")
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
