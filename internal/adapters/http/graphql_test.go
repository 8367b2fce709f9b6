package http_test

import (
	"encoding/json"
	"strings"
	"testing"
)

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func queryGraphQL(t *testing.T, env *testEnv, query string) gqlResponse {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"query": query})
	status, data, _ := doRequest(t, env.app, "POST", "/graphql", string(body))
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}
	var resp gqlResponse
	decode(t, data, &resp)
	return resp
}

func TestGraphQL_Landmarks(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := queryGraphQL(t, env, `{ landmarks(type: "monument") { id name type geometry_type centroid { lat lon } } }`)
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}
	var data struct {
		Landmarks []struct {
			ID           int    `json:"id"`
			Name         string `json:"name"`
			Type         string `json:"type"`
			GeometryType string `json:"geometry_type"`
			Centroid     struct {
				Lat float64 `json:"lat"`
				Lon float64 `json:"lon"`
			} `json:"centroid"`
		} `json:"landmarks"`
	}
	decode(t, resp.Data, &data)
	if len(data.Landmarks) != 2 {
		t.Fatalf("expected 2 monuments, got %d", len(data.Landmarks))
	}
	for _, l := range data.Landmarks {
		if l.Type != "monument" || l.GeometryType != "Point" {
			t.Errorf("unexpected landmark: %+v", l)
		}
		if l.Centroid.Lat == 0 || l.Centroid.Lon == 0 {
			t.Errorf("expected a centroid for %s", l.Name)
		}
	}
}

func TestGraphQL_Landmark(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := queryGraphQL(t, env, `{ landmark(id: 1) { name geometry } }`)
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}
	var data struct {
		Landmark struct {
			Name     string `json:"name"`
			Geometry string `json:"geometry"`
		} `json:"landmark"`
	}
	decode(t, resp.Data, &data)
	if data.Landmark.Name != "Colosseum" {
		t.Errorf("expected Colosseum, got %q", data.Landmark.Name)
	}
	if !strings.Contains(data.Landmark.Geometry, `"type":"Point"`) {
		t.Errorf("expected GeoJSON point geometry, got %s", data.Landmark.Geometry)
	}

	resp = queryGraphQL(t, env, `{ landmark(id: 999) { name } }`)
	if len(resp.Errors) == 0 {
		t.Error("expected an error for a missing landmark")
	}
}

func TestGraphQL_NearestLandmarks(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := queryGraphQL(t, env, `{ nearestLandmarks(lat: 43.7731, lon: 11.2558, limit: 2) { distance_km landmark { name } } }`)
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}
	var data struct {
		Nearest []struct {
			DistanceKm float64 `json:"distance_km"`
			Landmark   struct {
				Name string `json:"name"`
			} `json:"landmark"`
		} `json:"nearestLandmarks"`
	}
	decode(t, resp.Data, &data)
	if len(data.Nearest) != 2 {
		t.Fatalf("expected 2 results, got %d", len(data.Nearest))
	}
	if data.Nearest[0].Landmark.Name != "Florence Cathedral" || data.Nearest[0].DistanceKm != 0 {
		t.Errorf("expected Florence Cathedral at 0 km, got %+v", data.Nearest[0])
	}
}

func TestGraphQL_Statistics(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := queryGraphQL(t, env, `{ statistics { total_landmarks type_distribution { type count } spatial_bounds { min_lat max_lat } } }`)
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}
	var data struct {
		Statistics struct {
			Total int `json:"total_landmarks"`
			Types []struct {
				Type  string `json:"type"`
				Count int    `json:"count"`
			} `json:"type_distribution"`
			Bounds struct {
				MinLat float64 `json:"min_lat"`
				MaxLat float64 `json:"max_lat"`
			} `json:"spatial_bounds"`
		} `json:"statistics"`
	}
	decode(t, resp.Data, &data)
	if data.Statistics.Total != 8 {
		t.Errorf("expected 8 landmarks, got %d", data.Statistics.Total)
	}
	if len(data.Statistics.Types) != 7 || data.Statistics.Types[0].Type != "archaeological_site" {
		t.Errorf("expected 7 sorted types, got %+v", data.Statistics.Types)
	}
	if data.Statistics.Bounds.MinLat >= data.Statistics.Bounds.MaxLat {
		t.Errorf("unexpected bounds: %+v", data.Statistics.Bounds)
	}
}

func TestGraphQL_BadRequest(t *testing.T) {
	env := newTestEnv(t, nil)

	status, data, _ := doRequest(t, env.app, "POST", "/graphql", `{"query":""}`)
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	assertAPIError(t, data, "bad_request")
}
