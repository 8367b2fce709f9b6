package domain_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"github.com/italygeo/explorer/internal/core/domain"
)

func TestSampleLandmarks_Valid(t *testing.T) {
	samples := domain.SampleLandmarks()
	if len(samples) != 8 {
		t.Fatalf("expected 8 sample landmarks, got %d", len(samples))
	}
	kinds := map[string]int{}
	for _, s := range samples {
		if err := s.Validate(); err != nil {
			t.Errorf("%s: %v", s.Name, err)
		}
		kinds[s.Geometry.GeoJSONType()]++
	}
	if kinds["Point"] != 4 || kinds["LineString"] != 2 || kinds["Polygon"] != 2 {
		t.Errorf("unexpected geometry mix: %v", kinds)
	}
}

func TestLandmarkInput_Validate(t *testing.T) {
	valid := domain.LandmarkInput{Name: "X", Type: "monument", Geometry: orb.Point{12, 42}}

	cases := []struct {
		name   string
		mutate func(in *domain.LandmarkInput)
	}{
		{"missing name", func(in *domain.LandmarkInput) { in.Name = "" }},
		{"missing type", func(in *domain.LandmarkInput) { in.Type = "" }},
		{"missing geometry", func(in *domain.LandmarkInput) { in.Geometry = nil }},
		{"lon out of range", func(in *domain.LandmarkInput) { in.Geometry = orb.Point{181, 42} }},
		{"lat out of range", func(in *domain.LandmarkInput) { in.Geometry = orb.Point{12, -91} }},
		{"short linestring", func(in *domain.LandmarkInput) { in.Geometry = orb.LineString{{12, 42}} }},
		{"open ring", func(in *domain.LandmarkInput) {
			in.Geometry = orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}}}
		}},
		{"multipoint", func(in *domain.LandmarkInput) { in.Geometry = orb.MultiPoint{{1, 1}} }},
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			err := in.Validate()
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestLandmark_JSONKeepsGeometry(t *testing.T) {
	in := domain.Landmark{
		ID:        7,
		Name:      "Lake Como",
		Type:      "lake",
		Geometry:  orb.Polygon{{{9.2, 46}, {9.3, 46}, {9.3, 46.1}, {9.2, 46}}},
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out domain.Landmark
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	poly, ok := out.Geometry.(orb.Polygon)
	if !ok {
		t.Fatalf("expected polygon, got %T", out.Geometry)
	}
	if len(poly[0]) != 4 || out.ID != 7 || !out.CreatedAt.Equal(in.CreatedAt) {
		t.Errorf("unexpected decode: %+v", out)
	}
}

func TestLandmark_FeatureCoreFieldsWin(t *testing.T) {
	l := domain.Landmark{
		ID:         3,
		Name:       "Pompeii",
		Type:       "archaeological_site",
		Geometry:   orb.Point{14.4848, 40.7489},
		Properties: map[string]any{"name": "spoofed", "area": "66 hectares"},
	}
	f := l.Feature()
	if f.ID != int64(3) {
		t.Errorf("expected id 3, got %v", f.ID)
	}
	if f.Properties["name"] != "Pompeii" {
		t.Errorf("core name should win, got %v", f.Properties["name"])
	}
	if f.Properties["area"] != "66 hectares" {
		t.Errorf("custom property lost")
	}
}

func TestBounds_Validate(t *testing.T) {
	if err := (domain.Bounds{MinLat: 40, MinLon: 10, MaxLat: 45, MaxLon: 15}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (domain.Bounds{MinLat: 45, MinLon: 10, MaxLat: 40, MaxLon: 15}).Validate(); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
