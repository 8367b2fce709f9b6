package geospatial

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestHaversine(t *testing.T) {
	// Colosseum to Pompeii is roughly 209 km.
	d := HaversineKm(41.8902, 12.4922, 40.7489, 14.4848)
	if d < 200 || d > 220 {
		t.Errorf("unexpected distance %.2f km", d)
	}
	if got := Haversine(41.9, 12.5, 41.9, 12.5); got != 0 {
		t.Errorf("expected 0 for identical points, got %f", got)
	}
}

func TestPlanarDistanceKm(t *testing.T) {
	if got := PlanarDistanceKm(0, 0, 1, 0); math.Abs(got-111) > 1e-9 {
		t.Errorf("one degree of latitude should be 111 km, got %f", got)
	}
	at60 := PlanarDistanceKm(60, 0, 60, 1)
	if math.Abs(at60-55.5) > 0.01 {
		t.Errorf("one degree of longitude at 60N should be ~55.5 km, got %f", at60)
	}
}

func TestBoundingBox(t *testing.T) {
	minLat, minLon, maxLat, maxLon := BoundingBox(42, 12, 1000)
	if minLat >= 42 || maxLat <= 42 || minLon >= 12 || maxLon <= 12 {
		t.Errorf("box does not contain the centre: %f %f %f %f", minLat, minLon, maxLat, maxLon)
	}
}

func TestCentroid(t *testing.T) {
	square := orb.Polygon{{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {0, 0}}}
	c := Centroid(square)
	if math.Abs(c.Lon()-1) > 1e-9 || math.Abs(c.Lat()-1) > 1e-9 {
		t.Errorf("expected (1,1), got %v", c)
	}
	p := orb.Point{12.5, 41.9}
	if Centroid(p) != p {
		t.Errorf("point centroid should be the point itself")
	}
	line := orb.LineString{{0, 0}, {2, 0}}
	if c := Centroid(line); math.Abs(c.Lon()-1) > 1e-9 {
		t.Errorf("expected line midpoint, got %v", c)
	}
}

func TestAreaAndPerimeter(t *testing.T) {
	square := orb.Polygon{{{9.2, 46.0}, {9.3, 46.0}, {9.3, 46.1}, {9.2, 46.1}, {9.2, 46.0}}}
	if got := AreaSqKm(square); math.Abs(got-123.21) > 0.01 {
		t.Errorf("expected ~123.21 km², got %f", got)
	}
	if got := AreaSqKm(orb.Point{1, 1}); got != 0 {
		t.Errorf("point area should be 0, got %f", got)
	}
	line := orb.LineString{{0, 0}, {0, 1}}
	if got := PerimeterKm(line); math.Abs(got-111) > 1e-9 {
		t.Errorf("expected 111 km, got %f", got)
	}
}

func TestExtent(t *testing.T) {
	b, ok := Extent([]orb.Geometry{orb.Point{1, 2}, orb.LineString{{-1, 0}, {3, 5}}})
	if !ok {
		t.Fatal("expected extent")
	}
	if b.Min != (orb.Point{-1, 0}) || b.Max != (orb.Point{3, 5}) {
		t.Errorf("unexpected extent %v", b)
	}
	if _, ok := Extent(nil); ok {
		t.Error("empty input should report no extent")
	}
}

func TestParseBBox(t *testing.T) {
	b, err := ParseBBox("10, 40,15,45")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Min != (orb.Point{10, 40}) || b.Max != (orb.Point{15, 45}) {
		t.Errorf("unexpected bound %v", b)
	}

	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "15,40,10,45", "1,2,3,NaN"} {
		if _, err := ParseBBox(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestRound(t *testing.T) {
	if got := Round(1.23456, 2); got != 1.23 {
		t.Errorf("expected 1.23, got %f", got)
	}
}
