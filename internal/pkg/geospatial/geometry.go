package geospatial

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Centroid returns the planar centroid of g. Points return themselves.
func Centroid(g orb.Geometry) orb.Point {
	if p, ok := g.(orb.Point); ok {
		return p
	}
	c, _ := planar.CentroidArea(g)
	return c
}

// AreaSqKm approximates the area of g in square kilometres by scaling the
// planar degree area. Points and lines have no area.
func AreaSqKm(g orb.Geometry) float64 {
	if g == nil || g.Dimensions() < 2 {
		return 0
	}
	return math.Abs(planar.Area(g)) * KmPerDegree * KmPerDegree
}

// PerimeterKm approximates the length of a line, or the ring length of a
// polygon, in kilometres.
func PerimeterKm(g orb.Geometry) float64 {
	if g == nil {
		return 0
	}
	return planar.Length(g) * KmPerDegree
}

// Extent returns the union of the bounds of every geometry and false when
// geoms is empty.
func Extent(geoms []orb.Geometry) (orb.Bound, bool) {
	var (
		b     orb.Bound
		found bool
	)
	for _, g := range geoms {
		if g == nil {
			continue
		}
		if !found {
			b = g.Bound()
			found = true
			continue
		}
		b = b.Union(g.Bound())
	}
	return b, found
}

// ParseBBox parses "minLon,minLat,maxLon,maxLat".
func ParseBBox(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("bbox must have 4 comma-separated values, got %d", len(parts))
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("bbox value %q: %w", p, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return orb.Bound{}, fmt.Errorf("bbox value %q is not finite", p)
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] {
		return orb.Bound{}, fmt.Errorf("bbox min must not exceed max")
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}
