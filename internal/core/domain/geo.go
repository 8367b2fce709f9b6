package domain

import (
	"fmt"

	"github.com/paulmach/orb"
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Bound converts the box to an orb.Bound (x = lon, y = lat).
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

// BoundsFromOrb is the inverse of Bounds.Bound.
func BoundsFromOrb(b orb.Bound) Bounds {
	return Bounds{MinLat: b.Min.Lat(), MinLon: b.Min.Lon(), MaxLat: b.Max.Lat(), MaxLon: b.Max.Lon()}
}

// Validate rejects inverted or out-of-range boxes.
func (b Bounds) Validate() error {
	if b.MinLat > b.MaxLat || b.MinLon > b.MaxLon {
		return fmt.Errorf("%w: bbox min must not exceed max", ErrInvalidInput)
	}
	if err := validateCoord(orb.Point{b.MinLon, b.MinLat}); err != nil {
		return err
	}
	return validateCoord(orb.Point{b.MaxLon, b.MaxLat})
}

// ValidateGeometry accepts Point, LineString and Polygon geometries with
// in-range WGS 84 coordinates.
func ValidateGeometry(g orb.Geometry) error {
	switch geom := g.(type) {
	case nil:
		return fmt.Errorf("%w: geometry is required", ErrInvalidInput)
	case orb.Point:
		return validateCoord(geom)
	case orb.LineString:
		if len(geom) < 2 {
			return fmt.Errorf("%w: linestring needs at least 2 positions", ErrInvalidInput)
		}
		return validateCoords(geom)
	case orb.Polygon:
		if len(geom) == 0 {
			return fmt.Errorf("%w: polygon needs an exterior ring", ErrInvalidInput)
		}
		for _, ring := range geom {
			if len(ring) < 4 {
				return fmt.Errorf("%w: polygon ring needs at least 4 positions", ErrInvalidInput)
			}
			if !ring.Closed() {
				return fmt.Errorf("%w: polygon ring is not closed", ErrInvalidInput)
			}
			if err := validateCoords(ring); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported geometry type %s", ErrInvalidInput, g.GeoJSONType())
	}
}

func validateCoords(points []orb.Point) error {
	for _, p := range points {
		if err := validateCoord(p); err != nil {
			return err
		}
	}
	return nil
}

func validateCoord(p orb.Point) error {
	// Written as a negated range so NaN fails too.
	if !(p.Lon() >= -180 && p.Lon() <= 180 && p.Lat() >= -90 && p.Lat() <= 90) {
		return fmt.Errorf("%w: coordinate [%g, %g] out of range", ErrInvalidInput, p.Lon(), p.Lat())
	}
	return nil
}
