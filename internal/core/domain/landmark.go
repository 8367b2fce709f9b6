package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Landmark is a named geographic feature (monument, waterway, lake, ...).
type Landmark struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Type        string         `json:"type"`
	Geometry    orb.Geometry   `json:"-"`
	Properties  map[string]any `json:"properties,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// LandmarkInput carries the editable fields of a landmark.
type LandmarkInput struct {
	Name        string
	Description string
	Type        string
	Geometry    orb.Geometry
	Properties  map[string]any
}

// LandmarkFilter narrows a landmark listing.
type LandmarkFilter struct {
	Type   string
	Bounds *Bounds
	Limit  int
	Offset int
}

// NearbyLandmark is a landmark annotated with its distance from a query point.
type NearbyLandmark struct {
	Landmark   Landmark `json:"landmark"`
	DistanceKm float64  `json:"distance_km"`
}

type landmarkJSON struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Type        string            `json:"type"`
	Geometry    *geojson.Geometry `json:"geometry"`
	Properties  map[string]any    `json:"properties,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// MarshalJSON encodes the geometry as a GeoJSON geometry object.
func (l Landmark) MarshalJSON() ([]byte, error) {
	out := landmarkJSON{
		ID:          l.ID,
		Name:        l.Name,
		Description: l.Description,
		Type:        l.Type,
		Properties:  l.Properties,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
	if l.Geometry != nil {
		out.Geometry = geojson.NewGeometry(l.Geometry)
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (l *Landmark) UnmarshalJSON(data []byte) error {
	var in landmarkJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*l = Landmark{
		ID:          in.ID,
		Name:        in.Name,
		Description: in.Description,
		Type:        in.Type,
		Properties:  in.Properties,
		CreatedAt:   in.CreatedAt,
		UpdatedAt:   in.UpdatedAt,
	}
	if in.Geometry != nil {
		l.Geometry = in.Geometry.Geometry()
	}
	return nil
}

// Feature renders the landmark as a GeoJSON feature. Custom properties are
// overlaid by the core fields so they cannot be spoofed.
func (l Landmark) Feature() *geojson.Feature {
	f := geojson.NewFeature(l.Geometry)
	f.ID = l.ID
	for k, v := range l.Properties {
		f.Properties[k] = v
	}
	f.Properties["name"] = l.Name
	f.Properties["description"] = l.Description
	f.Properties["type"] = l.Type
	if !l.CreatedAt.IsZero() {
		f.Properties["created_at"] = l.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !l.UpdatedAt.IsZero() {
		f.Properties["updated_at"] = l.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return f
}

// FeatureCollection renders landmarks as a GeoJSON feature collection.
func FeatureCollection(landmarks []Landmark) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, l := range landmarks {
		fc.Append(l.Feature())
	}
	return fc
}

// Validate checks the input against the landmark invariants.
func (in LandmarkInput) Validate() error {
	switch {
	case in.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case len(in.Name) > 255:
		return fmt.Errorf("%w: name exceeds 255 characters", ErrInvalidInput)
	case in.Type == "":
		return fmt.Errorf("%w: landmark type is required", ErrInvalidInput)
	case len(in.Type) > 100:
		return fmt.Errorf("%w: landmark type exceeds 100 characters", ErrInvalidInput)
	}
	return ValidateGeometry(in.Geometry)
}
