package usecases

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"

	"github.com/italygeo/explorer/internal/core/domain"
	"github.com/italygeo/explorer/internal/pkg/geospatial"
)

const unknownAttribute = "Unknown"

// requiredAttributes are filled with unknownAttribute when a cleaned feature
// lacks them.
var requiredAttributes = []string{"name", "type", "description"}

// Clean drops null, empty and duplicate geometries, trims string attributes
// and fills missing name, type and description attributes. fc is not
// modified.
func (s *DatasetService) Clean(fc *geojson.FeatureCollection) (*geojson.FeatureCollection, *domain.CleaningReport, error) {
	if fc == nil {
		return nil, nil, fmt.Errorf("%w: feature collection is required", domain.ErrInvalidInput)
	}

	report := &domain.CleaningReport{
		OriginalCount: len(fc.Features),
		IssuesFound:   []string{},
		FixesApplied:  []string{},
	}

	kept := make([]*geojson.Feature, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f.Geometry == nil || emptyGeometry(f.Geometry) {
			continue
		}
		kept = append(kept, f)
	}
	if n := len(fc.Features) - len(kept); n > 0 {
		report.IssuesFound = append(report.IssuesFound, fmt.Sprintf("Found %d null or empty geometries", n))
		report.FixesApplied = append(report.FixesApplied, "Removed null or empty geometries")
	}

	seen := make(map[string]struct{}, len(kept))
	unique := make([]*geojson.Feature, 0, len(kept))
	for _, f := range kept {
		key := wkt.MarshalString(f.Geometry)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, f)
	}
	if n := len(kept) - len(unique); n > 0 {
		report.IssuesFound = append(report.IssuesFound, fmt.Sprintf("Found %d duplicate geometries", n))
		report.FixesApplied = append(report.FixesApplied, "Removed duplicate geometries")
	}

	out := geojson.NewFeatureCollection()
	filled := 0
	for _, f := range unique {
		c := geojson.NewFeature(f.Geometry)
		c.ID = f.ID
		for k, v := range f.Properties {
			if str, ok := v.(string); ok {
				v = strings.TrimSpace(str)
			}
			c.Properties[k] = v
		}
		for _, k := range requiredAttributes {
			if v, ok := c.Properties[k]; !ok || v == nil || v == "" {
				c.Properties[k] = unknownAttribute
				filled++
			}
		}
		out.Append(c)
	}
	if filled > 0 {
		report.IssuesFound = append(report.IssuesFound, fmt.Sprintf("Found %d missing name, type or description values", filled))
		report.FixesApplied = append(report.FixesApplied, "Filled missing attributes with "+unknownAttribute)
	}
	report.FinalCount = len(out.Features)

	slog.Debug("feature collection cleaned", "original", report.OriginalCount, "final", report.FinalCount)
	return out, report, nil
}

// Validate counts null, empty, invalid and duplicate geometries, lists the
// attribute columns with their missing values, and grades the collection.
func (s *DatasetService) Validate(fc *geojson.FeatureCollection) (*domain.DataQuality, error) {
	if fc == nil {
		return nil, fmt.Errorf("%w: feature collection is required", domain.ErrInvalidInput)
	}

	q := &domain.DataQuality{
		TotalFeatures:    len(fc.Features),
		GeometryTypes:    map[string]int{},
		AttributeColumns: []string{},
		MissingValues:    map[string]int{},
	}
	columns := map[string]struct{}{}
	seen := map[string]struct{}{}
	geoms := make([]orb.Geometry, 0, len(fc.Features))

	for _, f := range fc.Features {
		for k := range f.Properties {
			columns[k] = struct{}{}
		}
		g := f.Geometry
		if g == nil {
			q.NullGeometries++
			q.InvalidGeometries++
			continue
		}
		q.GeometryTypes[g.GeoJSONType()]++
		if geometryValid(g) {
			q.ValidGeometries++
		} else {
			q.InvalidGeometries++
		}
		if emptyGeometry(g) {
			q.EmptyGeometries++
		} else {
			geoms = append(geoms, g)
		}
		key := wkt.MarshalString(g)
		if _, dup := seen[key]; dup {
			q.DuplicateGeometries++
		} else {
			seen[key] = struct{}{}
		}
	}

	if b, ok := geospatial.Extent(geoms); ok {
		q.Bounds = []float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()}
	}
	for k := range columns {
		q.AttributeColumns = append(q.AttributeColumns, k)
	}
	sort.Strings(q.AttributeColumns)
	for _, k := range q.AttributeColumns {
		missing := 0
		for _, f := range fc.Features {
			if v, ok := f.Properties[k]; !ok || v == nil {
				missing++
			}
		}
		q.MissingValues[k] = missing
	}

	if q.ValidGeometries == q.TotalFeatures {
		q.QualityScore += 40
	}
	if q.EmptyGeometries == 0 {
		q.QualityScore += 20
	}
	if q.NullGeometries == 0 {
		q.QualityScore += 20
	}
	if q.DuplicateGeometries == 0 {
		q.QualityScore += 20
	}
	q.QualityGrade = qualityGrade(q.QualityScore)
	return q, nil
}

func qualityGrade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// Analyze runs a density, accessibility or clustering analysis over the
// features of fc instead of the stored landmarks. Nothing is persisted or
// published. Features are numbered from 1 in collection order.
func (s *DatasetService) Analyze(fc *geojson.FeatureCollection, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	if fc == nil {
		return nil, fmt.Errorf("%w: feature collection is required", domain.ErrInvalidInput)
	}
	params, err := NormalizeAnalysis(req)
	if err != nil {
		return nil, err
	}

	landmarks := make([]domain.Landmark, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry == nil || emptyGeometry(f.Geometry) {
			continue
		}
		in := FeatureToInput(f, i+1)
		landmarks = append(landmarks, domain.Landmark{
			ID:          int64(i + 1),
			Name:        in.Name,
			Description: in.Description,
			Type:        in.Type,
			Geometry:    in.Geometry,
			Properties:  in.Properties,
		})
	}

	return &domain.AnalysisResult{
		Type:       req.Type,
		Parameters: params,
		Results:    analyze(req.Type, params, landmarks),
		CreatedAt:  s.now().UTC(),
	}, nil
}

// emptyGeometry reports whether g has no positions.
func emptyGeometry(g orb.Geometry) bool {
	switch g := g.(type) {
	case orb.MultiPoint:
		return len(g) == 0
	case orb.LineString:
		return len(g) == 0
	case orb.Ring:
		return len(g) == 0
	case orb.MultiLineString:
		for _, ls := range g {
			if len(ls) > 0 {
				return false
			}
		}
		return true
	case orb.Polygon:
		for _, r := range g {
			if len(r) > 0 {
				return false
			}
		}
		return true
	case orb.MultiPolygon:
		for _, p := range g {
			if !emptyGeometry(p) {
				return false
			}
		}
		return true
	case orb.Collection:
		for _, c := range g {
			if !emptyGeometry(c) {
				return false
			}
		}
		return true
	}
	return false
}

// geometryValid checks structure and coordinate range. Empty geometries are
// valid; lines need two positions and rings four, closed.
func geometryValid(g orb.Geometry) bool {
	switch g := g.(type) {
	case orb.Point:
		return coordValid(g)
	case orb.MultiPoint:
		return coordsValid(g)
	case orb.LineString:
		return len(g) == 0 || (len(g) >= 2 && coordsValid(g))
	case orb.MultiLineString:
		for _, ls := range g {
			if !geometryValid(ls) {
				return false
			}
		}
		return true
	case orb.Ring:
		return len(g) == 0 || (len(g) >= 4 && g.Closed() && coordsValid(g))
	case orb.Polygon:
		for _, r := range g {
			if !geometryValid(r) {
				return false
			}
		}
		return true
	case orb.MultiPolygon:
		for _, p := range g {
			if !geometryValid(p) {
				return false
			}
		}
		return true
	case orb.Collection:
		for _, c := range g {
			if !geometryValid(c) {
				return false
			}
		}
		return true
	}
	return true
}

func coordsValid(points []orb.Point) bool {
	for _, p := range points {
		if !coordValid(p) {
			return false
		}
	}
	return true
}

func coordValid(p orb.Point) bool {
	return p.Lon() >= -180 && p.Lon() <= 180 && p.Lat() >= -90 && p.Lat() <= 90
}
