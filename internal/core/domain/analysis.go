package domain

import "time"

// Analysis types understood by the analysis service.
const (
	AnalysisDensity       = "density"
	AnalysisAccessibility = "accessibility"
	AnalysisClustering    = "clustering"
)

// AnalysisRequest selects an analysis and its parameters.
type AnalysisRequest struct {
	Type       string         `json:"analysis_type"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// AnalysisResult is a persisted analysis run.
type AnalysisResult struct {
	ID         int64          `json:"id"`
	Type       string         `json:"analysis_type"`
	Parameters map[string]any `json:"parameters"`
	Results    any            `json:"results"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Statistics summarises the stored dataset.
type Statistics struct {
	TotalLandmarks   int            `json:"total_landmarks"`
	TypeDistribution map[string]int `json:"type_distribution"`
	SpatialBounds    Bounds         `json:"spatial_bounds"`
	RecentActivity   int            `json:"recent_activity"`
	LastUpdated      time.Time      `json:"last_updated"`
}

// DensityCell is an occupied grid cell.
type DensityCell struct {
	CellID        int     `json:"cell_id"`
	LandmarkCount int     `json:"landmark_count"`
	Density       float64 `json:"density"`
	CenterLat     float64 `json:"center_lat"`
	CenterLon     float64 `json:"center_lon"`
}

// DensityAnalysis is the result of a grid density analysis.
type DensityAnalysis struct {
	GridSize      float64       `json:"grid_size"`
	DensityData   []DensityCell `json:"density_data"`
	MaxDensity    float64       `json:"max_density"`
	TotalCells    int           `json:"total_cells"`
	OccupiedCells int           `json:"occupied_cells"`
}

// Accessibility holds the distance metrics of one landmark.
type Accessibility struct {
	LandmarkID         int64   `json:"landmark_id"`
	Name               string  `json:"name"`
	AvgDistanceKm      float64 `json:"avg_distance_km"`
	MinDistanceKm      float64 `json:"min_distance_km"`
	MaxDistanceKm      float64 `json:"max_distance_km"`
	AvgTravelTimeHours float64 `json:"avg_travel_time_hours"`
	MinTravelTimeHours float64 `json:"min_travel_time_hours"`
	MaxTravelTimeHours float64 `json:"max_travel_time_hours"`
	AccessibilityScore float64 `json:"accessibility_score"`
}

// AccessibilityAnalysis is the result of an accessibility analysis.
type AccessibilityAnalysis struct {
	TransportSpeedKmh float64         `json:"transport_speed_kmh"`
	AccessibilityData []Accessibility `json:"accessibility_data"`
	MostAccessible    *Accessibility  `json:"most_accessible,omitempty"`
	LeastAccessible   *Accessibility  `json:"least_accessible,omitempty"`
}

// Cluster is a group of landmarks sharing a geohash prefix.
type Cluster struct {
	Key         string   `json:"key"`
	Count       int      `json:"count"`
	CentroidLat float64  `json:"centroid_lat"`
	CentroidLon float64  `json:"centroid_lon"`
	Landmarks   []string `json:"landmarks"`
}

// ClusteringAnalysis is the result of a clustering analysis.
type ClusteringAnalysis struct {
	Method    string    `json:"method"`
	Precision int       `json:"precision"`
	Labels    []string  `json:"labels"`
	Clusters  []Cluster `json:"clusters"`
	NClusters int       `json:"n_clusters"`
}

// CollectionSummary describes an ad-hoc feature collection.
type CollectionSummary struct {
	TotalFeatures    int            `json:"total_features"`
	Bounds           Bounds         `json:"bounds"`
	FeatureTypes     map[string]int `json:"feature_types"`
	TotalAreaSqKm    float64        `json:"total_area_sqkm"`
	TotalPerimeterKm float64        `json:"total_perimeter_km"`
}

// RealtimeSummary describes a feature collection pushed for realtime processing.
type RealtimeSummary struct {
	FeatureCount  int            `json:"feature_count"`
	Bounds        []float64      `json:"bounds"`
	GeometryTypes map[string]int `json:"geometry_types"`
	Timestamp     time.Time      `json:"timestamp"`
}

// ImportReport lists the outcome of a GeoJSON import.
type ImportReport struct {
	Imported int      `json:"imported_features"`
	Skipped  int      `json:"skipped_features"`
	IDs      []int64  `json:"ids"`
	Errors   []string `json:"errors,omitempty"`
}

// CleaningReport lists what a cleaning pass found and changed.
type CleaningReport struct {
	OriginalCount int      `json:"original_count"`
	IssuesFound   []string `json:"issues_found"`
	FixesApplied  []string `json:"fixes_applied"`
	FinalCount    int      `json:"final_count"`
}

// DataQuality grades the geometries and attributes of a feature collection.
type DataQuality struct {
	TotalFeatures       int            `json:"total_features"`
	ValidGeometries     int            `json:"valid_geometries"`
	InvalidGeometries   int            `json:"invalid_geometries"`
	EmptyGeometries     int            `json:"empty_geometries"`
	NullGeometries      int            `json:"null_geometries"`
	DuplicateGeometries int            `json:"duplicate_geometries"`
	Bounds              []float64      `json:"bounds"`
	GeometryTypes       map[string]int `json:"geometry_types"`
	AttributeColumns    []string       `json:"attribute_columns"`
	MissingValues       map[string]int `json:"missing_values"`
	QualityScore        int            `json:"quality_score"`
	QualityGrade        string         `json:"quality_grade"`
}
