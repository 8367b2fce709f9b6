package domain

import "github.com/paulmach/orb"

// SampleLandmarks returns the eight hand-authored Italian landmarks the
// explorer ships with. A fresh slice is returned on every call.
func SampleLandmarks() []LandmarkInput {
	return []LandmarkInput{
		{
			Name:        "Colosseum",
			Description: "Ancient Roman amphitheater in Rome",
			Type:        "monument",
			Geometry:    orb.Point{12.4922, 41.8902},
			Properties:  map[string]any{"built": "70-80 AD", "capacity": "50,000 spectators"},
		},
		{
			Name:        "Leaning Tower of Pisa",
			Description: "Famous bell tower in Pisa",
			Type:        "monument",
			Geometry:    orb.Point{10.3966, 43.7230},
			Properties:  map[string]any{"height": "56.67m", "tilt": "3.97 degrees"},
		},
		{
			Name:        "Venice Grand Canal",
			Description: "Main waterway in Venice",
			Type:        "waterway",
			Geometry: orb.LineString{
				{12.3267, 45.4408}, {12.3350, 45.4300}, {12.3450, 45.4200},
			},
			Properties: map[string]any{"length": "3.8 km", "width": "30-70m"},
		},
		{
			Name:        "Vatican City",
			Description: "Independent city-state within Rome",
			Type:        "city-state",
			Geometry: orb.Polygon{{
				{12.4459, 41.9022}, {12.4580, 41.9022}, {12.4580, 41.9094}, {12.4459, 41.9094}, {12.4459, 41.9022},
			}},
			Properties: map[string]any{"area": "0.17 sq mi", "population": "825"},
		},
		{
			Name:        "Florence Cathedral",
			Description: "Cathedral of Santa Maria del Fiore",
			Type:        "cathedral",
			Geometry:    orb.Point{11.2558, 43.7731},
			Properties:  map[string]any{"height": "114m", "dome": "Brunelleschi's Dome"},
		},
		{
			Name:        "Amalfi Coast",
			Description: "Stunning coastline in southern Italy",
			Type:        "coastline",
			Geometry: orb.LineString{
				{14.6270, 40.6340}, {14.7200, 40.6500}, {14.8000, 40.6800}, {14.9000, 40.7200},
			},
			Properties: map[string]any{"length": "50 km", "region": "Campania"},
		},
		{
			Name:        "Lake Como",
			Description: "Beautiful lake in northern Italy",
			Type:        "lake",
			Geometry: orb.Polygon{{
				{9.2000, 46.0000}, {9.3000, 46.0000}, {9.3000, 46.1000}, {9.2000, 46.1000}, {9.2000, 46.0000},
			}},
			Properties: map[string]any{"area": "146 sq km", "depth": "425m"},
		},
		{
			Name:        "Pompeii",
			Description: "Ancient Roman city destroyed by Vesuvius",
			Type:        "archaeological_site",
			Geometry:    orb.Point{14.4848, 40.7489},
			Properties:  map[string]any{"destroyed": "79 AD", "area": "66 hectares"},
		},
	}
}
