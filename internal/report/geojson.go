package report

import (
	"github.com/litescript/ls-chartcore/internal/acg"
)

// FeatureCollection is a GeoJSON feature collection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single GeoJSON feature.
type Feature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   Geometry       `json:"geometry"`
}

// Geometry is a MultiLineString. Coordinates are [lon, lat] pairs.
type Geometry struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates"`
}

// LinesGeoJSON returns one feature per line of every successful body,
// split at the antimeridian. Bodies are ordered by name and lines by
// type. Lines with fewer than two points are left out.
func LinesGeoJSON(res acg.Result) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}

	for _, name := range res.Succeeded() {
		for _, line := range res[name].Lines.All() {
			var coords [][][]float64
			for _, seg := range acg.SplitAntimeridian(line.Points) {
				if len(seg) < 2 {
					continue
				}
				ls := make([][]float64, len(seg))
				for i, p := range seg {
					ls[i] = []float64{p.Longitude, p.Latitude}
				}
				coords = append(coords, ls)
			}
			if len(coords) == 0 {
				continue
			}

			fc.Features = append(fc.Features, Feature{
				Type: "Feature",
				Properties: map[string]any{
					"body":  name,
					"type":  line.Type.String(),
					"angle": line.Type.Short(),
				},
				Geometry: Geometry{Type: "MultiLineString", Coordinates: coords},
			})
		}
	}
	return fc
}
