package acg

import (
	"math"

	"github.com/litescript/ls-chartcore/internal/chart"
)

// SplitAntimeridian breaks a polyline wherever consecutive points jump by
// more than 180° of longitude, which happens when a line crosses ±180°.
// Latitude gaps are not split; renderers join them.
func SplitAntimeridian(points []chart.GeoPoint) [][]chart.GeoPoint {
	if len(points) == 0 {
		return nil
	}

	var (
		segments [][]chart.GeoPoint
		start    int
	)
	for i := 1; i < len(points); i++ {
		if math.Abs(points[i].Longitude-points[i-1].Longitude) > 180 {
			segments = append(segments, points[start:i:i])
			start = i
		}
	}
	return append(segments, points[start:])
}
