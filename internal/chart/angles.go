package chart

import "math"

// NormalizeDegrees wraps an angle into [0, 360).
func NormalizeDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	// -1e-15 + 360 rounds to 360
	if a >= 360 {
		a -= 360
	}
	return a
}

// NormalizeSigned wraps an angle into (-180, 180].
func NormalizeSigned(a float64) float64 {
	a = NormalizeDegrees(a)
	if a > 180 {
		a -= 360
	}
	return a
}

// AngularDifference returns the shortest signed arc from b to a, in (-180, 180].
// A positive result means a lies ahead of b along the ecliptic.
func AngularDifference(a, b float64) float64 {
	return NormalizeSigned(a - b)
}

// AngularDistance returns the unsigned shortest arc between two longitudes.
func AngularDistance(a, b float64) float64 {
	return math.Abs(AngularDifference(a, b))
}
