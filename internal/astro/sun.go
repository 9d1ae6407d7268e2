package astro

import (
	"math"
	"time"
)

// EclipticPosition is a body's geocentric ecliptic position with its rate of change.
type EclipticPosition struct {
	Longitude float64 // degrees, 0-360
	Latitude  float64 // degrees
	Velocity  float64 // degrees/day
}

// velocityStep is the half-width used for finite-difference velocities.
const velocityStep = 6 * time.Hour

// SunEcliptic returns the Sun's apparent geocentric ecliptic position.
// Uses a simplified solar ephemeris based on the Astronomical Almanac;
// accuracy is around 0.01 degrees.
func SunEcliptic(t time.Time) EclipticPosition {
	lon := sunLongitude(JulianDay(t))
	return EclipticPosition{
		Longitude: lon,
		Velocity:  rate(sunLongitude, t),
	}
}

// MoonEcliptic returns the Moon's geocentric ecliptic position from the
// principal periodic terms only. Accuracy is a few tenths of a degree.
func MoonEcliptic(t time.Time) EclipticPosition {
	jd := JulianDay(t)
	lon, lat := moonPosition(jd)
	return EclipticPosition{
		Longitude: lon,
		Latitude:  lat,
		Velocity: rate(func(jd float64) float64 {
			l, _ := moonPosition(jd)
			return l
		}, t),
	}
}

func sunLongitude(jd float64) float64 {
	T := (jd - J2000) / 36525.0

	// Mean longitude
	L0 := normalizeAngle360(280.46646 + 36000.76983*T + 0.0003032*T*T)

	// Mean anomaly
	M := normalizeAngle360(357.52911 + 35999.05029*T - 0.0001537*T*T)
	Mrad := degToRad(M)

	// Equation of center
	C := (1.914602 - 0.004817*T - 0.000014*T*T) * math.Sin(Mrad)
	C += (0.019993 - 0.000101*T) * math.Sin(2*Mrad)
	C += 0.000289 * math.Sin(3*Mrad)

	// Aberration and nutation in longitude
	omega := 125.04 - 1934.136*T
	return normalizeAngle360(L0 + C - 0.00569 - 0.00478*math.Sin(degToRad(omega)))
}

func moonPosition(jd float64) (lon, lat float64) {
	T := (jd - J2000) / 36525.0

	Lp := 218.3164477 + 481267.88123421*T // mean longitude
	D := degToRad(297.8501921 + 445267.1114034*T)
	M := degToRad(357.5291092 + 35999.0502909*T)
	Mp := degToRad(134.9633964 + 477198.8675055*T)
	F := degToRad(93.2720950 + 483202.0175233*T)

	lon = Lp +
		6.289*math.Sin(Mp) +
		1.274*math.Sin(2*D-Mp) +
		0.658*math.Sin(2*D) +
		0.214*math.Sin(2*Mp) -
		0.186*math.Sin(M) -
		0.114*math.Sin(2*F)

	lat = 5.128*math.Sin(F) +
		0.281*math.Sin(Mp+F) +
		0.278*math.Sin(Mp-F) +
		0.173*math.Sin(2*D-F)

	return normalizeAngle360(lon), lat
}

// rate differentiates a longitude function numerically, in degrees/day.
func rate(f func(jd float64) float64, t time.Time) float64 {
	before := f(JulianDay(t.Add(-velocityStep)))
	after := f(JulianDay(t.Add(velocityStep)))

	delta := math.Mod(after-before, 360)
	if delta > 180 {
		delta -= 360
	} else if delta < -180 {
		delta += 360
	}
	return delta / (2 * velocityStep.Hours() / 24)
}
