// Package astro provides astronomical coordinate transformations and sidereal time.
package astro

import (
	"math"
	"time"
)

// Obliquity is the fixed mean obliquity of the ecliptic in degrees.
const Obliquity = 23.4397

// J2000 is the Julian Day of the J2000.0 epoch.
const J2000 = 2451545.0

// Equatorial holds equatorial coordinates in degrees.
type Equatorial struct {
	RA  float64 // Right Ascension (0-360)
	Dec float64 // Declination (-90 to +90)
}

// SkyCoord represents celestial coordinates with both equatorial (RA/Dec)
// and horizontal (Az/El) components.
type SkyCoord struct {
	RAdeg  float64
	DecDeg float64

	AzDeg float64 // 0=N, 90=E, 180=S, 270=W
	ElDeg float64 // 0=horizon, 90=zenith
}

// Observer represents a ground-based observer location.
type Observer struct {
	LatDeg float64 // North positive
	LonDeg float64 // East positive
}

// EclipticToEquatorial converts ecliptic longitude/latitude (degrees) to
// right ascension and declination using the fixed mean obliquity.
func EclipticToEquatorial(lonDeg, latDeg float64) Equatorial {
	lambda := degToRad(lonDeg)
	beta := degToRad(latDeg)
	eps := degToRad(Obliquity)

	ra := math.Atan2(
		math.Sin(lambda)*math.Cos(eps)-math.Tan(beta)*math.Sin(eps),
		math.Cos(lambda),
	)
	dec := math.Asin(math.Sin(beta)*math.Cos(eps) + math.Cos(beta)*math.Sin(eps)*math.Sin(lambda))

	return Equatorial{
		RA:  normalizeAngle360(radToDeg(ra)),
		Dec: radToDeg(dec),
	}
}

// JulianDay calculates the Julian Day for a given time (Gregorian calendar).
func JulianDay(t time.Time) float64 {
	t = t.UTC()

	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())

	h := float64(t.Hour())
	min := float64(t.Minute())
	sec := float64(t.Second())
	ns := float64(t.Nanosecond())

	dayFrac := (h + min/60 + sec/3600 + ns/3600e9) / 24.0

	// January/February count as months 13/14 of the previous year
	if m <= 2 {
		y--
		m += 12
	}

	A := math.Floor(y / 100)
	B := 2 - A + math.Floor(A/4)

	return math.Floor(365.25*(y+4716)) +
		math.Floor(30.6001*(m+1)) +
		d + dayFrac + B - 1524.5
}

// GMST calculates Greenwich Mean Sidereal Time in degrees for a Julian Day.
// Uses the IAU 1982 expression, normalized to [0, 360).
func GMST(jd float64) float64 {
	T := (jd - J2000) / 36525.0

	gmst := 280.46061837 +
		360.98564736629*(jd-J2000) +
		0.000387933*T*T -
		T*T*T/38710000.0

	return normalizeAngle360(gmst)
}

// LocalSiderealTime calculates the Local Sidereal Time in degrees
// for a given UTC time and observer longitude.
func LocalSiderealTime(t time.Time, lonDeg float64) float64 {
	return normalizeAngle360(GMST(JulianDay(t)) + lonDeg)
}

// EquatorialToHorizontal converts equatorial coordinates (RA/Dec) to horizontal
// coordinates (Az/El) for a given observer and time.
// The input RA/Dec values are preserved in the result.
func EquatorialToHorizontal(eq SkyCoord, obs Observer, t time.Time) SkyCoord {
	lat := degToRad(obs.LatDeg)
	ra := degToRad(eq.RAdeg)
	dec := degToRad(eq.DecDeg)

	lst := degToRad(LocalSiderealTime(t, obs.LonDeg))

	// Hour Angle = LST - RA
	ha := lst - ra

	sinAlt := math.Sin(dec)*math.Sin(lat) + math.Cos(dec)*math.Cos(lat)*math.Cos(ha)
	alt := math.Asin(sinAlt)

	cosAz := (math.Sin(dec) - math.Sin(alt)*math.Sin(lat)) / (math.Cos(alt) * math.Cos(lat))
	// Clamp for floating point error
	if cosAz > 1 {
		cosAz = 1
	} else if cosAz < -1 {
		cosAz = -1
	}

	az := math.Acos(cosAz)

	// Positive hour angle: west of the meridian
	if math.Sin(ha) > 0 {
		az = 2*math.Pi - az
	}

	return SkyCoord{
		RAdeg:  eq.RAdeg,
		DecDeg: eq.DecDeg,
		AzDeg:  normalizeAngle360(radToDeg(az)),
		ElDeg:  radToDeg(alt),
	}
}

// Midheaven returns the ecliptic longitude of the upper meridian for a
// local sidereal time (degrees).
func Midheaven(lstDeg float64) float64 {
	theta := degToRad(lstDeg)
	eps := degToRad(Obliquity)
	return normalizeAngle360(radToDeg(math.Atan2(math.Sin(theta), math.Cos(theta)*math.Cos(eps))))
}

// Ascendant returns the ecliptic longitude rising on the eastern horizon for
// a local sidereal time and geographic latitude (degrees).
func Ascendant(lstDeg, latDeg float64) float64 {
	theta := degToRad(lstDeg)
	eps := degToRad(Obliquity)
	phi := degToRad(latDeg)

	asc := math.Atan2(
		math.Cos(theta),
		-(math.Sin(theta)*math.Cos(eps) + math.Tan(phi)*math.Sin(eps)),
	)
	return normalizeAngle360(radToDeg(asc))
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// normalizeAngle360 normalizes an angle to 0-360 degrees.
func normalizeAngle360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a -= 360
	}
	return a
}
