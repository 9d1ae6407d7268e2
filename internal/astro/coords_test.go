package astro

import (
	"math"
	"testing"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

func TestJulianDay(t *testing.T) {
	tests := []struct {
		name     string
		time     time.Time
		expected float64
		tol      float64
	}{
		{
			name:     "J2000 epoch",
			time:     time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
			expected: 2451545.0,
			tol:      0.0001,
		},
		{
			name:     "Unix epoch",
			time:     time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
			expected: 2440587.5,
			tol:      0.0001,
		},
		{
			name:     "Known date 2024-01-01 00:00 UTC",
			time:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			expected: 2460310.5,
			tol:      0.0001,
		},
		{
			name:     "Non-UTC input is converted",
			time:     time.Date(2000, 1, 1, 7, 0, 0, 0, time.FixedZone("EST", -5*3600)),
			expected: 2451545.0,
			tol:      0.0001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JulianDay(tt.time)
			if math.Abs(got-tt.expected) > tt.tol {
				t.Errorf("JulianDay() = %v, want %v (±%v)", got, tt.expected, tt.tol)
			}
		})
	}
}

func TestJulianDay_MatchesSGP4Library(t *testing.T) {
	times := []time.Time{
		time.Date(1987, 4, 10, 19, 21, 0, 0, time.UTC),
		time.Date(1999, 2, 28, 23, 59, 59, 0, time.UTC),
		time.Date(2024, 4, 8, 18, 17, 0, 0, time.UTC),
		time.Date(2031, 11, 14, 6, 5, 30, 0, time.UTC),
	}

	for _, tm := range times {
		want := satellite.JDay(tm.Year(), int(tm.Month()), tm.Day(), tm.Hour(), tm.Minute(), tm.Second())
		got := JulianDay(tm)
		if math.Abs(got-want) > 1e-6 {
			t.Errorf("JulianDay(%s) = %.8f, go-satellite = %.8f", tm.Format(time.RFC3339), got, want)
		}
	}
}

func TestGMST(t *testing.T) {
	gmst := GMST(J2000)
	if math.Abs(gmst-280.46061837) > 1e-6 {
		t.Errorf("GMST at J2000 = %v, want 280.46061837", gmst)
	}

	// Meeus example 12.a: 1987-04-10 0h UT, GMST = 13h10m46.3668s
	jd := JulianDay(time.Date(1987, 4, 10, 0, 0, 0, 0, time.UTC))
	want := (13 + 10.0/60 + 46.3668/3600) * 15
	if got := GMST(jd); math.Abs(got-want) > 0.001 {
		t.Errorf("GMST(1987-04-10) = %v, want %v", got, want)
	}

	for jd := 2440000.0; jd < 2470000; jd += 777.77 {
		g := GMST(jd)
		if g < 0 || g >= 360 {
			t.Errorf("GMST(%v) out of range: %v", jd, g)
		}
	}
}

func TestGMST_MatchesSGP4Library(t *testing.T) {
	for _, tm := range []time.Time{
		time.Date(2001, 6, 21, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 8, 18, 17, 0, 0, time.UTC),
		time.Date(2010, 12, 31, 23, 0, 0, 0, time.UTC),
	} {
		jd := JulianDay(tm)
		want := normalizeAngle360(radToDeg(satellite.ThetaG_JD(jd)))
		got := GMST(jd)

		diff := math.Abs(got - want)
		if diff > 180 {
			diff = 360 - diff
		}
		if diff > 0.001 {
			t.Errorf("GMST(%s) = %v, go-satellite = %v", tm.Format(time.RFC3339), got, want)
		}
	}
}

func TestLocalSiderealTime(t *testing.T) {
	testTime := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	gmst := GMST(JulianDay(testTime))
	lst0 := LocalSiderealTime(testTime, 0)
	if math.Abs(lst0-gmst) > 0.001 {
		t.Errorf("LST at lon=0 should equal GMST: got %v, want %v", lst0, gmst)
	}

	lst90 := LocalSiderealTime(testTime, 90)
	expected90 := math.Mod(gmst+90, 360)
	if math.Abs(lst90-expected90) > 0.001 {
		t.Errorf("LST at lon=90 = %v, want %v", lst90, expected90)
	}

	for lon := -180.0; lon <= 180; lon += 30 {
		lst := LocalSiderealTime(testTime, lon)
		if lst < 0 || lst >= 360 {
			t.Errorf("LST at lon=%v out of range: %v", lon, lst)
		}
	}
}

func TestEclipticToEquatorial(t *testing.T) {
	tests := []struct {
		name    string
		lon     float64
		lat     float64
		wantRA  float64
		wantDec float64
	}{
		{"vernal equinox", 0, 0, 0, 0},
		{"summer solstice", 90, 0, 90, Obliquity},
		{"autumn equinox", 180, 0, 180, 0},
		{"winter solstice", 270, 0, 270, -Obliquity},
		{"ecliptic north pole", 0, 90, 270, 90 - Obliquity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EclipticToEquatorial(tt.lon, tt.lat)
			if math.Abs(got.RA-tt.wantRA) > 1e-6 {
				t.Errorf("RA = %v, want %v", got.RA, tt.wantRA)
			}
			if math.Abs(got.Dec-tt.wantDec) > 1e-6 {
				t.Errorf("Dec = %v, want %v", got.Dec, tt.wantDec)
			}
		})
	}
}

func TestEclipticToEquatorial_Ranges(t *testing.T) {
	for lon := 0.0; lon < 360; lon += 7.5 {
		for lat := -8.0; lat <= 8; lat += 4 {
			eq := EclipticToEquatorial(lon, lat)
			if eq.RA < 0 || eq.RA >= 360 {
				t.Errorf("RA out of range for lon=%v lat=%v: %v", lon, lat, eq.RA)
			}
			if math.Abs(eq.Dec) > Obliquity+math.Abs(lat)+1e-9 {
				t.Errorf("Dec too large for lon=%v lat=%v: %v", lon, lat, eq.Dec)
			}
		}
	}
}

func TestEclipticToEquatorial_NaN(t *testing.T) {
	eq := EclipticToEquatorial(math.NaN(), 0)
	if !math.IsNaN(eq.RA) || !math.IsNaN(eq.Dec) {
		t.Errorf("NaN input should give NaN output, got %+v", eq)
	}
}

func TestMidheavenAndAscendant(t *testing.T) {
	tests := []struct {
		lst     float64
		lat     float64
		wantMC  float64
		wantAsc float64
	}{
		{0, 0, 0, 90},
		{90, 0, 90, 180},
		{180, 0, 180, 270},
		{270, 0, 270, 0},
	}

	for _, tt := range tests {
		mc := Midheaven(tt.lst)
		if math.Abs(mc-tt.wantMC) > 1e-6 {
			t.Errorf("Midheaven(%v) = %v, want %v", tt.lst, mc, tt.wantMC)
		}
		asc := Ascendant(tt.lst, tt.lat)
		diff := math.Abs(asc - tt.wantAsc)
		if diff > 180 {
			diff = 360 - diff
		}
		if diff > 1e-6 {
			t.Errorf("Ascendant(%v, %v) = %v, want %v", tt.lst, tt.lat, asc, tt.wantAsc)
		}
	}
}

func TestAscendant_IsOnEasternHorizon(t *testing.T) {
	tm := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	obs := Observer{LatDeg: 40.7, LonDeg: -74.0}

	asc := Ascendant(LocalSiderealTime(tm, obs.LonDeg), obs.LatDeg)
	eq := EclipticToEquatorial(asc, 0)
	horiz := EquatorialToHorizontal(SkyCoord{RAdeg: eq.RA, DecDeg: eq.Dec}, obs, tm)

	if math.Abs(horiz.ElDeg) > 0.01 {
		t.Errorf("ascendant elevation = %v, want 0", horiz.ElDeg)
	}
	if horiz.AzDeg <= 0 || horiz.AzDeg >= 180 {
		t.Errorf("ascendant azimuth = %v, want eastern half", horiz.AzDeg)
	}
}

func TestEquatorialToHorizontal_Polaris(t *testing.T) {
	polaris := SkyCoord{RAdeg: 37.95, DecDeg: 89.26}
	observer := Observer{LatDeg: 35.0, LonDeg: -117.0}

	testTime := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	result := EquatorialToHorizontal(polaris, observer, testTime)

	// Polaris elevation tracks observer latitude
	if math.Abs(result.ElDeg-observer.LatDeg) > 5 {
		t.Errorf("Polaris elevation = %v°, expected ~%v°", result.ElDeg, observer.LatDeg)
	}

	if result.RAdeg != polaris.RAdeg || result.DecDeg != polaris.DecDeg {
		t.Error("RA/Dec should be preserved after transformation")
	}
}

func TestEquatorialToHorizontal_ZenithStar(t *testing.T) {
	observer := Observer{LatDeg: 35.0, LonDeg: -117.0}
	testTime := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	zenithStar := SkyCoord{
		RAdeg:  LocalSiderealTime(testTime, observer.LonDeg),
		DecDeg: observer.LatDeg,
	}

	result := EquatorialToHorizontal(zenithStar, observer, testTime)
	if math.Abs(result.ElDeg-90) > 1 {
		t.Errorf("Zenith star elevation = %v°, expected ~90°", result.ElDeg)
	}
}

func TestEquatorialToHorizontal_AzimuthRange(t *testing.T) {
	observer := Observer{LatDeg: 35, LonDeg: -117}
	testTime := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	for ra := 0.0; ra < 360; ra += 30 {
		for dec := -80.0; dec <= 80; dec += 20 {
			result := EquatorialToHorizontal(SkyCoord{RAdeg: ra, DecDeg: dec}, observer, testTime)
			if result.AzDeg < 0 || result.AzDeg >= 360 {
				t.Errorf("Azimuth out of range for RA=%v, Dec=%v: Az=%v", ra, dec, result.AzDeg)
			}
		}
	}
}

func TestDegRadRoundTrip(t *testing.T) {
	for _, deg := range []float64{0, 90, 180, 360, -90} {
		if got := radToDeg(degToRad(deg)); math.Abs(got-deg) > 1e-10 {
			t.Errorf("radToDeg(degToRad(%v)) = %v", deg, got)
		}
	}
}
