package astro

import (
	"math"
	"testing"
	"time"
)

func TestSunEcliptic_Seasons(t *testing.T) {
	tests := []struct {
		name       string
		time       time.Time
		wantRAMin  float64
		wantRAMax  float64
		wantDecMin float64
		wantDecMax float64
	}{
		{
			name:       "Spring Equinox 2024",
			time:       time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC),
			wantRAMin:  359, // wraps through 0
			wantRAMax:  2,
			wantDecMin: -1,
			wantDecMax: 1,
		},
		{
			name:       "Summer Solstice 2024",
			time:       time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC),
			wantRAMin:  88,
			wantRAMax:  92,
			wantDecMin: 23,
			wantDecMax: 24,
		},
		{
			name:       "Autumn Equinox 2024",
			time:       time.Date(2024, 9, 22, 12, 0, 0, 0, time.UTC),
			wantRAMin:  178,
			wantRAMax:  182,
			wantDecMin: -1,
			wantDecMax: 1,
		},
		{
			name:       "Winter Solstice 2024",
			time:       time.Date(2024, 12, 21, 12, 0, 0, 0, time.UTC),
			wantRAMin:  268,
			wantRAMax:  272,
			wantDecMin: -24,
			wantDecMax: -23,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sun := SunEcliptic(tt.time)
			eq := EclipticToEquatorial(sun.Longitude, sun.Latitude)

			var raOK bool
			if tt.wantRAMin > tt.wantRAMax {
				raOK = eq.RA >= tt.wantRAMin || eq.RA <= tt.wantRAMax
			} else {
				raOK = eq.RA >= tt.wantRAMin && eq.RA <= tt.wantRAMax
			}
			if !raOK {
				t.Errorf("RA = %.2f°, want between %.2f° and %.2f°", eq.RA, tt.wantRAMin, tt.wantRAMax)
			}

			if eq.Dec < tt.wantDecMin || eq.Dec > tt.wantDecMax {
				t.Errorf("Dec = %.2f°, want between %.2f° and %.2f°", eq.Dec, tt.wantDecMin, tt.wantDecMax)
			}
		})
	}
}

func TestSunEcliptic_EclipseLongitude(t *testing.T) {
	// Total solar eclipse of 2024-04-08, maximum at 18:17 UTC, 19°24' Aries
	sun := SunEcliptic(time.Date(2024, 4, 8, 18, 17, 0, 0, time.UTC))
	if math.Abs(sun.Longitude-19.4) > 0.2 {
		t.Errorf("Sun longitude = %.3f, want ~19.4", sun.Longitude)
	}
	if sun.Velocity < 0.95 || sun.Velocity > 1.03 {
		t.Errorf("Sun velocity = %.4f°/day, want ~0.98", sun.Velocity)
	}
	if sun.Latitude != 0 {
		t.Errorf("Sun latitude = %v, want 0", sun.Latitude)
	}
}

func TestMoonEcliptic_NewAndFullMoon(t *testing.T) {
	tests := []struct {
		name    string
		time    time.Time
		wantLon float64
	}{
		// New moon during the 2024-04-08 eclipse: Moon conjunct Sun
		{"new moon 2024-04-08", time.Date(2024, 4, 8, 18, 21, 0, 0, time.UTC), 19.4},
		// Full moon of 2024-03-25 at 5°07' Libra
		{"full moon 2024-03-25", time.Date(2024, 3, 25, 7, 0, 0, 0, time.UTC), 185.12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			moon := MoonEcliptic(tt.time)
			diff := math.Abs(moon.Longitude - tt.wantLon)
			if diff > 180 {
				diff = 360 - diff
			}
			if diff > 1 {
				t.Errorf("Moon longitude = %.3f, want ~%.2f", moon.Longitude, tt.wantLon)
			}
			if moon.Velocity < 11 || moon.Velocity > 16 {
				t.Errorf("Moon velocity = %.3f°/day, want 11-16", moon.Velocity)
			}
			if math.Abs(moon.Latitude) > 5.4 {
				t.Errorf("Moon latitude = %.3f, exceeds orbital inclination", moon.Latitude)
			}
		})
	}
}

func TestRate_WrapsThroughZero(t *testing.T) {
	// Linear longitude passing through 0°/360°
	tm := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jd0 := JulianDay(tm)
	f := func(jd float64) float64 {
		return normalizeAngle360(359.9 + (jd-jd0)*2)
	}

	if got := rate(f, tm); math.Abs(got-2) > 1e-6 {
		t.Errorf("rate() = %v, want 2", got)
	}
}
