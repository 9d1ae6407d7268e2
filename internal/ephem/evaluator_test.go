package ephem

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/litescript/ls-chartcore/internal/chart"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input    string
		expected Mode
	}{
		{"horizons", ModeHorizons},
		{"analytic", ModeAnalytic},
		{"", ModeAnalytic},
		{"invalid", ModeAnalytic},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := ParseMode(tc.input); got != tc.expected {
				t.Errorf("ParseMode(%q) = %v, want %v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestModeString(t *testing.T) {
	tests := []struct {
		mode     Mode
		expected string
	}{
		{ModeAnalytic, "analytic"},
		{ModeHorizons, "horizons"},
		{Mode(99), "unknown"},
	}

	for _, tc := range tests {
		if got := tc.mode.String(); got != tc.expected {
			t.Errorf("Mode(%d).String() = %q, want %q", tc.mode, got, tc.expected)
		}
	}
}

func TestGetBody(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"sun", NAIFSun},
		{"Sun", NAIFSun},
		{" MOON ", NAIFMoon},
		{"luna", NAIFMoon},
		{"pluto", NAIFPluto},
	}
	for _, tt := range tests {
		b, ok := GetBody(tt.input)
		if !ok {
			t.Errorf("GetBody(%q) not found", tt.input)
			continue
		}
		if b.HorizonsID != tt.want {
			t.Errorf("GetBody(%q).HorizonsID = %d, want %d", tt.input, b.HorizonsID, tt.want)
		}
	}

	if _, ok := GetBody("vulcan"); ok {
		t.Error("GetBody(vulcan) should not be found")
	}
}

func TestBodiesByKey_Coverage(t *testing.T) {
	for _, b := range Bodies {
		if _, ok := BodiesByKey[b.Key]; !ok {
			t.Errorf("body %s missing from BodiesByKey", b.Key)
		}
		for _, alias := range b.Aliases {
			if _, ok := BodiesByKey[alias]; !ok {
				t.Errorf("alias %s for %s missing", alias, b.Key)
			}
		}
	}
	if keys := BodyKeys(); len(keys) != len(Bodies) || keys[0] != "sun" {
		t.Errorf("BodyKeys() = %v", keys)
	}
}

func TestAngles_HouseSystems(t *testing.T) {
	req := Request{
		Time:     time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
		Location: chart.Location{Latitude: 51.5, Longitude: -0.1},
	}

	houses, asc, mc, err := Angles(req)
	if err != nil {
		t.Fatalf("Angles: %v", err)
	}
	if houses[0] != asc {
		t.Errorf("equal house 1 = %v, want ascendant %v", houses[0], asc)
	}
	if mc < 0 || mc >= 360 {
		t.Errorf("midheaven out of range: %v", mc)
	}

	req.HouseSystem = HouseWholeSign
	ws, _, _, err := Angles(req)
	if err != nil {
		t.Fatalf("Angles whole-sign: %v", err)
	}
	if math.Mod(ws[0], 30) != 0 || ws[0] > asc || asc-ws[0] >= 30 {
		t.Errorf("whole-sign first cusp = %v for asc %v", ws[0], asc)
	}

	req.HouseSystem = "placidus"
	if _, _, _, err := Angles(req); !errors.Is(err, ErrUnsupportedHouseSystem) {
		t.Errorf("expected ErrUnsupportedHouseSystem, got %v", err)
	}
}

func TestAnalyticEvaluator(t *testing.T) {
	e := NewAnalyticEvaluator()
	req := Request{
		Time:     time.Date(2024, 4, 8, 18, 17, 0, 0, time.UTC),
		Location: chart.Location{Latitude: 25.3, Longitude: -104.1},
	}

	eval, err := e.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !eval.Success {
		t.Fatal("expected success")
	}
	for _, key := range []string{"sun", "moon"} {
		if _, ok := eval.Planets[key]; !ok {
			t.Errorf("missing %s", key)
		}
	}

	snap := eval.Snapshot(req)
	if !snap.Time.Equal(req.Time) || snap.Location != req.Location {
		t.Errorf("snapshot does not carry request time/location: %+v", snap)
	}

	// Snapshot must not share the planet map with the evaluation
	eval.Planets["sun"] = chart.PlanetPosition{Name: "sun", Longitude: 1}
	if p, _ := snap.Planet("sun"); p.Longitude == 1 {
		t.Error("snapshot shares planet map with evaluation")
	}
}

func TestAnalyticEvaluator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewAnalyticEvaluator().Evaluate(ctx, Request{Time: time.Now()}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestEvaluatorFunc(t *testing.T) {
	f := EvaluatorFunc(func(ctx context.Context, req Request) (*Evaluation, error) {
		return &Evaluation{Success: false}, nil
	})

	var e Evaluator = f
	if e.Name() != "func" {
		t.Errorf("Name() = %q", e.Name())
	}
	eval, err := e.Evaluate(context.Background(), Request{})
	if err != nil || eval.Success {
		t.Errorf("unexpected result %+v, %v", eval, err)
	}
}
