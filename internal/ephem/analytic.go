package ephem

import (
	"context"

	"github.com/litescript/ls-chartcore/internal/astro"
	"github.com/litescript/ls-chartcore/internal/chart"
)

// AnalyticEvaluator evaluates the Sun and Moon from low-precision series.
// It needs no network access, which makes it the default for offline use.
type AnalyticEvaluator struct{}

// NewAnalyticEvaluator creates an analytic evaluator.
func NewAnalyticEvaluator() *AnalyticEvaluator {
	return &AnalyticEvaluator{}
}

// Name implements Evaluator.
func (e *AnalyticEvaluator) Name() string {
	return "analytic"
}

// Evaluate implements Evaluator.
func (e *AnalyticEvaluator) Evaluate(ctx context.Context, req Request) (*Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	houses, asc, mc, err := Angles(req)
	if err != nil {
		return nil, err
	}

	sun := astro.SunEcliptic(req.Time)
	moon := astro.MoonEcliptic(req.Time)

	return &Evaluation{
		Success: true,
		Planets: map[string]chart.PlanetPosition{
			"sun":  {Name: "sun", Longitude: sun.Longitude, Latitude: sun.Latitude, Velocity: sun.Velocity},
			"moon": {Name: "moon", Longitude: moon.Longitude, Latitude: moon.Latitude, Velocity: moon.Velocity},
		},
		Houses:    houses,
		Ascendant: asc,
		Midheaven: mc,
	}, nil
}
