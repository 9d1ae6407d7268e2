// Package ephem provides chart evaluators: sources of body positions, house
// cusps, ascendant and midheaven for an instant and place.
package ephem

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/litescript/ls-chartcore/internal/astro"
	"github.com/litescript/ls-chartcore/internal/chart"
)

// House systems understood by the built-in evaluators.
const (
	HouseEqual     = "equal"
	HouseWholeSign = "whole-sign"
)

// ErrUnsupportedHouseSystem is returned for house systems the evaluators cannot compute.
var ErrUnsupportedHouseSystem = errors.New("unsupported house system")

// Request identifies the instant and place to evaluate.
type Request struct {
	Time        time.Time
	Location    chart.Location
	HouseSystem string
}

// Evaluation is the result of evaluating a chart.
// Success=false signals an evaluator-side failure without a Go error.
type Evaluation struct {
	Success   bool                            `json:"success"`
	Planets   map[string]chart.PlanetPosition `json:"planets"`
	Houses    [12]float64                     `json:"houses"`
	Ascendant float64                         `json:"ascendant"`
	Midheaven float64                         `json:"midheaven"`
}

// Snapshot builds an immutable chart snapshot for the request that produced e.
func (e *Evaluation) Snapshot(req Request) *chart.Snapshot {
	planets := make(map[string]chart.PlanetPosition, len(e.Planets))
	for k, v := range e.Planets {
		planets[k] = v
	}
	return &chart.Snapshot{
		Time:      req.Time.UTC(),
		Location:  req.Location,
		Houses:    e.Houses,
		Ascendant: e.Ascendant,
		Midheaven: e.Midheaven,
		Planets:   planets,
	}
}

// Evaluator defines the interface for chart data sources.
type Evaluator interface {
	// Name returns the evaluator name for display/logging.
	Name() string

	// Evaluate computes body positions and angles for the request.
	Evaluate(ctx context.Context, req Request) (*Evaluation, error)
}

// EvaluatorFunc adapts a plain function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, req Request) (*Evaluation, error)

// Name implements Evaluator.
func (f EvaluatorFunc) Name() string {
	return "func"
}

// Evaluate implements Evaluator.
func (f EvaluatorFunc) Evaluate(ctx context.Context, req Request) (*Evaluation, error) {
	return f(ctx, req)
}

// Angles computes ascendant, midheaven and cusps for a request using the
// local sidereal time at the request instant.
func Angles(req Request) (houses [12]float64, asc, mc float64, err error) {
	lst := astro.LocalSiderealTime(req.Time, req.Location.Longitude)
	asc = astro.Ascendant(lst, req.Location.Latitude)
	mc = astro.Midheaven(lst)

	switch req.HouseSystem {
	case "", HouseEqual:
		houses = chart.EqualHouses(asc)
	case HouseWholeSign:
		houses = chart.EqualHouses(float64(int(asc/30)) * 30)
	default:
		return houses, 0, 0, fmt.Errorf("%w: %q", ErrUnsupportedHouseSystem, req.HouseSystem)
	}
	return houses, asc, mc, nil
}

// Mode represents which evaluator backend to use.
type Mode int

const (
	ModeAnalytic Mode = iota // Built-in Sun/Moon series (offline)
	ModeHorizons             // JPL Horizons
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeAnalytic:
		return "analytic"
	case ModeHorizons:
		return "horizons"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode string.
func ParseMode(s string) Mode {
	switch s {
	case "horizons":
		return ModeHorizons
	case "analytic":
		return ModeAnalytic
	default:
		return ModeAnalytic
	}
}
