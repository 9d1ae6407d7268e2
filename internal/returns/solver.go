// Package returns finds the instant a transiting body's ecliptic longitude
// comes back to a fixed target, such as a natal position.
//
// The solver bisects a caller-supplied window, choosing which half to keep
// from the sign of the longitude difference and the body's direction of
// motion at the midpoint. The window is expected to bracket exactly one
// crossing; it is not validated. A window holding zero or several crossings
// (for example around a retrograde station) yields a wrong or imprecise
// answer rather than an error.
package returns

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/litescript/ls-chartcore/internal/chart"
	"github.com/litescript/ls-chartcore/internal/ephem"
	"github.com/litescript/ls-chartcore/internal/logging"
	"github.com/litescript/ls-chartcore/internal/observability"
)

const (
	// Tolerance is the longitude match, in degrees, accepted as a return.
	Tolerance = 0.01

	// MaxIterations bounds the evaluator calls made by one solve.
	MaxIterations = 50

	// MinBracket stops the search once the window is narrower than this.
	MinBracket = time.Second
)

var (
	ErrEvaluatorFailed = errors.New("chart evaluator failed")
	ErrBodyMissing     = errors.New("body missing from evaluation")
	ErrInvalidWindow   = errors.New("search window end must be after start")
)

// Request describes one return search.
type Request struct {
	Body            string
	TargetLongitude float64
	WindowStart     time.Time
	WindowEnd       time.Time
	Location        chart.Location
	HouseSystem     string
}

// Result is the instant found and the chart evaluated there.
type Result struct {
	Time       time.Time       `json:"time"`
	Chart      *chart.Snapshot `json:"chart"`
	Iterations int             `json:"iterations"`
	Converged  bool            `json:"converged"`
	Residual   float64         `json:"residual"` // Signed degrees from target at Time
}

// Solver runs return searches. The zero value is not usable; use New.
type Solver struct {
	log     *logging.Logger
	metrics *observability.EngineCollector
	tracer  trace.Tracer
}

// Option configures a Solver.
type Option func(*Solver)

// WithLogger sets the solver's logger. Nil discards output.
func WithLogger(l *logging.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics records solve outcomes on c.
func WithMetrics(c *observability.EngineCollector) Option {
	return func(s *Solver) { s.metrics = c }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(s *Solver) {
		if t != nil {
			s.tracer = t
		}
	}
}

// New creates a solver.
func New(opts ...Option) *Solver {
	s := &Solver{log: logging.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(observability.TracerName)
	}
	return s
}

// FindReturn runs a single search with a solver built from opts.
func FindReturn(ctx context.Context, req Request, ev ephem.Evaluator, opts ...Option) (*Result, error) {
	return New(opts...).FindReturn(ctx, req, ev)
}

// FindReturn searches req's window for the instant the body reaches the
// target longitude. When neither the tolerance nor the iteration limit is
// met the last evaluated midpoint is returned with Converged=false.
// Evaluator failures abort the search.
func (s *Solver) FindReturn(ctx context.Context, req Request, ev ephem.Evaluator) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "returns.FindReturn",
		trace.WithAttributes(
			attribute.String("body", req.Body),
			attribute.Float64("target", req.TargetLongitude),
			attribute.String("evaluator", ev.Name()),
		))
	defer span.End()

	res, err := s.solve(ctx, req, ev)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.ObserveReturn(observability.OutcomeFailed, 0)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("iterations", res.Iterations),
		attribute.Bool("converged", res.Converged),
	)
	if res.Converged {
		s.metrics.ObserveReturn(observability.OutcomeConverged, res.Iterations)
	} else {
		s.metrics.ObserveReturn(observability.OutcomeBestEffort, res.Iterations)
		s.log.Warn("%s return did not converge after %d iterations (residual %.4f°), using %s",
			req.Body, res.Iterations, res.Residual, res.Time.Format(time.RFC3339))
	}
	return res, nil
}

func (s *Solver) solve(ctx context.Context, req Request, ev ephem.Evaluator) (*Result, error) {
	if !req.WindowEnd.After(req.WindowStart) {
		return nil, fmt.Errorf("%w: %s .. %s", ErrInvalidWindow,
			req.WindowStart.Format(time.RFC3339), req.WindowEnd.Format(time.RFC3339))
	}

	body := bodyKey(req.Body)
	target := chart.NormalizeDegrees(req.TargetLongitude)
	low, high := req.WindowStart.UTC(), req.WindowEnd.UTC()

	var last *Result
	for i := 1; i <= MaxIterations; i++ {
		mid := low.Add(high.Sub(low) / 2)

		pos, snap, err := s.evaluate(ctx, ev, req, body, mid)
		if err != nil {
			return nil, err
		}

		diff := chart.AngularDifference(pos.Longitude, target)
		last = &Result{Time: mid, Chart: snap, Iterations: i, Residual: diff}
		s.log.Debug("%s iteration %d: t=%s lon=%.5f diff=%.5f vel=%.4f",
			body, i, mid.Format(time.RFC3339), pos.Longitude, diff, pos.Velocity)

		if math.Abs(diff) < Tolerance {
			last.Converged = true
			return last, nil
		}

		// Direct motion: a body behind the target is early in the window.
		behind := diff < 0
		if pos.Velocity < 0 {
			behind = !behind
		}
		if behind {
			low = mid
		} else {
			high = mid
		}

		if high.Sub(low) < MinBracket {
			break
		}
	}

	return last, nil
}

func (s *Solver) evaluate(ctx context.Context, ev ephem.Evaluator, req Request, body string, t time.Time) (chart.PlanetPosition, *chart.Snapshot, error) {
	er := ephem.Request{Time: t, Location: req.Location, HouseSystem: req.HouseSystem}

	s.metrics.EvaluatorCalled(ev.Name())
	eval, err := ev.Evaluate(ctx, er)
	if err != nil {
		return chart.PlanetPosition{}, nil, fmt.Errorf("%w at %s: %w", ErrEvaluatorFailed, t.Format(time.RFC3339), err)
	}
	if eval == nil || !eval.Success {
		return chart.PlanetPosition{}, nil, fmt.Errorf("%w at %s: evaluation unsuccessful", ErrEvaluatorFailed, t.Format(time.RFC3339))
	}

	pos, ok := eval.Planets[body]
	if !ok {
		return chart.PlanetPosition{}, nil, fmt.Errorf("%w: %s at %s", ErrBodyMissing, body, t.Format(time.RFC3339))
	}
	if math.IsNaN(pos.Longitude) || math.IsInf(pos.Longitude, 0) {
		return chart.PlanetPosition{}, nil, fmt.Errorf("%w at %s: non-finite longitude for %s", ErrEvaluatorFailed, t.Format(time.RFC3339), body)
	}

	return pos, eval.Snapshot(er), nil
}

// bodyKey resolves names and aliases to the canonical body key, leaving
// unknown names untouched.
func bodyKey(name string) string {
	if b, ok := ephem.GetBody(name); ok {
		return b.Key
	}
	return strings.TrimSpace(name)
}
