// Package observability holds the Prometheus collectors and OpenTelemetry
// tracing setup used by the engines and the command line.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Return solve outcomes used as the "outcome" label.
const (
	OutcomeConverged  = "converged"
	OutcomeBestEffort = "best_effort"
	OutcomeFailed     = "failed"
)

// EngineCollector bundles the engine metrics. All methods are safe to call on
// a nil collector, which records nothing.
type EngineCollector struct {
	gatherer prometheus.Gatherer

	ReturnSolves     *prometheus.CounterVec
	ReturnIterations prometheus.Histogram
	EvaluatorCalls   *prometheus.CounterVec
	LineBodies       *prometheus.CounterVec
	Activations      *prometheus.GaugeVec
	CacheHitRatio    prometheus.Gauge
}

// NewEngineCollector registers engine metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewEngineCollector(reg prometheus.Registerer) (*EngineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	solves, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chartcore_return_solves_total",
		Help: "Return solves, labeled by outcome (converged, best_effort, failed).",
	}, []string{"outcome"}), "chartcore_return_solves_total")
	if err != nil {
		return nil, err
	}

	iterations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "chartcore_return_iterations",
		Help:    "Bisection iterations used per return solve.",
		Buckets: []float64{1, 5, 10, 15, 20, 25, 30, 40, 50},
	}), "chartcore_return_iterations")
	if err != nil {
		return nil, err
	}

	calls, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chartcore_evaluator_calls_total",
		Help: "Chart evaluator invocations, labeled by evaluator name.",
	}, []string{"evaluator"}), "chartcore_evaluator_calls_total")
	if err != nil {
		return nil, err
	}

	bodies, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chartcore_line_bodies_total",
		Help: "Bodies processed by the astrocartography generator, labeled by result (ok, failed).",
	}, []string{"result"}), "chartcore_line_bodies_total")
	if err != nil {
		return nil, err
	}

	activations, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chartcore_eclipse_activations",
		Help: "Eclipse activations from the latest classification, labeled by status.",
	}, []string{"status"}), "chartcore_eclipse_activations")
	if err != nil {
		return nil, err
	}

	ratio, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chartcore_evaluation_cache_hit_ratio",
		Help: "Hit ratio of the evaluation cache.",
	}), "chartcore_evaluation_cache_hit_ratio")
	if err != nil {
		return nil, err
	}

	return &EngineCollector{
		gatherer:         gatherer,
		ReturnSolves:     solves,
		ReturnIterations: iterations,
		EvaluatorCalls:   calls,
		LineBodies:       bodies,
		Activations:      activations,
		CacheHitRatio:    ratio,
	}, nil
}

// ObserveReturn records one finished return solve.
func (c *EngineCollector) ObserveReturn(outcome string, iterations int) {
	if c == nil {
		return
	}
	if c.ReturnSolves != nil {
		c.ReturnSolves.WithLabelValues(outcome).Inc()
	}
	if c.ReturnIterations != nil && outcome != OutcomeFailed {
		c.ReturnIterations.Observe(float64(iterations))
	}
}

// EvaluatorCalled counts one evaluator invocation.
func (c *EngineCollector) EvaluatorCalled(evaluator string) {
	if c == nil || c.EvaluatorCalls == nil {
		return
	}
	c.EvaluatorCalls.WithLabelValues(evaluator).Inc()
}

// ObserveLines records the per-body outcome of one generation.
func (c *EngineCollector) ObserveLines(ok, failed int) {
	if c == nil || c.LineBodies == nil {
		return
	}
	c.LineBodies.WithLabelValues("ok").Add(float64(ok))
	c.LineBodies.WithLabelValues("failed").Add(float64(failed))
}

// SetActivations replaces the per-status activation gauges.
func (c *EngineCollector) SetActivations(counts map[string]int) {
	if c == nil || c.Activations == nil {
		return
	}
	c.Activations.Reset()
	for status, n := range counts {
		c.Activations.WithLabelValues(status).Set(float64(n))
	}
}

// SetCacheHitRatio updates the evaluation cache gauge.
func (c *EngineCollector) SetCacheHitRatio(ratio float64) {
	if c == nil || c.CacheHitRatio == nil {
		return
	}
	c.CacheHitRatio.Set(ratio)
}

// Handler exposes a ready-to-use /metrics handler.
func (c *EngineCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
