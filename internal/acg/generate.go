package acg

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/litescript/ls-chartcore/internal/astro"
	"github.com/litescript/ls-chartcore/internal/chart"
	"github.com/litescript/ls-chartcore/internal/logging"
	"github.com/litescript/ls-chartcore/internal/observability"
)

const (
	// MaxLatitude bounds the sweep; the horizon equations degenerate at the poles.
	MaxLatitude = 80.0

	// HorizonStep is the latitude step of rise and set lines.
	HorizonStep = 1.0

	// MeridianStep is the latitude step of the (vertical) meridian lines.
	MeridianStep = 5.0
)

var (
	ErrNonFinite   = errors.New("non-finite body position")
	ErrBodyMissing = errors.New("body not in chart")
)

// Generator computes lines for charts. Safe for concurrent use.
type Generator struct {
	log     *logging.Logger
	metrics *observability.EngineCollector

	horizonLats  []float64
	meridianLats []float64
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the generator's logger. Nil discards output.
func WithLogger(l *logging.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

// WithMetrics records per-body outcomes on c.
func WithMetrics(c *observability.EngineCollector) Option {
	return func(g *Generator) { g.metrics = c }
}

// New creates a generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		log:          logging.Discard(),
		horizonLats:  latitudeGrid(HorizonStep),
		meridianLats: latitudeGrid(MeridianStep),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate maps a chart with a generator built from opts.
func Generate(ctx context.Context, in Input, opts ...Option) Result {
	return New(opts...).Generate(ctx, in)
}

// latitudeGrid spans [-MaxLatitude, MaxLatitude] inclusive at step degrees.
func latitudeGrid(step float64) []float64 {
	n := int(math.Round(2*MaxLatitude/step)) + 1
	return floats.Span(make([]float64, n), -MaxLatitude, MaxLatitude)
}

// Generate computes the four lines of every enabled body. Bodies are
// processed concurrently; a failing body is reported in its BodyResult and
// does not affect the others.
func (g *Generator) Generate(ctx context.Context, in Input) Result {
	gmst := astro.GMST(astro.JulianDay(in.Instant))

	names := in.Enabled
	if names == nil {
		names = make([]string, 0, len(in.Bodies))
		for name := range in.Bodies {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(Result, len(names))
	)

	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()

			var br BodyResult
			if err := ctx.Err(); err != nil {
				br.Err = err
			} else if pos, ok := in.Bodies[name]; !ok {
				br.Err = fmt.Errorf("%w: %s", ErrBodyMissing, name)
			} else {
				br.Lines, br.Err = g.bodyLines(name, pos, gmst)
			}

			if br.Err != nil {
				g.log.Warn("acg: skipping %s: %v", name, br.Err)
			}

			mu.Lock()
			out[name] = br
			mu.Unlock()
		}(name)
	}
	wg.Wait()

	g.metrics.ObserveLines(len(out.Succeeded()), len(out.Failed()))
	return out
}

// bodyLines computes one body's lines, converting any panic into an error.
func (g *Generator) bodyLines(name string, pos BodyPosition, gmst float64) (lines *BodyLines, err error) {
	defer func() {
		if r := recover(); r != nil {
			lines, err = nil, fmt.Errorf("geometry failed for %s: %v", name, r)
		}
	}()

	if !finite(pos.Longitude) || !finite(pos.Latitude) || !finite(gmst) {
		return nil, fmt.Errorf("%w: %s (lon=%v lat=%v)", ErrNonFinite, name, pos.Longitude, pos.Latitude)
	}

	eq := astro.EclipticToEquatorial(pos.Longitude, pos.Latitude)

	lines = &BodyLines{
		Rise:          Line{Body: name, Type: LineRise},
		Set:           Line{Body: name, Type: LineSet},
		Culminate:     Line{Body: name, Type: LineCulminate},
		AntiCulminate: Line{Body: name, Type: LineAntiCulminate},
	}

	for _, lat := range g.horizonLats {
		rise, set, ok := horizonLongitudes(eq.RA, eq.Dec, gmst, lat)
		if !ok {
			continue
		}
		lines.Rise.Points = append(lines.Rise.Points, chart.GeoPoint{Latitude: lat, Longitude: rise})
		lines.Set.Points = append(lines.Set.Points, chart.GeoPoint{Latitude: lat, Longitude: set})
	}

	mc, ic := meridianLongitudes(eq.RA, gmst)
	lines.Culminate.Points = make([]chart.GeoPoint, len(g.meridianLats))
	lines.AntiCulminate.Points = make([]chart.GeoPoint, len(g.meridianLats))
	for i, lat := range g.meridianLats {
		lines.Culminate.Points[i] = chart.GeoPoint{Latitude: lat, Longitude: mc}
		lines.AntiCulminate.Points[i] = chart.GeoPoint{Latitude: lat, Longitude: ic}
	}

	return lines, nil
}

// horizonLongitudes returns the geographic longitudes at which a body with
// the given right ascension and declination rises and sets at latitude lat.
// ok is false when the body is circumpolar or never rises there.
func horizonLongitudes(ra, dec, gmst, lat float64) (rise, set float64, ok bool) {
	cosH := -math.Tan(lat*math.Pi/180) * math.Tan(dec*math.Pi/180)
	if math.Abs(cosH) > 1 {
		return 0, 0, false
	}
	h := math.Acos(cosH) * 180 / math.Pi

	rise = chart.NormalizeSigned(ra - h - gmst)
	set = chart.NormalizeSigned(ra + h - gmst)
	return rise, set, true
}

// meridianLongitudes returns the longitudes where a body culminates (mc) and
// anti-culminates (ic). They are always 180° apart.
func meridianLongitudes(ra, gmst float64) (mc, ic float64) {
	mc = chart.NormalizeSigned(ra - gmst)
	ic = chart.NormalizeSigned(mc + 180)
	return mc, ic
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
