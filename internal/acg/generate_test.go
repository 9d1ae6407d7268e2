package acg

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/litescript/ls-chartcore/internal/astro"
	"github.com/litescript/ls-chartcore/internal/chart"
	"github.com/litescript/ls-chartcore/internal/logging"
	"github.com/litescript/ls-chartcore/internal/observability"
)

var birth = time.Date(1990, 5, 15, 14, 30, 0, 0, time.UTC)

func sampleInput() Input {
	return Input{
		Instant: birth,
		Bodies: map[string]BodyPosition{
			"sun":   {Longitude: 54.6, Latitude: 0},
			"moon":  {Longitude: 318.2, Latitude: -4.9},
			"venus": {Longitude: 5.1, Latitude: -1.8},
			"mars":  {Longitude: 344.9, Latitude: -1.2},
		},
	}
}

func TestLineTypeString(t *testing.T) {
	tests := []struct {
		lt    LineType
		name  string
		short string
	}{
		{LineRise, "rise", "AC"},
		{LineSet, "set", "DC"},
		{LineCulminate, "culminate", "MC"},
		{LineAntiCulminate, "anticulminate", "IC"},
		{LineType(42), "unknown", "??"},
	}
	for _, tt := range tests {
		if got := tt.lt.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
		if got := tt.lt.Short(); got != tt.short {
			t.Errorf("Short() = %q, want %q", got, tt.short)
		}
	}
}

func TestLatitudeGrid(t *testing.T) {
	h := latitudeGrid(HorizonStep)
	if len(h) != 161 || h[0] != -80 || h[160] != 80 || h[80] != 0 {
		t.Errorf("horizon grid: len=%d first=%v last=%v", len(h), h[0], h[len(h)-1])
	}
	m := latitudeGrid(MeridianStep)
	if len(m) != 33 || m[1] != -75 {
		t.Errorf("meridian grid: len=%d second=%v", len(m), m[1])
	}
}

func TestMeridianLongitudes_Origin(t *testing.T) {
	mc, ic := meridianLongitudes(0, 0)
	if mc != 0 {
		t.Errorf("mc = %v, want 0", mc)
	}
	if ic != 180 {
		t.Errorf("ic = %v, want 180", ic)
	}
}

func TestMeridianLongitudes_Antipodal(t *testing.T) {
	for ra := 0.0; ra < 360; ra += 17.3 {
		for gmst := 0.0; gmst < 360; gmst += 23.9 {
			mc, ic := meridianLongitudes(ra, gmst)
			if d := chart.AngularDistance(mc, ic); math.Abs(d-180) > 1e-9 {
				t.Fatalf("ra=%v gmst=%v: mc=%v ic=%v differ by %v", ra, gmst, mc, ic, d)
			}
			if mc <= -180 || mc > 180 || ic <= -180 || ic > 180 {
				t.Fatalf("out of range: mc=%v ic=%v", mc, ic)
			}
		}
	}
}

func TestGenerate_AllBodies(t *testing.T) {
	res := Generate(context.Background(), sampleInput())

	if got := res.Succeeded(); len(got) != 4 || got[0] != "mars" {
		t.Errorf("Succeeded() = %v", got)
	}
	if failed := res.Failed(); len(failed) != 0 {
		t.Errorf("Failed() = %v", failed)
	}

	for name, br := range res {
		lines := br.Lines
		for _, l := range lines.All() {
			if l.Body != name {
				t.Errorf("%s %s line tagged with body %q", name, l.Type, l.Body)
			}
			for i := 1; i < len(l.Points); i++ {
				if l.Points[i].Latitude <= l.Points[i-1].Latitude {
					t.Errorf("%s %s not latitude ascending at %d", name, l.Type, i)
					break
				}
			}
			for _, p := range l.Points {
				if p.Longitude <= -180 || p.Longitude > 180 {
					t.Errorf("%s %s longitude out of range: %v", name, l.Type, p.Longitude)
				}
			}
		}
		if len(lines.Culminate.Points) != 33 || len(lines.AntiCulminate.Points) != 33 {
			t.Errorf("%s meridian lines: %d/%d points", name, len(lines.Culminate.Points), len(lines.AntiCulminate.Points))
		}
		for i := range lines.Culminate.Points {
			mc, ic := lines.Culminate.Points[i], lines.AntiCulminate.Points[i]
			if mc.Latitude != ic.Latitude {
				t.Errorf("%s meridian latitudes differ at %d", name, i)
			}
			if d := chart.AngularDistance(mc.Longitude, ic.Longitude); math.Abs(d-180) > 1e-9 {
				t.Errorf("%s: MC %v and IC %v not antipodal", name, mc.Longitude, ic.Longitude)
			}
		}
	}
}

func TestGenerate_HorizonGapInvariant(t *testing.T) {
	// High-declination body: circumpolar at high latitudes.
	in := Input{
		Instant: birth,
		Bodies:  map[string]BodyPosition{"moon": {Longitude: 90, Latitude: 5}},
	}
	res := Generate(context.Background(), in)
	lines := res["moon"].Lines
	if lines == nil {
		t.Fatalf("moon failed: %v", res["moon"].Err)
	}

	dec := astro.EclipticToEquatorial(90, 5).Dec
	emitted := make(map[float64]bool)
	for _, p := range lines.Rise.Points {
		emitted[p.Latitude] = true
	}

	for lat := -80.0; lat <= 80; lat++ {
		cosH := -math.Tan(lat*math.Pi/180) * math.Tan(dec*math.Pi/180)
		want := math.Abs(cosH) <= 1
		if emitted[lat] != want {
			t.Errorf("lat %v: emitted=%v, want %v (cosH=%v)", lat, emitted[lat], want, cosH)
		}
	}

	if len(lines.Rise.Points) == 161 {
		t.Error("expected gaps for a declination near 28.4°")
	}
	if len(lines.Rise.Points) != len(lines.Set.Points) {
		t.Errorf("rise has %d points, set %d", len(lines.Rise.Points), len(lines.Set.Points))
	}
}

func TestGenerate_RiseAndSetOnHorizon(t *testing.T) {
	in := sampleInput()
	res := Generate(context.Background(), in)

	for name, pos := range in.Bodies {
		eq := astro.EclipticToEquatorial(pos.Longitude, pos.Latitude)
		sky := astro.SkyCoord{RAdeg: eq.RA, DecDeg: eq.Dec}
		lines := res[name].Lines

		check := func(l Line, east bool) {
			for _, p := range l.Points {
				h := astro.EquatorialToHorizontal(sky, astro.Observer{LatDeg: p.Latitude, LonDeg: p.Longitude}, in.Instant)
				if math.Abs(h.ElDeg) > 1e-6 {
					t.Errorf("%s %s at lat %v: elevation %v, want 0", name, l.Type, p.Latitude, h.ElDeg)
					return
				}
				if east != (h.AzDeg > 0 && h.AzDeg < 180) {
					t.Errorf("%s %s at lat %v: azimuth %v on wrong side", name, l.Type, p.Latitude, h.AzDeg)
					return
				}
			}
		}
		check(lines.Rise, true)
		check(lines.Set, false)

		// At the culmination longitude the hour angle is zero.
		mc := lines.Culminate.Points[0].Longitude
		lst := astro.LocalSiderealTime(in.Instant, mc)
		if d := chart.AngularDistance(lst, eq.RA); d > 1e-6 {
			t.Errorf("%s: LST at MC line %v differs from RA %v", name, lst, eq.RA)
		}
	}
}

func TestGenerate_EquinoxOnEquator(t *testing.T) {
	// A body at 0° ecliptic has RA 0 and Dec 0: rises 90° west of its MC line.
	res := Generate(context.Background(), Input{
		Instant: birth,
		Bodies:  map[string]BodyPosition{"point": {}},
	})
	lines := res["point"].Lines
	if lines == nil || len(lines.Rise.Points) != 161 {
		t.Fatalf("expected a full rise line, got %+v", res["point"])
	}

	gmst := astro.GMST(astro.JulianDay(birth))
	wantMC := chart.NormalizeSigned(-gmst)
	if got := lines.Culminate.Points[0].Longitude; math.Abs(chart.AngularDifference(got, wantMC)) > 1e-9 {
		t.Errorf("MC longitude = %v, want %v", got, wantMC)
	}
	for _, p := range lines.Rise.Points {
		if d := chart.AngularDifference(p.Longitude, wantMC); math.Abs(d+90) > 1e-9 {
			t.Fatalf("rise at lat %v is %v° from MC, want -90", p.Latitude, d)
		}
	}
}

func TestGenerate_FailureIsolation(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(logging.LevelWarn)
	log.SetOutput(&buf)

	in := sampleInput()
	in.Bodies["broken"] = BodyPosition{Longitude: math.NaN()}
	in.Bodies["infinite"] = BodyPosition{Longitude: 10, Latitude: math.Inf(1)}

	res := Generate(context.Background(), in, WithLogger(log))

	if got := res.Failed(); len(got) != 2 || got[0] != "broken" || got[1] != "infinite" {
		t.Errorf("Failed() = %v", got)
	}
	if !errors.Is(res["broken"].Err, ErrNonFinite) {
		t.Errorf("broken error = %v", res["broken"].Err)
	}
	if res["broken"].Lines != nil {
		t.Error("failed body should have no lines")
	}
	if got := res.Succeeded(); len(got) != 4 {
		t.Errorf("Succeeded() = %v", got)
	}
	if !strings.Contains(buf.String(), "skipping broken") {
		t.Errorf("expected warning, got %q", buf.String())
	}
}

func TestGenerate_EnabledSubset(t *testing.T) {
	in := sampleInput()
	in.Enabled = []string{"sun", "pluto"}

	res := Generate(context.Background(), in)
	if len(res) != 2 {
		t.Fatalf("got %d results, want 2", len(res))
	}
	if !res["sun"].OK() {
		t.Errorf("sun: %v", res["sun"].Err)
	}
	if !errors.Is(res["pluto"].Err, ErrBodyMissing) {
		t.Errorf("pluto error = %v", res["pluto"].Err)
	}
	if _, ok := res["moon"]; ok {
		t.Error("moon was not enabled")
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	g := New()
	a := g.Generate(context.Background(), sampleInput())
	b := g.Generate(context.Background(), sampleInput())

	for name := range a {
		la, lb := a[name].Lines.All(), b[name].Lines.All()
		for i := range la {
			if len(la[i].Points) != len(lb[i].Points) {
				t.Fatalf("%s %s: point counts differ", name, la[i].Type)
			}
			for j := range la[i].Points {
				if la[i].Points[j] != lb[i].Points[j] {
					t.Fatalf("%s %s differs at %d", name, la[i].Type, j)
				}
			}
		}
	}
}

func TestGenerate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := Generate(ctx, sampleInput())
	if len(res.Succeeded()) != 0 {
		t.Errorf("no body should succeed after cancellation: %v", res.Succeeded())
	}
	if !errors.Is(res["sun"].Err, context.Canceled) {
		t.Errorf("sun error = %v", res["sun"].Err)
	}
}

func TestGenerate_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewEngineCollector(reg)
	if err != nil {
		t.Fatalf("NewEngineCollector: %v", err)
	}

	in := sampleInput()
	in.Bodies["broken"] = BodyPosition{Longitude: math.NaN()}
	Generate(context.Background(), in, WithMetrics(metrics))

	if got := testutil.ToFloat64(metrics.LineBodies.WithLabelValues("ok")); got != 4 {
		t.Errorf("ok = %v, want 4", got)
	}
	if got := testutil.ToFloat64(metrics.LineBodies.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed = %v, want 1", got)
	}
}

func TestInputFromSnapshot(t *testing.T) {
	snap := &chart.Snapshot{
		Time: birth,
		Planets: map[string]chart.PlanetPosition{
			"sun": {Name: "sun", Longitude: 54.6, Latitude: 0.0001, Velocity: 0.96},
		},
	}
	in := InputFromSnapshot(snap, "sun")
	if !in.Instant.Equal(birth) || in.Bodies["sun"].Longitude != 54.6 || len(in.Enabled) != 1 {
		t.Errorf("unexpected input %+v", in)
	}
	if empty := InputFromSnapshot(nil); len(empty.Bodies) != 0 {
		t.Errorf("nil snapshot should give empty input")
	}
}
