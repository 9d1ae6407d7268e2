package eclipse

import (
	"errors"
	"time"

	"github.com/litescript/ls-chartcore/internal/chart"
)

// DefaultOrb is the impact orb, in degrees, used when none is given.
const DefaultOrb = 3.0

// ErrMissingChart is returned when the natal chart has no planets.
var ErrMissingChart = errors.New("natal chart has no planet positions")

// Classify returns an activation for every catalog eclipse that touches the
// natal chart, in catalog order. Events with a Longitude are checked against
// the natal planets within orb (orb <= 0 selects DefaultOrb); events without
// one keep their own HasImpact. The catalog is not modified.
func Classify(natal *chart.Snapshot, catalog []Event, reference time.Time, orb float64) ([]Activation, error) {
	if natal == nil || len(natal.Planets) == 0 {
		return nil, ErrMissingChart
	}
	if orb <= 0 {
		orb = DefaultOrb
	}

	var out []Activation
	for _, ev := range catalog {
		e := ev.clone()
		if e.Longitude != nil {
			e.AffectedPlanets = Affected(natal, *e.Longitude, orb)
			e.HasImpact = len(e.AffectedPlanets) > 0
		}
		if !e.HasImpact {
			continue
		}
		out = append(out, Activation{Event: e, Status: StatusAt(e.Date, reference)})
	}
	return out, nil
}

// Affected returns the sorted names of natal planets within orb of lon.
func Affected(natal *chart.Snapshot, lon, orb float64) []string {
	var names []string
	for _, name := range natal.PlanetNames() {
		p := natal.Planets[name]
		if chart.AngularDistance(p.Longitude, lon) <= orb {
			names = append(names, name)
		}
	}
	return names
}

// CountByStatus tallies activations by status name.
func CountByStatus(acts []Activation) map[string]int {
	counts := make(map[string]int, len(Statuses))
	for _, a := range acts {
		counts[a.Status.String()]++
	}
	return counts
}
