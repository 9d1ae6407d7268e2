// Package acg generates astrocartography lines: the places on Earth where
// each body sits on the eastern horizon, the western horizon, the upper
// meridian or the lower meridian at one fixed instant.
package acg

import (
	"sort"
	"time"

	"github.com/litescript/ls-chartcore/internal/chart"
)

// LineType identifies which angle a line traces.
type LineType int

const (
	LineRise LineType = iota
	LineSet
	LineCulminate
	LineAntiCulminate
)

func (t LineType) String() string {
	switch t {
	case LineRise:
		return "rise"
	case LineSet:
		return "set"
	case LineCulminate:
		return "culminate"
	case LineAntiCulminate:
		return "anticulminate"
	default:
		return "unknown"
	}
}

// MarshalText encodes the line type by name.
func (t LineType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Short returns the conventional chart abbreviation (AC, DC, MC, IC).
func (t LineType) Short() string {
	switch t {
	case LineRise:
		return "AC"
	case LineSet:
		return "DC"
	case LineCulminate:
		return "MC"
	case LineAntiCulminate:
		return "IC"
	default:
		return "??"
	}
}

// BodyPosition is a body's geocentric ecliptic position in degrees.
type BodyPosition struct {
	Longitude float64
	Latitude  float64
}

// Input is one chart to map.
type Input struct {
	Bodies  map[string]BodyPosition
	Instant time.Time
	Enabled []string // nil maps every body
}

// InputFromSnapshot builds an Input from an evaluated chart.
func InputFromSnapshot(s *chart.Snapshot, enabled ...string) Input {
	in := Input{Bodies: make(map[string]BodyPosition), Enabled: enabled}
	if s == nil {
		return in
	}
	in.Instant = s.Time
	for name, p := range s.Planets {
		in.Bodies[name] = BodyPosition{Longitude: p.Longitude, Latitude: p.Latitude}
	}
	return in
}

// Line is one polyline, ordered by ascending latitude. Rise and set lines
// have gaps at latitudes where the body never crosses the horizon.
type Line struct {
	Body   string           `json:"body"`
	Type   LineType         `json:"type"`
	Points []chart.GeoPoint `json:"points"`
}

// BodyLines holds the four lines of one body.
type BodyLines struct {
	Rise          Line
	Set           Line
	Culminate     Line
	AntiCulminate Line
}

// All returns the lines in rise, set, culminate, anti-culminate order.
func (b *BodyLines) All() []Line {
	return []Line{b.Rise, b.Set, b.Culminate, b.AntiCulminate}
}

// BodyResult is the outcome for one body: Lines on success, Err otherwise.
type BodyResult struct {
	Lines *BodyLines
	Err   error
}

// OK reports whether the body produced lines.
func (r BodyResult) OK() bool {
	return r.Err == nil && r.Lines != nil
}

// Result maps body name to its outcome.
type Result map[string]BodyResult

// Succeeded returns the sorted names of bodies with lines.
func (r Result) Succeeded() []string {
	return r.names(true)
}

// Failed returns the sorted names of bodies that failed.
func (r Result) Failed() []string {
	return r.names(false)
}

func (r Result) names(ok bool) []string {
	var names []string
	for name, br := range r {
		if br.OK() == ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
