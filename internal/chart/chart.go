// Package chart defines the chart data shared by the timing and geometry engines.
package chart

import (
	"sort"
	"time"
)

// PlanetPosition is one body's ecliptic position as returned by an evaluator.
type PlanetPosition struct {
	Name      string  `json:"name" toml:"name"`
	Longitude float64 `json:"longitude" toml:"longitude"` // Ecliptic longitude in degrees (0-360)
	Latitude  float64 `json:"latitude" toml:"latitude"`   // Ecliptic latitude in degrees (0 if unknown)
	Velocity  float64 `json:"velocity" toml:"velocity"`   // Degrees per day, negative when retrograde
}

// Retrograde reports whether the body is moving backwards along the ecliptic.
func (p PlanetPosition) Retrograde() bool {
	return p.Velocity < 0
}

// Location is a geographic position on Earth.
type Location struct {
	Latitude  float64 `json:"latitude" toml:"latitude"`   // North positive
	Longitude float64 `json:"longitude" toml:"longitude"` // East positive
}

// Snapshot is a chart evaluated at one instant and place.
// Snapshots are never modified after construction.
type Snapshot struct {
	Time      time.Time                 `json:"time"`
	Location  Location                  `json:"location"`
	Houses    [12]float64               `json:"houses"`
	Ascendant float64                   `json:"ascendant"`
	Midheaven float64                   `json:"midheaven"`
	Planets   map[string]PlanetPosition `json:"planets"`
}

// Planet looks up a body by key.
func (s *Snapshot) Planet(name string) (PlanetPosition, bool) {
	if s == nil || s.Planets == nil {
		return PlanetPosition{}, false
	}
	p, ok := s.Planets[name]
	return p, ok
}

// PlanetNames returns the body keys in sorted order.
func (s *Snapshot) PlanetNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Planets))
	for name := range s.Planets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GeoPoint is a point on the globe. Longitude is kept in (-180, 180].
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
