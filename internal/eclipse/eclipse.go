// Package eclipse classifies eclipses against a natal chart: which ones
// touch the chart, how current each one is relative to a reference date,
// and which belong to the same Saros cycle.
package eclipse

import (
	"time"
)

// Type is solar or lunar.
type Type string

const (
	Solar Type = "solar"
	Lunar Type = "lunar"
)

// Kind is the eclipse's visual kind.
type Kind string

const (
	Total     Kind = "total"
	Partial   Kind = "partial"
	Annular   Kind = "annular"
	Penumbral Kind = "penumbral"
	Hybrid    Kind = "hybrid"
)

// Event is one eclipse. Longitude is the ecliptic degree of the eclipse
// (the Sun for solar eclipses, the Moon for lunar ones) when known.
type Event struct {
	Date            time.Time `json:"date"`
	Type            Type      `json:"type"`
	Kind            Kind      `json:"kind"`
	Longitude       *float64  `json:"longitude,omitempty"`
	Saros           int       `json:"saros,omitempty"` // Series number, 0 if unknown
	AffectedPlanets []string  `json:"affectedPlanets,omitempty"`
	HasImpact       bool      `json:"hasImpact"`
}

func (e Event) clone() Event {
	if e.Longitude != nil {
		lon := *e.Longitude
		e.Longitude = &lon
	}
	if e.AffectedPlanets != nil {
		e.AffectedPlanets = append([]string(nil), e.AffectedPlanets...)
	}
	return e
}

// Status is how current an eclipse is relative to a reference date.
type Status int

const (
	StatusFuture Status = iota
	StatusApproaching
	StatusActive
	StatusIntegrating
	StatusComplete
)

func (s Status) String() string {
	switch s {
	case StatusFuture:
		return "future"
	case StatusApproaching:
		return "approaching"
	case StatusActive:
		return "active"
	case StatusIntegrating:
		return "integrating"
	case StatusComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusFuture, StatusApproaching, StatusActive, StatusIntegrating, StatusComplete}

// Status windows, in 30-day months.
const (
	DaysPerMonth      = 30.0
	ApproachMonths    = 3.0
	ActiveMonths      = 1.0
	IntegrationMonths = 6.0
)

// StatusAt returns the status of an eclipse on eventDate as seen from
// reference. Months are fractional days over 30, so an eclipse turns active
// at its exact instant and stops being active 30 days later to the hour.
func StatusAt(eventDate, reference time.Time) Status {
	after := reference.Sub(eventDate).Hours() / 24 / DaysPerMonth
	before := -after

	switch {
	case after >= 0 && after <= ActiveMonths:
		return StatusActive
	case before > 0 && before <= ApproachMonths:
		return StatusApproaching
	case after > ActiveMonths && after <= IntegrationMonths:
		return StatusIntegrating
	case after > IntegrationMonths:
		return StatusComplete
	default:
		return StatusFuture
	}
}

// Activation is an impacting eclipse with its current status.
type Activation struct {
	Event        Event  `json:"eclipse"`
	Status       Status `json:"status"`
	SarosGroupID string `json:"sarosGroupId,omitempty"`
}
