// Package state provides thread-safe session state for the eclipse views:
// the natal chart, the catalog, the reference date, and the activations
// derived from them.
package state

import (
	"errors"
	"sync"
	"time"

	"github.com/litescript/ls-chartcore/internal/chart"
	"github.com/litescript/ls-chartcore/internal/eclipse"
	"github.com/litescript/ls-chartcore/internal/observability"
)

// ErrNoChart is returned by Reload without a chart path.
var ErrNoChart = errors.New("no natal chart path")

// EventType represents the type of state change event.
type EventType string

const (
	EventActivated     EventType = "ACTIVATED"
	EventStatusChanged EventType = "STATUS_CHANGED"
	EventDeactivated   EventType = "DEACTIVATED"
)

// Event records an activation appearing, changing status, or disappearing
// between two recomputations.
type Event struct {
	Type        EventType    `json:"type"`
	Timestamp   time.Time    `json:"timestamp"`
	Reference   time.Time    `json:"reference"`
	EclipseDate time.Time    `json:"eclipse_date"`
	EclipseType eclipse.Type `json:"eclipse_type"`
	OldStatus   string       `json:"old_status,omitempty"`
	NewStatus   string       `json:"new_status,omitempty"`
}

// eclipseKey identifies a catalog eclipse across recomputations.
type eclipseKey struct {
	date string
	typ  eclipse.Type
}

func keyOf(e eclipse.Event) eclipseKey {
	return eclipseKey{date: e.Date.UTC().Format("2006-01-02"), typ: e.Type}
}

// Manager handles session state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	natal     *chart.Natal
	catalog   []eclipse.Event
	reference time.Time
	orb       float64

	// Derived
	activations []eclipse.Activation
	groups      []eclipse.SarosGroup
	lastError   error
	lastUpdate  time.Time
	computed    bool
	prevStatus  map[eclipseKey]eclipse.Status

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int

	metrics *observability.EngineCollector
}

// Config holds configuration for the state manager.
type Config struct {
	MaxEvents int
	Orb       float64
	Metrics   *observability.EngineCollector
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxEvents: 50,
		Orb:       eclipse.DefaultOrb,
	}
}

// NewManager creates a new state manager with the reference date set to now.
func NewManager(cfg Config) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	return &Manager{
		reference:  time.Now().UTC(),
		orb:        cfg.Orb,
		maxEvents:  maxEvents,
		events:     make([]Event, 0, maxEvents),
		prevStatus: make(map[eclipseKey]eclipse.Status),
		metrics:    cfg.Metrics,
	}
}

// SetNatal replaces the natal chart and recomputes.
func (m *Manager) SetNatal(n *chart.Natal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.natal = n
	return m.recompute()
}

// SetCatalog replaces the eclipse catalog and recomputes.
func (m *Manager) SetCatalog(events []eclipse.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog = events
	return m.recompute()
}

// SetReference moves the reference date and recomputes.
func (m *Manager) SetReference(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reference = t.UTC()
	return m.recompute()
}

// StepReference moves the reference date by whole months and years.
func (m *Manager) StepReference(years, months int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reference = m.reference.AddDate(years, months, 0)
	return m.recompute()
}

// SetOrb changes the impact orb and recomputes.
func (m *Manager) SetOrb(orb float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orb = orb
	return m.recompute()
}

// recompute rebuilds activations and groups. Callers hold m.mu.
func (m *Manager) recompute() error {
	if m.natal == nil {
		return nil
	}

	m.lastUpdate = time.Now()
	acts, err := eclipse.Classify(m.natal.Snapshot, m.catalog, m.reference, m.orb)
	m.lastError = err
	if err != nil {
		return err
	}

	m.detectEvents(acts)

	m.groups = eclipse.GroupBySaros(acts)
	m.activations = eclipse.Flatten(m.groups)
	m.metrics.SetActivations(eclipse.CountByStatus(acts))
	return nil
}

// detectEvents compares new activations with the previous ones.
func (m *Manager) detectEvents(acts []eclipse.Activation) {
	now := time.Now()
	next := make(map[eclipseKey]eclipse.Status, len(acts))

	for _, a := range acts {
		key := keyOf(a.Event)
		next[key] = a.Status
		if !m.computed {
			continue
		}

		prev, wasPrev := m.prevStatus[key]
		switch {
		case !wasPrev:
			m.addEvent(Event{
				Type:        EventActivated,
				Timestamp:   now,
				Reference:   m.reference,
				EclipseDate: a.Event.Date,
				EclipseType: a.Event.Type,
				NewStatus:   a.Status.String(),
			})
		case prev != a.Status:
			m.addEvent(Event{
				Type:        EventStatusChanged,
				Timestamp:   now,
				Reference:   m.reference,
				EclipseDate: a.Event.Date,
				EclipseType: a.Event.Type,
				OldStatus:   prev.String(),
				NewStatus:   a.Status.String(),
			})
		}
	}

	if m.computed {
		for key, prev := range m.prevStatus {
			if _, ok := next[key]; ok {
				continue
			}
			date, _ := time.Parse("2006-01-02", key.date)
			m.addEvent(Event{
				Type:        EventDeactivated,
				Timestamp:   now,
				Reference:   m.reference,
				EclipseDate: date,
				EclipseType: key.typ,
				OldStatus:   prev.String(),
			})
		}
	}

	m.prevStatus = next
	m.computed = true
}

// addEvent adds an event to the ring buffer.
func (m *Manager) addEvent(e Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Natal       *chart.Natal
	Reference   time.Time
	Orb         float64
	Activations []eclipse.Activation
	Groups      []eclipse.SarosGroup
	Counts      map[string]int
	Events      []Event
	LastError   error
	LastUpdate  time.Time
}

// Snapshot returns a consistent snapshot of current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acts := make([]eclipse.Activation, len(m.activations))
	copy(acts, m.activations)

	groups := make([]eclipse.SarosGroup, len(m.groups))
	for i, g := range m.groups {
		members := make([]eclipse.Activation, len(g.Members))
		copy(members, g.Members)
		groups[i] = eclipse.SarosGroup{ID: g.ID, Members: members}
	}

	return Snapshot{
		Natal:       m.natal,
		Reference:   m.reference,
		Orb:         m.orb,
		Activations: acts,
		Groups:      groups,
		Counts:      eclipse.CountByStatus(acts),
		Events:      m.getEventsOrdered(),
		LastError:   m.lastError,
		LastUpdate:  m.lastUpdate,
	}
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		idx := (m.eventWriteAt + i) % m.maxEvents
		result[i] = m.events[idx]
	}
	return result
}

// RecentEvents returns the last n events.
func (m *Manager) RecentEvents(n int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	n = max(0, min(n, len(all)))
	return all[len(all)-n:]
}

// Reference returns the current reference date.
func (m *Manager) Reference() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reference
}

// HasData returns true once a natal chart has been classified successfully.
func (m *Manager) HasData() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.computed
}

// Reload re-reads the chart and optional catalog from disk. An empty
// catalogPath keeps the current catalog.
func (m *Manager) Reload(natalPath, catalogPath string) error {
	if natalPath == "" {
		return ErrNoChart
	}
	n, err := chart.LoadNatal(natalPath)
	if err != nil {
		m.setError(err)
		return err
	}

	var events []eclipse.Event
	if catalogPath != "" {
		events, err = eclipse.LoadCatalog(catalogPath)
		if err != nil {
			m.setError(err)
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.natal = n
	if catalogPath != "" {
		m.catalog = events
	}
	return m.recompute()
}

func (m *Manager) setError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastError = err
	m.lastUpdate = time.Now()
}
