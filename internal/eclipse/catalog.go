package eclipse

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed catalog.toml
var defaultCatalogTOML []byte

var (
	ErrInvalidType = errors.New("invalid eclipse type")
	ErrInvalidKind = errors.New("invalid eclipse kind")
	ErrInvalidDate = errors.New("invalid eclipse date")
)

// catalogFile is the on-disk catalog layout.
type catalogFile struct {
	Eclipse []catalogEntry `toml:"eclipse"`
}

type catalogEntry struct {
	Date      string   `toml:"date"`
	Type      string   `toml:"type"`
	Kind      string   `toml:"kind"`
	Longitude *float64 `toml:"longitude"`
	Saros     int      `toml:"saros"`
	Impact    bool     `toml:"impact"`
}

var parseDefault = sync.OnceValues(func() ([]Event, error) {
	return ParseCatalog(defaultCatalogTOML)
})

// DefaultCatalog returns the built-in eclipse catalog, sorted by date.
// Each call returns a fresh copy.
func DefaultCatalog() []Event {
	events, err := parseDefault()
	if err != nil {
		panic(fmt.Sprintf("eclipse: embedded catalog: %v", err))
	}
	out := make([]Event, len(events))
	for i, e := range events {
		out[i] = e.clone()
	}
	return out
}

// LoadCatalog reads a catalog file.
func LoadCatalog(path string) ([]Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	events, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return events, nil
}

// ParseCatalog decodes a TOML catalog of [[eclipse]] tables. Dates are
// "YYYY-MM-DD" or RFC 3339. Events are returned sorted by date.
func ParseCatalog(data []byte) ([]Event, error) {
	var f catalogFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	events := make([]Event, 0, len(f.Eclipse))
	for i, entry := range f.Eclipse {
		e, err := entry.event()
		if err != nil {
			return nil, fmt.Errorf("eclipse %d: %w", i+1, err)
		}
		events = append(events, e)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
	return events, nil
}

func (c catalogEntry) event() (Event, error) {
	date, err := parseDate(c.Date)
	if err != nil {
		return Event{}, err
	}

	t := Type(strings.ToLower(c.Type))
	if t != Solar && t != Lunar {
		return Event{}, fmt.Errorf("%w: %q", ErrInvalidType, c.Type)
	}

	k := Kind(strings.ToLower(c.Kind))
	switch k {
	case Total, Partial, Annular, Penumbral, Hybrid:
	default:
		return Event{}, fmt.Errorf("%w: %q", ErrInvalidKind, c.Kind)
	}
	if (k == Penumbral && t == Solar) || ((k == Annular || k == Hybrid) && t == Lunar) {
		return Event{}, fmt.Errorf("%w: %s %s eclipse", ErrInvalidKind, k, t)
	}

	return Event{
		Date:      date,
		Type:      t,
		Kind:      k,
		Longitude: c.Longitude,
		Saros:     c.Saros,
		HasImpact: c.Impact,
	}, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// FilterWindow returns the events dated within [from, to].
func FilterWindow(events []Event, from, to time.Time) []Event {
	var out []Event
	for _, e := range events {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out
}
