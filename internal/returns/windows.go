package returns

import (
	"fmt"
	"time"

	"github.com/litescript/ls-chartcore/internal/chart"
)

// Kind names the kind of return by body.
type Kind int

const (
	KindPlanetary Kind = iota
	KindSolar
	KindLunar
)

func (k Kind) String() string {
	switch k {
	case KindSolar:
		return "solar"
	case KindLunar:
		return "lunar"
	default:
		return "planetary"
	}
}

// KindFor returns the kind of return for a body key.
func KindFor(body string) Kind {
	switch bodyKey(body) {
	case "sun":
		return KindSolar
	case "moon":
		return KindLunar
	default:
		return KindPlanetary
	}
}

const (
	// solarHalfWindow brackets the solar return around the calendar anniversary.
	solarHalfWindow = 3 * 24 * time.Hour

	// lunarHalfWindow brackets each lunar return. The Moon moves about 13°
	// per day, so ±5 days stays well inside one revolution.
	lunarHalfWindow = 5 * 24 * time.Hour

	// TropicalMonth is the mean time for the Moon to return to the same
	// tropical longitude.
	TropicalMonth = time.Duration(27.321582 * 24 * float64(time.Hour))
)

// Window is a search bracket.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Center returns the window midpoint.
func (w Window) Center() time.Time {
	return w.Start.Add(w.End.Sub(w.Start) / 2)
}

// SolarReturnWindow brackets the solar return for the given year: ±3 days
// around the birth moment's calendar anniversary. A 29 February birthday
// is anchored on 1 March in common years.
func SolarReturnWindow(natal time.Time, year int) Window {
	n := natal.UTC()
	anniversary := time.Date(year, n.Month(), n.Day(), n.Hour(), n.Minute(), n.Second(), n.Nanosecond(), time.UTC)
	return Window{Start: anniversary.Add(-solarHalfWindow), End: anniversary.Add(solarHalfWindow)}
}

// LunarReturnWindows returns count consecutive lunar return windows, the
// first being the earliest window that ends after from.
func LunarReturnWindows(natal, from time.Time, count int) []Window {
	if count <= 0 {
		return nil
	}
	natal, from = natal.UTC(), from.UTC()

	cycles := int64(from.Sub(natal) / TropicalMonth)
	center := natal.Add(time.Duration(cycles) * TropicalMonth)
	for !center.Add(lunarHalfWindow).After(from) {
		center = center.Add(TropicalMonth)
	}
	for center.Add(-TropicalMonth).Add(lunarHalfWindow).After(from) {
		center = center.Add(-TropicalMonth)
	}

	windows := make([]Window, count)
	for i := range windows {
		c := center.Add(time.Duration(i) * TropicalMonth)
		windows[i] = Window{Start: c.Add(-lunarHalfWindow), End: c.Add(lunarHalfWindow)}
	}
	return windows
}

// ForNatal builds a request targeting the natal position of body within w.
func ForNatal(natal *chart.Snapshot, body string, w Window, houseSystem string) (Request, error) {
	key := bodyKey(body)
	p, ok := natal.Planet(key)
	if !ok {
		return Request{}, fmt.Errorf("%w: %s in natal chart", ErrBodyMissing, key)
	}
	return Request{
		Body:            key,
		TargetLongitude: p.Longitude,
		WindowStart:     w.Start,
		WindowEnd:       w.End,
		Location:        natal.Location,
		HouseSystem:     houseSystem,
	}, nil
}
