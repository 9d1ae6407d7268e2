package chart

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Errors for chart file loading.
var (
	ErrNoPlanets   = errors.New("chart has no planets")
	ErrHouseCount  = errors.New("chart must list exactly 12 house cusps")
	ErrMissingTime = errors.New("chart has no time")
	ErrDuplicate   = errors.New("chart lists a planet twice")
)

// Natal is a named chart loaded from disk.
type Natal struct {
	Name     string
	Snapshot *Snapshot
}

// natalFile mirrors the TOML layout of a chart file:
//
//	name = "Example"
//	time = 1990-05-17T14:30:00Z
//	ascendant = 123.4
//	midheaven = 33.0
//	houses = [123.4, 150.1, ...]
//
//	[location]
//	latitude = 40.71
//	longitude = -74.0
//
//	[planets.sun]
//	longitude = 56.2
//	velocity = 0.96
type natalFile struct {
	Name      string                    `toml:"name"`
	Time      time.Time                 `toml:"time"`
	Location  Location                  `toml:"location"`
	Ascendant float64                   `toml:"ascendant"`
	Midheaven float64                   `toml:"midheaven"`
	Houses    []float64                 `toml:"houses"`
	Planets   map[string]PlanetPosition `toml:"planets"`
}

// LoadNatal reads a chart from a TOML file.
func LoadNatal(path string) (*Natal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chart %s: %w", path, err)
	}
	return ParseNatal(data)
}

// ParseNatal decodes a TOML chart document.
func ParseNatal(data []byte) (*Natal, error) {
	var f natalFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing chart TOML: %w", err)
	}

	if f.Time.IsZero() {
		return nil, ErrMissingTime
	}
	if len(f.Planets) == 0 {
		return nil, ErrNoPlanets
	}

	snap := &Snapshot{
		Time:      f.Time.UTC(),
		Location:  f.Location,
		Ascendant: NormalizeDegrees(f.Ascendant),
		Midheaven: NormalizeDegrees(f.Midheaven),
		Planets:   make(map[string]PlanetPosition, len(f.Planets)),
	}

	switch len(f.Houses) {
	case 0:
		// No cusps given: fall back to equal houses from the ascendant.
		snap.Houses = EqualHouses(snap.Ascendant)
	case 12:
		for i, c := range f.Houses {
			snap.Houses[i] = NormalizeDegrees(c)
		}
	default:
		return nil, fmt.Errorf("%w: got %d", ErrHouseCount, len(f.Houses))
	}

	// Keys are matched case-insensitively everywhere else, so fold them here.
	for raw, p := range f.Planets {
		key := strings.ToLower(strings.TrimSpace(raw))
		if _, dup := snap.Planets[key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, key)
		}
		if p.Name == "" {
			p.Name = key
		}
		p.Longitude = NormalizeDegrees(p.Longitude)
		snap.Planets[key] = p
	}

	return &Natal{Name: f.Name, Snapshot: snap}, nil
}

// EqualHouses returns twelve cusps spaced 30° apart starting at the ascendant.
func EqualHouses(ascendant float64) [12]float64 {
	var cusps [12]float64
	for i := range cusps {
		cusps[i] = NormalizeDegrees(ascendant + float64(i)*30)
	}
	return cusps
}
