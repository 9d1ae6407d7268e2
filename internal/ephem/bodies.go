package ephem

import "strings"

// BodyInfo maps a chart body key to its ephemeris identifiers.
type BodyInfo struct {
	Key        string   // Chart key (e.g., "sun")
	Name       string   // Display name
	HorizonsID int      // NAIF SPICE ID used as the Horizons COMMAND
	Aliases    []string // Alternative names accepted on input
}

// Sourced from https://naif.jpl.nasa.gov/pub/naif/toolkit_docs/C/req/naif_ids.html
// (planet centers rather than barycenters).
const (
	NAIFSun     = 10
	NAIFMoon    = 301
	NAIFMercury = 199
	NAIFVenus   = 299
	NAIFMars    = 499
	NAIFJupiter = 599
	NAIFSaturn  = 699
	NAIFUranus  = 799
	NAIFNeptune = 899
	NAIFPluto   = 999
)

// Bodies is the canonical list of chart bodies in traditional order.
var Bodies = []BodyInfo{
	{Key: "sun", Name: "Sun", HorizonsID: NAIFSun, Aliases: []string{"sol"}},
	{Key: "moon", Name: "Moon", HorizonsID: NAIFMoon, Aliases: []string{"luna"}},
	{Key: "mercury", Name: "Mercury", HorizonsID: NAIFMercury},
	{Key: "venus", Name: "Venus", HorizonsID: NAIFVenus},
	{Key: "mars", Name: "Mars", HorizonsID: NAIFMars},
	{Key: "jupiter", Name: "Jupiter", HorizonsID: NAIFJupiter},
	{Key: "saturn", Name: "Saturn", HorizonsID: NAIFSaturn},
	{Key: "uranus", Name: "Uranus", HorizonsID: NAIFUranus},
	{Key: "neptune", Name: "Neptune", HorizonsID: NAIFNeptune},
	{Key: "pluto", Name: "Pluto", HorizonsID: NAIFPluto},
}

// BodiesByKey maps body keys and aliases to body info.
var BodiesByKey = func() map[string]BodyInfo {
	m := make(map[string]BodyInfo, len(Bodies)*2)
	for _, b := range Bodies {
		m[b.Key] = b
		for _, alias := range b.Aliases {
			m[alias] = b
		}
	}
	return m
}()

// GetBody returns body info for a key, name or alias (case-insensitive).
func GetBody(name string) (BodyInfo, bool) {
	b, ok := BodiesByKey[strings.ToLower(strings.TrimSpace(name))]
	return b, ok
}

// BodyKeys returns the canonical body keys in traditional order.
func BodyKeys() []string {
	keys := make([]string, len(Bodies))
	for i, b := range Bodies {
		keys[i] = b.Key
	}
	return keys
}
