package ephem

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/litescript/ls-chartcore/internal/chart"
)

const (
	// HorizonsAPIURL is the JPL Horizons JSON API endpoint.
	HorizonsAPIURL = "https://ssd.jpl.nasa.gov/api/horizons.api"

	// RequestTimeout is the HTTP request timeout.
	RequestTimeout = 30 * time.Second

	// velocitySpan is the gap between the two samples used to derive velocity.
	velocitySpan = time.Hour
)

// HorizonsEvaluator queries JPL Horizons for geocentric ecliptic positions.
// Houses and angles are computed locally from sidereal time.
type HorizonsEvaluator struct {
	client  *http.Client
	baseURL string
	bodies  []BodyInfo
}

// HorizonsOption configures a HorizonsEvaluator.
type HorizonsOption func(*HorizonsEvaluator)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) HorizonsOption {
	return func(e *HorizonsEvaluator) { e.client = c }
}

// WithBaseURL overrides the API endpoint (used by tests).
func WithBaseURL(u string) HorizonsOption {
	return func(e *HorizonsEvaluator) { e.baseURL = u }
}

// WithBodies restricts evaluation to the given body keys. Unknown keys are ignored.
func WithBodies(keys ...string) HorizonsOption {
	return func(e *HorizonsEvaluator) {
		var bodies []BodyInfo
		for _, k := range keys {
			if b, ok := GetBody(k); ok {
				bodies = append(bodies, b)
			}
		}
		e.bodies = bodies
	}
}

// NewHorizonsEvaluator creates a new Horizons API client evaluating all known bodies.
func NewHorizonsEvaluator(opts ...HorizonsOption) *HorizonsEvaluator {
	e := &HorizonsEvaluator{
		client: &http.Client{
			Timeout: RequestTimeout,
		},
		baseURL: HorizonsAPIURL,
		bodies:  Bodies,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements Evaluator.
func (e *HorizonsEvaluator) Name() string {
	return "horizons"
}

// Evaluate implements Evaluator. Bodies are queried concurrently; any failed
// body fails the whole evaluation.
func (e *HorizonsEvaluator) Evaluate(ctx context.Context, req Request) (*Evaluation, error) {
	houses, asc, mc, err := Angles(req)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		planets = make(map[string]chart.PlanetPosition, len(e.bodies))
		errs    []error
	)

	for _, body := range e.bodies {
		wg.Add(1)
		go func(body BodyInfo) {
			defer wg.Done()
			pos, err := e.queryBody(ctx, body, req.Time)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", body.Key, err))
				return
			}
			planets[body.Key] = pos
		}(body)
	}
	wg.Wait()

	if len(errs) > 0 {
		sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
		return nil, fmt.Errorf("horizons evaluation failed: %w", errs[0])
	}

	return &Evaluation{
		Success:   true,
		Planets:   planets,
		Houses:    houses,
		Ascendant: asc,
		Midheaven: mc,
	}, nil
}

// queryBody fetches two samples an hour apart and derives the daily velocity.
func (e *HorizonsEvaluator) queryBody(ctx context.Context, body BodyInfo, t time.Time) (chart.PlanetPosition, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("COMMAND", fmt.Sprintf("'%d'", body.HorizonsID))
	params.Set("OBJ_DATA", "NO")
	params.Set("MAKE_EPHEM", "YES")
	params.Set("EPHEM_TYPE", "OBSERVER")
	params.Set("CENTER", "'500@399'") // Geocentric
	params.Set("START_TIME", fmt.Sprintf("'%s'", formatHorizonsTime(t)))
	params.Set("STOP_TIME", fmt.Sprintf("'%s'", formatHorizonsTime(t.Add(velocitySpan))))
	params.Set("STEP_SIZE", fmt.Sprintf("'%s'", formatStepSize(velocitySpan)))
	params.Set("TIME_DIGITS", "'SECONDS'")
	params.Set("QUANTITIES", "'31'") // 31=Observer ecliptic lon/lat

	reqURL := e.baseURL + "?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return chart.PlanetPosition{}, fmt.Errorf("build horizons request: %w", err)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return chart.PlanetPosition{}, fmt.Errorf("horizons request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return chart.PlanetPosition{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return chart.PlanetPosition{}, fmt.Errorf("horizons returned status %d: %s", resp.StatusCode, string(respBody))
	}

	samples, err := parseHorizonsResponse(respBody)
	if err != nil {
		return chart.PlanetPosition{}, err
	}
	if len(samples) < 2 {
		return chart.PlanetPosition{}, fmt.Errorf("expected 2 samples, got %d", len(samples))
	}

	first, second := samples[0], samples[1]
	days := second.Time.Sub(first.Time).Hours() / 24
	if days <= 0 {
		return chart.PlanetPosition{}, fmt.Errorf("samples out of order")
	}

	return chart.PlanetPosition{
		Name:      body.Key,
		Longitude: chart.NormalizeDegrees(first.Longitude),
		Latitude:  first.Latitude,
		Velocity:  chart.AngularDifference(second.Longitude, first.Longitude) / days,
	}, nil
}

// eclipticSample is one parsed row of a QUANTITIES='31' table.
type eclipticSample struct {
	Time      time.Time
	Longitude float64
	Latitude  float64
}

// horizonsResponse represents the JSON API response.
type horizonsResponse struct {
	Signature struct {
		Version string `json:"version"`
		Source  string `json:"source"`
	} `json:"signature"`
	Result string `json:"result"`
	Error  string `json:"error"`
}

// parseHorizonsResponse parses the Horizons JSON envelope and its text table.
func parseHorizonsResponse(body []byte) ([]eclipticSample, error) {
	var resp horizonsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("horizons error: %s", resp.Error)
	}
	return parseEphemerisTable(resp.Result)
}

// parseEphemerisTable extracts samples between the $$SOE and $$EOE markers.
func parseEphemerisTable(result string) ([]eclipticSample, error) {
	soeIdx := strings.Index(result, "$$SOE")
	eoeIdx := strings.Index(result, "$$EOE")
	if soeIdx == -1 || eoeIdx == -1 || soeIdx >= eoeIdx {
		return nil, fmt.Errorf("could not find ephemeris data markers")
	}

	var samples []eclipticSample
	for _, line := range strings.Split(result[soeIdx+5:eoeIdx], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		s, err := parseEphemerisLine(line)
		if err != nil {
			continue // Skip unparseable lines
		}
		samples = append(samples, s)
	}

	return samples, nil
}

// parseEphemerisLine parses a single ephemeris data line.
// Format for QUANTITIES='31':
//
//	2024-Apr-08 18:17:00 *m   19.2403587  0.0002144
//
// Fields: date, time, optional flags, ecliptic longitude, ecliptic latitude.
func parseEphemerisLine(line string) (eclipticSample, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return eclipticSample{}, fmt.Errorf("insufficient fields: %d", len(fields))
	}

	t, err := parseHorizonsDateTime(fields[0] + " " + fields[1])
	if err != nil {
		return eclipticSample{}, err
	}

	// Longitude and latitude are the first two numeric fields after any flags
	var values []float64
	for _, f := range fields[2:] {
		if v, err := strconv.ParseFloat(f, 64); err == nil {
			values = append(values, v)
			if len(values) == 2 {
				break
			}
		}
	}
	if len(values) < 2 {
		return eclipticSample{}, fmt.Errorf("could not find ecliptic lon/lat values")
	}

	return eclipticSample{Time: t, Longitude: values[0], Latitude: values[1]}, nil
}

// parseHorizonsDateTime parses Horizons dates like "2025-Dec-05 00:00".
func parseHorizonsDateTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-Jan-02 15:04", "2006-Jan-02 15:04:05", "2006-Jan-02 15:04:05.000"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

// formatHorizonsTime formats a time for the Horizons API.
func formatHorizonsTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}

// formatStepSize formats a duration as a Horizons step size.
func formatStepSize(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes >= 60 && minutes%60 == 0 {
		return fmt.Sprintf("%d h", minutes/60)
	}
	return fmt.Sprintf("%d m", minutes)
}
