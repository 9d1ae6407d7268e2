// Package report renders engine results for people and for other tools:
// indented JSON, GeoJSON line collections, and terminal tables.
package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/litescript/ls-chartcore/internal/acg"
	"github.com/litescript/ls-chartcore/internal/chart"
	"github.com/litescript/ls-chartcore/internal/eclipse"
	"github.com/litescript/ls-chartcore/internal/returns"
)

// ReturnExport is the JSON form of a solved return.
type ReturnExport struct {
	Body       string          `json:"body"`
	Kind       string          `json:"kind"`
	Target     float64         `json:"target_longitude"`
	Time       time.Time       `json:"time"`
	Converged  bool            `json:"converged"`
	Iterations int             `json:"iterations"`
	Residual   float64         `json:"residual"`
	Chart      *chart.Snapshot `json:"chart,omitempty"`
}

// ExportReturn converts a solver result for output.
func ExportReturn(req returns.Request, res *returns.Result) ReturnExport {
	out := ReturnExport{
		Body:   req.Body,
		Kind:   returns.KindFor(req.Body).String(),
		Target: chart.NormalizeDegrees(req.TargetLongitude),
	}
	if res == nil {
		return out
	}
	out.Time = res.Time
	out.Converged = res.Converged
	out.Iterations = res.Iterations
	out.Residual = res.Residual
	out.Chart = res.Chart
	return out
}

// LinesExport is the JSON form of a line generation run.
type LinesExport struct {
	Instant time.Time         `json:"instant"`
	Bodies  []BodyLinesExport `json:"bodies"`
}

// BodyLinesExport is one body's outcome.
type BodyLinesExport struct {
	Body  string     `json:"body"`
	Error string     `json:"error,omitempty"`
	Lines []acg.Line `json:"lines,omitempty"`
}

// ExportLines converts a generation result, bodies sorted by name with
// failures after successes.
func ExportLines(instant time.Time, res acg.Result) LinesExport {
	out := LinesExport{Instant: instant.UTC()}
	for _, name := range res.Succeeded() {
		out.Bodies = append(out.Bodies, BodyLinesExport{Body: name, Lines: res[name].Lines.All()})
	}
	for _, name := range res.Failed() {
		msg := "no lines"
		if err := res[name].Err; err != nil {
			msg = err.Error()
		}
		out.Bodies = append(out.Bodies, BodyLinesExport{Body: name, Error: msg})
	}
	return out
}

// EclipsesExport is the JSON form of a classification.
type EclipsesExport struct {
	Reference time.Time      `json:"reference"`
	Orb       float64        `json:"orb"`
	Counts    map[string]int `json:"counts"`
	Groups    []GroupExport  `json:"saros_groups"`
}

// GroupExport is one Saros group.
type GroupExport struct {
	ID      string               `json:"id"`
	Members []eclipse.Activation `json:"members"`
}

// ExportEclipses converts grouped activations.
func ExportEclipses(reference time.Time, orb float64, groups []eclipse.SarosGroup) EclipsesExport {
	out := EclipsesExport{
		Reference: reference.UTC(),
		Orb:       orb,
		Counts:    eclipse.CountByStatus(eclipse.Flatten(groups)),
		Groups:    make([]GroupExport, 0, len(groups)),
	}
	for _, g := range groups {
		out.Groups = append(out.Groups, GroupExport{ID: g.ID, Members: g.Members})
	}
	return out
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
