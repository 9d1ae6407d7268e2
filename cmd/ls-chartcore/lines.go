package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/litescript/ls-chartcore/internal/acg"
	"github.com/litescript/ls-chartcore/internal/chart"
	"github.com/litescript/ls-chartcore/internal/ephem"
	"github.com/litescript/ls-chartcore/internal/report"
)

var linesCmd = &cobra.Command{
	Use:   "lines",
	Short: "Map astrocartography lines for the natal chart",
	Long: `Map where each body rises, sets, culminates and anti-culminates at the
natal instant, or at --at when given (evaluated with the configured
evaluator).`,
	Args: cobra.NoArgs,
	RunE: runLines,
}

func init() {
	linesCmd.Flags().String("at", "", "map the sky at this instant instead of the natal chart")
	linesCmd.Flags().StringSlice("bodies", nil, "bodies to map (default all)")
	linesCmd.Flags().String("format", "table", "output format (table, json, geojson)")
	linesCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(linesCmd)
}

func runLines(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "table", "json", "geojson":
	default:
		return fmt.Errorf("unknown format %q (want table, json or geojson)", format)
	}

	natal, err := loadNatal()
	if err != nil {
		return err
	}
	snap := natal.Snapshot

	if at, _ := cmd.Flags().GetString("at"); at != "" {
		t, err := parseDate(at)
		if err != nil {
			return err
		}
		snap, err = evaluateAt(cmd, t, natal.Snapshot.Location)
		if err != nil {
			return err
		}
	}

	bodies, _ := cmd.Flags().GetStringSlice("bodies")
	for i, b := range bodies {
		bodies[i] = strings.ToLower(strings.TrimSpace(b))
	}

	gen := acg.New(
		acg.WithLogger(rt.log.Named("acg")),
		acg.WithMetrics(rt.metrics),
	)
	res := gen.Generate(cmd.Context(), acg.InputFromSnapshot(snap, bodies...))

	var w io.Writer = os.Stdout
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "json":
		return report.WriteJSON(w, report.ExportLines(snap.Time, res))
	case "geojson":
		return report.WriteJSON(w, report.LinesGeoJSON(res))
	default:
		report.WriteLines(w, report.ExportLines(snap.Time, res), report.StylesFor(w))
		return nil
	}
}

// evaluateAt evaluates a chart with the configured evaluator.
func evaluateAt(cmd *cobra.Command, t time.Time, loc chart.Location) (*chart.Snapshot, error) {
	req := ephem.Request{Time: t, Location: loc, HouseSystem: rt.cfg.HouseSystem}
	rt.metrics.EvaluatorCalled(rt.evaluator.Name())
	eval, err := rt.evaluator.Evaluate(cmd.Context(), req)
	if err != nil {
		return nil, fmt.Errorf("evaluate chart: %w", err)
	}
	if eval == nil || !eval.Success {
		return nil, fmt.Errorf("evaluate chart: %s evaluator reported failure", rt.evaluator.Name())
	}
	return eval.Snapshot(req), nil
}
