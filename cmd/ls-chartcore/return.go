package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/litescript/ls-chartcore/internal/chart"
	"github.com/litescript/ls-chartcore/internal/config"
	"github.com/litescript/ls-chartcore/internal/report"
	"github.com/litescript/ls-chartcore/internal/returns"
)

var returnCmd = &cobra.Command{
	Use:   "return [body]",
	Short: "Find when a body returns to its natal longitude",
	Long: `Find the instant a transiting body returns to its natal longitude.

The Sun is searched around the birthday of --year. The Moon is searched in
consecutive windows one tropical month apart starting at --from. Any other
body needs an explicit --start/--end window that holds exactly one crossing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReturn,
}

func init() {
	addReturnFlags(returnCmd)
	rootCmd.AddCommand(returnCmd)
}

func addReturnFlags(cmd *cobra.Command) {
	cmd.Flags().Int("year", 0, "solar return year (default current year)")
	cmd.Flags().String("from", "", "first lunar return on or after this date (default today)")
	cmd.Flags().Int("count", 1, "number of lunar returns")
	cmd.Flags().String("start", "", "search window start for other bodies")
	cmd.Flags().String("end", "", "search window end for other bodies")
	cmd.Flags().Bool("json", false, "output JSON")
}

func runReturn(cmd *cobra.Command, args []string) error {
	body := "sun"
	if len(args) == 1 {
		body = args[0]
	}

	natal, err := loadNatal()
	if err != nil {
		return err
	}

	windows, err := returnWindows(cmd, natal.Snapshot.Time, returns.KindFor(body))
	if err != nil {
		return err
	}

	solver := returns.New(
		returns.WithLogger(rt.log.Named("returns")),
		returns.WithMetrics(rt.metrics),
	)

	exports := make([]report.ReturnExport, 0, len(windows))
	for _, w := range windows {
		req, err := returns.ForNatal(natal.Snapshot, body, w, rt.cfg.HouseSystem)
		if err != nil {
			return err
		}
		req = relocate(req, rt.cfg.Location)

		res, err := solver.FindReturn(cmd.Context(), req, rt.evaluator)
		if err != nil {
			return err
		}
		exports = append(exports, report.ExportReturn(req, res))
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return report.WriteJSON(out, exports)
	}

	st := report.StylesFor(out)
	for i, e := range exports {
		if i > 0 {
			fmt.Fprintln(out)
		}
		report.WriteReturn(out, e, st)
	}
	return nil
}

// relocate moves a return chart to the configured place, if any.
func relocate(req returns.Request, loc *config.LocationConfig) returns.Request {
	if loc != nil {
		req.Location = chart.Location{Latitude: loc.Latitude, Longitude: loc.Longitude}
	}
	return req
}

// returnWindows picks the search windows for the kind of return.
func returnWindows(cmd *cobra.Command, birth time.Time, kind returns.Kind) ([]returns.Window, error) {
	switch kind {
	case returns.KindSolar:
		year, _ := cmd.Flags().GetInt("year")
		if year == 0 {
			year = time.Now().UTC().Year()
		}
		return []returns.Window{returns.SolarReturnWindow(birth, year)}, nil

	case returns.KindLunar:
		from := time.Now().UTC()
		if s, _ := cmd.Flags().GetString("from"); s != "" {
			t, err := parseDate(s)
			if err != nil {
				return nil, err
			}
			from = t
		}
		count, _ := cmd.Flags().GetInt("count")
		if count < 1 {
			return nil, fmt.Errorf("--count must be at least 1")
		}
		return returns.LunarReturnWindows(birth, from, count), nil

	default:
		startFlag, _ := cmd.Flags().GetString("start")
		endFlag, _ := cmd.Flags().GetString("end")
		if startFlag == "" || endFlag == "" {
			return nil, fmt.Errorf("--start and --end are required for %s returns", kind)
		}
		start, err := parseDate(startFlag)
		if err != nil {
			return nil, err
		}
		end, err := parseDate(endFlag)
		if err != nil {
			return nil, err
		}
		return []returns.Window{{Start: start, End: end}}, nil
	}
}
