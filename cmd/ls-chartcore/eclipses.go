package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/litescript/ls-chartcore/internal/report"
	"github.com/litescript/ls-chartcore/internal/state"
	"github.com/litescript/ls-chartcore/internal/watch"
)

var eclipsesCmd = &cobra.Command{
	Use:   "eclipses",
	Short: "Classify eclipses that touch the natal chart",
	Long: `List every catalog eclipse within orb of a natal planet, with its
status relative to the reference date, grouped by Saros series.`,
	Args: cobra.NoArgs,
	RunE: runEclipses,
}

func init() {
	eclipsesCmd.Flags().String("at", "", "reference date (default today)")
	eclipsesCmd.Flags().Bool("json", false, "output JSON")
	eclipsesCmd.Flags().Bool("watch", false, "reclassify when the chart or catalog file changes")
	rootCmd.AddCommand(eclipsesCmd)
}

func runEclipses(cmd *cobra.Command, _ []string) error {
	ref := time.Now().UTC()
	if at, _ := cmd.Flags().GetString("at"); at != "" {
		t, err := parseDate(at)
		if err != nil {
			return err
		}
		ref = t
	}

	mgr, err := newSession(ref)
	if err != nil {
		return err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	output := func() error {
		snap := mgr.Snapshot()
		export := report.ExportEclipses(snap.Reference, snap.Orb, snap.Groups)
		if asJSON {
			return report.WriteJSON(os.Stdout, export)
		}
		report.WriteEclipses(os.Stdout, export, report.StylesFor(os.Stdout))
		return nil
	}

	if err := output(); err != nil {
		return err
	}

	if watchMode, _ := cmd.Flags().GetBool("watch"); !watchMode {
		return nil
	}
	return watchSession(cmd.Context(), mgr, func(err error) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		fmt.Println()
		if err := output(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	})
}

// newSession builds a state manager from the configured chart and catalog.
func newSession(ref time.Time) (*state.Manager, error) {
	cfg := state.DefaultConfig()
	cfg.Orb = rt.cfg.Orb
	cfg.Metrics = rt.metrics
	mgr := state.NewManager(cfg)

	catalog, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	natal, err := loadNatal()
	if err != nil {
		return nil, err
	}

	if err := mgr.SetCatalog(catalog); err != nil {
		return nil, err
	}
	if err := mgr.SetReference(ref); err != nil {
		return nil, err
	}
	if err := mgr.SetNatal(natal); err != nil {
		return nil, err
	}
	return mgr, nil
}

// watchedFiles returns the files whose edits trigger a reload.
func watchedFiles() []string {
	files := []string{rt.cfg.Natal}
	if rt.cfg.Catalog != "" {
		files = append(files, rt.cfg.Catalog)
	}
	return files
}

// watchSession reloads mgr on every settled file change and reports the
// outcome to onReload until ctx is done.
func watchSession(ctx context.Context, mgr *state.Manager, onReload func(error)) error {
	w, err := watch.New(watchedFiles()...)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	log := rt.log.Named("watch")
	log.Info("watching %v", watchedFiles())

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-w.Changes:
			if !ok {
				return nil
			}
			if change.Removed {
				log.Warn("%s removed; keeping previous results", change.Path)
				continue
			}
			log.Debug("%s changed, reloading", change.Path)
			onReload(mgr.Reload(rt.cfg.Natal, rt.cfg.Catalog))
		}
	}
}
