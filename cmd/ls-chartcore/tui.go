package main

import (
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/litescript/ls-chartcore/internal/ui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse eclipse activations interactively",
	Long: `Open the eclipse timeline. Step the reference date by month or year to
watch statuses change; edits to the chart or catalog file are picked up
automatically.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().String("at", "", "initial reference date (default today)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("ls-chartcore tui requires a TTY (terminal)")
	}

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

	// Log lines would tear the alternate screen.
	rt.log.SetOutput(io.Discard)

	model := ui.New(mgr, ui.WithReload(func() error {
		return mgr.Reload(rt.cfg.Natal, rt.cfg.Catalog)
	}))
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))

	go func() {
		_ = watchSession(cmd.Context(), mgr, func(err error) {
			if err != nil {
				p.Send(ui.ErrorMsg{Error: err})
				return
			}
			p.Send(ui.StateUpdateMsg{Snapshot: mgr.Snapshot()})
		})
	}()

	if _, err := p.Run(); err != nil && cmd.Context().Err() == nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
