package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/litescript/ls-chartcore/internal/eclipse"
)

const ruleWidth = 78

// Styles used by the table writers.
type Styles struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Muted  lipgloss.Style
	Error  lipgloss.Style
	Status map[string]lipgloss.Style
}

// PlainStyles renders text unchanged.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Title:  plain,
		Header: plain,
		Muted:  plain,
		Error:  plain,
		Status: map[string]lipgloss.Style{},
	}
}

// ColorStyles is the terminal palette.
func ColorStyles() Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("60")),
		Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Status: map[string]lipgloss.Style{
			eclipse.StatusFuture.String():      lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
			eclipse.StatusApproaching.String(): lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
			eclipse.StatusActive.String():      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
			eclipse.StatusIntegrating.String(): lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
			eclipse.StatusComplete.String():    lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		},
	}
}

// StylesFor picks colour styles when w is a terminal.
func StylesFor(w io.Writer) Styles {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return ColorStyles()
	}
	return PlainStyles()
}

func (s Styles) status(name string) lipgloss.Style {
	if st, ok := s.Status[name]; ok {
		return st
	}
	return s.Muted
}

// WriteReturn writes a solved return as a short card.
func WriteReturn(w io.Writer, r ReturnExport, st Styles) {
	fmt.Fprintln(w, st.Title.Render(fmt.Sprintf("%s return (%s) to %.2f°", r.Body, r.Kind, r.Target)))
	fmt.Fprintln(w, st.Muted.Render(strings.Repeat("─", ruleWidth)))

	if r.Time.IsZero() {
		fmt.Fprintln(w, st.Error.Render("No result"))
		return
	}

	state := "converged"
	if !r.Converged {
		state = st.Error.Render("not converged")
	}
	fmt.Fprintf(w, "%-12s %s\n", "Time", r.Time.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "%-12s %s\n", "Search", state)
	fmt.Fprintf(w, "%-12s %d\n", "Iterations", r.Iterations)
	fmt.Fprintf(w, "%-12s %+.4f°\n", "Residual", r.Residual)

	if r.Chart == nil {
		return
	}
	fmt.Fprintf(w, "%-12s %.2f°\n", "Ascendant", r.Chart.Ascendant)
	fmt.Fprintf(w, "%-12s %.2f°\n", "Midheaven", r.Chart.Midheaven)
	fmt.Fprintln(w)
	fmt.Fprintln(w, st.Header.Render(fmt.Sprintf("%-10s %10s %10s %10s", "Body", "Longitude", "Latitude", "Speed")))
	for _, name := range r.Chart.PlanetNames() {
		p := r.Chart.Planets[name]
		fmt.Fprintf(w, "%-10s %9.2f° %9.2f° %9.3f°\n", truncateStr(name, 10), p.Longitude, p.Latitude, p.Velocity)
	}
}

// WriteLines writes a per-body summary of generated lines.
func WriteLines(w io.Writer, l LinesExport, st Styles) {
	fmt.Fprintln(w, st.Title.Render("Astrocartography @ "+l.Instant.Format(time.RFC3339)))
	fmt.Fprintln(w, st.Muted.Render(strings.Repeat("─", ruleWidth)))

	if len(l.Bodies) == 0 {
		fmt.Fprintln(w, "No bodies")
		return
	}

	fmt.Fprintln(w, st.Header.Render(fmt.Sprintf("%-10s %6s %6s %6s %6s", "Body", "AC", "DC", "MC", "IC")))
	failed := 0
	for _, b := range l.Bodies {
		if b.Error != "" {
			failed++
			fmt.Fprintf(w, "%-10s %s\n", truncateStr(b.Body, 10), st.Error.Render(b.Error))
			continue
		}
		counts := make([]int, 4)
		for _, line := range b.Lines {
			if int(line.Type) < len(counts) {
				counts[line.Type] = len(line.Points)
			}
		}
		fmt.Fprintf(w, "%-10s %6d %6d %6d %6d\n", truncateStr(b.Body, 10), counts[0], counts[1], counts[2], counts[3])
	}

	fmt.Fprintf(w, "\nTotal: %d bodies, %d failed\n", len(l.Bodies), failed)
}

// WriteEclipses writes activations grouped by Saros series.
func WriteEclipses(w io.Writer, e EclipsesExport, st Styles) {
	fmt.Fprintln(w, st.Title.Render(fmt.Sprintf("Eclipses @ %s (orb %.1f°)", e.Reference.Format("2006-01-02"), e.Orb)))
	fmt.Fprintln(w, st.Muted.Render(strings.Repeat("─", ruleWidth)))

	if len(e.Groups) == 0 {
		fmt.Fprintln(w, "No eclipses touch this chart")
		return
	}

	fmt.Fprintln(w, st.Header.Render(fmt.Sprintf("%-10s %-6s %-9s %8s %-12s %s", "Date", "Type", "Kind", "Degree", "Status", "Planets")))
	total := 0
	for i, g := range e.Groups {
		if i > 0 {
			fmt.Fprintln(w, st.Muted.Render(strings.Repeat("·", ruleWidth)))
		}
		for _, a := range g.Members {
			total++
			degree := "-"
			if a.Event.Longitude != nil {
				degree = fmt.Sprintf("%7.2f°", *a.Event.Longitude)
			}
			status := a.Status.String()
			fmt.Fprintf(w, "%-10s %-6s %-9s %8s %s %s\n",
				a.Event.Date.Format("2006-01-02"),
				a.Event.Type,
				a.Event.Kind,
				degree,
				st.status(status).Render(fmt.Sprintf("%-12s", status)),
				strings.Join(a.Event.AffectedPlanets, ", "),
			)
		}
	}

	var parts []string
	for _, s := range eclipse.Statuses {
		if n := e.Counts[s.String()]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, s))
		}
	}
	fmt.Fprintf(w, "\nTotal: %d eclipses in %d Saros groups (%s)\n", total, len(e.Groups), strings.Join(parts, ", "))
}

func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-2] + ".."
}
