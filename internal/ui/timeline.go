package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-chartcore/internal/eclipse"
	"github.com/litescript/ls-chartcore/internal/state"
)

// Styles for the timeline
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Background(lipgloss.Color("235"))

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("60"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	statusStyles = map[eclipse.Status]lipgloss.Style{
		eclipse.StatusFuture:      lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		eclipse.StatusApproaching: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		eclipse.StatusActive:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		eclipse.StatusIntegrating: lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
		eclipse.StatusComplete:    lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
	}
)

// Strip glyphs by status; months without an eclipse show stripEmpty.
var statusGlyphs = map[eclipse.Status]string{
	eclipse.StatusFuture:      "○",
	eclipse.StatusApproaching: "◐",
	eclipse.StatusActive:      "●",
	eclipse.StatusIntegrating: "◑",
	eclipse.StatusComplete:    "◌",
}

const (
	stripEmpty  = "·"
	stripMonths = 12 // Months shown either side of the reference
	eventLines  = 3
)

// TimelineModel lists activations around the reference date.
type TimelineModel struct {
	width    int
	height   int
	cursor   int
	snapshot state.Snapshot
}

// NewTimelineModel creates a new timeline model.
func NewTimelineModel() TimelineModel {
	return TimelineModel{}
}

// SetSize updates the viewport size.
func (m TimelineModel) SetSize(width, height int) TimelineModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData updates the model with new data, keeping the cursor in range.
func (m TimelineModel) UpdateData(snapshot state.Snapshot) TimelineModel {
	m.snapshot = snapshot
	if m.cursor >= len(snapshot.Activations) {
		m.cursor = len(snapshot.Activations) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return m
}

// Update handles navigation keys.
func (m TimelineModel) Update(msg tea.KeyMsg) TimelineModel {
	n := len(m.snapshot.Activations)
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < n-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		if n > 0 {
			m.cursor = n - 1
		}
	}
	return m
}

// Selected returns the activation under the cursor.
func (m TimelineModel) Selected() (eclipse.Activation, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snapshot.Activations) {
		return eclipse.Activation{}, false
	}
	return m.snapshot.Activations[m.cursor], true
}

// View renders the strip, the activation table, the selection detail and
// recent events.
func (m TimelineModel) View() string {
	var b strings.Builder

	b.WriteString(m.renderStrip())
	b.WriteString("\n")
	b.WriteString(m.renderCounts())
	b.WriteString("\n\n")

	if len(m.snapshot.Activations) == 0 {
		b.WriteString(mutedStyle.Render("  No eclipses touch this chart"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(headerStyle.Render(fmt.Sprintf("  %-10s %-6s %-9s %8s %-12s %-8s", "Date", "Type", "Kind", "Degree", "Status", "Saros")))
	b.WriteString("\n")

	start, end := m.visibleRange()
	for i := start; i < end; i++ {
		b.WriteString(m.renderRow(i))
		b.WriteString("\n")
	}

	if a, ok := m.Selected(); ok {
		b.WriteString("\n")
		b.WriteString(renderDetail(a))
	}

	if events := m.snapshot.Events; len(events) > 0 {
		b.WriteString("\n")
		if len(events) > eventLines {
			events = events[len(events)-eventLines:]
		}
		for _, e := range events {
			b.WriteString(mutedStyle.Render("  " + formatEvent(e)))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// visibleRange returns the rows that fit, scrolled to keep the cursor shown.
func (m TimelineModel) visibleRange() (int, int) {
	n := len(m.snapshot.Activations)
	rows := m.height - 12
	if m.height == 0 || rows >= n {
		return 0, n
	}
	if rows < 1 {
		rows = 1
	}
	start := m.cursor - rows/2
	if start < 0 {
		start = 0
	}
	if start+rows > n {
		start = n - rows
	}
	return start, start + rows
}

func (m TimelineModel) renderRow(i int) string {
	a := m.snapshot.Activations[i]
	degree := "-"
	if a.Event.Longitude != nil {
		degree = fmt.Sprintf("%7.2f°", *a.Event.Longitude)
	}
	saros := "-"
	if a.Event.Saros > 0 {
		saros = fmt.Sprintf("%d", a.Event.Saros)
	}

	line := fmt.Sprintf("  %-10s %-6s %-9s %8s %-12s %-8s",
		a.Event.Date.Format("2006-01-02"),
		a.Event.Type,
		a.Event.Kind,
		degree,
		a.Status,
		saros,
	)
	if i == m.cursor {
		return selectedRowStyle.Render(line)
	}
	return rowStyle.Render(line)
}

// renderStrip draws one glyph per month around the reference date. When
// several eclipses share a month the most current status wins.
func (m TimelineModel) renderStrip() string {
	ref := m.snapshot.Reference
	if ref.IsZero() {
		return ""
	}

	first := monthStart(ref).AddDate(0, -stripMonths, 0)
	byMonth := make(map[time.Time]eclipse.Status)
	for _, a := range m.snapshot.Activations {
		key := monthStart(a.Event.Date)
		if prev, ok := byMonth[key]; !ok || statusRank(a.Status) > statusRank(prev) {
			byMonth[key] = a.Status
		}
	}

	var marker, strip strings.Builder
	marker.WriteString("  ")
	strip.WriteString("  ")
	for i := 0; i <= 2*stripMonths; i++ {
		month := first.AddDate(0, i, 0)
		if i == stripMonths {
			marker.WriteString("▼")
		} else {
			marker.WriteString(" ")
		}
		if s, ok := byMonth[month]; ok {
			strip.WriteString(statusStyles[s].Render(statusGlyphs[s]))
		} else {
			strip.WriteString(mutedStyle.Render(stripEmpty))
		}
	}

	label := mutedStyle.Render(fmt.Sprintf("  %s … %s",
		first.Format("2006-01"), first.AddDate(0, 2*stripMonths, 0).Format("2006-01")))
	return marker.String() + "\n" + strip.String() + "\n" + label
}

func (m TimelineModel) renderCounts() string {
	var parts []string
	for _, s := range eclipse.Statuses {
		n := m.snapshot.Counts[s.String()]
		parts = append(parts, statusStyles[s].Render(fmt.Sprintf("%s %s %d", statusGlyphs[s], s, n)))
	}
	return "  " + strings.Join(parts, "  ")
}

func renderDetail(a eclipse.Activation) string {
	planets := "-"
	if len(a.Event.AffectedPlanets) > 0 {
		planets = strings.Join(a.Event.AffectedPlanets, ", ")
	}
	group := a.SarosGroupID
	if len(group) > 8 {
		group = group[:8]
	}
	return fmt.Sprintf("  %s %s eclipse · touches %s · group %s\n",
		a.Event.Kind, a.Event.Type, planets, group)
}

func formatEvent(e state.Event) string {
	date := e.EclipseDate.Format("2006-01-02")
	switch e.Type {
	case state.EventStatusChanged:
		return fmt.Sprintf("%s %s: %s → %s", date, e.EclipseType, e.OldStatus, e.NewStatus)
	case state.EventActivated:
		return fmt.Sprintf("%s %s: now %s", date, e.EclipseType, e.NewStatus)
	case state.EventDeactivated:
		return fmt.Sprintf("%s %s: out of orb", date, e.EclipseType)
	default:
		return fmt.Sprintf("%s %s: %s", date, e.EclipseType, e.Type)
	}
}

// statusRank orders statuses by how current they are.
func statusRank(s eclipse.Status) int {
	switch s {
	case eclipse.StatusActive:
		return 4
	case eclipse.StatusApproaching:
		return 3
	case eclipse.StatusIntegrating:
		return 2
	case eclipse.StatusFuture:
		return 1
	default:
		return 0
	}
}

func monthStart(t time.Time) time.Time {
	y, mo, _ := t.UTC().Date()
	return time.Date(y, mo, 1, 0, 0, 0, 0, time.UTC)
}
