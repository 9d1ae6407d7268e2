// Package ui provides the eclipse timeline terminal interface using Bubble Tea.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-chartcore/internal/state"
	"github.com/litescript/ls-chartcore/internal/version"
)

// Msg types for Bubble Tea
type (
	// TickMsg triggers periodic snapshot refreshes.
	TickMsg time.Time

	// StateUpdateMsg signals the session state changed outside the UI,
	// for example after a watched file was reloaded.
	StateUpdateMsg struct {
		Snapshot state.Snapshot
	}

	// ErrorMsg signals a background error.
	ErrorMsg struct {
		Error error
	}
)

// Model is the root Bubble Tea model.
type Model struct {
	state  *state.Manager
	reload func() error

	width     int
	height    int
	ready     bool
	statusMsg string

	timeline TimelineModel
	snapshot state.Snapshot
}

// Option configures the model.
type Option func(*Model)

// WithReload enables the reload key.
func WithReload(fn func() error) Option {
	return func(m *Model) { m.reload = fn }
}

// New creates a new root UI model.
func New(stateMgr *state.Manager, opts ...Option) Model {
	m := Model{
		state:    stateMgr,
		timeline: NewTimelineModel(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "left", "h":
			m.step(0, -1)
		case "right", "l":
			m.step(0, 1)
		case "pgup", "[":
			m.step(-1, 0)
		case "pgdown", "]":
			m.step(1, 0)
		case "t":
			m.apply(m.state.SetReference(time.Now()))

		case "r":
			if m.reload == nil {
				m.statusMsg = "Reload unavailable"
				break
			}
			if err := m.reload(); err != nil {
				m.statusMsg = fmt.Sprintf("Reload failed: %v", err)
			} else {
				m.statusMsg = "Reloaded"
			}
			m.refresh()

		default:
			m.timeline = m.timeline.Update(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		// Header ~4 lines, footer ~2
		m.timeline = m.timeline.SetSize(msg.Width, msg.Height-6)

	case TickMsg:
		cmds = append(cmds, tickCmd())
		m.refresh()

	case StateUpdateMsg:
		m.snapshot = msg.Snapshot
		m.timeline = m.timeline.UpdateData(m.snapshot)

	case ErrorMsg:
		m.statusMsg = fmt.Sprintf("Error: %v", msg.Error)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) step(years, months int) {
	m.apply(m.state.StepReference(years, months))
}

func (m *Model) apply(err error) {
	if err != nil {
		m.statusMsg = fmt.Sprintf("Error: %v", err)
	} else {
		m.statusMsg = ""
	}
	m.refresh()
}

func (m *Model) refresh() {
	m.snapshot = m.state.Snapshot()
	m.timeline = m.timeline.UpdateData(m.snapshot)
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.timeline.View())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("ls-chartcore") + mutedStyle.Render(" · eclipse timeline · v"+version.Version)

	chartName := "no chart"
	if m.snapshot.Natal != nil && m.snapshot.Natal.Name != "" {
		chartName = m.snapshot.Natal.Name
	}
	ref := headerStyle.Render(" " + m.snapshot.Reference.Format("2006-01-02") + " ")
	info := mutedStyle.Render(fmt.Sprintf("  %s · orb %.1f°", chartName, m.snapshot.Orb))

	return lipgloss.JoinVertical(lipgloss.Left, title, ref+info)
}

func (m Model) renderFooter() string {
	var status string
	switch {
	case m.snapshot.LastError != nil:
		status = errorStyle.Render("ERROR: " + m.snapshot.LastError.Error())
	case m.statusMsg != "":
		status = mutedStyle.Render(m.statusMsg)
	default:
		status = mutedStyle.Render(fmt.Sprintf("%d activations", len(m.snapshot.Activations)))
	}

	help := mutedStyle.Render("←/→: month | [/]: year | t: today | ↑↓: select | r: reload | q: quit")
	return "  " + status + "  " + mutedStyle.Render("|") + "  " + help
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// SendStateUpdate creates a command that sends a state update message.
func SendStateUpdate(snapshot state.Snapshot) tea.Cmd {
	return func() tea.Msg {
		return StateUpdateMsg{Snapshot: snapshot}
	}
}
