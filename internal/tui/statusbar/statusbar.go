// Package statusbar renders the single-line footer: connection state
// on the left, a transient message or key hints on the right.
package statusbar

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/sqldesk/internal/tui/theme"
)

const keyHints = "Ctrl+E: Execute │ Ctrl+R: Refresh schema │ Tab: Switch pane │ ?: Help │ q: Quit"

// Model is the status bar component.
type Model struct {
	width      int
	connected  bool
	dialect    string
	database   string
	activePane string
	message    string
}

// New creates a new status bar model.
func New() Model {
	return Model{activePane: "explorer"}
}

// SetWidth updates the component width.
func (m *Model) SetWidth(w int) {
	m.width = w
}

// SetConnected updates the connection indicator with the session's
// dialect and database.
func (m *Model) SetConnected(connected bool, dialect, database string) {
	m.connected = connected
	m.dialect = dialect
	m.database = database
}

// SetActivePane updates the displayed active pane name.
func (m *Model) SetActivePane(pane string) {
	m.activePane = pane
}

// SetMessage sets a temporary status message shown instead of the key
// hints.
func (m *Model) SetMessage(msg string) {
	m.message = msg
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages (status bar has no interactive behavior).
func (m Model) Update(_ tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the status bar.
func (m Model) View() string {
	left := m.indicator()
	right := keyHints
	if m.message != "" {
		right = m.message
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}
	return theme.StyleStatusBar.Width(m.width).
		Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) indicator() string {
	if !m.connected {
		return lipgloss.NewStyle().Foreground(theme.ColorError).Render("●") + " disconnected"
	}
	segments := []string{
		lipgloss.NewStyle().Foreground(theme.ColorSuccess).Render("●"),
		theme.StyleDialect.Render(m.dialect),
	}
	if m.database != "" {
		segments = append(segments, m.database)
	}
	return strings.Join(segments, " ")
}
