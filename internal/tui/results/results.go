package results

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/sqldesk/internal/app"
	"github.com/joacominatel/sqldesk/internal/tui/theme"
)

// SetEditorQueryMsg asks the app to put a generated query into the
// editor pane.
type SetEditorQueryMsg struct {
	Query string
}

// StatusNotifyMsg asks the app to show a message in the status bar.
type StatusNotifyMsg struct {
	Message string
}

// Model is the query results component. A result may carry several
// sets when the statement batch returned more than one; [ and ]
// switch between them.
type Model struct {
	result    *app.QueryResult
	err       error
	width     int
	height    int
	focused   bool
	loading   bool
	activeSet int
	cursorX   int
	cursorY   int
	scrollY   int
	colWidths []int

	statusMessage string
	lastQuery     string
}

// New creates a new results model.
func New() Model {
	return Model{}
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetFocused sets the focus state.
func (m *Model) SetFocused(f bool) {
	m.focused = f
}

// Focused returns whether the results pane has focus.
func (m Model) Focused() bool {
	return m.focused
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(l bool) {
	m.loading = l
}

// SetResult sets the query result to display. The originating query
// is kept for filter and delete generation.
func (m *Model) SetResult(r *app.QueryResult, query string) {
	m.result = r
	m.err = nil
	m.lastQuery = query
	m.activeSet = 0
	m.resetCursor()
	m.loading = false
	m.statusMessage = ""
	m.calculateColumnWidths()
}

// SetError sets an error to display.
func (m *Model) SetError(err error) {
	m.err = err
	m.result = nil
	m.resetCursor()
	m.loading = false
	m.statusMessage = ""
}

func (m *Model) resetCursor() {
	m.cursorX = 0
	m.cursorY = 0
	m.scrollY = 0
}

// set returns the active result set, or nil.
func (m Model) set() *app.ResultSet {
	if m.result == nil || m.activeSet < 0 || m.activeSet >= len(m.result.Sets) {
		return nil
	}
	return &m.result.Sets[m.activeSet]
}

func (m *Model) calculateColumnWidths() {
	set := m.set()
	if set == nil || len(set.Columns) == 0 {
		m.colWidths = nil
		return
	}

	m.colWidths = make([]int, len(set.Columns))

	// Display width, not byte length
	for i, col := range set.Columns {
		m.colWidths[i] = lipgloss.Width(col)
	}

	for _, row := range set.Rows {
		for i, cell := range row {
			w := lipgloss.Width(cell)
			if i < len(m.colWidths) && w > m.colWidths[i] {
				m.colWidths[i] = w
			}
		}
	}

	for i := range m.colWidths {
		if m.colWidths[i] < 1 {
			m.colWidths[i] = 1
		}
		if m.colWidths[i] > 40 {
			m.colWidths[i] = 40
		}
	}
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the results pane.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	set := m.set()

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursorY > 0 {
				m.cursorY--
				m.followCursor()
			}
		case "down", "j":
			if set != nil && m.cursorY < len(set.Rows)-1 {
				m.cursorY++
				m.followCursor()
			}
		case "left", "h":
			if m.cursorX > 0 {
				m.cursorX--
			}
		case "right", "l":
			if set != nil && m.cursorX < len(set.Columns)-1 {
				m.cursorX++
			}
		case "pgup":
			m.cursorY -= m.visibleRows()
			if m.cursorY < 0 {
				m.cursorY = 0
			}
			m.followCursor()
		case "pgdown":
			if set != nil {
				m.cursorY += m.visibleRows()
				if m.cursorY > len(set.Rows)-1 {
					m.cursorY = len(set.Rows) - 1
				}
				if m.cursorY < 0 {
					m.cursorY = 0
				}
				m.followCursor()
			}
		case "]":
			if m.result != nil && m.activeSet < len(m.result.Sets)-1 {
				m.activeSet++
				m.resetCursor()
				m.calculateColumnWidths()
			}
		case "[":
			if m.activeSet > 0 {
				m.activeSet--
				m.resetCursor()
				m.calculateColumnWidths()
			}
		case "y":
			m.doCopyCell()
		case "Y":
			m.doCopyRowText()
		case "J":
			m.doCopyRowJSON()
		case "C":
			m.doCopyRowCSV()
		case "f":
			return m, m.doFilterByValue()
		case "D":
			return m, m.doGenerateDelete()
		case "e":
			return m, m.exportCSVCmd()
		case "E":
			return m, m.exportJSONCmd()
		}
	}

	return m, nil
}

func (m Model) visibleRows() int {
	v := m.height - 5
	if v < 1 {
		v = 1
	}
	return v
}

func (m *Model) followCursor() {
	visible := m.visibleRows()
	if m.cursorY < m.scrollY {
		m.scrollY = m.cursorY
	}
	if m.cursorY >= m.scrollY+visible {
		m.scrollY = m.cursorY - visible + 1
	}
}

// View renders the results pane.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(theme.ColorPrimary).
		Bold(true).
		Padding(0, 1)

	if m.loading {
		return titleStyle.Render("Results") + "\n" + theme.StyleMuted.Render("  Executing query...")
	}

	if m.err != nil {
		return titleStyle.Render("Results") + "\n" +
			theme.StyleError.Render("  Error: "+m.err.Error())
	}

	set := m.set()
	if set == nil {
		return titleStyle.Render("Results") + "\n" +
			theme.StyleMuted.Render("  Execute a query to see results")
	}

	stats := fmt.Sprintf("%d row(s) | %s", set.RowCount, m.result.Duration.Round(time.Millisecond))
	if len(m.result.Sets) > 1 {
		stats = fmt.Sprintf("set %d/%d | %s", m.activeSet+1, len(m.result.Sets), stats)
	}
	if m.result.Truncated {
		stats += " | " + "truncated"
	}
	header := titleStyle.Render("Results") + "  " + theme.StyleMuted.Render(stats)
	if m.statusMessage != "" {
		header += "  " + theme.StyleSuccess.Render(m.statusMessage)
	}

	if len(set.Columns) == 0 {
		return header + "\n" + theme.StyleSuccess.Render("  Query executed successfully")
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")

	b.WriteString(m.renderRow(set.Columns, -1))
	b.WriteString("\n")
	b.WriteString(m.renderSeparator())
	b.WriteString("\n")

	visible := m.visibleRows()
	for i := m.scrollY; i < len(set.Rows) && i < m.scrollY+visible; i++ {
		b.WriteString(m.renderRow(set.Rows[i], i))
		if i < m.scrollY+visible-1 && i < len(set.Rows)-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

// renderRow renders one row; rowIdx -1 means the header row.
func (m Model) renderRow(cells []string, rowIdx int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		width := 10
		if i < len(m.colWidths) {
			width = m.colWidths[i]
		}
		if width < 1 {
			width = 1
		}

		display := cell
		displayWidth := lipgloss.Width(display)

		if displayWidth > width {
			runes := []rune(display)
			if width > 1 && len(runes) > 0 {
				trimmed := runes
				for lipgloss.Width(string(trimmed)) >= width && len(trimmed) > 0 {
					trimmed = trimmed[:len(trimmed)-1]
				}
				display = string(trimmed) + "…"
			} else {
				display = "…"
			}
			displayWidth = lipgloss.Width(display)
		}

		// Pad to column width; guard against negative
		pad := width - displayWidth
		if pad > 0 {
			display += strings.Repeat(" ", pad)
		}

		switch {
		case rowIdx == -1:
			parts[i] = lipgloss.NewStyle().
				Bold(true).
				Foreground(theme.ColorPrimary).
				Render(display)
		case m.focused && rowIdx == m.cursorY && i == m.cursorX:
			parts[i] = lipgloss.NewStyle().
				Foreground(theme.ColorHighlight).
				Bold(true).
				Render(display)
		default:
			parts[i] = display
		}
	}
	return "  " + strings.Join(parts, " │ ")
}

func (m Model) renderSeparator() string {
	parts := make([]string, len(m.colWidths))
	for i, w := range m.colWidths {
		if w < 1 {
			w = 1
		}
		parts[i] = strings.Repeat("─", w)
	}
	return "  " + lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(strings.Join(parts, "─┼─"))
}
