package editor

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/sqldesk/internal/complete"
	"github.com/joacominatel/sqldesk/internal/schema"
	"github.com/joacominatel/sqldesk/internal/tui/theme"
)

// ExecuteQueryMsg is sent when the user triggers query execution.
type ExecuteQueryMsg struct {
	Query string
}

// Completer produces suggestions for the buffer at a cursor position.
type Completer func(text string, cursor int) []complete.Suggestion

// menuHeight caps how many suggestions the popup shows at once.
const menuHeight = 8

// Keywords uppercased by the formatter.
var formatKeywordSet = map[string]bool{
	"select": true, "from": true, "where": true, "and": true, "or": true,
	"insert": true, "into": true, "update": true, "delete": true,
	"create": true, "drop": true, "alter": true, "table": true,
	"index": true, "join": true, "inner": true, "outer": true,
	"left": true, "right": true, "cross": true, "on": true,
	"not": true, "in": true, "is": true, "null": true, "like": true,
	"order": true, "by": true, "group": true, "having": true,
	"limit": true, "offset": true, "as": true, "distinct": true,
	"count": true, "sum": true, "avg": true, "min": true, "max": true,
	"between": true, "exists": true, "case": true, "when": true,
	"then": true, "else": true, "end": true, "values": true,
	"set": true, "begin": true, "commit": true, "rollback": true,
	"union": true, "all": true, "asc": true, "desc": true,
	"primary": true, "key": true, "foreign": true, "references": true,
	"cascade": true, "restrict": true, "default": true, "top": true,
	"true": true, "false": true, "ilike": true, "returning": true,
}

// Model is the SQL query editor component.
type Model struct {
	textarea textarea.Model
	complete Completer
	width    int
	height   int
	focused  bool

	// Completion state
	completing  bool
	suggestions []complete.Suggestion
	compIndex   int
	compPartial string
}

// New creates a new editor model. The completer may be nil until a
// connection is established.
func New(completer Completer) Model {
	ta := textarea.New()
	ta.Placeholder = "Enter SQL..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0 // unlimited
	ta.Prompt = "│ "
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle()
	ta.BlurredStyle.Base = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(theme.ColorMuted)
	ta.BlurredStyle.Placeholder = lipgloss.NewStyle().Foreground(theme.ColorMuted)
	ta.FocusedStyle.Prompt = lipgloss.NewStyle().Foreground(theme.ColorPrimary)
	ta.BlurredStyle.Prompt = lipgloss.NewStyle().Foreground(theme.ColorBorder)

	return Model{
		textarea: ta,
		complete: completer,
	}
}

// SetCompleter swaps the suggestion source, e.g. after reconnecting.
func (m *Model) SetCompleter(c Completer) {
	m.complete = c
	m.cancelCompletion()
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.textarea.SetWidth(w - 2)
	m.textarea.SetHeight(h - 2)
}

// SetFocused sets the focus state.
func (m *Model) SetFocused(f bool) {
	m.focused = f
	if f {
		m.textarea.Focus()
	} else {
		m.textarea.Blur()
		m.cancelCompletion()
	}
}

// Focused returns whether the editor has focus.
func (m Model) Focused() bool {
	return m.focused
}

// CompletionActive reports whether the suggestion popup is open.
func (m Model) CompletionActive() bool {
	return m.completing
}

// Value returns the current editor content.
func (m Model) Value() string {
	return m.textarea.Value()
}

// SetQuery replaces the editor content.
func (m *Model) SetQuery(query string) {
	m.textarea.SetValue(query)
	m.cancelCompletion()
}

// Clear empties the editor.
func (m *Model) Clear() {
	m.textarea.Reset()
	m.cancelCompletion()
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages for the editor.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()

		if m.completing {
			switch key {
			case "up":
				m.compIndex--
				if m.compIndex < 0 {
					m.compIndex = len(m.suggestions) - 1
				}
				return m, nil
			case "down", "tab":
				m.compIndex = (m.compIndex + 1) % len(m.suggestions)
				return m, nil
			case "enter":
				m.acceptCompletion()
				return m, nil
			case "esc":
				m.cancelCompletion()
				return m, nil
			default:
				m.cancelCompletion()
			}
		}

		switch key {
		case "ctrl+e", "f5":
			query := strings.TrimSpace(m.textarea.Value())
			if query != "" {
				m.cancelCompletion()
				return m, func() tea.Msg {
					return ExecuteQueryMsg{Query: query}
				}
			}
			return m, nil

		case "ctrl+k":
			m.Clear()
			return m, nil

		case "ctrl+l":
			m.formatKeywords()
			return m, nil

		case "ctrl+@", "ctrl+space", "tab":
			if m.openCompletion() {
				return m, nil
			}
			if key != "tab" {
				return m, nil
			}
			// no suggestions, let Tab fall through to the textarea
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// openCompletion queries the completer for the current buffer and
// opens the popup when there is something to offer.
func (m *Model) openCompletion() bool {
	if m.complete == nil {
		return false
	}

	val := m.textarea.Value()
	suggestions := m.complete(val, len(val))
	if len(suggestions) == 0 {
		return false
	}

	m.completing = true
	m.suggestions = suggestions
	m.compIndex = 0
	m.compPartial = lastSegment(val)
	return true
}

// acceptCompletion replaces the trailing partial segment with the
// selected suggestion.
func (m *Model) acceptCompletion() {
	if m.compIndex < 0 || m.compIndex >= len(m.suggestions) {
		m.cancelCompletion()
		return
	}

	val := m.textarea.Value()
	base := strings.TrimSuffix(val, lastSegment(val))
	m.textarea.SetValue(base + m.suggestions[m.compIndex].Text)
	m.textarea.CursorEnd()
	m.cancelCompletion()
}

func (m *Model) cancelCompletion() {
	m.completing = false
	m.suggestions = nil
	m.compIndex = 0
	m.compPartial = ""
}

// formatKeywords uppercases SQL keywords outside string literals.
func (m *Model) formatKeywords() {
	val := m.textarea.Value()
	if val == "" {
		return
	}

	var result strings.Builder
	word := strings.Builder{}
	inString := false
	quote := rune(0)

	for _, ch := range val {
		if (ch == '\'' || ch == '"') && !inString {
			inString = true
			quote = ch
			flushWord(&word, &result)
			result.WriteRune(ch)
			continue
		}
		if inString && ch == quote {
			inString = false
			result.WriteRune(ch)
			continue
		}
		if inString {
			result.WriteRune(ch)
			continue
		}

		if !unicode.IsLetter(ch) && ch != '_' {
			flushWord(&word, &result)
			result.WriteRune(ch)
		} else {
			word.WriteRune(ch)
		}
	}
	flushWord(&word, &result)

	m.textarea.SetValue(result.String())
}

func flushWord(word *strings.Builder, result *strings.Builder) {
	if word.Len() == 0 {
		return
	}
	w := word.String()
	if formatKeywordSet[strings.ToLower(w)] {
		result.WriteString(strings.ToUpper(w))
	} else {
		result.WriteString(w)
	}
	word.Reset()
}

// lastSegment returns the trailing identifier segment, stopping at a
// dot so qualified references only replace their final part.
func lastSegment(s string) string {
	i := len(s) - 1
	for i >= 0 && isIdentChar(rune(s[i])) {
		i--
	}
	return s[i+1:]
}

func isIdentChar(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') || c == '_'
}

func kindLabel(k schema.Kind) string {
	switch k {
	case schema.KindKeyword:
		return "kw"
	case schema.KindDatabase:
		return "db"
	case schema.KindSchema:
		return "sch"
	case schema.KindTable:
		return "tbl"
	case schema.KindView:
		return "view"
	case schema.KindColumn:
		return "col"
	case schema.KindRoutine:
		return "fn"
	default:
		return "?"
	}
}

// View renders the editor with the completion popup below it when
// active.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(theme.ColorPrimary).
		Bold(true).
		Padding(0, 1)

	title := titleStyle.Render("Query Editor")

	view := title + "\n" + m.textarea.View()
	if !m.completing {
		return view
	}

	// Window the visible slice around the selection.
	start := 0
	if m.compIndex >= menuHeight {
		start = m.compIndex - menuHeight + 1
	}
	end := start + menuHeight
	if end > len(m.suggestions) {
		end = len(m.suggestions)
	}

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		s := m.suggestions[i]
		label := s.Text + " " + theme.StyleMuted.Render(kindLabel(s.Kind))
		if i == m.compIndex {
			label = lipgloss.NewStyle().
				Foreground(theme.ColorHighlight).
				Bold(true).
				Render("▸ " + s.Text + " " + kindLabel(s.Kind))
		} else {
			label = "  " + label
		}
		lines = append(lines, label)
	}

	menu := theme.StyleCompletionMenu.Render(strings.Join(lines, "\n"))
	return view + "\n" + menu
}
