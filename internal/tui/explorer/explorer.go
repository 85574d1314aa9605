// Package explorer renders the schema tree pane: database, schemas,
// tables and lazily attached columns.
package explorer

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/sqldesk/internal/app"
	"github.com/joacominatel/sqldesk/internal/schema"
	"github.com/joacominatel/sqldesk/internal/tui/theme"
)

// RequestColumnsMsg asks the app to attach columns to a table node.
type RequestColumnsMsg struct {
	Schema string
	Table  string
}

// QuickQueryMsg asks the app to run a preview query for a table.
type QuickQueryMsg struct {
	Schema string
	Table  string
}

type nodeKind int

const (
	kindDatabase nodeKind = iota
	kindSchema
	kindTable
	kindColumn
)

// node is one entry in the schema tree. Column nodes carry the data
// type; table nodes remember their schema so per-table actions can
// qualify the name.
type node struct {
	kind     nodeKind
	label    string
	typeName string
	schema   string
	table    string
	children []*node
	expanded bool
	loaded   bool
}

// row pairs a visible node with its indentation depth.
type row struct {
	n     *node
	depth int
}

// Model is the explorer (schema tree) component.
type Model struct {
	root    *node
	rows    []row
	cursor  int
	width   int
	height  int
	focused bool
	loading bool
}

// New creates a new explorer model.
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

// Focused returns whether the explorer has focus.
func (m Model) Focused() bool {
	return m.focused
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(l bool) {
	m.loading = l
}

// SetTree populates the explorer from a loaded schema tree.
func (m *Model) SetTree(tree *app.SchemaTree) {
	root := &node{kind: kindDatabase, label: tree.Database, expanded: true, loaded: true}
	for _, s := range tree.Schemas {
		sn := &node{kind: kindSchema, label: s.Name, loaded: true}
		for _, t := range s.Tables {
			sn.children = append(sn.children, &node{
				kind: kindTable, label: t, schema: s.Name,
			})
		}
		root.children = append(root.children, sn)
	}
	m.root = root
	m.loading = false
	m.reflow()
}

// SetColumns attaches column nodes to a table node.
func (m *Model) SetColumns(schemaName, table string, columns []schema.Column) {
	t := m.findTable(schemaName, table)
	if t == nil {
		return
	}
	t.children = t.children[:0]
	for _, col := range columns {
		t.children = append(t.children, &node{
			kind: kindColumn, label: col.Name, typeName: col.TypeName,
			schema: schemaName, table: table,
		})
	}
	t.loaded = true
	m.reflow()
}

func (m *Model) findTable(schemaName, table string) *node {
	if m.root == nil {
		return nil
	}
	for _, s := range m.root.children {
		if s.label != schemaName {
			continue
		}
		for _, t := range s.children {
			if t.label == table {
				return t
			}
		}
	}
	return nil
}

// SelectedTable resolves the table under the cursor, following column
// nodes up to their table.
func (m Model) SelectedTable() (schemaName, table string, ok bool) {
	n := m.current()
	if n == nil {
		return "", "", false
	}
	switch n.kind {
	case kindTable:
		return n.schema, n.label, true
	case kindColumn:
		return n.schema, n.table, true
	}
	return "", "", false
}

func (m Model) current() *node {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].n
}

// reflow rebuilds the visible row list with an explicit stack walk.
func (m *Model) reflow() {
	m.rows = m.rows[:0]
	if m.root == nil {
		return
	}
	type frame struct {
		n     *node
		depth int
	}
	stack := []frame{{m.root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		m.rows = append(m.rows, row{n: f.n, depth: f.depth})
		if !f.n.expanded {
			continue
		}
		for i := len(f.n.children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.n.children[i], f.depth + 1})
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the explorer.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "enter", "right", "l":
		return m, m.toggle()
	case "left", "h":
		if n := m.current(); n != nil && n.expanded {
			n.expanded = false
			m.reflow()
		}
	case "s":
		if schemaName, table, ok := m.SelectedTable(); ok {
			return m, func() tea.Msg {
				return QuickQueryMsg{Schema: schemaName, Table: table}
			}
		}
	}
	return m, nil
}

// toggle expands or collapses the current node. Expanding a table
// whose columns were never fetched asks the app for them.
func (m *Model) toggle() tea.Cmd {
	n := m.current()
	if n == nil || n.kind == kindColumn {
		return nil
	}
	n.expanded = !n.expanded
	m.reflow()

	if n.expanded && n.kind == kindTable && !n.loaded {
		schemaName, table := n.schema, n.label
		return func() tea.Msg {
			return RequestColumnsMsg{Schema: schemaName, Table: table}
		}
	}
	return nil
}

// View renders the explorer.
func (m Model) View() string {
	title := lipgloss.NewStyle().
		Foreground(theme.ColorPrimary).
		Bold(true).
		Padding(0, 1).
		Render("Schema Explorer")

	switch {
	case m.loading:
		return title + "\n" + theme.StyleMuted.Render("  Loading...")
	case m.root == nil:
		return title + "\n" + theme.StyleMuted.Render("  No connection")
	}

	window := m.height - 2
	if window < 1 {
		window = 1
	}
	top := 0
	if m.cursor >= window {
		top = m.cursor - window + 1
	}

	lines := make([]string, 0, window+1)
	lines = append(lines, title)
	for i := top; i < len(m.rows) && i < top+window; i++ {
		lines = append(lines, m.renderRow(m.rows[i], i == m.cursor))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(r row, selected bool) string {
	marker := "  "
	if r.n.kind != kindColumn {
		marker = "▶ "
		if r.n.expanded {
			marker = "▼ "
		}
	}

	line := strings.Repeat("  ", r.depth) + marker + r.n.label
	if m.width > 0 && len(line) > m.width-2 {
		line = line[:m.width-4] + ".."
	} else if r.n.kind == kindColumn && r.n.typeName != "" {
		line += " " + lipgloss.NewStyle().
			Foreground(theme.ColorMuted).
			Render(strings.ToLower(r.n.typeName))
	}

	if selected {
		return lipgloss.NewStyle().
			Foreground(theme.ColorHighlight).
			Bold(true).
			Render(line)
	}
	return line
}
