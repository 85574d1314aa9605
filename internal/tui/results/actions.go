package results

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

// cellAt returns the value of a cell, or "" when out of range.
func (m Model) cellAt(row, col int) string {
	set := m.set()
	if set == nil || row < 0 || row >= len(set.Rows) {
		return ""
	}
	r := set.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

func (m Model) cursorCell() string {
	return m.cellAt(m.cursorY, m.cursorX)
}

func (m Model) cursorColumn() string {
	set := m.set()
	if set == nil || m.cursorX < 0 || m.cursorX >= len(set.Columns) {
		return ""
	}
	return set.Columns[m.cursorX]
}

func (m Model) cursorRow() ([]string, []string, bool) {
	set := m.set()
	if set == nil || m.cursorY < 0 || m.cursorY >= len(set.Rows) {
		return nil, nil, false
	}
	return set.Columns, set.Rows[m.cursorY], true
}

// copyToClipboard writes payload to the clipboard and records the
// outcome in the status line.
func (m *Model) copyToClipboard(payload, okMessage string) {
	if err := clipboard.WriteAll(payload); err != nil {
		m.statusMessage = "Copy failed: " + err.Error()
		return
	}
	m.statusMessage = okMessage
}

func (m *Model) doCopyCell() {
	val := m.cursorCell()
	if val == "" {
		m.statusMessage = "Nothing to copy"
		return
	}
	m.copyToClipboard(val, "Copied: "+truncateStatus(val, 40))
}

func (m *Model) doCopyRowJSON() {
	cols, row, ok := m.cursorRow()
	if !ok {
		m.statusMessage = "No row to copy"
		return
	}
	m.copyToClipboard(rowAsJSON(cols, row), "Copied row as JSON")
}

func (m *Model) doCopyRowCSV() {
	cols, row, ok := m.cursorRow()
	if !ok {
		m.statusMessage = "No row to copy"
		return
	}
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(cols)
	_ = w.Write(row)
	w.Flush()
	m.copyToClipboard(b.String(), "Copied row as CSV")
}

func (m *Model) doCopyRowText() {
	_, row, ok := m.cursorRow()
	if !ok {
		m.statusMessage = "No row to copy"
		return
	}
	m.copyToClipboard(strings.Join(row, "\t"), "Copied row as text")
}

// doFilterByValue builds a SELECT filtered on the cursor cell and
// sends it to the editor.
func (m *Model) doFilterByValue() tea.Cmd {
	col := m.cursorColumn()
	table := tableFromQuery(m.lastQuery)
	if col == "" || table == "" {
		m.statusMessage = "Cannot filter: no cell selected"
		return nil
	}
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s", table, condition(col, m.cursorCell()))
	return func() tea.Msg {
		return SetEditorQueryMsg{Query: query}
	}
}

// doGenerateDelete builds a DELETE matching every column of the cursor
// row and sends it to the editor for review, never auto-executing.
func (m *Model) doGenerateDelete() tea.Cmd {
	cols, row, ok := m.cursorRow()
	if !ok {
		return nil
	}
	conditions := make([]string, 0, len(cols))
	for i, col := range cols {
		if i >= len(row) {
			break
		}
		conditions = append(conditions, condition(col, row[i]))
	}
	query := fmt.Sprintf("-- review before executing!\nDELETE FROM %s WHERE %s",
		tableFromQuery(m.lastQuery), strings.Join(conditions, " AND "))
	return func() tea.Msg {
		return SetEditorQueryMsg{Query: query}
	}
}

// condition renders one WHERE term for a displayed cell value.
func condition(col, val string) string {
	if val == "NULL" {
		return col + " IS NULL"
	}
	return fmt.Sprintf("%s = '%s'", col, strings.ReplaceAll(val, "'", "''"))
}

func (m Model) exportJSONCmd() tea.Cmd {
	set := m.set()
	if set == nil {
		return nil
	}
	return func() tea.Msg {
		var b strings.Builder
		b.WriteString("[\n")
		for ri, row := range set.Rows {
			if ri > 0 {
				b.WriteString(",\n")
			}
			b.WriteString("  ")
			b.WriteString(rowAsJSON(set.Columns, row))
		}
		b.WriteString("\n]")

		name := exportName("json")
		if err := os.WriteFile(name, []byte(b.String()), 0o644); err != nil {
			return StatusNotifyMsg{Message: "Export failed: " + err.Error()}
		}
		return StatusNotifyMsg{Message: fmt.Sprintf("Exported %d rows to %s", len(set.Rows), name)}
	}
}

func (m Model) exportCSVCmd() tea.Cmd {
	set := m.set()
	if set == nil {
		return nil
	}
	return func() tea.Msg {
		name := exportName("csv")
		f, err := os.Create(name)
		if err != nil {
			return StatusNotifyMsg{Message: "Export failed: " + err.Error()}
		}
		defer f.Close()

		w := csv.NewWriter(f)
		_ = w.Write(set.Columns)
		for _, row := range set.Rows {
			_ = w.Write(row)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return StatusNotifyMsg{Message: "Export failed: " + err.Error()}
		}
		return StatusNotifyMsg{Message: fmt.Sprintf("Exported %d rows to %s", len(set.Rows), name)}
	}
}

func exportName(ext string) string {
	return fmt.Sprintf("sqldesk_export_%s.%s", time.Now().Format("20060102_150405"), ext)
}

// tableFromQuery pulls the table name out of the last executed query
// so filter and delete generation can target it. Best effort: complex
// queries fall back to a placeholder the user edits.
func tableFromQuery(query string) string {
	tokens := strings.Fields(query)
	for i, tok := range tokens {
		switch strings.ToUpper(tok) {
		case "FROM", "INTO", "UPDATE":
			if i+1 < len(tokens) {
				if name := strings.TrimRight(tokens[i+1], ";,()"); name != "" {
					return name
				}
			}
		}
	}
	return "<table>"
}

// rowAsJSON renders one row as a JSON object, preserving column order
// and mapping displayed NULLs to JSON null.
func rowAsJSON(columns, row []string) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		key, _ := json.Marshal(col)
		b.Write(key)
		b.WriteString(": ")
		switch {
		case i >= len(row), row[i] == "NULL":
			b.WriteString("null")
		default:
			val, _ := json.Marshal(row[i])
			b.Write(val)
		}
	}
	b.WriteByte('}')
	return b.String()
}

func truncateStatus(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
