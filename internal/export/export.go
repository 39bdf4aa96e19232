// internal/export/export.go
// Package export renders result tables for the terminal and writes them to
// JSON and Markdown files.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/mwiater/canonry/internal/resolve"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	cellStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// NewRunID returns a fresh identifier used to correlate log lines and export
// files belonging to one run.
func NewRunID() string {
	return uuid.NewString()
}

// Render returns a styled two-column table for terminal display.
func Render(table resolve.Table) string {
	widths := columnWidths(table)
	var b strings.Builder

	b.WriteString(renderRow(headerStyle, table.Columns[0], table.Columns[1], widths))
	b.WriteString("\n")
	b.WriteString(borderStyle.Render(strings.Repeat("─", widths[0]+widths[1]+5)))
	b.WriteString("\n")
	for _, row := range table.Rows {
		b.WriteString(renderRow(cellStyle, row.Original, row.Derived, widths))
		b.WriteString("\n")
	}
	return b.String()
}

func renderRow(style lipgloss.Style, left, right string, widths [2]int) string {
	return fmt.Sprintf("%s  %s",
		style.Render(pad(left, widths[0])),
		style.Render(pad(right, widths[1])))
}

func pad(s string, width int) string {
	gap := width - utf8.RuneCountInString(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}

func columnWidths(table resolve.Table) [2]int {
	widths := [2]int{
		utf8.RuneCountInString(table.Columns[0]),
		utf8.RuneCountInString(table.Columns[1]),
	}
	for _, row := range table.Rows {
		if n := utf8.RuneCountInString(row.Original); n > widths[0] {
			widths[0] = n
		}
		if n := utf8.RuneCountInString(row.Derived); n > widths[1] {
			widths[1] = n
		}
	}
	return widths
}

// Markdown returns the table as a GitHub-style markdown table.
func Markdown(table resolve.Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(table.Columns[0]), escapeCell(table.Columns[1]))
	b.WriteString("| --- | --- |\n")
	for _, row := range table.Rows {
		fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(row.Original), escapeCell(row.Derived))
	}
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// jsonExport is the on-disk shape of an exported run.
type jsonExport struct {
	RunID     string        `json:"runId"`
	Operation string        `json:"operation"`
	Columns   [2]string     `json:"columns"`
	Rows      []jsonRowPair `json:"rows"`
}

type jsonRowPair struct {
	Original string `json:"original"`
	Derived  string `json:"derived"`
}

// WriteJSON writes the table to path as a JSON document tagged with runID.
func WriteJSON(path, runID string, table resolve.Table) error {
	rows := make([]jsonRowPair, len(table.Rows))
	for i, row := range table.Rows {
		rows[i] = jsonRowPair{Original: row.Original, Derived: row.Derived}
	}
	doc := jsonExport{RunID: runID, Operation: table.Operation, Columns: table.Columns, Rows: rows}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding export: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// WriteMarkdown writes the table to path as a markdown document headed by
// the operation name and run ID.
func WriteMarkdown(path, runID string, table resolve.Table) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s (run %s)\n\n", table.Operation, runID)
	b.WriteString(Markdown(table))
	return writeFile(path, []byte(b.String()))
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing export: %w", err)
	}
	return nil
}
