package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// TableColumn defines a column in a table.
type TableColumn struct {
	Name  string
	Width int
	Align Alignment
}

// Alignment defines text alignment in a column.
type Alignment int

// Alignment constants.
const (
	AlignLeft Alignment = iota
	AlignRight
)

// TableStyles holds lipgloss styles for table rendering.
type TableStyles struct {
	Header lipgloss.Style
	Dim    lipgloss.Style
}

// NewTableStyles creates styles for table rendering.
func NewTableStyles() *TableStyles {
	return &TableStyles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#DDDDDD"}),
		Dim: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}),
	}
}

// Table provides styled table rendering.
type Table struct {
	w       io.Writer
	styles  *TableStyles
	columns []TableColumn
}

// NewTable creates a new table with the given columns.
func NewTable(w io.Writer, columns []TableColumn) *Table {
	return &Table{
		w:       w,
		styles:  NewTableStyles(),
		columns: columns,
	}
}

// WriteHeader writes the table header row.
func (t *Table) WriteHeader() {
	header := ""
	for i, col := range t.columns {
		if i > 0 {
			header += " "
		}
		format := t.formatSpec(col)
		header += fmt.Sprintf(format, col.Name)
	}
	_, _ = fmt.Fprintln(t.w, t.styles.Header.Render(header))
}

// WriteRow writes a data row to the table.
func (t *Table) WriteRow(values ...string) {
	row := ""
	for i, col := range t.columns {
		if i > 0 {
			row += " "
		}
		format := t.formatSpec(col)
		value := ""
		if i < len(values) {
			value = values[i]
		}
		// Truncate if needed (require Width > 1 to avoid slice bounds panic)
		if col.Width > 1 && len(value) > col.Width {
			value = value[:col.Width-1] + "…"
		}
		row += fmt.Sprintf(format, value)
	}
	_, _ = fmt.Fprintln(t.w, row)
}

// WriteStyledRow writes a data row with one styled cell.
func (t *Table) WriteStyledRow(values []string, styledIndex int, styledValue, plainValue string) {
	row := ""
	for i, col := range t.columns {
		if i > 0 {
			row += " "
		}
		format := t.formatSpec(col)

		if i == styledIndex {
			// Account for ANSI escape codes in width calculation
			offset := len(styledValue) - len(plainValue)
			adjustedFormat := t.formatSpecWithOffset(col, offset)
			row += fmt.Sprintf(adjustedFormat, styledValue)
		} else {
			value := ""
			if i < len(values) {
				value = values[i]
			}
			// Truncate if needed (require Width > 1 to avoid slice bounds panic)
			if col.Width > 1 && len(value) > col.Width {
				value = value[:col.Width-1] + "…"
			}
			row += fmt.Sprintf(format, value)
		}
	}
	_, _ = fmt.Fprintln(t.w, row)
}

// formatSpec returns the format specifier for a column.
func (t *Table) formatSpec(col TableColumn) string {
	if col.Align == AlignRight {
		return fmt.Sprintf("%%%ds", col.Width)
	}
	return fmt.Sprintf("%%-%ds", col.Width)
}

// formatSpecWithOffset returns the format specifier with width adjusted for ANSI codes.
func (t *Table) formatSpecWithOffset(col TableColumn, offset int) string {
	width := col.Width + offset
	if col.Align == AlignRight {
		return fmt.Sprintf("%%%ds", width)
	}
	return fmt.Sprintf("%%-%ds", width)
}
