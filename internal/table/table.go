// Package table renders aligned ASCII tables. Cell widths ignore ANSI
// escape sequences, so colored cells line up.
package table

import (
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Alignment is the horizontal alignment of a cell.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripAnsi(s string) string {
	return ansi.ReplaceAllString(s, "")
}

func width(s string) int {
	return utf8.RuneCountInString(stripAnsi(s))
}

// Table accumulates rows and renders them to a writer.
type Table struct {
	writer          io.Writer
	header          []string
	rows            [][]string
	columnAlignment []Alignment
	headerAlignment []Alignment
}

// NewTable returns an empty table that renders to w.
func NewTable(w io.Writer) *Table {
	return &Table{writer: w}
}

func (t *Table) WithHeader(header []string) *Table {
	t.header = header
	return t
}

func (t *Table) WithColumnAlignment(alignment []Alignment) *Table {
	t.columnAlignment = alignment
	return t
}

func (t *Table) WithHeaderAlignment(alignment []Alignment) *Table {
	t.headerAlignment = alignment
	return t
}

func (t *Table) WithRows(rows [][]string) *Table {
	t.rows = append(t.rows, rows...)
	return t
}

// Append adds one row.
func (t *Table) Append(row []string) {
	t.rows = append(t.rows, row)
}

func (t *Table) widths() []int {
	n := len(t.header)
	for _, row := range t.rows {
		n = max(n, len(row))
	}
	widths := make([]int, n)
	for i, h := range t.header {
		widths[i] = width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], width(cell))
		}
	}
	return widths
}

// Render writes the table. Nothing is written for a table with no header
// and no rows.
func (t *Table) Render() error {
	widths := t.widths()
	if len(widths) == 0 {
		return nil
	}
	var b strings.Builder
	border := separator(widths)
	b.WriteString(border)
	if len(t.header) > 0 {
		b.WriteString(line(t.header, widths, t.headerAlignment))
		b.WriteString(border)
	}
	for _, row := range t.rows {
		b.WriteString(line(row, widths, t.columnAlignment))
	}
	if len(t.rows) > 0 {
		b.WriteString(border)
	}
	_, err := io.WriteString(t.writer, b.String())
	return err
}

func separator(widths []int) string {
	var b strings.Builder
	b.WriteString("+")
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteString("+")
	}
	b.WriteString("\n")
	return b.String()
}

func line(cells []string, widths []int, alignment []Alignment) string {
	var b strings.Builder
	b.WriteString("|")
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		align := AlignLeft
		if i < len(alignment) {
			align = alignment[i]
		}
		b.WriteString(" ")
		b.WriteString(pad(cell, w, align))
		b.WriteString(" |")
	}
	b.WriteString("\n")
	return b.String()
}

func pad(s string, w int, align Alignment) string {
	gap := w - width(s)
	if gap <= 0 {
		return s
	}
	switch align {
	case AlignRight:
		return strings.Repeat(" ", gap) + s
	case AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	default:
		return s + strings.Repeat(" ", gap)
	}
}
