package report

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

func init() {
	runewidth.DefaultCondition.EastAsianWidth = false
	runewidth.DefaultCondition.StrictEmojiNeutral = true
}

// Table lays out rows in columns measured by display width, so CJK titles
// line up with Latin ones.
type Table struct {
	Headers  []string
	Rows     [][]string
	MaxWidth int // per column; 0 means unbounded
}

// Append adds a row.
func (t *Table) Append(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Widths returns the display width of each column.
func (t *Table) Widths() []int {
	widths := make([]int, len(t.Headers))
	measure := func(row []string) {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			w := runewidth.StringWidth(cell)
			if t.MaxWidth > 0 && w > t.MaxWidth {
				w = t.MaxWidth
			}
			if w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(t.Headers)
	for _, row := range t.Rows {
		measure(row)
	}
	return widths
}

// Lines renders the table as unstyled lines: header, rule, then rows.
func (t *Table) Lines() []string {
	widths := t.Widths()
	lines := make([]string, 0, len(t.Rows)+2)
	if len(t.Headers) > 0 {
		lines = append(lines, t.line(t.Headers, widths))
		rule := make([]string, len(widths))
		for i, w := range widths {
			rule[i] = strings.Repeat("-", w)
		}
		lines = append(lines, strings.Join(rule, "  "))
	}
	for _, row := range t.Rows {
		lines = append(lines, t.line(row, widths))
	}
	return lines
}

func (t *Table) line(row []string, widths []int) string {
	cells := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if runewidth.StringWidth(cell) > w {
			cell = runewidth.Truncate(cell, w, "…")
		}
		if i == len(widths)-1 {
			cells[i] = cell
			continue
		}
		cells[i] = runewidth.FillRight(cell, w)
	}
	return strings.TrimRight(strings.Join(cells, "  "), " ")
}
