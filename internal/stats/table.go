package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

type align int

const (
	alignLeft align = iota
	alignRight
	// alignPoint lines values up on their last '.', so lap times of
	// different lengths and signed deltas share one decimal column.
	alignPoint
)

type column struct {
	header string
	align  align
}

// columnLayout is the measured width of one column. For point aligned
// columns whole and frac hold the widths on either side of the point.
type columnLayout struct {
	align align
	width int
	whole int
	frac  int
}

// formatTable lays out rows under cols. The header line is omitted when
// every header is empty.
func formatTable(cols []column, rows [][]string) []string {
	if len(cols) == 0 {
		return nil
	}
	layouts := make([]columnLayout, len(cols))
	withHeader := false
	for i, col := range cols {
		layouts[i] = columnLayout{align: col.align, width: displayWidth(col.header)}
		if col.header != "" {
			withHeader = true
		}
	}
	for _, row := range rows {
		for i := range layouts {
			layouts[i].measure(cellAt(row, i))
		}
	}
	for i := range layouts {
		if l := &layouts[i]; l.align == alignPoint && l.whole+l.frac > l.width {
			l.width = l.whole + l.frac
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if withHeader {
		headers := make([]string, len(cols))
		for i, col := range cols {
			headers[i] = col.header
		}
		lines = append(lines, formatRow(headers, layouts, true))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, layouts, false))
	}
	return lines
}

func (l *columnLayout) measure(cell string) {
	if l.align != alignPoint {
		l.width = max(l.width, displayWidth(cell))
		return
	}
	whole, frac := splitPoint(cell)
	l.whole = max(l.whole, displayWidth(whole))
	l.frac = max(l.frac, displayWidth(frac))
}

func formatRow(row []string, layouts []columnLayout, header bool) string {
	var b strings.Builder
	for i, l := range layouts {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(l.render(cellAt(row, i), header))
	}
	return strings.TrimRight(b.String(), " ")
}

func (l columnLayout) render(cell string, header bool) string {
	switch {
	case l.align == alignPoint && !header:
		whole, frac := splitPoint(cell)
		cell = padLeft(whole, l.whole) + padRight(frac, l.frac)
		return padLeft(cell, l.width)
	case l.align == alignLeft:
		return padRight(cell, l.width)
	default:
		return padLeft(cell, l.width)
	}
}

// splitPoint cuts value before its last '.'. Values without a point are all
// whole part.
func splitPoint(value string) (string, string) {
	if idx := strings.LastIndexByte(value, '.'); idx >= 0 {
		return value[:idx], value[idx:]
	}
	return value, ""
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func padLeft(value string, width int) string {
	if pad := width - displayWidth(value); pad > 0 {
		return strings.Repeat(" ", pad) + value
	}
	return value
}

func padRight(value string, width int) string {
	if pad := width - displayWidth(value); pad > 0 {
		return value + strings.Repeat(" ", pad)
	}
	return value
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
