package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/verte-zerg/aiprimer/internal/model"
)

// Series is a named set of lap times indexed by skill level.
type Series struct {
	Name   string
	Points map[int]float64
}

type ansiColor struct {
	name string
	code string
}

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
	lapTimeLabelWidth   = len("00:00.000")
)

var colorPalette = []ansiColor{
	{name: "cyan", code: "\x1b[36m"},
	{name: "magenta", code: "\x1b[35m"},
	{name: "yellow", code: "\x1b[33m"},
	{name: "green", code: "\x1b[32m"},
}

// TrackSeries splits a processed track into observed and synthesized series.
func TrackSeries(track *model.ProcessedTrack) []Series {
	if track == nil {
		return nil
	}
	observed := Series{Name: model.Observed.String(), Points: map[int]float64{}}
	synthesized := Series{Name: model.Synthesized.String(), Points: map[int]float64{}}
	for level, agg := range track.AILevels {
		if agg.Provenance == model.Synthesized {
			synthesized.Points[level] = agg.Time
			continue
		}
		observed.Points[level] = agg.Time
	}
	return []Series{observed, synthesized}
}

// PlotLapTimes renders lap time against skill level as a braille plot. All
// series share one vertical scale labelled in lap time.
func PlotLapTimes(w io.Writer, title string, series []Series, width, height int) error {
	return plotLapTimes(w, title, series, width, height, false)
}

// PlotLapTimesWithColor renders the plot with optional forced color output.
func PlotLapTimesWithColor(w io.Writer, title string, series []Series, width, height int, forceColor bool) error {
	return plotLapTimes(w, title, series, width, height, forceColor)
}

func plotLapTimes(w io.Writer, title string, series []Series, width, height int, forceColor bool) error {
	series = filterSeries(series)
	if len(series) == 0 {
		return nil
	}
	lo, hi, minT, maxT := seriesExtent(series)
	if math.Abs(maxT-minT) < 1e-9 {
		minT -= 0.5
		maxT += 0.5
	}

	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	dotsX := width * 2
	dotsY := height * 4
	cells := make([][][]uint8, len(series))
	for si, s := range series {
		cells[si] = makeCells(height, width)
		prevX, prevY := -1, -1
		for level := lo; level <= hi; level++ {
			v, ok := s.Points[level]
			if !ok {
				continue
			}
			px := levelToColumn(level, lo, hi, dotsX)
			py := valueToRow(v, minT, maxT, dotsY)
			if prevX >= 0 {
				drawLine(prevX, prevY, px, py, func(x, y int) {
					setBrailleDot(cells[si], x, y)
				})
			} else {
				setBrailleDot(cells[si], px, py)
			}
			prevX, prevY = px, py
		}
	}

	useColor := shouldUseColor(w, forceColor)
	labels := makeAxisLabels(height, minT, maxT)
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for y := 0; y < height; y++ {
		var row strings.Builder
		row.WriteString(runewidth.FillLeft(labels[y], lapTimeLabelWidth))
		row.WriteString(axisSeparator)
		for x := 0; x < width; x++ {
			mask, idx := composeCell(cells, x, y)
			ch := brailleFromMask(mask)
			if useColor && idx >= 0 {
				row.WriteString(colorPalette[idx%len(colorPalette)].code)
				row.WriteRune(ch)
				row.WriteString(colorReset)
				continue
			}
			row.WriteRune(ch)
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	axis := fmt.Sprintf("%d", lo)
	right := fmt.Sprintf("%d", hi)
	gap := width - runewidth.StringWidth(axis) - runewidth.StringWidth(right)
	if gap < 1 {
		gap = 1
	}
	footer := strings.Repeat(" ", lapTimeLabelWidth+runewidth.StringWidth(axisSeparator)) + axis + strings.Repeat(" ", gap) + right
	if _, err := fmt.Fprintln(w, footer); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, renderLegend(series, useColor)); err != nil {
		return err
	}
	return nil
}

func filterSeries(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Points) == 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}

func seriesExtent(series []Series) (lo, hi int, minT, maxT float64) {
	first := true
	for _, s := range series {
		for level, v := range s.Points {
			if first {
				lo, hi, minT, maxT = level, level, v, v
				first = false
				continue
			}
			lo = min(lo, level)
			hi = max(hi, level)
			minT = math.Min(minT, v)
			maxT = math.Max(maxT, v)
		}
	}
	return lo, hi, minT, maxT
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	plotWidth := totalWidth - lapTimeLabelWidth - runewidth.StringWidth(axisSeparator)
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// makeAxisLabels puts the slowest time on top; higher levels are faster.
func makeAxisLabels(height int, minT, maxT float64) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = model.FormatLapTime(maxT, "")
	if height > 2 {
		labels[height/2] = model.FormatLapTime((minT+maxT)/2, "")
	}
	if height > 1 {
		labels[height-1] = model.FormatLapTime(minT, "")
	}
	return labels
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return cells
}

func composeCell(seriesCells [][][]uint8, x, y int) (uint8, int) {
	var mask uint8
	colorIdx := -1
	for i, cells := range seriesCells {
		if y < 0 || y >= len(cells) || x < 0 || x >= len(cells[y]) {
			continue
		}
		if cells[y][x] == 0 {
			continue
		}
		if colorIdx == -1 {
			colorIdx = i
		}
		mask |= cells[y][x]
	}
	return mask, colorIdx
}

func levelToColumn(level, lo, hi, dots int) int {
	if hi == lo || dots <= 1 {
		return 0
	}
	return int(math.Round(float64(level-lo) * float64(dots-1) / float64(hi-lo)))
}

func valueToRow(v, minVal, maxVal float64, dots int) int {
	if dots <= 1 {
		return 0
	}
	pos := (v - minVal) / (maxVal - minVal)
	row := int(math.Round((1 - pos) * float64(dots-1)))
	return max(0, min(row, dots-1))
}

func renderLegend(series []Series, useColor bool) string {
	parts := make([]string, 0, len(series))
	marker := brailleFromMask(0x01)
	for i, s := range series {
		label := fmt.Sprintf("%c %s (%d)", marker, s.Name, len(s.Points))
		if useColor {
			label = colorPalette[i%len(colorPalette)].code + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

// drawLine walks the Bresenham line between two dots.
func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func setBrailleDot(cells [][]uint8, x, y int) {
	if y < 0 || x < 0 {
		return
	}
	cellY, cellX := y/4, x/2
	if cellY >= len(cells) || cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
}

// brailleDotMask maps a dot inside a 2x4 cell to its Unicode bit.
func brailleDotMask(x, y int) uint8 {
	left := [4]uint8{0x01, 0x02, 0x04, 0x40}
	right := [4]uint8{0x08, 0x10, 0x20, 0x80}
	if y < 0 || y > 3 {
		return 0
	}
	switch x {
	case 0:
		return left[y]
	case 1:
		return right[y]
	default:
		return 0
	}
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
