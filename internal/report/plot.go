package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

const (
	defaultPlotHeight = 8
	minPlotWidth      = 10
	axisSeparator     = " │ "
	fallbackWidth     = 80
)

// Series is a named sequence of values drawn as one line.
type Series struct {
	Name   string
	Values []float64
}

// Plot renders series as braille line charts sharing a 0..top scale.
type Plot struct {
	Title string
	// Width is the number of plot columns; zero fills the terminal.
	Width int
	// Height is the number of text rows; zero means 8.
	Height int
	// Percent rounds the scale up to a multiple of 5 and labels it in %.
	Percent bool
	Color   bool
}

// dash keeps the first on dots of every period; period 1 is a solid line.
type dash struct {
	name   string
	period int
	on     int
}

func (d dash) draws(x int) bool {
	if d.period <= 1 {
		return true
	}
	return abs(x)%d.period < d.on
}

var dashes = []dash{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
}

var seriesColors = []color.Attribute{color.FgCyan, color.FgMagenta, color.FgYellow}

// Render writes the title, the chart rows and a legend. Empty series are
// skipped; nothing is written when no series has values.
func (p Plot) Render(w io.Writer, series ...Series) error {
	drawn := make([]Series, 0, len(series))
	peak := 0.0
	for _, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		drawn = append(drawn, s)
		for _, v := range s.Values {
			peak = math.Max(peak, v)
		}
	}
	if len(drawn) == 0 {
		return nil
	}
	height := p.Height
	if height <= 0 {
		height = defaultPlotHeight
	}
	top, label := p.scale(peak)
	labels := make([]string, height)
	labels[0] = label(top)
	if height > 2 {
		labels[height/2] = label(top / 2)
	}
	if height > 1 {
		labels[height-1] = label(0)
	}
	axisWidth := 0
	for _, l := range labels {
		axisWidth = max(axisWidth, displayWidth(l))
	}
	width := p.Width
	if width <= 0 {
		width = TerminalWidth() - axisWidth - displayWidth(axisSeparator)
	}
	width = max(width, minPlotWidth)

	layers := make([]*canvas, len(drawn))
	for i, s := range drawn {
		layers[i] = newCanvas(width, height)
		layers[i].polyline(resampleSeries(s.Values, width), top, dashes[i%len(dashes)])
	}

	if p.Title != "" {
		if _, err := fmt.Fprintln(w, p.Title); err != nil {
			return err
		}
	}
	for y := range height {
		var row strings.Builder
		row.WriteString(padCell(labels[y], axisWidth, true))
		row.WriteString(axisSeparator)
		for x := range width {
			var mask uint8
			owner := -1
			for i, layer := range layers {
				if m := layer.cells[y][x]; m != 0 {
					mask |= m
					if owner < 0 {
						owner = i
					}
				}
			}
			glyph := string(braille(mask))
			if p.Color && owner >= 0 {
				glyph = seriesColor(owner, true).Sprint(glyph)
			}
			row.WriteString(glyph)
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(row.String(), " ")); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, legend(drawn, p.Color)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

// scale picks the top of the axis and the label format for peak.
func (p Plot) scale(peak float64) (float64, func(float64) string) {
	if p.Percent {
		return math.Max(5, math.Ceil(peak/5)*5), func(v float64) string {
			return strconv.FormatFloat(v, 'f', 0, 64) + "%"
		}
	}
	return niceCeil(peak), func(v float64) string {
		return strconv.FormatFloat(v, 'g', 3, 64)
	}
}

// niceCeil rounds v up to 1, 2 or 5 times a power of ten.
func niceCeil(v float64) float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1
	}
	pow := math.Pow(10, math.Floor(math.Log10(v)))
	for _, m := range []float64{1, 2, 5, 10} {
		if top := m * pow; top >= v*(1-1e-9) {
			return top
		}
	}
	return 10 * pow
}

// TerminalWidth returns the stdout width, or 80 when stdout is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return width
}

func seriesColor(i int, enabled bool) *color.Color {
	c := color.New(seriesColors[i%len(seriesColors)])
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func legend(series []Series, useColor bool) string {
	parts := make([]string, len(series))
	for i, s := range series {
		parts[i] = fmt.Sprintf("%c %s (%s)", braille(0x01), s.Name, dashes[i%len(dashes)].name)
		if useColor {
			parts[i] = seriesColor(i, true).Sprint(parts[i])
		}
	}
	return "Legend: " + strings.Join(parts, "  ")
}

// resampleSeries maps values onto exactly width points, averaging buckets
// when there are more values than columns and interpolating otherwise.
func resampleSeries(values []float64, width int) []float64 {
	n := len(values)
	if n == 0 || width <= 0 {
		return nil
	}
	out := make([]float64, width)
	switch {
	case n > width:
		for i := range out {
			lo := i * n / width
			hi := max((i+1)*n/width, lo+1)
			sum := 0.0
			for _, v := range values[lo:hi] {
				sum += v
			}
			out[i] = sum / float64(hi-lo)
		}
	case n == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		step := float64(n-1) / float64(width-1)
		for i := range out {
			pos := float64(i) * step
			j := int(pos)
			if j >= n-1 {
				out[i] = values[n-1]
				continue
			}
			frac := pos - float64(j)
			out[i] = values[j] + (values[j+1]-values[j])*frac
		}
	}
	return out
}

// canvas holds braille cells, each two dots wide and four dots tall.
type canvas struct {
	cells [][]uint8
}

func newCanvas(width, height int) *canvas {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return &canvas{cells: cells}
}

func (c *canvas) dotRows() int { return len(c.cells) * 4 }

// Braille dots are numbered column-wise 1-2-3-7 then 4-5-6-8.
var dotBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func (c *canvas) set(x, y int) {
	if x < 0 || y < 0 || y >= c.dotRows() || x/2 >= len(c.cells[y/4]) {
		return
	}
	c.cells[y/4][x/2] |= dotBits[x%2][y%4]
}

// polyline joins one point per column, scaled so 0 sits on the bottom dot
// row and top on the first.
func (c *canvas) polyline(points []float64, top float64, d dash) {
	rows := c.dotRows()
	toRow := func(v float64) int {
		if rows <= 1 || top <= 0 {
			return 0
		}
		r := int(math.Round((1 - v/top) * float64(rows-1)))
		return min(max(r, 0), rows-1)
	}
	for i, v := range points {
		x, y := i*2, toRow(v)
		if i == 0 {
			c.set(x, y)
			continue
		}
		c.line(x-2, toRow(points[i-1]), x, y, d)
	}
}

// line draws a Bresenham segment, keeping the dots the dash allows.
func (c *canvas) line(x0, y0, x1, y1 int, d dash) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		if d.draws(x0) {
			c.set(x0, y0)
		}
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

func braille(mask uint8) rune {
	return rune(0x2800) + rune(mask)
}
