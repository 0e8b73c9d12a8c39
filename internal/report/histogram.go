package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/kasiski/internal/alphabet"
)

const (
	barRune    = '█'
	refRune    = '|'
	minBarCols = 10
)

// RenderHistogram prints one row per alphabet letter with the observed
// percentage as a bar and the profile's reference percentage as a marker.
// A non-positive barWidth fits the bars to the terminal.
func RenderHistogram(w io.Writer, p *alphabet.Profile, observed []float64, barWidth int, pal Palette) error {
	if len(observed) != p.Size() {
		return fmt.Errorf("histogram has %d bins, profile %q has %d letters", len(observed), p.Name(), p.Size())
	}
	ref := p.Frequencies()
	rows := make([][]string, 0, p.Size())
	top := 0.0
	for i := 0; i < p.Size(); i++ {
		top = math.Max(top, math.Max(observed[i], ref[i]))
		rows = append(rows, []string{
			string(p.Symbol(i)),
			fmt.Sprintf("%.2f", observed[i]),
			fmt.Sprintf("%.2f", ref[i]),
		})
	}
	lines := formatTable([]string{"", "Obs%", "Ref%"}, rows, 1, 2)
	if barWidth <= 0 {
		barWidth = TerminalWidth() - displayWidth(lines[0]) - 2
	}
	barWidth = max(barWidth, minBarCols)

	if _, err := fmt.Fprintf(w, "Letter frequencies (%s)\n", p.Name()); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, lines[0]); err != nil {
		return err
	}
	for i, line := range lines[1:] {
		bar := histogramBar(observed[i], ref[i], top, barWidth, pal)
		if _, err := fmt.Fprintf(w, "%s  %s\n", padCell(line, displayWidth(lines[0]), false), bar); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func histogramBar(obs, ref, top float64, width int, pal Palette) string {
	if top <= 0 {
		return ""
	}
	obsCols := scaleCols(obs, top, width)
	refAt := max(scaleCols(ref, top, width)-1, 0)
	var b strings.Builder
	for i := 0; i < max(obsCols, refAt+1); i++ {
		switch {
		case i == refAt:
			b.WriteString(pal.Ref.Sprint(string(refRune)))
		case i < obsCols:
			b.WriteString(pal.Bar.Sprint(string(barRune)))
		default:
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// scaleCols maps v in [0, top] to a column count in [0, width].
func scaleCols(v, top float64, width int) int {
	cols := int(math.Round(v / top * float64(width)))
	return min(max(cols, 0), width)
}
