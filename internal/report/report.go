package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/verte-zerg/kasiski/internal/alphabet"
	"github.com/verte-zerg/kasiski/internal/analysis"
	"github.com/verte-zerg/kasiski/internal/pipeline"
)

// Palette colours plain-mode output. A disabled palette prints plain text.
type Palette struct {
	Key  *color.Color
	Rank *color.Color
	Warn *color.Color
	Dim  *color.Color
	Bar  *color.Color
	Ref  *color.Color
}

// NewPalette builds a palette with colour forced on or off.
func NewPalette(enabled bool) Palette {
	p := Palette{
		Key:  color.New(color.FgGreen, color.Bold),
		Rank: color.New(color.FgCyan, color.Bold),
		Warn: color.New(color.FgYellow),
		Dim:  color.New(color.Faint),
		Bar:  color.New(color.FgCyan),
		Ref:  color.New(color.FgMagenta),
	}
	for _, c := range []*color.Color{p.Key, p.Rank, p.Warn, p.Dim, p.Bar, p.Ref} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// RenderPatterns prints up to limit repeated patterns in discovery order.
// A non-positive limit prints all of them.
func RenderPatterns(w io.Writer, patterns []analysis.Pattern, limit int) error {
	if len(patterns) == 0 {
		_, err := fmt.Fprintln(w, "No repeated patterns found.")
		return err
	}
	if _, err := fmt.Fprintf(w, "Repeated patterns (%d)\n", len(patterns)); err != nil {
		return err
	}
	shown := patterns
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	headers := []string{"Pattern", "Len", "Count", "Positions"}
	rows := make([][]string, 0, len(shown))
	for _, p := range shown {
		rows = append(rows, []string{
			p.Text,
			fmt.Sprintf("%d", p.Length),
			fmt.Sprintf("%d", p.Count),
			joinInts(p.Positions, 8),
		})
	}
	if err := writeLines(w, formatTable(headers, rows, 1, 2)); err != nil {
		return err
	}
	if len(shown) < len(patterns) {
		if _, err := fmt.Fprintf(w, "... %d more\n", len(patterns)-len(shown)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderKeyLengths prints the key-length ranking, best first.
func RenderKeyLengths(w io.Writer, lengths []analysis.KeyLength, limit int) error {
	if len(lengths) == 0 {
		_, err := fmt.Fprintln(w, "No key lengths ranked.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Key lengths"); err != nil {
		return err
	}
	shown := lengths
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	headers := []string{"Rank", "Len", "Success", "Failure", "Divides"}
	rows := make([][]string, 0, len(shown))
	for i, kl := range shown {
		divides := fmt.Sprintf("%d/%d", kl.Successes, kl.Successes+kl.Failures)
		if kl.Insufficient {
			divides = "n/a"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", kl.Length),
			fmt.Sprintf("%.2f%%", kl.SuccessRatio*100),
			fmt.Sprintf("%.2f%%", kl.FailureRatio*100),
			divides,
		})
	}
	if err := writeLines(w, formatTable(headers, rows, 0, 1, 2, 3, 4)); err != nil {
		return err
	}
	if len(lengths) > 0 && lengths[0].Insufficient {
		if _, err := fmt.Fprintln(w, "Not enough pattern distances to rank key lengths."); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderCandidate prints one candidate: rank, key, fit, runner-up letters and
// the decoded text. Masked positions are highlighted.
func RenderCandidate(w io.Writer, c pipeline.Candidate, pal Palette) error {
	header := fmt.Sprintf("%s key length %d (failure %.2f%%)",
		pal.Rank.Sprintf("#%d", c.Rank), c.KeyLength.Length, c.KeyLength.FailureRatio*100)
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Key: %s  Fit: %.3f\n", pal.Key.Sprint(c.Key.String()), c.Fit); err != nil {
		return err
	}
	if n := c.Key.Wildcards(); n > 0 {
		if _, err := fmt.Fprintln(w, pal.Warn.Sprintf("%d key slot(s) undetermined, shown as _", n)); err != nil {
			return err
		}
	}
	if len(c.Slots) > 0 {
		if _, err := fmt.Fprintln(w, pal.Dim.Sprint("Slots: "+SlotSummary(c.Slots))); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, HighlightMasked(c.Decoded, pal.Warn)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// SlotSummary lists the best letters for each key position as "l/k/m".
func SlotSummary(slots [][]analysis.LetterScore) string {
	parts := make([]string, 0, len(slots))
	for _, scores := range slots {
		letters := make([]string, 0, len(scores))
		for _, s := range scores {
			letters = append(letters, string(s.Letter))
		}
		parts = append(parts, strings.Join(letters, "/"))
	}
	return strings.Join(parts, " ")
}

// HighlightMasked colours every wildcard symbol in text.
func HighlightMasked(text string, c *color.Color) string {
	if !strings.ContainsRune(text, alphabet.Wildcard) {
		return text
	}
	var b strings.Builder
	for _, r := range text {
		if r == alphabet.Wildcard {
			b.WriteString(c.Sprint(string(alphabet.Wildcard)))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func joinInts(values []int, limit int) string {
	parts := make([]string, 0, min(len(values), limit)+1)
	for i, v := range values {
		if i == limit {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, fmt.Sprintf("%d", v))
	}
	return strings.Join(parts, ",")
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
