package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/kasiski/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = min(max(idx, 0), len(sparkChars)-1)
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderRuns prints recorded runs oldest first, with a sparkline of the best
// fit per run.
func RenderRuns(w io.Writer, runs []model.RunAggregate, pal Palette) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}
	headers := []string{"Run", "When", "Lang", "Source", "Letters", "Shown", "Best fit", "Accepted"}
	rows := make([][]string, 0, len(runs))
	fits := make([]float64, 0, len(runs))
	for _, r := range runs {
		accepted := r.Run.AcceptedKey
		if accepted == "" {
			accepted = "-"
		}
		best := "-"
		if r.Candidates > 0 {
			best = fmt.Sprintf("%.3f", r.BestFit)
			fits = append(fits, r.BestFit)
		}
		source := r.Run.Source
		if r.Run.CacheHit {
			source += " (cached)"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.Run.ID),
			r.Run.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Run.Lang,
			source,
			fmt.Sprintf("%d", r.Run.TextLen),
			fmt.Sprintf("%d", r.Candidates),
			best,
			accepted,
		})
	}
	if _, err := fmt.Fprintf(w, "Runs (%d)\n", len(runs)); err != nil {
		return err
	}
	if err := writeLines(w, formatTable(headers, rows, 0, 4, 5, 6)); err != nil {
		return err
	}
	if len(fits) > 1 {
		if _, err := fmt.Fprintf(w, "Best fit trend: %s\n", pal.Dim.Sprint(Sparkline(fits))); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderRunCandidates prints the candidates recorded for one run.
func RenderRunCandidates(w io.Writer, runID int64, cands []model.CandidateRecord, pal Palette) error {
	if len(cands) == 0 {
		_, err := fmt.Fprintf(w, "No candidates recorded for run %d.\n", runID)
		return err
	}
	if _, err := fmt.Fprintf(w, "Run %d candidates\n", runID); err != nil {
		return err
	}
	headers := []string{"Rank", "Len", "Failure", "Fit", "Key", ""}
	rows := make([][]string, 0, len(cands))
	for _, c := range cands {
		mark := ""
		if c.Accepted {
			mark = "accepted"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", c.Rank),
			fmt.Sprintf("%d", c.KeyLength),
			fmt.Sprintf("%.2f%%", c.FailureRatio*100),
			fmt.Sprintf("%.3f", c.Fit),
			c.Key,
			mark,
		})
	}
	lines := formatTable(headers, rows, 0, 1, 2, 3)
	for i, line := range lines {
		if i > 0 && cands[i-1].Accepted {
			line = pal.Key.Sprint(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
