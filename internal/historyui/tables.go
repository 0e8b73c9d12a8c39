package historyui

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/kasiski/internal/model"
	"github.com/verte-zerg/kasiski/internal/report"
)

const (
	plotHeight   = 8
	sourceWidth  = 24
	keyWidth     = 26
	wideOverview = 60
)

func newTable(cols []table.Column) table.Model {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(dimColor).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(accentColor).
		Bold(true)
	return table.New(table.WithColumns(cols), table.WithStyles(styles), table.WithHeight(1))
}

func runColumns() []table.Column {
	return []table.Column{
		{Title: "Run", Width: 5},
		{Title: "When", Width: 16},
		{Title: "Lang", Width: 4},
		{Title: "Source", Width: sourceWidth},
		{Title: "Letters", Width: 7},
		{Title: "Shown", Width: 5},
		{Title: "Best fit", Width: 8},
		{Title: "Accepted", Width: 16},
	}
}

// runRows lists runs newest first; runs arrive oldest first.
func runRows(runs []model.RunAggregate) []table.Row {
	rows := make([]table.Row, len(runs))
	for i, r := range runs {
		best, accepted := "-", "-"
		if r.Candidates > 0 {
			best = fmt.Sprintf("%.3f", r.BestFit)
		}
		if r.Run.AcceptedKey != "" {
			accepted = r.Run.AcceptedKey
		}
		rows[len(runs)-1-i] = table.Row{
			strconv.FormatInt(r.Run.ID, 10),
			r.Run.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Run.Lang,
			truncateLine(r.Run.Source, sourceWidth),
			strconv.Itoa(r.Run.TextLen),
			strconv.Itoa(r.Candidates),
			best,
			accepted,
		}
	}
	return rows
}

func candidateColumns() []table.Column {
	return []table.Column{
		{Title: "Rank", Width: 4},
		{Title: "Len", Width: 4},
		{Title: "Failure", Width: 8},
		{Title: "Fit", Width: 7},
		{Title: "Key", Width: keyWidth},
		{Title: "", Width: 8},
	}
}

// candidateRows shows rank 0, the recalled key, as "-".
func candidateRows(cands []model.CandidateRecord) []table.Row {
	rows := make([]table.Row, 0, len(cands))
	for _, c := range cands {
		rank, mark := "-", ""
		if c.Rank > 0 {
			rank = strconv.Itoa(c.Rank)
		}
		if c.Accepted {
			mark = "accepted"
		}
		rows = append(rows, table.Row{
			rank,
			strconv.Itoa(c.KeyLength),
			fmt.Sprintf("%.2f%%", c.FailureRatio*100),
			fmt.Sprintf("%.3f", c.Fit),
			truncateLine(c.Key, keyWidth),
			mark,
		})
	}
	return rows
}

// overviewText summarises runs as metric cards over a plot of the best fit
// per run.
func overviewText(runs []model.RunAggregate, width int) string {
	if len(runs) == 0 {
		return "No runs recorded."
	}
	var accepted, cached int
	fits := make([]float64, 0, len(runs))
	for _, r := range runs {
		if r.Run.AcceptedKey != "" {
			accepted++
		}
		if r.Run.CacheHit {
			cached++
		}
		if r.Candidates > 0 {
			fits = append(fits, r.BestFit)
		}
	}
	cards := []string{
		metricCard("Runs", len(runs)),
		metricCard("Accepted", accepted),
		metricCard("Cache hits", cached),
	}
	summary := lipgloss.JoinVertical(lipgloss.Left, cards...)
	if width >= wideOverview {
		summary = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}
	if len(fits) < 2 {
		return summary
	}
	var plot bytes.Buffer
	chart := report.Plot{Title: "Best fit per run", Width: width - 8, Height: plotHeight, Color: true}
	if err := chart.Render(&plot, report.Series{Name: "Fit", Values: fits}); err != nil {
		return summary + "\n\n" + errorStyle.Render(err.Error())
	}
	return summary + "\n\n" + strings.TrimRight(plot.String(), "\n")
}

func metricCard(label string, value int) string {
	return cardStyle.Render(cardLabelStyle.Render(label) + "\n" + cardValueStyle.Render(strconv.Itoa(value)))
}

func truncateLine(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}
