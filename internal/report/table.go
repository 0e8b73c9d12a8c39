// Package report renders analysis results and history as plain text.
package report

import (
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"
)

// formatTable lays out headers and rows in space separated columns sized to
// their widest cell. Columns listed in right are right aligned. Rows shorter
// than the header are padded with empty cells.
func formatTable(headers []string, rows [][]string, right ...int) []string {
	cols := len(headers)
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return nil
	}
	widths := make([]int, cols)
	measure := func(row []string) {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	measure(headers)
	for _, row := range rows {
		measure(row)
	}

	render := func(row []string) string {
		cells := make([]string, cols)
		for i := range cells {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = padCell(cell, widths[i], slices.Contains(right, i))
		}
		return strings.TrimRight(strings.Join(cells, " "), " ")
	}
	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, render(headers))
	}
	for _, row := range rows {
		lines = append(lines, render(row))
	}
	return lines
}

// padCell pads value with spaces to width terminal cells.
func padCell(value string, width int, alignRight bool) string {
	if alignRight {
		return runewidth.FillLeft(value, width)
	}
	return runewidth.FillRight(value, width)
}

// displayWidth counts terminal cells, so wide runes stay aligned.
func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
