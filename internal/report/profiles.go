package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/verte-zerg/kasiski/internal/alphabet"
)

// ProfileRow describes one registered profile for listing.
type ProfileRow struct {
	Profile *alphabet.Profile
	Builtin bool
	// WordList is set when a word list for the profile's language exists.
	WordList bool
}

// RenderProfiles prints the profiles with their alphabets and the three most
// frequent letters.
func RenderProfiles(w io.Writer, rows []ProfileRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No profiles registered.")
		return err
	}
	headers := []string{"Name", "Lang", "Letters", "Top", "Source", "Words"}
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		p := row.Profile
		source := "custom"
		if row.Builtin {
			source = "built-in"
		}
		words := "-"
		if row.WordList {
			words = "yes"
		}
		cells = append(cells, []string{
			p.Name(),
			p.Lang(),
			fmt.Sprintf("%d", p.Size()),
			topLetters(p, 3),
			source,
			words,
		})
	}
	return writeLines(w, formatTable(headers, cells, 2))
}

func topLetters(p *alphabet.Profile, n int) string {
	idx := make([]int, p.Size())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return p.Frequency(idx[a]) > p.Frequency(idx[b])
	})
	parts := make([]string, 0, n)
	for _, i := range idx[:min(n, len(idx))] {
		parts = append(parts, string(p.Symbol(i)))
	}
	return strings.Join(parts, " ")
}
