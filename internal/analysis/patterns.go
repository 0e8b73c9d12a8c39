package analysis

import (
	"fmt"
	"strings"
)

// CountMode selects how pattern occurrences are counted for the repeat filter.
type CountMode int

const (
	// Overlapping counts every start index where the pattern matches.
	Overlapping CountMode = iota
	// NonOverlapping resumes the scan after each match, so self-overlapping
	// repeats count fewer times.
	NonOverlapping
)

func (m CountMode) String() string {
	switch m {
	case NonOverlapping:
		return "non-overlapping"
	default:
		return "overlapping"
	}
}

// ParseCountMode parses the config/flag spelling of a CountMode.
func ParseCountMode(s string) (CountMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overlapping":
		return Overlapping, nil
	case "non-overlapping", "nonoverlapping":
		return NonOverlapping, nil
	default:
		return Overlapping, fmt.Errorf("unknown pattern count mode %q (want overlapping or non-overlapping)", s)
	}
}

// Pattern is a substring of the cleaned text that repeats.
// Positions always lists every overlapping start index in ascending order;
// Count follows the CountMode used to find the pattern.
type Pattern struct {
	Text      string
	Length    int
	Count     int
	Positions []int
}

// FindPatterns returns every substring with length in [minSize, maxSize] that
// occurs more than once. Results are ordered by length, then by first position.
func FindPatterns(text []rune, minSize, maxSize int, mode CountMode) ([]Pattern, error) {
	if err := checkRange(minSize, maxSize); err != nil {
		return nil, err
	}
	var patterns []Pattern
	for size := minSize; size <= maxSize && size <= len(text); size++ {
		seen := make(map[string]int)
		var found []Pattern
		for start := 0; start+size <= len(text); start++ {
			sub := string(text[start : start+size])
			idx, ok := seen[sub]
			if !ok {
				idx = len(found)
				seen[sub] = idx
				found = append(found, Pattern{Text: sub, Length: size})
			}
			found[idx].Positions = append(found[idx].Positions, start)
		}
		for _, p := range found {
			p.Count = countOccurrences(p.Positions, size, mode)
			if p.Count > 1 {
				patterns = append(patterns, p)
			}
		}
	}
	return patterns, nil
}

// Counts returns the pattern -> occurrence count mapping.
func Counts(patterns []Pattern) map[string]int {
	out := make(map[string]int, len(patterns))
	for _, p := range patterns {
		out[p.Text] = p.Count
	}
	return out
}

// Occurrences lists every overlapping start index of pattern in text.
func Occurrences(text []rune, pattern string) []int {
	needle := []rune(pattern)
	if len(needle) == 0 {
		return nil
	}
	var positions []int
	for start := 0; start+len(needle) <= len(text); start++ {
		if runesEqual(text[start:start+len(needle)], needle) {
			positions = append(positions, start)
		}
	}
	return positions
}

func countOccurrences(positions []int, size int, mode CountMode) int {
	if mode == Overlapping {
		return len(positions)
	}
	count := 0
	next := 0
	for _, pos := range positions {
		if pos < next {
			continue
		}
		count++
		next = pos + size
	}
	return count
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
