// Package wordlist provides word list filtering helpers.
package wordlist

import (
	"unicode"

	"github.com/verte-zerg/kasiski/internal/alphabet"
)

// FilterFunc returns true when a word should be kept.
type FilterFunc func(string) bool

// FilterForProfile keeps words whose letters all belong to p, ignoring case.
// A nil profile keeps every non-empty word.
func FilterForProfile(p *alphabet.Profile) FilterFunc {
	if p == nil {
		return func(word string) bool { return word != "" }
	}
	return func(word string) bool {
		if word == "" {
			return false
		}
		for _, r := range word {
			if !p.Contains(unicode.ToLower(r)) {
				return false
			}
		}
		return true
	}
}

// Filter returns the words accepted by keep, preserving order.
func Filter(words []string, keep FilterFunc) []string {
	out := make([]string, 0, len(words))
	for _, word := range words {
		if keep(word) {
			out = append(out, word)
		}
	}
	return out
}
