package wordfreq

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/verte-zerg/kasiski/internal/wordlist"
)

const (
	minWordLen = 2
	maxWordLen = 20
	// minLetterShare drops letters below this percentage when the alphabet is
	// derived from the data.
	minLetterShare = 0.01
)

// LetterStats is a letter-frequency table derived from word frequencies.
type LetterStats struct {
	Symbols     []rune
	Frequencies []float64
}

// Words returns up to limit distinct alphabetic words of a list, most
// frequent first. keep may be nil to accept every word.
func (d *Dataset) Words(lang, list string, limit int, keep wordlist.FilterFunc) ([]string, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}
	entries, err := d.entries(lang, list)
	if err != nil {
		return nil, err
	}

	words := make([]string, 0, min(limit, len(entries)))
	seen := make(map[string]struct{}, cap(words))
	for _, e := range entries {
		if len(words) == limit {
			break
		}
		if _, dup := seen[e.word]; dup || !usableWord(e.word) {
			continue
		}
		if keep != nil && !keep(e.word) {
			continue
		}
		seen[e.word] = struct{}{}
		words = append(words, e.word)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("no usable words in %s/%s", lang, list)
	}
	return words, nil
}

func usableWord(w string) bool {
	n := utf8.RuneCountInString(w)
	if n < minWordLen || n > maxWordLen {
		return false
	}
	return strings.IndexFunc(w, func(r rune) bool { return !unicode.IsLetter(r) }) < 0
}

// LetterFrequencies weights every letter of every word in a list by the
// word's frequency and returns percentages over symbols. When symbols is
// empty the alphabet is derived from the data: letters at or above
// minLetterShare, in code point order.
func (d *Dataset) LetterFrequencies(lang, list string, symbols []rune) (LetterStats, error) {
	entries, err := d.entries(lang, list)
	if err != nil {
		return LetterStats{}, err
	}

	weights := make(map[rune]float64)
	grand := 0.0
	for _, e := range entries {
		w := math.Pow(10, e.zipf-9)
		for _, r := range norm.NFC.String(strings.ToLower(e.word)) {
			if unicode.IsLetter(r) {
				weights[r] += w
				grand += w
			}
		}
	}

	if len(symbols) == 0 {
		for r, w := range weights {
			if w/grand*100 >= minLetterShare {
				symbols = append(symbols, r)
			}
		}
		slices.Sort(symbols)
	}

	total := 0.0
	for _, r := range symbols {
		total += weights[r]
	}
	if total == 0 {
		return LetterStats{}, fmt.Errorf("no letters of the alphabet found in %s/%s", lang, list)
	}
	freqs := make([]float64, len(symbols))
	for i, r := range symbols {
		freqs[i] = weights[r] / total * 100
	}
	return LetterStats{Symbols: symbols, Frequencies: freqs}, nil
}

var attribution = []string{
	"Word lists generated from the wordfreq dataset.",
	"Source: https://github.com/rspeer/wordfreq",
	"Data license: Creative Commons Attribution-ShareAlike 4.0 International (CC BY-SA 4.0).",
	"This word list is licensed CC BY-SA 4.0: https://creativecommons.org/licenses/by-sa/4.0/",
	"Changes were made: filtered to words spelled in the target alphabet and truncated to the requested size.",
	"Includes data from Google Books Ngrams: https://books.google.com/ngrams",
	"Includes data from the Leeds Internet Corpus: https://corpus.leeds.ac.uk/",
	"For other upstream sources, see the wordfreq project documentation.",
}

var dataLicense = []string{
	"This word list is licensed under CC BY-SA 4.0.",
	"https://creativecommons.org/licenses/by-sa/4.0/",
}

// WriteAttribution writes ATTRIBUTION.txt, the wheel's LICENSE.txt and
// DATA_LICENSE.txt into outDir.
func (d *Dataset) WriteAttribution(outDir string) error {
	if d.license == nil {
		return fmt.Errorf("license file not found in wheel")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	rc, err := d.license.Open()
	if err != nil {
		return fmt.Errorf("failed to open license: %w", err)
	}
	defer func() {
		_ = rc.Close()
	}()
	license, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("failed to read license: %w", err)
	}

	files := map[string][]byte{
		"ATTRIBUTION.txt":  []byte(strings.Join(attribution, "\n") + "\n"),
		"LICENSE.txt":      license,
		"DATA_LICENSE.txt": []byte(strings.Join(dataLicense, "\n") + "\n"),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(outDir, name), data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}
