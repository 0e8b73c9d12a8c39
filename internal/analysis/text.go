// Package analysis contains the ciphertext-only statistics used to break an
// additive substitution cipher: repeated patterns, Kasiski key-length
// estimation, key slices, per-slice letter prediction and frequency fit.
package analysis

import (
	"errors"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/verte-zerg/kasiski/internal/alphabet"
)

var (
	// ErrNoPatterns indicates no repeated pattern was found, so key length cannot be estimated.
	ErrNoPatterns = errors.New("analysis: no patterns found, unable to predict key length")
	// ErrInvalidRange indicates a min/max bound pair that is empty or below 1.
	ErrInvalidRange = errors.New("analysis: invalid range")
	// ErrInvalidSlice indicates a key slice request with a bad position or key length.
	ErrInvalidSlice = errors.New("analysis: invalid key slice")
)

// Ciphertext holds the raw input and its cleaned projection.
// Raw is NFC-normalized so that it and Clean agree on alphabet members.
type Ciphertext struct {
	Raw   string
	Clean []rune
}

// NewCiphertext normalizes raw and derives the lower-case alphabet-only projection.
func NewCiphertext(p *alphabet.Profile, raw string) Ciphertext {
	raw = norm.NFC.String(raw)
	return Ciphertext{Raw: raw, Clean: Clean(p, raw)}
}

// Clean keeps alphabet members of text, lower-cased, in input order.
func Clean(p *alphabet.Profile, text string) []rune {
	out := make([]rune, 0, len(text))
	for _, r := range text {
		if i, ok := p.Index(r); ok {
			out = append(out, p.Symbol(i))
		}
	}
	return out
}

func checkRange(lo, hi int) error {
	if lo < 1 || hi < lo {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidRange, lo, hi)
	}
	return nil
}
