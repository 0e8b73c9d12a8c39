package cipher

import (
	"strings"
	"unicode"

	"github.com/verte-zerg/kasiski/internal/alphabet"
)

// Encode shifts every alphabet member of text forward by the next key slot.
func Encode(p *alphabet.Profile, text string, key Key) (string, error) {
	return transform(p, text, key, 1)
}

// Decode shifts every alphabet member of text backward by the next key slot.
// A wildcard slot masks the character with '_'.
func Decode(p *alphabet.Profile, text string, key Key) (string, error) {
	return transform(p, text, key, -1)
}

// transform walks text once; only alphabet members advance the keystream
// cursor, everything else is copied verbatim. Output letters keep the case
// of the input letter.
func transform(p *alphabet.Profile, text string, key Key, sign int) (string, error) {
	if len(key) == 0 {
		return "", ErrEmptyKey
	}
	var b strings.Builder
	b.Grow(len(text))
	cursor := 0
	for _, r := range text {
		pos, ok := p.Index(r)
		if !ok {
			b.WriteRune(r)
			continue
		}
		slot := key[cursor%len(key)]
		cursor++
		if !slot.known {
			b.WriteRune(alphabet.Wildcard)
			continue
		}
		out := p.Shift(pos, sign*slot.shift)
		if r != p.Symbol(pos) {
			out = unicode.ToUpper(out)
		}
		b.WriteRune(out)
	}
	return b.String(), nil
}
