// Package cipher implements the additive (Vigenère-family) substitution
// over an alphabet profile, with wildcard key slots.
package cipher

import (
	"errors"
	"fmt"
	"strings"

	"github.com/verte-zerg/kasiski/internal/alphabet"
)

var (
	// ErrEmptyKey indicates a key with no slots.
	ErrEmptyKey = errors.New("cipher: key must not be empty")
	// ErrInvalidKeyLetter indicates a key character outside the alphabet.
	ErrInvalidKeyLetter = errors.New("cipher: key letter not in alphabet")
)

// Slot is one key position: either a known letter or a wildcard.
type Slot struct {
	known  bool
	letter rune
	shift  int
}

// Letter returns a known slot for the symbol at position shift.
func Letter(p *alphabet.Profile, shift int) Slot {
	return Slot{known: true, letter: p.Symbol(shift), shift: shift}
}

// WildcardSlot returns an unknown slot.
func WildcardSlot() Slot {
	return Slot{}
}

// Known reports whether the slot holds a letter.
func (s Slot) Known() bool { return s.known }

// Shift returns the alphabet position of a known slot.
func (s Slot) Shift() int { return s.shift }

// Rune returns the slot letter or the wildcard symbol.
func (s Slot) Rune() rune {
	if !s.known {
		return alphabet.Wildcard
	}
	return s.letter
}

// Key is an ordered sequence of slots.
type Key []Slot

// ParseKey reads a key string; '_' marks a wildcard slot.
func ParseKey(p *alphabet.Profile, s string) (Key, error) {
	if s == "" {
		return nil, ErrEmptyKey
	}
	key := make(Key, 0, len(s))
	for _, r := range s {
		if r == alphabet.Wildcard {
			key = append(key, WildcardSlot())
			continue
		}
		i, ok := p.Index(r)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKeyLetter, r)
		}
		key = append(key, Letter(p, i))
	}
	return key, nil
}

// String renders the key with '_' for wildcard slots.
func (k Key) String() string {
	var b strings.Builder
	for _, s := range k {
		b.WriteRune(s.Rune())
	}
	return b.String()
}

// Wildcards returns the number of unknown slots.
func (k Key) Wildcards() int {
	n := 0
	for _, s := range k {
		if !s.known {
			n++
		}
	}
	return n
}
