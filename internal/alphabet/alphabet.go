// Package alphabet defines the ordered alphabets and reference letter
// frequencies that parameterize every analysis step.
package alphabet

import (
	"errors"
	"fmt"
	"unicode"
)

// Wildcard is the key symbol meaning "unknown"; it can never be an alphabet member.
const Wildcard = '_'

var (
	// ErrEmptyAlphabet indicates a profile without symbols.
	ErrEmptyAlphabet = errors.New("alphabet: profile must have at least one symbol")
	// ErrLengthMismatch indicates the symbol and frequency vectors differ in length.
	ErrLengthMismatch = errors.New("alphabet: symbols and frequencies must have equal length")
	// ErrDuplicateSymbol indicates a symbol listed twice.
	ErrDuplicateSymbol = errors.New("alphabet: duplicate symbol")
	// ErrReservedSymbol indicates the wildcard or an upper-case letter used as a symbol.
	ErrReservedSymbol = errors.New("alphabet: reserved symbol")
	// ErrAmbiguousCase indicates a symbol whose upper-case form lowers to a
	// different letter, such as Greek final sigma or Turkish dotless i.
	ErrAmbiguousCase = errors.New("alphabet: symbol does not survive an upper-case round trip")
	// ErrNegativeFrequency indicates a reference frequency below zero.
	ErrNegativeFrequency = errors.New("alphabet: frequencies must be non-negative")
	// ErrUnknownProfile indicates a lookup for a profile that is not registered.
	ErrUnknownProfile = errors.New("alphabet: unknown profile")
)

// Profile is an immutable ordered alphabet with its reference frequency vector.
// Frequencies are percentages indexed by alphabet position.
type Profile struct {
	name    string
	lang    string
	symbols []rune
	freqs   []float64
	index   map[rune]int
}

// New validates and builds a profile. Symbols must be lower-case and unique.
func New(name, lang string, symbols []rune, freqs []float64) (*Profile, error) {
	if len(symbols) == 0 {
		return nil, ErrEmptyAlphabet
	}
	if len(symbols) != len(freqs) {
		return nil, fmt.Errorf("%w: %d symbols, %d frequencies", ErrLengthMismatch, len(symbols), len(freqs))
	}
	index := make(map[rune]int, len(symbols))
	for i, r := range symbols {
		if r == Wildcard || unicode.ToLower(r) != r {
			return nil, fmt.Errorf("%w: %q", ErrReservedSymbol, r)
		}
		if unicode.ToLower(unicode.ToUpper(r)) != r {
			return nil, fmt.Errorf("%w: %q", ErrAmbiguousCase, r)
		}
		if _, ok := index[r]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSymbol, r)
		}
		index[r] = i
	}
	for i, f := range freqs {
		if f < 0 {
			return nil, fmt.Errorf("%w: %q=%v", ErrNegativeFrequency, symbols[i], f)
		}
	}
	return &Profile{
		name:    name,
		lang:    lang,
		symbols: append([]rune(nil), symbols...),
		freqs:   append([]float64(nil), freqs...),
		index:   index,
	}, nil
}

// MustNew is New for static tables; it panics on invalid input.
func MustNew(name, lang string, symbols []rune, freqs []float64) *Profile {
	p, err := New(name, lang, symbols, freqs)
	if err != nil {
		panic(err)
	}
	return p
}

// Name returns the profile name used for lookup.
func (p *Profile) Name() string { return p.name }

// Lang returns the language code of the reference frequencies.
func (p *Profile) Lang() string { return p.lang }

// Size returns the number of symbols N.
func (p *Profile) Size() int { return len(p.symbols) }

// Symbol returns the symbol at position i.
func (p *Profile) Symbol(i int) rune { return p.symbols[i] }

// Symbols returns a copy of the ordered symbols.
func (p *Profile) Symbols() []rune { return append([]rune(nil), p.symbols...) }

// Index returns the position of r. An upper-case r matches only when it is
// the upper-case form of a symbol, so letters such as U+0130 or the Kelvin
// sign that merely lower to a symbol are not members.
func (p *Profile) Index(r rune) (int, bool) {
	if i, ok := p.index[r]; ok {
		return i, true
	}
	lower := unicode.ToLower(r)
	if lower == r || unicode.ToUpper(lower) != r {
		return 0, false
	}
	i, ok := p.index[lower]
	return i, ok
}

// Contains reports whether r (case-folded) is an alphabet member.
func (p *Profile) Contains(r rune) bool {
	_, ok := p.Index(r)
	return ok
}

// Frequency returns the reference percentage for position i.
func (p *Profile) Frequency(i int) float64 { return p.freqs[i] }

// Frequencies returns a copy of the reference vector.
func (p *Profile) Frequencies() []float64 { return append([]float64(nil), p.freqs...) }

// Shift returns the symbol at (i + delta) mod N.
func (p *Profile) Shift(i, delta int) rune {
	n := len(p.symbols)
	return p.symbols[((i+delta)%n+n)%n]
}
