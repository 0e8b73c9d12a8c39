// Package generator builds sample plaintexts and random keys.
package generator

import (
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/verte-zerg/kasiski/internal/alphabet"
	"github.com/verte-zerg/kasiski/internal/cipher"
)

// Generator produces randomized sample material.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a deterministic Generator.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Words selects count words uniformly and applies caps/punctuation rules.
func (g *Generator) Words(words []string, count int, capsPct, punctPct float64, punctSet []rune) []string {
	if len(words) == 0 {
		return nil
	}
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		word := words[g.rnd.Intn(len(words))]
		word = applyCaps(g.rnd, word, capsPct)
		word = applyPunct(g.rnd, word, punctPct, punctSet)
		result = append(result, word)
	}
	return result
}

// Text joins generated words into lines of at most lineWidth runes.
func (g *Generator) Text(words []string, count, lineWidth int, capsPct, punctPct float64, punctSet []rune) string {
	picked := g.Words(words, count, capsPct, punctPct, punctSet)
	if lineWidth <= 0 {
		return strings.Join(picked, " ")
	}
	var b strings.Builder
	width := 0
	for i, word := range picked {
		n := len([]rune(word))
		switch {
		case i == 0:
		case width+1+n > lineWidth:
			b.WriteByte('\n')
			width = 0
		default:
			b.WriteByte(' ')
			width++
		}
		b.WriteString(word)
		width += n
	}
	return b.String()
}

// Key returns a random key of length n drawn uniformly from p's symbols.
func (g *Generator) Key(p *alphabet.Profile, n int) (cipher.Key, error) {
	if n <= 0 {
		return nil, cipher.ErrEmptyKey
	}
	key := make(cipher.Key, 0, n)
	for i := 0; i < n; i++ {
		key = append(key, cipher.Letter(p, g.rnd.Intn(p.Size())))
	}
	return key, nil
}

func applyCaps(rnd *rand.Rand, word string, capsPct float64) string {
	if capsPct <= 0 {
		return word
	}
	if rnd.Float64() > capsPct {
		return word
	}
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func applyPunct(rnd *rand.Rand, word string, punctPct float64, punctSet []rune) string {
	if punctPct <= 0 || len(punctSet) == 0 {
		return word
	}
	if rnd.Float64() > punctPct {
		return word
	}
	punct := punctSet[rnd.Intn(len(punctSet))]
	return word + string(punct)
}
