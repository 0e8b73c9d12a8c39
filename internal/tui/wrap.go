package tui

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/kasiski/internal/alphabet"
)

type glyphKind uint8

const (
	glyphText glyphKind = iota
	glyphSpace
	glyphBreak
)

// glyph is one styled cell of decoded text.
type glyph struct {
	text  string
	width int
	kind  glyphKind
}

// styleDecoded styles decoded text: alphabet letters are plain, masked
// positions stand out, everything else is dimmed. Other whitespace turns
// into a single space.
func styleDecoded(p *alphabet.Profile, text []rune) []glyph {
	out := make([]glyph, 0, len(text))
	for _, r := range text {
		switch {
		case r == '\n':
			out = append(out, glyph{kind: glyphBreak})
		case r == alphabet.Wildcard:
			out = append(out, glyph{text: maskedStyle.Render(string(r)), width: 1})
		case p.Contains(r):
			out = append(out, glyph{text: letterStyle.Render(string(r)), width: runewidth.RuneWidth(r)})
		case unicode.IsSpace(r):
			out = append(out, glyph{text: otherStyle.Render(" "), width: 1, kind: glyphSpace})
		default:
			out = append(out, glyph{text: otherStyle.Render(string(r)), width: runewidth.RuneWidth(r)})
		}
	}
	return out
}

func spanWidth(gs []glyph) int {
	w := 0
	for _, g := range gs {
		w += g.width
	}
	return w
}

// wrapGlyphs fills lines up to width, moving whole words to the next line
// and splitting only words that are wider than a line. Spaces at a soft
// break are dropped; hard breaks are kept. width <= 0 disables wrapping.
func wrapGlyphs(gs []glyph, width int) string {
	var b strings.Builder
	col := 0
	var gap []glyph
	newline := func() {
		b.WriteByte('\n')
		col = 0
	}
	for i := 0; i < len(gs); {
		switch gs[i].kind {
		case glyphBreak:
			gap = gap[:0]
			newline()
			i++
			continue
		case glyphSpace:
			gap = append(gap, gs[i])
			i++
			continue
		}
		j := i
		for j < len(gs) && gs[j].kind == glyphText {
			j++
		}
		word := gs[i:j]
		i = j

		if width > 0 && col > 0 && col+spanWidth(gap)+spanWidth(word) > width {
			newline()
			gap = gap[:0]
		}
		for _, g := range gap {
			b.WriteString(g.text)
			col += g.width
		}
		gap = gap[:0]
		for _, g := range word {
			if width > 0 && col > 0 && col+g.width > width {
				newline()
			}
			b.WriteString(g.text)
			col += g.width
		}
	}
	return b.String()
}

// renderKey styles a key string, highlighting wildcard slots.
func renderKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		style := keyStyle
		if r == alphabet.Wildcard {
			style = maskedStyle
		}
		b.WriteString(style.Render(string(r)))
	}
	return b.String()
}
