package analysis

import (
	"math"
	"sort"

	"github.com/verte-zerg/kasiski/internal/alphabet"
	"github.com/verte-zerg/kasiski/internal/cipher"
)

// LetterScore is the error of assuming Letter enciphered a slice. Lower is better.
type LetterScore struct {
	Letter rune
	Shift  int
	Error  float64
}

// Frequencies returns the percentage of each alphabet letter in text, indexed
// by alphabet position. Non-members (including '_') are ignored; an input
// without members yields all zeros.
func Frequencies(p *alphabet.Profile, text []rune) []float64 {
	hist := make([]float64, p.Size())
	total := 0
	for _, r := range text {
		if i, ok := p.Index(r); ok {
			hist[i]++
			total++
		}
	}
	if total == 0 {
		return hist
	}
	for i := range hist {
		hist[i] = hist[i] / float64(total) * 100
	}
	return hist
}

// PredictKeySliceLetters scores every alphabet rotation of the slice histogram
// against the reference frequencies. The result is sorted by ascending error;
// element 0 is the most probable key letter.
func PredictKeySliceLetters(p *alphabet.Profile, slice []rune) []LetterScore {
	hist := Frequencies(p, slice)
	ref := p.Frequencies()
	n := p.Size()

	scores := make([]LetterScore, n)
	rotated := make([]float64, n)
	for shift := 0; shift < n; shift++ {
		for j := 0; j < n; j++ {
			rotated[j] = hist[(j+shift)%n]
		}
		scores[shift] = LetterScore{Letter: p.Symbol(shift), Shift: shift, Error: rmse(rotated, ref)}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Error < scores[j].Error
	})
	return scores
}

// FrequencyFit is the RMSE between the letter histogram of text and the
// reference frequencies, without rotation. Lower means more language-like.
func FrequencyFit(p *alphabet.Profile, text []rune) float64 {
	return rmse(Frequencies(p, text), p.Frequencies())
}

// KeyFit decodes ciphertext with key and scores the result with FrequencyFit.
func KeyFit(p *alphabet.Profile, ciphertext string, key cipher.Key) (float64, error) {
	decoded, err := cipher.Decode(p, ciphertext, key)
	if err != nil {
		return 0, err
	}
	return FrequencyFit(p, []rune(decoded)), nil
}

func rmse(observed, expected []float64) float64 {
	if len(observed) == 0 {
		return 0
	}
	var sum float64
	for i, v := range observed {
		d := v - expected[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(observed)))
}
