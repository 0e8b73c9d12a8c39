// Package pipeline composes the analysis steps into a ranked, lazily produced
// sequence of key candidates for one ciphertext.
package pipeline

import (
	"fmt"
	"iter"
	"math"

	"github.com/verte-zerg/kasiski/internal/alphabet"
	"github.com/verte-zerg/kasiski/internal/analysis"
	"github.com/verte-zerg/kasiski/internal/cipher"
)

// tieEpsilon is the error gap under which the two best rotations of a slice are a tie.
const tieEpsilon = 1e-9

// runnerUps is how many letter scores each Candidate keeps per key slot.
const runnerUps = 3

// Options bounds the pattern and key-length searches.
type Options struct {
	MinPatternLen int
	MaxPatternLen int
	MinKeyLen     int
	MaxKeyLen     int
	CountMode     analysis.CountMode
}

// DefaultOptions returns the 2..25 search ranges with overlapping counting.
func DefaultOptions() Options {
	return Options{
		MinPatternLen: 2,
		MaxPatternLen: 25,
		MinKeyLen:     2,
		MaxKeyLen:     25,
		CountMode:     analysis.Overlapping,
	}
}

// Validate checks both ranges.
func (o Options) Validate() error {
	if o.MinPatternLen < 1 || o.MaxPatternLen < o.MinPatternLen {
		return fmt.Errorf("%w: pattern length [%d, %d]", analysis.ErrInvalidRange, o.MinPatternLen, o.MaxPatternLen)
	}
	if o.MinKeyLen < 1 || o.MaxKeyLen < o.MinKeyLen {
		return fmt.Errorf("%w: key length [%d, %d]", analysis.ErrInvalidRange, o.MinKeyLen, o.MaxKeyLen)
	}
	return nil
}

// Candidate is one ranked key guess and the text it decodes to.
type Candidate struct {
	Rank      int
	KeyLength analysis.KeyLength
	Key       cipher.Key
	Fit       float64
	Decoded   string
	// Slots holds the best few letter scores for each key position.
	Slots [][]analysis.LetterScore
}

// Analysis holds the ranked key lengths for one ciphertext. Candidates are
// built on demand, so callers can stop at any point.
type Analysis struct {
	profile  *alphabet.Profile
	opts     Options
	text     analysis.Ciphertext
	patterns []analysis.Pattern
	lengths  []analysis.KeyLength
}

// Analyze cleans raw, finds repeated patterns and ranks key lengths.
// It fails with analysis.ErrNoPatterns when nothing repeats.
func Analyze(p *alphabet.Profile, raw string, opts Options) (*Analysis, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	text := analysis.NewCiphertext(p, raw)
	patterns, err := analysis.FindPatterns(text.Clean, opts.MinPatternLen, opts.MaxPatternLen, opts.CountMode)
	if err != nil {
		return nil, err
	}
	lengths, err := analysis.PredictKeyLength(text.Clean, patterns, opts.MinKeyLen, opts.MaxKeyLen)
	if err != nil {
		return nil, err
	}
	return &Analysis{profile: p, opts: opts, text: text, patterns: patterns, lengths: lengths}, nil
}

// Profile returns the alphabet profile used.
func (a *Analysis) Profile() *alphabet.Profile { return a.profile }

// Options returns the search options used.
func (a *Analysis) Options() Options { return a.opts }

// Text returns the normalized ciphertext and its cleaned projection.
func (a *Analysis) Text() analysis.Ciphertext { return a.text }

// Patterns returns the repeated patterns in discovery order.
func (a *Analysis) Patterns() []analysis.Pattern { return a.patterns }

// KeyLengths returns the ranked key-length candidates, best first.
func (a *Analysis) KeyLengths() []analysis.KeyLength { return a.lengths }

// Len returns the number of candidates.
func (a *Analysis) Len() int { return len(a.lengths) }

// Candidate builds the candidate at zero-based index i of the ranking.
func (a *Analysis) Candidate(i int) (Candidate, error) {
	if i < 0 || i >= len(a.lengths) {
		return Candidate{}, fmt.Errorf("candidate %d out of range [0, %d)", i, len(a.lengths))
	}
	kl := a.lengths[i]
	key, slots, err := RecoverKey(a.profile, a.text.Clean, kl.Length)
	if err != nil {
		return Candidate{}, err
	}
	decoded, err := cipher.Decode(a.profile, a.text.Raw, key)
	if err != nil {
		return Candidate{}, err
	}
	return Candidate{
		Rank:      i + 1,
		KeyLength: kl,
		Key:       key,
		Fit:       analysis.FrequencyFit(a.profile, []rune(decoded)),
		Decoded:   decoded,
		Slots:     slots,
	}, nil
}

// Candidates yields candidates best first. Each range starts over from the top;
// stopping the loop stops the work. A candidate that cannot be built is
// yielded as an error and ends the sequence.
func (a *Analysis) Candidates() iter.Seq2[Candidate, error] {
	return func(yield func(Candidate, error) bool) {
		for i := range a.lengths {
			c, err := a.Candidate(i)
			if err != nil {
				yield(Candidate{}, fmt.Errorf("candidate %d: %w", i+1, err))
				return
			}
			if !yield(c, nil) {
				return
			}
		}
	}
}

// RecoverKey picks the best letter for each of length key slots. A slot whose
// slice is empty or whose two best rotations tie becomes a wildcard.
func RecoverKey(p *alphabet.Profile, clean []rune, length int) (cipher.Key, [][]analysis.LetterScore, error) {
	if length < 1 {
		return nil, nil, cipher.ErrEmptyKey
	}
	key := make(cipher.Key, length)
	slots := make([][]analysis.LetterScore, length)
	for pos := 0; pos < length; pos++ {
		slice, err := analysis.KeySlice(clean, pos, length)
		if err != nil {
			return nil, nil, err
		}
		scores := analysis.PredictKeySliceLetters(p, slice)
		slots[pos] = scores[:min(runnerUps, len(scores))]
		if inconclusive(slice, scores) {
			key[pos] = cipher.WildcardSlot()
			continue
		}
		key[pos] = cipher.Letter(p, scores[0].Shift)
	}
	return key, slots, nil
}

func inconclusive(slice []rune, scores []analysis.LetterScore) bool {
	if len(slice) == 0 {
		return true
	}
	return len(scores) > 1 && math.Abs(scores[1].Error-scores[0].Error) < tieEpsilon
}

// Recall builds a candidate for a key chosen outside the ranking, such as one
// accepted in an earlier session. It carries Rank 0 and the ranked statistics
// for its length when that length was ranked.
func (a *Analysis) Recall(key cipher.Key) (Candidate, error) {
	if len(key) == 0 {
		return Candidate{}, cipher.ErrEmptyKey
	}
	kl := analysis.NewKeyLength(len(key), 0, 0)
	for _, ranked := range a.lengths {
		if ranked.Length == len(key) {
			kl = ranked
			break
		}
	}
	decoded, err := cipher.Decode(a.profile, a.text.Raw, key)
	if err != nil {
		return Candidate{}, err
	}
	return Candidate{
		KeyLength: kl,
		Key:       key,
		Fit:       analysis.FrequencyFit(a.profile, []rune(decoded)),
		Decoded:   decoded,
	}, nil
}
