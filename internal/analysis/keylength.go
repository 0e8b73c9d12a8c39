package analysis

import "sort"

// KeyLength scores one candidate key length by how many pooled recurrence
// distances it divides. SuccessRatio + FailureRatio is always 1.
type KeyLength struct {
	Length       int
	Successes    int
	Failures     int
	SuccessRatio float64
	FailureRatio float64
	// Insufficient is set when the pooled distance set is empty.
	Insufficient bool
}

// NewKeyLength derives the ratios for a length from its divisibility counts.
// An empty pool is flagged Insufficient and scored as a total failure.
func NewKeyLength(length, successes, failures int) KeyLength {
	kl := KeyLength{Length: length, Successes: successes, Failures: failures}
	total := successes + failures
	if total == 0 {
		kl.Insufficient = true
		kl.FailureRatio = 1
		return kl
	}
	kl.SuccessRatio = float64(successes) / float64(total)
	kl.FailureRatio = 1 - kl.SuccessRatio
	return kl
}

// SortKeyLengths orders candidates by ascending failure ratio, keeping the
// input order for ties.
func SortKeyLengths(lengths []KeyLength) {
	sort.SliceStable(lengths, func(i, j int) bool {
		return lengths[i].FailureRatio < lengths[j].FailureRatio
	})
}

// Distances pools the gaps between consecutive occurrences of every pattern.
// Patterns without Positions are located by scanning text.
func Distances(text []rune, patterns []Pattern) []int {
	var distances []int
	for _, p := range patterns {
		positions := p.Positions
		if positions == nil {
			positions = Occurrences(text, p.Text)
		}
		for i := 1; i < len(positions); i++ {
			distances = append(distances, positions[i]-positions[i-1])
		}
	}
	return distances
}

// PredictKeyLength ranks key lengths in [minLen, maxLen] using Kasiski
// examination: the fraction of pooled pattern distances each length divides.
// The result is sorted by ascending failure ratio; ties keep the shorter length first.
func PredictKeyLength(text []rune, patterns []Pattern, minLen, maxLen int) ([]KeyLength, error) {
	if len(patterns) == 0 {
		return nil, ErrNoPatterns
	}
	if err := checkRange(minLen, maxLen); err != nil {
		return nil, err
	}
	distances := Distances(text, patterns)

	lengths := make([]KeyLength, 0, maxLen-minLen+1)
	for l := minLen; l <= maxLen; l++ {
		successes := 0
		for _, d := range distances {
			if d%l == 0 {
				successes++
			}
		}
		lengths = append(lengths, NewKeyLength(l, successes, len(distances)-successes))
	}
	SortKeyLengths(lengths)
	return lengths, nil
}
