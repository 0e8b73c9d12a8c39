package analysis

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/kasiski/internal/alphabet"
	"github.com/verte-zerg/kasiski/internal/cipher"
)

func loadPlaintext(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("testdata/plain_en.txt")
	require.NoError(t, err)
	return string(data)
}

func TestNewCiphertextCleansAndNormalizes(t *testing.T) {
	ct := NewCiphertext(alphabet.English, "Hello, World! 42")
	assert.Equal(t, "Hello, World! 42", ct.Raw)
	assert.Equal(t, "helloworld", string(ct.Clean))

	// Е + combining diaeresis composes to Ё.
	ru := NewCiphertext(alphabet.Russian, "\u0415\u0308лка")
	assert.Equal(t, "ёлка", string(ru.Clean))
	assert.Equal(t, "\u0401лка", ru.Raw)
}

func TestFindPatternsRepeatingBlock(t *testing.T) {
	text := []rune("abcabcabcabc")
	patterns, err := FindPatterns(text, 3, 3, NonOverlapping)
	require.NoError(t, err)

	counts := Counts(patterns)
	assert.Equal(t, 4, counts["abc"])
	assert.Equal(t, "abc", patterns[0].Text)
	assert.Equal(t, []int{0, 3, 6, 9}, patterns[0].Positions)

	lengths, err := PredictKeyLength(text, patterns[:1], 2, 6)
	require.NoError(t, err)
	for _, d := range Distances(text, patterns[:1]) {
		assert.Equal(t, 3, d)
	}
	assert.Equal(t, 3, lengths[0].Length)
	assert.InDelta(t, 1.0, lengths[0].SuccessRatio, 1e-12)
}

func TestFindPatternsOrderAndFilter(t *testing.T) {
	patterns, err := FindPatterns([]rune("xyzxyq"), 2, 3, Overlapping)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, Pattern{Text: "xy", Length: 2, Count: 2, Positions: []int{0, 3}}, patterns[0])

	patterns, err = FindPatterns([]rune("bbaabbaa"), 2, 4, Overlapping)
	require.NoError(t, err)
	var texts []string
	for _, p := range patterns {
		texts = append(texts, p.Text)
	}
	assert.Equal(t, []string{"bb", "ba", "aa", "bba", "baa", "bbaa"}, texts)
}

func TestCountModesDisagreeOnSelfOverlap(t *testing.T) {
	text := []rune("aaaa")

	over, err := FindPatterns(text, 2, 3, Overlapping)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"aa": 3, "aaa": 2}, Counts(over))

	non, err := FindPatterns(text, 2, 3, NonOverlapping)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"aa": 2}, Counts(non))
	assert.Equal(t, []int{0, 1, 2}, non[0].Positions)
}

func TestFindPatternsRange(t *testing.T) {
	_, err := FindPatterns([]rune("abc"), 0, 3, Overlapping)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = FindPatterns([]rune("abc"), 4, 3, Overlapping)
	assert.ErrorIs(t, err, ErrInvalidRange)

	patterns, err := FindPatterns([]rune("abab"), 2, 25, Overlapping)
	require.NoError(t, err)
	assert.Len(t, patterns, 1)
}

func TestParseCountMode(t *testing.T) {
	m, err := ParseCountMode("Non-Overlapping")
	require.NoError(t, err)
	assert.Equal(t, NonOverlapping, m)

	m, err = ParseCountMode("")
	require.NoError(t, err)
	assert.Equal(t, Overlapping, m)

	_, err = ParseCountMode("sometimes")
	assert.Error(t, err)
}

func TestPredictKeyLengthNoPatterns(t *testing.T) {
	lengths, err := PredictKeyLength([]rune("abcdef"), nil, 2, 6)
	assert.ErrorIs(t, err, ErrNoPatterns)
	assert.Nil(t, lengths)
}

func TestPredictKeyLengthRatiosSumToOne(t *testing.T) {
	key, err := cipher.ParseKey(alphabet.English, "lemon")
	require.NoError(t, err)
	enc, err := cipher.Encode(alphabet.English, loadPlaintext(t), key)
	require.NoError(t, err)
	text := Clean(alphabet.English, enc)

	patterns, err := FindPatterns(text, 2, 25, Overlapping)
	require.NoError(t, err)
	lengths, err := PredictKeyLength(text, patterns, 2, 25)
	require.NoError(t, err)
	require.Len(t, lengths, 24)

	for i, kl := range lengths {
		assert.InDelta(t, 1.0, kl.SuccessRatio+kl.FailureRatio, 1e-12)
		assert.False(t, kl.Insufficient)
		if i > 0 {
			assert.LessOrEqual(t, lengths[i-1].FailureRatio, kl.FailureRatio)
		}
	}
}

func TestPredictKeyLengthDegeneratePool(t *testing.T) {
	text := []rune("abcdef")
	patterns := []Pattern{{Text: "ab", Length: 2, Count: 2, Positions: []int{0}}}
	lengths, err := PredictKeyLength(text, patterns, 2, 4)
	require.NoError(t, err)
	require.Len(t, lengths, 3)
	for _, kl := range lengths {
		assert.True(t, kl.Insufficient)
		assert.Equal(t, 0.0, kl.SuccessRatio)
		assert.Equal(t, 1.0, kl.FailureRatio)
	}
	assert.Equal(t, 2, lengths[0].Length)
}

func TestDistancesScansWhenPositionsMissing(t *testing.T) {
	text := []rune("abxxabyyab")
	assert.Equal(t, []int{4, 4}, Distances(text, []Pattern{{Text: "ab", Length: 2}}))
	assert.Equal(t, []int{0, 4, 8}, Occurrences(text, "ab"))
}

func TestKeySlice(t *testing.T) {
	got, err := KeySlice([]rune("abcdefghi"), 1, 3)
	require.NoError(t, err)
	assert.Equal(t, "beh", string(got))

	_, err = KeySlice([]rune("abc"), 3, 3)
	assert.ErrorIs(t, err, ErrInvalidSlice)
	_, err = KeySlice([]rune("abc"), 0, 0)
	assert.ErrorIs(t, err, ErrInvalidSlice)
}

func TestKeySlicePartitions(t *testing.T) {
	text := []rune("thequickbrownfoxjumpsoverthelazydog")
	for keyLength := 1; keyLength <= 9; keyLength++ {
		slices := make([][]rune, keyLength)
		total := 0
		for pos := 0; pos < keyLength; pos++ {
			s, err := KeySlice(text, pos, keyLength)
			require.NoError(t, err)
			slices[pos] = s
			total += len(s)
		}
		require.Equal(t, len(text), total)

		rebuilt := make([]rune, len(text))
		for pos, s := range slices {
			for j, r := range s {
				rebuilt[pos+j*keyLength] = r
			}
		}
		assert.Equal(t, string(text), string(rebuilt))
	}
}

func TestFrequencies(t *testing.T) {
	tiny := alphabet.MustNew("tiny", "xx", []rune("abc"), []float64{50, 25, 25})
	assert.Equal(t, []float64{50, 25, 25}, Frequencies(tiny, []rune("a_bAc!")))
	assert.Equal(t, []float64{0, 0, 0}, Frequencies(tiny, nil))
}

func TestFrequencyFitOfReferenceDistributionIsZero(t *testing.T) {
	tiny := alphabet.MustNew("tiny", "xx", []rune("abcd"), []float64{40, 30, 20, 10})
	assert.InDelta(t, 0.0, FrequencyFit(tiny, []rune("aaaabbbccd")), 1e-9)
	assert.Greater(t, FrequencyFit(tiny, []rune("dddd")), 0.0)
}

func TestPredictKeySliceLettersFindsCaesarShift(t *testing.T) {
	key, err := cipher.ParseKey(alphabet.English, "k")
	require.NoError(t, err)
	enc, err := cipher.Encode(alphabet.English, loadPlaintext(t), key)
	require.NoError(t, err)

	scores := PredictKeySliceLetters(alphabet.English, Clean(alphabet.English, enc))
	require.Len(t, scores, 26)
	assert.Equal(t, 'k', scores[0].Letter)
	assert.Equal(t, 10, scores[0].Shift)
	for i := 1; i < len(scores); i++ {
		assert.LessOrEqual(t, scores[i-1].Error, scores[i].Error)
	}
}

func TestPredictKeySliceLettersSynthetic(t *testing.T) {
	tiny := alphabet.MustNew("tiny", "xx", []rune("abcd"), []float64{40, 30, 20, 10})
	// "aaaabbbccd" shifted by one position.
	scores := PredictKeySliceLetters(tiny, []rune("bbbbcccdda"))
	assert.Equal(t, 'b', scores[0].Letter)
	assert.InDelta(t, 0.0, scores[0].Error, 1e-9)
}

func TestKeyFit(t *testing.T) {
	plain := loadPlaintext(t)
	right, err := cipher.ParseKey(alphabet.English, "lemon")
	require.NoError(t, err)
	wrong, err := cipher.ParseKey(alphabet.English, "melon")
	require.NoError(t, err)
	enc, err := cipher.Encode(alphabet.English, plain, right)
	require.NoError(t, err)

	good, err := KeyFit(alphabet.English, enc, right)
	require.NoError(t, err)
	bad, err := KeyFit(alphabet.English, enc, wrong)
	require.NoError(t, err)
	assert.Less(t, good, bad)
	assert.InDelta(t, FrequencyFit(alphabet.English, []rune(plain)), good, 1e-9)

	_, err = KeyFit(alphabet.English, enc, nil)
	assert.ErrorIs(t, err, cipher.ErrEmptyKey)
}
