package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/kasiski/internal/alphabet"
	"github.com/verte-zerg/kasiski/internal/analysis"
	"github.com/verte-zerg/kasiski/internal/cache"
	"github.com/verte-zerg/kasiski/internal/cipher"
)

func lemonCiphertext(t *testing.T) (plain, encoded string) {
	t.Helper()
	data, err := os.ReadFile("testdata/plain_en.txt")
	require.NoError(t, err)
	key, err := cipher.ParseKey(alphabet.English, "lemon")
	require.NoError(t, err)
	encoded, err = cipher.Encode(alphabet.English, string(data), key)
	require.NoError(t, err)
	return string(data), encoded
}

func candidateForLength(t *testing.T, a *Analysis, length int) Candidate {
	t.Helper()
	for c, err := range a.Candidates() {
		require.NoError(t, err)
		if c.KeyLength.Length == length {
			return c
		}
	}
	t.Fatalf("no candidate with key length %d", length)
	return Candidate{}
}

func TestAnalyzeRecoversKey(t *testing.T) {
	plain, encoded := lemonCiphertext(t)
	a, err := Analyze(alphabet.English, encoded, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 24, a.Len())

	c := candidateForLength(t, a, 5)
	assert.Equal(t, "lemon", c.Key.String())
	assert.Equal(t, plain, c.Decoded)
	assert.Len(t, c.Slots, 5)
	for _, slot := range c.Slots {
		assert.Len(t, slot, runnerUps)
	}
	assert.Equal(t, 'l', c.Slots[0][0].Letter)
	assert.Less(t, c.Fit, 2.0)
}

func TestCandidatesRankedAndLazy(t *testing.T) {
	_, encoded := lemonCiphertext(t)
	a, err := Analyze(alphabet.English, encoded, DefaultOptions())
	require.NoError(t, err)

	var ranks []int
	for c, err := range a.Candidates() {
		require.NoError(t, err)
		ranks = append(ranks, c.Rank)
		if len(ranks) == 2 {
			break
		}
	}
	assert.Equal(t, []int{1, 2}, ranks)

	// A second range starts over from the best candidate.
	for c, err := range a.Candidates() {
		require.NoError(t, err)
		assert.Equal(t, 1, c.Rank)
		break
	}

	lengths := a.KeyLengths()
	for i := 1; i < len(lengths); i++ {
		assert.LessOrEqual(t, lengths[i-1].FailureRatio, lengths[i].FailureRatio)
	}
}

func TestCandidatesReportBuildError(t *testing.T) {
	_, encoded := lemonCiphertext(t)
	a, err := Analyze(alphabet.English, encoded, DefaultOptions())
	require.NoError(t, err)
	// A zero-length entry cannot produce a key.
	a.lengths = append(a.lengths[:1:1], analysis.NewKeyLength(0, 0, 0))

	var got []int
	var last error
	for c, err := range a.Candidates() {
		if err != nil {
			last = err
			continue
		}
		got = append(got, c.Rank)
	}
	assert.Equal(t, []int{1}, got)
	require.ErrorIs(t, last, cipher.ErrEmptyKey)
}

func TestCandidateOutOfRange(t *testing.T) {
	_, encoded := lemonCiphertext(t)
	a, err := Analyze(alphabet.English, encoded, DefaultOptions())
	require.NoError(t, err)

	_, err = a.Candidate(a.Len())
	assert.Error(t, err)
	_, err = a.Candidate(-1)
	assert.Error(t, err)
}

func TestAnalyzeNoPatterns(t *testing.T) {
	_, err := Analyze(alphabet.English, "abcdefg", DefaultOptions())
	assert.ErrorIs(t, err, analysis.ErrNoPatterns)
}

func TestOptionsValidate(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())

	opts := DefaultOptions()
	opts.MinKeyLen = 0
	assert.ErrorIs(t, opts.Validate(), analysis.ErrInvalidRange)

	opts = DefaultOptions()
	opts.MaxPatternLen = 1
	assert.ErrorIs(t, opts.Validate(), analysis.ErrInvalidRange)

	_, err := Analyze(alphabet.English, "abab", opts)
	assert.ErrorIs(t, err, analysis.ErrInvalidRange)
}

func TestRecoverKeyEmptySliceIsWildcard(t *testing.T) {
	key, slots, err := RecoverKey(alphabet.English, []rune("abab"), 5)
	require.NoError(t, err)
	require.Len(t, key, 5)
	for i := 0; i < 4; i++ {
		assert.True(t, key[i].Known(), "slot %d", i)
	}
	assert.False(t, key[4].Known())
	assert.Equal(t, 1, key.Wildcards())
	assert.Len(t, slots[4], runnerUps)

	decoded, err := cipher.Decode(alphabet.English, "abab", key)
	require.NoError(t, err)
	assert.Len(t, decoded, 4)

	_, _, err = RecoverKey(alphabet.English, []rune("abab"), 0)
	assert.ErrorIs(t, err, cipher.ErrEmptyKey)
}

func TestRecoverKeyTieIsWildcard(t *testing.T) {
	flat := alphabet.MustNew("flat", "xx", []rune("ab"), []float64{50, 50})
	key, _, err := RecoverKey(flat, []rune("abab"), 1)
	require.NoError(t, err)
	assert.False(t, key[0].Known())
}

func TestSnapshotRestore(t *testing.T) {
	_, encoded := lemonCiphertext(t)
	opts := DefaultOptions()
	a, err := Analyze(alphabet.English, encoded, opts)
	require.NoError(t, err)

	payload, err := a.Snapshot()
	require.NoError(t, err)
	b, err := Restore(alphabet.English, encoded, opts, payload)
	require.NoError(t, err)

	assert.Equal(t, a.Patterns(), b.Patterns())
	assert.Equal(t, a.KeyLengths(), b.KeyLengths())

	first, err := a.Candidate(0)
	require.NoError(t, err)
	restored, err := b.Candidate(0)
	require.NoError(t, err)
	assert.Equal(t, first, restored)

	_, err = Restore(alphabet.Russian, encoded, opts, payload)
	assert.Error(t, err)
}

func TestDigestIgnoresFormatting(t *testing.T) {
	opts := DefaultOptions()
	p := alphabet.English
	a := Digest(p, analysis.NewCiphertext(p, "Lxfopv, ef rnhr!").Clean, opts)
	b := Digest(p, analysis.NewCiphertext(p, "lxfopvefrnhr").Clean, opts)
	assert.Equal(t, a, b)

	opts.CountMode = analysis.NonOverlapping
	assert.NotEqual(t, a, Digest(p, []rune("lxfopvefrnhr"), opts))
	assert.NotEqual(t, a, Digest(alphabet.Russian, []rune("lxfopvefrnhr"), DefaultOptions()))
}

func TestAnalyzeCached(t *testing.T) {
	_, encoded := lemonCiphertext(t)
	c, err := cache.Open(t.TempDir())
	require.NoError(t, err)

	a, hit, err := AnalyzeCached(c, alphabet.English, encoded, DefaultOptions())
	require.NoError(t, err)
	assert.False(t, hit)

	b, hit, err := AnalyzeCached(c, alphabet.English, encoded, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, a.KeyLengths(), b.KeyLengths())

	_, hit, err = AnalyzeCached(nil, alphabet.English, encoded, DefaultOptions())
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRunBatch(t *testing.T) {
	_, encoded := lemonCiphertext(t)
	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	flat := filepath.Join(dir, "flat.txt")
	require.NoError(t, os.WriteFile(good, []byte(encoded), 0o644))
	require.NoError(t, os.WriteFile(flat, []byte("abcdefg"), 0o644))
	missing := filepath.Join(dir, "missing.txt")

	results, err := RunBatch(context.Background(), []string{good, flat, missing}, BatchConfig{
		Profile: alphabet.English,
		Options: DefaultOptions(),
		Top:     3,
		Jobs:    2,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, good, results[0].Path)
	assert.NoError(t, results[0].Err)
	assert.Len(t, results[0].Candidates, 3)

	assert.ErrorIs(t, results[1].Err, analysis.ErrNoPatterns)
	assert.ErrorIs(t, results[2].Err, os.ErrNotExist)
}

func TestRunBatchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunBatch(ctx, []string{"a", "b"}, BatchConfig{Profile: alphabet.English, Options: DefaultOptions(), Top: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecall(t *testing.T) {
	plain, encoded := lemonCiphertext(t)
	a, err := Analyze(alphabet.English, encoded, DefaultOptions())
	require.NoError(t, err)

	key, err := cipher.ParseKey(alphabet.English, "lemon")
	require.NoError(t, err)
	c, err := a.Recall(key)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Rank)
	assert.Equal(t, 5, c.KeyLength.Length)
	assert.False(t, c.KeyLength.Insufficient)
	assert.Equal(t, plain, c.Decoded)

	long, err := cipher.ParseKey(alphabet.English, strings.Repeat("a", 30))
	require.NoError(t, err)
	c, err = a.Recall(long)
	require.NoError(t, err)
	assert.True(t, c.KeyLength.Insufficient)

	_, err = a.Recall(nil)
	assert.ErrorIs(t, err, cipher.ErrEmptyKey)
}
