package pipeline

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"

	"fortio.org/safecast"

	"github.com/verte-zerg/kasiski/internal/alphabet"
	"github.com/verte-zerg/kasiski/internal/analysis"
	"github.com/verte-zerg/kasiski/internal/cache"
)

// Digest identifies an analysis by profile, options and cleaned text. Raw
// formatting does not change the digest.
func Digest(p *alphabet.Profile, clean []rune, opts Options) cache.Key {
	h := sha256.New()
	var buf [8]byte
	writeInt := func(v int) {
		binary.BigEndian.PutUint64(buf[:], uint64(v))
		_, _ = h.Write(buf[:])
	}
	_, _ = h.Write([]byte(p.Name()))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(string(p.Symbols())))
	for _, f := range p.Frequencies() {
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(f))
		_, _ = h.Write(buf[:])
	}
	writeInt(opts.MinPatternLen)
	writeInt(opts.MaxPatternLen)
	writeInt(opts.MinKeyLen)
	writeInt(opts.MaxKeyLen)
	writeInt(int(opts.CountMode))
	_, _ = h.Write([]byte(string(clean)))

	var key cache.Key
	copy(key[:], h.Sum(nil))
	return key
}

// Snapshot converts the pattern index and ranking into a cache payload.
func (a *Analysis) Snapshot() (*cache.Payload, error) {
	textLen, err := safecast.Conv[uint32](len(a.text.Clean))
	if err != nil {
		return nil, fmt.Errorf("text too long to cache: %w", err)
	}
	payload := &cache.Payload{
		Profile:  a.profile.Name(),
		TextLen:  textLen,
		Patterns: make([]cache.PatternEntry, 0, len(a.patterns)),
		Lengths:  make([]cache.LengthEntry, 0, len(a.lengths)),
	}
	for _, p := range a.patterns {
		count, err := safecast.Conv[uint32](p.Count)
		if err != nil {
			return nil, err
		}
		positions := make([]uint32, len(p.Positions))
		for i, pos := range p.Positions {
			if positions[i], err = safecast.Conv[uint32](pos); err != nil {
				return nil, err
			}
		}
		payload.Patterns = append(payload.Patterns, cache.PatternEntry{Text: p.Text, Count: count, Positions: positions})
	}
	for _, kl := range a.lengths {
		length, err := safecast.Conv[uint16](kl.Length)
		if err != nil {
			return nil, err
		}
		successes, err := safecast.Conv[uint32](kl.Successes)
		if err != nil {
			return nil, err
		}
		failures, err := safecast.Conv[uint32](kl.Failures)
		if err != nil {
			return nil, err
		}
		payload.Lengths = append(payload.Lengths, cache.LengthEntry{Length: length, Successes: successes, Failures: failures})
	}
	return payload, nil
}

// Restore rebuilds an Analysis from raw text and a cached payload, skipping
// the pattern search. The payload must come from the same Digest.
func Restore(p *alphabet.Profile, raw string, opts Options, payload *cache.Payload) (*Analysis, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	text := analysis.NewCiphertext(p, raw)
	if payload.Profile != p.Name() || int(payload.TextLen) != len(text.Clean) {
		return nil, fmt.Errorf("cached analysis does not match input (profile %q, %d letters)", payload.Profile, payload.TextLen)
	}
	if len(payload.Patterns) == 0 {
		return nil, analysis.ErrNoPatterns
	}
	patterns := make([]analysis.Pattern, 0, len(payload.Patterns))
	for _, e := range payload.Patterns {
		positions := make([]int, len(e.Positions))
		for i, pos := range e.Positions {
			positions[i] = int(pos)
		}
		patterns = append(patterns, analysis.Pattern{
			Text:      e.Text,
			Length:    len([]rune(e.Text)),
			Count:     int(e.Count),
			Positions: positions,
		})
	}
	lengths := make([]analysis.KeyLength, 0, len(payload.Lengths))
	for _, e := range payload.Lengths {
		lengths = append(lengths, analysis.NewKeyLength(int(e.Length), int(e.Successes), int(e.Failures)))
	}
	return &Analysis{profile: p, opts: opts, text: text, patterns: patterns, lengths: lengths}, nil
}

// AnalyzeCached is Analyze backed by a disk cache. Cache read or write
// failures fall back to a fresh analysis; hit reports whether the cache served it.
func AnalyzeCached(c *cache.DiskCache, p *alphabet.Profile, raw string, opts Options) (a *Analysis, hit bool, err error) {
	if c == nil {
		a, err = Analyze(p, raw, opts)
		return a, false, err
	}
	text := analysis.NewCiphertext(p, raw)
	key := Digest(p, text.Clean, opts)

	var payload cache.Payload
	if ok, gerr := c.Get(key, &payload); gerr == nil && ok {
		if a, rerr := Restore(p, raw, opts, &payload); rerr == nil {
			return a, true, nil
		}
	}
	a, err = Analyze(p, raw, opts)
	if err != nil {
		return nil, false, err
	}
	if snap, serr := a.Snapshot(); serr == nil {
		_ = c.Put(key, snap)
	}
	return a, false, nil
}
