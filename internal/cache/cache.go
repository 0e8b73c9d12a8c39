// Package cache stores analysis results on disk, keyed by a digest of the
// alphabet profile, search options and cleaned ciphertext.
package cache

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Bump when Payload changes shape.
const schemaVersion uint16 = 1

// ErrSchemaMismatch indicates a cache entry written by an older payload format.
var ErrSchemaMismatch = errors.New("cache: schema version mismatch")

// Key identifies one analysis input.
type Key [32]byte

func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// Payload is the cached pattern index and key-length ranking.
type Payload struct {
	Schema   uint16
	Profile  string
	TextLen  uint32
	Patterns []PatternEntry
	Lengths  []LengthEntry
}

// PatternEntry is one repeated pattern with its overlapping start positions.
type PatternEntry struct {
	Text      string
	Count     uint32
	Positions []uint32
}

// LengthEntry is one ranked key length with its divisibility counts.
type LengthEntry struct {
	Length    uint16
	Successes uint32
	Failures  uint32
}

// DiskCache keeps payloads as msgpack files. Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// Open creates dir if needed and returns a cache rooted there.
func Open(dir string) (*DiskCache, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	return c.dir
}

func (c *DiskCache) pathFor(key Key) string {
	return filepath.Join(c.dir, "analysis", key.String()+".mp")
}

// Put writes payload under key, replacing any previous entry atomically.
func (c *DiskCache) Put(key Key, payload *Payload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmpPath := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	payload.Schema = schemaVersion
	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, p)
}

// Get reads the payload for key. A missing entry returns false and no error.
func (c *DiskCache) Get(key Key, out *Payload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() {
		_ = f.Close()
	}()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	if out.Schema != schemaVersion {
		return false, fmt.Errorf("%w: got %d, want %d", ErrSchemaMismatch, out.Schema, schemaVersion)
	}
	return true, nil
}

// DropAll removes every cached entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}
