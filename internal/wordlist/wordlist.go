// Package wordlist loads and saves plain-text word lists.
package wordlist

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrEmpty reports a word list with no usable words.
var ErrEmpty = errors.New("wordlist: no usable words")

// LoadWords reads one word per line from path. Blank lines and lines starting
// with '#' are skipped; keep may be nil to accept every word.
func LoadWords(path string, keep FilterFunc) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if keep != nil && !keep(line) {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word list: %w", err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmpty)
	}
	return words, nil
}

// Save writes words one per line, replacing path atomically.
func Save(path string, words []string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create word list dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".wordlist-*")
	if err != nil {
		return fmt.Errorf("failed to create temp word list: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	w := bufio.NewWriter(tmp)
	for _, word := range words {
		if _, err := w.WriteString(word + "\n"); err != nil {
			return fmt.Errorf("failed to write word list: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write word list: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close word list: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
