package wordfreq

import (
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

const dataDir = "wordfreq/data/"

// ErrNoList indicates the wheel has no list for a language and list type.
var ErrNoList = errors.New("wordfreq: word list not found")

// LanguageTypes maps language codes to their available list types.
type LanguageTypes map[string]map[string]struct{}

// Languages returns the language codes in sorted order.
func (lt LanguageTypes) Languages() []string {
	out := make([]string, 0, len(lt))
	for lang := range lt {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

type listKey struct {
	lang string
	list string
}

// Dataset is an open wordfreq wheel.
type Dataset struct {
	zr      *zip.ReadCloser
	lists   map[listKey]*zip.File
	license *zip.File
}

// Open indexes the word lists of the wheel at path.
func Open(path string) (*Dataset, error) {
	if path == "" {
		return nil, fmt.Errorf("wheel path is required")
	}
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wheel: %w", err)
	}
	d := &Dataset{zr: zr, lists: make(map[listKey]*zip.File)}
	for _, f := range zr.File {
		if key, ok := parseListName(f.Name); ok {
			d.lists[key] = f
			continue
		}
		if d.license == nil && strings.Contains(strings.ToLower(f.Name), "license") {
			d.license = f
		}
	}
	return d, nil
}

// Close releases the wheel.
func (d *Dataset) Close() error {
	return d.zr.Close()
}

// Languages lists every language with at least one word list.
func (d *Dataset) Languages() LanguageTypes {
	out := make(LanguageTypes)
	for key := range d.lists {
		if out[key.lang] == nil {
			out[key.lang] = make(map[string]struct{})
		}
		out[key.lang][key.list] = struct{}{}
	}
	return out
}

// parseListName recognises "wordfreq/data/<list>_<lang>.msgpack[.gz]".
func parseListName(name string) (listKey, bool) {
	base, ok := strings.CutPrefix(strings.ToLower(name), dataDir)
	if !ok {
		return listKey{}, false
	}
	base = strings.TrimSuffix(base, ".gz")
	base, ok = strings.CutSuffix(base, ".msgpack")
	if !ok {
		return listKey{}, false
	}
	list, lang, ok := strings.Cut(base, "_")
	if !ok || list == "" || lang == "" {
		return listKey{}, false
	}
	if list != "large" && list != "small" {
		return listKey{}, false
	}
	return listKey{lang: lang, list: list}, true
}

// wordEntry is one word with its Zipf frequency (log10 of occurrences per
// billion words).
type wordEntry struct {
	word string
	zipf float64
}

// entries decodes one list in frequency order, most frequent first.
func (d *Dataset) entries(lang, list string) ([]wordEntry, error) {
	f, ok := d.lists[listKey{lang: strings.ToLower(lang), list: strings.ToLower(list)}]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNoList, lang, list)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer func() {
		_ = rc.Close()
	}()

	var r io.Reader = rc
	if strings.HasSuffix(f.Name, ".gz") {
		gz, err := gzip.NewReader(rc)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		defer func() {
			_ = gz.Close()
		}()
		r = gz
	}
	entries, err := decodeCentibels(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", f.Name, err)
	}
	return entries, nil
}

type listHeader struct {
	Format  string `msgpack:"format"`
	Version int    `msgpack:"version"`
}

// decodeCentibels reads the "cB" layout: an array whose first element is a
// header map and whose element i+1 holds the words at -i centibels, that is
// Zipf 9 - i/100.
func decodeCentibels(r io.Reader) ([]wordEntry, error) {
	dec := msgpack.NewDecoder(r)
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("empty list")
	}
	var header listHeader
	if err := dec.Decode(&header); err != nil {
		return nil, fmt.Errorf("bad header: %w", err)
	}
	if header.Format != "cB" {
		return nil, fmt.Errorf("unsupported format %q", header.Format)
	}

	var entries []wordEntry
	for i := 0; i < n-1; i++ {
		var bin []string
		if err := dec.Decode(&bin); err != nil {
			return nil, fmt.Errorf("bad bin %d: %w", i, err)
		}
		zipf := 9 - float64(i)/100
		for _, w := range bin {
			entries = append(entries, wordEntry{word: w, zipf: zipf})
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no words")
	}
	return entries, nil
}
