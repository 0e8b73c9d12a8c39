package wordfreq

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/verte-zerg/kasiski/internal/alphabet"
	"github.com/verte-zerg/kasiski/internal/wordlist"
)

func centibelList(t *testing.T, bins ...[]string) []byte {
	t.Helper()
	items := []any{map[string]any{"format": "cB", "version": 1}}
	for _, b := range bins {
		items = append(items, b)
	}
	data, err := msgpack.Marshal(items)
	if err != nil {
		t.Fatalf("failed to encode msgpack: %v", err)
	}
	return data
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatalf("failed to gzip: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close gzip: %v", err)
	}
	return buf.Bytes()
}

func writeTestWheel(t *testing.T, files map[string][]byte) string {
	t.Helper()

	tmpFile, err := os.CreateTemp(t.TempDir(), "wordfreq-*.whl")
	if err != nil {
		t.Fatalf("failed to create temp wheel: %v", err)
	}
	defer func() {
		_ = tmpFile.Close()
	}()

	zw := zip.NewWriter(tmpFile)
	for name, data := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip entry: %v", err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("failed to write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return tmpFile.Name()
}

func openTestDataset(t *testing.T, files map[string][]byte) *Dataset {
	t.Helper()
	d, err := Open(writeTestWheel(t, files))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
	})
	return d
}

// smallXX has "ab" and "b" at Zipf 9 and "ba" at Zipf 8.98.
func smallXX(t *testing.T) *Dataset {
	t.Helper()
	return openTestDataset(t, map[string][]byte{
		"wordfreq/data/small_xx.msgpack.gz": gzipBytes(t, centibelList(t, []string{"ab", "b"}, []string{}, []string{"ba"})),
	})
}

func TestWordsOrderAndFilter(t *testing.T) {
	d := openTestDataset(t, map[string][]byte{
		"wordfreq/data/large_en.msgpack": centibelList(t, []string{"hello", "a", "go-1"}, []string{}, []string{"world", "go", "hello"}),
	})

	words, err := d.Words("en", "large", 3, nil)
	if err != nil {
		t.Fatalf("Words failed: %v", err)
	}
	expected := []string{"hello", "world", "go"}
	if strings.Join(words, ",") != strings.Join(expected, ",") {
		t.Fatalf("expected %v, got %v", expected, words)
	}

	limited, err := d.Words("en", "large", 2, nil)
	if err != nil {
		t.Fatalf("Words failed: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 words, got %d", len(limited))
	}
}

func TestWordsProfileFilter(t *testing.T) {
	d := openTestDataset(t, map[string][]byte{
		"wordfreq/data/large_en.msgpack": centibelList(t, []string{"hello", "привет"}, []string{"world"}),
	})
	words, err := d.Words("en", "large", 10, wordlist.FilterForProfile(alphabet.English))
	if err != nil {
		t.Fatalf("Words failed: %v", err)
	}
	if len(words) != 2 || words[0] != "hello" || words[1] != "world" {
		t.Fatalf("unexpected words: %v", words)
	}
}

func TestWordsGzipAndCentibelBins(t *testing.T) {
	words, err := smallXX(t).Words("xx", "small", 10, nil)
	if err != nil {
		t.Fatalf("Words failed: %v", err)
	}
	if len(words) != 2 || words[0] != "ab" || words[1] != "ba" {
		t.Fatalf("unexpected words: %v", words)
	}
}

func TestMissingList(t *testing.T) {
	_, err := smallXX(t).Words("xx", "large", 10, nil)
	if !errors.Is(err, ErrNoList) {
		t.Fatalf("expected ErrNoList, got %v", err)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	data, err := msgpack.Marshal([]any{map[string]any{"format": "zipf"}, []string{"ab"}})
	if err != nil {
		t.Fatalf("failed to encode msgpack: %v", err)
	}
	d := openTestDataset(t, map[string][]byte{"wordfreq/data/small_en.msgpack": data})
	if _, err := d.Words("en", "small", 10, nil); err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
}

func TestLetterFrequencies(t *testing.T) {
	d := smallXX(t)
	stats, err := d.LetterFrequencies("xx", "small", nil)
	if err != nil {
		t.Fatalf("LetterFrequencies failed: %v", err)
	}
	if string(stats.Symbols) != "ab" {
		t.Fatalf("unexpected derived alphabet %q", string(stats.Symbols))
	}
	// a: 1 + 10^-0.02, b: 2 + 10^-0.02.
	w := math.Pow(10, -0.02)
	wantA := (1 + w) / (3 + 2*w) * 100
	if math.Abs(stats.Frequencies[0]-wantA) > 1e-9 {
		t.Fatalf("expected a=%.4f, got %.4f", wantA, stats.Frequencies[0])
	}
	if math.Abs(stats.Frequencies[0]+stats.Frequencies[1]-100) > 1e-9 {
		t.Fatalf("frequencies do not sum to 100: %v", stats.Frequencies)
	}

	fixed, err := d.LetterFrequencies("xx", "small", []rune("abc"))
	if err != nil {
		t.Fatalf("LetterFrequencies failed: %v", err)
	}
	if len(fixed.Frequencies) != 3 || fixed.Frequencies[2] != 0 {
		t.Fatalf("expected zero share for c, got %v", fixed.Frequencies)
	}

	if _, err := d.LetterFrequencies("xx", "small", []rune("z")); err == nil {
		t.Fatalf("expected error for alphabet without data")
	}
}

func TestWriteAttribution(t *testing.T) {
	d := openTestDataset(t, map[string][]byte{
		"wordfreq-1.0.0.dist-info/LICENSE": []byte("Apache License"),
	})

	outDir := t.TempDir()
	if err := d.WriteAttribution(outDir); err != nil {
		t.Fatalf("WriteAttribution failed: %v", err)
	}
	for _, name := range []string{"ATTRIBUTION.txt", "DATA_LICENSE.txt"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
	license, err := os.ReadFile(filepath.Join(outDir, "LICENSE.txt"))
	if err != nil {
		t.Fatalf("expected LICENSE.txt: %v", err)
	}
	if string(license) != "Apache License" {
		t.Fatalf("unexpected license contents: %s", string(license))
	}
}

func TestLanguages(t *testing.T) {
	d := openTestDataset(t, map[string][]byte{
		"wordfreq/data/large_en.msgpack.gz":         []byte("x"),
		"wordfreq/data/small_en.msgpack.gz":         []byte("x"),
		"wordfreq/data/large_pt-br.msgpack.gz":      []byte("x"),
		"wordfreq/data/small_zh-cn.msgpack.gz":      []byte("x"),
		"wordfreq/data/_chinese_mapping.msgpack.gz": []byte("x"),
		"wordfreq/data/jieba_zh.txt":                []byte("x"),
	})

	types := d.Languages()
	expected := []string{"en", "pt-br", "zh-cn"}
	if got := types.Languages(); strings.Join(got, ",") != strings.Join(expected, ",") {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	if len(types["en"]) != 2 {
		t.Fatalf("expected large and small for en, got %v", types["en"])
	}
}

func TestLatestWheel(t *testing.T) {
	wheel := []byte("wheel bytes")
	requests := 0
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/json":
			_, _ = fmt.Fprintf(w, `{"info":{"version":"3.1.1"},"urls":[
				{"url":"%[1]s/sdist.tar.gz","filename":"wordfreq-3.1.1.tar.gz","packagetype":"sdist"},
				{"url":"%[1]s/wheel","filename":"wordfreq-3.1.1-py3-none-any.whl","packagetype":"bdist_wheel"}]}`, srv.URL)
		case "/wheel":
			requests++
			_, _ = w.Write(wheel)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := &Client{HTTP: srv.Client(), Endpoint: srv.URL + "/json"}
	cacheDir := t.TempDir()

	got, err := client.LatestWheel(t.Context(), cacheDir)
	if err != nil {
		t.Fatalf("LatestWheel failed: %v", err)
	}
	if got.Cached || got.Version != "3.1.1" || got.Filename != "wordfreq-3.1.1-py3-none-any.whl" {
		t.Fatalf("unexpected wheel: %+v", got)
	}
	data, err := os.ReadFile(got.Path)
	if err != nil || !bytes.Equal(data, wheel) {
		t.Fatalf("unexpected wheel contents %q: %v", data, err)
	}

	again, err := client.LatestWheel(t.Context(), cacheDir)
	if err != nil {
		t.Fatalf("LatestWheel failed: %v", err)
	}
	if !again.Cached || requests != 1 {
		t.Fatalf("expected cached wheel without a second download, got %+v after %d downloads", again, requests)
	}
}

func TestLatestWheelBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := &Client{HTTP: srv.Client(), Endpoint: srv.URL}
	if _, err := client.LatestWheel(t.Context(), t.TempDir()); err == nil {
		t.Fatalf("expected error for failed metadata request")
	}
}
