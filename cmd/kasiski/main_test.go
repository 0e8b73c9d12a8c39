package main

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/verte-zerg/kasiski/internal/alphabet"
	"github.com/verte-zerg/kasiski/internal/cipher"
	"github.com/verte-zerg/kasiski/internal/model"
)

func isolateHome(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir+"/config")
	t.Setenv("XDG_DATA_HOME", dir+"/data")
	t.Setenv("XDG_CACHE_HOME", dir+"/cache")
}

func runRoot(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.Execute()
	return out.String(), err
}

func lemonCiphertext(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("../../internal/pipeline/testdata/plain_en.txt")
	if err != nil {
		t.Fatalf("read plaintext: %v", err)
	}
	key, err := cipher.ParseKey(alphabet.English, "lemon")
	if err != nil {
		t.Fatalf("parse key: %v", err)
	}
	encoded, err := cipher.Encode(alphabet.English, string(data), key)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return encoded
}

func TestSelectWordlistType(t *testing.T) {
	both := map[string]struct{}{"large": {}, "small": {}}
	smallOnly := map[string]struct{}{"small": {}}

	if got, ok := selectWordlistType(both, "large"); !ok || got != "large" {
		t.Fatalf("expected large, got %q %v", got, ok)
	}
	if got, ok := selectWordlistType(smallOnly, "large"); !ok || got != "small" {
		t.Fatalf("expected fallback to small, got %q %v", got, ok)
	}
	if _, ok := selectWordlistType(map[string]struct{}{"large": {}}, "small"); ok {
		t.Fatalf("expected no small list")
	}
	if _, ok := selectWordlistType(nil, "large"); ok {
		t.Fatalf("expected no list for empty set")
	}
}

func TestResolveWordlistLangs(t *testing.T) {
	available := []string{"de", "en", "ru"}

	langs, all, err := resolveWordlistLangs("", available)
	if err != nil || all || len(langs) != 1 || langs[0] != "en" {
		t.Fatalf("expected default en, got %v %v %v", langs, all, err)
	}
	langs, all, err = resolveWordlistLangs("all", available)
	if err != nil || !all || len(langs) != 3 {
		t.Fatalf("expected all languages, got %v %v %v", langs, all, err)
	}
	langs, _, err = resolveWordlistLangs(" RU, en ", available)
	if err != nil || strings.Join(langs, ",") != "ru,en" {
		t.Fatalf("expected ru,en, got %v %v", langs, err)
	}
	if _, _, err := resolveWordlistLangs("xx", available); err == nil {
		t.Fatalf("expected error for unknown language")
	}
	if _, _, err := resolveWordlistLangs(" , ", available); err == nil {
		t.Fatalf("expected error for empty list")
	}
}

func TestValidateConfig(t *testing.T) {
	base := model.Config{MinPattern: 2, MaxPattern: 25, MinKey: 2, MaxKey: 25, CiphertextLen: 10}
	if err := validateConfig(base); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cases := map[string]func(*model.Config){
		"pattern range": func(c *model.Config) { c.MaxPattern = 1 },
		"zero min key":  func(c *model.Config) { c.MinKey = 0 },
		"key range":     func(c *model.Config) { c.MaxKey = 1 },
		"negative top":  func(c *model.Config) { c.Top = -1 },
		"empty text":    func(c *model.Config) { c.CiphertextLen = 0 },
	}
	for name, mutate := range cases {
		cfg := base
		mutate(&cfg)
		if err := validateConfig(cfg); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestEncodeDecodeCommands(t *testing.T) {
	isolateHome(t)

	enc, err := runRoot(t, "Attack at dawn!", "encode", "--key", "lemon")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if enc != "Lxfopv ef rnhr!" {
		t.Fatalf("unexpected ciphertext %q", enc)
	}

	dec, err := runRoot(t, enc, "decode", "--key", "lemon")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec != "Attack at dawn!" {
		t.Fatalf("unexpected plaintext %q", dec)
	}

	masked, err := runRoot(t, enc, "decode", "--key", "le_on")
	if err != nil {
		t.Fatalf("decode masked: %v", err)
	}
	if masked != "At_ack a_ dawn!" {
		t.Fatalf("unexpected masked plaintext %q", masked)
	}
}

func TestEncodeRejectsBadKey(t *testing.T) {
	isolateHome(t)

	if _, err := runRoot(t, "abc", "encode", "--key", "l3mon"); err == nil {
		t.Fatalf("expected invalid key error")
	}
	if _, err := runRoot(t, "abc", "encode", "--lang", "xx", "--key", "lemon"); err == nil {
		t.Fatalf("expected unknown profile error")
	}
}

func TestPlainAnalyzeAndHistory(t *testing.T) {
	isolateHome(t)
	encoded := lemonCiphertext(t)

	out, err := runRoot(t, encoded, "--plain", "--cache=false")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !strings.Contains(out, "Key: lemon") {
		t.Fatalf("expected lemon candidate, got:\n%s", out)
	}
	if !strings.Contains(out, "No more candidates.") {
		t.Fatalf("expected end of candidates, got:\n%s", out)
	}

	hist, err := runRoot(t, "", "history", "--plain", "--color", "off", "--run", "1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(hist, "Run 1 candidates") || !strings.Contains(hist, "lemon") {
		t.Fatalf("expected recorded candidates, got:\n%s", hist)
	}
	if !strings.Contains(hist, "stdin") {
		t.Fatalf("expected stdin source, got:\n%s", hist)
	}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	isolateHome(t)

	if _, err := runRoot(t, "", "--plain", "--record=false"); err == nil {
		t.Fatalf("expected empty ciphertext error")
	}
}

func TestEnsureConfigFileKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kasiski", "config.toml")
	if err := ensureConfigFile(path); err != nil {
		t.Fatalf("ensureConfigFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || !strings.Contains(string(data), "[analysis]") {
		t.Fatalf("expected template, got %q (%v)", data, err)
	}
	if err := os.WriteFile(path, []byte("# mine\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ensureConfigFile(path); err != nil {
		t.Fatalf("ensureConfigFile: %v", err)
	}
	if data, _ := os.ReadFile(path); string(data) != "# mine\n" {
		t.Fatalf("existing config overwritten: %q", data)
	}
}

func TestEditorCommand(t *testing.T) {
	cmd := editorCommand("  code --wait ", "/tmp/c.toml")
	if !slices.Equal(cmd.Args, []string{"code", "--wait", "/tmp/c.toml"}) {
		t.Fatalf("unexpected args %q", cmd.Args)
	}
	if cmd := editorCommand("", "c.toml"); !slices.Equal(cmd.Args, []string{"vi", "c.toml"}) {
		t.Fatalf("unexpected default args %q", cmd.Args)
	}
}
