package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/kasiski/internal/alphabet"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Analysis.Lang)
	assert.Empty(t, cfg.Profiles)

	_, err = LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfigAnalysisAndProfiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[analysis]
lang = "ab"
max-key = 12
pattern-count = "non-overlapping"
cache = false

[profiles.ab]
alphabet = "AB"
frequencies = [60.0, 40.0]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Analysis.Lang)
	assert.Equal(t, "ab", *cfg.Analysis.Lang)
	require.NotNil(t, cfg.Analysis.MaxKey)
	assert.Equal(t, 12, *cfg.Analysis.MaxKey)
	assert.Nil(t, cfg.Analysis.MinKey)
	require.NotNil(t, cfg.Analysis.Cache)
	assert.False(t, *cfg.Analysis.Cache)

	reg := alphabet.NewRegistry()
	require.NoError(t, RegisterProfiles(reg, cfg.Profiles))
	p, err := reg.Get("ab")
	require.NoError(t, err)
	assert.Equal(t, "ab", p.Lang())
	assert.Equal(t, []rune("ab"), p.Symbols())
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[analysis\n"), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestWriteAndLoadProfileDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profiles")
	in := ProfileConfig{Lang: "de", Alphabet: "abcä", Frequencies: []float64{40, 30, 20, 10}}
	require.NoError(t, WriteProfile(dir, "de", in))

	profiles, err := LoadProfileDir(dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]ProfileConfig{"de": in}, profiles)

	missing, err := LoadProfileDir(filepath.Join(dir, "nope"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestRegisterProfilesOverrideAndValidate(t *testing.T) {
	reg := alphabet.NewRegistry()
	first := map[string]ProfileConfig{"xy": {Alphabet: "xy", Frequencies: []float64{1, 2}}}
	second := map[string]ProfileConfig{"xy": {Lang: "zz", Alphabet: "xyz", Frequencies: []float64{1, 2, 3}}}
	require.NoError(t, RegisterProfiles(reg, first, second))
	p, err := reg.Get("xy")
	require.NoError(t, err)
	assert.Equal(t, 3, p.Size())
	assert.Equal(t, "zz", p.Lang())

	bad := map[string]ProfileConfig{"bad": {Alphabet: "ab", Frequencies: []float64{1}}}
	err = RegisterProfiles(reg, bad)
	assert.ErrorIs(t, err, alphabet.ErrLengthMismatch)
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_CACHE_HOME", "/cache")

	assert.Equal(t, filepath.Join("/cfg", "kasiski", "config.toml"), DefaultConfigPath())
	assert.Equal(t, filepath.Join("/cfg", "kasiski", "profiles"), DefaultProfileDir())
	assert.Equal(t, filepath.Join("/cfg", "kasiski", "wordlists", "en.txt"), DefaultWordListPath("en"))
	assert.Equal(t, filepath.Join("/data", "kasiski", "kasiski.db"), DefaultDBPath())
	assert.Equal(t, filepath.Join("/data", "kasiski", "wordfreq"), DefaultWordfreqCacheDir())
	assert.Equal(t, filepath.Join("/cache", "kasiski"), DefaultAnalysisCacheDir())
}
