// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/unicode/norm"

	"github.com/verte-zerg/kasiski/internal/alphabet"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Analysis AnalysisConfig           `toml:"analysis"`
	Profiles map[string]ProfileConfig `toml:"profiles"`
}

// AnalysisConfig maps analysis-related settings.
type AnalysisConfig struct {
	Lang         *string `toml:"lang"`
	MinPattern   *int    `toml:"min-pattern"`
	MaxPattern   *int    `toml:"max-pattern"`
	MinKey       *int    `toml:"min-key"`
	MaxKey       *int    `toml:"max-key"`
	PatternCount *string `toml:"pattern-count"`
	Top          *int    `toml:"top"`
	Cache        *bool   `toml:"cache"`
	Record       *bool   `toml:"record"`
	Color        *string `toml:"color"`
}

// ProfileConfig describes a custom alphabet profile.
type ProfileConfig struct {
	Lang        string    `toml:"lang"`
	Alphabet    string    `toml:"alphabet"`
	Frequencies []float64 `toml:"frequencies"`
}

// ProfileFile is the shape of a standalone profile file.
type ProfileFile struct {
	Profiles map[string]ProfileConfig `toml:"profiles"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// LoadProfileDir reads every *.toml profile file in dir, in name order.
// A missing directory yields no profiles.
func LoadProfileDir(dir string) (map[string]ProfileConfig, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read profile directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	out := map[string]ProfileConfig{}
	for _, name := range names {
		var pf ProfileFile
		if _, err := toml.DecodeFile(filepath.Join(dir, name), &pf); err != nil {
			return nil, fmt.Errorf("failed to decode profile %s: %w", name, err)
		}
		for k, v := range pf.Profiles {
			out[k] = v
		}
	}
	return out, nil
}

// WriteProfile stores a single profile as dir/<name>.toml.
func WriteProfile(dir, name string, p ProfileConfig) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}
	path := filepath.Join(dir, name+".toml")
	tmp, err := os.CreateTemp(dir, "profile-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp profile: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()
	pf := ProfileFile{Profiles: map[string]ProfileConfig{name: p}}
	if err := toml.NewEncoder(tmp).Encode(pf); err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close profile: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// RegisterProfiles validates custom profiles and adds them to reg. Later
// sources override earlier ones of the same name.
func RegisterProfiles(reg *alphabet.Registry, sources ...map[string]ProfileConfig) error {
	merged := map[string]ProfileConfig{}
	for _, src := range sources {
		for k, v := range src {
			merged[k] = v
		}
	}
	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		pc := merged[name]
		lang := pc.Lang
		if lang == "" {
			lang = name
		}
		p, err := alphabet.New(name, lang, []rune(norm.NFC.String(strings.ToLower(pc.Alphabet))), pc.Frequencies)
		if err != nil {
			return fmt.Errorf("invalid profile %q: %w", name, err)
		}
		reg.Register(p)
	}
	return nil
}
