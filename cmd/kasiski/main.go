// Package main provides the CLI entrypoint for kasiski.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/kasiski/internal/alphabet"
	"github.com/verte-zerg/kasiski/internal/cache"
	"github.com/verte-zerg/kasiski/internal/config"
	"github.com/verte-zerg/kasiski/internal/report"
	"github.com/verte-zerg/kasiski/internal/store"
)

const (
	defaultLang         = "en"
	defaultMinPattern   = 2
	defaultMaxPattern   = 25
	defaultMinKey       = 2
	defaultMaxKey       = 25
	defaultPatternCount = "overlapping"
	defaultTop          = 0
	defaultColor        = "auto"
	defaultWordlistSz   = 10000
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kasiski [file|-]",
		Short:         "Ciphertext-only Vigenère key recovery",
		Long:          "Ranks likely key lengths by Kasiski examination and recovers the key letters\nby letter-frequency fit. Reads the ciphertext from a file or stdin.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runAnalyzeCmd,
	}
	addAnalyzeFlags(rootCmd)

	rootCmd.AddCommand(newEncodeCmd())
	rootCmd.AddCommand(newDecodeCmd())
	rootCmd.AddCommand(newPatternsCmd())
	rootCmd.AddCommand(newKeylenCmd())
	rootCmd.AddCommand(newFreqCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newSampleCmd())
	rootCmd.AddCommand(newLangsCmd())
	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newWordlistCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// loadRegistry returns the built-in profiles plus those from the config file
// and the profile directory.
func loadRegistry(fileCfg config.FileConfig) (*alphabet.Registry, error) {
	reg := alphabet.NewRegistry()
	dirProfiles, err := config.LoadProfileDir(config.DefaultProfileDir())
	if err != nil {
		return nil, err
	}
	if err := config.RegisterProfiles(reg, dirProfiles, fileCfg.Profiles); err != nil {
		return nil, err
	}
	return reg, nil
}

// profileForLang loads config and returns the requested profile.
func profileForLang(lang string) (*alphabet.Profile, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	reg, err := loadRegistry(fileCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	return reg.Get(lang)
}

// readInput reads the ciphertext from the named file, or from stdin when no
// file or "-" is given.
func readInput(cmd *cobra.Command, args []string) (text, source string, fromStdin bool, err error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", true, fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), "stdin", true, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", false, fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), args[0], false, nil
}

func openStore() (*store.Store, error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if st == nil {
		return
	}
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

// openCache returns nil when the cache cannot be opened; analysis then runs
// uncached.
func openCache(enabled bool) *cache.DiskCache {
	if !enabled {
		return nil
	}
	c, err := cache.Open(config.DefaultAnalysisCacheDir())
	if err != nil {
		logErrf("analysis cache disabled: %v\n", err)
		return nil
	}
	return c
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// colorEnabled resolves --color auto|on|off against the output stream.
func colorEnabled(mode string, out io.Writer) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "on", "always":
		return true, nil
	case "off", "never":
		return false, nil
	case "", "auto":
		f, ok := out.(*os.File)
		return ok && isTerminal(f) && os.Getenv("NO_COLOR") == "", nil
	default:
		return false, fmt.Errorf("--color must be auto, on or off")
	}
}

func paletteFor(mode string, out io.Writer) (report.Palette, error) {
	enabled, err := colorEnabled(mode, out)
	if err != nil {
		return report.Palette{}, err
	}
	return report.NewPalette(enabled), nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
