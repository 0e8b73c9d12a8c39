package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/kasiski/internal/alphabet"
	"github.com/verte-zerg/kasiski/internal/config"
	"github.com/verte-zerg/kasiski/internal/wordfreq"
	"github.com/verte-zerg/kasiski/internal/wordlist"
)

const defaultListType = "large"

// listFallbacks orders the wordfreq list types tried for a requested type.
var listFallbacks = map[string][]string{
	"large": {"large", "small"},
	"small": {"small"},
}

var (
	wordlistLang  string
	wordlistSize  int
	wordlistForce bool
)

func newWordlistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wordlist",
		Short: "Extract word lists for sample plaintexts from wordfreq",
		Args:  cobra.NoArgs,
		RunE:  runWordlistCmd,
	}
	cmd.Flags().StringVar(&wordlistLang, "lang", "", "language code, comma list or 'all' (default: en)")
	cmd.Flags().IntVar(&wordlistSize, "size", defaultWordlistSz, "number of words")
	cmd.Flags().BoolVar(&wordlistForce, "force", false, "overwrite existing files")
	return cmd
}

func runWordlistCmd(cmd *cobra.Command, _ []string) error {
	if wordlistSize <= 0 {
		return fmt.Errorf("--size must be > 0")
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	reg, err := loadRegistry(fileCfg)
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}

	ds, err := openDataset(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = ds.Close()
	}()
	available := ds.Languages()
	langs, all, err := resolveWordlistLangs(wordlistLang, available.Languages())
	if err != nil {
		return err
	}

	outDir := config.DefaultWordListDir()
	written := 0
	for _, lang := range langs {
		err := extractList(ds, available, lang, filepath.Join(outDir, lang+".txt"), profileFilter(reg, lang))
		switch {
		case err == nil:
			written++
		case all:
			logErrf("Skipping %s: %v\n", lang, err)
		default:
			return err
		}
	}
	if written == 0 {
		return fmt.Errorf("no word lists written")
	}

	if err := ds.WriteAttribution(outDir); err != nil {
		return fmt.Errorf("failed to write attribution: %w", err)
	}
	logErrln("Wrote ATTRIBUTION.txt, LICENSE.txt and DATA_LICENSE.txt")
	return nil
}

// openDataset downloads or reuses the latest wordfreq wheel and opens it.
func openDataset(cmd *cobra.Command) (*wordfreq.Dataset, error) {
	logErrln("Fetching wordfreq metadata...")
	wheel, err := wordfreq.DownloadLatestWheel(cmd.Context(), config.DefaultWordfreqCacheDir())
	if err != nil {
		return nil, fmt.Errorf("failed to download wordfreq wheel: %w", err)
	}
	if wheel.Cached {
		logErrf("Using cached wheel %s\n", wheel.Filename)
	} else {
		logErrf("Downloaded wheel %s\n", wheel.Filename)
	}
	return wordfreq.Open(wheel.Path)
}

func extractList(ds *wordfreq.Dataset, available wordfreq.LanguageTypes, lang, outPath string, keep wordlist.FilterFunc) error {
	if !wordlistForce {
		if _, err := os.Stat(outPath); err == nil {
			return fmt.Errorf("word list already exists: %s (use --force to overwrite)", outPath)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to stat word list: %w", err)
		}
	}
	listType, ok := selectWordlistType(available[lang], defaultListType)
	if !ok {
		return fmt.Errorf("no %s word list available for %s", defaultListType, lang)
	}
	if listType != defaultListType {
		logErrf("Using the %s list for %s\n", listType, lang)
	}

	logErrf("Extracting %s word list...\n", lang)
	words, err := ds.Words(lang, listType, wordlistSize, keep)
	if err != nil {
		return fmt.Errorf("failed to extract %s word list: %w", lang, err)
	}
	if err := wordlist.Save(outPath, words); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	logErrf("Wrote %s (%d words)\n", outPath, len(words))
	return nil
}

// profileFilter keeps words spelled with the alphabet of the profile named
// after lang; languages without a profile keep every word.
func profileFilter(reg *alphabet.Registry, lang string) wordlist.FilterFunc {
	p, err := reg.Get(lang)
	if err != nil {
		return nil
	}
	return wordlist.FilterForProfile(p)
}

// resolveWordlistLangs expands --lang into language codes. The bool reports
// "all", where languages without a usable list are skipped instead of failing.
func resolveWordlistLangs(arg string, available []string) ([]string, bool, error) {
	arg = strings.ToLower(strings.TrimSpace(arg))
	switch arg {
	case "":
		return []string{defaultLang}, false, nil
	case "all":
		return slices.Clone(available), true, nil
	}
	var langs []string
	for part := range strings.SplitSeq(arg, ",") {
		lang := strings.TrimSpace(part)
		if lang == "" {
			continue
		}
		if !slices.Contains(available, lang) {
			return nil, false, fmt.Errorf("unknown language %q (available: %s)", lang, strings.Join(available, ", "))
		}
		langs = append(langs, lang)
	}
	if len(langs) == 0 {
		return nil, false, fmt.Errorf("--lang must not be empty")
	}
	return langs, false, nil
}

// selectWordlistType picks the first list type from the fallbacks of desired
// that the language provides.
func selectWordlistType(available map[string]struct{}, desired string) (string, bool) {
	for _, t := range listFallbacks[desired] {
		if _, ok := available[t]; ok {
			return t, true
		}
	}
	return "", false
}
