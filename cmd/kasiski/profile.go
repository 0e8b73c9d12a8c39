package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/kasiski/internal/alphabet"
	"github.com/verte-zerg/kasiski/internal/config"
	"github.com/verte-zerg/kasiski/internal/report"
)

var (
	profileLang     string
	profileName     string
	profileAlphabet string
	profileType     string
	profileForce    bool
	profileColor    string
)

func newLangsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "langs",
		Short: "List alphabet profiles and downloaded word lists",
		Args:  cobra.NoArgs,
		RunE:  runLangsCmd,
	}
}

func runLangsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	reg, err := loadRegistry(fileCfg)
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}
	rows := make([]report.ProfileRow, 0, len(reg.Names()))
	for _, name := range reg.Names() {
		p, err := reg.Get(name)
		if err != nil {
			return err
		}
		_, statErr := os.Stat(config.DefaultWordListPath(p.Lang()))
		rows = append(rows, report.ProfileRow{
			Profile:  p,
			Builtin:  p == alphabet.English || p == alphabet.Russian,
			WordList: statErr == nil,
		})
	}
	if err := report.RenderProfiles(cmd.OutOrStdout(), rows); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Build or show alphabet profiles",
	}

	build := &cobra.Command{
		Use:   "build",
		Short: "Derive a letter-frequency profile from the wordfreq dataset",
		Args:  cobra.NoArgs,
		RunE:  runProfileBuildCmd,
	}
	build.Flags().StringVar(&profileLang, "lang", "", "wordfreq language code")
	build.Flags().StringVar(&profileName, "name", "", "profile name (default: the language code)")
	build.Flags().StringVar(&profileAlphabet, "alphabet", "", "letters in order (default: derived from the data)")
	build.Flags().StringVar(&profileType, "type", "large", "wordfreq list: large or small")
	build.Flags().BoolVar(&profileForce, "force", false, "overwrite an existing profile file")
	_ = build.MarkFlagRequired("lang")

	show := &cobra.Command{
		Use:   "show name",
		Short: "Print a profile's reference frequencies",
		Args:  cobra.ExactArgs(1),
		RunE:  runProfileShowCmd,
	}
	show.Flags().StringVar(&profileColor, "color", defaultColor, "colour output: auto, on or off")

	cmd.AddCommand(build, show)
	return cmd
}

func runProfileBuildCmd(cmd *cobra.Command, _ []string) error {
	name := profileName
	if name == "" {
		name = profileLang
	}
	dir := config.DefaultProfileDir()
	if !profileForce {
		if _, err := os.Stat(filepath.Join(dir, name+".toml")); err == nil {
			return fmt.Errorf("profile %s already exists (use --force to overwrite)", name)
		}
	}

	ds, err := openDataset(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = ds.Close()
	}()
	langTypes := ds.Languages()
	listType, ok := selectWordlistType(langTypes[profileLang], profileType)
	if !ok {
		return fmt.Errorf("no %s word list available for %s", profileType, profileLang)
	}

	stats, err := ds.LetterFrequencies(profileLang, listType, []rune(strings.ToLower(profileAlphabet)))
	if err != nil {
		return fmt.Errorf("failed to derive frequencies: %w", err)
	}
	freqs := make([]float64, len(stats.Frequencies))
	for i, f := range stats.Frequencies {
		freqs[i] = math.Round(f*1000) / 1000
	}
	p, err := alphabet.New(name, profileLang, stats.Symbols, freqs)
	if err != nil {
		return fmt.Errorf("derived profile is invalid: %w", err)
	}
	pc := config.ProfileConfig{Lang: profileLang, Alphabet: string(stats.Symbols), Frequencies: freqs}
	if err := config.WriteProfile(dir, name, pc); err != nil {
		return err
	}
	logErrf("Wrote profile %s (%d letters) to %s\n", name, p.Size(), dir)

	return report.RenderHistogram(cmd.OutOrStdout(), p, p.Frequencies(), 0, report.NewPalette(false))
}

func runProfileShowCmd(cmd *cobra.Command, args []string) error {
	p, err := profileForLang(args[0])
	if err != nil {
		return err
	}
	pal, err := paletteFor(profileColor, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	return report.RenderHistogram(cmd.OutOrStdout(), p, p.Frequencies(), 0, pal)
}
