package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/kasiski/internal/analysis"
	"github.com/verte-zerg/kasiski/internal/cipher"
	"github.com/verte-zerg/kasiski/internal/pipeline"
	"github.com/verte-zerg/kasiski/internal/report"
)

const plotRows = 8

var (
	inspectLang       string
	inspectMinPattern int
	inspectMaxPattern int
	inspectMinKey     int
	inspectMaxKey     int
	inspectCount      string
	inspectLimit      int
	inspectColor      string

	freqKey      string
	freqLength   int
	freqPosition int
)

func addInspectFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&inspectLang, "lang", defaultLang, "alphabet profile")
	cmd.Flags().IntVar(&inspectMinPattern, "min-pattern", defaultMinPattern, "shortest repeated pattern")
	cmd.Flags().IntVar(&inspectMaxPattern, "max-pattern", defaultMaxPattern, "longest repeated pattern")
	cmd.Flags().IntVar(&inspectMinKey, "min-key", defaultMinKey, "shortest key length to rank")
	cmd.Flags().IntVar(&inspectMaxKey, "max-key", defaultMaxKey, "longest key length to rank")
	cmd.Flags().StringVar(&inspectCount, "pattern-count", defaultPatternCount, "pattern counting: overlapping or non-overlapping")
	cmd.Flags().IntVar(&inspectLimit, "limit", 0, "rows to print (0 = all)")
	cmd.Flags().StringVar(&inspectColor, "color", defaultColor, "colour output: auto, on or off")
}

func newPatternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns [file|-]",
		Short: "List repeated patterns and their positions",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPatternsCmd,
	}
	addInspectFlags(cmd)
	return cmd
}

func newKeylenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keylen [file|-]",
		Short: "Rank key lengths by pattern distance divisibility",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runKeylenCmd,
	}
	addInspectFlags(cmd)
	return cmd
}

func newFreqCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "freq [file|-]",
		Short: "Compare letter frequencies with the profile",
		Long:  "Prints a letter histogram of the ciphertext, of its decoding with --key,\nor of one key slice with --length and --position.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runFreqCmd,
	}
	addInspectFlags(cmd)
	cmd.Flags().StringVar(&freqKey, "key", "", "decode with this key first")
	cmd.Flags().IntVar(&freqLength, "length", 0, "key length for slicing (0 = whole text)")
	cmd.Flags().IntVar(&freqPosition, "position", 0, "key slot to slice, from 0")
	return cmd
}

func inspectOptions() (pipeline.Options, error) {
	mode, err := analysis.ParseCountMode(inspectCount)
	if err != nil {
		return pipeline.Options{}, err
	}
	opts := pipeline.Options{
		MinPatternLen: inspectMinPattern,
		MaxPatternLen: inspectMaxPattern,
		MinKeyLen:     inspectMinKey,
		MaxKeyLen:     inspectMaxKey,
		CountMode:     mode,
	}
	return opts, opts.Validate()
}

func inspectAnalysis(cmd *cobra.Command, args []string) (*pipeline.Analysis, error) {
	opts, err := inspectOptions()
	if err != nil {
		return nil, err
	}
	p, err := profileForLang(inspectLang)
	if err != nil {
		return nil, err
	}
	raw, source, _, err := readInput(cmd, args)
	if err != nil {
		return nil, err
	}
	a, err := pipeline.Analyze(p, raw, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze %s: %w", source, err)
	}
	return a, nil
}

func runPatternsCmd(cmd *cobra.Command, args []string) error {
	a, err := inspectAnalysis(cmd, args)
	if err != nil {
		return err
	}
	return report.RenderPatterns(cmd.OutOrStdout(), a.Patterns(), inspectLimit)
}

func runKeylenCmd(cmd *cobra.Command, args []string) error {
	a, err := inspectAnalysis(cmd, args)
	if err != nil {
		return err
	}
	useColor, err := colorEnabled(inspectColor, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := report.RenderKeyLengths(out, a.KeyLengths(), inspectLimit); err != nil {
		return err
	}

	if a.Len() == 0 {
		return nil
	}
	byLength := append([]analysis.KeyLength(nil), a.KeyLengths()...)
	sort.Slice(byLength, func(i, j int) bool { return byLength[i].Length < byLength[j].Length })
	success := make([]float64, len(byLength))
	for i, kl := range byLength {
		success[i] = kl.SuccessRatio * 100
	}
	title := fmt.Sprintf("Success by key length (%d..%d)", byLength[0].Length, byLength[len(byLength)-1].Length)
	plot := report.Plot{Title: title, Height: plotRows, Percent: true, Color: useColor}
	return plot.Render(out, report.Series{Name: "Success", Values: success})
}

func runFreqCmd(cmd *cobra.Command, args []string) error {
	p, err := profileForLang(inspectLang)
	if err != nil {
		return err
	}
	pal, err := paletteFor(inspectColor, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	raw, _, _, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	text := raw
	if freqKey != "" {
		key, err := cipher.ParseKey(p, freqKey)
		if err != nil {
			return fmt.Errorf("invalid --key: %w", err)
		}
		text, err = cipher.Decode(p, raw, key)
		if err != nil {
			return err
		}
	}
	letters := analysis.NewCiphertext(p, text).Clean
	if freqLength > 0 {
		letters, err = analysis.KeySlice(letters, freqPosition, freqLength)
		if err != nil {
			return err
		}
	}
	if len(letters) == 0 {
		return fmt.Errorf("no %s letters in input", p.Name())
	}

	out := cmd.OutOrStdout()
	if err := report.RenderHistogram(out, p, analysis.Frequencies(p, letters), 0, pal); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "Fit: %.3f over %d letters\n", analysis.FrequencyFit(p, letters), len(letters)); err != nil {
		return err
	}
	if freqLength == 0 {
		return nil
	}
	scores := analysis.PredictKeySliceLetters(p, letters)
	best := scores[:min(3, len(scores))]
	if _, err := fmt.Fprintf(out, "Slot %d of %d:", freqPosition, freqLength); err != nil {
		return err
	}
	for _, s := range best {
		if _, err := fmt.Fprintf(out, " %s (%.3f)", pal.Key.Sprint(string(s.Letter)), s.Error); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(out)
	return err
}
