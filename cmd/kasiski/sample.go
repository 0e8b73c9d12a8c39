package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/kasiski/internal/cipher"
	"github.com/verte-zerg/kasiski/internal/config"
	"github.com/verte-zerg/kasiski/internal/generator"
	"github.com/verte-zerg/kasiski/internal/wordlist"
)

const (
	defaultSampleWords  = 300
	defaultSampleKeyLen = 6
	defaultSampleCaps   = 0.1
	defaultSamplePunct  = 0.1
	defaultSampleWidth  = 72
	defaultSamplePunctS = ".,;:!?"
)

var (
	sampleLang      string
	sampleWords     int
	sampleKey       string
	sampleKeyLength int
	sampleSeed      int64
	sampleCaps      float64
	samplePunct     float64
	sampleWidth     int
	sampleShowPlain bool
)

func newSampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate a ciphertext from random words",
		Long:  "Builds a plaintext from the language word list, encrypts it and prints the\nciphertext. The key goes to stderr.",
		Args:  cobra.NoArgs,
		RunE:  runSampleCmd,
	}
	cmd.Flags().StringVar(&sampleLang, "lang", defaultLang, "alphabet profile and word list language")
	cmd.Flags().IntVar(&sampleWords, "words", defaultSampleWords, "words in the plaintext")
	cmd.Flags().StringVar(&sampleKey, "key", "", "key to encrypt with (default: random)")
	cmd.Flags().IntVar(&sampleKeyLength, "key-length", defaultSampleKeyLen, "random key length")
	cmd.Flags().Int64Var(&sampleSeed, "seed", 0, "random seed (0 = time based)")
	cmd.Flags().Float64Var(&sampleCaps, "caps", defaultSampleCaps, "probability of capitalized first letter (0-1)")
	cmd.Flags().Float64Var(&samplePunct, "punct", defaultSamplePunct, "punctuation probability per word (0-1)")
	cmd.Flags().IntVar(&sampleWidth, "width", defaultSampleWidth, "wrap lines at this width (0 = one line)")
	cmd.Flags().BoolVar(&sampleShowPlain, "show-plain", false, "also print the plaintext to stderr")
	return cmd
}

func runSampleCmd(cmd *cobra.Command, _ []string) error {
	if sampleWords <= 0 {
		return fmt.Errorf("--words must be > 0")
	}
	if sampleCaps < 0 || sampleCaps > 1 {
		return fmt.Errorf("--caps must be between 0 and 1")
	}
	if samplePunct < 0 || samplePunct > 1 {
		return fmt.Errorf("--punct must be between 0 and 1")
	}
	p, err := profileForLang(sampleLang)
	if err != nil {
		return err
	}

	wordPath := config.DefaultWordListPath(p.Lang())
	words, err := wordlist.LoadWords(wordPath, wordlist.FilterForProfile(p))
	if err != nil {
		return wordListLoadError(p.Lang(), wordPath, err)
	}

	gen := generator.New()
	if sampleSeed != 0 {
		gen = generator.NewSeeded(sampleSeed)
	}
	var key cipher.Key
	if sampleKey != "" {
		key, err = cipher.ParseKey(p, sampleKey)
	} else {
		key, err = gen.Key(p, sampleKeyLength)
	}
	if err != nil {
		return fmt.Errorf("invalid key: %w", err)
	}
	if key.Wildcards() > 0 {
		return fmt.Errorf("sample key must not contain wildcards")
	}

	plain := gen.Text(words, sampleWords, sampleWidth, sampleCaps, samplePunct, []rune(defaultSamplePunctS))
	encoded, err := cipher.Encode(p, plain, key)
	if err != nil {
		return err
	}
	logErrf("key: %s\n", key.String())
	if sampleShowPlain {
		logErrln(plain)
		logErrln()
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), encoded); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func wordListLoadError(lang, path string, err error) error {
	lines := []string{
		fmt.Sprintf("failed to load word list: %v", err),
		fmt.Sprintf("expected word list at: %s", path),
		"Run: kasiski langs",
		fmt.Sprintf("Download: kasiski wordlist --lang %s", lang),
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}
