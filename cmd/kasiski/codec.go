package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/kasiski/internal/alphabet"
	"github.com/verte-zerg/kasiski/internal/cipher"
)

var (
	codecLang string
	codecKey  string
)

func newEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode [file|-]",
		Short: "Encrypt text with a key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCodec(cmd, args, cipher.Encode)
		},
	}
	addCodecFlags(cmd)
	return cmd
}

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [file|-]",
		Short: "Decrypt text with a key ('_' leaves a position masked)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCodec(cmd, args, cipher.Decode)
		},
	}
	addCodecFlags(cmd)
	return cmd
}

func addCodecFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&codecLang, "lang", defaultLang, "alphabet profile")
	cmd.Flags().StringVar(&codecKey, "key", "", "key letters; '_' marks an unknown slot")
	_ = cmd.MarkFlagRequired("key")
}

type codecFunc func(p *alphabet.Profile, text string, key cipher.Key) (string, error)

func runCodec(cmd *cobra.Command, args []string, transform codecFunc) error {
	p, err := profileForLang(codecLang)
	if err != nil {
		return err
	}
	key, err := cipher.ParseKey(p, codecKey)
	if err != nil {
		return fmt.Errorf("invalid --key: %w", err)
	}
	text, _, _, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	out, err := transform(p, text, key)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprint(cmd.OutOrStdout(), out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
