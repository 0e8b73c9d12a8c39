package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/kasiski/internal/config"
	"github.com/verte-zerg/kasiski/internal/model"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := ensureConfigFile(path); err != nil {
		return err
	}
	editor := editorCommand(os.Getenv("EDITOR"), path)
	editor.Stdin, editor.Stdout, editor.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := editor.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// ensureConfigFile writes the commented template to path unless a file is
// already there.
func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	if _, err := f.WriteString(defaultConfigTemplate()); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	return f.Close()
}

// editorCommand builds the command that opens path in $EDITOR, which may
// carry arguments. vi is used when it is unset.
func editorCommand(editor, path string) *exec.Cmd {
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		parts = []string{"vi"}
	}
	return exec.Command(parts[0], append(parts[1:], path)...)
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# kasiski configuration
# Uncomment a value to enable it. CLI flags override config values.

[analysis]
# lang = %q                  # Alphabet profile (built-in: en, ru)
# min-pattern = %d            # Shortest repeated pattern
# max-pattern = %d           # Longest repeated pattern
# min-key = %d                # Shortest key length to rank
# max-key = %d               # Longest key length to rank
# pattern-count = %q # Or "non-overlapping"
# top = %d                    # Plain-mode candidates to print (0 = all)
# cache = true               # Reuse cached analysis
# record = true              # Record runs in history
# color = %q               # auto, on or off

# Custom alphabet profiles. Frequencies are percentages in alphabet order.
# [profiles.de]
# lang = "de"
# alphabet = "abcdefghijklmnopqrstuvwxyzäöüß"
# frequencies = [6.51, 1.89, 3.06, 5.08, 17.40, 1.66, 3.01, 4.76, 7.55, 0.27,
#                1.21, 3.44, 2.53, 9.78, 2.51, 0.79, 0.02, 7.00, 7.27, 6.15,
#                4.35, 0.67, 1.89, 0.03, 0.04, 1.13, 0.54, 0.30, 0.65, 0.31]
`,
		defaultLang,
		defaultMinPattern,
		defaultMaxPattern,
		defaultMinKey,
		defaultMaxKey,
		defaultPatternCount,
		defaultTop,
		defaultColor,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.MinPattern < 1 {
		return fmt.Errorf("--min-pattern must be > 0")
	}
	if cfg.MaxPattern < cfg.MinPattern {
		return fmt.Errorf("--max-pattern must be >= --min-pattern")
	}
	if cfg.MinKey < 1 {
		return fmt.Errorf("--min-key must be > 0")
	}
	if cfg.MaxKey < cfg.MinKey {
		return fmt.Errorf("--max-key must be >= --min-key")
	}
	if cfg.Top < 0 {
		return fmt.Errorf("--top must be >= 0")
	}
	if cfg.CiphertextLen == 0 {
		return fmt.Errorf("ciphertext is empty")
	}
	return nil
}

// overlayConfig copies a config file value into target unless the flag
// name was set on the command line or the file left the value out.
func overlayConfig[T any](cmd *cobra.Command, name string, target, value *T) {
	if value != nil && !cmd.Flags().Changed(name) {
		*target = *value
	}
}
