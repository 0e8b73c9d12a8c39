package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/kasiski/internal/analysis"
	"github.com/verte-zerg/kasiski/internal/cipher"
	"github.com/verte-zerg/kasiski/internal/config"
	"github.com/verte-zerg/kasiski/internal/model"
	"github.com/verte-zerg/kasiski/internal/pipeline"
	"github.com/verte-zerg/kasiski/internal/report"
	"github.com/verte-zerg/kasiski/internal/store"
	"github.com/verte-zerg/kasiski/internal/tui"
)

// plainLengthRows is how many key lengths the plain report lists before the
// candidates.
const plainLengthRows = 10

var (
	analyzeLang         string
	analyzeMinPattern   int
	analyzeMaxPattern   int
	analyzeMinKey       int
	analyzeMaxKey       int
	analyzePatternCount string
	analyzeTop          int
	analyzeCache        bool
	analyzeRecord       bool
	analyzePlain        bool
	analyzeNoPause      bool
	analyzeColor        string
)

func addAnalyzeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&analyzeLang, "lang", defaultLang, "alphabet profile")
	cmd.Flags().IntVar(&analyzeMinPattern, "min-pattern", defaultMinPattern, "shortest repeated pattern")
	cmd.Flags().IntVar(&analyzeMaxPattern, "max-pattern", defaultMaxPattern, "longest repeated pattern")
	cmd.Flags().IntVar(&analyzeMinKey, "min-key", defaultMinKey, "shortest key length to rank")
	cmd.Flags().IntVar(&analyzeMaxKey, "max-key", defaultMaxKey, "longest key length to rank")
	cmd.Flags().StringVar(&analyzePatternCount, "pattern-count", defaultPatternCount, "pattern counting: overlapping or non-overlapping")
	cmd.Flags().IntVar(&analyzeTop, "top", defaultTop, "candidates to print in plain mode (0 = all)")
	cmd.Flags().BoolVar(&analyzeCache, "cache", true, "reuse cached pattern and key-length analysis")
	cmd.Flags().BoolVar(&analyzeRecord, "record", true, "record the run in history")
	cmd.Flags().BoolVar(&analyzePlain, "plain", false, "print a plain report instead of the interactive browser")
	cmd.Flags().BoolVar(&analyzeNoPause, "no-pause", false, "do not wait for enter between plain candidates")
	cmd.Flags().StringVar(&analyzeColor, "color", defaultColor, "colour plain output: auto, on or off")
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	overlayConfig(cmd, "lang", &analyzeLang, fileCfg.Analysis.Lang)
	overlayConfig(cmd, "min-pattern", &analyzeMinPattern, fileCfg.Analysis.MinPattern)
	overlayConfig(cmd, "max-pattern", &analyzeMaxPattern, fileCfg.Analysis.MaxPattern)
	overlayConfig(cmd, "min-key", &analyzeMinKey, fileCfg.Analysis.MinKey)
	overlayConfig(cmd, "max-key", &analyzeMaxKey, fileCfg.Analysis.MaxKey)
	overlayConfig(cmd, "pattern-count", &analyzePatternCount, fileCfg.Analysis.PatternCount)
	overlayConfig(cmd, "top", &analyzeTop, fileCfg.Analysis.Top)
	overlayConfig(cmd, "cache", &analyzeCache, fileCfg.Analysis.Cache)
	overlayConfig(cmd, "record", &analyzeRecord, fileCfg.Analysis.Record)
	overlayConfig(cmd, "color", &analyzeColor, fileCfg.Analysis.Color)

	raw, source, fromStdin, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	cfg := model.Config{
		Lang:          analyzeLang,
		MinPattern:    analyzeMinPattern,
		MaxPattern:    analyzeMaxPattern,
		MinKey:        analyzeMinKey,
		MaxKey:        analyzeMaxKey,
		PatternCount:  analyzePatternCount,
		Cache:         analyzeCache,
		Record:        analyzeRecord,
		Top:           analyzeTop,
		Pause:         !analyzeNoPause,
		ForcePlain:    analyzePlain,
		Color:         analyzeColor,
		Source:        source,
		CiphertextLen: len([]rune(raw)),
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}
	opts, err := buildOptions(cfg)
	if err != nil {
		return err
	}

	reg, err := loadRegistry(fileCfg)
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}
	p, err := reg.Get(cfg.Lang)
	if err != nil {
		return err
	}

	a, hit, err := pipeline.AnalyzeCached(openCache(cfg.Cache), p, raw, opts)
	if err != nil {
		return fmt.Errorf("failed to analyze %s: %w", source, err)
	}

	var (
		st       *store.Store
		runID    int64
		recalled cipher.Key
	)
	if cfg.Record {
		st, err = openStore()
		if err != nil {
			logErrf("history disabled: %v\n", err)
		} else {
			defer closeStore(st)
			runID, recalled = recordRun(st, a, cfg, hit)
		}
	}

	interactive := !cfg.ForcePlain && !fromStdin && isTerminal(os.Stdout) && isTerminal(os.Stdin)
	if interactive {
		m := tui.NewModel(a, st, runID, recalled)
		program := tea.NewProgram(m, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run TUI: %w", err)
		}
		return nil
	}

	pal, err := paletteFor(cfg.Color, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	session := plainSession{
		out:      cmd.OutOrStdout(),
		pal:      pal,
		analysis: a,
		store:    st,
		runID:    runID,
		recalled: recalled,
		top:      cfg.Top,
		cacheHit: hit,
	}
	if cfg.Pause && !fromStdin && isTerminal(os.Stdin) {
		session.in = bufio.NewReader(cmd.InOrStdin())
	}
	return session.run()
}

func buildOptions(cfg model.Config) (pipeline.Options, error) {
	mode, err := analysis.ParseCountMode(cfg.PatternCount)
	if err != nil {
		return pipeline.Options{}, err
	}
	opts := pipeline.Options{
		MinPatternLen: cfg.MinPattern,
		MaxPatternLen: cfg.MaxPattern,
		MinKeyLen:     cfg.MinKey,
		MaxKeyLen:     cfg.MaxKey,
		CountMode:     mode,
	}
	return opts, opts.Validate()
}

// recordRun stores the run header and looks up a key accepted for the same
// input earlier. Failures only disable history.
func recordRun(st *store.Store, a *pipeline.Analysis, cfg model.Config, hit bool) (int64, cipher.Key) {
	ctx := context.Background()
	digest := pipeline.Digest(a.Profile(), a.Text().Clean, a.Options()).String()

	var recalled cipher.Key
	if keyText, ok, err := st.AcceptedKey(ctx, digest); err != nil {
		logErrf("failed to look up accepted key: %v\n", err)
	} else if ok {
		key, err := cipher.ParseKey(a.Profile(), keyText)
		if err != nil {
			logErrf("ignoring stored key %q: %v\n", keyText, err)
		} else {
			recalled = key
		}
	}

	runID, err := st.InsertRun(ctx, model.RunRecord{
		StartedAt:    time.Now(),
		Digest:       digest,
		Source:       cfg.Source,
		Lang:         a.Profile().Name(),
		PatternCount: a.Options().CountMode.String(),
		MinKey:       cfg.MinKey,
		MaxKey:       cfg.MaxKey,
		TextLen:      len(a.Text().Clean),
		Patterns:     len(a.Patterns()),
		CacheHit:     hit,
	})
	if err != nil {
		logErrf("failed to record run: %v\n", err)
		return 0, recalled
	}
	return runID, recalled
}

// plainSession prints candidates one at a time, pulling the next only after
// the operator asks for it.
type plainSession struct {
	out      io.Writer
	in       *bufio.Reader
	pal      report.Palette
	analysis *pipeline.Analysis
	store    *store.Store
	runID    int64
	recalled cipher.Key
	top      int
	cacheHit bool
}

func (s *plainSession) run() error {
	a := s.analysis
	summary := fmt.Sprintf("%d letters, %d repeated patterns, profile %s", len(a.Text().Clean), len(a.Patterns()), a.Profile().Name())
	if s.cacheHit {
		summary += " (cached)"
	}
	if _, err := fmt.Fprintln(s.out, summary); err != nil {
		return err
	}
	if err := report.RenderKeyLengths(s.out, a.KeyLengths(), plainLengthRows); err != nil {
		return err
	}

	if s.recalled != nil {
		c, err := a.Recall(s.recalled)
		if err != nil {
			return fmt.Errorf("failed to decode with accepted key: %w", err)
		}
		if _, err := fmt.Fprintln(s.out, s.pal.Warn.Sprint("Previously accepted key:")); err != nil {
			return err
		}
		if stop, err := s.show(c); err != nil || stop {
			return err
		}
	}

	shown := 0
	for c, err := range a.Candidates() {
		if err != nil {
			return err
		}
		if s.top > 0 && shown >= s.top {
			break
		}
		shown++
		stop, err := s.show(c)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	_, err := fmt.Fprintln(s.out, "No more candidates.")
	return err
}

// show prints c, records it and waits for the operator. It reports whether
// the operator asked to stop.
func (s *plainSession) show(c pipeline.Candidate) (bool, error) {
	if err := report.RenderCandidate(s.out, c, s.pal); err != nil {
		return false, err
	}
	s.record(c)
	if s.in == nil {
		return false, nil
	}
	for {
		if _, err := fmt.Fprint(s.out, "press enter to continue, a to accept, q to quit: "); err != nil {
			return false, err
		}
		line, err := s.in.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		if err != nil && answer == "" {
			// Input closed; stop pausing.
			s.in = nil
			return false, nil
		}
		switch answer {
		case "q", "quit":
			return true, nil
		case "a", "accept":
			s.accept(c)
			continue
		default:
			return false, nil
		}
	}
}

func (s *plainSession) record(c pipeline.Candidate) {
	if s.store == nil || s.runID == 0 {
		return
	}
	rec := model.CandidateRecord{
		Rank:         c.Rank,
		KeyLength:    c.KeyLength.Length,
		FailureRatio: c.KeyLength.FailureRatio,
		Key:          c.Key.String(),
		Fit:          c.Fit,
	}
	if err := s.store.InsertCandidates(context.Background(), s.runID, []model.CandidateRecord{rec}); err != nil {
		logErrf("failed to record candidate: %v\n", err)
	}
}

func (s *plainSession) accept(c pipeline.Candidate) {
	if s.store == nil || s.runID == 0 {
		logErrln("history is disabled; nothing to accept into")
		return
	}
	if err := s.store.MarkAccepted(context.Background(), s.runID, c.Rank); err != nil {
		logErrf("failed to save accepted key: %v\n", err)
		return
	}
	if _, err := fmt.Fprintf(s.out, "Accepted key %s\n", s.pal.Key.Sprint(c.Key.String())); err != nil {
		logErrf("failed to write output: %v\n", err)
	}
}
