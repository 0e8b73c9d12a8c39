package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/kasiski/internal/historyui"
	"github.com/verte-zerg/kasiski/internal/model"
	"github.com/verte-zerg/kasiski/internal/report"
)

var (
	historyLang  string
	historySince string
	historyLast  int
	historyRun   int64
	historyPlain bool
	historyColor string
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded analysis runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyLang, "lang", "", "language filter")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N runs")
	cmd.Flags().Int64Var(&historyRun, "run", 0, "show the candidates of one run")
	cmd.Flags().BoolVar(&historyPlain, "plain", false, "print tables instead of the interactive view")
	cmd.Flags().StringVar(&historyColor, "color", defaultColor, "colour output: auto, on or off")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if historySince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", historySince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	cfg := model.HistoryConfig{
		Lang:  historyLang,
		Since: sinceTime,
		Last:  historyLast,
		Run:   historyRun,
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if !historyPlain && historyRun == 0 && isTerminal(os.Stdout) && isTerminal(os.Stdin) {
		program := tea.NewProgram(historyui.NewModel(st, cfg), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run history TUI: %w", err)
		}
		return nil
	}

	pal, err := paletteFor(historyColor, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	runs, err := st.ListRuns(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if historyRun > 0 && len(runs) == 0 {
		return fmt.Errorf("run %d not found", historyRun)
	}
	if err := report.RenderRuns(out, runs, pal); err != nil {
		return err
	}
	if historyRun == 0 {
		return nil
	}
	cands, err := st.ListCandidates(cmd.Context(), historyRun)
	if err != nil {
		return fmt.Errorf("failed to list candidates: %w", err)
	}
	return report.RenderRunCandidates(out, historyRun, cands, pal)
}
