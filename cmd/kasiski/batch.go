package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/kasiski/internal/pipeline"
	"github.com/verte-zerg/kasiski/internal/report"
)

const defaultBatchTop = 3

var (
	batchTop   int
	batchJobs  int
	batchCache bool
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch file...",
		Short: "Analyze several files concurrently and print the top candidates of each",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runBatchCmd,
	}
	addInspectFlags(cmd)
	cmd.Flags().IntVar(&batchTop, "top", defaultBatchTop, "candidates per file")
	cmd.Flags().IntVar(&batchJobs, "jobs", runtime.NumCPU(), "files analyzed at once")
	cmd.Flags().BoolVar(&batchCache, "cache", true, "reuse cached pattern and key-length analysis")
	return cmd
}

func runBatchCmd(cmd *cobra.Command, args []string) error {
	if batchTop < 1 {
		return fmt.Errorf("--top must be > 0")
	}
	opts, err := inspectOptions()
	if err != nil {
		return err
	}
	p, err := profileForLang(inspectLang)
	if err != nil {
		return err
	}
	pal, err := paletteFor(inspectColor, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	results, err := pipeline.RunBatch(cmd.Context(), args, pipeline.BatchConfig{
		Profile: p,
		Options: opts,
		Top:     batchTop,
		Jobs:    batchJobs,
		Cache:   openCache(batchCache),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, res := range results {
		header := res.Path
		if res.CacheHit {
			header += " (cached)"
		}
		if _, err := fmt.Fprintln(out, pal.Rank.Sprint("== "+header)); err != nil {
			return err
		}
		if res.Err != nil {
			failed++
			if _, err := fmt.Fprintln(out, pal.Warn.Sprintf("error: %v", res.Err)); err != nil {
				return err
			}
			continue
		}
		for _, c := range res.Candidates {
			if err := report.RenderCandidate(out, c, pal); err != nil {
				return err
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}
