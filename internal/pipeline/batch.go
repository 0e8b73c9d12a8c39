package pipeline

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/kasiski/internal/alphabet"
	"github.com/verte-zerg/kasiski/internal/cache"
)

// BatchResult is the outcome for one input file. Err is set instead of
// failing the whole batch.
type BatchResult struct {
	Path       string
	Analysis   *Analysis
	Candidates []Candidate
	CacheHit   bool
	Err        error
}

// BatchConfig controls RunBatch.
type BatchConfig struct {
	Profile *alphabet.Profile
	Options Options
	// Top is how many candidates to build per file.
	Top int
	// Jobs bounds concurrent files; zero or less means one.
	Jobs  int
	Cache *cache.DiskCache
}

// RunBatch analyzes every path concurrently and returns results in input order.
// Only context cancellation aborts the batch.
func RunBatch(ctx context.Context, paths []string, cfg BatchConfig) ([]BatchResult, error) {
	if cfg.Profile == nil {
		return nil, fmt.Errorf("batch requires an alphabet profile")
	}
	if err := cfg.Options.Validate(); err != nil {
		return nil, err
	}
	jobs := cfg.Jobs
	if jobs < 1 {
		jobs = 1
	}
	results := make([]BatchResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = analyzeFile(gctx, path, cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func analyzeFile(ctx context.Context, path string, cfg BatchConfig) BatchResult {
	res := BatchResult{Path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		res.Err = fmt.Errorf("failed to read %s: %w", path, err)
		return res
	}
	a, hit, err := AnalyzeCached(cfg.Cache, cfg.Profile, string(data), cfg.Options)
	if err != nil {
		res.Err = err
		return res
	}
	res.Analysis = a
	res.CacheHit = hit
	for i := 0; i < min(cfg.Top, a.Len()); i++ {
		if ctx.Err() != nil {
			break
		}
		c, err := a.Candidate(i)
		if err != nil {
			res.Err = err
			break
		}
		res.Candidates = append(res.Candidates, c)
	}
	return res
}
