package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/verte-zerg/kasiski/internal/model"
)

// timeLayout stores timestamps at a fixed width in UTC so that text order
// is time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// InsertRun stores a run header and returns its id.
func (s *Store) InsertRun(ctx context.Context, run model.RunRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (started_at, digest, source, lang, pattern_count,
			min_key, max_key, text_len, patterns, cache_hit)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.StartedAt.UTC().Format(timeLayout), run.Digest, run.Source, run.Lang, run.PatternCount,
		run.MinKey, run.MaxKey, run.TextLen, run.Patterns, boolInt(run.CacheHit),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return res.LastInsertId()
}

// InsertCandidates records candidates shown for a run. Re-inserting a rank
// replaces it but keeps its accepted flag.
func (s *Store) InsertCandidates(ctx context.Context, runID int64, cands []model.CandidateRecord) error {
	if len(cands) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO candidates (run_id, rank, key_length, failure_ratio, key, fit, accepted)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(run_id, rank) DO UPDATE SET
				key_length = excluded.key_length,
				failure_ratio = excluded.failure_ratio,
				key = excluded.key,
				fit = excluded.fit`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, c := range cands {
			if _, err := stmt.ExecContext(ctx, runID, c.Rank, c.KeyLength, c.FailureRatio, c.Key, c.Fit, boolInt(c.Accepted)); err != nil {
				return fmt.Errorf("insert candidate %d: %w", c.Rank, err)
			}
		}
		return nil
	})
}

// MarkAccepted flags one candidate of a run as the accepted key, clearing any
// earlier choice for that run.
func (s *Store) MarkAccepted(ctx context.Context, runID int64, rank int) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE candidates SET accepted = 0 WHERE run_id = ?`, runID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `UPDATE candidates SET accepted = 1 WHERE run_id = ? AND rank = ?`, runID, rank)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return fmt.Errorf("run %d rank %d: %w", runID, rank, ErrNoCandidate)
		}
		return nil
	})
}

// AcceptedKey returns the most recently accepted key for a digest.
func (s *Store) AcceptedKey(ctx context.Context, digest string) (string, bool, error) {
	var key string
	err := s.db.QueryRowContext(ctx,
		`SELECT c.key FROM candidates c
		 JOIN runs r ON r.id = c.run_id
		 WHERE r.digest = ? AND c.accepted = 1
		 ORDER BY r.started_at DESC, r.id DESC
		 LIMIT 1`, digest).Scan(&key)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return key, true, nil
}

const runAggregateQuery = `SELECT r.id, r.started_at, r.digest, r.source, r.lang, r.pattern_count,
		r.min_key, r.max_key, r.text_len, r.patterns, r.cache_hit,
		COUNT(c.rank), COALESCE(MIN(c.fit), 0),
		COALESCE(MAX(CASE WHEN c.accepted = 1 THEN c.key END), '')
	FROM runs r
	LEFT JOIN candidates c ON c.run_id = r.id`

// ListRuns returns run aggregates matching cfg, oldest first. Last keeps the
// newest N matches.
func (s *Store) ListRuns(ctx context.Context, cfg model.HistoryConfig) ([]model.RunAggregate, error) {
	var where []string
	var args []any
	if cfg.Lang != "" {
		where, args = append(where, "r.lang = ?"), append(args, cfg.Lang)
	}
	if cfg.Since != nil {
		where, args = append(where, "r.started_at >= ?"), append(args, cfg.Since.UTC().Format(timeLayout))
	}
	if cfg.Run > 0 {
		where, args = append(where, "r.id = ?"), append(args, cfg.Run)
	}

	var q strings.Builder
	q.WriteString(runAggregateQuery)
	if len(where) > 0 {
		q.WriteString("\n\tWHERE " + strings.Join(where, " AND "))
	}
	q.WriteString("\n\tGROUP BY r.id\n\tORDER BY r.started_at DESC, r.id DESC")
	if cfg.Last > 0 {
		q.WriteString("\n\tLIMIT ?")
		args = append(args, cfg.Last)
	}

	rows, err := s.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []model.RunAggregate
	for rows.Next() {
		agg, err := scanRunAggregate(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(runs)
	return runs, nil
}

func scanRunAggregate(rows *sql.Rows) (model.RunAggregate, error) {
	var (
		agg       model.RunAggregate
		startedAt string
		cacheHit  int
	)
	run := &agg.Run
	err := rows.Scan(&run.ID, &startedAt, &run.Digest, &run.Source, &run.Lang,
		&run.PatternCount, &run.MinKey, &run.MaxKey, &run.TextLen, &run.Patterns,
		&cacheHit, &agg.Candidates, &agg.BestFit, &run.AcceptedKey)
	if err != nil {
		return agg, err
	}
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return agg, fmt.Errorf("run %d: bad timestamp %q: %w", run.ID, startedAt, err)
	}
	run.CacheHit = cacheHit != 0
	return agg, nil
}

// ListCandidates returns the recorded candidates of a run by rank.
func (s *Store) ListCandidates(ctx context.Context, runID int64) ([]model.CandidateRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, rank, key_length, failure_ratio, key, fit, accepted
		 FROM candidates WHERE run_id = ? ORDER BY rank`, runID)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []model.CandidateRecord
	for rows.Next() {
		var (
			c        model.CandidateRecord
			accepted int
		)
		if err := rows.Scan(&c.RunID, &c.Rank, &c.KeyLength, &c.FailureRatio, &c.Key, &c.Fit, &accepted); err != nil {
			return nil, err
		}
		c.Accepted = accepted != 0
		out = append(out, c)
	}
	return out, rows.Err()
}
