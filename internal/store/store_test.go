package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/kasiski/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "kasiski.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func insertRun(t *testing.T, st *Store, digest string, at time.Time, lang string) int64 {
	t.Helper()
	id, err := st.InsertRun(context.Background(), model.RunRecord{
		StartedAt:    at,
		Digest:       digest,
		Source:       "stdin",
		Lang:         lang,
		PatternCount: "overlapping",
		MinKey:       2,
		MaxKey:       25,
		TextLen:      1450,
		Patterns:     312,
	})
	if err != nil {
		t.Fatalf("insert run: %v", err)
	}
	return id
}

func TestCandidatesAndAcceptedKey(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Unix(0, 0).UTC()

	runID := insertRun(t, st, "abc", base, "en")
	cands := []model.CandidateRecord{
		{Rank: 1, KeyLength: 10, FailureRatio: 0.4, Key: "lemonlemon", Fit: 0.9},
		{Rank: 2, KeyLength: 5, FailureRatio: 0.41, Key: "lemon", Fit: 0.8},
	}
	if err := st.InsertCandidates(ctx, runID, cands); err != nil {
		t.Fatalf("insert candidates: %v", err)
	}

	if _, ok, err := st.AcceptedKey(ctx, "abc"); err != nil || ok {
		t.Fatalf("expected no accepted key yet, got ok=%v err=%v", ok, err)
	}

	if err := st.MarkAccepted(ctx, runID, 2); err != nil {
		t.Fatalf("mark accepted: %v", err)
	}
	key, ok, err := st.AcceptedKey(ctx, "abc")
	if err != nil || !ok || key != "lemon" {
		t.Fatalf("accepted key = %q ok=%v err=%v, want lemon", key, ok, err)
	}

	// Re-recording a rank keeps its accepted flag.
	if err := st.InsertCandidates(ctx, runID, cands[1:]); err != nil {
		t.Fatalf("re-insert candidates: %v", err)
	}
	got, err := st.ListCandidates(ctx, runID)
	if err != nil {
		t.Fatalf("list candidates: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Accepted || !got[1].Accepted {
		t.Fatalf("unexpected accepted flags: %+v", got)
	}

	if err := st.MarkAccepted(ctx, runID, 7); !errors.Is(err, ErrNoCandidate) {
		t.Fatalf("expected ErrNoCandidate for unknown rank, got %v", err)
	}
	if key, _, _ := st.AcceptedKey(ctx, "abc"); key != "lemon" {
		t.Fatalf("failed accept must not clear previous choice, got %q", key)
	}

	// A later run of the same digest wins.
	later := insertRun(t, st, "abc", base.Add(time.Hour), "en")
	if err := st.InsertCandidates(ctx, later, []model.CandidateRecord{{Rank: 1, KeyLength: 5, Key: "lemox"}}); err != nil {
		t.Fatalf("insert candidates: %v", err)
	}
	if err := st.MarkAccepted(ctx, later, 1); err != nil {
		t.Fatalf("mark accepted: %v", err)
	}
	if key, _, _ := st.AcceptedKey(ctx, "abc"); key != "lemox" {
		t.Fatalf("expected newest accepted key, got %q", key)
	}
}

func TestListRunsFilters(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Unix(0, 0).UTC()

	first := insertRun(t, st, "d1", base, "en")
	insertRun(t, st, "d2", base.Add(time.Minute), "ru")
	third := insertRun(t, st, "d3", base.Add(2*time.Minute), "en")
	if err := st.InsertCandidates(ctx, first, []model.CandidateRecord{
		{Rank: 1, Key: "ab", Fit: 2.5},
		{Rank: 2, Key: "abc", Fit: 1.5},
	}); err != nil {
		t.Fatalf("insert candidates: %v", err)
	}
	if err := st.MarkAccepted(ctx, first, 2); err != nil {
		t.Fatalf("mark accepted: %v", err)
	}

	runs, err := st.ListRuns(ctx, model.HistoryConfig{})
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 3 || runs[0].Run.ID != first || runs[2].Run.ID != third {
		t.Fatalf("unexpected run order: %+v", runs)
	}
	if runs[0].Candidates != 2 || runs[0].BestFit != 1.5 || runs[0].Run.AcceptedKey != "abc" {
		t.Fatalf("unexpected aggregate: %+v", runs[0])
	}
	if runs[1].Candidates != 0 || runs[1].Run.AcceptedKey != "" {
		t.Fatalf("unexpected empty aggregate: %+v", runs[1])
	}

	runs, err = st.ListRuns(ctx, model.HistoryConfig{Lang: "en", Last: 1})
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Run.ID != third {
		t.Fatalf("expected newest en run, got %+v", runs)
	}

	since := base.Add(90 * time.Second)
	runs, err = st.ListRuns(ctx, model.HistoryConfig{Since: &since})
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Run.Digest != "d3" {
		t.Fatalf("expected only d3 since filter, got %+v", runs)
	}
	if !runs[0].Run.StartedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("unexpected started_at: %v", runs[0].Run.StartedAt)
	}
}

func TestRunsOrderWithinOneSecond(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	whole, err := st.InsertRun(ctx, model.RunRecord{StartedAt: base, Digest: "a", Source: "a", Lang: "en"})
	if err != nil {
		t.Fatalf("insert run: %v", err)
	}
	later, err := st.InsertRun(ctx, model.RunRecord{StartedAt: base.Add(100 * time.Millisecond), Digest: "b", Source: "b", Lang: "en"})
	if err != nil {
		t.Fatalf("insert run: %v", err)
	}

	runs, err := st.ListRuns(ctx, model.HistoryConfig{})
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].Run.ID != whole || runs[1].Run.ID != later {
		t.Fatalf("expected whole second before its fraction, got %+v", runs)
	}

	since := base.Add(50 * time.Millisecond)
	runs, err = st.ListRuns(ctx, model.HistoryConfig{Since: &since})
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Run.ID != later {
		t.Fatalf("expected only the later run since %v, got %+v", since, runs)
	}
}
