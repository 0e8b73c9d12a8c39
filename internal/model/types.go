// Package model defines shared data structures.
package model

import "time"

// Config defines analysis settings after config file and flag merging.
type Config struct {
	Lang          string
	MinPattern    int
	MaxPattern    int
	MinKey        int
	MaxKey        int
	PatternCount  string
	Cache         bool
	Record        bool
	Top           int
	Pause         bool
	ForcePlain    bool
	Color         string
	Source        string
	CiphertextLen int
}

// HistoryConfig defines filters for history output.
type HistoryConfig struct {
	Lang  string
	Since *time.Time
	Last  int
	Run   int64
}

// RunRecord captures one analysis run.
type RunRecord struct {
	ID           int64
	StartedAt    time.Time
	Digest       string
	Source       string
	Lang         string
	PatternCount string
	MinKey       int
	MaxKey       int
	TextLen      int
	Patterns     int
	CacheHit     bool
	// AcceptedKey is empty until a candidate of this run is accepted.
	AcceptedKey string
}

// CandidateRecord stores one candidate shown during a run.
type CandidateRecord struct {
	RunID        int64
	Rank         int
	KeyLength    int
	FailureRatio float64
	Key          string
	Fit          float64
	Accepted     bool
}

// RunAggregate summarizes a run for history listings.
type RunAggregate struct {
	Run        RunRecord
	Candidates int
	BestFit    float64
}
