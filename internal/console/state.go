// Package console drives a single search from query entry to resolved results.
package console

import (
	"time"

	"github.com/ca-srg/footprint/internal/results"
	"github.com/ca-srg/footprint/internal/types"
)

// Phase is the dispatcher lifecycle state.
type Phase string

const (
	PhaseEnteringQuery Phase = "entering_query"
	PhaseLoading       Phase = "loading"
	PhaseResolved      Phase = "resolved"
)

// Snapshot is an immutable copy of the dispatcher state.
type Snapshot struct {
	// Version increases by one on every transition.
	Version      uint64                    `json:"version"`
	Phase        Phase                     `json:"phase"`
	Query        *types.Query              `json:"query,omitempty"`
	Results      results.NormalizedResults `json:"results"`
	Notification *Notification             `json:"notification,omitempty"`
	StartedAt    time.Time                 `json:"started_at,omitempty"`
	ResolvedAt   time.Time                 `json:"resolved_at,omitempty"`
}

// Elapsed returns the time spent loading, or zero before resolution.
func (s Snapshot) Elapsed() time.Duration {
	if s.StartedAt.IsZero() || s.ResolvedAt.IsZero() {
		return 0
	}
	return s.ResolvedAt.Sub(s.StartedAt)
}

// Outcome is the result of one fetch. Err is set when the request failed; Results
// is then empty.
type Outcome struct {
	Query    types.Query
	Results  results.NormalizedResults
	Endpoint string
	Err      error
	Elapsed  time.Duration
}

// Failed reports whether the fetch failed.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Kind classifies the outcome for usage counters.
func (o Outcome) Kind() OutcomeKind {
	switch {
	case o.Err != nil:
		return OutcomeFailure
	case o.Results.IsEmpty():
		return OutcomeEmpty
	default:
		return OutcomeResults
	}
}

// OutcomeKind is the coarse result of a search attempt.
type OutcomeKind string

const (
	OutcomeResults  OutcomeKind = "results"
	OutcomeEmpty    OutcomeKind = "empty"
	OutcomeFailure  OutcomeKind = "failure"
	OutcomeRejected OutcomeKind = "rejected"
)
