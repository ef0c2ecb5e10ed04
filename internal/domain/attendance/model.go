package attendance

import "time"

// Well-known status values. Status is free-form after lowercasing; these
// are the ones the merge policy and validators care about.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
)

// Observation is one normalized remote attendance record. Observations are
// ephemeral: produced by the normalizer, consumed within a single import run.
type Observation struct {
	PersonID   string
	PersonName string
	Date       string
	Period     *string // nil means no period subdivision
	Time       string  // "" means no reported time
	Status     string
}

// Key identifies the durable fact a merge targets. A nil Period is a
// distinct, matchable key value, not a wildcard.
type Key struct {
	PersonID string
	Date     string
	Period   *string
}

// Candidate carries the values a merge call proposes for a key.
type Candidate struct {
	Status     string
	Time       string // "" means no reported time
	PersonName string
}

// Fact is the authoritative attendance record per (person, date, period).
type Fact struct {
	PersonID   string    `json:"id"`
	PersonName string    `json:"name"`
	Date       string    `json:"date"`
	Period     *string   `json:"period"`
	Time       *string   `json:"time"`
	Status     string    `json:"status"`
	Edited     bool      `json:"edited"`
	CreatedAt  time.Time `json:"created_at"`
}

// MergeOutcome reports what a merge call did.
type MergeOutcome string

const (
	OutcomeInserted MergeOutcome = "inserted"
	OutcomeUpdated  MergeOutcome = "updated"
	OutcomeSkipped  MergeOutcome = "skipped"
)

// RunOutcome summarizes one completed import run.
type RunOutcome struct {
	Imported    int       `json:"imported"`
	Absents     int       `json:"absents"`
	CompletedAt time.Time `json:"at"`
	Source      string    `json:"source"`
}

// RunFailure records an import run that aborted before merging anything.
type RunFailure struct {
	Error    string    `json:"error"`
	FailedAt time.Time `json:"at"`
}

// RunStatus is the "last run" slot. LastSuccess survives later failures, so
// a failed run never resets counts to zero.
type RunStatus struct {
	Running     bool        `json:"running"`
	LastSuccess *RunOutcome `json:"last_success,omitempty"`
	LastFailure *RunFailure `json:"last_failure,omitempty"`
}
