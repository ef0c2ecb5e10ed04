package attendance

import "context"

// FactRepository is the durable conflict-resolving store. All mutations go
// through Merge, never a raw overwrite, so the edited-protection invariant
// holds across actors. Merge must be atomic per key.
type FactRepository interface {
	Merge(ctx context.Context, key Key, cand Candidate, manual bool) (MergeOutcome, error)
	List(ctx context.Context) ([]Fact, error)
}

// Fetcher retrieves a remote JSON document without relying on any
// intermediate cache.
type Fetcher interface {
	FetchJSON(ctx context.Context, url string) ([]byte, error)
}

// Metrics receives import pipeline counters. Implementations must be safe
// for concurrent use.
type Metrics interface {
	ObserveRun(result string, imported, absents int, tookSeconds float64)
}
