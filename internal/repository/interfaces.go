package repository

import (
	"context"
	"time"

	"github.com/rollmark/rollmark/internal/domain/attendance"
)

// FactRepository manages durable attendance fact persistence.
type FactRepository interface {
	Merge(ctx context.Context, key attendance.Key, cand attendance.Candidate, manual bool) (attendance.MergeOutcome, error)
	List(ctx context.Context) ([]attendance.Fact, error)
}

// SessionRepository manages login session tokens. Only token hashes are
// stored, never tokens themselves.
type SessionRepository interface {
	Create(ctx context.Context, tokenHash string, expiresAt time.Time) error
	Validate(ctx context.Context, tokenHash string) (bool, error)
	Revoke(ctx context.Context, tokenHash string) error
}
