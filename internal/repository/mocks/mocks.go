package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/rollmark/rollmark/internal/domain/attendance"
)

// FactRepository is a mock for repository.FactRepository.
type FactRepository struct {
	mock.Mock
}

func (m *FactRepository) Merge(ctx context.Context, key attendance.Key, cand attendance.Candidate, manual bool) (attendance.MergeOutcome, error) {
	args := m.Called(ctx, key, cand, manual)
	if out, ok := args.Get(0).(attendance.MergeOutcome); ok {
		return out, args.Error(1)
	}
	return "", args.Error(1)
}

func (m *FactRepository) List(ctx context.Context) ([]attendance.Fact, error) {
	args := m.Called(ctx)
	if facts, ok := args.Get(0).([]attendance.Fact); ok {
		return facts, args.Error(1)
	}
	return nil, args.Error(1)
}

// SessionRepository is a mock for repository.SessionRepository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Create(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *SessionRepository) Validate(ctx context.Context, tokenHash string) (bool, error) {
	args := m.Called(ctx, tokenHash)
	return args.Bool(0), args.Error(1)
}

func (m *SessionRepository) Revoke(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}
