package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rollmark/rollmark/internal/domain/attendance"
)

// FactRepository implements the conflict-resolving attendance store for
// SQLite. The read-then-write of Merge runs in a single transaction, so
// concurrent merges on the same key are serialized.
type FactRepository struct {
	db *DB
}

// NewFactRepository creates a new FactRepository
func NewFactRepository(db *DB) *FactRepository {
	return &FactRepository{db: db}
}

// Merge applies the conflict policy for one key and returns what it did.
//
// Policy, in order, for an existing fact:
//  1. edited facts are never changed by automated merges
//  2. automated merges never downgrade a present fact to absent
//  3. automated merges with no new information (same status, time not newer)
//     are skipped
//  4. otherwise the candidate is applied; a manual edit without a new time
//     keeps the stored time, a non-empty candidate name replaces the stored
//     name, and manual edits set the protection flag
//
// A missing fact is inserted unconditionally with edited = manual.
func (r *FactRepository) Merge(ctx context.Context, key attendance.Key, cand attendance.Candidate, manual bool) (attendance.MergeOutcome, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin merge transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		rowID      string
		name       string
		storedTime sql.NullString
		status     string
		edited     bool
	)
	err = tx.QueryRowContext(ctx, `
		SELECT id, name, time, status, edited
		FROM attendance
		WHERE person_id = ? AND date = ? AND period IS ?`,
		key.PersonID, key.Date, nullable(key.Period),
	).Scan(&rowID, &name, &storedTime, &status, &edited)

	if errors.Is(err, sql.ErrNoRows) {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO attendance (id, person_id, name, date, period, time, status, edited, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), key.PersonID, cand.PersonName, key.Date,
			nullable(key.Period), emptyToNull(cand.Time), cand.Status, manual, time.Now().UTC(),
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert fact: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return "", fmt.Errorf("failed to commit insert: %w", err)
		}
		return attendance.OutcomeInserted, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load fact: %w", err)
	}

	if edited && !manual {
		return attendance.OutcomeSkipped, nil
	}
	if !manual {
		if status == attendance.StatusPresent && cand.Status == attendance.StatusAbsent {
			return attendance.OutcomeSkipped, nil
		}
		if storedTime.Valid && storedTime.String != "" && cand.Time != "" &&
			cand.Time <= storedTime.String && cand.Status == status {
			return attendance.OutcomeSkipped, nil
		}
	}

	newTime := emptyToNull(cand.Time)
	if manual && cand.Time == "" {
		newTime = nil
		if storedTime.Valid {
			newTime = storedTime.String
		}
	}
	newName := name
	if cand.PersonName != "" {
		newName = cand.PersonName
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE attendance SET name = ?, time = ?, status = ?, edited = ?
		WHERE id = ?`,
		newName, newTime, cand.Status, edited || manual, rowID,
	)
	if err != nil {
		return "", fmt.Errorf("failed to update fact: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit update: %w", err)
	}
	return attendance.OutcomeUpdated, nil
}

// List returns all facts ordered by date descending, then time descending.
func (r *FactRepository) List(ctx context.Context) ([]attendance.Fact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT person_id, name, date, period, time, status, edited, created_at
		FROM attendance
		ORDER BY date DESC, time DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list facts: %w", err)
	}
	defer rows.Close()

	var facts []attendance.Fact
	for rows.Next() {
		var (
			fact          attendance.Fact
			period, ftime sql.NullString
		)
		err := rows.Scan(
			&fact.PersonID,
			&fact.PersonName,
			&fact.Date,
			&period,
			&ftime,
			&fact.Status,
			&fact.Edited,
			&fact.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fact: %w", err)
		}
		if period.Valid {
			p := period.String
			fact.Period = &p
		}
		if ftime.Valid {
			t := ftime.String
			fact.Time = &t
		}
		facts = append(facts, fact)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fact rows: %w", err)
	}

	return facts, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func emptyToNull(s string) any {
	if s == "" {
		return nil
	}
	return s
}
