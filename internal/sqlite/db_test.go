package sqlite

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"attendance",
		"sessions",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}
}

// TestMigrationsIdempotent verifies the schema can be applied twice
func TestMigrationsIdempotent(t *testing.T) {
	db := NewTestDB(t)
	require.NoError(t, db.RunMigrations())
}

// TestNullPeriodRows verifies NULL and empty-string periods are distinct rows
func TestNullPeriodRows(t *testing.T) {
	db := NewTestDB(t)

	_, err := db.Exec(
		`INSERT INTO attendance (id, person_id, name, date, period, status) VALUES (?, ?, ?, ?, ?, ?)`,
		"f1", "S1", "Alice", "2024-05-01", nil, "present")
	require.NoError(t, err)

	_, err = db.Exec(
		`INSERT INTO attendance (id, person_id, name, date, period, status) VALUES (?, ?, ?, ?, ?, ?)`,
		"f2", "S1", "Alice", "2024-05-01", "", "absent")
	require.NoError(t, err)

	var status string
	err = db.QueryRow(
		`SELECT status FROM attendance WHERE person_id = ? AND date = ? AND period IS NULL`,
		"S1", "2024-05-01").Scan(&status)
	require.NoError(t, err)
	require.Equal(t, "present", status)

	err = db.QueryRow(
		`SELECT status FROM attendance WHERE person_id = ? AND date = ? AND period IS ''`,
		"S1", "2024-05-01").Scan(&status)
	require.NoError(t, err)
	require.Equal(t, "absent", status)
}
