package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

// createTestStore creates a store backed by a fresh database file.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// inTx runs fn in a single non-retried transaction and fails the test on
// error.
func inTx(t *testing.T, s *Store, fn func(tx *sql.Tx) error) {
	t.Helper()
	if err := s.RunInTransactionWithRetry(context.Background(), 0, fn); err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
}

// writeAspect stores one row directly, bypassing the write protocol.
func writeAspect(t *testing.T, s *Store, urn, aspect string, version int64, metadata string, createdOn int64) {
	t.Helper()
	inTx(t, s, func(tx *sql.Tx) error {
		return SaveRow(context.Background(), tx, AspectRow{
			Urn: urn, Aspect: aspect, Version: version, Metadata: metadata,
			Audit: Audit{CreatedOn: createdOn, CreatedBy: "urn:li:corpuser:test"},
		}, true)
	})
}

// countAspectRows counts rows for (urn, aspect).
func countAspectRows(t *testing.T, s *Store, urn, aspect string) int {
	t.Helper()
	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM metadata_aspect WHERE urn = ? AND aspect = ?", urn, aspect,
	).Scan(&n)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}

// storedVersions returns the versions stored for (urn, aspect), ascending.
func storedVersions(t *testing.T, s *Store, urn, aspect string) []int64 {
	t.Helper()
	rows, err := s.db.Query(
		"SELECT version FROM metadata_aspect WHERE urn = ? AND aspect = ? ORDER BY version ASC", urn, aspect,
	)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	defer rows.Close()

	var versions []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		versions = append(versions, v)
	}
	return versions
}
