package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ApplyVersionBasedRetention deletes historical rows of (urn, aspect)
// with version <= largestVersion - maxVersions, keeping the newest
// maxVersions historical rows. The latest slot is never deleted.
func ApplyVersionBasedRetention(ctx context.Context, tx *sql.Tx, urn, aspect string, maxVersions, largestVersion int64) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM metadata_aspect
		WHERE urn = ? AND aspect = ?
		  AND version != ?
		  AND version <= ?
	`, urn, aspect, LatestVersion, largestVersion-maxVersions)
	if err != nil {
		return fmt.Errorf("version retention %s#%s: %w", urn, aspect, err)
	}
	return nil
}

// ApplyTimeBasedRetention deletes historical rows of (urn, aspect)
// created strictly before cutoffMillis. The latest slot is never deleted.
func ApplyTimeBasedRetention(ctx context.Context, tx *sql.Tx, urn, aspect string, cutoffMillis int64) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM metadata_aspect
		WHERE urn = ? AND aspect = ?
		  AND version != ?
		  AND createdon < ?
	`, urn, aspect, LatestVersion, cutoffMillis)
	if err != nil {
		return fmt.Errorf("time retention %s#%s: %w", urn, aspect, err)
	}
	return nil
}
