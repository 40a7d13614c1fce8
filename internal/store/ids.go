package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// NewNumericID allocates the next monotonically increasing id for a
// namespace. Each allocation inserts a fresh row, so the full history of
// issued ids is kept and the primary key turns a concurrent double
// allocation into a conflict, resolved by retry.
func (s *Store) NewNumericID(ctx context.Context, namespace string, maxRetries int) (int64, error) {
	var issued int64

	err := s.RunInTransactionWithRetry(ctx, maxRetries, func(tx *sql.Tx) error {
		var last int64
		err := tx.QueryRowContext(ctx, `
			SELECT id FROM metadata_id
			WHERE namespace = ?
			ORDER BY id DESC
			LIMIT 1
		`, namespace).Scan(&last)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("read counter %s: %w", namespace, err)
		}

		issued = last + 1
		_, err = tx.ExecContext(ctx, `
			INSERT INTO metadata_id (namespace, id) VALUES (?, ?)
		`, namespace, issued)
		return err
	})
	if err != nil {
		return 0, err
	}
	return issued, nil
}
