package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aspectlab/metastore/internal/index"
	"github.com/aspectlab/metastore/internal/metrics"
)

// indexQueryTimeout bounds compiled index query execution. A slow query
// fails itself, not the caller's surrounding work.
const indexQueryTimeout = 5 * time.Second

// UrnIndexed reports whether any index row exists for the urn, i.e.
// whether its existence marker has been written.
func UrnIndexed(ctx context.Context, tx *sql.Tx, urn string) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM metadata_index WHERE urn = ?)
	`, urn).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("urn indexed %s: %w", urn, err)
	}
	return exists, nil
}

// InsertIndexRow writes one index row, placing the value into the typed
// column selected by its variant. Returns the surrogate row id.
func InsertIndexRow(ctx context.Context, tx *sql.Tx, urn, aspect, path string, value index.Value) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO metadata_index (urn, aspect, path, `+index.Column(value)+`)
		VALUES (?, ?, ?, ?)
	`, urn, aspect, path, index.Param(value, index.ConditionEqual))
	if err != nil {
		return 0, fmt.Errorf("insert index row %s#%s%s: %w", urn, aspect, path, err)
	}
	return res.LastInsertId()
}

// DeleteIndexRows removes every index row for (urn, aspect). Run before
// re-projecting a new latest value so no stale rows survive.
func DeleteIndexRows(ctx context.Context, tx *sql.Tx, urn, aspect string) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM metadata_index WHERE urn = ? AND aspect = ?
	`, urn, aspect)
	if err != nil {
		return fmt.Errorf("delete index rows %s#%s: %w", urn, aspect, err)
	}
	return nil
}

// RunIndexQuery executes a compiled index query (see the index package)
// under the fixed index query timeout and returns the matched urn
// strings in result order.
func (s *Store) RunIndexQuery(ctx context.Context, query string, params []any) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, indexQueryTimeout)
	defer cancel()

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("index query: %w", err)
	}
	defer rows.Close()
	metrics.IndexQuerySeconds.Observe(time.Since(start).Seconds())

	var urns []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("index query scan: %w", err)
		}
		urns = append(urns, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("index query iterate: %w", err)
	}
	return urns, nil
}
