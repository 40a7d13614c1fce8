package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/aspectlab/metastore/internal/metrics"
)

// RowKey addresses one aspect row for batch reads.
type RowKey struct {
	Urn     string
	Aspect  string
	Version int64
}

// BatchStrategy selects how a page of keys becomes one SQL statement.
type BatchStrategy int

const (
	// BatchOr builds a single SELECT with one OR'd equality conjunction
	// per key.
	BatchOr BatchStrategy = iota

	// BatchUnion builds one single-row SELECT per key and UNION ALLs
	// them. Can outperform a large OR list, but pages must stay small
	// enough to avoid statement-depth limits.
	BatchUnion
)

// BatchGet fetches the rows for a set of keys. Keys are split into pages
// of at most keysCount (0 means one page with every key) to bound single
// query size; page results are concatenated. Missing keys simply produce
// no row - callers map them to absent.
func (s *Store) BatchGet(ctx context.Context, keys []RowKey, keysCount int, strategy BatchStrategy) ([]AspectRow, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	if keysCount <= 0 {
		keysCount = len(keys)
	}

	var rows []AspectRow
	for position := 0; position < len(keys); position += keysCount {
		end := min(position+keysCount, len(keys))
		metrics.BatchPages.Inc()

		page, err := s.batchGetPage(ctx, keys[position:end], strategy)
		if err != nil {
			return nil, err
		}
		rows = append(rows, page...)
	}
	return rows, nil
}

func (s *Store) batchGetPage(ctx context.Context, keys []RowKey, strategy BatchStrategy) ([]AspectRow, error) {
	var query string
	var params []any

	switch strategy {
	case BatchUnion:
		query, params = batchGetUnionSQL(keys)
	default:
		query, params = batchGetOrSQL(keys)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("batch get: %w", err)
	}
	defer rows.Close()

	var result []AspectRow
	for rows.Next() {
		row, err := scanAspectRow(rows)
		if err != nil {
			return nil, fmt.Errorf("batch get scan: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("batch get iterate: %w", err)
	}
	return result, nil
}

// batchGetOrSQL builds one SELECT with an OR'd conjunction per key:
//
//	WHERE (urn = ? AND aspect = ? AND version = ?) OR (...) ...
func batchGetOrSQL(keys []RowKey) (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT " + aspectColumns + " FROM metadata_aspect WHERE ")

	params := make([]any, 0, len(keys)*3)
	for i, key := range keys {
		if i > 0 {
			sb.WriteString(" OR ")
		}
		sb.WriteString("(urn = ? AND aspect = ? AND version = ?)")
		params = append(params, key.Urn, key.Aspect, key.Version)
	}
	return sb.String(), params
}

// batchGetUnionSQL builds one single-row SELECT per key joined with
// UNION ALL. Each sub-select hits the primary key, so every result is
// already unique and the cheaper UNION ALL is safe.
func batchGetUnionSQL(keys []RowKey) (string, []any) {
	var sb strings.Builder
	params := make([]any, 0, len(keys)*3)

	for i, key := range keys {
		if i > 0 {
			sb.WriteString(" UNION ALL ")
		}
		sb.WriteString("SELECT " + aspectColumns + " FROM metadata_aspect WHERE urn = ? AND aspect = ? AND version = ?")
		params = append(params, key.Urn, key.Aspect, key.Version)
	}
	return sb.String(), params
}
