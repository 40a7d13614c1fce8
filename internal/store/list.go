package store

import (
	"context"
	"fmt"
)

// InvalidNextStart marks a ListResult with no further page.
const InvalidNextStart = -1

// ListResult is one page of values plus pagination metadata.
type ListResult[T any] struct {
	Values         []T
	TotalCount     int
	TotalPageCount int
	PageSize       int
	NextStart      int
	HasMore        bool
}

func listMeta[T any](values []T, total, start, pageSize int) ListResult[T] {
	r := ListResult[T]{
		Values:         values,
		TotalCount:     total,
		TotalPageCount: (total + pageSize - 1) / pageSize,
		PageSize:       pageSize,
		NextStart:      InvalidNextStart,
	}
	if start+len(values) < total {
		r.HasMore = true
		r.NextStart = start + len(values)
	}
	return r
}

func checkPage(start, pageSize int) error {
	if start < 0 {
		return fmt.Errorf("start must be non-negative: %d", start)
	}
	if pageSize <= 0 {
		return fmt.Errorf("page size must be positive: %d", pageSize)
	}
	return nil
}

func (s *Store) countRows(ctx context.Context, where string, args ...any) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM metadata_aspect WHERE "+where, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return total, nil
}

// ListVersions returns one page of the historical versions stored for
// (urn, aspect), ascending. The latest slot is a pointer, not history,
// so version 0 is excluded.
func (s *Store) ListVersions(ctx context.Context, urn, aspect string, start, pageSize int) (ListResult[int64], error) {
	if err := checkPage(start, pageSize); err != nil {
		return ListResult[int64]{}, err
	}

	total, err := s.countRows(ctx, "urn = ? AND aspect = ? AND version != ?", urn, aspect, LatestVersion)
	if err != nil {
		return ListResult[int64]{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT version FROM metadata_aspect
		WHERE urn = ? AND aspect = ? AND version != ?
		ORDER BY version ASC
		LIMIT ? OFFSET ?
	`, urn, aspect, LatestVersion, pageSize, start)
	if err != nil {
		return ListResult[int64]{}, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return ListResult[int64]{}, fmt.Errorf("list versions scan: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return ListResult[int64]{}, fmt.Errorf("list versions iterate: %w", err)
	}

	return listMeta(versions, total, start, pageSize), nil
}

// ListUrns returns one page of urns having a row for (aspect, version),
// ordered ascending by urn.
func (s *Store) ListUrns(ctx context.Context, aspect string, version int64, start, pageSize int) (ListResult[string], error) {
	if err := checkPage(start, pageSize); err != nil {
		return ListResult[string]{}, err
	}

	total, err := s.countRows(ctx, "aspect = ? AND version = ?", aspect, version)
	if err != nil {
		return ListResult[string]{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT urn FROM metadata_aspect
		WHERE aspect = ? AND version = ?
		ORDER BY urn ASC
		LIMIT ? OFFSET ?
	`, aspect, version, pageSize, start)
	if err != nil {
		return ListResult[string]{}, fmt.Errorf("list urns: %w", err)
	}
	defer rows.Close()

	var urns []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return ListResult[string]{}, fmt.Errorf("list urns scan: %w", err)
		}
		urns = append(urns, u)
	}
	if err := rows.Err(); err != nil {
		return ListResult[string]{}, fmt.Errorf("list urns iterate: %w", err)
	}

	return listMeta(urns, total, start, pageSize), nil
}

// ListRows returns one page of every stored version of (urn, aspect),
// latest slot included, ascending by version.
func (s *Store) ListRows(ctx context.Context, urn, aspect string, start, pageSize int) (ListResult[AspectRow], error) {
	if err := checkPage(start, pageSize); err != nil {
		return ListResult[AspectRow]{}, err
	}

	total, err := s.countRows(ctx, "urn = ? AND aspect = ?", urn, aspect)
	if err != nil {
		return ListResult[AspectRow]{}, err
	}

	return s.listRowPage(ctx, total, start, pageSize, `
		SELECT `+aspectColumns+` FROM metadata_aspect
		WHERE urn = ? AND aspect = ?
		ORDER BY version ASC
		LIMIT ? OFFSET ?
	`, urn, aspect, pageSize, start)
}

// ListRowsAtVersion returns one page of every urn's row for (aspect,
// version), ascending by urn.
func (s *Store) ListRowsAtVersion(ctx context.Context, aspect string, version int64, start, pageSize int) (ListResult[AspectRow], error) {
	if err := checkPage(start, pageSize); err != nil {
		return ListResult[AspectRow]{}, err
	}

	total, err := s.countRows(ctx, "aspect = ? AND version = ?", aspect, version)
	if err != nil {
		return ListResult[AspectRow]{}, err
	}

	return s.listRowPage(ctx, total, start, pageSize, `
		SELECT `+aspectColumns+` FROM metadata_aspect
		WHERE aspect = ? AND version = ?
		ORDER BY urn ASC
		LIMIT ? OFFSET ?
	`, aspect, version, pageSize, start)
}

func (s *Store) listRowPage(ctx context.Context, total, start, pageSize int, query string, args ...any) (ListResult[AspectRow], error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return ListResult[AspectRow]{}, fmt.Errorf("list rows: %w", err)
	}
	defer rows.Close()

	var result []AspectRow
	for rows.Next() {
		row, err := scanAspectRow(rows)
		if err != nil {
			return ListResult[AspectRow]{}, fmt.Errorf("list rows scan: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return ListResult[AspectRow]{}, fmt.Errorf("list rows iterate: %w", err)
	}

	return listMeta(result, total, start, pageSize), nil
}
