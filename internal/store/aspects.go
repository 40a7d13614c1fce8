package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// LatestVersion is the version number of the mutable latest slot.
const LatestVersion = 0

// Audit holds the audit columns of an aspect row. CreatedFor is empty
// when the write had no impersonator.
type Audit struct {
	CreatedOn  int64
	CreatedBy  string
	CreatedFor string
}

// Snapshot is one aspect payload plus its audit stamp, ready to store.
type Snapshot struct {
	Metadata string
	Audit    Audit
}

// AspectRow is one stored row of the metadata_aspect relation.
type AspectRow struct {
	Urn      string
	Aspect   string
	Version  int64
	Metadata string
	Audit    Audit
}

const aspectColumns = "urn, aspect, version, metadata, createdon, createdby, createdfor"

func scanAspectRow(scanner interface{ Scan(...any) error }) (AspectRow, error) {
	var row AspectRow
	var createdFor sql.NullString
	err := scanner.Scan(&row.Urn, &row.Aspect, &row.Version, &row.Metadata,
		&row.Audit.CreatedOn, &row.Audit.CreatedBy, &createdFor)
	if err != nil {
		return AspectRow{}, err
	}
	row.Audit.CreatedFor = createdFor.String
	return row, nil
}

// GetLatest returns the latest-slot row for (urn, aspect), or nil when
// the aspect has never been written. Absence is not an error.
func (s *Store) GetLatest(ctx context.Context, urn, aspect string) (*AspectRow, error) {
	return getLatest(ctx, s.db, urn, aspect)
}

// GetLatestTx is GetLatest inside an open transaction, for the
// read-modify-write path.
func GetLatestTx(ctx context.Context, tx *sql.Tx, urn, aspect string) (*AspectRow, error) {
	return getLatest(ctx, tx, urn, aspect)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getLatest(ctx context.Context, q querier, urn, aspect string) (*AspectRow, error) {
	row, err := scanAspectRow(q.QueryRowContext(ctx, `
		SELECT `+aspectColumns+`
		FROM metadata_aspect
		WHERE urn = ? AND aspect = ? AND version = ?
	`, urn, aspect, LatestVersion))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest %s#%s: %w", urn, aspect, err)
	}
	return &row, nil
}

// NextVersion returns the next historical version for (urn, aspect):
// one past the largest stored version, or 0 when no row exists yet.
// Must run inside the same transaction as the write it feeds; the
// primary key converts a racing double-compute into a conflict.
func NextVersion(ctx context.Context, tx *sql.Tx, urn, aspect string) (int64, error) {
	var max int64
	err := tx.QueryRowContext(ctx, `
		SELECT version
		FROM metadata_aspect
		WHERE urn = ? AND aspect = ?
		ORDER BY version DESC
		LIMIT 1
	`, urn, aspect).Scan(&max)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("next version %s#%s: %w", urn, aspect, err)
	}
	return max + 1, nil
}

// SaveRow writes one aspect row: INSERT for rows that must not exist yet
// (historical versions, first latest write), UPDATE for overwriting the
// existing latest slot.
func SaveRow(ctx context.Context, tx *sql.Tx, row AspectRow, insert bool) error {
	var createdFor any
	if row.Audit.CreatedFor != "" {
		createdFor = row.Audit.CreatedFor
	}

	var err error
	if insert {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO metadata_aspect (`+aspectColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, row.Urn, row.Aspect, row.Version, row.Metadata,
			row.Audit.CreatedOn, row.Audit.CreatedBy, createdFor)
	} else {
		_, err = tx.ExecContext(ctx, `
			UPDATE metadata_aspect
			SET metadata = ?, createdon = ?, createdby = ?, createdfor = ?
			WHERE urn = ? AND aspect = ? AND version = ?
		`, row.Metadata, row.Audit.CreatedOn, row.Audit.CreatedBy, createdFor,
			row.Urn, row.Aspect, row.Version)
	}
	if err != nil {
		return fmt.Errorf("save %s#%s@%d: %w", row.Urn, row.Aspect, row.Version, err)
	}
	return nil
}

// SaveLatestWithHistory realizes the append-plus-pointer-update write
// protocol for one (urn, aspect):
//
//  1. when an old value exists, insert it as a new historical row at
//     the next version;
//  2. write the new value into the latest slot - INSERT when the slot
//     was empty before this call, UPDATE otherwise.
//
// Returns the historical version assigned to the old value, 0 when no
// history was written. Latest reads stay O(1): they never scan history.
func SaveLatestWithHistory(ctx context.Context, tx *sql.Tx, urn, aspect string, old *Snapshot, latest Snapshot) (int64, error) {
	var historyVersion int64
	if old != nil {
		v, err := NextVersion(ctx, tx, urn, aspect)
		if err != nil {
			return 0, err
		}
		historyVersion = v
		err = SaveRow(ctx, tx, AspectRow{
			Urn: urn, Aspect: aspect, Version: historyVersion,
			Metadata: old.Metadata, Audit: old.Audit,
		}, true)
		if err != nil {
			return 0, err
		}
	}

	err := SaveRow(ctx, tx, AspectRow{
		Urn: urn, Aspect: aspect, Version: LatestVersion,
		Metadata: latest.Metadata, Audit: latest.Audit,
	}, old == nil)
	if err != nil {
		return 0, err
	}
	return historyVersion, nil
}
