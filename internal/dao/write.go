package dao

import (
	"context"
	"database/sql"
	"sort"

	"github.com/aspectlab/metastore/internal/aspect"
	"github.com/aspectlab/metastore/internal/index"
	"github.com/aspectlab/metastore/internal/metrics"
	"github.com/aspectlab/metastore/internal/producer"
	"github.com/aspectlab/metastore/internal/store"
	"github.com/aspectlab/metastore/internal/urn"
)

// Add writes a new value for (urn, aspect) under the versioned write
// protocol, inside one retried transaction:
//
//   - read the current latest value;
//   - if the serialized forms are identical, skip the write entirely;
//   - otherwise move the old value to the next historical version and
//     overwrite the latest slot;
//   - update the secondary index rows for the new latest value;
//   - apply the aspect's retention policy.
//
// Returns the historical version assigned to the old value (0 when there
// was no old value or the write was skipped). A change event is emitted
// after commit, never inside the transaction.
func (d *LocalDAO) Add(ctx context.Context, u urn.Urn, newValue aspect.Value, audit aspect.AuditStamp) (int64, error) {
	aspectName := newValue.AspectName()

	// Conversion errors fail before any I/O.
	newMetadata, err := aspect.Marshal(newValue)
	if err != nil {
		return 0, err
	}

	var historyVersion int64
	var oldValue aspect.Value
	var skipped bool

	err = d.store.RunInTransactionWithRetry(ctx, d.maxRetries, func(tx *sql.Tx) error {
		// Reset per attempt; the unit of work must be retry-safe.
		historyVersion, oldValue, skipped = 0, nil, false

		latest, err := store.GetLatestTx(ctx, tx, u.String(), aspectName)
		if err != nil {
			return err
		}

		var old *store.Snapshot
		if latest != nil {
			if latest.Metadata == newMetadata {
				skipped = true
				return nil
			}
			old = &store.Snapshot{Metadata: latest.Metadata, Audit: latest.Audit}
			v, err := aspect.Unmarshal(d.registry, aspectName, latest.Metadata)
			if err != nil {
				return err
			}
			oldValue = v
		}

		historyVersion, err = store.SaveLatestWithHistory(ctx, tx, u.String(), aspectName, old, store.Snapshot{
			Metadata: newMetadata,
			Audit:    toStoreAudit(audit),
		})
		if err != nil {
			return err
		}

		if d.cfg.SecondaryIndex {
			if err := d.updateLocalIndex(ctx, tx, u, newValue, historyVersion); err != nil {
				return err
			}
		}

		return d.applyRetention(ctx, tx, u, aspectName, historyVersion)
	})
	if err != nil {
		return 0, err
	}
	if skipped {
		d.log.Debug().Str("urn", u.String()).Str("aspect", aspectName).Msg("value unchanged, write skipped")
		return 0, nil
	}

	metrics.AspectWrites.Inc()
	d.producer.EmitChange(producer.ChangeEvent{
		EventID:        producer.NewEventID(),
		Urn:            u,
		AspectName:     aspectName,
		OldValue:       oldValue,
		NewValue:       newValue,
		HistoryVersion: historyVersion,
	})
	return historyVersion, nil
}

// updateLocalIndex keeps the secondary index rows of (urn, aspect) in
// step with the new latest value. Urn existence rows are only written on
// the aspect's first version.
func (d *LocalDAO) updateLocalIndex(ctx context.Context, tx *sql.Tx, u urn.Urn, newValue aspect.Value, historyVersion int64) error {
	if historyVersion == 0 {
		if err := d.ensureUrnIndexed(ctx, tx, u); err != nil {
			return err
		}
	}
	return d.reindexAspect(ctx, tx, u, newValue)
}

// ensureUrnIndexed writes the urn existence rows once per urn: one row
// per path the configured extractor yields, stored under the entity type
// name. The existence check is a read, not a constraint, so it relies on
// the caller's transaction for race safety.
func (d *LocalDAO) ensureUrnIndexed(ctx context.Context, tx *sql.Tx, u urn.Urn) error {
	indexed, err := store.UrnIndexed(ctx, tx, u.String())
	if err != nil || indexed {
		return err
	}

	pathValues := d.pathExtractor.ExtractPaths(u)
	paths := make([]string, 0, len(pathValues))
	for path := range pathValues {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		value, err := index.ValueOf(pathValues[path])
		if err != nil {
			return err
		}
		if _, err := store.InsertIndexRow(ctx, tx, u.String(), d.entityType, path, value); err != nil {
			return err
		}
	}
	return nil
}

// reindexAspect replaces the index rows of (urn, aspect) with the
// projection of the new latest value: delete everything, then insert one
// row per configured path that resolves to a scalar. Aspects with no
// configured paths are left alone.
func (d *LocalDAO) reindexAspect(ctx context.Context, tx *sql.Tx, u urn.Urn, newValue aspect.Value) error {
	paths := d.cfg.IndexedPaths(newValue.AspectName())
	if len(paths) == 0 {
		return nil
	}

	if err := store.DeleteIndexRows(ctx, tx, u.String(), newValue.AspectName()); err != nil {
		return err
	}

	for _, path := range paths {
		raw, ok := aspect.FieldValue(newValue, path)
		if !ok {
			continue
		}
		value, err := index.ValueOf(raw)
		if err != nil {
			return err
		}
		if _, err := store.InsertIndexRow(ctx, tx, u.String(), newValue.AspectName(), path, value); err != nil {
			return err
		}
	}
	return nil
}

// applyRetention prunes history for (urn, aspect) according to the
// configured policy. No policy means unbounded history.
func (d *LocalDAO) applyRetention(ctx context.Context, tx *sql.Tx, u urn.Urn, aspectName string, largestVersion int64) error {
	retention, ok := d.cfg.RetentionFor(aspectName)
	if !ok {
		return nil
	}

	if retention.MaxVersions > 0 {
		return store.ApplyVersionBasedRetention(ctx, tx, u.String(), aspectName, retention.MaxVersions, largestVersion)
	}
	return store.ApplyTimeBasedRetention(ctx, tx, u.String(), aspectName, d.nowMillis()-retention.MaxAgeMillis)
}

// NewNumericID allocates the next id in a namespace, under the same
// retry discipline as aspect writes.
func (d *LocalDAO) NewNumericID(ctx context.Context, namespace string) (int64, error) {
	return d.store.NewNumericID(ctx, namespace, d.maxRetries)
}
