package dao

import (
	"context"

	"github.com/aspectlab/metastore/internal/aspect"
	"github.com/aspectlab/metastore/internal/index"
	"github.com/aspectlab/metastore/internal/store"
	"github.com/aspectlab/metastore/internal/urn"
)

// Get returns the latest value of (urn, aspect), or nil when the aspect
// has never been written. Absence is not an error.
func (d *LocalDAO) Get(ctx context.Context, u urn.Urn, aspectName string) (aspect.Value, error) {
	row, err := d.store.GetLatest(ctx, u.String(), aspectName)
	if err != nil || row == nil {
		return nil, err
	}
	return aspect.Unmarshal(d.registry, aspectName, row.Metadata)
}

// GetWithExtraInfo is Get plus the row's audit metadata.
func (d *LocalDAO) GetWithExtraInfo(ctx context.Context, u urn.Urn, aspectName string) (aspect.Value, *aspect.ExtraInfo, error) {
	row, err := d.store.GetLatest(ctx, u.String(), aspectName)
	if err != nil || row == nil {
		return nil, nil, err
	}

	value, err := aspect.Unmarshal(d.registry, aspectName, row.Metadata)
	if err != nil {
		return nil, nil, err
	}
	info, err := toExtraInfo(*row)
	if err != nil {
		return nil, nil, err
	}
	return value, &info, nil
}

// Exists reports whether (urn, aspect) has a latest value.
func (d *LocalDAO) Exists(ctx context.Context, u urn.Urn, aspectName string) (bool, error) {
	row, err := d.store.GetLatest(ctx, u.String(), aspectName)
	return row != nil, err
}

// BatchGet resolves a set of keys into values. The result has an entry
// for every requested key - keys with no stored row map to nil, never to
// an error. Urn matching against stored rows is case-insensitive.
func (d *LocalDAO) BatchGet(ctx context.Context, keys []aspect.Key) (map[aspect.Key]aspect.Value, error) {
	result := make(map[aspect.Key]aspect.Value, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	rows, err := d.fetchKeys(ctx, keys)
	if err != nil {
		return nil, err
	}

	for _, key := range keys {
		result[key] = nil
		if row := matchRow(key, rows); row != nil {
			value, err := aspect.Unmarshal(d.registry, key.Aspect, row.Metadata)
			if err != nil {
				return nil, err
			}
			result[key] = value
		}
	}
	return result, nil
}

// ValueWithExtraInfo pairs a value with its audit metadata.
type ValueWithExtraInfo struct {
	Value aspect.Value
	Info  aspect.ExtraInfo
}

// BatchGetWithExtraInfo resolves keys into values plus audit metadata.
// Keys with no stored row are omitted from the result.
func (d *LocalDAO) BatchGetWithExtraInfo(ctx context.Context, keys []aspect.Key) (map[aspect.Key]ValueWithExtraInfo, error) {
	result := make(map[aspect.Key]ValueWithExtraInfo, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	rows, err := d.fetchKeys(ctx, keys)
	if err != nil {
		return nil, err
	}

	for _, key := range keys {
		row := matchRow(key, rows)
		if row == nil {
			continue
		}
		value, err := aspect.Unmarshal(d.registry, key.Aspect, row.Metadata)
		if err != nil {
			return nil, err
		}
		info, err := toExtraInfo(*row)
		if err != nil {
			return nil, err
		}
		result[key] = ValueWithExtraInfo{Value: value, Info: info}
	}
	return result, nil
}

func (d *LocalDAO) fetchKeys(ctx context.Context, keys []aspect.Key) ([]store.AspectRow, error) {
	rowKeys := make([]store.RowKey, len(keys))
	for i, key := range keys {
		rowKeys[i] = store.RowKey{Urn: key.Urn.String(), Aspect: key.Aspect, Version: key.Version}
	}
	return d.store.BatchGet(ctx, rowKeys, d.queryKeysCount, d.batchStrategy)
}

// matchRow finds the first returned row for a requested key. Page sizes
// are bounded, so a linear scan per key is fine.
func matchRow(key aspect.Key, rows []store.AspectRow) *store.AspectRow {
	for i := range rows {
		if rows[i].Aspect == key.Aspect && rows[i].Version == key.Version && key.Urn.Match(rows[i].Urn) {
			return &rows[i]
		}
	}
	return nil
}

// VersionPage is one page of historical versions.
type VersionPage struct {
	Versions []int64
	Page     Page
}

// ListVersions pages over the historical versions of (urn, aspect),
// ascending. The latest slot is excluded.
func (d *LocalDAO) ListVersions(ctx context.Context, u urn.Urn, aspectName string, start, pageSize int) (VersionPage, error) {
	r, err := d.store.ListVersions(ctx, u.String(), aspectName, start, pageSize)
	if err != nil {
		return VersionPage{}, err
	}
	return VersionPage{Versions: r.Values, Page: toPage(r)}, nil
}

// UrnPage is one page of urns.
type UrnPage struct {
	Urns []urn.Urn
	Page Page
}

// ListUrns pages over the urns that have a latest value for aspectName,
// ascending by urn string.
func (d *LocalDAO) ListUrns(ctx context.Context, aspectName string, start, pageSize int) (UrnPage, error) {
	r, err := d.store.ListUrns(ctx, aspectName, store.LatestVersion, start, pageSize)
	if err != nil {
		return UrnPage{}, err
	}

	urns := make([]urn.Urn, len(r.Values))
	for i, text := range r.Values {
		u, err := d.urns.New(d.entityType, text)
		if err != nil {
			return UrnPage{}, err
		}
		urns[i] = u
	}
	return UrnPage{Urns: urns, Page: toPage(r)}, nil
}

// ValuePage is one page of values with per-row audit metadata.
type ValuePage struct {
	Values     []aspect.Value
	ExtraInfos []aspect.ExtraInfo
	Page       Page
}

// List pages over every stored version of (urn, aspect), ascending by
// version, latest slot included.
func (d *LocalDAO) List(ctx context.Context, u urn.Urn, aspectName string, start, pageSize int) (ValuePage, error) {
	r, err := d.store.ListRows(ctx, u.String(), aspectName, start, pageSize)
	if err != nil {
		return ValuePage{}, err
	}
	return d.toValuePage(aspectName, r)
}

// ListAtVersion pages over every urn's value of aspectName at one
// version, ascending by urn.
func (d *LocalDAO) ListAtVersion(ctx context.Context, aspectName string, version int64, start, pageSize int) (ValuePage, error) {
	r, err := d.store.ListRowsAtVersion(ctx, aspectName, version, start, pageSize)
	if err != nil {
		return ValuePage{}, err
	}
	return d.toValuePage(aspectName, r)
}

// ListLatest pages over every urn's latest value of aspectName.
func (d *LocalDAO) ListLatest(ctx context.Context, aspectName string, start, pageSize int) (ValuePage, error) {
	return d.ListAtVersion(ctx, aspectName, store.LatestVersion, start, pageSize)
}

func (d *LocalDAO) toValuePage(aspectName string, r store.ListResult[store.AspectRow]) (ValuePage, error) {
	page := ValuePage{
		Values:     make([]aspect.Value, len(r.Values)),
		ExtraInfos: make([]aspect.ExtraInfo, len(r.Values)),
		Page:       toPage(r),
	}
	for i, row := range r.Values {
		value, err := aspect.Unmarshal(d.registry, aspectName, row.Metadata)
		if err != nil {
			return ValuePage{}, err
		}
		info, err := toExtraInfo(row)
		if err != nil {
			return ValuePage{}, err
		}
		page.Values[i] = value
		page.ExtraInfos[i] = info
	}
	return page, nil
}

// ListUrnsByFilter returns up to pageSize urns satisfying every filter
// criterion, ascending, strictly greater than lastUrn (zero Urn for the
// first page). Requires the secondary index.
func (d *LocalDAO) ListUrnsByFilter(ctx context.Context, filter index.Filter, lastUrn urn.Urn, pageSize int) ([]urn.Urn, error) {
	if !d.cfg.SecondaryIndex {
		return nil, ErrSecondaryIndexDisabled
	}
	if err := index.Validate(filter); err != nil {
		return nil, err
	}

	filter = index.WithEntityFilter(filter, d.entityType)
	query, params, err := index.Compile(filter, lastUrn.String(), pageSize)
	if err != nil {
		return nil, err
	}

	texts, err := d.store.RunIndexQuery(ctx, query, params)
	if err != nil {
		return nil, err
	}

	urns := make([]urn.Urn, len(texts))
	for i, text := range texts {
		u, err := d.urns.New(d.entityType, text)
		if err != nil {
			return nil, err
		}
		urns[i] = u
	}
	return urns, nil
}
