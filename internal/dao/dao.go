// Package dao ties the storage engines together into the local metadata
// DAO: versioned writes with history and retention, secondary index
// maintenance, batched and paginated reads, filtered urn listing and
// numeric id allocation.
package dao

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aspectlab/metastore/internal/aspect"
	"github.com/aspectlab/metastore/internal/config"
	"github.com/aspectlab/metastore/internal/producer"
	"github.com/aspectlab/metastore/internal/store"
	"github.com/aspectlab/metastore/internal/urn"
)

// DefaultMaxTransactionRetries bounds retries of a conflicted write.
const DefaultMaxTransactionRetries = 3

// ErrSecondaryIndexDisabled is returned by filtered urn listing when the
// local secondary index is not enabled in the storage configuration.
var ErrSecondaryIndexDisabled = errors.New("local secondary index isn't supported")

// LocalDAO is the versioned metadata store for one entity type.
//
// All mutating operations run inside retried transactions against the
// backing store; the DAO itself keeps no state between calls beyond its
// configuration.
type LocalDAO struct {
	store    *store.Store
	registry *aspect.Registry
	urns     *urn.Registry
	cfg      *config.Storage

	// entityType is the urn entity type this DAO serves; it is also the
	// aspect name of urn existence rows in the secondary index.
	entityType string

	pathExtractor urn.PathExtractor
	producer      producer.EventProducer
	log           zerolog.Logger

	nowMillis  func() int64
	maxRetries int

	queryKeysCount int
	batchStrategy  store.BatchStrategy
}

// New creates a LocalDAO for entityType. The entity type is registered
// with the urn registry so listed urns round-trip through it.
func New(s *store.Store, registry *aspect.Registry, urns *urn.Registry, cfg *config.Storage, entityType string, log zerolog.Logger) *LocalDAO {
	urns.RegisterDefault(entityType)

	strategy := store.BatchOr
	if cfg.UseUnionForBatch {
		strategy = store.BatchUnion
	}

	return &LocalDAO{
		store:          s,
		registry:       registry,
		urns:           urns,
		cfg:            cfg,
		entityType:     entityType,
		pathExtractor:  urn.EmptyPathExtractor{},
		producer:       producer.NopProducer{},
		log:            log.With().Str("component", "dao").Str("entity", entityType).Logger(),
		nowMillis:      func() int64 { return time.Now().UnixMilli() },
		maxRetries:     DefaultMaxTransactionRetries,
		queryKeysCount: cfg.QueryKeysCount,
		batchStrategy:  strategy,
	}
}

// SetEventProducer installs the change event producer.
func (d *LocalDAO) SetEventProducer(p producer.EventProducer) { d.producer = p }

// SetUrnPathExtractor overrides the extractor used for urn existence rows.
func (d *LocalDAO) SetUrnPathExtractor(e urn.PathExtractor) { d.pathExtractor = e }

// SetClock overrides the wall clock used by time-based retention.
func (d *LocalDAO) SetClock(nowMillis func() int64) { d.nowMillis = nowMillis }

// SetMaxTransactionRetries overrides the conflict retry bound.
func (d *LocalDAO) SetMaxTransactionRetries(n int) { d.maxRetries = n }

// SetQueryKeysCount sets the max number of keys per batch-get sub-query.
// 0 disables key pagination. Negative counts are a configuration error.
func (d *LocalDAO) SetQueryKeysCount(n int) error {
	if n < 0 {
		return fmt.Errorf("query keys count must be non-negative: %d", n)
	}
	d.queryKeysCount = n
	return nil
}

// SetBatchStrategy selects between OR-predicate and UNION ALL batch gets.
func (d *LocalDAO) SetBatchStrategy(s store.BatchStrategy) { d.batchStrategy = s }

// EntityType returns the urn entity type this DAO serves.
func (d *LocalDAO) EntityType() string { return d.entityType }

// toStoreAudit converts an audit stamp into its stored columns.
func toStoreAudit(a aspect.AuditStamp) store.Audit {
	audit := store.Audit{
		CreatedOn: a.TimeMillis,
		CreatedBy: a.Actor.String(),
	}
	if a.HasImpersonator() {
		audit.CreatedFor = a.Impersonator.String()
	}
	return audit
}

// toExtraInfo rebuilds the audit metadata of a stored row.
func toExtraInfo(row store.AspectRow) (aspect.ExtraInfo, error) {
	u, err := urn.Parse(row.Urn)
	if err != nil {
		return aspect.ExtraInfo{}, err
	}
	actor, err := urn.Parse(row.Audit.CreatedBy)
	if err != nil {
		return aspect.ExtraInfo{}, err
	}

	info := aspect.ExtraInfo{
		Urn:     u,
		Version: row.Version,
		Audit: aspect.AuditStamp{
			TimeMillis: row.Audit.CreatedOn,
			Actor:      actor,
		},
	}
	if row.Audit.CreatedFor != "" {
		impersonator, err := urn.Parse(row.Audit.CreatedFor)
		if err != nil {
			return aspect.ExtraInfo{}, err
		}
		info.Audit.Impersonator = impersonator
	}
	return info, nil
}

// Page is the pagination metadata attached to offset-based listings.
type Page struct {
	TotalCount     int
	TotalPageCount int
	PageSize       int
	NextStart      int
	HasMore        bool
}

func toPage[T any](r store.ListResult[T]) Page {
	return Page{
		TotalCount:     r.TotalCount,
		TotalPageCount: r.TotalPageCount,
		PageSize:       r.PageSize,
		NextStart:      r.NextStart,
		HasMore:        r.HasMore,
	}
}
