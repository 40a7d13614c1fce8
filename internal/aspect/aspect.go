// Package aspect defines the typed metadata slices stored against urns:
// the Value contract, the (urn, aspect, version) key space, audit stamps,
// and the JSON codec between values and their stored form.
package aspect

import (
	"fmt"

	"github.com/aspectlab/metastore/internal/urn"
)

// LatestVersion is the version number of the mutable latest slot.
// Historical snapshots start at version 1.
const LatestVersion = 0

// Value is a typed aspect value. Implementations are plain structs with
// JSON tags; AspectName returns the stable name rows are stored under.
type Value interface {
	AspectName() string
}

// Key identifies one stored aspect row.
// Version 0 is the latest slot; versions >= 1 are historical snapshots.
type Key struct {
	Urn     urn.Urn
	Aspect  string
	Version int64
}

func (k Key) String() string {
	return fmt.Sprintf("%s#%s@%d", k.Urn, k.Aspect, k.Version)
}

// AuditStamp records who performed a write and when.
// Impersonator is set when the actor acted on behalf of another principal.
type AuditStamp struct {
	TimeMillis   int64
	Actor        urn.Urn
	Impersonator urn.Urn
}

// HasImpersonator reports whether the stamp carries an impersonator urn.
func (a AuditStamp) HasImpersonator() bool { return !a.Impersonator.IsZero() }

// ExtraInfo is the audit metadata returned alongside a value by the
// with-extra-info read variants.
type ExtraInfo struct {
	Urn     urn.Urn
	Version int64
	Audit   AuditStamp
}
