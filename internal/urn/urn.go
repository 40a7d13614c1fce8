package urn

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Prefix is the fixed scheme prefix every urn must carry.
const Prefix = "urn:li:"

// Urn identifies a metadata entity, e.g. "urn:li:dataset:(tracking,PROD)".
//
// The string form is case-preserving for storage but matching against
// stored rows is case-insensitive (see Match). The text is normalized to
// Unicode NFC on parse so that equivalent byte sequences compare equal.
type Urn struct {
	entityType string
	id         string
	raw        string
}

// Parse converts text into an Urn.
// Returns an *ArgumentError if the text is not of the form
// "urn:li:<entityType>:<id>" with a non-empty entity type and id.
func Parse(text string) (Urn, error) {
	text = norm.NFC.String(text)

	if !strings.HasPrefix(text, Prefix) {
		return Urn{}, &ArgumentError{Text: text, Reason: "missing urn:li: prefix"}
	}
	rest := text[len(Prefix):]

	sep := strings.Index(rest, ":")
	if sep <= 0 {
		return Urn{}, &ArgumentError{Text: text, Reason: "missing entity type"}
	}
	entityType, id := rest[:sep], rest[sep+1:]
	if id == "" {
		return Urn{}, &ArgumentError{Text: text, Reason: "missing id"}
	}

	return Urn{entityType: entityType, id: id, raw: text}, nil
}

// MustParse is Parse that panics on error. For tests and constants.
func MustParse(text string) Urn {
	u, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return u
}

// String returns the case-preserved string form.
func (u Urn) String() string { return u.raw }

// EntityType returns the entity type segment, e.g. "dataset".
func (u Urn) EntityType() string { return u.entityType }

// ID returns the id segment following the entity type.
func (u Urn) ID() string { return u.id }

// IsZero reports whether u is the zero Urn.
func (u Urn) IsZero() bool { return u.raw == "" }

// Match reports whether the stored string form refers to the same entity
// as u. Matching is case-insensitive; storage is case-preserving.
func (u Urn) Match(stored string) bool {
	return strings.EqualFold(u.raw, norm.NFC.String(stored))
}

// ArgumentError reports malformed urn text.
type ArgumentError struct {
	Text   string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid urn %q: %s", e.Text, e.Reason)
}
