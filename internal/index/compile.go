package index

import (
	"fmt"
	"strings"
)

// MaxCriteria is the largest caller-supplied filter the index supports.
// The implicit entity-type criterion does not count against it.
const MaxCriteria = 10

// Validate rejects filters the index cannot serve: empty filters and
// filters with more than MaxCriteria criteria. Runs before the implicit
// entity criterion is injected and before any I/O.
func Validate(f Filter) error {
	if len(f.Criteria) == 0 {
		return fmt.Errorf("empty index filter is not supported")
	}
	if len(f.Criteria) > MaxCriteria {
		return fmt.Errorf("more than %d filter criteria is not supported", MaxCriteria)
	}
	return nil
}

// WithEntityFilter returns the filter with an implicit criterion on the
// urn's own entity type appended, unless the filter already constrains on
// it. This keeps filters from matching aspect rows of unindexed urns.
func WithEntityFilter(f Filter, entityType string) Filter {
	for _, c := range f.Criteria {
		if c.Aspect == entityType {
			return f
		}
	}
	out := Filter{Criteria: make([]Criterion, 0, len(f.Criteria)+1)}
	out.Criteria = append(out.Criteria, f.Criteria...)
	out.Criteria = append(out.Criteria, Criterion{Aspect: entityType})
	return out
}

// Compile translates a filter into a parameterized SQL query returning at
// most pageSize distinct urns greater than lastUrn, ascending.
//
// Each criterion gets its own alias of metadata_index, self-joined on
// equal urn, so one urn must satisfy every criterion simultaneously. The
// keyset cursor binds first and the page size last; in between, parameter
// order follows criterion order exactly: aspect, then path and typed
// value when a path is present.
//
// Validation failures (empty filter, too many criteria, unsupported
// condition) happen here, before any query executes.
func Compile(f Filter, lastUrn string, pageSize int) (string, []any, error) {
	if len(f.Criteria) == 0 {
		return "", nil, fmt.Errorf("empty index filter is not supported")
	}

	var sel strings.Builder
	sel.WriteString("SELECT DISTINCT(t0.urn) FROM metadata_index t0")
	for i := 1; i < len(f.Criteria); i++ {
		fmt.Fprintf(&sel, " INNER JOIN metadata_index t%d ON t0.urn = t%d.urn", i, i)
	}

	var where strings.Builder
	where.WriteString("WHERE t0.urn > ?")
	params := []any{lastUrn}

	for i, c := range f.Criteria {
		fmt.Fprintf(&where, " AND t%d.aspect = ?", i)
		params = append(params, c.Aspect)

		if !c.HasPath() {
			continue
		}
		op, ok := conditionOperators[c.Condition]
		if !ok {
			return "", nil, &UnsupportedConditionError{Condition: c.Condition}
		}
		fmt.Fprintf(&where, " AND t%d.path = ? AND t%d.%s %s ?", i, i, Column(c.Value), op)
		params = append(params, c.Path, Param(c.Value, c.Condition))
	}

	params = append(params, pageSize)

	// The ORDER BY must name the t0 alias: with self-joined criteria a
	// bare "urn" is ambiguous and SQLite rejects it at prepare time.
	sql := strings.Join([]string{sel.String(), where.String(), "ORDER BY t0.urn ASC", "LIMIT ?"}, " ")
	return sql, params, nil
}
