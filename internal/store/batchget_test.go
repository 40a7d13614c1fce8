package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func seedBatchRows(t *testing.T, s *Store) []RowKey {
	t.Helper()
	keys := []RowKey{
		{Urn: "urn:li:dataset:a", Aspect: "ownership", Version: 0},
		{Urn: "urn:li:dataset:a", Aspect: "status", Version: 0},
		{Urn: "urn:li:dataset:b", Aspect: "ownership", Version: 0},
		{Urn: "urn:li:dataset:b", Aspect: "ownership", Version: 2},
	}
	for i, k := range keys {
		writeAspect(t, s, k.Urn, k.Aspect, k.Version, fmt.Sprintf(`{"i":%d}`, i), 100)
	}
	return keys
}

func testBatchGet(t *testing.T, strategy BatchStrategy) {
	s := createTestStore(t)
	stored := seedBatchRows(t, s)

	requested := append([]RowKey{}, stored...)
	requested = append(requested, RowKey{Urn: "urn:li:dataset:missing", Aspect: "ownership", Version: 0})

	rows, err := s.BatchGet(context.Background(), requested, 0, strategy)
	if err != nil {
		t.Fatalf("BatchGet() failed: %v", err)
	}
	if len(rows) != len(stored) {
		t.Fatalf("BatchGet() returned %d rows, want %d", len(rows), len(stored))
	}

	// Every stored key came back; the missing key produced no row.
	for _, key := range stored {
		found := false
		for _, row := range rows {
			if row.Urn == key.Urn && row.Aspect == key.Aspect && row.Version == key.Version {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("key %+v missing from result", key)
		}
	}
}

func TestBatchGet_OrStrategy(t *testing.T)    { testBatchGet(t, BatchOr) }
func TestBatchGet_UnionStrategy(t *testing.T) { testBatchGet(t, BatchUnion) }

func TestBatchGet_PagesKeys(t *testing.T) {
	s := createTestStore(t)
	stored := seedBatchRows(t, s)

	// keysCount 1 forces one sub-query per key.
	rows, err := s.BatchGet(context.Background(), stored, 1, BatchOr)
	if err != nil {
		t.Fatalf("BatchGet() failed: %v", err)
	}
	if len(rows) != len(stored) {
		t.Errorf("paged BatchGet() returned %d rows, want %d", len(rows), len(stored))
	}
}

func TestBatchGet_EmptyKeys(t *testing.T) {
	s := createTestStore(t)

	rows, err := s.BatchGet(context.Background(), nil, 0, BatchOr)
	if err != nil {
		t.Fatalf("BatchGet() failed: %v", err)
	}
	if rows != nil {
		t.Errorf("BatchGet(nil) = %v, want nil", rows)
	}
}

func TestBatchGetOrSQL(t *testing.T) {
	keys := []RowKey{
		{Urn: "urn:li:dataset:a", Aspect: "ownership", Version: 0},
		{Urn: "urn:li:dataset:b", Aspect: "status", Version: 1},
	}

	query, params := batchGetOrSQL(keys)
	if got := strings.Count(query, "OR"); got != 1 {
		t.Errorf("OR count = %d, want 1", got)
	}
	want := []any{"urn:li:dataset:a", "ownership", int64(0), "urn:li:dataset:b", "status", int64(1)}
	if len(params) != len(want) {
		t.Fatalf("params = %v, want %v", params, want)
	}
	for i := range want {
		if params[i] != want[i] {
			t.Errorf("params[%d] = %v, want %v", i, params[i], want[i])
		}
	}
}

func TestBatchGetUnionSQL(t *testing.T) {
	keys := []RowKey{
		{Urn: "urn:li:dataset:a", Aspect: "ownership", Version: 0},
		{Urn: "urn:li:dataset:b", Aspect: "status", Version: 1},
		{Urn: "urn:li:dataset:c", Aspect: "status", Version: 0},
	}

	query, params := batchGetUnionSQL(keys)
	if got := strings.Count(query, "UNION ALL"); got != 2 {
		t.Errorf("UNION ALL count = %d, want 2", got)
	}
	if len(params) != 9 {
		t.Errorf("param count = %d, want 9", len(params))
	}
}
