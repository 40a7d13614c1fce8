package store

import (
	"context"
	"testing"
)

func TestNewNumericID_Monotonic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := s.NewNumericID(ctx, "dataset", 3)
		if err != nil {
			t.Fatalf("NewNumericID() failed: %v", err)
		}
		if got != want {
			t.Errorf("NewNumericID() = %d, want %d", got, want)
		}
	}
}

func TestNewNumericID_NamespacesAreIndependent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.NewNumericID(ctx, "dataset", 3); err != nil {
		t.Fatalf("NewNumericID() failed: %v", err)
	}
	if _, err := s.NewNumericID(ctx, "dataset", 3); err != nil {
		t.Fatalf("NewNumericID() failed: %v", err)
	}

	got, err := s.NewNumericID(ctx, "chart", 3)
	if err != nil {
		t.Fatalf("NewNumericID() failed: %v", err)
	}
	if got != 1 {
		t.Errorf("fresh namespace NewNumericID() = %d, want 1", got)
	}
}

func TestNewNumericID_KeepsAllocationHistory(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.NewNumericID(ctx, "dataset", 3); err != nil {
			t.Fatalf("NewNumericID() failed: %v", err)
		}
	}

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM metadata_id WHERE namespace = 'dataset'").Scan(&n); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if n != 3 {
		t.Errorf("allocation rows = %d, want 3", n)
	}
}
