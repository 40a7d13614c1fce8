package urn

import (
	"errors"
	"testing"
)

func TestParse_Valid(t *testing.T) {
	u, err := Parse("urn:li:dataset:(tracking,PROD)")
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if u.EntityType() != "dataset" {
		t.Errorf("EntityType() = %q, want %q", u.EntityType(), "dataset")
	}
	if u.ID() != "(tracking,PROD)" {
		t.Errorf("ID() = %q, want %q", u.ID(), "(tracking,PROD)")
	}
	if u.String() != "urn:li:dataset:(tracking,PROD)" {
		t.Errorf("String() = %q", u.String())
	}
}

func TestParse_Malformed(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"no prefix", "li:dataset:x"},
		{"wrong scheme", "urn:other:dataset:x"},
		{"no entity type", "urn:li::x"},
		{"no id separator", "urn:li:dataset"},
		{"empty id", "urn:li:dataset:"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.text)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tc.text)
			}
			var argErr *ArgumentError
			if !errors.As(err, &argErr) {
				t.Errorf("error type = %T, want *ArgumentError", err)
			}
		})
	}
}

func TestMatch_CaseInsensitive(t *testing.T) {
	u := MustParse("urn:li:dataset:Tracking")

	if !u.Match("urn:li:dataset:tracking") {
		t.Error("Match() should ignore case")
	}
	if !u.Match("URN:LI:DATASET:TRACKING") {
		t.Error("Match() should ignore case of the whole string")
	}
	if u.Match("urn:li:dataset:other") {
		t.Error("Match() matched a different id")
	}
}

func TestMatch_PreservesCaseInStringForm(t *testing.T) {
	u := MustParse("urn:li:corpuser:Alice")
	if u.String() != "urn:li:corpuser:Alice" {
		t.Errorf("String() = %q, case was not preserved", u.String())
	}
}

func TestRegistry_New(t *testing.T) {
	r := NewRegistry()
	r.RegisterDefault("dataset")

	u, err := r.New("dataset", "urn:li:dataset:foo")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if u.ID() != "foo" {
		t.Errorf("ID() = %q, want %q", u.ID(), "foo")
	}
}

func TestRegistry_WrongEntityType(t *testing.T) {
	r := NewRegistry()
	r.RegisterDefault("dataset")

	if _, err := r.New("dataset", "urn:li:chart:foo"); err == nil {
		t.Fatal("New() accepted text of a different entity type")
	}
}

func TestRegistry_UnknownType(t *testing.T) {
	r := NewRegistry()

	_, err := r.New("dashboard", "urn:li:dashboard:foo")
	if err == nil {
		t.Fatal("New() succeeded without a registered constructor")
	}
	var consErr *ConstructionError
	if !errors.As(err, &consErr) {
		t.Errorf("error type = %T, want *ConstructionError", err)
	}
}

func TestPartsPathExtractor(t *testing.T) {
	paths := PartsPathExtractor{}.ExtractPaths(MustParse("urn:li:dataset:foo"))

	if paths["/entityType"] != "dataset" {
		t.Errorf("/entityType = %v", paths["/entityType"])
	}
	if paths["/id"] != "foo" {
		t.Errorf("/id = %v", paths["/id"])
	}
}

func TestEmptyPathExtractor(t *testing.T) {
	paths := EmptyPathExtractor{}.ExtractPaths(MustParse("urn:li:dataset:foo"))
	if len(paths) != 0 {
		t.Errorf("extracted %d paths, want 0", len(paths))
	}
}
