// Package config holds the static storage configuration: which aspect
// paths are projected into the secondary index, per-aspect retention
// policies, and the batch-query knobs. Loaded from YAML.
package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Retention bounds how much history is kept for one aspect type.
// Exactly one of MaxVersions / MaxAgeMillis may be set; neither means
// unbounded history.
type Retention struct {
	// MaxVersions keeps at most this many historical versions per urn.
	MaxVersions int64 `yaml:"max_versions,omitempty"`

	// MaxAgeMillis deletes historical versions older than this age.
	MaxAgeMillis int64 `yaml:"max_age_ms,omitempty"`
}

// IsZero reports whether no retention bound is configured.
func (r Retention) IsZero() bool { return r.MaxVersions == 0 && r.MaxAgeMillis == 0 }

// PathConfig configures one indexable path of an aspect.
type PathConfig struct {
	// StronglyConsistent marks the path for the strongly consistent
	// secondary index, updated in the same transaction as the write.
	StronglyConsistent bool `yaml:"strongly_consistent"`
}

// AspectConfig is the per-aspect-type storage configuration.
type AspectConfig struct {
	// Paths maps /-separated field paths to their index configuration.
	Paths map[string]PathConfig `yaml:"paths,omitempty"`

	// Retention bounds the aspect's history; nil means unbounded.
	Retention *Retention `yaml:"retention,omitempty"`
}

// Storage is the full storage configuration.
type Storage struct {
	// Aspects maps aspect names to their storage configuration.
	Aspects map[string]AspectConfig `yaml:"aspects,omitempty"`

	// QueryKeysCount is the max number of keys per batch-get sub-query.
	// 0 sends all keys in a single query.
	QueryKeysCount int `yaml:"query_keys_count,omitempty"`

	// UseUnionForBatch selects UNION ALL sub-selects over one OR'd
	// predicate list for batch gets.
	UseUnionForBatch bool `yaml:"use_union_for_batch,omitempty"`

	// SecondaryIndex enables the local secondary index. Filtered urn
	// listing is an unsupported operation while this is off.
	SecondaryIndex bool `yaml:"secondary_index,omitempty"`
}

// Load reads and validates a Storage config from a YAML file.
func Load(path string) (*Storage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Storage
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration before any I/O happens.
func (s *Storage) Validate() error {
	if s.QueryKeysCount < 0 {
		return fmt.Errorf("query_keys_count must be non-negative: %d", s.QueryKeysCount)
	}
	for name, ac := range s.Aspects {
		if ac.Retention != nil && ac.Retention.MaxVersions != 0 && ac.Retention.MaxAgeMillis != 0 {
			return fmt.Errorf("aspect %q: retention may set max_versions or max_age_ms, not both", name)
		}
		if ac.Retention != nil && (ac.Retention.MaxVersions < 0 || ac.Retention.MaxAgeMillis < 0) {
			return fmt.Errorf("aspect %q: retention bounds must be non-negative", name)
		}
	}
	return nil
}

// IndexedPaths returns the strongly consistent index paths configured for
// an aspect, sorted. Empty when the aspect has no index configuration.
func (s *Storage) IndexedPaths(aspectName string) []string {
	ac, ok := s.Aspects[aspectName]
	if !ok {
		return nil
	}

	var paths []string
	for path, pc := range ac.Paths {
		if pc.StronglyConsistent {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}

// RetentionFor returns the aspect's retention policy, if any.
func (s *Storage) RetentionFor(aspectName string) (Retention, bool) {
	ac, ok := s.Aspects[aspectName]
	if !ok || ac.Retention == nil || ac.Retention.IsZero() {
		return Retention{}, false
	}
	return *ac.Retention, true
}
