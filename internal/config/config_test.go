package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestLoad_Full(t *testing.T) {
	path := writeConfig(t, `
aspects:
  ownership:
    paths:
      /owner:
        strongly_consistent: true
      /score:
        strongly_consistent: true
      /note:
        strongly_consistent: false
    retention:
      max_versions: 2
  status:
    retention:
      max_age_ms: 86400000
query_keys_count: 25
use_union_for_batch: true
secondary_index: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"/owner", "/score"}, cfg.IndexedPaths("ownership"))
	assert.Empty(t, cfg.IndexedPaths("status"))
	assert.Empty(t, cfg.IndexedPaths("unknown"))

	ret, ok := cfg.RetentionFor("ownership")
	require.True(t, ok)
	assert.Equal(t, int64(2), ret.MaxVersions)

	ret, ok = cfg.RetentionFor("status")
	require.True(t, ok)
	assert.Equal(t, int64(86400000), ret.MaxAgeMillis)

	_, ok = cfg.RetentionFor("unknown")
	assert.False(t, ok)

	assert.Equal(t, 25, cfg.QueryKeysCount)
	assert.True(t, cfg.UseUnionForBatch)
	assert.True(t, cfg.SecondaryIndex)
}

func TestValidate_NegativeQueryKeysCount(t *testing.T) {
	cfg := &Storage{QueryKeysCount: -1}
	assert.Error(t, cfg.Validate())
}

func TestValidate_RetentionBothBounds(t *testing.T) {
	cfg := &Storage{
		Aspects: map[string]AspectConfig{
			"ownership": {Retention: &Retention{MaxVersions: 2, MaxAgeMillis: 1000}},
		},
	}
	assert.Error(t, cfg.Validate())
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "aspects: [not a map")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestRetention_IsZero(t *testing.T) {
	assert.True(t, Retention{}.IsZero())
	assert.False(t, Retention{MaxVersions: 1}.IsZero())
	assert.False(t, Retention{MaxAgeMillis: 1}.IsZero())
}
