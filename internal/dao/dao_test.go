package dao

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aspectlab/metastore/internal/aspect"
	"github.com/aspectlab/metastore/internal/config"
	"github.com/aspectlab/metastore/internal/logger"
	"github.com/aspectlab/metastore/internal/producer"
	"github.com/aspectlab/metastore/internal/store"
	"github.com/aspectlab/metastore/internal/urn"
)

type ownership struct {
	Owner string `json:"owner"`
}

func (*ownership) AspectName() string { return "ownership" }

type status struct {
	Removed bool `json:"removed"`
}

func (*status) AspectName() string { return "status" }

var (
	testUrn   = urn.MustParse("urn:li:dataset:tracking")
	testActor = urn.MustParse("urn:li:corpuser:alice")
)

func testConfig() *config.Storage {
	return &config.Storage{
		Aspects: map[string]config.AspectConfig{
			"ownership": {Paths: map[string]config.PathConfig{
				"/owner": {StronglyConsistent: true},
			}},
			"status": {Paths: map[string]config.PathConfig{
				"/removed": {StronglyConsistent: true},
			}},
		},
		SecondaryIndex: true,
	}
}

func newTestDAO(t *testing.T, cfg *config.Storage) *LocalDAO {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	registry := aspect.NewRegistry()
	registry.Register(func() aspect.Value { return &ownership{} })
	registry.Register(func() aspect.Value { return &status{} })

	d := New(s, registry, urn.NewRegistry(), cfg, "dataset", logger.Nop())
	d.SetUrnPathExtractor(urn.PartsPathExtractor{})
	return d
}

func stamp(timeMillis int64) aspect.AuditStamp {
	return aspect.AuditStamp{TimeMillis: timeMillis, Actor: testActor}
}

// captureProducer records emitted change events for assertions.
type captureProducer struct {
	events []producer.ChangeEvent
}

func (p *captureProducer) EmitChange(e producer.ChangeEvent) {
	p.events = append(p.events, e)
}

func TestSetQueryKeysCount(t *testing.T) {
	d := newTestDAO(t, testConfig())

	require.NoError(t, d.SetQueryKeysCount(0))
	require.NoError(t, d.SetQueryKeysCount(25))
	require.Error(t, d.SetQueryKeysCount(-1))
}

func TestNewRegistersEntityType(t *testing.T) {
	urns := urn.NewRegistry()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	New(s, aspect.NewRegistry(), urns, testConfig(), "dataset", logger.Nop())

	u, err := urns.New("dataset", "urn:li:dataset:tracking")
	require.NoError(t, err)
	require.Equal(t, "dataset", u.EntityType())

	_, err = urns.New("dataset", "urn:li:chart:pageviews")
	require.Error(t, err, "wrong entity type must be rejected")
}
