package dao

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aspectlab/metastore/internal/aspect"
	"github.com/aspectlab/metastore/internal/index"
	"github.com/aspectlab/metastore/internal/urn"
)

func TestGet_Absent(t *testing.T) {
	d := newTestDAO(t, testConfig())

	value, err := d.Get(context.Background(), testUrn, "ownership")
	require.NoError(t, err)
	assert.Nil(t, value, "absence is not an error")
}

func TestGetWithExtraInfo(t *testing.T) {
	d := newTestDAO(t, testConfig())
	ctx := context.Background()

	_, err := d.Add(ctx, testUrn, &ownership{Owner: "alice"}, stamp(100))
	require.NoError(t, err)

	value, info, err := d.GetWithExtraInfo(ctx, testUrn, "ownership")
	require.NoError(t, err)
	assert.Equal(t, &ownership{Owner: "alice"}, value)
	require.NotNil(t, info)
	assert.Equal(t, testUrn, info.Urn)
	assert.Equal(t, int64(0), info.Version)
	assert.Equal(t, int64(100), info.Audit.TimeMillis)
	assert.Equal(t, testActor, info.Audit.Actor)
}

func TestExists(t *testing.T) {
	d := newTestDAO(t, testConfig())
	ctx := context.Background()

	exists, err := d.Exists(ctx, testUrn, "ownership")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = d.Add(ctx, testUrn, &ownership{Owner: "alice"}, stamp(100))
	require.NoError(t, err)

	exists, err = d.Exists(ctx, testUrn, "ownership")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestBatchGet_EntryForEveryKey(t *testing.T) {
	d := newTestDAO(t, testConfig())
	ctx := context.Background()

	other := urn.MustParse("urn:li:dataset:other")
	_, err := d.Add(ctx, testUrn, &ownership{Owner: "alice"}, stamp(100))
	require.NoError(t, err)
	_, err = d.Add(ctx, other, &status{Removed: true}, stamp(100))
	require.NoError(t, err)

	keys := []aspect.Key{
		{Urn: testUrn, Aspect: "ownership", Version: 0},
		{Urn: other, Aspect: "status", Version: 0},
		{Urn: other, Aspect: "ownership", Version: 0}, // never written
	}
	result, err := d.BatchGet(ctx, keys)
	require.NoError(t, err)
	require.Len(t, result, len(keys), "every requested key gets an entry")

	assert.Equal(t, &ownership{Owner: "alice"}, result[keys[0]])
	assert.Equal(t, &status{Removed: true}, result[keys[1]])
	assert.Nil(t, result[keys[2]])
}

func TestBatchGet_CaseInsensitiveUrnMatch(t *testing.T) {
	d := newTestDAO(t, testConfig())
	ctx := context.Background()

	_, err := d.Add(ctx, testUrn, &ownership{Owner: "alice"}, stamp(100))
	require.NoError(t, err)

	shouting := urn.MustParse("URN:LI:DATASET:TRACKING")
	key := aspect.Key{Urn: shouting, Aspect: "ownership", Version: 0}
	result, err := d.BatchGet(ctx, []aspect.Key{key})
	require.NoError(t, err)
	assert.Equal(t, &ownership{Owner: "alice"}, result[key])
}

func TestBatchGet_Empty(t *testing.T) {
	d := newTestDAO(t, testConfig())

	result, err := d.BatchGet(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestBatchGetWithExtraInfo_OmitsAbsent(t *testing.T) {
	d := newTestDAO(t, testConfig())
	ctx := context.Background()

	_, err := d.Add(ctx, testUrn, &ownership{Owner: "alice"}, stamp(100))
	require.NoError(t, err)

	present := aspect.Key{Urn: testUrn, Aspect: "ownership", Version: 0}
	absent := aspect.Key{Urn: testUrn, Aspect: "status", Version: 0}
	result, err := d.BatchGetWithExtraInfo(ctx, []aspect.Key{present, absent})
	require.NoError(t, err)
	require.Len(t, result, 1)

	got := result[present]
	assert.Equal(t, &ownership{Owner: "alice"}, got.Value)
	assert.Equal(t, int64(100), got.Info.Audit.TimeMillis)
}

func TestListUrns(t *testing.T) {
	d := newTestDAO(t, testConfig())
	ctx := context.Background()

	for _, text := range []string{"urn:li:dataset:c", "urn:li:dataset:a", "urn:li:dataset:b"} {
		_, err := d.Add(ctx, urn.MustParse(text), &ownership{Owner: "alice"}, stamp(100))
		require.NoError(t, err)
	}

	page, err := d.ListUrns(ctx, "ownership", 0, 2)
	require.NoError(t, err)
	require.Len(t, page.Urns, 2)
	assert.Equal(t, "urn:li:dataset:a", page.Urns[0].String())
	assert.Equal(t, "urn:li:dataset:b", page.Urns[1].String())
	assert.True(t, page.Page.HasMore)
	assert.Equal(t, 2, page.Page.NextStart)
	assert.Equal(t, 3, page.Page.TotalCount)
}

func TestListLatest(t *testing.T) {
	d := newTestDAO(t, testConfig())
	ctx := context.Background()

	_, err := d.Add(ctx, testUrn, &ownership{Owner: "alice"}, stamp(100))
	require.NoError(t, err)
	_, err = d.Add(ctx, testUrn, &ownership{Owner: "bob"}, stamp(200))
	require.NoError(t, err)

	page, err := d.ListLatest(ctx, "ownership", 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Values, 1)
	assert.Equal(t, &ownership{Owner: "bob"}, page.Values[0])
	assert.Equal(t, int64(0), page.ExtraInfos[0].Version)
}

func TestListUrnsByFilter_TwoCriteria(t *testing.T) {
	d := newTestDAO(t, testConfig())
	ctx := context.Background()

	seed := []struct {
		urn     string
		owner   string
		removed bool
	}{
		{"urn:li:dataset:a", "alice", false},
		{"urn:li:dataset:b", "alice", true},
		{"urn:li:dataset:c", "bob", false},
		{"urn:li:dataset:d", "alice", false},
	}
	for _, row := range seed {
		u := urn.MustParse(row.urn)
		_, err := d.Add(ctx, u, &ownership{Owner: row.owner}, stamp(100))
		require.NoError(t, err)
		_, err = d.Add(ctx, u, &status{Removed: row.removed}, stamp(100))
		require.NoError(t, err)
	}

	filter := index.Filter{Criteria: []index.Criterion{
		{Aspect: "ownership", Path: "/owner", Condition: index.ConditionEqual, Value: index.String("alice")},
		{Aspect: "status", Path: "/removed", Condition: index.ConditionEqual, Value: index.String("false")},
	}}

	first, err := d.ListUrnsByFilter(ctx, filter, urn.Urn{}, 1)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "urn:li:dataset:a", first[0].String())

	// Keyset cursor: the next page starts strictly after the last urn.
	second, err := d.ListUrnsByFilter(ctx, filter, first[0], 10)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "urn:li:dataset:d", second[0].String())
}

func TestListUrnsByFilter_StartsWith(t *testing.T) {
	d := newTestDAO(t, testConfig())
	ctx := context.Background()

	for _, row := range []struct{ urn, owner string }{
		{"urn:li:dataset:a", "abteam"},
		{"urn:li:dataset:b", "abcrew"},
		{"urn:li:dataset:c", "zteam"},
	} {
		_, err := d.Add(ctx, urn.MustParse(row.urn), &ownership{Owner: row.owner}, stamp(100))
		require.NoError(t, err)
	}

	urns, err := d.ListUrnsByFilter(ctx, index.Filter{Criteria: []index.Criterion{
		{Aspect: "ownership", Path: "/owner", Condition: index.ConditionStartsWith, Value: index.String("ab")},
	}}, urn.Urn{}, 10)
	require.NoError(t, err)
	require.Len(t, urns, 2)
	assert.Equal(t, "urn:li:dataset:a", urns[0].String())
	assert.Equal(t, "urn:li:dataset:b", urns[1].String())
}

func TestListUrnsByFilter_RejectsBadFilters(t *testing.T) {
	d := newTestDAO(t, testConfig())
	ctx := context.Background()

	_, err := d.ListUrnsByFilter(ctx, index.Filter{}, urn.Urn{}, 10)
	assert.Error(t, err, "empty filter")

	criteria := make([]index.Criterion, index.MaxCriteria+1)
	for i := range criteria {
		criteria[i] = index.Criterion{Aspect: "ownership"}
	}
	_, err = d.ListUrnsByFilter(ctx, index.Filter{Criteria: criteria}, urn.Urn{}, 10)
	assert.Error(t, err, "too many criteria")
}
