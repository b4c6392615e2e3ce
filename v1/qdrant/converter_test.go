package qdrant

import (
	"errors"
	"testing"
	"time"

	"github.com/Aleph-Alpha/vdbclient/v1/retry"
	"github.com/Aleph-Alpha/vdbclient/v1/vectordb"
	qdrant "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

func TestConvertFilterSet_Empty(t *testing.T) {
	f, err := convertFilterSet(nil)
	require.NoError(t, err)
	assert.Nil(t, f)

	f, err = convertFilterSet(vectordb.NewFilterSet())
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestConvertFilterSet_Clauses(t *testing.T) {
	gte := 10.0
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fs := vectordb.NewFilterSet(
		vectordb.Must(
			vectordb.NewMatch("lang", "en"),
			vectordb.NewMatch("public", true),
			vectordb.NewMatch("year", float64(2024)),
			vectordb.NewNumericRange("pages", vectordb.NumericRange{Gte: &gte}),
			vectordb.NewTimeRange("created", vectordb.TimeRange{Gte: &since}),
		),
		vectordb.Should(
			vectordb.NewMatchAny("tag", "ml", "ai"),
			vectordb.NewMatchAny("level", 1, 2),
		),
		vectordb.MustNot(
			vectordb.NewMatchExcept("source", "spam"),
			vectordb.NewIsNull("title"),
			vectordb.NewIsEmpty("authors"),
		),
	)

	f, err := convertFilterSet(fs)
	require.NoError(t, err)

	require.Len(t, f.Must, 5)
	assert.Equal(t, "en", f.Must[0].GetField().GetMatch().GetKeyword())
	assert.True(t, f.Must[1].GetField().GetMatch().GetBoolean())
	assert.Equal(t, int64(2024), f.Must[2].GetField().GetMatch().GetInteger())
	assert.Equal(t, 10.0, f.Must[3].GetField().GetRange().GetGte())
	assert.Equal(t, since.Unix(), f.Must[4].GetField().GetDatetimeRange().GetGte().GetSeconds())

	require.Len(t, f.Should, 2)
	assert.Equal(t, []string{"ml", "ai"}, f.Should[0].GetField().GetMatch().GetKeywords().GetStrings())
	assert.Equal(t, []int64{1, 2}, f.Should[1].GetField().GetMatch().GetIntegers().GetIntegers())

	require.Len(t, f.MustNot, 3)
	assert.Equal(t, []string{"spam"}, f.MustNot[0].GetField().GetMatch().GetExceptKeywords().GetStrings())
	assert.Equal(t, "title", f.MustNot[1].GetIsNull().GetKey())
	assert.Equal(t, "authors", f.MustNot[2].GetIsEmpty().GetKey())
}

func TestConvertFilterSet_Nested(t *testing.T) {
	fs := vectordb.NewFilterSet(
		vectordb.Must(vectordb.NewMatch("lang", "en")),
		vectordb.Should(vectordb.NewNested(vectordb.NewFilterSet(
			vectordb.Must(vectordb.NewMatch("a", "1"), vectordb.NewMatch("b", "2")),
		))),
	)

	f, err := convertFilterSet(fs)
	require.NoError(t, err)
	require.Len(t, f.Should, 1)
	inner := f.Should[0].GetFilter()
	require.NotNil(t, inner)
	assert.Len(t, inner.Must, 2)
}

func TestConvertFilterSet_Rejects(t *testing.T) {
	tests := []struct {
		name string
		fs   *vectordb.FilterSet
	}{
		{"float match", vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatch("score", 0.5)))},
		{"mixed list", vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatchAny("tag", "a", 1)))},
		{"float list", vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatchAny("tag", 0.5)))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := convertFilterSet(tt.fs)
			assert.ErrorIs(t, err, vectordb.ErrInvalidArgument)
		})
	}
}

func TestPointIDs(t *testing.T) {
	id, err := formatPointID(pointID("42"))
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	uuid := "5c56c793-69f3-4fbf-87e6-c4bf54c28c26"
	assert.Equal(t, uuid, pointID(uuid).GetUuid())

	_, err = formatPointID(nil)
	assert.Error(t, err)
}

func TestCursorRoundTrip(t *testing.T) {
	for _, id := range []*qdrant.PointId{qdrant.NewIDNum(7), qdrant.NewIDUUID("5c56c793-69f3-4fbf-87e6-c4bf54c28c26")} {
		cursor := encodeCursor(id)
		back, err := decodeCursor(cursor)
		require.NoError(t, err)
		assert.True(t, proto.Equal(id, back))
	}

	assert.Empty(t, encodeCursor(nil))
	back, err := decodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, back)

	for _, bad := range []string{"x", "n:", "n:abc", "z:1"} {
		_, err := decodeCursor(bad)
		assert.ErrorIs(t, err, vectordb.ErrInvalidArgument, bad)
	}
}

func TestFromValue(t *testing.T) {
	payload := qdrant.NewValueMap(map[string]any{
		"s":    "x",
		"i":    3,
		"f":    1.5,
		"b":    true,
		"list": []any{"a", 1},
		"obj":  map[string]any{"k": "v"},
	})
	c := newClient(&fakeAPI{}, &Config{}, nil)
	got := c.userPayload(payload)

	assert.Equal(t, "x", got["s"])
	assert.Equal(t, int64(3), got["i"])
	assert.Equal(t, 1.5, got["f"])
	assert.Equal(t, true, got["b"])
	assert.Equal(t, []any{"a", int64(1)}, got["list"])
	assert.Equal(t, map[string]any{"k": "v"}, got["obj"])
}

func TestUserPayloadHidesNamespaceField(t *testing.T) {
	c := newClient(&fakeAPI{}, &Config{Collection: "docs", NamespaceField: "tenant"}, nil)
	got := c.userPayload(qdrant.NewValueMap(map[string]any{"tenant": "acme", "lang": "en"}))
	assert.Equal(t, map[string]any{"lang": "en"}, got)
}

func TestMapError(t *testing.T) {
	throttled := mapError(&qdrant.QdrantResourceExhaustedError{Reason: "rate", RetryAfterS: 1})
	assert.ErrorIs(t, throttled, retry.ErrResourceExhausted)
	assert.Equal(t, retry.Retryable, retry.Classify(throttled))

	plain := errors.New("boom")
	assert.Same(t, plain, mapError(plain))
}
