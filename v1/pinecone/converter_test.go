package pinecone

import (
	"testing"
	"time"

	"github.com/Aleph-Alpha/vdbclient/v1/vectordb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestConvertFilterSet(t *testing.T) {
	since := time.Unix(1700000000, 0)

	tests := []struct {
		name   string
		filter *vectordb.FilterSet
		want   map[string]any
	}{
		{
			name:   "single match",
			filter: vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatch("lang", "en"))),
			want:   map[string]any{"lang": map[string]any{"$eq": "en"}},
		},
		{
			name: "must and must not",
			filter: vectordb.NewFilterSet(
				vectordb.Must(vectordb.NewMatchAny("tag", "a", "b")),
				vectordb.MustNot(vectordb.NewMatch("draft", true)),
			),
			want: map[string]any{"$and": []any{
				map[string]any{"tag": map[string]any{"$in": []any{"a", "b"}}},
				map[string]any{"draft": map[string]any{"$ne": true}},
			}},
		},
		{
			name: "should",
			filter: vectordb.NewFilterSet(vectordb.Should(
				vectordb.NewMatch("lang", "en"),
				vectordb.NewMatch("lang", "de"),
			)),
			want: map[string]any{"$or": []any{
				map[string]any{"lang": map[string]any{"$eq": "en"}},
				map[string]any{"lang": map[string]any{"$eq": "de"}},
			}},
		},
		{
			name: "ranges",
			filter: vectordb.NewFilterSet(vectordb.Must(
				vectordb.NewNumericRange("year", vectordb.NumericRange{Gte: ptr(2020.0), Lt: ptr(2024.0)}),
				vectordb.NewTimeRange("created", vectordb.TimeRange{Gt: &since}),
			)),
			want: map[string]any{"$and": []any{
				map[string]any{"year": map[string]any{"$gte": 2020.0, "$lt": 2024.0}},
				map[string]any{"created": map[string]any{"$gt": 1700000000.0}},
			}},
		},
		{
			name: "nested or inside must",
			filter: vectordb.NewFilterSet(vectordb.Must(
				vectordb.NewMatch("lang", "en"),
				vectordb.Or(vectordb.NewMatch("tag", "a"), vectordb.NewIsEmpty("tag")),
			)),
			want: map[string]any{"$and": []any{
				map[string]any{"lang": map[string]any{"$eq": "en"}},
				map[string]any{"$or": []any{
					map[string]any{"tag": map[string]any{"$eq": "a"}},
					map[string]any{"tag": map[string]any{"$exists": false}},
				}},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := convertFilterSet(tt.filter)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.AsMap())
		})
	}
}

func TestConvertFilterSet_Empty(t *testing.T) {
	got, err := convertFilterSet(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = convertFilterSet(vectordb.NewFilterSet())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConvertFilterSet_UnsupportedNegation(t *testing.T) {
	_, err := convertFilterSet(vectordb.NewFilterSet(vectordb.MustNot(
		vectordb.NewNumericRange("year", vectordb.NumericRange{Gt: ptr(1.0)}),
	)))
	assert.ErrorIs(t, err, vectordb.ErrInvalidArgument)
}

func TestFromVector(t *testing.T) {
	meta, err := toMetadata(map[string]any{"n": 1})
	require.NoError(t, err)
	v, err := toVector(vectordb.Record{ID: "a", Values: []float32{1, 2}, Metadata: map[string]any{"n": 1}})
	require.NoError(t, err)
	assert.Equal(t, meta.AsMap(), v.Metadata.AsMap())

	r := fromVector(v)
	assert.Equal(t, "a", r.ID)
	assert.Equal(t, []float32{1, 2}, r.Values)
	assert.Equal(t, 1.0, r.Metadata["n"])
	assert.Equal(t, vectordb.Record{}, fromVector(nil))
}
