package qdrant

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Aleph-Alpha/vdbclient/v1/fanout"
	"github.com/Aleph-Alpha/vdbclient/v1/paginate"
	"github.com/Aleph-Alpha/vdbclient/v1/vectordb"
	qdrant "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI records requests and answers from canned data.
type fakeAPI struct {
	mu sync.Mutex

	queries  []*qdrant.QueryPoints
	upserts  []*qdrant.UpsertPoints
	deletes  []*qdrant.DeletePoints
	updates  []*qdrant.UpdatePointVectors
	scrolls  []*qdrant.ScrollPoints
	gets     []*qdrant.GetPoints
	facets   []*qdrant.FacetCounts
	closed   bool
	queryErr map[string]error

	points      map[string][]*qdrant.ScoredPoint
	scrollPages map[string][]*qdrant.RetrievedPoint
	retrieved   []*qdrant.RetrievedPoint
	collections []string
	facetHits   []*qdrant.FacetHit
}

func (f *fakeAPI) Query(_ context.Context, r *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, r)
	if err := f.queryErr[r.CollectionName]; err != nil {
		return nil, err
	}
	return f.points[r.CollectionName], nil
}

// ScrollAndOffset serves scrollPages keyed by the offset cursor, so tests
// can chain pages through encodeCursor.
func (f *fakeAPI) ScrollAndOffset(_ context.Context, r *qdrant.ScrollPoints) ([]*qdrant.RetrievedPoint, *qdrant.PointId, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scrolls = append(f.scrolls, r)
	page := f.scrollPages[encodeCursor(r.Offset)]
	limit := len(page)
	if r.Limit != nil && int(*r.Limit) < limit {
		limit = int(*r.Limit)
	}
	var next *qdrant.PointId
	if limit < len(page) {
		next = page[limit].GetId()
	}
	return page[:limit], next, nil
}

func (f *fakeAPI) Get(_ context.Context, r *qdrant.GetPoints) ([]*qdrant.RetrievedPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, r)
	return f.retrieved, nil
}

func (f *fakeAPI) Upsert(_ context.Context, r *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, r)
	return &qdrant.UpdateResult{Status: qdrant.UpdateStatus_Completed}, nil
}

func (f *fakeAPI) UpdateVectors(_ context.Context, r *qdrant.UpdatePointVectors) (*qdrant.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, r)
	return &qdrant.UpdateResult{Status: qdrant.UpdateStatus_Completed}, nil
}

func (f *fakeAPI) Delete(_ context.Context, r *qdrant.DeletePoints) (*qdrant.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, r)
	return &qdrant.UpdateResult{Status: qdrant.UpdateStatus_Completed}, nil
}

func (f *fakeAPI) Facet(_ context.Context, r *qdrant.FacetCounts) ([]*qdrant.FacetHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.facets = append(f.facets, r)
	return f.facetHits, nil
}

func (f *fakeAPI) ListCollections(context.Context) ([]string, error) {
	return f.collections, nil
}

func (f *fakeAPI) HealthCheck(context.Context) (*qdrant.HealthCheckReply, error) {
	return &qdrant.HealthCheckReply{Title: "qdrant", Version: "test"}, nil
}

func (f *fakeAPI) Close() error {
	f.closed = true
	return nil
}

func scored(id uint64, score float32, payload map[string]any) *qdrant.ScoredPoint {
	return &qdrant.ScoredPoint{Id: qdrant.NewIDNum(id), Score: score, Payload: qdrant.NewValueMap(payload)}
}

func retrieved(id uint64) *qdrant.RetrievedPoint {
	return &qdrant.RetrievedPoint{Id: qdrant.NewIDNum(id)}
}

func TestQuery_Dense(t *testing.T) {
	api := &fakeAPI{points: map[string][]*qdrant.ScoredPoint{
		"docs": {scored(1, 0.9, map[string]any{"lang": "en"}), scored(2, 0.4, nil)},
	}}
	c := newClient(api, &Config{VectorName: "text"}, nil)

	res, err := c.Query(context.Background(), "docs", &vectordb.QueryRequest{
		Vector:          []float32{0.1, 0.2},
		TopK:            2,
		IncludeMetadata: true,
		Filter:          vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatch("lang", "en"))),
	})
	require.NoError(t, err)

	require.Len(t, res.Matches, 2)
	assert.Equal(t, "1", res.Matches[0].ID)
	assert.Equal(t, float32(0.9), res.Matches[0].Score)
	assert.Equal(t, "en", res.Matches[0].Metadata["lang"])

	require.Len(t, api.queries, 1)
	q := api.queries[0]
	assert.Equal(t, "docs", q.CollectionName)
	assert.Equal(t, uint64(2), q.GetLimit())
	assert.Equal(t, "text", q.GetUsing())
	assert.Equal(t, []float32{0.1, 0.2}, q.GetQuery().GetNearest().GetDense().GetData())
	require.Len(t, q.GetFilter().GetMust(), 1)
}

func TestQuery_SparseAndByID(t *testing.T) {
	api := &fakeAPI{}
	c := newClient(api, &Config{SparseVectorName: "bm25"}, nil)

	_, err := c.Query(context.Background(), "docs", &vectordb.QueryRequest{
		Sparse: &vectordb.SparseValues{Indices: []uint32{3, 9}, Values: []float32{0.5, 0.1}},
		TopK:   3,
	})
	require.NoError(t, err)
	assert.Equal(t, "bm25", api.queries[0].GetUsing())
	assert.Equal(t, []uint32{3, 9}, api.queries[0].GetQuery().GetNearest().GetSparse().GetIndices())

	_, err = c.Query(context.Background(), "docs", &vectordb.QueryRequest{ID: "17", TopK: 3})
	require.NoError(t, err)
	assert.Equal(t, uint64(17), api.queries[1].GetQuery().GetNearest().GetId().GetNum())
}

func TestQuery_Rejects(t *testing.T) {
	c := newClient(&fakeAPI{}, &Config{}, nil)
	sparse := &vectordb.SparseValues{Indices: []uint32{1}, Values: []float32{1}}

	tests := []struct {
		name string
		ns   string
		req  *vectordb.QueryRequest
	}{
		{"hybrid", "docs", &vectordb.QueryRequest{Vector: []float32{1}, Sparse: sparse, TopK: 1}},
		{"sparse without name", "docs", &vectordb.QueryRequest{Sparse: sparse, TopK: 1}},
		{"empty namespace without default", "", &vectordb.QueryRequest{Vector: []float32{1}, TopK: 1}},
		{"invalid request", "docs", &vectordb.QueryRequest{TopK: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Query(context.Background(), tt.ns, tt.req)
			assert.ErrorIs(t, err, vectordb.ErrInvalidArgument)
		})
	}
}

func TestQuery_PartitionedNamespace(t *testing.T) {
	api := &fakeAPI{points: map[string][]*qdrant.ScoredPoint{
		"shared": {scored(5, 0.7, map[string]any{"tenant": "acme", "lang": "en"})},
	}}
	c := newClient(api, &Config{Collection: "shared", NamespaceField: "tenant"}, nil)

	res, err := c.Query(context.Background(), "acme", &vectordb.QueryRequest{
		Vector:          []float32{1},
		TopK:            1,
		IncludeMetadata: true,
		Filter:          vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatch("lang", "en"))),
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"lang": "en"}, res.Matches[0].Metadata)

	must := api.queries[0].GetFilter().GetMust()
	require.Len(t, must, 2)
	assert.Equal(t, "tenant", must[0].GetField().GetKey())
	assert.Equal(t, "acme", must[0].GetField().GetMatch().GetKeyword())
	assert.NotNil(t, must[1].GetFilter())
}

func TestQuery_DefaultCollectionForEmptyNamespace(t *testing.T) {
	api := &fakeAPI{}
	c := newClient(api, &Config{Collection: "default"}, nil)
	_, err := c.Query(context.Background(), "", &vectordb.QueryRequest{Vector: []float32{1}, TopK: 1})
	require.NoError(t, err)
	assert.Equal(t, "default", api.queries[0].CollectionName)
}

func TestUpsert_Batches(t *testing.T) {
	api := &fakeAPI{}
	c := newClient(api, &Config{Collection: "shared", NamespaceField: "tenant", BatchSize: 2}, nil)

	records := []vectordb.Record{
		{ID: "1", Values: []float32{1}, Metadata: map[string]any{"lang": "en"}},
		{ID: "2", Values: []float32{2}},
		{ID: "5c56c793-69f3-4fbf-87e6-c4bf54c28c26", Values: []float32{3}},
	}
	require.NoError(t, c.Upsert(context.Background(), "acme", records))

	require.Len(t, api.upserts, 2)
	assert.Len(t, api.upserts[0].Points, 2)
	assert.Len(t, api.upserts[1].Points, 1)
	assert.True(t, api.upserts[0].GetWait())

	first := api.upserts[0].Points[0]
	assert.Equal(t, "acme", first.Payload["tenant"].GetStringValue())
	assert.Equal(t, "en", first.Payload["lang"].GetStringValue())
	assert.Equal(t, "5c56c793-69f3-4fbf-87e6-c4bf54c28c26", api.upserts[1].Points[0].GetId().GetUuid())
	// The caller's metadata map is not modified.
	assert.NotContains(t, records[0].Metadata, "tenant")
}

func TestUpsert_NamedVectors(t *testing.T) {
	api := &fakeAPI{}
	c := newClient(api, &Config{VectorName: "text", SparseVectorName: "bm25"}, nil)

	err := c.Upsert(context.Background(), "docs", []vectordb.Record{{
		ID:     "1",
		Values: []float32{1, 2},
		Sparse: &vectordb.SparseValues{Indices: []uint32{4}, Values: []float32{0.3}},
	}})
	require.NoError(t, err)

	named := api.upserts[0].Points[0].GetVectors().GetVectors().GetVectors()
	assert.Contains(t, named, "text")
	assert.Contains(t, named, "bm25")
}

func TestUpsert_Rejects(t *testing.T) {
	c := newClient(&fakeAPI{}, &Config{}, nil)
	assert.ErrorIs(t, c.Upsert(context.Background(), "docs", []vectordb.Record{{Values: []float32{1}}}), vectordb.ErrInvalidArgument)
	assert.ErrorIs(t, c.Upsert(context.Background(), "docs", []vectordb.Record{{ID: "1"}}), vectordb.ErrInvalidArgument)
	assert.NoError(t, c.Upsert(context.Background(), "docs", nil))
}

func TestFetch_SkipsOtherNamespaces(t *testing.T) {
	api := &fakeAPI{retrieved: []*qdrant.RetrievedPoint{
		{Id: qdrant.NewIDNum(1), Payload: qdrant.NewValueMap(map[string]any{"tenant": "acme"})},
		{Id: qdrant.NewIDNum(2), Payload: qdrant.NewValueMap(map[string]any{"tenant": "globex"})},
	}}
	c := newClient(api, &Config{Collection: "shared", NamespaceField: "tenant"}, nil)

	records, err := c.Fetch(context.Background(), "acme", []string{"1", "2"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "1", records[0].ID)
	assert.Len(t, api.gets[0].Ids, 2)
}

func TestUpdate(t *testing.T) {
	api := &fakeAPI{}
	c := newClient(api, &Config{}, nil)
	require.NoError(t, c.Update(context.Background(), "docs", vectordb.Record{ID: "9", Values: []float32{1}}))
	require.Len(t, api.updates, 1)
	assert.Equal(t, uint64(9), api.updates[0].Points[0].GetId().GetNum())
}

func TestDelete(t *testing.T) {
	api := &fakeAPI{}
	plain := newClient(api, &Config{}, nil)
	require.NoError(t, plain.Delete(context.Background(), "docs", []string{"1", "2"}))
	assert.Len(t, api.deletes[0].GetPoints().GetPoints().GetIds(), 2)

	partitioned := newClient(api, &Config{Collection: "shared", NamespaceField: "tenant"}, nil)
	require.NoError(t, partitioned.Delete(context.Background(), "acme", []string{"1"}))
	must := api.deletes[1].GetPoints().GetFilter().GetMust()
	require.Len(t, must, 2)
	assert.NotNil(t, must[1].GetHasId())
}

func TestListPage_WalksAllIDs(t *testing.T) {
	api := &fakeAPI{scrollPages: map[string][]*qdrant.RetrievedPoint{
		"":    {retrieved(1), retrieved(2), retrieved(3)},
		"n:3": {retrieved(3), retrieved(4)},
	}}
	c := newClient(api, &Config{}, nil)

	var ids []string
	for id, err := range c.IDs("docs", paginate.WithPageSize(2)).Items(context.Background()) {
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids)
	require.Len(t, api.scrolls, 2)
	assert.Equal(t, uint32(2), api.scrolls[0].GetLimit())
}

func TestListPage_BadCursor(t *testing.T) {
	c := newClient(&fakeAPI{}, &Config{}, nil)
	_, err := c.ListPage(context.Background(), "docs", "garbage", 10)
	assert.ErrorIs(t, err, vectordb.ErrInvalidArgument)
}

func TestListNamespaces(t *testing.T) {
	api := &fakeAPI{
		collections: []string{"a", "b"},
		facetHits: []*qdrant.FacetHit{
			{Value: &qdrant.FacetValue{Variant: &qdrant.FacetValue_StringValue{StringValue: "acme"}}, Count: 3},
			{Value: &qdrant.FacetValue{Variant: &qdrant.FacetValue_StringValue{StringValue: "globex"}}, Count: 1},
		},
	}

	names, err := newClient(api, &Config{}, nil).ListNamespaces(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	names, err = newClient(api, &Config{Collection: "shared", NamespaceField: "tenant"}, nil).ListNamespaces(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"acme", "globex"}, names)
	assert.Equal(t, "tenant", api.facets[0].Key)
}

func TestMetricAndClose(t *testing.T) {
	api := &fakeAPI{}
	c := newClient(api, &Config{Metric: "euclid"}, nil)
	m, err := c.Metric()
	require.NoError(t, err)
	assert.Equal(t, vectordb.MetricEuclidean, m)

	require.NoError(t, c.Close())
	assert.True(t, api.closed)
}

func TestDispatcherOverQdrant(t *testing.T) {
	api := &fakeAPI{
		points: map[string][]*qdrant.ScoredPoint{
			"ns1": {scored(1, 0.9, nil), scored(2, 0.5, nil)},
			"ns2": {scored(3, 0.8, nil)},
		},
		queryErr: map[string]error{"ns3": errors.New("collection not found")},
	}
	c := newClient(api, &Config{}, nil)
	d, err := fanout.NewDispatcher(c, fanout.Config{})
	require.NoError(t, err)

	res, err := d.QueryNamespaces(context.Background(), &vectordb.QueryRequest{Vector: []float32{1}, TopK: 2},
		[]string{"ns1", "ns2", "ns3"}, vectordb.MetricCosine)
	require.NoError(t, err)

	require.Len(t, res.Matches, 2)
	assert.Equal(t, "1", res.Matches[0].ID)
	assert.Equal(t, "ns1", res.Matches[0].Namespace)
	assert.Equal(t, "3", res.Matches[1].ID)
	assert.Equal(t, "ns2", res.Matches[1].Namespace)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "ns3", res.Failures[0].Namespace)
}
