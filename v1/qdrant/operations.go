package qdrant

import (
	"context"
	"fmt"

	"github.com/Aleph-Alpha/vdbclient/v1/paginate"
	"github.com/Aleph-Alpha/vdbclient/v1/vectordb"
	qdrant "github.com/qdrant/go-client/qdrant"
)

// maxFacetNamespaces bounds ListNamespaces on a partitioned collection.
const maxFacetNamespaces = 10_000

// Query runs one similarity query against one namespace. It makes exactly
// one attempt; the caller owns retries.
//
// Dense, sparse (through SparseVectorName) and by-ID queries are supported.
// Qdrant reports no read units, so Usage stays zero.
func (c *QdrantClient) Query(ctx context.Context, namespace string, req *vectordb.QueryRequest) (*vectordb.QueryResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	query, using, err := c.buildQuery(req)
	if err != nil {
		return nil, err
	}
	collection, filter, err := c.scope(namespace, req.Filter)
	if err != nil {
		return nil, err
	}

	limit := uint64(req.TopK)
	points, err := c.api.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          query,
		Using:          using,
		Filter:         filter,
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(req.IncludeMetadata),
		WithVectors:    qdrant.NewWithVectors(req.IncludeValues),
		Timeout:        c.requestTimeout(),
	})
	if err != nil {
		return nil, mapError(err)
	}

	res := &vectordb.QueryResult{Matches: make([]vectordb.Match, 0, len(points))}
	for _, p := range points {
		m, err := c.toMatch(p)
		if err != nil {
			return nil, err
		}
		res.Matches = append(res.Matches, m)
	}
	c.debug(ctx, "Query finished", map[string]interface{}{
		"collection": collection,
		"namespace":  namespace,
		"matches":    len(res.Matches),
	})
	return res, nil
}

func (c *QdrantClient) buildQuery(req *vectordb.QueryRequest) (*qdrant.Query, *string, error) {
	var using *string
	if c.cfg.VectorName != "" {
		using = qdrant.PtrOf(c.cfg.VectorName)
	}
	switch {
	case req.ID != "":
		return qdrant.NewQueryID(pointID(req.ID)), using, nil
	case len(req.Vector) > 0 && req.Sparse != nil:
		return nil, nil, vectordb.InvalidArgumentf("qdrant: combined dense and sparse queries are not supported")
	case req.Sparse != nil:
		if c.cfg.SparseVectorName == "" {
			return nil, nil, vectordb.InvalidArgumentf("qdrant: sparse query needs a sparse vector name")
		}
		return qdrant.NewQuerySparse(req.Sparse.Indices, req.Sparse.Values), qdrant.PtrOf(c.cfg.SparseVectorName), nil
	}
	return qdrant.NewQueryDense(req.Vector), using, nil
}

// scope resolves a namespace to its collection and the filter that confines
// a request to it.
func (c *QdrantClient) scope(namespace string, fs *vectordb.FilterSet) (string, *qdrant.Filter, error) {
	filter, err := convertFilterSet(fs)
	if err != nil {
		return "", nil, err
	}
	if c.cfg.NamespaceField == "" {
		collection := namespace
		if collection == "" {
			collection = c.cfg.Collection
		}
		if collection == "" {
			return "", nil, vectordb.InvalidArgumentf("qdrant: empty namespace and no default collection")
		}
		return collection, filter, nil
	}

	partition := qdrant.NewMatch(c.cfg.NamespaceField, namespace)
	if filter == nil {
		return c.cfg.Collection, &qdrant.Filter{Must: []*qdrant.Condition{partition}}, nil
	}
	return c.cfg.Collection, &qdrant.Filter{
		Must: []*qdrant.Condition{partition, qdrant.NewFilterAsCondition(filter)},
	}, nil
}

func (c *QdrantClient) requestTimeout() *uint64 {
	if c.cfg.Timeout <= 0 {
		return nil
	}
	secs := uint64(c.cfg.Timeout.Seconds())
	if secs == 0 {
		secs = 1
	}
	return &secs
}

// Upsert writes records into a namespace in batches of Config.BatchSize and
// waits until each batch is applied. Upserts are idempotent per point ID,
// so a context carrying retry.WithIdempotencyKey lets the gRPC interceptor
// repeat failed batches.
func (c *QdrantClient) Upsert(ctx context.Context, namespace string, records []vectordb.Record) error {
	if len(records) == 0 {
		return nil
	}
	collection, _, err := c.scope(namespace, nil)
	if err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, len(records))
	for i, r := range records {
		if points[i], err = c.toPoint(namespace, r); err != nil {
			return fmt.Errorf("record %q: %w", r.ID, err)
		}
	}

	for start := 0; start < len(points); start += c.cfg.BatchSize {
		end := min(start+c.cfg.BatchSize, len(points))
		_, err := c.api.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Points:         points[start:end],
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			return fmt.Errorf("[Qdrant] batch upsert failed at [%d:%d]: %w", start, end, mapError(err))
		}
		c.debug(ctx, "Upserted batch", map[string]interface{}{
			"collection": collection,
			"from":       start,
			"to":         end,
		})
	}
	return nil
}

func (c *QdrantClient) toPoint(namespace string, r vectordb.Record) (*qdrant.PointStruct, error) {
	if r.ID == "" {
		return nil, vectordb.InvalidArgumentf("record id is required")
	}
	vectors, err := c.toVectors(r.Values, r.Sparse)
	if err != nil {
		return nil, err
	}
	meta := r.Metadata
	if c.cfg.NamespaceField != "" {
		meta = make(map[string]any, len(r.Metadata)+1)
		for k, v := range r.Metadata {
			meta[k] = v
		}
		meta[c.cfg.NamespaceField] = namespace
	}
	payload, err := qdrant.TryValueMap(meta)
	if err != nil {
		return nil, vectordb.InvalidArgumentf("unsupported metadata: %v", err)
	}
	return &qdrant.PointStruct{Id: pointID(r.ID), Vectors: vectors, Payload: payload}, nil
}

func (c *QdrantClient) toVectors(dense []float32, sparse *vectordb.SparseValues) (*qdrant.Vectors, error) {
	if sparse != nil {
		if err := sparse.Validate(); err != nil {
			return nil, err
		}
		if c.cfg.SparseVectorName == "" {
			return nil, vectordb.InvalidArgumentf("qdrant: sparse values need a sparse vector name")
		}
	}
	if sparse == nil && c.cfg.VectorName == "" {
		if len(dense) == 0 {
			return nil, vectordb.InvalidArgumentf("record has no vector")
		}
		return qdrant.NewVectorsDense(dense), nil
	}
	named := make(map[string]*qdrant.Vector, 2)
	if len(dense) > 0 {
		named[c.cfg.VectorName] = qdrant.NewVectorDense(dense)
	}
	if sparse != nil {
		named[c.cfg.SparseVectorName] = qdrant.NewVectorSparse(sparse.Indices, sparse.Values)
	}
	if len(named) == 0 {
		return nil, vectordb.InvalidArgumentf("record has no vector")
	}
	return qdrant.NewVectorsMap(named), nil
}

// Fetch returns the stored records for ids. Missing IDs are skipped.
func (c *QdrantClient) Fetch(ctx context.Context, namespace string, ids []string) ([]vectordb.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	collection, _, err := c.scope(namespace, nil)
	if err != nil {
		return nil, err
	}
	pids := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pids[i] = pointID(id)
	}

	points, err := c.api.Get(ctx, &qdrant.GetPoints{
		CollectionName: collection,
		Ids:            pids,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] fetch failed: %w", mapError(err))
	}

	records := make([]vectordb.Record, 0, len(points))
	for _, p := range points {
		if !c.inNamespace(namespace, p.GetPayload()) {
			continue
		}
		r, err := c.toRecord(p)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

func (c *QdrantClient) inNamespace(namespace string, payload map[string]*qdrant.Value) bool {
	if c.cfg.NamespaceField == "" {
		return true
	}
	return payload[c.cfg.NamespaceField].GetStringValue() == namespace
}

// Update replaces the vectors of an existing record. Metadata is left
// untouched.
func (c *QdrantClient) Update(ctx context.Context, namespace string, r vectordb.Record) error {
	if r.ID == "" {
		return vectordb.InvalidArgumentf("record id is required")
	}
	collection, _, err := c.scope(namespace, nil)
	if err != nil {
		return err
	}
	vectors, err := c.toVectors(r.Values, r.Sparse)
	if err != nil {
		return err
	}
	_, err = c.api.UpdateVectors(ctx, &qdrant.UpdatePointVectors{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         []*qdrant.PointVectors{{Id: pointID(r.ID), Vectors: vectors}},
	})
	if err != nil {
		return fmt.Errorf("[Qdrant] update failed: %w", mapError(err))
	}
	return nil
}

// Delete removes records by ID. In a partitioned collection only points of
// the namespace are deleted.
func (c *QdrantClient) Delete(ctx context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	collection, filter, err := c.scope(namespace, nil)
	if err != nil {
		return err
	}
	pids := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pids[i] = pointID(id)
	}

	selector := qdrant.NewPointsSelector(pids...)
	if filter != nil {
		filter.Must = append(filter.Must, qdrant.NewHasID(pids...))
		selector = qdrant.NewPointsSelectorFilter(filter)
	}

	resp, err := c.api.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         selector,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("[Qdrant] delete failed: %w", mapError(err))
	}
	c.debug(ctx, "Delete completed", map[string]interface{}{
		"collection": collection,
		"status":     resp.GetStatus().String(),
	})
	return nil
}

// ListPage returns one page of record IDs of a namespace. It has the
// paginate.FetchFunc shape; an empty Next means the listing is complete.
func (c *QdrantClient) ListPage(ctx context.Context, namespace, cursor string, pageSize int) (paginate.Page[string], error) {
	offset, err := decodeCursor(cursor)
	if err != nil {
		return paginate.Page[string]{}, err
	}
	collection, filter, err := c.scope(namespace, nil)
	if err != nil {
		return paginate.Page[string]{}, err
	}

	req := &qdrant.ScrollPoints{
		CollectionName: collection,
		Filter:         filter,
		Offset:         offset,
		WithPayload:    qdrant.NewWithPayload(false),
		WithVectors:    qdrant.NewWithVectors(false),
	}
	if pageSize > 0 {
		req.Limit = qdrant.PtrOf(uint32(pageSize))
	}
	points, next, err := c.api.ScrollAndOffset(ctx, req)
	if err != nil {
		return paginate.Page[string]{}, fmt.Errorf("[Qdrant] scroll failed: %w", mapError(err))
	}

	page := paginate.Page[string]{Items: make([]string, 0, len(points)), Next: encodeCursor(next)}
	for _, p := range points {
		id, err := formatPointID(p.GetId())
		if err != nil {
			return paginate.Page[string]{}, err
		}
		page.Items = append(page.Items, id)
	}
	return page, nil
}

// IDs returns a walker over every record ID of a namespace.
//
//	for id, err := range client.IDs("tenant-a", paginate.WithPageSize(500)).Items(ctx) {
//	    ...
//	}
func (c *QdrantClient) IDs(namespace string, opts ...paginate.Option) *paginate.Walker[string] {
	return paginate.New(func(ctx context.Context, cursor string, pageSize int) (paginate.Page[string], error) {
		return c.ListPage(ctx, namespace, cursor, pageSize)
	}, opts...)
}

// ListNamespaces returns the collection names, or the distinct values of
// NamespaceField in a partitioned collection. The latter needs a keyword
// index on the field.
func (c *QdrantClient) ListNamespaces(ctx context.Context) ([]string, error) {
	if c.cfg.NamespaceField == "" {
		names, err := c.api.ListCollections(ctx)
		if err != nil {
			return nil, fmt.Errorf("[Qdrant] failed to list collections: %w", mapError(err))
		}
		return names, nil
	}

	hits, err := c.api.Facet(ctx, &qdrant.FacetCounts{
		CollectionName: c.cfg.Collection,
		Key:            c.cfg.NamespaceField,
		Limit:          qdrant.PtrOf(uint64(maxFacetNamespaces)),
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] failed to list namespaces: %w", mapError(err))
	}
	names := make([]string, 0, len(hits))
	for _, h := range hits {
		if s := h.GetValue().GetStringValue(); s != "" {
			names = append(names, s)
		}
	}
	return names, nil
}
