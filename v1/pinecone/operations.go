package pinecone

import (
	"context"
	"fmt"

	"github.com/Aleph-Alpha/vdbclient/v1/paginate"
	"github.com/Aleph-Alpha/vdbclient/v1/retry"
	"github.com/Aleph-Alpha/vdbclient/v1/vectordb"
	"github.com/pinecone-io/go-pinecone/v4/pinecone"
)

// Import is one bulk import job of the index.
type Import struct {
	ID              string  `json:"id"`
	URI             string  `json:"uri"`
	Status          string  `json:"status"`
	PercentComplete float32 `json:"percentComplete"`
	Error           string  `json:"error,omitempty"`
}

// Query runs one similarity query against one namespace, by values (dense,
// sparse or both) or by the stored vector of an ID. It makes exactly one
// attempt; the fan-out owns retries. Read units are reported in Usage.
func (c *PineconeClient) Query(ctx context.Context, namespace string, req *vectordb.QueryRequest) (*vectordb.QueryResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	filter, err := convertFilterSet(req.Filter)
	if err != nil {
		return nil, err
	}
	conn, err := c.conn(namespace)
	if err != nil {
		return nil, err
	}

	var resp *pinecone.QueryVectorsResponse
	if req.ID != "" {
		resp, err = conn.QueryByVectorId(ctx, &pinecone.QueryByVectorIdRequest{
			VectorId:        req.ID,
			TopK:            uint32(req.TopK),
			MetadataFilter:  filter,
			IncludeValues:   req.IncludeValues,
			IncludeMetadata: req.IncludeMetadata,
		})
	} else {
		resp, err = conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
			Vector:          req.Vector,
			SparseValues:    toSparse(req.Sparse),
			TopK:            uint32(req.TopK),
			MetadataFilter:  filter,
			IncludeValues:   req.IncludeValues,
			IncludeMetadata: req.IncludeMetadata,
		})
	}
	if err != nil {
		return nil, err
	}

	res := &vectordb.QueryResult{Matches: make([]vectordb.Match, 0, len(resp.Matches))}
	for _, sv := range resp.Matches {
		if sv != nil {
			res.Matches = append(res.Matches, toMatch(sv))
		}
	}
	if resp.Usage != nil {
		res.Usage.ReadUnits = uint64(resp.Usage.ReadUnits)
	}
	c.debug(ctx, "Query finished", map[string]interface{}{
		"namespace":  namespace,
		"matches":    len(res.Matches),
		"read_units": res.Usage.ReadUnits,
	})
	return res, nil
}

// Upsert writes records in batches of Config.BatchSize. A failed batch is
// repeated only when the retry policy considers the write safe, e.g. under
// retry.WithIdempotencyKey.
func (c *PineconeClient) Upsert(ctx context.Context, namespace string, records []vectordb.Record) error {
	if len(records) == 0 {
		return nil
	}
	vectors := make([]*pinecone.Vector, len(records))
	for i, r := range records {
		v, err := toVector(r)
		if err != nil {
			return fmt.Errorf("record %q: %w", r.ID, err)
		}
		vectors[i] = v
	}
	conn, err := c.conn(namespace)
	if err != nil {
		return err
	}

	op := retry.Op{Name: "upsert", Kind: retry.Write, Namespace: namespace}
	for start := 0; start < len(vectors); start += c.cfg.BatchSize {
		end := min(start+c.cfg.BatchSize, len(vectors))
		n, err := retry.Do(ctx, c.retry, op, func(ctx context.Context) (uint32, error) {
			return conn.UpsertVectors(ctx, vectors[start:end])
		})
		if err != nil {
			return fmt.Errorf("[Pinecone] batch upsert failed at [%d:%d]: %w", start, end, err)
		}
		c.debug(ctx, "Upserted batch", map[string]interface{}{
			"namespace": namespace,
			"upserted":  n,
		})
	}
	return nil
}

// Fetch returns the stored records for ids in request order. Missing IDs are
// skipped.
func (c *PineconeClient) Fetch(ctx context.Context, namespace string, ids []string) ([]vectordb.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	conn, err := c.conn(namespace)
	if err != nil {
		return nil, err
	}
	op := retry.Op{Name: "fetch", Kind: retry.Read, Namespace: namespace}
	resp, err := retry.Do(ctx, c.retry, op, func(ctx context.Context) (*pinecone.FetchVectorsResponse, error) {
		return conn.FetchVectors(ctx, ids)
	})
	if err != nil {
		return nil, fmt.Errorf("[Pinecone] fetch failed: %w", err)
	}

	records := make([]vectordb.Record, 0, len(resp.Vectors))
	for _, id := range ids {
		if v, ok := resp.Vectors[id]; ok && v != nil {
			records = append(records, fromVector(v))
		}
	}
	return records, nil
}

// Update sets new values and merges metadata of an existing record.
func (c *PineconeClient) Update(ctx context.Context, namespace string, r vectordb.Record) error {
	if r.ID == "" {
		return vectordb.InvalidArgumentf("record id is required")
	}
	meta, err := toMetadata(r.Metadata)
	if err != nil {
		return err
	}
	conn, err := c.conn(namespace)
	if err != nil {
		return err
	}
	op := retry.Op{Name: "update", Kind: retry.Write, Namespace: namespace}
	err = c.retry.Run(ctx, op, func(ctx context.Context) error {
		return conn.UpdateVector(ctx, &pinecone.UpdateVectorRequest{
			Id:           r.ID,
			Values:       r.Values,
			SparseValues: toSparse(r.Sparse),
			Metadata:     meta,
		})
	})
	if err != nil {
		return fmt.Errorf("[Pinecone] update failed: %w", err)
	}
	return nil
}

// Delete removes records by ID. A failed attempt is repeated only when the
// request never reached the server or ctx carries retry.WithIdempotencyKey;
// a repeated delete could otherwise remove a record written in between.
func (c *PineconeClient) Delete(ctx context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	conn, err := c.conn(namespace)
	if err != nil {
		return err
	}
	op := retry.Op{Name: "delete", Kind: retry.Write, Namespace: namespace}
	if err := c.retry.Run(ctx, op, func(ctx context.Context) error {
		return conn.DeleteVectorsById(ctx, ids)
	}); err != nil {
		return fmt.Errorf("[Pinecone] delete failed: %w", err)
	}
	c.debug(ctx, "Delete completed", map[string]interface{}{
		"namespace": namespace,
		"ids":       len(ids),
	})
	return nil
}

// ListPage returns one page of vector IDs of a namespace. It has the
// paginate.FetchFunc shape; the cursor is Pinecone's pagination token.
func (c *PineconeClient) ListPage(ctx context.Context, namespace, cursor string, pageSize int) (paginate.Page[string], error) {
	conn, err := c.conn(namespace)
	if err != nil {
		return paginate.Page[string]{}, err
	}
	req := &pinecone.ListVectorsRequest{}
	if cursor != "" {
		req.PaginationToken = &cursor
	}
	if pageSize > 0 {
		limit := uint32(pageSize)
		req.Limit = &limit
	}

	op := retry.Op{Name: "list_vectors", Kind: retry.Read, Namespace: namespace}
	resp, err := retry.Do(ctx, c.retry, op, func(ctx context.Context) (*pinecone.ListVectorsResponse, error) {
		return conn.ListVectors(ctx, req)
	})
	if err != nil {
		return paginate.Page[string]{}, fmt.Errorf("[Pinecone] list vectors failed: %w", err)
	}

	page := paginate.Page[string]{Items: make([]string, 0, len(resp.VectorIds))}
	for _, id := range resp.VectorIds {
		if id != nil {
			page.Items = append(page.Items, *id)
		}
	}
	if resp.NextPaginationToken != nil {
		page.Next = *resp.NextPaginationToken
	}
	return page, nil
}

// IDs returns a walker over every vector ID of a namespace.
func (c *PineconeClient) IDs(namespace string, opts ...paginate.Option) *paginate.Walker[string] {
	return paginate.New(func(ctx context.Context, cursor string, pageSize int) (paginate.Page[string], error) {
		return c.ListPage(ctx, namespace, cursor, pageSize)
	}, opts...)
}

// ListImportsPage returns one page of the index's bulk imports.
func (c *PineconeClient) ListImportsPage(ctx context.Context, cursor string, pageSize int) (paginate.Page[Import], error) {
	conn, err := c.conn("")
	if err != nil {
		return paginate.Page[Import]{}, err
	}
	var limit *int32
	if pageSize > 0 {
		n := int32(pageSize)
		limit = &n
	}
	var token *string
	if cursor != "" {
		token = &cursor
	}

	op := retry.Op{Name: "list_imports", Kind: retry.Read}
	resp, err := retry.Do(ctx, c.retry, op, func(ctx context.Context) (*pinecone.ListImportsResponse, error) {
		return conn.ListImports(ctx, limit, token)
	})
	if err != nil {
		return paginate.Page[Import]{}, fmt.Errorf("[Pinecone] list imports failed: %w", err)
	}

	page := paginate.Page[Import]{Items: make([]Import, 0, len(resp.Imports))}
	for _, imp := range resp.Imports {
		if imp == nil {
			continue
		}
		item := Import{
			ID:              imp.Id,
			URI:             imp.Uri,
			Status:          string(imp.Status),
			PercentComplete: imp.PercentComplete,
		}
		if imp.Error != nil {
			item.Error = *imp.Error
		}
		page.Items = append(page.Items, item)
	}
	if resp.NextPaginationToken != nil {
		page.Next = *resp.NextPaginationToken
	}
	return page, nil
}

// Imports returns a walker over the index's bulk imports.
func (c *PineconeClient) Imports(opts ...paginate.Option) *paginate.Walker[Import] {
	return paginate.New[Import](c.ListImportsPage, opts...)
}

// ListNamespacesPage returns one page of the index's namespace names, in the
// order the server lists them. The cursor is Pinecone's pagination token.
func (c *PineconeClient) ListNamespacesPage(ctx context.Context, cursor string, pageSize int) (paginate.Page[string], error) {
	conn, err := c.conn("")
	if err != nil {
		return paginate.Page[string]{}, err
	}
	params := &pinecone.ListNamespacesParams{}
	if cursor != "" {
		params.PaginationToken = &cursor
	}
	if pageSize > 0 {
		limit := uint32(pageSize)
		params.Limit = &limit
	}

	op := retry.Op{Name: "list_namespaces", Kind: retry.Read}
	resp, err := retry.Do(ctx, c.retry, op, func(ctx context.Context) (*pinecone.ListNamespacesResponse, error) {
		return conn.ListNamespaces(ctx, params)
	})
	if err != nil {
		return paginate.Page[string]{}, fmt.Errorf("[Pinecone] list namespaces failed: %w", err)
	}

	page := paginate.Page[string]{Items: make([]string, 0, len(resp.Namespaces))}
	for _, ns := range resp.Namespaces {
		if ns != nil {
			page.Items = append(page.Items, ns.Name)
		}
	}
	if resp.Pagination != nil {
		page.Next = resp.Pagination.Next
	}
	return page, nil
}

// Namespaces returns a walker over every namespace of the index.
func (c *PineconeClient) Namespaces(opts ...paginate.Option) *paginate.Walker[string] {
	return paginate.New[string](c.ListNamespacesPage, opts...)
}

// ListNamespaces returns every namespace of the index. Use Namespaces to walk
// them page by page instead.
func (c *PineconeClient) ListNamespaces(ctx context.Context) ([]string, error) {
	return paginate.All[string](ctx, c.ListNamespacesPage)
}
