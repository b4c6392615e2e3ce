package vectordb

// QueryRequest is one similarity query. Exactly one of Vector/Sparse (either or
// both) or ID selects the query target. A request is treated as immutable once
// it has been handed to a dispatcher; every namespace task reads the same
// value.
type QueryRequest struct {
	// Vector is the dense query embedding.
	Vector []float32 `json:"vector,omitempty"`

	// Sparse is an optional sparse query vector for hybrid or sparse-only
	// indexes.
	Sparse *SparseValues `json:"sparse,omitempty"`

	// ID queries by the stored vector of an existing record instead of an
	// explicit embedding.
	ID string `json:"id,omitempty"`

	// TopK is the number of matches wanted per namespace and overall.
	TopK int `json:"topK"`

	// Filter restricts matches by metadata.
	Filter *FilterSet `json:"filter,omitempty"`

	IncludeValues   bool `json:"includeValues,omitempty"`
	IncludeMetadata bool `json:"includeMetadata,omitempty"`
}

// Validate checks the request shape. It does not look at namespaces or
// metrics; those belong to the fan-out call.
func (r *QueryRequest) Validate() error {
	if r == nil {
		return InvalidArgumentf("query request is nil")
	}
	hasVector := len(r.Vector) > 0 || r.Sparse != nil
	switch {
	case r.ID != "" && hasVector:
		return InvalidArgumentf("query request sets both id and vector")
	case r.ID == "" && !hasVector:
		return InvalidArgumentf("query request needs a vector, sparse values or an id")
	case r.TopK < 0:
		return InvalidArgumentf("topK must not be negative, got %d", r.TopK)
	}
	if r.Sparse != nil {
		if err := r.Sparse.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// SparseValues is a sparse vector in coordinate form.
type SparseValues struct {
	Indices []uint32  `json:"indices"`
	Values  []float32 `json:"values"`
}

// Validate reports index/value length mismatches.
func (s *SparseValues) Validate() error {
	if len(s.Indices) != len(s.Values) {
		return InvalidArgumentf("sparse vector has %d indices but %d values", len(s.Indices), len(s.Values))
	}
	return nil
}

// Match is one scored hit. Namespace is filled in by the fan-out so that
// merged results keep their origin.
type Match struct {
	ID        string         `json:"id"`
	Score     float32        `json:"score"`
	Namespace string         `json:"namespace,omitempty"`
	Values    []float32      `json:"values,omitempty"`
	Sparse    *SparseValues  `json:"sparse,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Usage reports the cost the server attributed to a call.
type Usage struct {
	ReadUnits uint64 `json:"readUnits"`
}

// Add returns the component-wise sum.
func (u Usage) Add(o Usage) Usage {
	return Usage{ReadUnits: u.ReadUnits + o.ReadUnits}
}

// QueryResult is a single namespace's answer, best match first.
type QueryResult struct {
	Matches []Match `json:"matches"`
	Usage   Usage   `json:"usage"`
}

// Record is a vector to write.
type Record struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values,omitempty"`
	Sparse   *SparseValues  `json:"sparse,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
