package pinecone

import (
	"time"

	"github.com/Aleph-Alpha/vdbclient/v1/vectordb"
	"github.com/pinecone-io/go-pinecone/v4/pinecone"
	"google.golang.org/protobuf/types/known/structpb"
)

// ── Filter Conversion ────────────────────────────────────────────────────────

// convertFilterSet converts a vectordb.FilterSet to a Pinecone metadata
// filter. Empty sets convert to nil.
//
// Pinecone has no $not operator, so MustNot only accepts conditions with a
// direct negation. Datetime ranges compare Unix seconds, which is how
// timestamps have to be stored in Pinecone metadata.
func convertFilterSet(fs *vectordb.FilterSet) (*pinecone.MetadataFilter, error) {
	m, err := filterMap(fs)
	if err != nil || m == nil {
		return nil, err
	}
	filter, err := structpb.NewStruct(m)
	if err != nil {
		return nil, vectordb.InvalidArgumentf("pinecone: unsupported filter value: %v", err)
	}
	return filter, nil
}

func filterMap(fs *vectordb.FilterSet) (map[string]any, error) {
	if fs.IsEmpty() {
		return nil, nil
	}

	var parts []any
	if fs.Must != nil {
		for _, c := range fs.Must.Conditions {
			m, err := convertCondition(c)
			if err != nil {
				return nil, err
			}
			if m != nil {
				parts = append(parts, m)
			}
		}
	}
	if fs.Should != nil && len(fs.Should.Conditions) > 0 {
		var alternatives []any
		for _, c := range fs.Should.Conditions {
			m, err := convertCondition(c)
			if err != nil {
				return nil, err
			}
			if m != nil {
				alternatives = append(alternatives, m)
			}
		}
		if len(alternatives) > 0 {
			parts = append(parts, map[string]any{"$or": alternatives})
		}
	}
	if fs.MustNot != nil {
		for _, c := range fs.MustNot.Conditions {
			m, err := negateCondition(c)
			if err != nil {
				return nil, err
			}
			parts = append(parts, m)
		}
	}

	switch len(parts) {
	case 0:
		return nil, nil
	case 1:
		return parts[0].(map[string]any), nil
	}
	return map[string]any{"$and": parts}, nil
}

func convertCondition(c vectordb.FilterCondition) (map[string]any, error) {
	switch cond := c.(type) {
	case *vectordb.MatchCondition:
		return field(cond.Field, "$eq", cond.Value), nil
	case *vectordb.MatchAnyCondition:
		return field(cond.Field, "$in", cond.Values), nil
	case *vectordb.MatchExceptCondition:
		return field(cond.Field, "$nin", cond.Values), nil
	case *vectordb.NumericRangeCondition:
		return numericRange(cond.Field, cond.Range.Gt, cond.Range.Gte, cond.Range.Lt, cond.Range.Lte), nil
	case *vectordb.TimeRangeCondition:
		return numericRange(cond.Field,
			unixSeconds(cond.Range.Gt), unixSeconds(cond.Range.Gte),
			unixSeconds(cond.Range.Lt), unixSeconds(cond.Range.Lte)), nil
	case *vectordb.IsNullCondition:
		// Pinecone drops null metadata values, so null and missing coincide.
		return field(cond.Field, "$exists", false), nil
	case *vectordb.IsEmptyCondition:
		return field(cond.Field, "$exists", false), nil
	case *vectordb.NestedCondition:
		return filterMap(cond.Filter)
	}
	return nil, vectordb.InvalidArgumentf("pinecone: unsupported filter condition %T", c)
}

func negateCondition(c vectordb.FilterCondition) (map[string]any, error) {
	switch cond := c.(type) {
	case *vectordb.MatchCondition:
		return field(cond.Field, "$ne", cond.Value), nil
	case *vectordb.MatchAnyCondition:
		return field(cond.Field, "$nin", cond.Values), nil
	case *vectordb.MatchExceptCondition:
		return field(cond.Field, "$in", cond.Values), nil
	case *vectordb.IsNullCondition:
		return field(cond.Field, "$exists", true), nil
	case *vectordb.IsEmptyCondition:
		return field(cond.Field, "$exists", true), nil
	}
	return nil, vectordb.InvalidArgumentf("pinecone: condition %T cannot be negated", c)
}

func field(name, op string, value any) map[string]any {
	return map[string]any{name: map[string]any{op: value}}
}

func numericRange(name string, gt, gte, lt, lte *float64) map[string]any {
	ops := make(map[string]any, 2)
	for op, v := range map[string]*float64{"$gt": gt, "$gte": gte, "$lt": lt, "$lte": lte} {
		if v != nil {
			ops[op] = *v
		}
	}
	return map[string]any{name: ops}
}

func unixSeconds(t *time.Time) *float64 {
	if t == nil {
		return nil
	}
	s := float64(t.UnixNano()) / float64(time.Second)
	return &s
}

// ── Records ──────────────────────────────────────────────────────────────────

func toVector(r vectordb.Record) (*pinecone.Vector, error) {
	if r.ID == "" {
		return nil, vectordb.InvalidArgumentf("record id is required")
	}
	if len(r.Values) == 0 && r.Sparse == nil {
		return nil, vectordb.InvalidArgumentf("record has no vector")
	}
	v := &pinecone.Vector{Id: r.ID}
	if len(r.Values) > 0 {
		values := r.Values
		v.Values = &values
	}
	if r.Sparse != nil {
		if err := r.Sparse.Validate(); err != nil {
			return nil, err
		}
		v.SparseValues = toSparse(r.Sparse)
	}
	meta, err := toMetadata(r.Metadata)
	if err != nil {
		return nil, err
	}
	v.Metadata = meta
	return v, nil
}

func toMetadata(m map[string]any) (*pinecone.Metadata, error) {
	if len(m) == 0 {
		return nil, nil
	}
	meta, err := structpb.NewStruct(m)
	if err != nil {
		return nil, vectordb.InvalidArgumentf("unsupported metadata: %v", err)
	}
	return meta, nil
}

func toSparse(s *vectordb.SparseValues) *pinecone.SparseValues {
	if s == nil {
		return nil
	}
	return &pinecone.SparseValues{Indices: s.Indices, Values: s.Values}
}

func fromSparse(s *pinecone.SparseValues) *vectordb.SparseValues {
	if s == nil {
		return nil
	}
	return &vectordb.SparseValues{Indices: s.Indices, Values: s.Values}
}

func fromVector(v *pinecone.Vector) vectordb.Record {
	if v == nil {
		return vectordb.Record{}
	}
	r := vectordb.Record{ID: v.Id, Sparse: fromSparse(v.SparseValues)}
	if v.Values != nil {
		r.Values = *v.Values
	}
	if v.Metadata != nil {
		r.Metadata = v.Metadata.AsMap()
	}
	return r
}

func toMatch(sv *pinecone.ScoredVector) vectordb.Match {
	r := fromVector(sv.Vector)
	return vectordb.Match{
		ID:       r.ID,
		Score:    sv.Score,
		Values:   r.Values,
		Sparse:   r.Sparse,
		Metadata: r.Metadata,
	}
}
