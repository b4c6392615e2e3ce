package qdrant

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Aleph-Alpha/vdbclient/v1/retry"
	"github.com/Aleph-Alpha/vdbclient/v1/vectordb"
	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// ── Filter Conversion ────────────────────────────────────────────────────────

// convertFilterSet converts a vectordb.FilterSet to a Qdrant filter. Empty
// sets convert to nil.
func convertFilterSet(fs *vectordb.FilterSet) (*qdrant.Filter, error) {
	if fs.IsEmpty() {
		return nil, nil
	}

	filter := &qdrant.Filter{}
	var err error
	if filter.Must, err = convertConditionSet(fs.Must); err != nil {
		return nil, err
	}
	if filter.Should, err = convertConditionSet(fs.Should); err != nil {
		return nil, err
	}
	if filter.MustNot, err = convertConditionSet(fs.MustNot); err != nil {
		return nil, err
	}
	return filter, nil
}

func convertConditionSet(cs *vectordb.ConditionSet) ([]*qdrant.Condition, error) {
	if cs == nil {
		return nil, nil
	}
	conditions := make([]*qdrant.Condition, 0, len(cs.Conditions))
	for _, c := range cs.Conditions {
		cond, err := convertCondition(c)
		if err != nil {
			return nil, err
		}
		if cond != nil {
			conditions = append(conditions, cond)
		}
	}
	return conditions, nil
}

func convertCondition(c vectordb.FilterCondition) (*qdrant.Condition, error) {
	switch cond := c.(type) {
	case *vectordb.MatchCondition:
		return convertMatch(cond.Field, cond.Value)
	case *vectordb.MatchAnyCondition:
		return convertMatchList(cond.Field, cond.Values, qdrant.NewMatchKeywords, qdrant.NewMatchInts)
	case *vectordb.MatchExceptCondition:
		return convertMatchList(cond.Field, cond.Values, qdrant.NewMatchExceptKeywords, qdrant.NewMatchExceptInts)
	case *vectordb.NumericRangeCondition:
		return qdrant.NewRange(cond.Field, &qdrant.Range{
			Gt:  cond.Range.Gt,
			Gte: cond.Range.Gte,
			Lt:  cond.Range.Lt,
			Lte: cond.Range.Lte,
		}), nil
	case *vectordb.TimeRangeCondition:
		return qdrant.NewDatetimeRange(cond.Field, &qdrant.DatetimeRange{
			Gt:  toTimestamp(cond.Range.Gt),
			Gte: toTimestamp(cond.Range.Gte),
			Lt:  toTimestamp(cond.Range.Lt),
			Lte: toTimestamp(cond.Range.Lte),
		}), nil
	case *vectordb.IsNullCondition:
		return qdrant.NewIsNull(cond.Field), nil
	case *vectordb.IsEmptyCondition:
		return qdrant.NewIsEmpty(cond.Field), nil
	case *vectordb.NestedCondition:
		nested, err := convertFilterSet(cond.Filter)
		if err != nil || nested == nil {
			return nil, err
		}
		return qdrant.NewFilterAsCondition(nested), nil
	}
	return nil, vectordb.InvalidArgumentf("qdrant: unsupported filter condition %T", c)
}

func convertMatch(field string, value any) (*qdrant.Condition, error) {
	switch v := value.(type) {
	case string:
		return qdrant.NewMatch(field, v), nil
	case bool:
		return qdrant.NewMatchBool(field, v), nil
	}
	if n, ok := toInt64(value); ok {
		return qdrant.NewMatchInt(field, n), nil
	}
	return nil, vectordb.InvalidArgumentf("qdrant: field %q: cannot match on %T", field, value)
}

func convertMatchList(
	field string,
	values []any,
	keywords func(string, ...string) *qdrant.Condition,
	ints func(string, ...int64) *qdrant.Condition,
) (*qdrant.Condition, error) {
	if len(values) == 0 {
		return nil, vectordb.InvalidArgumentf("qdrant: field %q: empty value list", field)
	}
	if _, isString := values[0].(string); isString {
		strs := make([]string, len(values))
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				return nil, vectordb.InvalidArgumentf("qdrant: field %q: mixed value types", field)
			}
			strs[i] = s
		}
		return keywords(field, strs...), nil
	}
	nums := make([]int64, len(values))
	for i, v := range values {
		n, ok := toInt64(v)
		if !ok {
			return nil, vectordb.InvalidArgumentf("qdrant: field %q: only keywords and integers can be listed, got %T", field, v)
		}
		nums[i] = n
	}
	return ints(field, nums...), nil
}

// toInt64 accepts integers and integral floats, which is what JSON decoding
// produces for numbers.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}

func toTimestamp(t *time.Time) *timestamppb.Timestamp {
	if t == nil {
		return nil
	}
	return timestamppb.New(*t)
}

// ── Point IDs and cursors ────────────────────────────────────────────────────

// pointID maps a record ID to a Qdrant point ID: unsigned integers stay
// numeric, anything else is sent as a UUID.
func pointID(id string) *qdrant.PointId {
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		return qdrant.NewIDNum(n)
	}
	return qdrant.NewIDUUID(id)
}

func formatPointID(id *qdrant.PointId) (string, error) {
	switch v := id.GetPointIdOptions().(type) {
	case *qdrant.PointId_Num:
		return strconv.FormatUint(v.Num, 10), nil
	case *qdrant.PointId_Uuid:
		return v.Uuid, nil
	}
	return "", fmt.Errorf("[Qdrant] unexpected point id %v", id)
}

// Scroll offsets are point IDs; the cursor keeps the ID kind so that a
// numeric UUID-looking string cannot be misread.
func encodeCursor(id *qdrant.PointId) string {
	switch v := id.GetPointIdOptions().(type) {
	case *qdrant.PointId_Num:
		return "n:" + strconv.FormatUint(v.Num, 10)
	case *qdrant.PointId_Uuid:
		return "u:" + v.Uuid
	}
	return ""
}

func decodeCursor(cursor string) (*qdrant.PointId, error) {
	if cursor == "" {
		return nil, nil
	}
	kind, value, ok := strings.Cut(cursor, ":")
	if ok && value != "" {
		switch kind {
		case "n":
			if n, err := strconv.ParseUint(value, 10, 64); err == nil {
				return qdrant.NewIDNum(n), nil
			}
		case "u":
			return qdrant.NewIDUUID(value), nil
		}
	}
	return nil, vectordb.InvalidArgumentf("qdrant: malformed cursor %q", cursor)
}

// ── Results ──────────────────────────────────────────────────────────────────

func (c *QdrantClient) toMatch(p *qdrant.ScoredPoint) (vectordb.Match, error) {
	id, err := formatPointID(p.GetId())
	if err != nil {
		return vectordb.Match{}, err
	}
	m := vectordb.Match{
		ID:       id,
		Score:    p.GetScore(),
		Metadata: c.userPayload(p.GetPayload()),
	}
	m.Values, m.Sparse = c.extractVectors(p.GetVectors())
	return m, nil
}

func (c *QdrantClient) toRecord(p *qdrant.RetrievedPoint) (vectordb.Record, error) {
	id, err := formatPointID(p.GetId())
	if err != nil {
		return vectordb.Record{}, err
	}
	r := vectordb.Record{ID: id, Metadata: c.userPayload(p.GetPayload())}
	r.Values, r.Sparse = c.extractVectors(p.GetVectors())
	return r, nil
}

// userPayload converts the payload and hides the namespace field.
func (c *QdrantClient) userPayload(payload map[string]*qdrant.Value) map[string]any {
	if len(payload) == 0 {
		return nil
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if c.cfg.NamespaceField != "" && k == c.cfg.NamespaceField {
			continue
		}
		out[k] = fromValue(v)
	}
	return out
}

func (c *QdrantClient) extractVectors(v *qdrant.VectorsOutput) ([]float32, *vectordb.SparseValues) {
	if v == nil {
		return nil, nil
	}
	if single := v.GetVector(); single != nil {
		return denseData(single), nil
	}
	named := v.GetVectors().GetVectors()
	var dense []float32
	if vec, ok := named[c.cfg.VectorName]; ok {
		dense = denseData(vec)
	}
	var sparse *vectordb.SparseValues
	if c.cfg.SparseVectorName != "" {
		if s := named[c.cfg.SparseVectorName].GetSparse(); s != nil {
			sparse = &vectordb.SparseValues{Indices: s.GetIndices(), Values: s.GetValues()}
		}
	}
	return dense, sparse
}

func denseData(v *qdrant.VectorOutput) []float32 {
	if d := v.GetDense(); d != nil {
		return d.GetData()
	}
	//nolint:staticcheck // Older servers only fill the deprecated field.
	return v.GetData()
}

// fromValue recursively converts a Qdrant Value to a Go native type.
func fromValue(v *qdrant.Value) any {
	switch val := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_StructValue:
		fields := val.StructValue.GetFields()
		out := make(map[string]any, len(fields))
		for k, f := range fields {
			out[k] = fromValue(f)
		}
		return out
	case *qdrant.Value_ListValue:
		items := make([]any, len(val.ListValue.GetValues()))
		for i, item := range val.ListValue.GetValues() {
			items[i] = fromValue(item)
		}
		return items
	}
	return nil
}

// ── Errors ───────────────────────────────────────────────────────────────────

// mapError marks SDK throttling errors as retry.ErrResourceExhausted. The
// SDK turns ResourceExhausted replies carrying a retry-after hint into a
// plain error type that the retry classifier would otherwise treat as
// permanent.
func mapError(err error) error {
	var exhausted *qdrant.QdrantResourceExhaustedError
	if errors.As(err, &exhausted) {
		return fmt.Errorf("%w: %w", retry.ErrResourceExhausted, err)
	}
	return err
}
