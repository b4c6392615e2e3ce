package vectordb

import (
	"fmt"
	"time"
)

// FilterCondition is implemented by every condition type. Transports type
// switch on the concrete type.
type FilterCondition interface {
	IsFilterCondition()
}

// FilterSet is a metadata filter tree. All present clauses must hold.
type FilterSet struct {
	Must    *ConditionSet `json:"must,omitempty"`    // AND
	Should  *ConditionSet `json:"should,omitempty"`  // OR
	MustNot *ConditionSet `json:"mustNot,omitempty"` // NOT
}

// ConditionSet is the list of conditions of one clause.
type ConditionSet struct {
	Conditions []FilterCondition `json:"conditions,omitempty"`
}

// IsEmpty reports whether the set carries no conditions at all.
func (f *FilterSet) IsEmpty() bool {
	return f == nil || (f.Must.len() == 0 && f.Should.len() == 0 && f.MustNot.len() == 0)
}

func (cs *ConditionSet) len() int {
	if cs == nil {
		return 0
	}
	return len(cs.Conditions)
}

// Validate walks the tree and reports the first malformed condition: empty
// field names, empty or mixed-type value lists, unbounded ranges, nil
// sub-filters.
func (f *FilterSet) Validate() error {
	if f == nil {
		return nil
	}
	for _, clause := range []struct {
		name string
		set  *ConditionSet
	}{{"must", f.Must}, {"should", f.Should}, {"mustNot", f.MustNot}} {
		if clause.set == nil {
			continue
		}
		for i, c := range clause.set.Conditions {
			if err := validateCondition(c); err != nil {
				return fmt.Errorf("filter %s[%d]: %w", clause.name, i, err)
			}
		}
	}
	return nil
}

func validateCondition(c FilterCondition) error {
	switch cond := c.(type) {
	case *MatchCondition:
		if cond.Field == "" {
			return InvalidArgumentf("match condition without field")
		}
		if kindOf(cond.Value) == "" {
			return InvalidArgumentf("field %q: unsupported match value type %T", cond.Field, cond.Value)
		}
	case *MatchAnyCondition:
		return validateValueList(cond.Field, cond.Values)
	case *MatchExceptCondition:
		return validateValueList(cond.Field, cond.Values)
	case *NumericRangeCondition:
		if cond.Field == "" {
			return InvalidArgumentf("range condition without field")
		}
		r := cond.Range
		if r.Gt == nil && r.Gte == nil && r.Lt == nil && r.Lte == nil {
			return InvalidArgumentf("field %q: range has no bounds", cond.Field)
		}
	case *TimeRangeCondition:
		if cond.Field == "" {
			return InvalidArgumentf("time range condition without field")
		}
		r := cond.Range
		if r.Gt == nil && r.Gte == nil && r.Lt == nil && r.Lte == nil {
			return InvalidArgumentf("field %q: time range has no bounds", cond.Field)
		}
	case *IsNullCondition:
		if cond.Field == "" {
			return InvalidArgumentf("isNull condition without field")
		}
	case *IsEmptyCondition:
		if cond.Field == "" {
			return InvalidArgumentf("isEmpty condition without field")
		}
	case *NestedCondition:
		if cond.Filter == nil {
			return InvalidArgumentf("nested condition without filter")
		}
		return cond.Filter.Validate()
	case nil:
		return InvalidArgumentf("nil condition")
	default:
		return InvalidArgumentf("unsupported condition type %T", c)
	}
	return nil
}

// validateValueList rejects empty and mixed-type lists; backends cannot
// index a field as both keyword and integer.
func validateValueList(field string, values []any) error {
	if field == "" {
		return InvalidArgumentf("set condition without field")
	}
	if len(values) == 0 {
		return InvalidArgumentf("field %q: empty value list", field)
	}
	want := kindOf(values[0])
	for i, v := range values {
		got := kindOf(v)
		if got == "" {
			return InvalidArgumentf("field %q: unsupported value type %T at index %d", field, v, i)
		}
		if got != want {
			return InvalidArgumentf("field %q: mixed value types %s and %s", field, want, got)
		}
	}
	return nil
}

func kindOf(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case int, int32, int64, uint32, uint64, float32, float64:
		return "numeric"
	case bool:
		return "boolean"
	}
	return ""
}

// ── Match Conditions ─────────────────────────────────────────────────────────

// MatchCondition: field = value. Value is a string, bool or number.
type MatchCondition struct {
	Field string `json:"field"`
	Value any    `json:"equalTo"`
}

func (c *MatchCondition) IsFilterCondition() {}

// MatchAnyCondition: field IN (values).
type MatchAnyCondition struct {
	Field  string `json:"field"`
	Values []any  `json:"anyOf"`
}

func (c *MatchAnyCondition) IsFilterCondition() {}

// MatchExceptCondition: field NOT IN (values).
type MatchExceptCondition struct {
	Field  string `json:"field"`
	Values []any  `json:"noneOf"`
}

func (c *MatchExceptCondition) IsFilterCondition() {}

// ── Range Conditions ─────────────────────────────────────────────────────────

// NumericRange bounds; nil means unbounded on that side.
type NumericRange struct {
	Gt  *float64
	Gte *float64
	Lt  *float64
	Lte *float64
}

// TimeRange bounds; nil means unbounded on that side.
type TimeRange struct {
	Gt  *time.Time
	Gte *time.Time
	Lt  *time.Time
	Lte *time.Time
}

// NumericRangeCondition restricts a numeric field to a range.
type NumericRangeCondition struct {
	Field string
	Range NumericRange
}

func (c *NumericRangeCondition) IsFilterCondition() {}

// TimeRangeCondition restricts a datetime field to a range.
type TimeRangeCondition struct {
	Field string
	Range TimeRange
}

func (c *TimeRangeCondition) IsFilterCondition() {}

// ── Presence Conditions ──────────────────────────────────────────────────────

// IsNullCondition matches records whose field is explicitly null.
type IsNullCondition struct {
	Field string `json:"isNull"`
}

func (c *IsNullCondition) IsFilterCondition() {}

// IsEmptyCondition matches records whose field is missing, null or [].
type IsEmptyCondition struct {
	Field string `json:"isEmpty"`
}

func (c *IsEmptyCondition) IsFilterCondition() {}

// ── Composition ──────────────────────────────────────────────────────────────

// NestedCondition embeds a sub-tree, e.g. an OR group inside a Must clause.
type NestedCondition struct {
	Filter *FilterSet `json:"filter"`
}

func (c *NestedCondition) IsFilterCondition() {}
