package vectordb

import (
	"encoding/json"
	"fmt"
	"time"
)

// ConditionSet encodes as a plain JSON array of conditions.
func (cs *ConditionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(cs.Conditions)
}

// UnmarshalJSON picks the concrete condition type of each element from its
// keys; see parseCondition.
func (cs *ConditionSet) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	cs.Conditions = make([]FilterCondition, 0, len(raw))
	for i, r := range raw {
		cond, err := parseCondition(r)
		if err != nil {
			return fmt.Errorf("condition %d: %w", i, err)
		}
		cs.Conditions = append(cs.Conditions, cond)
	}
	return nil
}

// ParseFilter decodes and validates the JSON form of a FilterSet.
func ParseFilter(data []byte) (*FilterSet, error) {
	var fs FilterSet
	if err := json.Unmarshal(data, &fs); err != nil {
		return nil, InvalidArgumentf("decode filter: %v", err)
	}
	if err := fs.Validate(); err != nil {
		return nil, err
	}
	return &fs, nil
}

// Key → condition type:
//
//	equalTo            MatchCondition
//	anyOf              MatchAnyCondition
//	noneOf             MatchExceptCondition
//	greaterThan...     NumericRangeCondition
//	after, before...   TimeRangeCondition
//	isNull             IsNullCondition
//	isEmpty            IsEmptyCondition
//	filter             NestedCondition
func parseCondition(data []byte) (FilterCondition, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, err
	}

	var cond FilterCondition
	switch {
	case has(keys, "equalTo"):
		cond = &MatchCondition{}
	case has(keys, "anyOf"):
		cond = &MatchAnyCondition{}
	case has(keys, "noneOf"):
		cond = &MatchExceptCondition{}
	case has(keys, "greaterThan", "greaterThanOrEqualTo", "lessThan", "lessThanOrEqualTo"):
		cond = &NumericRangeCondition{}
	case has(keys, "after", "atOrAfter", "before", "atOrBefore"):
		cond = &TimeRangeCondition{}
	case has(keys, "isNull"):
		cond = &IsNullCondition{}
	case has(keys, "isEmpty"):
		cond = &IsEmptyCondition{}
	case has(keys, "filter"):
		cond = &NestedCondition{}
	default:
		return nil, fmt.Errorf("unknown filter condition: %s", string(data))
	}
	if err := json.Unmarshal(data, cond); err != nil {
		return nil, err
	}
	return cond, nil
}

func has(m map[string]json.RawMessage, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

type numericRangeJSON struct {
	Field                string   `json:"field"`
	GreaterThan          *float64 `json:"greaterThan,omitempty"`
	GreaterThanOrEqualTo *float64 `json:"greaterThanOrEqualTo,omitempty"`
	LessThan             *float64 `json:"lessThan,omitempty"`
	LessThanOrEqualTo    *float64 `json:"lessThanOrEqualTo,omitempty"`
}

func (c *NumericRangeCondition) MarshalJSON() ([]byte, error) {
	return json.Marshal(numericRangeJSON{
		Field:                c.Field,
		GreaterThan:          c.Range.Gt,
		GreaterThanOrEqualTo: c.Range.Gte,
		LessThan:             c.Range.Lt,
		LessThanOrEqualTo:    c.Range.Lte,
	})
}

func (c *NumericRangeCondition) UnmarshalJSON(data []byte) error {
	var j numericRangeJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	c.Field = j.Field
	c.Range = NumericRange{Gt: j.GreaterThan, Gte: j.GreaterThanOrEqualTo, Lt: j.LessThan, Lte: j.LessThanOrEqualTo}
	return nil
}

type timeRangeJSON struct {
	Field      string     `json:"field"`
	After      *time.Time `json:"after,omitempty"`
	AtOrAfter  *time.Time `json:"atOrAfter,omitempty"`
	Before     *time.Time `json:"before,omitempty"`
	AtOrBefore *time.Time `json:"atOrBefore,omitempty"`
}

func (c *TimeRangeCondition) MarshalJSON() ([]byte, error) {
	return json.Marshal(timeRangeJSON{
		Field:      c.Field,
		After:      c.Range.Gt,
		AtOrAfter:  c.Range.Gte,
		Before:     c.Range.Lt,
		AtOrBefore: c.Range.Lte,
	})
}

func (c *TimeRangeCondition) UnmarshalJSON(data []byte) error {
	var j timeRangeJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	c.Field = j.Field
	c.Range = TimeRange{Gt: j.After, Gte: j.AtOrAfter, Lt: j.Before, Lte: j.AtOrBefore}
	return nil
}
