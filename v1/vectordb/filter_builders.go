package vectordb

// NewFilterSet assembles a FilterSet from clause options.
//
//	vectordb.NewFilterSet(
//	    vectordb.Must(vectordb.NewMatch("lang", "en")),
//	    vectordb.Should(vectordb.NewMatch("tag", "ml"), vectordb.NewMatch("tag", "ai")),
//	)
func NewFilterSet(clauses ...func(*FilterSet)) *FilterSet {
	fs := &FilterSet{}
	for _, clause := range clauses {
		clause(fs)
	}
	return fs
}

// Must appends AND conditions.
func Must(conditions ...FilterCondition) func(*FilterSet) {
	return func(fs *FilterSet) { fs.Must = appendConditions(fs.Must, conditions) }
}

// Should appends OR conditions.
func Should(conditions ...FilterCondition) func(*FilterSet) {
	return func(fs *FilterSet) { fs.Should = appendConditions(fs.Should, conditions) }
}

// MustNot appends NOT conditions.
func MustNot(conditions ...FilterCondition) func(*FilterSet) {
	return func(fs *FilterSet) { fs.MustNot = appendConditions(fs.MustNot, conditions) }
}

func appendConditions(cs *ConditionSet, conditions []FilterCondition) *ConditionSet {
	if cs == nil {
		cs = &ConditionSet{}
	}
	cs.Conditions = append(cs.Conditions, conditions...)
	return cs
}

func NewMatch(field string, value any) *MatchCondition {
	return &MatchCondition{Field: field, Value: value}
}

func NewMatchAny(field string, values ...any) *MatchAnyCondition {
	return &MatchAnyCondition{Field: field, Values: values}
}

func NewMatchExcept(field string, values ...any) *MatchExceptCondition {
	return &MatchExceptCondition{Field: field, Values: values}
}

func NewNumericRange(field string, r NumericRange) *NumericRangeCondition {
	return &NumericRangeCondition{Field: field, Range: r}
}

func NewTimeRange(field string, r TimeRange) *TimeRangeCondition {
	return &TimeRangeCondition{Field: field, Range: r}
}

func NewIsNull(field string) *IsNullCondition {
	return &IsNullCondition{Field: field}
}

func NewIsEmpty(field string) *IsEmptyCondition {
	return &IsEmptyCondition{Field: field}
}

// NewNested wraps a sub-filter so it can sit inside another clause.
func NewNested(filter *FilterSet) *NestedCondition {
	return &NestedCondition{Filter: filter}
}

// And is shorthand for a nested Must group.
func And(conditions ...FilterCondition) *NestedCondition {
	return NewNested(NewFilterSet(Must(conditions...)))
}

// Or is shorthand for a nested Should group.
func Or(conditions ...FilterCondition) *NestedCondition {
	return NewNested(NewFilterSet(Should(conditions...)))
}
