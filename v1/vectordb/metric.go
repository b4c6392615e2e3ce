package vectordb

import (
	"cmp"
	"math"
	"strings"
)

// Metric is the similarity function an index was built with.
type Metric string

const (
	MetricCosine     Metric = "cosine"
	MetricDotProduct Metric = "dotproduct"
	MetricEuclidean  Metric = "euclidean"
)

// Direction tells whether larger or smaller scores rank first.
type Direction int

const (
	HigherIsBetter Direction = iota
	LowerIsBetter
)

func (d Direction) String() string {
	if d == LowerIsBetter {
		return "ascending"
	}
	return "descending"
}

// ParseMetric accepts the canonical names plus the spellings used by the
// Qdrant and Pinecone APIs ("Cosine", "Dot", "Euclid", "dot_product", ...).
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cosine":
		return MetricCosine, nil
	case "dotproduct", "dot_product", "dot":
		return MetricDotProduct, nil
	case "euclidean", "euclid", "l2":
		return MetricEuclidean, nil
	}
	return "", InvalidArgumentf("unknown metric %q", s)
}

// Direction returns the ranking direction of m.
func (m Metric) Direction() (Direction, error) {
	switch m {
	case MetricCosine, MetricDotProduct:
		return HigherIsBetter, nil
	case MetricEuclidean:
		return LowerIsBetter, nil
	case "":
		return 0, InvalidArgumentf("metric is required")
	}
	return 0, InvalidArgumentf("unknown metric %q", string(m))
}

// Compare orders two scores best-first: it returns a negative number when a
// ranks ahead of b. NaN ranks behind every number so that a malformed score
// cannot displace real matches.
func (d Direction) Compare(a, b float32) int {
	aNaN, bNaN := math.IsNaN(float64(a)), math.IsNaN(float64(b))
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	}
	if d == LowerIsBetter {
		return cmp.Compare(a, b)
	}
	return cmp.Compare(b, a)
}
