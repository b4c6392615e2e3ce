package fanout

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/Aleph-Alpha/vdbclient/v1/retry"
	"github.com/Aleph-Alpha/vdbclient/v1/vectordb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func match(id string, score float32) vectordb.Match {
	return vectordb.Match{ID: id, Score: score}
}

func TestMerge_PartialFailure(t *testing.T) {
	outcomes := []Outcome{
		{Index: 0, Namespace: "ns1", Matches: []vectordb.Match{match("a", 0.9), match("b", 0.5)}, Usage: vectordb.Usage{ReadUnits: 3}},
		{Index: 1, Namespace: "ns2", Matches: []vectordb.Match{match("c", 0.8)}, Usage: vectordb.Usage{ReadUnits: 2}},
		{Index: 2, Namespace: "ns3", Err: retry.ErrUnavailable},
	}

	res, err := Merge(outcomes, 2, vectordb.HigherIsBetter)
	require.NoError(t, err)

	require.Len(t, res.Matches, 2)
	assert.Equal(t, "a", res.Matches[0].ID)
	assert.Equal(t, "ns1", res.Matches[0].Namespace)
	assert.Equal(t, "c", res.Matches[1].ID)
	assert.Equal(t, "ns2", res.Matches[1].Namespace)
	assert.Equal(t, uint64(5), res.Usage.ReadUnits)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "ns3", res.Failures[0].Namespace)
	assert.ErrorIs(t, res.Failures[0], retry.ErrUnavailable)
	assert.True(t, res.Partial())
	assert.ErrorIs(t, res.Err(), retry.ErrUnavailable)
}

func TestMerge_LowerIsBetter(t *testing.T) {
	outcomes := []Outcome{
		{Index: 0, Namespace: "x", Matches: []vectordb.Match{match("a", 0.1), match("b", 2.5)}},
		{Index: 1, Namespace: "y", Matches: []vectordb.Match{match("c", 0.4), match("d", 1.0)}},
	}

	res, err := Merge(outcomes, 3, vectordb.LowerIsBetter)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "d"}, ids(res.Matches))
}

func TestMerge_TieBreaks(t *testing.T) {
	outcomes := []Outcome{
		{Index: 0, Namespace: "first", Matches: []vectordb.Match{match("z", 0.5), match("y", 0.5)}},
		{Index: 1, Namespace: "second", Matches: []vectordb.Match{match("a", 0.5)}},
	}

	res, err := Merge(outcomes, 10, vectordb.HigherIsBetter)
	require.NoError(t, err)
	// Equal scores: earlier namespace first, then ID within a namespace.
	assert.Equal(t, []string{"y", "z", "a"}, ids(res.Matches))
	assert.Equal(t, "second", res.Matches[2].Namespace)
}

func TestMerge_IgnoresOutcomeOrder(t *testing.T) {
	outcomes := randomOutcomes(rand.New(rand.NewPCG(1, 2)), 6, 8)
	want, err := Merge(outcomes, 15, vectordb.HigherIsBetter)
	require.NoError(t, err)

	r := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 20; i++ {
		shuffled := slices.Clone(outcomes)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got, err := Merge(shuffled, 15, vectordb.HigherIsBetter)
		require.NoError(t, err)
		assert.Equal(t, want.Matches, got.Matches)
		assert.Equal(t, want.Usage, got.Usage)
	}
}

func TestMerge_MatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 7))
	for _, direction := range []vectordb.Direction{vectordb.HigherIsBetter, vectordb.LowerIsBetter} {
		for round := 0; round < 50; round++ {
			outcomes := randomOutcomes(r, 1+r.IntN(6), 10)
			topK := 1 + r.IntN(25)

			got, err := Merge(outcomes, topK, direction)
			if allFailed(outcomes) {
				require.Error(t, err)
				continue
			}
			require.NoError(t, err)
			assert.Equal(t, bruteForce(outcomes, topK, direction), got.Matches, "direction %s round %d", direction, round)
		}
	}
}

func TestMerge_UnsortedInput(t *testing.T) {
	outcomes := []Outcome{
		{Index: 0, Namespace: "n", Matches: []vectordb.Match{match("low", 0.1), match("high", 0.9), match("mid", 0.5)}},
	}

	res, err := Merge(outcomes, 2, vectordb.HigherIsBetter)
	require.NoError(t, err)
	assert.Equal(t, []string{"high", "mid"}, ids(res.Matches))
	// The caller's slice is untouched.
	assert.Equal(t, "low", outcomes[0].Matches[0].ID)
	assert.Empty(t, outcomes[0].Matches[0].Namespace)
}

func TestMerge_NaNRanksLast(t *testing.T) {
	nan := float32(math.NaN())
	outcomes := []Outcome{
		{Index: 0, Namespace: "n", Matches: []vectordb.Match{match("bad", nan), match("ok", 0.2)}},
	}

	res, err := Merge(outcomes, 2, vectordb.HigherIsBetter)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok", "bad"}, ids(res.Matches))
}

func TestMerge_AllFailed(t *testing.T) {
	boom := errors.New("boom")
	outcomes := []Outcome{
		{Index: 1, Namespace: "b", Err: retry.ErrUnavailable},
		{Index: 0, Namespace: "a", Err: boom},
	}

	res, err := Merge(outcomes, 5, vectordb.HigherIsBetter)
	assert.Nil(t, res)

	var nsErr *NamespaceError
	require.ErrorAs(t, err, &nsErr)
	assert.Equal(t, "a", nsErr.Namespace)
	assert.ErrorIs(t, err, boom)
}

func TestMerge_ZeroTopK(t *testing.T) {
	outcomes := []Outcome{
		{Index: 0, Namespace: "n", Matches: []vectordb.Match{match("a", 1)}, Usage: vectordb.Usage{ReadUnits: 1}},
	}

	res, err := Merge(outcomes, 0, vectordb.HigherIsBetter)
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.NotNil(t, res.Matches)
	assert.Equal(t, uint64(1), res.Usage.ReadUnits)
}

func TestMerge_EmptyNamespaces(t *testing.T) {
	outcomes := []Outcome{
		{Index: 0, Namespace: "a"},
		{Index: 1, Namespace: "b"},
	}

	res, err := Merge(outcomes, 3, vectordb.HigherIsBetter)
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.False(t, res.Partial())
	assert.NoError(t, res.Err())
}

func TestNamespaceError_MarshalJSON(t *testing.T) {
	b, err := (&NamespaceError{Namespace: "n", Index: 2, Err: errors.New("down")}).MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"namespace":"n","index":2,"error":"down"}`, string(b))
}

func ids(ms []vectordb.Match) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}

func allFailed(outcomes []Outcome) bool {
	for _, o := range outcomes {
		if o.Err == nil {
			return false
		}
	}
	return true
}

// randomOutcomes builds n outcomes with up to maxLen matches each. Scores
// come from a small set so that ties are common.
func randomOutcomes(r *rand.Rand, n, maxLen int) []Outcome {
	outcomes := make([]Outcome, n)
	for i := range outcomes {
		o := Outcome{Index: i, Namespace: fmt.Sprintf("ns%d", i%3)}
		if r.IntN(5) == 0 {
			o.Err = retry.ErrUnavailable
		} else {
			for j := r.IntN(maxLen + 1); j > 0; j-- {
				o.Matches = append(o.Matches, vectordb.Match{
					ID:    fmt.Sprintf("id%d", r.IntN(20)),
					Score: float32(r.IntN(10)) / 10,
				})
			}
			o.Usage = vectordb.Usage{ReadUnits: uint64(r.IntN(4))}
		}
		outcomes[i] = o
	}
	return outcomes
}

func bruteForce(outcomes []Outcome, topK int, direction vectordb.Direction) []vectordb.Match {
	type ranked struct {
		m    vectordb.Match
		rank int
	}
	var all []ranked
	for _, o := range outcomes {
		if o.Err != nil {
			continue
		}
		for _, m := range o.Matches {
			m.Namespace = o.Namespace
			all = append(all, ranked{m: m, rank: o.Index})
		}
	}
	slices.SortStableFunc(all, func(a, b ranked) int {
		if c := direction.Compare(a.m.Score, b.m.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(a.rank, b.rank); c != 0 {
			return c
		}
		return cmp.Compare(a.m.ID, b.m.ID)
	})
	out := []vectordb.Match{}
	for i := 0; i < len(all) && i < topK; i++ {
		out = append(out, all[i].m)
	}
	return out
}
