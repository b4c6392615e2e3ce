package fanout

import (
	"cmp"
	"container/heap"
	"slices"
	"strings"

	"github.com/Aleph-Alpha/vdbclient/v1/vectordb"
)

// Merge combines per-namespace outcomes into one ranked list of at most
// topK matches.
//
// Matches are ordered by score in direction, then by the namespace's input
// position, then by match ID, so the result is fully determined by the
// outcomes regardless of the order they are passed in. Lists that a backend
// returned out of order are sorted before merging.
//
// Failed namespaces are listed in MergedResult.Failures. If every namespace
// failed, Merge returns the *NamespaceError of the first one in input order
// and no result.
func Merge(outcomes []Outcome, topK int, direction vectordb.Direction) (*MergedResult, error) {
	ordered := slices.Clone(outcomes)
	slices.SortStableFunc(ordered, func(a, b Outcome) int { return cmp.Compare(a.Index, b.Index) })

	res := &MergedResult{Matches: []vectordb.Match{}}
	h := &mergeHeap{direction: direction}
	for rank, o := range ordered {
		if o.Err != nil {
			res.Failures = append(res.Failures, &NamespaceError{Namespace: o.Namespace, Index: o.Index, Err: o.Err})
			continue
		}
		res.Usage = res.Usage.Add(o.Usage)
		if list := normalize(o, direction); len(list) > 0 {
			h.cursors = append(h.cursors, &cursor{list: list, rank: rank})
		}
	}

	if len(ordered) > 0 && len(res.Failures) == len(ordered) {
		return nil, res.Failures[0]
	}
	if topK <= 0 {
		return res, nil
	}

	heap.Init(h)
	for h.Len() > 0 && len(res.Matches) < topK {
		c := h.cursors[0]
		res.Matches = append(res.Matches, c.list[c.pos])
		c.pos++
		if c.pos == len(c.list) {
			heap.Pop(h)
		} else {
			heap.Fix(h, 0)
		}
	}
	return res, nil
}

// normalize copies the namespace's matches, tags them with the namespace and
// makes sure they are sorted best first with ID as the tie-break.
func normalize(o Outcome, direction vectordb.Direction) []vectordb.Match {
	if len(o.Matches) == 0 {
		return nil
	}
	list := make([]vectordb.Match, len(o.Matches))
	for i, m := range o.Matches {
		m.Namespace = o.Namespace
		list[i] = m
	}
	byRank := func(a, b vectordb.Match) int {
		if c := direction.Compare(a.Score, b.Score); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	}
	if !slices.IsSortedFunc(list, byRank) {
		slices.SortStableFunc(list, byRank)
	}
	return list
}

type cursor struct {
	list []vectordb.Match
	pos  int
	rank int
}

func (c *cursor) head() vectordb.Match {
	return c.list[c.pos]
}

// mergeHeap keeps the best current head of each namespace list on top.
type mergeHeap struct {
	cursors   []*cursor
	direction vectordb.Direction
}

func (h *mergeHeap) Len() int { return len(h.cursors) }

func (h *mergeHeap) Less(i, j int) bool {
	a, b := h.cursors[i], h.cursors[j]
	if c := h.direction.Compare(a.head().Score, b.head().Score); c != 0 {
		return c < 0
	}
	if a.rank != b.rank {
		return a.rank < b.rank
	}
	return a.head().ID < b.head().ID
}

func (h *mergeHeap) Swap(i, j int) { h.cursors[i], h.cursors[j] = h.cursors[j], h.cursors[i] }

func (h *mergeHeap) Push(x any) { h.cursors = append(h.cursors, x.(*cursor)) }

func (h *mergeHeap) Pop() any {
	old := h.cursors
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	h.cursors = old[:n-1]
	return c
}
