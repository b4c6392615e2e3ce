package paginate

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listing serves ids 0..n-1 with cursors that encode the next offset.
type listing struct {
	n        int
	calls    int
	failAt   string
	failures int
	sizes    []int
}

func (l *listing) fetch(ctx context.Context, cursor string, pageSize int) (Page[int], error) {
	l.calls++
	l.sizes = append(l.sizes, pageSize)
	if cursor == l.failAt && l.failures > 0 {
		l.failures--
		return Page[int]{}, errors.New("server unavailable")
	}
	if pageSize == 0 {
		pageSize = 3
	}
	start := 0
	if cursor != "" {
		var err error
		if start, err = strconv.Atoi(cursor); err != nil {
			return Page[int]{}, err
		}
	}
	end := min(start+pageSize, l.n)
	items := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		items = append(items, i)
	}
	next := ""
	if end < l.n {
		next = strconv.Itoa(end)
	}
	return Page[int]{Items: items, Next: next}, nil
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestWalker_VisitsEveryItemOnce(t *testing.T) {
	l := &listing{n: 10}
	got, err := All(context.Background(), l.fetch, WithPageSize(4))
	require.NoError(t, err)

	assert.Equal(t, seq(10), got)
	assert.Equal(t, 3, l.calls)
	assert.Equal(t, []int{4, 4, 4}, l.sizes)
}

func TestWalker_NextPage(t *testing.T) {
	l := &listing{n: 5}
	w := New(l.fetch)

	require.True(t, w.HasNext())
	page, err := w.NextPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, page)
	assert.Equal(t, "3", w.Cursor())

	page, err = w.NextPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, page)
	assert.False(t, w.HasNext())
	assert.Empty(t, w.Cursor())

	page, err = w.NextPage(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, page)
	assert.Equal(t, 2, l.calls, "no fetch after the last page")
}

func TestWalker_EmptyListing(t *testing.T) {
	l := &listing{n: 0}
	got, err := All(context.Background(), l.fetch)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, l.calls)
}

func TestWalker_IsLazy(t *testing.T) {
	l := &listing{n: 100}
	w := New(l.fetch, WithPageSize(10))

	count := 0
	for range w.Items(context.Background()) {
		count++
		if count == 15 {
			break
		}
	}
	assert.Equal(t, 2, l.calls)
	assert.Equal(t, "20", w.Cursor())
}

func TestWalker_FailureHaltsAndResumes(t *testing.T) {
	l := &listing{n: 9, failAt: "6", failures: 1}
	w := New(l.fetch)

	var got []int
	var iterErr error
	for items, err := range w.Pages(context.Background()) {
		if err != nil {
			iterErr = err
			continue
		}
		got = append(got, items...)
	}

	require.Error(t, iterErr)
	assert.Equal(t, seq(6), got)
	assert.Equal(t, "6", w.Cursor(), "cursor stays at the failed page")
	assert.True(t, w.HasNext())

	// A fresh walker started from the stored cursor finishes the listing.
	rest, err := All(context.Background(), l.fetch, WithCursor(w.Cursor()))
	require.NoError(t, err)
	assert.Equal(t, []int{6, 7, 8}, rest)
}

func TestWalker_StalledCursor(t *testing.T) {
	fetch := func(ctx context.Context, cursor string, pageSize int) (Page[string], error) {
		return Page[string]{Items: []string{"a"}, Next: "same"}, nil
	}
	w := New(fetch)

	_, err := w.NextPage(context.Background())
	require.NoError(t, err)
	_, err = w.NextPage(context.Background())
	assert.ErrorIs(t, err, ErrStalledCursor)
}
