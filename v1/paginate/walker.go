package paginate

import (
	"context"
	"errors"
	"fmt"
	"iter"
)

// ErrStalledCursor is returned when the server hands back the cursor it was
// just given, which would otherwise loop forever.
var ErrStalledCursor = errors.New("paginate: server returned the same cursor")

// Page is one batch of items. An empty Next marks the last page.
type Page[T any] struct {
	Items []T
	Next  string
}

// FetchFunc fetches the page starting at cursor. The empty cursor means the
// first page. pageSize 0 leaves the size to the server.
type FetchFunc[T any] func(ctx context.Context, cursor string, pageSize int) (Page[T], error)

type settings struct {
	pageSize int
	cursor   string
}

// Option configures a Walker.
type Option func(*settings)

// WithPageSize sets the requested page size.
func WithPageSize(n int) Option {
	return func(s *settings) { s.pageSize = n }
}

// WithCursor resumes a walk from a cursor previously read from Cursor.
func WithCursor(cursor string) Option {
	return func(s *settings) { s.cursor = cursor }
}

// Walker iterates a cursor-paginated listing one page at a time. Pages are
// fetched lazily and nothing is retained after a page is returned. A Walker
// is not safe for concurrent use.
type Walker[T any] struct {
	fetch    FetchFunc[T]
	pageSize int
	cursor   string
	done     bool
}

// New returns a Walker positioned at the first page, or at WithCursor's
// cursor.
//
// Parameters:
//   - fetch: returns the page at a cursor and the cursor of the next one
//   - opts: WithPageSize and WithCursor
//
// Example:
//
//	w := paginate.New(func(ctx context.Context, cursor string, size int) (paginate.Page[string], error) {
//	    return client.ListPage(ctx, "acme", cursor, size)
//	}, paginate.WithPageSize(200), paginate.WithCursor(saved))
//	for w.HasNext() {
//	    ids, err := w.NextPage(ctx)
//	    if err != nil {
//	        return w.Cursor(), err
//	    }
//	    process(ids)
//	}
func New[T any](fetch FetchFunc[T], opts ...Option) *Walker[T] {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	return &Walker[T]{fetch: fetch, pageSize: s.pageSize, cursor: s.cursor}
}

// HasNext reports whether another page may exist. It turns false once a page
// without a next cursor has been returned.
func (w *Walker[T]) HasNext() bool {
	return !w.done
}

// Cursor is the position of the next page to fetch. Store it to resume
// later; after a failed NextPage it still points at the page that failed.
func (w *Walker[T]) Cursor() string {
	return w.cursor
}

// NextPage fetches the next page. On error the walker does not move, so the
// call may be repeated or the walk resumed from Cursor.
func (w *Walker[T]) NextPage(ctx context.Context) ([]T, error) {
	if w.done {
		return nil, nil
	}
	page, err := w.fetch(ctx, w.cursor, w.pageSize)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	if page.Next != "" && page.Next == w.cursor {
		return nil, fmt.Errorf("%w: %q", ErrStalledCursor, page.Next)
	}
	w.cursor = page.Next
	w.done = page.Next == ""
	return page.Items, nil
}

// Pages yields each page until the listing ends or a fetch fails. A failure
// is yielded once, with a nil page, and ends the sequence.
func (w *Walker[T]) Pages(ctx context.Context) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		for w.HasNext() {
			items, err := w.NextPage(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(items, nil) {
				return
			}
		}
	}
}

// Items flattens Pages into single items.
//
//	for id, err := range paginate.New(client.ListPage).Items(ctx) {
//		if err != nil {
//			return err
//		}
//		fmt.Println(id)
//	}
func (w *Walker[T]) Items(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for items, err := range w.Pages(ctx) {
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}
		}
	}
}

// All drains a listing into memory. Use the iterators for large listings.
func All[T any](ctx context.Context, fetch FetchFunc[T], opts ...Option) ([]T, error) {
	var out []T
	for item, err := range New(fetch, opts...).Items(ctx) {
		if err != nil {
			return out, err
		}
		out = append(out, item)
	}
	return out, nil
}
