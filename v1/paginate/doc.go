// Package paginate walks cursor-paginated listings such as vector ID
// listings, namespace listings or bulk import listings.
//
// A FetchFunc returns one page and the cursor of the following one; the
// Walker calls it lazily and exposes the pages through HasNext/NextPage or
// as Go iterators. The current cursor is opaque and storable, so a walk can
// stop and resume from a different process:
//
//	w := paginate.New(client.ListImportsPage, paginate.WithPageSize(100))
//	for imports, err := range w.Pages(ctx) {
//		if err != nil {
//			saveCheckpoint(w.Cursor())
//			return err
//		}
//		process(imports)
//	}
//
// Resuming later:
//
//	w := paginate.New(client.ListImportsPage, paginate.WithCursor(loadCheckpoint()))
//
// # Cursors
//
// The empty cursor addresses the first page. A page with an empty Next is
// the last one. A failed fetch leaves the cursor where it was, so Cursor
// after an error is the page to retry. A server that answers with the cursor
// it was given would loop forever; the walker stops with ErrStalledCursor
// instead and does not yield that page.
//
// # Iteration styles
//
//   - HasNext / NextPage for explicit control
//   - Pages for one slice per page
//   - Items for one element at a time
//   - All to collect everything (small listings only)
//
// Walks see no snapshot: records written during a walk may or may not
// appear. Retries belong in the FetchFunc; the transports in this module
// already run their list calls through the retry package.
//
// A Walker is not safe for concurrent use. Independent walkers over the same
// listing are fine.
package paginate
