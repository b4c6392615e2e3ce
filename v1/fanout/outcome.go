package fanout

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Aleph-Alpha/vdbclient/v1/vectordb"
)

// Outcome is the result of one namespace task. Err set means failure; the
// match list is then empty.
type Outcome struct {
	// Index is the namespace's position in the caller's list. It tells
	// duplicated namespaces apart and drives tie-breaking.
	Index     int
	Namespace string
	Matches   []vectordb.Match
	Usage     vectordb.Usage
	Err       error
}

// Failed reports whether the namespace call failed.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// NamespaceError ties a failure to the namespace that produced it.
type NamespaceError struct {
	Namespace string
	Index     int
	Err       error
}

func (e *NamespaceError) Error() string {
	return fmt.Sprintf("namespace %q: %v", e.Namespace, e.Err)
}

func (e *NamespaceError) Unwrap() error {
	return e.Err
}

// MarshalJSON renders the error as text; error values have no JSON form.
func (e *NamespaceError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Namespace string `json:"namespace"`
		Index     int    `json:"index"`
		Error     string `json:"error"`
	}{e.Namespace, e.Index, e.Err.Error()})
}

// MergedResult is the ranked union of all successful namespaces.
type MergedResult struct {
	// Matches holds at most topK matches, best first, each tagged with its
	// namespace.
	Matches []vectordb.Match `json:"matches"`

	// Usage sums the successful namespaces only.
	Usage vectordb.Usage `json:"usage"`

	// Failures lists failed namespaces in input order.
	Failures []*NamespaceError `json:"failures,omitempty"`
}

// Partial reports whether some namespaces failed.
func (r *MergedResult) Partial() bool {
	return len(r.Failures) > 0
}

// Err joins the namespace failures, or returns nil.
func (r *MergedResult) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}
