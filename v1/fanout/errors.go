package fanout

import "fmt"

// panicError carries a panic raised inside a Querier so that one broken
// namespace cannot take down the whole fan-out.
type panicError struct {
	namespace string
	value     any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("fanout: querier panicked for namespace %q: %v", e.namespace, e.value)
}
