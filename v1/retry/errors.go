package retry

import (
	"context"
	"errors"
	"io"
	"net"
	"slices"
	"strings"
	"syscall"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Class is the retry verdict for a failed attempt.
type Class int

const (
	// Retryable failures are transient: unavailable, overloaded, a dropped
	// connection or a per-attempt timeout with budget left.
	Retryable Class = iota
	// Permanent failures will not change on retry: bad arguments, auth,
	// not found, cancellation.
	Permanent
	// DeadlineExceeded means the overall time budget is gone.
	DeadlineExceeded
)

func (c Class) String() string {
	switch c {
	case Retryable:
		return "retryable"
	case Permanent:
		return "permanent"
	case DeadlineExceeded:
		return "deadline_exceeded"
	}
	return "unknown"
}

// Sentinels that non-gRPC transports wrap to make their failures classifiable.
var (
	// ErrUnavailable marks a transient server or network failure.
	ErrUnavailable = errors.New("service unavailable")

	// ErrResourceExhausted marks throttling (HTTP 429 and the like).
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrNotSent marks a failure that provably happened before the request
	// left the client. Writes failing this way are safe to repeat.
	ErrNotSent = errors.New("request not sent")
)

type deadlineError struct{}

func (deadlineError) Error() string { return "deadline exceeded" }

// Is lets callers test for context.DeadlineExceeded as well.
func (deadlineError) Is(target error) bool { return target == context.DeadlineExceeded }

func (deadlineError) Timeout() bool { return true }

func (deadlineError) GRPCStatus() *status.Status {
	return status.New(codes.DeadlineExceeded, "deadline exceeded")
}

// ErrDeadlineExceeded is returned when an operation runs out of time. It
// matches context.DeadlineExceeded under errors.Is and carries
// codes.DeadlineExceeded for status.Code.
var ErrDeadlineExceeded error = deadlineError{}

func deadlineErr(last error) error {
	switch {
	case last == nil:
		return ErrDeadlineExceeded
	case errors.Is(last, ErrDeadlineExceeded):
		return last
	}
	return errors.Join(ErrDeadlineExceeded, last)
}

// Classify sorts err using the default retryable gRPC codes.
func Classify(err error) Class {
	return classify(err, DefaultRetryableCodes)
}

func classify(err error, retryableCodes []codes.Code) Class {
	switch {
	case err == nil:
		return Permanent
	case errors.Is(err, context.DeadlineExceeded):
		return DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return Permanent
	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrResourceExhausted), errors.Is(err, ErrNotSent):
		return Retryable
	}

	if st, ok := status.FromError(err); ok {
		switch code := st.Code(); {
		case code == codes.DeadlineExceeded:
			return DeadlineExceeded
		case slices.Contains(retryableCodes, code):
			return Retryable
		default:
			return Permanent
		}
	}

	if isNetworkFailure(err) {
		return Retryable
	}
	return Permanent
}

func isNetworkFailure(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// NotSent reports whether err proves the request never reached the server:
// dial and DNS failures, refused connections, ErrNotSent, or a gRPC
// Unavailable raised while establishing the connection.
func NotSent(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotSent) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	if st, ok := status.FromError(err); ok && st.Code() == codes.Unavailable {
		msg := st.Message()
		return strings.Contains(msg, "connection refused") ||
			strings.Contains(msg, "produced zero addresses") ||
			strings.Contains(msg, "error while dialing")
	}
	return false
}
