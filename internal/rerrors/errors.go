// Package rerrors defines the error kinds the routing core distinguishes
// behind one wrapper type, using cockroachdb/errors for cause chains
// instead of the standard library.
package rerrors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Kind enumerates the error taxonomy the routing core distinguishes.
type Kind int

const (
	InputMalformed Kind = iota
	SnapFailed
	RuleFileInvalid
	NoRouteFound
	AllItinerariesAbandoned
	Cancelled
	CacheVersionMismatch
)

func (k Kind) String() string {
	switch k {
	case InputMalformed:
		return "InputMalformed"
	case SnapFailed:
		return "SnapFailed"
	case RuleFileInvalid:
		return "RuleFileInvalid"
	case NoRouteFound:
		return "NoRouteFound"
	case AllItinerariesAbandoned:
		return "AllItinerariesAbandoned"
	case Cancelled:
		return "Cancelled"
	case CacheVersionMismatch:
		return "CacheVersionMismatch"
	default:
		return "Unknown"
	}
}

// ParseKind reverses Kind.String, for a caller that only has the kind
// name back (an IPC response's ErrorKind field, not a Go error value) and
// needs the exit code that goes with it.
func ParseKind(s string) (Kind, bool) {
	for k := InputMalformed; k <= CacheVersionMismatch; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// RouterError is the single error type returned across package boundaries
// in this module, carrying a Kind the CLI can map to an exit code.
type RouterError struct {
	kind  Kind
	msg   string
	cause error
}

func (e *RouterError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

func (e *RouterError) Unwrap() error { return e.cause }

// Kind returns the error's taxonomy kind.
func (e *RouterError) Kind() Kind { return e.kind }

// Wrap builds a RouterError of the given kind, formatting msg/args with
// fmt.Sprintf and chaining cause (may be nil).
func Wrap(kind Kind, cause error, format string, args ...interface{}) error {
	return &RouterError{kind: kind, msg: fmt.Sprintf(format, args...), cause: cause}
}

// New is Wrap without a cause.
func New(kind Kind, format string, args ...interface{}) error {
	return Wrap(kind, nil, format, args...)
}

// KindOf extracts the Kind from err if it (or something it wraps) is a
// *RouterError, returning ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var re *RouterError
	if errors.As(err, &re) {
		return re.kind, true
	}
	return 0, false
}

// ExitCode maps a Kind to the process exit code:
// 0 success is handled by callers directly; every Kind here is non-zero.
func ExitCode(k Kind) int {
	switch k {
	case InputMalformed, RuleFileInvalid:
		return 2
	case SnapFailed:
		return 3
	case NoRouteFound, AllItinerariesAbandoned:
		return 4
	case Cancelled:
		return 5
	case CacheVersionMismatch:
		return 6
	default:
		return 1
	}
}
