package engine

import "fmt"

// Kind is the error taxonomy from spec.md §7. It is a closed set of
// conditions the admission pipeline can report; UnfillableFOK and
// InsufficientLiquidity are not represented here because neither is an
// error to the caller (spec.md §7) — they flow back as an ordinary
// SubmitResult with a reflecting Status instead.
type Kind int

const (
	// InvalidRequest: unknown order type, missing required price,
	// non-positive quantity, unknown side. No mutation, no persistence.
	InvalidRequest Kind = iota
	// PersistenceFailure: the journal write failed. Logged as a warning;
	// the match result is still returned to the caller.
	PersistenceFailure
	// InternalError: an unexpected invariant violation.
	InternalError
)

func (k Kind) String() string {
	switch k {
	case InvalidRequest:
		return "invalid_request"
	case PersistenceFailure:
		return "persistence_failure"
	case InternalError:
		return "internal_error"
	default:
		return "unknown"
	}
}

// Error wraps a Kind with a human message and, optionally, the condition
// that triggered it.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func wrapError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}
