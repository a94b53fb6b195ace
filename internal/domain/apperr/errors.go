// Package apperr defines the error kinds shared by the workflow engine,
// the record store and the transport adapters.
package apperr

import "errors"

var (
	// ErrNotFound is returned when a record is absent or belongs to another tenant
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when an action is not legal from the current status
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrForbidden is returned when a role or ownership guard fails
	ErrForbidden = errors.New("forbidden")

	// ErrValidation is returned for malformed input
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when a save loses an optimistic concurrency race
	ErrConflict = errors.New("concurrent modification")

	// ErrAlreadyExists is returned when a unique field collides
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnauthenticated is returned when no usable principal could be resolved
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Kind is a stable, client-visible error code.
type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindForbidden         Kind = "FORBIDDEN"
	KindValidation        Kind = "VALIDATION_FAILED"
	KindConflict          Kind = "CONFLICT"
	KindAlreadyExists     Kind = "ALREADY_EXISTS"
	KindUnauthenticated   Kind = "UNAUTHENTICATED"
	KindInternal          Kind = "INTERNAL"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrNotFound, KindNotFound},
	{ErrInvalidTransition, KindInvalidTransition},
	{ErrForbidden, KindForbidden},
	{ErrValidation, KindValidation},
	{ErrConflict, KindConflict},
	{ErrAlreadyExists, KindAlreadyExists},
	{ErrUnauthenticated, KindUnauthenticated},
}

// KindOf classifies err. Unclassified errors are KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// Retryable reports whether the caller may retry after reloading the record.
func Retryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
