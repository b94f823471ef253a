package domain

import "errors"

var (
	// ErrStaleQuote is returned when the targeted quote changed or
	// disappeared between read and transactional commit. Recoverable:
	// the caller should re-fetch the book and re-select, never retry
	// with the old snapshot.
	ErrStaleQuote = errors.New("quote no longer available")

	// ErrQuoteNotFound is returned when no quote exists for the id.
	ErrQuoteNotFound = errors.New("quote not found")

	// ErrNotAuthenticated is returned when an operation arrives with
	// no requester identity.
	ErrNotAuthenticated = errors.New("authentication required")

	// ErrPermissionDenied is returned when the storage layer rejects
	// a write for the given identity.
	ErrPermissionDenied = errors.New("not permitted")
)

// ValidationError is a client error detected before any write. It is
// never retried; the offending field and value are surfaced directly.
type ValidationError struct {
	Field  string
	Value  int64
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

func NewValidationError(field string, value int64, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// IsValidation checks if an error is a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StorageError wraps a failure from the storage collaborator. The
// binding layer classifies it structurally; callers must never match
// on message text.
type StorageError struct {
	Op        string
	Err       error
	Transient bool
}

func (e *StorageError) Error() string {
	return "storage " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps a transient storage failure (connectivity,
// availability). Non-transient failures use NewFatalStorageError.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err, Transient: true}
}

func NewFatalStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err, Transient: false}
}

// IsTransient reports whether the error is a transient storage
// failure worth surfacing as retriable to the user.
func IsTransient(err error) bool {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Transient
	}
	return false
}
