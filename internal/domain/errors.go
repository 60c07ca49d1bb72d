package domain

import "errors"

var (
	// ErrInputRejected is returned when a field fails validation
	ErrInputRejected = errors.New("input rejected")

	// ErrLimitExceeded is returned when a user-authored collection is full
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrUpstreamUnavailable is returned when the search provider call fails
	ErrUpstreamUnavailable = errors.New("search provider unavailable")

	// ErrProductNotIdentified is returned when a barcode cannot be resolved to a product
	ErrProductNotIdentified = errors.New("product could not be identified from barcode")

	// ErrListNotFound is returned when a shopping list does not exist
	ErrListNotFound = errors.New("shopping list not found")

	// ErrItemNotFound is returned when a shopping list item does not exist
	ErrItemNotFound = errors.New("shopping list item not found")

	// ErrStoreUnavailable is returned when the document store cannot be reached
	ErrStoreUnavailable = errors.New("document store unavailable")
)

// ValidationError describes a rejected field. It unwraps to ErrInputRejected
// or ErrLimitExceeded so callers can branch with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewInputRejected builds a ValidationError for a rejected field
func NewInputRejected(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Err: ErrInputRejected}
}

// NewLimitExceeded builds a ValidationError for an exceeded cap
func NewLimitExceeded(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Err: ErrLimitExceeded}
}
