package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidURL is returned when a submitted URL is not an absolute URL.
	ErrInvalidURL = errors.New("invalid url format")
	// ErrInvalidValidity is returned when a submitted validity period is not a positive integer.
	ErrInvalidValidity = errors.New("validity must be a positive number")
	// ErrInvalidShortCode is returned when a custom short code is not 4-16 letters or digits.
	ErrInvalidShortCode = errors.New("short code must be 4-16 letters or numbers")
	// ErrShortCodeExists is returned when a short code is already taken.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrTooManyURLs is returned when a batch holds more rows than allowed.
	ErrTooManyURLs = errors.New("too many urls")
	// ErrURLNotFound is returned when a URL with the specified short code cannot be found.
	ErrURLNotFound = errors.New("url not found")
	// ErrURLExpired is returned when the URL with the specified short code has expired.
	ErrURLExpired = errors.New("url expired")
)

// RowError ties a validation failure to the index of the submitted row.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ValidationError is returned when at least one row of a batch failed validation.
// Nothing from the batch is persisted when it is returned.
type ValidationError struct {
	Rows []RowError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Rows))
	for _, r := range e.Rows {
		msgs = append(msgs, r.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Unwrap exposes every row cause so that errors.Is matches any of them.
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Rows))
	for i := range e.Rows {
		errs = append(errs, &e.Rows[i])
	}
	return errs
}
