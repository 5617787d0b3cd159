package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates the content store has no such entry.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown content source type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrUnknownSection indicates a section name outside the fixed set.
	ErrUnknownSection = errors.New("unknown section")

	// ErrFetchFailed indicates the content store could not be reached
	// or answered with a non-success status.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrParseFailed indicates a malformed document envelope.
	ErrParseFailed = errors.New("parse failed")

	// ErrIndexUnavailable indicates a whole section could not be indexed.
	ErrIndexUnavailable = errors.New("index unavailable")
)

// FetchError records a failure to load one content unit.
// Err normally wraps ErrNotFound, ErrFetchFailed or ErrParseFailed.
type FetchError struct {
	Section SectionID
	Path    string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("fetch %s table of contents: %v", e.Section, e.Err)
	}
	return fmt.Sprintf("fetch %s/%s: %v", e.Section, e.Path, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means the entry does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IndexUnavailableError reports a section whose table of contents
// (or every document) could not be loaded.
type IndexUnavailableError struct {
	Section SectionID
	Err     error
}

func (e *IndexUnavailableError) Error() string {
	return fmt.Sprintf("section %s: index unavailable: %v", e.Section, e.Err)
}

func (e *IndexUnavailableError) Unwrap() error {
	return e.Err
}

// Is matches ErrIndexUnavailable.
func (e *IndexUnavailableError) Is(target error) bool {
	return target == ErrIndexUnavailable
}
