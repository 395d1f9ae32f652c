package statichost

import "errors"

var (
	// ErrNotFound is returned when a site, file, or routing entry is not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when upload validation fails; the message is user-facing
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict is returned when a host is already taken by another site
	ErrConflict = errors.New("conflict")
	// ErrStorage is returned when an object store upload, fetch, or delete fails
	ErrStorage = errors.New("storage failure")
	// ErrConcurrentModification is returned when a routing cache conditional
	// write loses the race against another writer. Callers decide whether to retry.
	ErrConcurrentModification = errors.New("concurrent modification")
	// ErrExtraction is returned when an uploaded archive cannot be read
	ErrExtraction = errors.New("invalid archive")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
)
