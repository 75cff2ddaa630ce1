package download

import "errors"

// Sentinel errors for the download package.
var (
	// ErrNotFound is returned when a download record is not found in the database.
	ErrNotFound = errors.New("download not found")

	// ErrInvalidTransition is returned when a status change is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidRequest is returned when a download request is missing fields.
	ErrInvalidRequest = errors.New("invalid download request")
)
