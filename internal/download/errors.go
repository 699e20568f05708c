package download

import "errors"

var (
	// ErrNotFound is returned when a download record is not found.
	ErrNotFound = errors.New("download not found")

	// ErrInvalidTransition is returned for a state change the machine
	// does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
)
