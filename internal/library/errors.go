package library

import "errors"

var (
	// ErrNotFound indicates the requested entity doesn't exist.
	ErrNotFound = errors.New("entity not found")

	// ErrParentNotFound indicates a season or episode was created before
	// its parent. Correct call sequencing (series before season before
	// episode) never hits this.
	ErrParentNotFound = errors.New("parent entity not found")
)
