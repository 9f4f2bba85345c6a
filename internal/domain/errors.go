package domain

import "errors"

var (
	// ErrOptionNotFound is returned when an option is not found in the store
	ErrOptionNotFound = errors.New("option not found")

	// ErrNotParent is returned when a hierarchy query targets a non-parent option
	ErrNotParent = errors.New("option is not a parent")

	// ErrMalformedLog is returned when a chain log does not match the shape
	// its event signature promises
	ErrMalformedLog = errors.New("malformed event log")
)
