package db

import "errors"

// Store error sentinels. The in-memory store returns the same values.
var (
	// User errors
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")

	// Publisher request errors
	ErrListingNotFound        = errors.New("publisher request not found")
	ErrDuplicateActiveListing = errors.New("an active request already exists for this website")
	ErrVersionConflict        = errors.New("publisher request was modified concurrently")
)
