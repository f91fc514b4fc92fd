package domain

import "errors"

// Sentinel errors for the domain layer. These provide consistent, checkable
// errors for common business logic failures.
var (
	ErrNotFound          = errors.New("requested resource not found")
	ErrNotMember         = errors.New("user is not a member of this tour")
	ErrAlreadyMember     = errors.New("user is already a member of this tour")
	ErrConnectionUnknown = errors.New("connection is not registered")
)
