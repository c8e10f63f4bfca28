package teamchat_errors

import "errors"

// Chat core errors. Every one of them is returned synchronously to the
// operation that triggered it.
var (
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidMembership   = errors.New("invalid membership")
	ErrImmutableMembership = errors.New("membership of a direct room cannot change")
	ErrLastAdmin           = errors.New("room would be left without an admin")
	ErrNotFound            = errors.New("not found")
	ErrQueueOverflow       = errors.New("outbound queue overflow")
)

// Common errors
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidInput       = errors.New("invalid input")
	ErrAlreadyExists      = errors.New("already exists")
	ErrRateLimited        = errors.New("rate limited")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrServiceUnavailable = errors.New("service unavailable")
)
