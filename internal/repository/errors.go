// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// matching service and handlers to distinguish between failure
// scenarios without inspecting driver errors. For example,
// ErrUserNotFound covers both an unknown email and a soft-deleted
// account, while ErrRequestNotFound signals that a referenced blood
// donation request does not exist.
package repository

import "errors"

// ErrUserNotFound is returned when an email does not resolve to a
// live (non-deleted) user. Handlers should translate this into an
// HTTP 404 response.
var ErrUserNotFound = errors.New("user not found")

// ErrRequestNotFound is returned when a blood donation request id
// does not exist. Handlers should translate this into an HTTP 404
// response.
var ErrRequestNotFound = errors.New("blood donation request not found")

// ErrEmailExists is returned by user creation when the email or
// username is already taken. Handlers should translate this into an
// HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")
