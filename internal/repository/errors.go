// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver-specific errors.
package repository

import "errors"

// ErrNotFound is returned when the requested row does not exist. Handlers
// should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert would violate the unique
// email constraint on users. Handlers should translate this into an
// HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned when an update or delete cannot be performed
// because of conflicting state, such as booking a slot that is no longer
// available or deleting a slot that is already booked.
var ErrConflict = errors.New("conflict")
