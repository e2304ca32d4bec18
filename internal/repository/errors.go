// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// service engines to distinguish between different failure scenarios
// without inspecting SQL errors. For example, ErrForbidden indicates
// that the current account is not allowed to touch a resource owned by
// someone else, while ErrConflict signals that a conditional update
// found the row in an unexpected state (e.g. approving a request that
// is no longer PENDING).
package repository

import "errors"

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a conditional write matched no rows
// because the resource was not in the expected state, such as closing
// an already-closed lending record.
var ErrConflict = errors.New("conflict")

// ErrEventFull is returned when a registration cannot be created
// because the event already has max_participants registrations.
var ErrEventFull = errors.New("event full")

// ErrDuplicateRegistration is returned when the attendee already
// holds a registration for the event.
var ErrDuplicateRegistration = errors.New("duplicate registration")

// ErrEmailExists is returned when an account cannot be created
// because the email address is already taken.
var ErrEmailExists = errors.New("email already exists")
