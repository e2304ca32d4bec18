// Package service implements the borrow-request, lending-record and
// event-registration engines together with the authorization gate they
// share. Engines validate input, consult the gate, and delegate every
// read-check-write transition to a conditional store operation so that
// at most one of two racing callers succeeds.
package service

import (
	"errors"
	"fmt"

	"github.com/boardgameshare/server/internal/repository"
)

// Error kinds returned by the engines. Each exposed operation
// terminates with exactly one of these; callers use errors.Is to pick
// the transport mapping. The engines never retry internally.
var (
	// ErrValidation marks malformed input: a bad date range, a
	// missing required reference, a capacity below one.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a referenced entity that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks a principal lacking the role or ownership
	// required for the action.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict marks a resource that is not in a state compatible
	// with the requested transition: already closed, no longer
	// pending, at capacity, already registered.
	ErrConflict = errors.New("conflict")

	// ErrDependency marks a failed or unreachable collaborator
	// (store, directory, catalog). It is surfaced as-is; callers may
	// treat it as retryable.
	ErrDependency = errors.New("dependency failure")
)

// storeErr converts repository sentinels into engine error kinds.
// Anything unrecognized is a collaborator failure.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrForbidden):
		return ErrForbidden
	case errors.Is(err, repository.ErrConflict):
		return ErrConflict
	case errors.Is(err, repository.ErrEventFull),
		errors.Is(err, repository.ErrDuplicateRegistration):
		return ErrConflict
	default:
		return fmt.Errorf("%w: %v", ErrDependency, err)
	}
}
