// Package errs defines the error kinds shared by all services.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Services wrap these with %w so callers can match
// with errors.Is and the HTTP layer can map them to status codes.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrPersistenceFailure = errors.New("persistence failure")
)

// NotFound reports that no entity of the given kind exists under id.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// InvariantViolation reports a broken exclusivity or uniqueness rule. The
// detail names the resource that is already committed elsewhere.
func InvariantViolation(detail string) error {
	return fmt.Errorf("%s: %w", detail, ErrInvariantViolation)
}

// InvalidTransition reports a status change not permitted from the current state.
func InvalidTransition(kind, from, to string) error {
	return fmt.Errorf("%s cannot move %s -> %s: %w", kind, from, to, ErrInvalidTransition)
}

// Persistence wraps a storage error so it can be recognized as a 5xx-class failure.
func Persistence(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, ErrPersistenceFailure)
}
