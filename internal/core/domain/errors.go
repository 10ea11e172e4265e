package domain

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by services wraps exactly one of these so
// the HTTP layer can map it with errors.Is.
var (
	ErrValidation       = errors.New("validation error")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrForbidden        = errors.New("access forbidden")
	ErrNotFound         = errors.New("resource not found")
	ErrConflict         = errors.New("resource already exists")
	ErrStoreUnavailable = errors.New("store unavailable")
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthenticated)
	ErrAccountDisabled    = fmt.Errorf("%w: user account is disabled", ErrForbidden)

	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrCaseNotFound     = fmt.Errorf("case %w", ErrNotFound)
	ErrNoteNotFound     = fmt.Errorf("note %w", ErrNotFound)
	ErrDocumentNotFound = fmt.Errorf("document %w", ErrNotFound)

	ErrUserExists = fmt.Errorf("user with this email %w", ErrConflict)

	ErrRequestInProgress = fmt.Errorf("%w: a request with this idempotency key is still in progress", ErrConflict)
)

// ValidationError wraps ErrValidation with a human-readable reason.
func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
