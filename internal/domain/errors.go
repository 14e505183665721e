package domain

import "errors"

// Sentinel errors shared across services and repositories. Repositories map
// storage-level conditions (e.g. sql.ErrNoRows) onto these; controllers map
// them onto HTTP status codes with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")

	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already in use")

	// Business-rule rejections for the invitation lifecycle. These are
	// definitive outcomes, never retried by the core.
	ErrDuplicateInvitation = errors.New("a non-declined invitation already exists for this event and volunteer")
	ErrEventClosed         = errors.New("event is closed and no longer accepting volunteers")
	ErrCapacityExceeded    = errors.New("event volunteer capacity reached")
	ErrInvalidTransition   = errors.New("invalid invitation state transition")
)
