package journal

import "errors"

var (
	// ErrEventNotFound indicates no event with the requested id is stored.
	ErrEventNotFound = errors.New("journal: event not found")

	// ErrDuplicateEvent indicates an event with the same id was already appended.
	ErrDuplicateEvent = errors.New("journal: duplicate event")

	// ErrInvalidEvent indicates the event kind is not enter or leave.
	ErrInvalidEvent = errors.New("journal: invalid event")
)
