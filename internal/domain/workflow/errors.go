package workflow

import "errors"

var (
	ErrCaseNotFound = errors.New("case not found")
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidTransition marks a (status, event) pair that is absent from the
	// transition table.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrTerminalState marks any transition attempt on an accepted case.
	ErrTerminalState = errors.New("case is in terminal state")

	// ErrConcurrentModification marks a revision check failure: another writer
	// committed first and the caller must re-read and retry.
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrIdempotencyMismatch marks an idempotency key that was already consumed
	// by a different (case, event type) pair. A replay of the same pair is not
	// an error and returns the stored event instead.
	ErrIdempotencyMismatch = errors.New("idempotency key already used for a different request")

	ErrForbidden          = errors.New("actor is not allowed to perform this event")
	ErrWIPLimitExceeded   = errors.New("work-in-progress limit exceeded")
	ErrInvalidAction      = errors.New("invalid worklog action")
	ErrInvalidStatus      = errors.New("invalid case status")
	ErrInvalidEventType   = errors.New("invalid event type")
	ErrInvalidQcKind      = errors.New("invalid qc summary kind")
	ErrInvalidQcResult    = errors.New("invalid qc classification")
	ErrInvalidDifficulty  = errors.New("invalid difficulty")
	ErrInvalidTimeOffKind = errors.New("invalid time-off kind")
	ErrDuplicateCaseUID   = errors.New("case uid already registered")
	ErrDuplicateTimeOff   = errors.New("time-off already registered for this date")
	ErrInactiveUser       = errors.New("user is inactive")
	ErrNotAssignableRole  = errors.New("cases can only be assigned to workers")
)
