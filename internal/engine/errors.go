package engine

import "errors"

// Typed, recoverable errors returned to the caller. Discriminate with
// errors.Is; the HTTP layer maps each to a status code.
var (
	// ErrValidation marks malformed input: non-positive amounts, empty
	// titles, transitions the state machine forbids.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound marks an unknown group, member, request, or catalog entry.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized marks a caller without admin or self rights.
	ErrUnauthorized = errors.New("not allowed")

	// ErrConflict marks an optimistic-concurrency collision in the store.
	// Retryable: the caller may back off and resubmit.
	ErrConflict = errors.New("transaction conflict")

	// ErrStoreUnavailable marks the ledger store being unreachable. The
	// caller should retry with backoff.
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadyMember       = errors.New("already a member")
	ErrAlreadyProcessed    = errors.New("already processed")
	ErrDuplicatePending    = errors.New("duplicate pending request")
	ErrGroupFull           = errors.New("group is full")
	ErrExpired             = errors.New("expired")
)
