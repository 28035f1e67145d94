package domain

import "errors"

// Sentinel errors for the auction domain. Use errors.Is() to check these.
var (
	// ErrInvalidInput indicates a missing or malformed required field.
	// Corrected by the operator; never reaches the store.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateKey indicates a natural-key collision on create or rekey.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotFound indicates a reference to a nonexistent item or attendee.
	ErrNotFound = errors.New("not found")

	// ErrRemoteWrite indicates the backend rejected a write. The ledger rolls
	// back its optimistic in-memory change before returning this.
	ErrRemoteWrite = errors.New("remote write failed")

	// ErrNotProvisioned indicates the backing tables do not exist yet.
	// Surfaced as a persistent configuration problem, not a one-off failure.
	ErrNotProvisioned = errors.New("storage not provisioned")

	// ErrPermissionDenied indicates the store's access policy rejected the call.
	ErrPermissionDenied = errors.New("permission denied")
)
