package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStaleRead means the booking set read back does not yet reflect the
	// event being handled. The event is retried rather than projected.
	ErrStaleRead = errors.New("booking read is older than the triggering event")

	ErrLeaseHeld = errors.New("lease is held by another owner")
)
