package errors

import "errors"

var (
	ErrNotFound = errors.New("slot not found")

	ErrInvalidID = errors.New("invalid slot ID format")

	ErrVersionConflict = errors.New("slot was modified concurrently")

	ErrSlotProtected = errors.New("slot has active bookings")

	ErrInvalidWindow = errors.New("window end must be after start")
)
