package errors

import "errors"

var (
	ErrNotFound = errors.New("schedule batch not found")

	ErrInvalidID = errors.New("invalid schedule batch ID format")

	ErrOverrideNotFound = errors.New("availability override not found")

	ErrOverrideExists = errors.New("an override already exists for this location and date")
)
