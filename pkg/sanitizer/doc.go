// Package sanitizer normalizes request input before validation and storage.
//
// All functions are idempotent: applying them twice gives the same result.
// Invalid input is returned as-is or dropped rather than reported, so the
// validators still see it and produce a field error.
//
// Normalization includes:
//   - Strings: collapse whitespace, trim leading/trailing spaces
//   - Times of day: zero-pad "9:00" to "09:00"
//   - Dates: trim, drop empties and duplicates, sort ascending
//   - Weekdays: drop duplicates, sort ascending
package sanitizer
