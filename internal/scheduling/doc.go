// Package scheduling holds the pure parts of the slot engine.
//
// Nothing here performs I/O. Callers fetch slots, bookings and closures from
// their stores and pass them in; the functions return values that the
// services then persist:
//   - Expand walks a template over a date range and emits candidate intervals.
//   - Detect pairs each candidate with the stored slots it overlaps.
//   - Resolve turns conflicts into create, skip or replace decisions.
//   - Project derives a slot's status and exclusive lock from its bookings.
//
// All intervals are half-open [start, end) and all instants are UTC.
package scheduling
