// Package repository implements the data access layer on top of
// database/sql. Sentinel errors defined here let services distinguish
// failure scenarios without inspecting driver-specific errors.
package repository

import "errors"

// ErrSlotFull is returned when the atomic capacity guard rejects a
// reservation insert or move because the (time slot, date) pair is at
// capacity.
var ErrSlotFull = errors.New("time slot is full")

// ErrDuplicate is returned when an insert violates a uniqueness
// constraint, such as two templates sharing (day_of_week, start_time)
// or two users sharing a line_id.
var ErrDuplicate = errors.New("duplicate record")

// ErrHasReservations is returned when a time slot cannot be deleted
// because reservations still reference it.
var ErrHasReservations = errors.New("time slot has reservations")
