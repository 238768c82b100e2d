package model

import "time"

// TimeSlot is a weekly recurring template, not a calendar entry: the
// pair (DayOfWeek, StartTime) describes a bookable slot on every week
// of the year. Capacity is how many concurrent reservations the shop
// accepts for the slot on any single calendar date. The pair is unique
// across templates regardless of the active flag.
//
// Fields:
//  ID        – primary key identifier.
//  DayOfWeek – 0..6 with 0 = Sunday.
//  StartTime – slot start in HH:mm, e.g. "09:00".
//  Capacity  – maximum non-cancelled reservations per calendar date.
//  IsActive  – whether the slot is offered to customers.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type TimeSlot struct {
	ID        uint64    // time_slots.id
	DayOfWeek int       // time_slots.day_of_week
	StartTime string    // time_slots.start_time
	Capacity  int       // time_slots.capacity
	IsActive  bool      // time_slots.is_active
	CreatedAt time.Time // time_slots.created_at
	UpdatedAt time.Time // time_slots.updated_at
}
