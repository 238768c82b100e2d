package model

import "time"

// Reservation lifecycle. A reservation is created PENDING, is
// confirmed or completed by an admin (or by the auto-complete sweep
// once its slot time has passed) and can be cancelled by its owner or
// an admin. CANCELLED reservations never count against capacity.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
)

// ValidStatus reports whether s is one of the reservation statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Reservation binds a user, a calendar date and a time-slot template
// together with the requested services. Date is the concrete day being
// booked; the template only carries the abstract weekday. License may
// differ from the user's on-file plate, e.g. when booking for a second
// car.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – owner of the reservation.
//  TimeSlotID – weekly template the reservation is booked into.
//  Date       – calendar date being booked (YYYY-MM-DD).
//  License    – vehicle plate for this booking.
//  UserMemo   – optional note from the customer.
//  AdminMemo  – optional note from the shop, admin-only.
//  IsPickup   – whether the shop picks the vehicle up at home.
//  Status     – PENDING, CONFIRMED, COMPLETED or CANCELLED.
//  CreatedAt  – timestamp of creation.
//  UpdatedAt  – timestamp of last update.
type Reservation struct {
	ID         uint64    // reservations.id
	UserID     uint64    // reservations.user_id
	TimeSlotID uint64    // reservations.time_slot_id
	Date       string    // reservations.date (YYYY-MM-DD)
	License    string    // reservations.license
	UserMemo   *string   // reservations.user_memo (nullable)
	AdminMemo  *string   // reservations.admin_memo (nullable)
	IsPickup   bool      // reservations.is_pickup
	Status     string    // reservations.status
	CreatedAt  time.Time // reservations.created_at
	UpdatedAt  time.Time // reservations.updated_at
}

// ReservationService links a reservation to one catalog service. A
// reservation always has at least one of these rows.
type ReservationService struct {
	ID            uint64 // reservation_services.id
	ReservationID uint64 // reservation_services.reservation_id
	ServiceID     uint64 // reservation_services.service_id
}

// ReservationDetail is a reservation joined with its time-slot
// template, the selected services and, for admin listings, the owning
// user.
type ReservationDetail struct {
	Reservation
	TimeSlot TimeSlot
	Services []Service
	User     *User
}
