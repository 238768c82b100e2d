package booking

import (
	"time"

	"vehicle-reserve-backend/internal/model"
)

// CreateInput is the payload for booking a reservation. Both roles
// share it; admins may book on behalf of another user via UserID in
// the service call, not through this struct.
type CreateInput struct {
	TimeSlotID uint64   `json:"timeSlotId"`
	Date       string   `json:"date"`
	License    string   `json:"license"`
	UserMemo   *string  `json:"userMemo"`
	IsPickup   bool     `json:"isPickup"`
	ServiceIDs []uint64 `json:"serviceIds"`
}

// CustomerUpdateInput is what a customer may change on their own
// reservation. Status, the license and the admin memo are
// deliberately absent, so a customer request cannot even express them.
type CustomerUpdateInput struct {
	TimeSlotID *uint64  `json:"timeSlotId"`
	Date       *string  `json:"date"`
	UserMemo   *string  `json:"userMemo"`
	IsPickup   *bool    `json:"isPickup"`
	ServiceIDs []uint64 `json:"serviceIds"`
}

// AdminUpdateInput extends the customer fields with the admin-only
// ones.
type AdminUpdateInput struct {
	CustomerUpdateInput
	License   *string `json:"license"`
	Status    *string `json:"status"`
	AdminMemo *string `json:"adminMemo"`
}

// SlotView is the time-slot template as embedded in reservation
// responses.
type SlotView struct {
	ID        uint64 `json:"id"`
	DayOfWeek int    `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	Capacity  int    `json:"capacity"`
	IsActive  bool   `json:"isActive"`
}

// ServiceView is a catalog entry as embedded in reservation responses.
type ServiceView struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Price    *int64 `json:"price"`
	Duration *int64 `json:"duration"`
}

// OwnerView is the reservation owner as shown to admins.
type OwnerView struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	License string `json:"license"`
}

// CustomerView is a reservation as returned to its owner. The admin
// memo and owner details never appear here; separate response types
// replace the old approach of stripping fields at serialization time.
type CustomerView struct {
	ID        uint64        `json:"id"`
	TimeSlot  SlotView      `json:"timeSlot"`
	Date      string        `json:"date"`
	License   string        `json:"license"`
	UserMemo  *string       `json:"userMemo"`
	IsPickup  bool          `json:"isPickup"`
	Status    string        `json:"status"`
	Services  []ServiceView `json:"services"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// AdminView is a reservation as returned to admins.
type AdminView struct {
	CustomerView
	AdminMemo *string    `json:"adminMemo"`
	User      *OwnerView `json:"user,omitempty"`
}

// AvailabilitySlot reports the booking state of one active template on
// a concrete date.
type AvailabilitySlot struct {
	ID        uint64 `json:"id"`
	DayOfWeek int    `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	Capacity  int    `json:"capacity"`
	Booked    int    `json:"booked"`
	Remaining int    `json:"remaining"`
	Available bool   `json:"available"`
}

func slotView(s model.TimeSlot) SlotView {
	return SlotView{ID: s.ID, DayOfWeek: s.DayOfWeek, StartTime: s.StartTime, Capacity: s.Capacity, IsActive: s.IsActive}
}

func serviceViews(ss []model.Service) []ServiceView {
	out := make([]ServiceView, 0, len(ss))
	for _, s := range ss {
		out = append(out, ServiceView{ID: s.ID, Name: s.Name, Price: s.Price, Duration: s.Duration})
	}
	return out
}

// NewCustomerView builds the customer-facing response for d.
func NewCustomerView(d model.ReservationDetail) CustomerView {
	return CustomerView{
		ID:        d.ID,
		TimeSlot:  slotView(d.TimeSlot),
		Date:      d.Date,
		License:   d.License,
		UserMemo:  d.UserMemo,
		IsPickup:  d.IsPickup,
		Status:    d.Status,
		Services:  serviceViews(d.Services),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// NewAdminView builds the admin-facing response for d.
func NewAdminView(d model.ReservationDetail) AdminView {
	v := AdminView{CustomerView: NewCustomerView(d), AdminMemo: d.AdminMemo}
	if d.User != nil {
		v.User = &OwnerView{ID: d.User.ID, Name: d.User.Name, Phone: d.User.Phone, License: d.User.License}
	}
	return v
}
