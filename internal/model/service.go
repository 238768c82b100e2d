package model

import "time"

// Service is a priced, timed offering from the shop's catalog (oil
// change, tire rotation, ...). Services are soft-disabled through
// IsActive so historical reservations keep their references.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – service name, required.
//  Description – optional free-form description.
//  Price       – optional price, never negative.
//  Duration    – optional duration in minutes, positive when set.
//  IsActive    – whether the service can be attached to new reservations.
//  CreatedAt   – timestamp of creation.
//  UpdatedAt   – timestamp of last update.
type Service struct {
	ID          uint64    // services.id
	Name        string    // services.name
	Description *string   // services.description (nullable)
	Price       *int64    // services.price (nullable)
	Duration    *int64    // services.duration (nullable, minutes)
	IsActive    bool      // services.is_active
	CreatedAt   time.Time // services.created_at
	UpdatedAt   time.Time // services.updated_at
}
