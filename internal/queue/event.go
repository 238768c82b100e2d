// Package queue defines the message payloads exchanged over the
// broker and the background consumer for them.
package queue

// QueueName is the durable queue carrying reservation confirmations.
const QueueName = "reservation.confirmed"

// ReservationConfirmedEvent is published when an admin confirms a
// reservation. It carries enough detail for downstream consumers to
// notify the customer or feed analytics without querying the primary
// database.
type ReservationConfirmedEvent struct {
	EventID       string   `json:"event_id"`
	ReservationID uint64   `json:"reservation_id"`
	UserID        uint64   `json:"user_id"`
	UserName      string   `json:"user_name"`
	Phone         string   `json:"phone"`
	License       string   `json:"license"`
	Date          string   `json:"date"`
	StartTime     string   `json:"start_time"`
	IsPickup      bool     `json:"is_pickup"`
	Services      []string `json:"services"`
	ConfirmedAt   string   `json:"confirmed_at"`
}
