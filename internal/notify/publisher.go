// Package notify publishes reservation lifecycle events to RabbitMQ.
// Publishing is best effort: a broker outage must never fail the
// request that triggered the event.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"vehicle-reserve-backend/internal/model"
	"vehicle-reserve-backend/internal/queue"
)

// Publisher implements booking.Notifier over AMQP. Connections are
// dialed per publish; confirmation volume is low enough that holding
// a channel open buys nothing.
type Publisher struct {
	URL string
	Log zerolog.Logger
}

func NewPublisher(url string, log zerolog.Logger) *Publisher {
	return &Publisher{URL: url, Log: log}
}

// ReservationConfirmed publishes the confirmation event for d. Errors
// are logged and swallowed.
func (p *Publisher) ReservationConfirmed(ctx context.Context, d model.ReservationDetail) {
	ev := queue.ReservationConfirmedEvent{
		EventID:       uuid.NewString(),
		ReservationID: d.ID,
		UserID:        d.UserID,
		License:       d.License,
		Date:          d.Date,
		StartTime:     d.TimeSlot.StartTime,
		IsPickup:      d.IsPickup,
		ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if d.User != nil {
		ev.UserName = d.User.Name
		ev.Phone = d.User.Phone
	}
	for _, s := range d.Services {
		ev.Services = append(ev.Services, s.Name)
	}

	if err := p.publish(ctx, ev); err != nil {
		p.Log.Warn().Err(err).Uint64("reservation_id", d.ID).Msg("publish confirmation failed")
	}
}

func (p *Publisher) publish(ctx context.Context, ev queue.ReservationConfirmedEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queue.QueueName, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, "", queue.QueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}
