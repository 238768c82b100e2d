// Package booking implements the reservation allocator: capacity
// checked booking, updates, moves and cancellation on top of the
// repositories.
package booking

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog"

	"vehicle-reserve-backend/internal/domain"
	"vehicle-reserve-backend/internal/metrics"
	"vehicle-reserve-backend/internal/model"
	"vehicle-reserve-backend/internal/repository"
	"vehicle-reserve-backend/internal/utils"
)

// Notifier receives reservation lifecycle events. The AMQP publisher
// implements it in production; a no-op stands in when the broker is
// not configured.
type Notifier interface {
	ReservationConfirmed(ctx context.Context, d model.ReservationDetail)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) ReservationConfirmed(context.Context, model.ReservationDetail) {}

// Allocator coordinates reservation writes. It owns no locking of its
// own; the capacity invariant is enforced by the repository's
// conditional statements.
type Allocator struct {
	Reservations *repository.ReservationRepo
	Slots        *repository.TimeSlotRepo
	Services     *repository.ServiceRepo
	Notifier     Notifier
	Metrics      *metrics.Metrics
	Log          zerolog.Logger
}

func NewAllocator(res *repository.ReservationRepo, slots *repository.TimeSlotRepo, svcs *repository.ServiceRepo, n Notifier, m *metrics.Metrics, log zerolog.Logger) *Allocator {
	if n == nil {
		n = NopNotifier{}
	}
	return &Allocator{Reservations: res, Slots: slots, Services: svcs, Notifier: n, Metrics: m, Log: log}
}

// validateServiceIDs checks the selection is non-empty and every id
// resolves to an active catalog entry. Returns the selection with
// duplicates removed, in input order.
func (a *Allocator) validateServiceIDs(ctx context.Context, ids []uint64) ([]uint64, error) {
	if len(ids) == 0 {
		return nil, domain.Validation("at least one service must be selected")
	}
	seen := make(map[uint64]bool, len(ids))
	deduped := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			deduped = append(deduped, id)
		}
	}
	found, err := a.Services.ActiveIDs(ctx, deduped)
	if err != nil {
		return nil, err
	}
	for _, id := range deduped {
		if !found[id] {
			return nil, domain.Validation("selection contains nonexistent or disabled services")
		}
	}
	return deduped, nil
}

// Create books a reservation for userID. The slot must exist and be
// active, the date must be a real YYYY-MM-DD calendar date, and the
// plate only has to be non-empty: a booking can be for a loaner or
// temporary plate that the stricter profile validation would refuse.
// The insert itself is the atomic capacity-guarded statement, so two
// racing requests for the last opening cannot both succeed.
func (a *Allocator) Create(ctx context.Context, userID uint64, in CreateInput) (model.ReservationDetail, error) {
	if !utils.IsValidDate(in.Date) {
		return model.ReservationDetail{}, domain.Validation("date must be a valid YYYY-MM-DD date")
	}
	license := utils.NormalizeLicense(in.License)
	if license == "" {
		return model.ReservationDetail{}, domain.Validation("license must not be empty")
	}
	serviceIDs, err := a.validateServiceIDs(ctx, in.ServiceIDs)
	if err != nil {
		return model.ReservationDetail{}, err
	}

	slot, err := a.Slots.GetByID(ctx, in.TimeSlotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ReservationDetail{}, domain.NotFound("time slot not found")
		}
		return model.ReservationDetail{}, err
	}
	if !slot.IsActive {
		return model.ReservationDetail{}, domain.Validation("time slot is not active")
	}

	res := model.Reservation{
		UserID:     userID,
		TimeSlotID: slot.ID,
		Date:       in.Date,
		License:    license,
		UserMemo:   in.UserMemo,
		IsPickup:   in.IsPickup,
		Status:     model.StatusPending,
	}
	if err := a.Reservations.Create(ctx, &res, serviceIDs, slot.Capacity); err != nil {
		if errors.Is(err, repository.ErrSlotFull) {
			a.Metrics.ReservationsRejected.Inc()
			return model.ReservationDetail{}, domain.Validation("time slot is full")
		}
		return model.ReservationDetail{}, err
	}
	a.Metrics.ReservationsCreated.Inc()
	a.Log.Info().
		Uint64("reservation_id", res.ID).
		Uint64("user_id", userID).
		Uint64("time_slot_id", slot.ID).
		Str("date", in.Date).
		Msg("reservation created")

	return a.Reservations.GetDetail(ctx, res.ID)
}

// getOwned loads a reservation and enforces ownership for customers.
func (a *Allocator) getOwned(ctx context.Context, id, callerID uint64, isAdmin bool) (model.Reservation, error) {
	res, err := a.Reservations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reservation{}, domain.NotFound("reservation not found")
		}
		return model.Reservation{}, err
	}
	if !isAdmin && res.UserID != callerID {
		return model.Reservation{}, domain.Authorization("not your reservation")
	}
	return res, nil
}

// applyCustomerFields folds the customer-updatable fields of in into
// res and reports whether the slot or date changed.
func applyCustomerFields(res *model.Reservation, in CustomerUpdateInput) (moved bool, err error) {
	if in.TimeSlotID != nil && *in.TimeSlotID != res.TimeSlotID {
		res.TimeSlotID = *in.TimeSlotID
		moved = true
	}
	if in.Date != nil && *in.Date != res.Date {
		if !utils.IsValidDate(*in.Date) {
			return false, domain.Validation("date must be a valid YYYY-MM-DD date")
		}
		res.Date = *in.Date
		moved = true
	}
	if in.UserMemo != nil {
		res.UserMemo = in.UserMemo
	}
	if in.IsPickup != nil {
		res.IsPickup = *in.IsPickup
	}
	return moved, nil
}

// update is the shared update path. Moves to a different slot or date
// re-run the capacity guard at the destination.
func (a *Allocator) update(ctx context.Context, res model.Reservation, moved bool, serviceIDs []uint64) (model.ReservationDetail, error) {
	capacity := 0
	if moved {
		slot, err := a.Slots.GetByID(ctx, res.TimeSlotID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ReservationDetail{}, domain.NotFound("time slot not found")
			}
			return model.ReservationDetail{}, err
		}
		if !slot.IsActive {
			return model.ReservationDetail{}, domain.Validation("time slot is not active")
		}
		capacity = slot.Capacity
	}

	if serviceIDs != nil {
		var err error
		if serviceIDs, err = a.validateServiceIDs(ctx, serviceIDs); err != nil {
			return model.ReservationDetail{}, err
		}
	}

	if err := a.Reservations.Update(ctx, &res, moved, capacity); err != nil {
		if errors.Is(err, repository.ErrSlotFull) {
			a.Metrics.ReservationsRejected.Inc()
			return model.ReservationDetail{}, domain.Validation("time slot is full")
		}
		return model.ReservationDetail{}, err
	}
	if serviceIDs != nil {
		if err := a.Reservations.ReplaceServices(ctx, res.ID, serviceIDs); err != nil {
			return model.ReservationDetail{}, err
		}
	}
	return a.Reservations.GetDetail(ctx, res.ID)
}

// UpdateAsCustomer applies a customer update to the caller's own
// reservation. The input type itself cannot carry status or admin
// memo, so no stripping step is needed.
func (a *Allocator) UpdateAsCustomer(ctx context.Context, id, callerID uint64, in CustomerUpdateInput) (model.ReservationDetail, error) {
	res, err := a.getOwned(ctx, id, callerID, false)
	if err != nil {
		return model.ReservationDetail{}, err
	}
	if res.Status == model.StatusCancelled || res.Status == model.StatusCompleted {
		return model.ReservationDetail{}, domain.Validation("reservation can no longer be changed")
	}
	moved, err := applyCustomerFields(&res, in)
	if err != nil {
		return model.ReservationDetail{}, err
	}
	return a.update(ctx, res, moved, in.ServiceIDs)
}

// UpdateAsAdmin applies an admin update to any reservation, including
// status transitions and the admin memo. A transition to CONFIRMED
// publishes a notification event.
func (a *Allocator) UpdateAsAdmin(ctx context.Context, id uint64, in AdminUpdateInput) (model.ReservationDetail, error) {
	res, err := a.getOwned(ctx, id, 0, true)
	if err != nil {
		return model.ReservationDetail{}, err
	}
	moved, err := applyCustomerFields(&res, in.CustomerUpdateInput)
	if err != nil {
		return model.ReservationDetail{}, err
	}
	if in.License != nil {
		license := utils.NormalizeLicense(*in.License)
		if license == "" {
			return model.ReservationDetail{}, domain.Validation("license must not be empty")
		}
		res.License = license
	}
	confirmed := false
	if in.Status != nil {
		if !model.ValidStatus(*in.Status) {
			return model.ReservationDetail{}, domain.Validation("invalid status")
		}
		confirmed = *in.Status == model.StatusConfirmed && res.Status != model.StatusConfirmed
		res.Status = *in.Status
	}
	if in.AdminMemo != nil {
		res.AdminMemo = in.AdminMemo
	}

	detail, err := a.update(ctx, res, moved, in.ServiceIDs)
	if err != nil {
		return model.ReservationDetail{}, err
	}
	if confirmed {
		a.Notifier.ReservationConfirmed(ctx, detail)
	}
	return detail, nil
}

// Cancel marks a reservation CANCELLED, freeing its capacity. A
// customer can only cancel their own. Cancelling twice, or cancelling
// a completed reservation, is rejected as validation, not a crash.
func (a *Allocator) Cancel(ctx context.Context, id, callerID uint64, isAdmin bool) (model.ReservationDetail, error) {
	res, err := a.getOwned(ctx, id, callerID, isAdmin)
	if err != nil {
		return model.ReservationDetail{}, err
	}
	if res.Status == model.StatusCancelled {
		return model.ReservationDetail{}, domain.Validation("reservation is already cancelled")
	}
	if res.Status == model.StatusCompleted {
		return model.ReservationDetail{}, domain.Validation("completed reservation cannot be cancelled")
	}
	if err := a.Reservations.UpdateStatus(ctx, id, model.StatusCancelled); err != nil {
		return model.ReservationDetail{}, err
	}
	a.Metrics.ReservationsCancelled.Inc()
	a.Log.Info().Uint64("reservation_id", id).Uint64("caller_id", callerID).Msg("reservation cancelled")
	return a.Reservations.GetDetail(ctx, id)
}

// Purge permanently deletes a reservation and its service links.
// Admin only; the normal removal path is Cancel.
func (a *Allocator) Purge(ctx context.Context, id uint64) error {
	if err := a.Reservations.Purge(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("reservation not found")
		}
		return err
	}
	a.Log.Info().Uint64("reservation_id", id).Msg("reservation purged")
	return nil
}

// Get returns one reservation, ownership checked for customers.
func (a *Allocator) Get(ctx context.Context, id, callerID uint64, isAdmin bool) (model.ReservationDetail, error) {
	if _, err := a.getOwned(ctx, id, callerID, isAdmin); err != nil {
		return model.ReservationDetail{}, err
	}
	return a.Reservations.GetDetail(ctx, id)
}

// ListForCustomer returns the caller's reservations.
func (a *Allocator) ListForCustomer(ctx context.Context, userID uint64) ([]model.ReservationDetail, error) {
	return a.Reservations.ListDetailsByUser(ctx, userID)
}

// ListAll returns every reservation with owner details, for admins.
func (a *Allocator) ListAll(ctx context.Context) ([]model.ReservationDetail, error) {
	return a.Reservations.ListDetailsAll(ctx)
}

// Availability reports the booking state of each active template on
// the weekday of date. The weekday is derived from the date itself.
func (a *Allocator) Availability(ctx context.Context, date string) ([]AvailabilitySlot, error) {
	day, err := utils.Weekday(date)
	if err != nil {
		return nil, domain.Validation("date must be YYYY-MM-DD")
	}
	slots, err := a.Slots.ListActiveByDay(ctx, day)
	if err != nil {
		return nil, err
	}
	out := make([]AvailabilitySlot, 0, len(slots))
	for _, s := range slots {
		booked, err := a.Reservations.CountActive(ctx, s.ID, date)
		if err != nil {
			return nil, err
		}
		remaining := s.Capacity - booked
		if remaining < 0 {
			remaining = 0
		}
		out = append(out, AvailabilitySlot{
			ID:        s.ID,
			DayOfWeek: s.DayOfWeek,
			StartTime: s.StartTime,
			Capacity:  s.Capacity,
			Booked:    booked,
			Remaining: remaining,
			Available: remaining > 0,
		})
	}
	return out, nil
}
