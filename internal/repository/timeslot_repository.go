package repository

import (
	"context"
	"database/sql"
	"time"

	"vehicle-reserve-backend/internal/model"
)

// TimeSlotRepo provides CRUD for the weekly time slot templates.
type TimeSlotRepo struct{ DB *sql.DB }

func NewTimeSlotRepo(db *sql.DB) *TimeSlotRepo { return &TimeSlotRepo{DB: db} }

const slotColumns = "id, day_of_week, start_time, capacity, is_active, created_at, updated_at"

func scanSlot(sc interface{ Scan(...any) error }) (model.TimeSlot, error) {
	var s model.TimeSlot
	err := sc.Scan(&s.ID, &s.DayOfWeek, &s.StartTime, &s.Capacity, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// Create inserts a template. A (day_of_week, start_time) collision
// maps to ErrDuplicate.
func (r *TimeSlotRepo) Create(ctx context.Context, s *model.TimeSlot) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO time_slots (day_of_week, start_time, capacity, is_active) VALUES (?,?,?,?)",
		s.DayOfWeek, s.StartTime, s.Capacity, s.IsActive)
	if err != nil {
		if isDuplicateErr(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*s = created
	return nil
}

func (r *TimeSlotRepo) list(ctx context.Context, query string, args ...any) ([]model.TimeSlot, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.TimeSlot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// List returns all templates ordered by weekday then start time.
func (r *TimeSlotRepo) List(ctx context.Context) ([]model.TimeSlot, error) {
	return r.list(ctx,
		"SELECT "+slotColumns+" FROM time_slots ORDER BY day_of_week ASC, start_time ASC")
}

// ListActive returns only templates with is_active set, in the same
// order as List.
func (r *TimeSlotRepo) ListActive(ctx context.Context) ([]model.TimeSlot, error) {
	return r.list(ctx,
		"SELECT "+slotColumns+" FROM time_slots WHERE is_active=? ORDER BY day_of_week ASC, start_time ASC", true)
}

// ListActiveByDay returns active templates for one weekday ordered by
// start time. Used by the availability query.
func (r *TimeSlotRepo) ListActiveByDay(ctx context.Context, dayOfWeek int) ([]model.TimeSlot, error) {
	return r.list(ctx,
		"SELECT "+slotColumns+" FROM time_slots WHERE is_active=? AND day_of_week=? ORDER BY start_time ASC", true, dayOfWeek)
}

// GetByID fetches one template. Returns sql.ErrNoRows when absent.
func (r *TimeSlotRepo) GetByID(ctx context.Context, id uint64) (model.TimeSlot, error) {
	return scanSlot(r.DB.QueryRowContext(ctx,
		"SELECT "+slotColumns+" FROM time_slots WHERE id=? LIMIT 1", id))
}

// Update persists all mutable fields of s. A (day_of_week, start_time)
// collision with another template maps to ErrDuplicate.
func (r *TimeSlotRepo) Update(ctx context.Context, s *model.TimeSlot) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE time_slots SET day_of_week=?, start_time=?, capacity=?, is_active=?, updated_at=? WHERE id=?",
		s.DayOfWeek, s.StartTime, s.Capacity, s.IsActive, time.Now().UTC(), s.ID)
	if err != nil && isDuplicateErr(err) {
		return ErrDuplicate
	}
	return err
}

// Delete removes a template only when no reservations reference it.
// Returns ErrHasReservations otherwise, or sql.ErrNoRows when the
// template does not exist.
func (r *TimeSlotRepo) Delete(ctx context.Context, id uint64) error {
	var n int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservations WHERE time_slot_id=?", id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrHasReservations
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM time_slots WHERE id=?", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
