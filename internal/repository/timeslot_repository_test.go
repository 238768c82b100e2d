package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-reserve-backend/internal/model"
)

func TestTimeSlotUniqueDayTime(t *testing.T) {
	db := openTestDB(t)
	repo := NewTimeSlotRepo(db)
	ctx := context.Background()

	first := model.TimeSlot{DayOfWeek: 2, StartTime: "09:00", Capacity: 1, IsActive: true}
	require.NoError(t, repo.Create(ctx, &first))

	dup := model.TimeSlot{DayOfWeek: 2, StartTime: "09:00", Capacity: 3, IsActive: true}
	assert.ErrorIs(t, repo.Create(ctx, &dup), ErrDuplicate)

	// same time on another day is fine
	other := model.TimeSlot{DayOfWeek: 3, StartTime: "09:00", Capacity: 1, IsActive: true}
	assert.NoError(t, repo.Create(ctx, &other))

	// moving onto an occupied pair collides too
	other.DayOfWeek = 2
	assert.ErrorIs(t, repo.Update(ctx, &other), ErrDuplicate)

	// re-saving a slot with its own unchanged pair never collides
	first.Capacity = 5
	assert.NoError(t, repo.Update(ctx, &first))
}

func TestTimeSlotListOrdering(t *testing.T) {
	db := openTestDB(t)
	repo := NewTimeSlotRepo(db)
	ctx := context.Background()

	for _, s := range []model.TimeSlot{
		{DayOfWeek: 3, StartTime: "09:00", Capacity: 1, IsActive: true},
		{DayOfWeek: 1, StartTime: "14:00", Capacity: 1, IsActive: true},
		{DayOfWeek: 1, StartTime: "09:00", Capacity: 1, IsActive: false},
	} {
		s := s
		require.NoError(t, repo.Create(ctx, &s))
	}

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"09:00", "14:00", "09:00"}, []string{all[0].StartTime, all[1].StartTime, all[2].StartTime})
	assert.Equal(t, []int{1, 1, 3}, []int{all[0].DayOfWeek, all[1].DayOfWeek, all[2].DayOfWeek})

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestTimeSlotDeleteRestricted(t *testing.T) {
	db := openTestDB(t)
	slots := NewTimeSlotRepo(db)
	reservations := NewReservationRepo(db)
	ctx := context.Background()

	u := seedUser(t, db, "line-1")
	svc := seedService(t, db, "Inspection")
	slot := seedSlot(t, db, 1, "09:00", 1)

	res := newReservation(u.ID, slot.ID, "2025-06-02")
	require.NoError(t, reservations.Create(ctx, &res, []uint64{svc.ID}, slot.Capacity))

	// referenced: refused even after the reservation is cancelled
	assert.ErrorIs(t, slots.Delete(ctx, slot.ID), ErrHasReservations)
	require.NoError(t, reservations.UpdateStatus(ctx, res.ID, model.StatusCancelled))
	assert.ErrorIs(t, slots.Delete(ctx, slot.ID), ErrHasReservations)

	// unreferenced slots delete fine
	free := seedSlot(t, db, 1, "10:00", 1)
	assert.NoError(t, slots.Delete(ctx, free.ID))
}

func TestTimeSlotDefaults(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	// capacity falls back to the schema default when inserted raw
	_, err := db.ExecContext(ctx, "INSERT INTO time_slots (day_of_week, start_time) VALUES (4, '11:00')")
	require.NoError(t, err)

	slots, err := NewTimeSlotRepo(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, 1, slots[0].Capacity)
	assert.True(t, slots[0].IsActive)
}
