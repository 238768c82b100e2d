package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-reserve-backend/internal/model"
)

func newReservation(userID, slotID uint64, date string) model.Reservation {
	return model.Reservation{
		UserID:     userID,
		TimeSlotID: slotID,
		Date:       date,
		License:    "ABC-1234",
		Status:     model.StatusPending,
	}
}

func TestCreateWithinCapacity(t *testing.T) {
	db := openTestDB(t)
	repo := NewReservationRepo(db)
	u := seedUser(t, db, "line-1")
	slot := seedSlot(t, db, 1, "09:00", 2)
	svc := seedService(t, db, "Oil change")

	ctx := context.Background()
	res := newReservation(u.ID, slot.ID, "2025-06-02")
	require.NoError(t, repo.Create(ctx, &res, []uint64{svc.ID}, slot.Capacity))
	assert.NotZero(t, res.ID)
	assert.Equal(t, model.StatusPending, res.Status)

	detail, err := repo.GetDetail(ctx, res.ID)
	require.NoError(t, err)
	require.Len(t, detail.Services, 1)
	assert.Equal(t, "Oil change", detail.Services[0].Name)
	assert.Equal(t, "09:00", detail.TimeSlot.StartTime)
}

func TestCreateRejectsWhenFull(t *testing.T) {
	db := openTestDB(t)
	repo := NewReservationRepo(db)
	u := seedUser(t, db, "line-1")
	slot := seedSlot(t, db, 1, "09:00", 1)
	svc := seedService(t, db, "Inspection")

	ctx := context.Background()
	first := newReservation(u.ID, slot.ID, "2025-06-02")
	require.NoError(t, repo.Create(ctx, &first, []uint64{svc.ID}, slot.Capacity))

	second := newReservation(u.ID, slot.ID, "2025-06-02")
	err := repo.Create(ctx, &second, []uint64{svc.ID}, slot.Capacity)
	assert.ErrorIs(t, err, ErrSlotFull)

	// the same slot on another date is unaffected
	other := newReservation(u.ID, slot.ID, "2025-06-09")
	assert.NoError(t, repo.Create(ctx, &other, []uint64{svc.ID}, slot.Capacity))
}

func TestCancelledDoesNotCountAgainstCapacity(t *testing.T) {
	db := openTestDB(t)
	repo := NewReservationRepo(db)
	u := seedUser(t, db, "line-1")
	slot := seedSlot(t, db, 1, "09:00", 1)
	svc := seedService(t, db, "Inspection")

	ctx := context.Background()
	first := newReservation(u.ID, slot.ID, "2025-06-02")
	require.NoError(t, repo.Create(ctx, &first, []uint64{svc.ID}, slot.Capacity))
	require.NoError(t, repo.UpdateStatus(ctx, first.ID, model.StatusCancelled))

	n, err := repo.CountActive(ctx, slot.ID, "2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// the freed opening can be booked again
	second := newReservation(u.ID, slot.ID, "2025-06-02")
	assert.NoError(t, repo.Create(ctx, &second, []uint64{svc.ID}, slot.Capacity))
}

// TestConcurrentCreatesNeverExceedCapacity races many writers at one
// opening and checks the non-cancelled count never exceeds capacity.
func TestConcurrentCreatesNeverExceedCapacity(t *testing.T) {
	db := openTestDB(t)
	repo := NewReservationRepo(db)
	u := seedUser(t, db, "line-1")
	svc := seedService(t, db, "Inspection")

	const (
		capacity = 3
		writers  = 20
	)
	slot := seedSlot(t, db, 1, "09:00", capacity)

	ctx := context.Background()
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		rejected int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := newReservation(u.ID, slot.ID, "2025-06-02")
			err := repo.Create(ctx, &res, []uint64{svc.ID}, capacity)
			mu.Lock()
			defer mu.Unlock()
			switch err {
			case nil:
				accepted++
			case ErrSlotFull:
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, capacity, accepted)
	assert.Equal(t, writers-capacity, rejected)

	n, err := repo.CountActive(ctx, slot.ID, "2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, capacity, n)
}

func TestUpdateMoveGuardsDestination(t *testing.T) {
	db := openTestDB(t)
	repo := NewReservationRepo(db)
	u := seedUser(t, db, "line-1")
	svc := seedService(t, db, "Inspection")
	from := seedSlot(t, db, 1, "09:00", 2)
	to := seedSlot(t, db, 1, "10:00", 1)

	ctx := context.Background()
	blocker := newReservation(u.ID, to.ID, "2025-06-02")
	require.NoError(t, repo.Create(ctx, &blocker, []uint64{svc.ID}, to.Capacity))

	moving := newReservation(u.ID, from.ID, "2025-06-02")
	require.NoError(t, repo.Create(ctx, &moving, []uint64{svc.ID}, from.Capacity))

	// destination is full
	moving.TimeSlotID = to.ID
	err := repo.Update(ctx, &moving, true, to.Capacity)
	assert.ErrorIs(t, err, ErrSlotFull)

	// cancelling the blocker frees the destination
	require.NoError(t, repo.UpdateStatus(ctx, blocker.ID, model.StatusCancelled))
	assert.NoError(t, repo.Update(ctx, &moving, true, to.Capacity))

	got, err := repo.GetByID(ctx, moving.ID)
	require.NoError(t, err)
	assert.Equal(t, to.ID, got.TimeSlotID)
}

func TestUpdateSameSlotDoesNotCountItself(t *testing.T) {
	db := openTestDB(t)
	repo := NewReservationRepo(db)
	u := seedUser(t, db, "line-1")
	svc := seedService(t, db, "Inspection")
	slot := seedSlot(t, db, 1, "09:00", 1)

	ctx := context.Background()
	res := newReservation(u.ID, slot.ID, "2025-06-02")
	require.NoError(t, repo.Create(ctx, &res, []uint64{svc.ID}, slot.Capacity))

	// editing in place with the guard on must not self-collide
	res.License = "XYZ-9999"
	assert.NoError(t, repo.Update(ctx, &res, true, slot.Capacity))
}

func TestPurgeRemovesServiceLinks(t *testing.T) {
	db := openTestDB(t)
	repo := NewReservationRepo(db)
	u := seedUser(t, db, "line-1")
	svc := seedService(t, db, "Inspection")
	slot := seedSlot(t, db, 1, "09:00", 1)

	ctx := context.Background()
	res := newReservation(u.ID, slot.ID, "2025-06-02")
	require.NoError(t, repo.Create(ctx, &res, []uint64{svc.ID}, slot.Capacity))
	require.NoError(t, repo.Purge(ctx, res.ID))

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM reservation_services WHERE reservation_id=?", res.ID).Scan(&n))
	assert.Zero(t, n)

	err := repo.Purge(ctx, res.ID)
	assert.Error(t, err)
}

func TestListDetailsByUserScopes(t *testing.T) {
	db := openTestDB(t)
	repo := NewReservationRepo(db)
	a := seedUser(t, db, "line-a")
	b := seedUser(t, db, "line-b")
	svc := seedService(t, db, "Inspection")
	slot := seedSlot(t, db, 1, "09:00", 5)

	ctx := context.Background()
	for _, uid := range []uint64{a.ID, a.ID, b.ID} {
		res := newReservation(uid, slot.ID, "2025-06-02")
		require.NoError(t, repo.Create(ctx, &res, []uint64{svc.ID}, slot.Capacity))
	}

	mine, err := repo.ListDetailsByUser(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, d := range mine {
		assert.Equal(t, a.ID, d.UserID)
		assert.Nil(t, d.User) // owner details only load on admin listings
	}

	all, err := repo.ListDetailsAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	for _, d := range all {
		require.NotNil(t, d.User)
	}
}
