package booking

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-reserve-backend/internal/database"
	"vehicle-reserve-backend/internal/domain"
	"vehicle-reserve-backend/internal/metrics"
	"vehicle-reserve-backend/internal/model"
	"vehicle-reserve-backend/internal/repository"
)

type captureNotifier struct {
	confirmed []model.ReservationDetail
}

func (n *captureNotifier) ReservationConfirmed(_ context.Context, d model.ReservationDetail) {
	n.confirmed = append(n.confirmed, d)
}

type fixture struct {
	db        *sql.DB
	alloc     *Allocator
	notifier  *captureNotifier
	user      model.User
	slot      model.TimeSlot
	service   model.Service
	serviceID []uint64
}

func newFixture(t *testing.T, capacity int) *fixture {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db, "sqlite3"))

	ctx := context.Background()
	users := repository.NewUserRepo(db)
	slots := repository.NewTimeSlotRepo(db)
	services := repository.NewServiceRepo(db)

	u := model.User{LineID: "line-1", Name: "Tester", Phone: "0912345678", Role: model.RoleCustomer}
	require.NoError(t, users.Create(ctx, &u))
	slot := model.TimeSlot{DayOfWeek: 1, StartTime: "09:00", Capacity: capacity, IsActive: true}
	require.NoError(t, slots.Create(ctx, &slot))
	svc := model.Service{Name: "Oil change", IsActive: true}
	require.NoError(t, services.Create(ctx, &svc))

	notifier := &captureNotifier{}
	alloc := NewAllocator(
		repository.NewReservationRepo(db), slots, services,
		notifier, metrics.New(prometheus.NewRegistry()), zerolog.Nop(),
	)
	return &fixture{
		db: db, alloc: alloc, notifier: notifier,
		user: u, slot: slot, service: svc, serviceID: []uint64{svc.ID},
	}
}

// 2025-06-02 is a Monday, matching the fixture slot's dayOfWeek of 1.
const monday = "2025-06-02"

func (f *fixture) createInput() CreateInput {
	return CreateInput{
		TimeSlotID: f.slot.ID,
		Date:       monday,
		License:    "abc-1234",
		ServiceIDs: f.serviceID,
	}
}

func TestAllocatorCreate(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	d, err := f.alloc.Create(ctx, f.user.ID, f.createInput())
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, d.Status)
	assert.Equal(t, "ABC-1234", d.License, "plate is normalized on the way in")
	require.Len(t, d.Services, 1)
}

func TestAllocatorCreateValidation(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	in := f.createInput()
	in.Date = "02/06/2025"
	_, err := f.alloc.Create(ctx, f.user.ID, in)
	assert.True(t, domain.IsValidation(err), "bad date: %v", err)

	// well-shaped but impossible dates are rejected too
	for _, bad := range []string{"2025-02-31", "2025-13-40", "2025-00-10"} {
		in = f.createInput()
		in.Date = bad
		_, err = f.alloc.Create(ctx, f.user.ID, in)
		assert.True(t, domain.IsValidation(err), "impossible date %s: %v", bad, err)
	}

	in = f.createInput()
	in.License = "   "
	_, err = f.alloc.Create(ctx, f.user.ID, in)
	assert.True(t, domain.IsValidation(err), "blank plate: %v", err)

	in = f.createInput()
	in.ServiceIDs = nil
	_, err = f.alloc.Create(ctx, f.user.ID, in)
	assert.True(t, domain.IsValidation(err), "empty services: %v", err)

	in = f.createInput()
	in.ServiceIDs = []uint64{9999}
	_, err = f.alloc.Create(ctx, f.user.ID, in)
	assert.True(t, domain.IsValidation(err), "unknown service: %v", err)

	f.service.IsActive = false
	require.NoError(t, f.alloc.Services.Update(ctx, &f.service))
	in = f.createInput()
	_, err = f.alloc.Create(ctx, f.user.ID, in)
	assert.True(t, domain.IsValidation(err), "disabled service: %v", err)
	f.service.IsActive = true
	require.NoError(t, f.alloc.Services.Update(ctx, &f.service))

	in = f.createInput()
	in.TimeSlotID = 9999
	_, err = f.alloc.Create(ctx, f.user.ID, in)
	assert.True(t, domain.IsNotFound(err), "missing slot: %v", err)
}

func TestAllocatorAcceptsUnusualPlates(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	// a booking plate only has to be non-empty; temporary and foreign
	// plates that fail the profile patterns are fine here
	in := f.createInput()
	in.License = " 123456 "
	d, err := f.alloc.Create(ctx, f.user.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "123456", d.License)
}

func TestAllocatorDedupesServiceSelection(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	in := f.createInput()
	in.ServiceIDs = []uint64{f.service.ID, f.service.ID, f.service.ID}
	d, err := f.alloc.Create(ctx, f.user.ID, in)
	require.NoError(t, err)
	assert.Len(t, d.Services, 1)
}

func TestAllocatorCreateInactiveSlot(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	f.slot.IsActive = false
	require.NoError(t, f.alloc.Slots.Update(ctx, &f.slot))

	_, err := f.alloc.Create(ctx, f.user.ID, f.createInput())
	assert.True(t, domain.IsValidation(err))
}

func TestAllocatorCreateFullSlot(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	_, err := f.alloc.Create(ctx, f.user.ID, f.createInput())
	require.NoError(t, err)

	_, err = f.alloc.Create(ctx, f.user.ID, f.createInput())
	assert.True(t, domain.IsValidation(err), "full slot: %v", err)
}

func TestAllocatorCancelFreesCapacity(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	d, err := f.alloc.Create(ctx, f.user.ID, f.createInput())
	require.NoError(t, err)

	got, err := f.alloc.Cancel(ctx, d.ID, f.user.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)

	// double cancel is rejected
	_, err = f.alloc.Cancel(ctx, d.ID, f.user.ID, false)
	assert.True(t, domain.IsValidation(err))

	// the opening is bookable again
	_, err = f.alloc.Create(ctx, f.user.ID, f.createInput())
	assert.NoError(t, err)
}

func TestAllocatorOwnership(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	d, err := f.alloc.Create(ctx, f.user.ID, f.createInput())
	require.NoError(t, err)

	const stranger = 777
	var ae *domain.AuthorizationError

	_, err = f.alloc.Get(ctx, d.ID, stranger, false)
	assert.ErrorAs(t, err, &ae)

	_, err = f.alloc.Cancel(ctx, d.ID, stranger, false)
	assert.ErrorAs(t, err, &ae)

	memo := "mine now"
	_, err = f.alloc.UpdateAsCustomer(ctx, d.ID, stranger, CustomerUpdateInput{UserMemo: &memo})
	assert.ErrorAs(t, err, &ae)

	// admins bypass ownership
	_, err = f.alloc.Get(ctx, d.ID, stranger, true)
	assert.NoError(t, err)
}

func TestAllocatorCustomerUpdate(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	d, err := f.alloc.Create(ctx, f.user.ID, f.createInput())
	require.NoError(t, err)

	memo := "please check brakes"
	pickup := true
	got, err := f.alloc.UpdateAsCustomer(ctx, d.ID, f.user.ID, CustomerUpdateInput{
		UserMemo: &memo,
		IsPickup: &pickup,
	})
	require.NoError(t, err)
	require.NotNil(t, got.UserMemo)
	assert.Equal(t, memo, *got.UserMemo)
	assert.True(t, got.IsPickup)
	assert.Equal(t, model.StatusPending, got.Status)

	// moving to an impossible calendar date is rejected
	bad := "2025-02-31"
	_, err = f.alloc.UpdateAsCustomer(ctx, d.ID, f.user.ID, CustomerUpdateInput{Date: &bad})
	assert.True(t, domain.IsValidation(err), "impossible date: %v", err)
}

func TestAllocatorAdminStatusTransitionNotifies(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	d, err := f.alloc.Create(ctx, f.user.ID, f.createInput())
	require.NoError(t, err)

	status := model.StatusConfirmed
	memo := "confirmed by shop"
	plate := "xyz-9999"
	got, err := f.alloc.UpdateAsAdmin(ctx, d.ID, AdminUpdateInput{
		License:   &plate,
		Status:    &status,
		AdminMemo: &memo,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, got.Status)
	assert.Equal(t, "XYZ-9999", got.License)
	require.NotNil(t, got.AdminMemo)
	require.Len(t, f.notifier.confirmed, 1)
	assert.Equal(t, d.ID, f.notifier.confirmed[0].ID)

	// re-confirming an already confirmed reservation publishes nothing
	_, err = f.alloc.UpdateAsAdmin(ctx, d.ID, AdminUpdateInput{Status: &status})
	require.NoError(t, err)
	assert.Len(t, f.notifier.confirmed, 1)

	bad := "WHATEVER"
	_, err = f.alloc.UpdateAsAdmin(ctx, d.ID, AdminUpdateInput{Status: &bad})
	assert.True(t, domain.IsValidation(err))
}

func TestAllocatorCompletedIsFrozenForCustomers(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	d, err := f.alloc.Create(ctx, f.user.ID, f.createInput())
	require.NoError(t, err)

	status := model.StatusCompleted
	_, err = f.alloc.UpdateAsAdmin(ctx, d.ID, AdminUpdateInput{Status: &status})
	require.NoError(t, err)

	memo := "too late"
	_, err = f.alloc.UpdateAsCustomer(ctx, d.ID, f.user.ID, CustomerUpdateInput{UserMemo: &memo})
	assert.True(t, domain.IsValidation(err))

	// and it can no longer be cancelled either
	_, err = f.alloc.Cancel(ctx, d.ID, f.user.ID, false)
	assert.True(t, domain.IsValidation(err))
}

func TestAllocatorAvailability(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	slots, err := f.alloc.Availability(ctx, monday)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, 2, slots[0].Remaining)
	assert.True(t, slots[0].Available)

	_, err = f.alloc.Create(ctx, f.user.ID, f.createInput())
	require.NoError(t, err)
	_, err = f.alloc.Create(ctx, f.user.ID, f.createInput())
	require.NoError(t, err)

	slots, err = f.alloc.Availability(ctx, monday)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, 2, slots[0].Booked)
	assert.Equal(t, 0, slots[0].Remaining)
	assert.False(t, slots[0].Available)

	// a Tuesday has no templates at all
	slots, err = f.alloc.Availability(ctx, "2025-06-03")
	require.NoError(t, err)
	assert.Empty(t, slots)

	_, err = f.alloc.Availability(ctx, "garbage")
	assert.True(t, domain.IsValidation(err))
}

func TestAllocatorPurge(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	d, err := f.alloc.Create(ctx, f.user.ID, f.createInput())
	require.NoError(t, err)

	require.NoError(t, f.alloc.Purge(ctx, d.ID))
	assert.True(t, domain.IsNotFound(f.alloc.Purge(ctx, d.ID)))
}
