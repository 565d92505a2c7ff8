package get_availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-FacilityBookingService/internal/admission"
	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
	"github.com/m04kA/SMC-FacilityBookingService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-FacilityBookingService/internal/integrations/userservice"
	"github.com/m04kA/SMC-FacilityBookingService/internal/usecase/snapshot"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/logger"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/types"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var (
	now  = time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	date = time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
)

func setup(t *testing.T) (*UseCase, *memory.Store, *domain.Facility, *domain.TimeSlot) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	f, err := store.Facilities().Create(ctx, &domain.Facility{Name: "Badminton", CapacityPerSlot: 2, MaxDuration: 45, IsActive: true})
	require.NoError(t, err)

	morning := &domain.TimeSlot{StartTime: types.MustTimeString("08:00"), EndTime: types.MustTimeString("08:45"), Session: domain.SessionMorning}
	_, err = store.Slots().Ensure(ctx, morning)
	require.NoError(t, err)
	_, err = store.Slots().Ensure(ctx, &domain.TimeSlot{StartTime: types.MustTimeString("17:00"), EndTime: types.MustTimeString("17:45"), Session: domain.SessionEvening})
	require.NoError(t, err)

	loader := snapshot.NewLoader(store.Reservations(), store.Facilities(), store.Slots(), store.Closures(), userservice.NewStatic())
	uc := NewUseCase(loader, admission.NewEngine(), logger.NewNop()).WithTimeProvider(fixedClock{t: now})
	return uc, store, f, morning
}

func TestExecute_RemainingPerSlot(t *testing.T) {
	uc, store, f, morning := setup(t)
	ctx := context.Background()

	for userID := int64(1); userID <= 2; userID++ {
		_, err := store.Reservations().Create(ctx, &domain.Reservation{UserID: userID, FacilityID: f.ID, SlotID: morning.ID, BookingDate: date, Status: domain.StatusActive})
		require.NoError(t, err)
	}

	resp, err := uc.Execute(ctx, &Request{FacilityID: f.ID, Date: date})
	require.NoError(t, err)
	require.Len(t, resp.Slots, 2)
	assert.False(t, resp.Closed)

	assert.Equal(t, "08:00", resp.Slots[0].StartTime.String())
	assert.Equal(t, 2, resp.Slots[0].Booked)
	assert.Equal(t, 0, resp.Slots[0].Remaining)
	assert.Equal(t, 100.0, resp.Slots[0].Occupancy)
	assert.False(t, resp.Slots[0].Bookable)

	assert.Equal(t, "evening", resp.Slots[1].Session)
	assert.Equal(t, 2, resp.Slots[1].Remaining)
	assert.Zero(t, resp.Slots[1].Occupancy)
	assert.True(t, resp.Slots[1].Bookable)
}

func TestExecute_Closures(t *testing.T) {
	uc, store, f, _ := setup(t)
	ctx := context.Background()

	other := f.ID + 100
	_, err := store.Closures().Create(ctx, &domain.Closure{Date: date, FacilityID: &other, Description: "Other"})
	require.NoError(t, err)

	resp, err := uc.Execute(ctx, &Request{FacilityID: f.ID, Date: date})
	require.NoError(t, err)
	assert.False(t, resp.Closed)

	_, err = store.Closures().Create(ctx, &domain.Closure{Date: date, Description: "Holiday"})
	require.NoError(t, err)

	resp, err = uc.Execute(ctx, &Request{FacilityID: f.ID, Date: date})
	require.NoError(t, err)
	assert.True(t, resp.Closed)
	require.Len(t, resp.Closures, 1)
	assert.True(t, resp.Closures[0].Global)
	for _, s := range resp.Slots {
		assert.False(t, s.Bookable)
	}
}

func TestExecute_Errors(t *testing.T) {
	uc, _, f, _ := setup(t)
	ctx := context.Background()

	_, err := uc.Execute(ctx, &Request{FacilityID: 999, Date: date})
	assert.ErrorIs(t, err, ErrFacilityNotFound)

	_, err = uc.Execute(ctx, &Request{FacilityID: f.ID, Date: date.AddDate(0, 0, -5)})
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = uc.Execute(ctx, &Request{FacilityID: 0, Date: date})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
