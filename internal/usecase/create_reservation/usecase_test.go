package create_reservation

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/m04kA/SMC-FacilityBookingService/internal/admission"
	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
	"github.com/m04kA/SMC-FacilityBookingService/internal/infra/events"
	"github.com/m04kA/SMC-FacilityBookingService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-FacilityBookingService/internal/integrations/userservice"
	"github.com/m04kA/SMC-FacilityBookingService/internal/service/payments"
	"github.com/m04kA/SMC-FacilityBookingService/internal/usecase/snapshot"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/keylock"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/logger"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/metrics"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/txmanager"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/types"
)

var now = time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fixture struct {
	uc        *UseCase
	store     *memory.Store
	users     *userservice.Static
	recorder  *payments.Recorder
	published *events.Recorder

	badminton *domain.Facility
	tennis    *domain.Facility
	morning   *domain.TimeSlot
	evening   *domain.TimeSlot
}

func newFixture(t *testing.T, serializer Serializer) *fixture {
	t.Helper()
	ctx := context.Background()
	log := logger.NewNop()
	m := metrics.NewWithRegistry("test", prometheus.NewRegistry())

	store := memory.NewStore()
	badminton, err := store.Facilities().Create(ctx, &domain.Facility{Name: "Badminton", CapacityPerSlot: 8, MaxDuration: 45, IsActive: true})
	require.NoError(t, err)
	tennis, err := store.Facilities().Create(ctx, &domain.Facility{Name: "Tennis", CapacityPerSlot: 2, MaxDuration: 45, IsActive: true})
	require.NoError(t, err)

	morning := &domain.TimeSlot{StartTime: types.MustTimeString("08:00"), EndTime: types.MustTimeString("09:00"), Session: domain.SessionMorning}
	evening := &domain.TimeSlot{StartTime: types.MustTimeString("17:00"), EndTime: types.MustTimeString("17:45"), Session: domain.SessionEvening}
	_, err = store.Slots().Ensure(ctx, morning)
	require.NoError(t, err)
	_, err = store.Slots().Ensure(ctx, evening)
	require.NoError(t, err)

	users := userservice.NewStatic()
	for id := int64(1); id <= 30; id++ {
		users.Put(domain.User{ID: id, Status: domain.UserStatusApproved, Category: "student"}, true)
	}

	if serializer == nil {
		serializer = keylock.New(keylock.WithTimeout(time.Second))
	}

	loader := snapshot.NewLoader(store.Reservations(), store.Facilities(), store.Slots(), store.Closures(), users)
	recorder := payments.NewRecorder(store.Payments(), m, log, true, 100, time.Second)
	published := &events.Recorder{}

	uc := NewUseCase(store.Reservations(), loader, admission.NewEngine(), serializer, recorder, published, m, log).
		WithTimeProvider(fixedClock{t: now})

	return &fixture{
		uc:        uc,
		store:     store,
		users:     users,
		recorder:  recorder,
		published: published,
		badminton: badminton,
		tennis:    tennis,
		morning:   morning,
		evening:   evening,
	}
}

func (f *fixture) request(userID int64, facility *domain.Facility, slot *domain.TimeSlot, days int) *Request {
	return &Request{
		UserID:     userID,
		FacilityID: facility.ID,
		SlotID:     slot.ID,
		Date:       time.Date(2026, 10, 18+days, 0, 0, 0, 0, time.UTC),
	}
}

func rejectionCode(t *testing.T, err error) admission.Code {
	t.Helper()
	var rejection *admission.Rejection
	require.True(t, errors.As(err, &rejection), "expected rejection, got %v", err)
	return rejection.Code
}

func TestExecute_Admits(t *testing.T) {
	f := newFixture(t, nil)

	resp, err := f.uc.Execute(context.Background(), f.request(1, f.badminton, f.morning, 2))
	require.NoError(t, err)
	assert.NotZero(t, resp.ID)
	assert.Equal(t, "active", resp.Status)
	assert.Equal(t, "morning", resp.Session)
	assert.Equal(t, "08:00", resp.StartTime.String())

	f.recorder.Wait()
	paid, err := f.store.Payments().ListByReservation(context.Background(), resp.ID)
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, 100.0, paid[0].Amount)

	assert.Equal(t, []string{events.KeyReservationCreated}, f.published.Keys())
}

func TestExecute_CapacityUnderConcurrency(t *testing.T) {
	f := newFixture(t, nil)

	var admitted, full atomic.Int32
	g, ctx := errgroup.WithContext(context.Background())
	for userID := int64(1); userID <= 20; userID++ {
		req := f.request(userID, f.badminton, f.morning, 2)
		g.Go(func() error {
			_, err := f.uc.Execute(ctx, req)
			if err == nil {
				admitted.Add(1)
				return nil
			}
			var rejection *admission.Rejection
			if errors.As(err, &rejection) && rejection.Code == admission.CodeSlotFull {
				full.Add(1)
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(8), admitted.Load())
	assert.Equal(t, int32(12), full.Load())

	count, err := f.store.Reservations().CountActive(context.Background(), domain.SlotKey{
		FacilityID: f.badminton.ID,
		SlotID:     f.morning.ID,
		Date:       time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, 8, count)

	_, err = f.uc.Execute(context.Background(), f.request(21, f.badminton, f.morning, 2))
	assert.Equal(t, admission.CodeSlotFull, rejectionCode(t, err))

	f.recorder.Wait()
	assert.Len(t, f.published.Keys(), 8)
}

func TestExecute_SameUserConcurrentFutureDays(t *testing.T) {
	f := newFixture(t, nil)

	var admitted, limited atomic.Int32
	var g errgroup.Group
	for i := 0; i < 10; i++ {
		req := f.request(1, f.tennis, f.evening, 1+i%2)
		if i%2 == 1 {
			req = f.request(1, f.badminton, f.morning, 3)
		}
		g.Go(func() error {
			_, err := f.uc.Execute(context.Background(), req)
			if err == nil {
				admitted.Add(1)
				return nil
			}
			var rejection *admission.Rejection
			if errors.As(err, &rejection) {
				limited.Add(1)
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	mine, err := f.store.Reservations().ActiveByUserFrom(context.Background(), 1, now)
	require.NoError(t, err)
	require.NotEmpty(t, mine)

	dates := map[string]struct{}{}
	for _, r := range mine {
		dates[r.BookingDate.Format(domain.DateFormat)] = struct{}{}
	}
	assert.Len(t, dates, 1, "user never holds two distinct future dates")
	assert.Equal(t, int32(10), admitted.Load()+limited.Load())
}

func TestExecute_Rejections(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.uc.Execute(ctx, f.request(1, f.badminton, f.morning, 2))
	require.NoError(t, err)

	t.Run("future day limit", func(t *testing.T) {
		_, err := f.uc.Execute(ctx, f.request(1, f.badminton, f.evening, 3))
		assert.Equal(t, admission.CodeFutureBookingLimitExceeded, rejectionCode(t, err))
	})

	t.Run("shift limit on another facility", func(t *testing.T) {
		_, err := f.uc.Execute(ctx, f.request(1, f.tennis, f.morning, 2))
		assert.Equal(t, admission.CodeShiftLimitExceeded, rejectionCode(t, err))
	})

	t.Run("rejection is idempotent", func(t *testing.T) {
		_, first := f.uc.Execute(ctx, f.request(1, f.tennis, f.morning, 2))
		_, second := f.uc.Execute(ctx, f.request(1, f.tennis, f.morning, 2))
		assert.Equal(t, first, second)
	})

	t.Run("membership required", func(t *testing.T) {
		f.users.Put(domain.User{ID: 25, Status: domain.UserStatusApproved}, false)
		_, err := f.uc.Execute(ctx, f.request(25, f.badminton, f.morning, 2))
		assert.Equal(t, admission.CodeMembershipRequired, rejectionCode(t, err))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := f.uc.Execute(ctx, f.request(99, f.badminton, f.morning, 2))
		assert.Equal(t, admission.CodeInvalidRequest, rejectionCode(t, err))
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := f.uc.Execute(ctx, &Request{UserID: 2, FacilityID: f.badminton.ID, SlotID: f.morning.ID})
		assert.Equal(t, admission.CodeInvalidRequest, rejectionCode(t, err))
	})

	t.Run("global closure", func(t *testing.T) {
		_, err := f.store.Closures().Create(ctx, &domain.Closure{Date: time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC), Description: "Holiday"})
		require.NoError(t, err)
		_, err = f.uc.Execute(ctx, f.request(3, f.tennis, f.evening, 7))
		assert.Equal(t, admission.CodeFacilityClosed, rejectionCode(t, err))
	})

	f.recorder.Wait()
	assert.Equal(t, []string{events.KeyReservationCreated}, f.published.Keys())
}

func TestExecute_TransientFailures(t *testing.T) {
	t.Run("lock timeout", func(t *testing.T) {
		f := newFixture(t, SerializerFunc(func(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
			return keylock.ErrLockTimeout
		}))

		_, err := f.uc.Execute(context.Background(), f.request(1, f.badminton, f.morning, 2))
		assert.ErrorIs(t, err, ErrTransient)
		assert.ErrorIs(t, err, keylock.ErrLockTimeout)

		all, err := f.store.Reservations().List(context.Background(), domain.ReservationsFilter{})
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("postgres lock timeout", func(t *testing.T) {
		db := &lockTimeoutDB{}
		txMgr := txmanager.NewTransactionManager(db, txmanager.WithLockTimeout(time.Second))
		f := newFixture(t, SerializerFunc(txMgr.DoKeyed))

		_, err := f.uc.Execute(context.Background(), f.request(1, f.badminton, f.morning, 2))
		assert.ErrorIs(t, err, ErrTransient)
		assert.ErrorIs(t, err, txmanager.ErrLockTimeout)
		assert.Equal(t, 1, db.begun)
	})

	t.Run("user service unavailable", func(t *testing.T) {
		f := newFixture(t, nil)
		f.uc.loader = snapshot.NewLoader(f.store.Reservations(), f.store.Facilities(), f.store.Slots(), f.store.Closures(), downDirectory{})

		_, err := f.uc.Execute(context.Background(), f.request(1, f.badminton, f.morning, 2))
		assert.ErrorIs(t, err, ErrTransient)
		assert.ErrorIs(t, err, userservice.ErrUnavailable)
	})
}

// lockTimeoutDB транзакция, в которой advisory lock всегда падает по lock_timeout
type lockTimeoutDB struct{ begun int }

func (db *lockTimeoutDB) BeginTx(context.Context, *sql.TxOptions) (dbmetrics.TxExecutor, error) {
	db.begun++
	return lockTimeoutTx{}, nil
}

type lockTimeoutTx struct{}

func (lockTimeoutTx) ExecContext(_ context.Context, query string, _ ...interface{}) (sql.Result, error) {
	if strings.Contains(query, "pg_advisory_xact_lock") {
		return nil, &pq.Error{Code: "55P03"}
	}
	return nil, nil
}

func (lockTimeoutTx) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, errors.New("unexpected query")
}

func (lockTimeoutTx) QueryRowContext(context.Context, string, ...interface{}) *sql.Row { return nil }
func (lockTimeoutTx) Commit() error                                                    { return nil }
func (lockTimeoutTx) Rollback() error                                                  { return nil }

type downDirectory struct{}

func (downDirectory) GetUser(context.Context, int64) (*domain.User, error) {
	return nil, userservice.ErrUnavailable
}

func (downDirectory) HasValidMembership(context.Context, int64, time.Time) (bool, error) {
	return false, userservice.ErrUnavailable
}
