package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-FacilityBookingService/internal/admission"
	cancelReservationHandler "github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers/cancel_reservation"
	createReservationHandler "github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers/create_reservation"
	getAvailabilityHandler "github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers/get_availability"
	getCalendarHandler "github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers/get_calendar"
	getCatalogHandler "github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers/get_catalog"
	getReservationHandler "github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers/get_reservation"
	getUserReservationsHandler "github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers/get_user_reservations"
	manageCatalogHandler "github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers/manage_catalog"
	"github.com/m04kA/SMC-FacilityBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
	"github.com/m04kA/SMC-FacilityBookingService/internal/infra/events"
	"github.com/m04kA/SMC-FacilityBookingService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-FacilityBookingService/internal/integrations/userservice"
	"github.com/m04kA/SMC-FacilityBookingService/internal/service/catalog"
	"github.com/m04kA/SMC-FacilityBookingService/internal/service/payments"
	"github.com/m04kA/SMC-FacilityBookingService/internal/service/reservations"
	"github.com/m04kA/SMC-FacilityBookingService/internal/usecase/create_reservation"
	"github.com/m04kA/SMC-FacilityBookingService/internal/usecase/get_availability"
	"github.com/m04kA/SMC-FacilityBookingService/internal/usecase/snapshot"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/keylock"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/logger"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/metrics"
)

var now = time.Date(2026, 10, 18, 7, 0, 0, 0, time.UTC)

const managementToken = "ops-token"

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type testServer struct {
	t        *testing.T
	router   http.Handler
	store    *memory.Store
	facility int64
	slot     int64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	log := logger.NewNop()
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry("test", reg)

	store := memory.NewStore()
	users := userservice.NewStatic()
	users.Put(domain.User{ID: 1, Status: domain.UserStatusApproved}, true)
	users.Put(domain.User{ID: 2, Status: domain.UserStatusApproved}, true)
	users.Put(domain.User{ID: 3, Status: "pending"}, true)

	engine := admission.NewEngine(admission.WithLocation(time.UTC))
	loader := snapshot.NewLoader(store.Reservations(), store.Facilities(), store.Slots(), store.Closures(), users)
	recorder := payments.NewRecorder(store.Payments(), m, log, false, domain.DefaultSingleGameAmount, time.Second)

	catalogSvc := catalog.NewService(store.Facilities(), store.Slots(), store.Closures(), log)
	_, err := catalogSvc.SeedSlots(ctx)
	require.NoError(t, err)

	f, err := store.Facilities().Create(ctx, &domain.Facility{Name: "Badminton", CapacityPerSlot: 1, MaxDuration: 45, IsActive: true})
	require.NoError(t, err)
	slots, err := store.Slots().ListOrdered(ctx)
	require.NoError(t, err)

	createUC := create_reservation.NewUseCase(store.Reservations(), loader, engine, keylock.New(keylock.WithTimeout(time.Second)),
		recorder, events.Nop{}, m, log).WithTimeProvider(fixedClock{t: now})
	availabilityUC := get_availability.NewUseCase(loader, engine, log).WithTimeProvider(fixedClock{t: now})
	reservationSvc := reservations.NewService(store.Reservations(), store.Closures(), engine, events.Nop{}, 7, log).
		WithTimeProvider(fixedClock{t: now})

	router := NewRouter(Handlers{
		CreateReservation:   createReservationHandler.NewHandler(createUC, log),
		CancelReservation:   cancelReservationHandler.NewHandler(reservationSvc, log),
		GetReservation:      getReservationHandler.NewHandler(reservationSvc, log),
		GetUserReservations: getUserReservationsHandler.NewHandler(reservationSvc, log),
		GetAvailability:     getAvailabilityHandler.NewHandler(availabilityUC, log),
		GetCalendar:         getCalendarHandler.NewHandler(reservationSvc, log),
		GetCatalog:          getCatalogHandler.NewHandler(catalogSvc, log),
		ManageCatalog:       manageCatalogHandler.NewHandler(catalogSvc, log),
	}, Options{
		Metrics:         m,
		MetricsPath:     "/metrics",
		MetricsHandler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ManagementToken: managementToken,
	})

	return &testServer{t: t, router: router, store: store, facility: f.ID, slot: slots[2].ID}
}

func (s *testServer) do(method, path string, userID int64, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	return s.send(method, path, userID, "", body)
}

// manage запрос к маршрутам управления справочниками
func (s *testServer) manage(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	return s.send(method, path, 0, token, body)
}

func (s *testServer) send(method, path string, userID int64, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID > 0 {
		req.Header.Set(middleware.HeaderUserID, fmt.Sprint(userID))
	}
	if token != "" {
		req.Header.Set(middleware.HeaderManagementToken, token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) book(userID int64, date string) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, "/api/v1/reservations", userID, map[string]any{
		"facility_id":  s.facility,
		"slot_id":      s.slot,
		"booking_date": date,
	})
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

type rejection struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func TestRouter_ReservationFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.book(0, "2026-10-19")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.book(1, "2026-10-19")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[struct {
		ReservationID int64  `json:"reservation_id"`
		Session       string `json:"session"`
	}](t, rec)
	assert.Positive(t, created.ReservationID)
	assert.Equal(t, "morning", created.Session)

	// вместимость 1
	rec = s.book(2, "2026-10-19")
	require.Equal(t, http.StatusConflict, rec.Code)
	rej := decode[rejection](t, rec)
	assert.Equal(t, string(admission.CodeSlotFull), rej.Code)
	assert.EqualValues(t, 1, rej.Details["capacity"])

	// вторая будущая дата
	rec = s.book(1, "2026-10-20")
	require.Equal(t, http.StatusConflict, rec.Code)
	rej = decode[rejection](t, rec)
	assert.Equal(t, string(admission.CodeFutureBookingLimitExceeded), rej.Code)
	assert.Equal(t, "2026-10-19", rej.Details["existing_date"])

	rec = s.book(3, "2026-10-21")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(admission.CodeUserNotApproved), decode[rejection](t, rec).Code)

	rec = s.book(1, "2026-10-01")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(admission.CodeInvalidRequest), decode[rejection](t, rec).Code)

	rec = s.book(1, "19.10.2026")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	path := fmt.Sprintf("/api/v1/reservations/%d", created.ReservationID)

	rec = s.do(http.MethodGet, path, 1, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, path, 2, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/users/me/reservations", 1, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[struct {
		Total int `json:"total"`
	}](t, rec).Total)

	rec = s.do(http.MethodDelete, path, 2, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodDelete, path, 1, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodDelete, path, 1, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CANNOT_CANCEL", decode[rejection](t, rec).Code)
	rec = s.do(http.MethodDelete, "/api/v1/reservations/999", 1, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// место освободилось
	rec = s.book(2, "2026-10-19")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRouter_CreateWithUserIDInBody(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/reservations", 1, map[string]any{
		"user_id":      1,
		"facility_id":  s.facility,
		"slot_id":      s.slot,
		"booking_date": "2026-10-19",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/v1/reservations", 2, map[string]any{
		"user_id":      1,
		"facility_id":  s.facility,
		"slot_id":      s.slot,
		"booking_date": "2026-10-20",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_ManagementDisabledWithoutToken(t *testing.T) {
	router := NewRouter(Handlers{}, Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/closures", bytes.NewBufferString(`{"date":"2026-10-19"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Contains(t, []int{http.StatusNotFound, http.StatusMethodNotAllowed}, rec.Code)
}

func TestRouter_CancelPastReservation(t *testing.T) {
	s := newTestServer(t)

	res, err := s.store.Reservations().Create(context.Background(), &domain.Reservation{
		UserID:      1,
		FacilityID:  s.facility,
		SlotID:      s.slot,
		BookingDate: time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC),
		Status:      domain.StatusActive,
	})
	require.NoError(t, err)

	rec := s.do(http.MethodDelete, fmt.Sprintf("/api/v1/reservations/%d", res.ID), 1, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "PAST_DATE_IMMUTABLE", decode[rejection](t, rec).Code)
}

func TestRouter_ClosuresAndAvailability(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, fmt.Sprintf("/api/v1/availability?facility_id=%d&date=2026-10-19", s.facility), 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	avail := decode[struct {
		Closed bool `json:"closed"`
		Slots  []struct {
			SlotID    int64 `json:"slot_id"`
			Remaining int   `json:"remaining"`
		} `json:"slots"`
	}](t, rec)
	assert.False(t, avail.Closed)
	assert.Len(t, avail.Slots, 12)

	rec = s.do(http.MethodPost, "/api/v1/closures", 1, map[string]any{"date": "2026-10-19", "description": "Турнир"})
	assert.Equal(t, http.StatusForbidden, rec.Code, "обычный пользователь не закрывает площадки")

	rec = s.manage(http.MethodPost, "/api/v1/closures", managementToken, map[string]any{"date": "2026-10-19", "description": "Турнир"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	closureID := decode[struct {
		ID int64 `json:"id"`
	}](t, rec).ID

	rec = s.book(1, "2026-10-19")
	require.Equal(t, http.StatusConflict, rec.Code)
	rej := decode[rejection](t, rec)
	assert.Equal(t, string(admission.CodeFacilityClosed), rej.Code)
	assert.Equal(t, "Турнир", rej.Details["description"])

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/v1/availability?facility_id=%d&date=2026-10-19", s.facility), 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[struct {
		Closed bool `json:"closed"`
	}](t, rec).Closed)

	rec = s.manage(http.MethodDelete, fmt.Sprintf("/api/v1/closures/%d", closureID), "wrong", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.manage(http.MethodDelete, fmt.Sprintf("/api/v1/closures/%d", closureID), managementToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.manage(http.MethodDelete, fmt.Sprintf("/api/v1/closures/%d", closureID), managementToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.book(1, "2026-10-19")
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/availability?facility_id=abc&date=2026-10-19", 0, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodGet, "/api/v1/availability?facility_id=999&date=2026-10-19", 0, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Catalog(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/slots", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 12)

	rec = s.do(http.MethodPost, "/api/v1/facilities", 1, map[string]any{"name": "Gym", "capacity_per_slot": 10})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.manage(http.MethodPost, "/api/v1/facilities", managementToken, map[string]any{"name": "Gym", "capacity_per_slot": 10})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.manage(http.MethodPost, "/api/v1/facilities", managementToken, map[string]any{"name": "Gym", "capacity_per_slot": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/facilities", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 2)

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/v1/facilities/%d", s.facility), 0, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, "/api/v1/facilities/999", 0, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/calendar", 0, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/metrics", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/v1/facilities")
}
