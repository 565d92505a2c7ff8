package create_reservation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-FacilityBookingService/internal/admission"
	"github.com/m04kA/SMC-FacilityBookingService/internal/api/middleware"
	createReservation "github.com/m04kA/SMC-FacilityBookingService/internal/usecase/create_reservation"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/logger"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/types"
)

type mockUseCase struct {
	mock.Mock
}

func (m *mockUseCase) Execute(ctx context.Context, req *createReservation.Request) (*createReservation.Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*createReservation.Response)
	return resp, args.Error(1)
}

const body = `{"facility_id": 1, "slot_id": 2, "booking_date": "2026-10-20"}`

func serve(h *Handler, userID int64, payload string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(payload))
	if userID > 0 {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestHandle_Created(t *testing.T) {
	uc := &mockUseCase{}
	uc.On("Execute", mock.Anything, mock.MatchedBy(func(r *createReservation.Request) bool {
		return r.UserID == 7 && r.FacilityID == 1 && r.SlotID == 2 && r.Date.Day() == 20
	})).Return(&createReservation.Response{
		ID:          11,
		FacilityID:  1,
		SlotID:      2,
		BookingDate: time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
		StartTime:   types.MustTimeString("08:00"),
		EndTime:     types.MustTimeString("08:45"),
		Session:     "morning",
		Status:      "active",
	}, nil)

	rec := serve(NewHandler(uc, logger.NewNop()), 7, body)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reservation_id":11`)
	assert.Contains(t, rec.Body.String(), `"start_time":"08:00"`)
	uc.AssertExpectations(t)
}

func TestHandle_BodyUserID(t *testing.T) {
	t.Run("same user", func(t *testing.T) {
		uc := &mockUseCase{}
		uc.On("Execute", mock.Anything, mock.MatchedBy(func(r *createReservation.Request) bool {
			return r.UserID == 7
		})).Return(&createReservation.Response{ID: 12, BookingDate: time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)}, nil)

		rec := serve(NewHandler(uc, logger.NewNop()), 7,
			`{"user_id": 7, "facility_id": 1, "slot_id": 2, "booking_date": "2026-10-20"}`)

		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		uc.AssertExpectations(t)
	})

	t.Run("other user", func(t *testing.T) {
		uc := &mockUseCase{}

		rec := serve(NewHandler(uc, logger.NewNop()), 7,
			`{"user_id": 8, "facility_id": 1, "slot_id": 2, "booking_date": "2026-10-20"}`)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		uc.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	})
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "invalid request",
			err:        &admission.Rejection{Code: admission.CodeInvalidRequest, Reason: "slot not found"},
			wantStatus: http.StatusBadRequest,
			wantBody:   `"reason":"slot not found"`,
		},
		{
			name:       "slot full",
			err:        &admission.Rejection{Code: admission.CodeSlotFull, Capacity: 8},
			wantStatus: http.StatusConflict,
			wantBody:   `"code":"SLOT_FULL"`,
		},
		{
			name:       "shift limit",
			err:        &admission.Rejection{Code: admission.CodeShiftLimitExceeded, Session: "evening"},
			wantStatus: http.StatusConflict,
			wantBody:   `"session":"evening"`,
		},
		{
			name:       "transient",
			err:        errors.Join(createReservation.ErrTransient, errors.New("lock timeout")),
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "unexpected",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockUseCase{}
			uc.On("Execute", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := serve(NewHandler(uc, logger.NewNop()).WithRetryAfter(3), 7, body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
			if tt.wantStatus == http.StatusServiceUnavailable {
				assert.Equal(t, "3", rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestHandle_BadInput(t *testing.T) {
	uc := &mockUseCase{}
	h := NewHandler(uc, logger.NewNop())

	assert.Equal(t, http.StatusUnauthorized, serve(h, 0, body).Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, 7, `{"facility_id": "x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, 7, `{"facility_id": 1, "unknown": true}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, 7, `{"facility_id": 1, "slot_id": 2, "booking_date": "20/10/2026"}`).Code)
	uc.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}
