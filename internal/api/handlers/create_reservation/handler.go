package create_reservation

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-FacilityBookingService/internal/admission"
	"github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-FacilityBookingService/internal/api/middleware"
	createReservation "github.com/m04kA/SMC-FacilityBookingService/internal/usecase/create_reservation"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты бронирования, ожидается YYYY-MM-DD"
	msgForeignUser        = "нельзя бронировать от имени другого пользователя"

	defaultRetryAfterSeconds = 1
)

type Handler struct {
	useCase    CreateReservationUseCase
	logger     Logger
	retryAfter int
}

func NewHandler(useCase CreateReservationUseCase, logger Logger) *Handler {
	return &Handler{
		useCase:    useCase,
		logger:     logger,
		retryAfter: defaultRetryAfterSeconds,
	}
}

// WithRetryAfter значение Retry-After (секунды) для ответов 503
func (h *Handler) WithRetryAfter(seconds int) *Handler {
	if seconds > 0 {
		h.retryAfter = seconds
	}
	return h
}

// Handle POST /api/v1/reservations
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w)
		return
	}

	var req CreateReservationRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /reservations - Invalid request body: %v", err)
		handlers.RespondRejection(w, http.StatusBadRequest, string(admission.CodeInvalidRequest), msgInvalidRequestBody, nil)
		return
	}

	if !req.ActsFor(userID) {
		h.logger.Warn("POST /reservations - user_id=%d in body differs from caller %d", *req.UserID, userID)
		handlers.RespondForbidden(w, msgForeignUser)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(userID)
	if err != nil {
		h.logger.Warn("POST /reservations - Invalid booking date %q: %v", req.BookingDate, err)
		handlers.RespondRejection(w, http.StatusBadRequest, string(admission.CodeInvalidRequest), msgInvalidDate, nil)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		var rejection *admission.Rejection
		switch {
		case errors.As(err, &rejection):
			status := http.StatusConflict
			if rejection.Code == admission.CodeInvalidRequest {
				status = http.StatusBadRequest
			}
			h.logger.Warn("POST /reservations - Rejected %s: user_id=%d, facility_id=%d, slot_id=%d, date=%s",
				rejection.Code, userID, req.FacilityID, req.SlotID, req.BookingDate)
			handlers.RespondRejection(w, status, string(rejection.Code), rejection.Message(), rejection.Details())

		case errors.Is(err, createReservation.ErrTransient):
			h.logger.Warn("POST /reservations - Transient failure: user_id=%d, error=%v", userID, err)
			handlers.RespondUnavailable(w, h.retryAfter)

		default:
			h.logger.Error("POST /reservations - Failed to create reservation: user_id=%d, error=%v", userID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /reservations - Reservation created: reservation_id=%d, user_id=%d, facility_id=%d",
		result.ID, userID, req.FacilityID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
