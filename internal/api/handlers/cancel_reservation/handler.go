package cancel_reservation

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-FacilityBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-FacilityBookingService/internal/service/reservations"
)

const (
	msgInvalidReservationID = "некорректный ID бронирования"
	msgNotFound             = "бронирование не найдено"
	msgForbidden            = "бронирование принадлежит другому пользователю"
	msgPastDate             = "бронирование на прошедшую дату нельзя изменить"
	msgCannotCancel         = "бронирование уже отменено или завершено"
)

type Handler struct {
	service ReservationService
	logger  Logger
}

func NewHandler(service ReservationService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle DELETE /api/v1/reservations/{reservationId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w)
		return
	}

	reservationID, ok := handlers.PathID(mux.Vars(r)["reservationId"])
	if !ok {
		h.logger.Warn("DELETE /reservations/{id} - Invalid reservation ID: %q", mux.Vars(r)["reservationId"])
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	if err := h.service.Cancel(r.Context(), reservationID, userID); err != nil {
		switch {
		case errors.Is(err, reservations.ErrReservationNotFound):
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, reservations.ErrNotOwner):
			h.logger.Warn("DELETE /reservations/{id} - Not owner: reservation_id=%d, user_id=%d", reservationID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, reservations.ErrPastDateImmutable):
			handlers.RespondRejection(w, http.StatusConflict, "PAST_DATE_IMMUTABLE", msgPastDate, nil)

		case errors.Is(err, reservations.ErrCannotCancel):
			handlers.RespondRejection(w, http.StatusConflict, "CANNOT_CANCEL", msgCannotCancel, nil)

		default:
			h.logger.Error("DELETE /reservations/{id} - Failed to cancel: reservation_id=%d, error=%v", reservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /reservations/{id} - Reservation cancelled: reservation_id=%d, user_id=%d", reservationID, userID)
	handlers.RespondJSON(w, http.StatusOK, nil)
}
