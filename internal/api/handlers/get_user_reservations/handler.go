package get_user_reservations

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-FacilityBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-FacilityBookingService/internal/service/reservations"
	"github.com/m04kA/SMC-FacilityBookingService/internal/service/reservations/models"
)

const (
	msgInvalidStatus = "некорректный статус, допустимо: pending, active, cancelled, completed"
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

// Handle GET /api/v1/users/me/reservations
// Query params: status (optional)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w)
		return
	}

	serviceReq := &models.GetUserReservationsRequest{UserID: userID}
	if status := r.URL.Query().Get("status"); status != "" {
		serviceReq.Status = &status
	}

	result, err := h.service.GetUserReservations(r.Context(), serviceReq)
	if err != nil {
		if errors.Is(err, reservations.ErrInvalidInput) {
			handlers.RespondBadRequest(w, msgInvalidStatus)
			return
		}
		h.logger.Error("GET /users/me/reservations - Failed to get reservations: user_id=%d, error=%v", userID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /users/me/reservations - user_id=%d, count=%d", userID, result.Total)
	handlers.RespondJSON(w, http.StatusOK, result)
}
