package get_calendar

import (
	"net/http"

	"github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers"
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

// Handle GET /api/v1/calendar
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Calendar(r.Context())
	if err != nil {
		h.logger.Error("GET /calendar - Failed to build calendar: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
