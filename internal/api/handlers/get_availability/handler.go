package get_availability

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
	getAvailability "github.com/m04kA/SMC-FacilityBookingService/internal/usecase/get_availability"
)

const (
	msgInvalidFacilityID = "некорректный ID площадки"
	msgMissingDate       = "дата обязательна"
	msgInvalidDate       = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgPastDate          = "дата в прошлом"
	msgFacilityNotFound  = "площадка не найдена"
	msgFacilityInactive  = "площадка не принимает бронирования"
)

type Handler struct {
	useCase GetAvailabilityUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailabilityUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/availability
// Query params: facility_id (required), date (required, YYYY-MM-DD)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	facilityID, ok := handlers.PathID(query.Get("facility_id"))
	if !ok {
		h.logger.Warn("GET /availability - Invalid facility ID: %q", query.Get("facility_id"))
		handlers.RespondBadRequest(w, msgInvalidFacilityID)
		return
	}

	dateStr := query.Get("date")
	if dateStr == "" {
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		h.logger.Warn("GET /availability - Invalid date %q: %v", dateStr, err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &getAvailability.Request{FacilityID: facilityID, Date: date})
	if err != nil {
		switch {
		case errors.Is(err, getAvailability.ErrFacilityNotFound):
			handlers.RespondNotFound(w, msgFacilityNotFound)
		case errors.Is(err, getAvailability.ErrFacilityInactive):
			handlers.RespondConflict(w, msgFacilityInactive)
		case errors.Is(err, getAvailability.ErrInvalidDate):
			handlers.RespondBadRequest(w, msgPastDate)
		case errors.Is(err, getAvailability.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidFacilityID)
		default:
			h.logger.Error("GET /availability - Failed to get availability: facility_id=%d, date=%s, error=%v",
				facilityID, dateStr, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
