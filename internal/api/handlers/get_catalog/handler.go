package get_catalog

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-FacilityBookingService/internal/service/catalog"
)

const (
	msgInvalidFacilityID = "некорректный ID площадки"
	msgFacilityNotFound  = "площадка не найдена"
	msgInvalidDate       = "некорректный формат даты, ожидается YYYY-MM-DD"
)

// Handler справочные чтения: площадки, слоты, закрытия
type Handler struct {
	service CatalogService
	logger  Logger
}

func NewHandler(service CatalogService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// ListFacilities GET /api/v1/facilities?all=true
func (h *Handler) ListFacilities(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"

	result, err := h.service.ListFacilities(r.Context(), activeOnly)
	if err != nil {
		h.logger.Error("GET /facilities - Failed to list facilities: %v", err)
		handlers.RespondInternalError(w)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

// GetFacility GET /api/v1/facilities/{facilityId}
func (h *Handler) GetFacility(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathID(mux.Vars(r)["facilityId"])
	if !ok {
		handlers.RespondBadRequest(w, msgInvalidFacilityID)
		return
	}

	result, err := h.service.GetFacility(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrFacilityNotFound) {
			handlers.RespondNotFound(w, msgFacilityNotFound)
			return
		}
		h.logger.Error("GET /facilities/{id} - Failed to get facility id=%d: %v", id, err)
		handlers.RespondInternalError(w)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

// ListSlots GET /api/v1/slots
func (h *Handler) ListSlots(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListSlots(r.Context())
	if err != nil {
		h.logger.Error("GET /slots - Failed to list slots: %v", err)
		handlers.RespondInternalError(w)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

// ListClosures GET /api/v1/closures?date=YYYY-MM-DD
func (h *Handler) ListClosures(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ClosuresOn(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		if errors.Is(err, catalog.ErrInvalidInput) {
			handlers.RespondBadRequest(w, msgInvalidDate)
			return
		}
		h.logger.Error("GET /closures - Failed to list closures: %v", err)
		handlers.RespondInternalError(w)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}
