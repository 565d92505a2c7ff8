package manage_catalog

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-FacilityBookingService/internal/service/catalog"
	"github.com/m04kA/SMC-FacilityBookingService/internal/service/catalog/models"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidClosureID   = "некорректный ID закрытия"
	msgFacilityNotFound   = "площадка не найдена"
	msgClosureNotFound    = "закрытие не найдено"
)

// Handler управляющие операции над справочниками
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

// CreateFacility POST /api/v1/facilities
func (h *Handler) CreateFacility(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFacilityRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /facilities - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.CreateFacility(r.Context(), &req)
	if err != nil {
		if errors.Is(err, catalog.ErrInvalidInput) {
			handlers.RespondBadRequest(w, err.Error())
			return
		}
		h.logger.Error("POST /facilities - Failed to create facility: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, result)
}

// AddClosure POST /api/v1/closures
func (h *Handler) AddClosure(w http.ResponseWriter, r *http.Request) {
	var req models.AddClosureRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /closures - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.AddClosure(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrInvalidInput):
			handlers.RespondBadRequest(w, err.Error())
		case errors.Is(err, catalog.ErrFacilityNotFound):
			handlers.RespondNotFound(w, msgFacilityNotFound)
		default:
			h.logger.Error("POST /closures - Failed to add closure: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /closures - Closure added: id=%d, date=%s", result.ID, result.Date)
	handlers.RespondJSON(w, http.StatusCreated, result)
}

// DeleteClosure DELETE /api/v1/closures/{closureId}
func (h *Handler) DeleteClosure(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathID(mux.Vars(r)["closureId"])
	if !ok {
		handlers.RespondBadRequest(w, msgInvalidClosureID)
		return
	}

	if err := h.service.DeleteClosure(r.Context(), id); err != nil {
		if errors.Is(err, catalog.ErrClosureNotFound) {
			handlers.RespondNotFound(w, msgClosureNotFound)
			return
		}
		h.logger.Error("DELETE /closures/{id} - Failed to delete closure id=%d: %v", id, err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusNoContent, nil)
}
