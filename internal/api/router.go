package api

import (
	"net/http"

	"github.com/gorilla/mux"

	cancelReservationHandler "github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers/cancel_reservation"
	createReservationHandler "github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers/create_reservation"
	getAvailabilityHandler "github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers/get_availability"
	getCalendarHandler "github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers/get_calendar"
	getCatalogHandler "github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers/get_catalog"
	getReservationHandler "github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers/get_reservation"
	getUserReservationsHandler "github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers/get_user_reservations"
	manageCatalogHandler "github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers/manage_catalog"
	"github.com/m04kA/SMC-FacilityBookingService/internal/api/middleware"
)

const PathPrefix = "/api/v1"

// Handlers все HTTP обработчики сервиса
type Handlers struct {
	CreateReservation   *createReservationHandler.Handler
	CancelReservation   *cancelReservationHandler.Handler
	GetReservation      *getReservationHandler.Handler
	GetUserReservations *getUserReservationsHandler.Handler
	GetAvailability     *getAvailabilityHandler.Handler
	GetCalendar         *getCalendarHandler.Handler
	GetCatalog          *getCatalogHandler.Handler
	ManageCatalog       *manageCatalogHandler.Handler
}

// Options необязательные части роутера
type Options struct {
	Metrics        middleware.HTTPMetrics
	MetricsPath    string
	MetricsHandler http.Handler
	AccessLog      middleware.Logger

	// ManagementToken пустой - маршруты управления справочниками не регистрируются
	ManagementToken string
}

// NewRouter собирает маршруты /api/v1
func NewRouter(h Handlers, opts Options) *mux.Router {
	r := mux.NewRouter()

	if opts.Metrics != nil {
		r.Use(middleware.Metrics(opts.Metrics))
	}
	if opts.AccessLog != nil {
		r.Use(middleware.AccessLog(opts.AccessLog))
	}

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	if opts.MetricsHandler != nil && opts.MetricsPath != "" {
		r.Handle(opts.MetricsPath, opts.MetricsHandler).Methods(http.MethodGet)
	}

	api := r.PathPrefix(PathPrefix).Subrouter()

	// ============================================================
	// PUBLIC ROUTES
	// ============================================================

	api.HandleFunc("/facilities", h.GetCatalog.ListFacilities).Methods(http.MethodGet)
	api.HandleFunc("/facilities/{facilityId}", h.GetCatalog.GetFacility).Methods(http.MethodGet)
	api.HandleFunc("/slots", h.GetCatalog.ListSlots).Methods(http.MethodGet)
	api.HandleFunc("/closures", h.GetCatalog.ListClosures).Methods(http.MethodGet)
	api.HandleFunc("/availability", h.GetAvailability.Handle).Methods(http.MethodGet)
	api.HandleFunc("/calendar", h.GetCalendar.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	protected.HandleFunc("/reservations", h.CreateReservation.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/reservations/{reservationId}", h.GetReservation.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/reservations/{reservationId}", h.CancelReservation.Handle).Methods(http.MethodDelete)
	protected.HandleFunc("/users/me/reservations", h.GetUserReservations.Handle).Methods(http.MethodGet)

	// ============================================================
	// MANAGEMENT ROUTES (требуют X-Management-Token)
	// ============================================================

	if opts.ManagementToken != "" {
		management := api.PathPrefix("").Subrouter()
		management.Use(middleware.Management(opts.ManagementToken))

		management.HandleFunc("/facilities", h.ManageCatalog.CreateFacility).Methods(http.MethodPost)
		management.HandleFunc("/closures", h.ManageCatalog.AddClosure).Methods(http.MethodPost)
		management.HandleFunc("/closures/{closureId}", h.ManageCatalog.DeleteClosure).Methods(http.MethodDelete)
	}

	return r
}
