package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m04kA/SMC-FacilityBookingService/internal/admission"
	"github.com/m04kA/SMC-FacilityBookingService/internal/api"
	cancelReservationHandler "github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers/cancel_reservation"
	createReservationHandler "github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers/create_reservation"
	getAvailabilityHandler "github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers/get_availability"
	getCalendarHandler "github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers/get_calendar"
	getCatalogHandler "github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers/get_catalog"
	getReservationHandler "github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers/get_reservation"
	getUserReservationsHandler "github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers/get_user_reservations"
	manageCatalogHandler "github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers/manage_catalog"
	"github.com/m04kA/SMC-FacilityBookingService/internal/config"
	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
	"github.com/m04kA/SMC-FacilityBookingService/internal/infra/events"
	closureRepo "github.com/m04kA/SMC-FacilityBookingService/internal/infra/storage/closure"
	facilityRepo "github.com/m04kA/SMC-FacilityBookingService/internal/infra/storage/facility"
	"github.com/m04kA/SMC-FacilityBookingService/internal/infra/storage/memory"
	paymentRepo "github.com/m04kA/SMC-FacilityBookingService/internal/infra/storage/payment"
	reservationRepo "github.com/m04kA/SMC-FacilityBookingService/internal/infra/storage/reservation"
	slotRepo "github.com/m04kA/SMC-FacilityBookingService/internal/infra/storage/slot"
	userServiceClient "github.com/m04kA/SMC-FacilityBookingService/internal/integrations/userservice"
	catalogService "github.com/m04kA/SMC-FacilityBookingService/internal/service/catalog"
	paymentsService "github.com/m04kA/SMC-FacilityBookingService/internal/service/payments"
	reservationsService "github.com/m04kA/SMC-FacilityBookingService/internal/service/reservations"
	createReservationUC "github.com/m04kA/SMC-FacilityBookingService/internal/usecase/create_reservation"
	getAvailabilityUC "github.com/m04kA/SMC-FacilityBookingService/internal/usecase/get_availability"
	"github.com/m04kA/SMC-FacilityBookingService/internal/usecase/snapshot"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/keylock"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/logger"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/metrics"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/txmanager"
)

// Хранилища, одинаковые для memory и postgres

type reservationStore interface {
	createReservationUC.ReservationRepository
	reservationsService.ReservationRepository
	snapshot.ReservationReader
}

type facilityStore interface {
	catalogService.FacilityRepository
	snapshot.FacilityReader
}

type slotStore interface {
	catalogService.SlotRepository
	snapshot.SlotReader
}

type closureStore interface {
	catalogService.ClosureRepository
	reservationsService.ClosureRepository
	snapshot.ClosureReader
}

type publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
	Close() error
}

type stores struct {
	reservations reservationStore
	facilities   facilityStore
	slots        slotStore
	closures     closureStore
	payments     paymentsService.PaymentRepository
	serializer   createReservationUC.Serializer
}

// App собранные зависимости сервиса
type App struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *metrics.Metrics

	db            *sql.DB
	wrappedDB     *dbmetrics.DB
	stopMetricsCh chan struct{}
	closeOnce     sync.Once

	engine    *admission.Engine
	publisher publisher
	payments  *paymentsService.Recorder

	createReservation *createReservationUC.UseCase
	getAvailability   *getAvailabilityUC.UseCase
	reservations      *reservationsService.Service
	catalog           *catalogService.Service
}

// newApp собирает зависимости. При ошибке уже открытые ресурсы (БД, сбор
// метрик pool) освобождаются через Close
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (_ *App, err error) {
	app := &App{cfg: cfg, log: log, stopMetricsCh: make(chan struct{})}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	// Метрики нужны use case всегда; наружу отдаем только при enabled
	if cfg.Metrics.Enabled {
		app.metrics = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	} else {
		app.metrics = metrics.NewWithRegistry(cfg.Metrics.ServiceName, prometheus.NewRegistry())
	}

	loc, err := cfg.Booking.Location()
	if err != nil {
		return nil, err
	}
	app.engine = admission.NewEngine(
		admission.WithLocation(loc),
		admission.WithUrgentWindow(cfg.Booking.UrgentWindow()),
	)

	st, err := app.openStores(ctx)
	if err != nil {
		return nil, err
	}

	// Интеграции
	var users snapshot.UserDirectory
	if cfg.UserService.URL != "" {
		users = userServiceClient.NewClient(
			cfg.UserService.URL,
			time.Duration(cfg.UserService.Timeout)*time.Second,
			log,
		)
		log.Info("UserService client initialized (url=%s, timeout=%ds)", cfg.UserService.URL, cfg.UserService.Timeout)
	} else {
		static := userServiceClient.NewStatic()
		static.Default = &domain.User{Status: domain.UserStatusApproved}
		users = static
		log.Warn("UserService url is empty: every user is treated as approved with a valid membership")
	}

	if cfg.Events.Enabled {
		pub, err := events.NewPublisher(cfg.Events.URL, cfg.Events.Exchange)
		if err != nil {
			return nil, err
		}
		app.publisher = pub
		log.Info("Events publisher connected (exchange=%s)", cfg.Events.Exchange)
	} else {
		app.publisher = events.Nop{}
	}

	app.payments = paymentsService.NewRecorder(
		st.payments,
		app.metrics,
		log,
		cfg.Payments.Enabled,
		cfg.Payments.SingleGameAmount,
		time.Duration(cfg.Payments.Timeout)*time.Second,
	)

	// Use cases и сервисы
	loader := snapshot.NewLoader(st.reservations, st.facilities, st.slots, st.closures, users)

	app.createReservation = createReservationUC.NewUseCase(
		st.reservations,
		loader,
		app.engine,
		st.serializer,
		app.payments,
		app.publisher,
		app.metrics,
		log,
	)
	app.getAvailability = getAvailabilityUC.NewUseCase(loader, app.engine, log)
	app.reservations = reservationsService.NewService(
		st.reservations,
		st.closures,
		app.engine,
		app.publisher,
		cfg.Booking.CalendarDays,
		log,
	)
	app.catalog = catalogService.NewService(st.facilities, st.slots, st.closures, log)

	return app, nil
}

func (a *App) openStores(ctx context.Context) (*stores, error) {
	if a.cfg.Storage.Driver == config.StorageMemory {
		store := memory.NewStore()
		a.log.Warn("Using in-memory storage: data is lost on restart")
		return &stores{
			reservations: store.Reservations(),
			facilities:   store.Facilities(),
			slots:        store.Slots(),
			closures:     store.Closures(),
			payments:     store.Payments(),
			serializer:   keylock.New(keylock.WithTimeout(a.cfg.Booking.LockTimeout())),
		}, nil
	}

	if err := a.openDB(ctx); err != nil {
		return nil, err
	}

	txMgr := txmanager.NewTransactionManager(
		a.wrappedDB,
		txmanager.WithMaxRetries(a.cfg.Booking.MaxRetries),
		txmanager.WithLockTimeout(a.cfg.Booking.LockTimeout()),
		txmanager.WithRetryObserver(a.metrics),
	)

	return &stores{
		reservations: reservationRepo.NewRepository(a.wrappedDB),
		facilities:   facilityRepo.NewRepository(a.wrappedDB),
		slots:        slotRepo.NewRepository(a.wrappedDB),
		closures:     closureRepo.NewRepository(a.wrappedDB),
		payments:     paymentRepo.NewRepository(a.wrappedDB),
		serializer:   createReservationUC.SerializerFunc(txMgr.DoKeyed),
	}, nil
}

func (a *App) openDB(ctx context.Context) error {
	cfg := a.cfg.Database

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping database: %w", err)
	}
	a.log.Info("Successfully connected to database (host=%s, port=%d, db=%s)", cfg.Host, cfg.Port, cfg.DBName)

	a.db = db
	if a.cfg.Metrics.Enabled {
		a.wrappedDB = dbmetrics.WrapWithDefault(db, a.metrics, a.stopMetricsCh)
		a.log.Info("Database metrics collection started")
	} else {
		a.wrappedDB = dbmetrics.Wrap(db, nil)
	}
	return nil
}

func (a *App) router() http.Handler {
	createReservation := createReservationHandler.NewHandler(a.createReservation, a.log).
		WithRetryAfter(a.cfg.Booking.RetryAfterSeconds)

	opts := api.Options{AccessLog: a.log, ManagementToken: a.cfg.Management.Token}
	if opts.ManagementToken == "" {
		a.log.Warn("Management token is empty: catalog management routes are disabled")
	}
	if a.cfg.Metrics.Enabled {
		opts.Metrics = a.metrics
		opts.MetricsPath = a.cfg.Metrics.Path
		opts.MetricsHandler = promhttp.Handler()
		a.log.Info("Prometheus metrics endpoint exposed at %s", a.cfg.Metrics.Path)
	}

	return api.NewRouter(api.Handlers{
		CreateReservation:   createReservation,
		CancelReservation:   cancelReservationHandler.NewHandler(a.reservations, a.log),
		GetReservation:      getReservationHandler.NewHandler(a.reservations, a.log),
		GetUserReservations: getUserReservationsHandler.NewHandler(a.reservations, a.log),
		GetAvailability:     getAvailabilityHandler.NewHandler(a.getAvailability, a.log),
		GetCalendar:         getCalendarHandler.NewHandler(a.reservations, a.log),
		GetCatalog:          getCatalogHandler.NewHandler(a.catalog, a.log),
		ManageCatalog:       manageCatalogHandler.NewHandler(a.catalog, a.log),
	}, opts)
}

// Close дожидается фоновых записей оплат и освобождает ресурсы.
// Работает и для частично собранного App
func (a *App) Close() {
	if a.payments != nil {
		a.payments.Wait()
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("Failed to close events publisher: %v", err)
		}
	}

	a.closeOnce.Do(func() { close(a.stopMetricsCh) })

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database: %v", err)
		}
	}
}
