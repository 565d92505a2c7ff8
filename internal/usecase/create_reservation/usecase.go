package create_reservation

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-FacilityBookingService/internal/admission"
	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
	"github.com/m04kA/SMC-FacilityBookingService/internal/infra/events"
	reservationRepo "github.com/m04kA/SMC-FacilityBookingService/internal/infra/storage/reservation"
)

const (
	outcomeAdmitted = "admitted"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// UseCase use case для создания бронирования
type UseCase struct {
	reservationRepo ReservationRepository
	loader          SnapshotLoader
	engine          Engine
	serializer      Serializer
	payments        PaymentRecorder
	publisher       EventPublisher
	metrics         Metrics
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	loader SnapshotLoader,
	engine Engine,
	serializer Serializer,
	payments PaymentRecorder,
	publisher EventPublisher,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		reservationRepo: reservationRepo,
		loader:          loader,
		engine:          engine,
		serializer:      serializer,
		payments:        payments,
		publisher:       publisher,
		metrics:         metrics,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// WithTimeProvider подменяет часы
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case создания бронирования.
// Отказ движка возвращается как *admission.Rejection, сбой инфраструктуры как ErrTransient
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateReservation: user=%d, facility=%d, slot=%d, date=%s",
		req.UserID, req.FacilityID, req.SlotID, req.Date.Format(domain.DateFormat))

	// 1. Валидация входных данных до захвата блокировок
	if rejection := validateRequest(req); rejection != nil {
		uc.logger.Warn("CreateReservation: validation failed: %s", rejection.Message())
		uc.metrics.ObserveAdmission(outcomeRejected, string(rejection.Code))
		return nil, rejection
	}

	now := uc.timeProvider.Now()
	today := uc.engine.Today(now)
	date := domain.CalendarDate(req.Date, uc.engine.Location())

	request := admission.Request{
		UserID:      req.UserID,
		FacilityID:  req.FacilityID,
		SlotID:      req.SlotID,
		BookingDate: date,
		Now:         now,
	}

	// 2. Внешний сервис пользователей опрашиваем до сериализованной области
	var base admission.Snapshot
	if err := uc.loader.Collaborators(ctx, req.UserID, today, &base); err != nil {
		uc.logger.Error("CreateReservation: failed to load user id=%d: %v", req.UserID, err)
		uc.metrics.ObserveAdmission(outcomeError, "")
		return nil, fmt.Errorf("%w: %w", ErrTransient, err)
	}

	// 3. Ключ кортежа и ключ пользователя: ёмкость и пользовательские правила без гонок
	key := domain.SlotKey{FacilityID: req.FacilityID, SlotID: req.SlotID, Date: date}
	keys := []string{key.LockKey(), domain.UserLockKey(req.UserID)}

	var created *domain.Reservation

	err := uc.serializer.Do(ctx, keys, func(txCtx context.Context) error {
		// снимок собирается заново на каждой попытке
		snap := base
		if err := uc.loader.Store(txCtx, request, today, &snap); err != nil {
			return err
		}

		decision := uc.engine.Evaluate(request, snap)
		if !decision.Admitted() {
			return decision.Rejection
		}

		res, err := uc.reservationRepo.Create(txCtx, &domain.Reservation{
			UserID:      req.UserID,
			FacilityID:  req.FacilityID,
			SlotID:      req.SlotID,
			BookingDate: date,
			Status:      domain.StatusActive,
			SlotStart:   snap.Slot.StartTime,
			SlotEnd:     snap.Slot.EndTime,
			SlotSession: snap.Slot.Session,
		})
		if err != nil {
			return err
		}
		created = res
		return nil
	})

	if err != nil {
		var rejection *admission.Rejection
		if errors.As(err, &rejection) {
			uc.logger.Warn("CreateReservation: rejected user=%d, key=%s: %s", req.UserID, key.LockKey(), rejection.Message())
			uc.metrics.ObserveAdmission(outcomeRejected, string(rejection.Code))
			return nil, rejection
		}
		if errors.Is(err, reservationRepo.ErrDuplicateReservation) {
			uc.logger.Warn("CreateReservation: storage rejected duplicate user=%d, key=%s", req.UserID, key.LockKey())
			uc.metrics.ObserveAdmission(outcomeRejected, string(admission.CodeDuplicateSlotBooking))
			return nil, &admission.Rejection{Code: admission.CodeDuplicateSlotBooking}
		}

		uc.logger.Error("CreateReservation: failed for user=%d, key=%s: %v", req.UserID, key.LockKey(), err)
		uc.metrics.ObserveAdmission(outcomeError, "")
		return nil, fmt.Errorf("%w: %w", ErrTransient, err)
	}

	// created сохранена и закоммичена: дальше только best-effort побочные эффекты
	uc.metrics.ObserveAdmission(outcomeAdmitted, "")
	uc.logger.Info("CreateReservation: created reservation id=%d for user=%d, key=%s", created.ID, created.UserID, key.LockKey())

	uc.payments.Record(created)

	if err := uc.publisher.PublishJSON(ctx, events.KeyReservationCreated, events.NewReservationEvent(created, now)); err != nil {
		uc.logger.Warn("CreateReservation: failed to publish event for reservation id=%d: %v", created.ID, err)
	}

	return toResponse(created), nil
}

func validateRequest(req *Request) *admission.Rejection {
	switch {
	case req.UserID <= 0:
		return &admission.Rejection{Code: admission.CodeInvalidRequest, Reason: "user id is required"}
	case req.FacilityID <= 0:
		return &admission.Rejection{Code: admission.CodeInvalidRequest, Reason: "facility id is required"}
	case req.SlotID <= 0:
		return &admission.Rejection{Code: admission.CodeInvalidRequest, Reason: "slot id is required"}
	case req.Date.IsZero():
		return &admission.Rejection{Code: admission.CodeInvalidRequest, Reason: "booking date is required"}
	}
	return nil
}

func toResponse(res *domain.Reservation) *Response {
	return &Response{
		ID:          res.ID,
		UserID:      res.UserID,
		FacilityID:  res.FacilityID,
		SlotID:      res.SlotID,
		BookingDate: res.BookingDate,
		StartTime:   res.SlotStart,
		EndTime:     res.SlotEnd,
		Session:     string(res.SlotSession),
		Status:      string(res.Status),
		CreatedAt:   res.CreatedAt,
	}
}
