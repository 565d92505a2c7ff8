package reservations

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
	"github.com/m04kA/SMC-FacilityBookingService/internal/infra/events"
	reservationRepo "github.com/m04kA/SMC-FacilityBookingService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-FacilityBookingService/internal/service/reservations/models"
)

// Service жизненный цикл брони после создания: просмотр, отмена, завершение
type Service struct {
	reservationRepo ReservationRepository
	closureRepo     ClosureRepository
	calendar        Calendar
	publisher       EventPublisher
	timeProvider    TimeProvider
	logger          Logger
	calendarDays    int
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	reservationRepo ReservationRepository,
	closureRepo ClosureRepository,
	calendar Calendar,
	publisher EventPublisher,
	calendarDays int,
	logger Logger,
) *Service {
	if calendarDays <= 0 {
		calendarDays = domain.DefaultCalendarDays
	}
	return &Service{
		reservationRepo: reservationRepo,
		closureRepo:     closureRepo,
		calendar:        calendar,
		publisher:       publisher,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
		calendarDays:    calendarDays,
	}
}

// WithTimeProvider подменяет часы
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// GetByID получает бронирование по ID. Видит только владелец
func (s *Service) GetByID(ctx context.Context, id int64, userID int64) (*models.ReservationResponse, error) {
	s.logger.Info("GetByID: fetching reservation id=%d for user=%d", id, userID)

	res, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if res.UserID != userID {
		s.logger.Warn("GetByID: access denied for user=%d to reservation id=%d", userID, id)
		return nil, ErrNotOwner
	}

	resp := models.FromDomainReservation(res)
	return &resp, nil
}

// GetUserReservations "мои брони": новые даты первыми, внутри даты по времени слота
func (s *Service) GetUserReservations(ctx context.Context, req *models.GetUserReservationsRequest) (*models.ReservationListResponse, error) {
	s.logger.Info("GetUserReservations: user=%d", req.UserID)

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("GetUserReservations: invalid filter for user=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	list, err := s.reservationRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("GetUserReservations: repository error for user=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: GetUserReservations - repository error: %v", ErrInternal, err)
	}

	if req.Status != nil {
		list = filterByStatus(list, domain.ReservationStatus(*req.Status))
	}

	return models.FromDomainReservations(list), nil
}

// Cancel мягкая отмена владельцем. Движок допуска не вызывается,
// запись одна: условный UPDATE строки
func (s *Service) Cancel(ctx context.Context, id int64, userID int64) error {
	s.logger.Info("Cancel: cancelling reservation id=%d by user=%d", id, userID)

	res, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	if res.UserID != userID {
		s.logger.Warn("Cancel: access denied for user=%d to reservation id=%d", userID, id)
		return ErrNotOwner
	}

	now := s.timeProvider.Now()
	if domain.DateBefore(res.BookingDate, s.calendar.Today(now)) {
		s.logger.Warn("Cancel: reservation id=%d is in the past (%s)", id, res.BookingDate.Format(domain.DateFormat))
		return ErrPastDateImmutable
	}

	if !res.CanBeCancelled() {
		s.logger.Warn("Cancel: reservation id=%d cannot be cancelled, status=%s", id, res.Status)
		return ErrCannotCancel
	}

	if err := s.reservationRepo.Cancel(ctx, id, now); err != nil {
		if errors.Is(err, reservationRepo.ErrCannotCancel) {
			s.logger.Warn("Cancel: reservation id=%d changed concurrently", id)
			return ErrCannotCancel
		}
		s.logger.Error("Cancel: repository error for reservation id=%d: %v", id, err)
		return fmt.Errorf("%w: Cancel - repository error: %v", ErrInternal, err)
	}

	res.Status = domain.StatusCancelled
	res.CancelledAt = &now
	if err := s.publisher.PublishJSON(ctx, events.KeyReservationCancelled, events.NewReservationEvent(res, now)); err != nil {
		s.logger.Warn("Cancel: failed to publish event for reservation id=%d: %v", id, err)
	}

	s.logger.Info("Cancel: successfully cancelled reservation id=%d", id)
	return nil
}

// Calendar занятые кортежи и закрытия с сегодняшнего дня на calendarDays дней
func (s *Service) Calendar(ctx context.Context) (*models.CalendarResponse, error) {
	from := s.calendar.Today(s.timeProvider.Now())
	to := from.AddDate(0, 0, s.calendarDays-1)

	entries, err := s.reservationRepo.Occupancy(ctx, from, to)
	if err != nil {
		s.logger.Error("Calendar: repository error: %v", err)
		return nil, fmt.Errorf("%w: Calendar - occupancy: %v", ErrInternal, err)
	}

	closures, err := s.closureRepo.ListRange(ctx, from, to)
	if err != nil {
		s.logger.Error("Calendar: closures error: %v", err)
		return nil, fmt.Errorf("%w: Calendar - closures: %v", ErrInternal, err)
	}

	resp := &models.CalendarResponse{
		From:     from.Format(domain.DateFormat),
		To:       to.Format(domain.DateFormat),
		Entries:  make([]models.CalendarEntry, 0, len(entries)),
		Closures: make([]models.CalendarClosure, 0, len(closures)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, models.CalendarEntry{
			Date:       e.Key.Date.Format(domain.DateFormat),
			FacilityID: e.Key.FacilityID,
			SlotID:     e.Key.SlotID,
			Booked:     e.Booked,
			Capacity:   e.Capacity,
			Remaining:  domain.RemainingCapacity(e.Capacity, e.Booked),
		})
	}
	for _, c := range closures {
		resp.Closures = append(resp.Closures, models.CalendarClosure{
			ID:          c.ID,
			Date:        c.Date.Format(domain.DateFormat),
			FacilityID:  c.FacilityID,
			Description: c.Description,
		})
	}

	return resp, nil
}

// CompletePast переводит active брони прошедших дней в completed
func (s *Service) CompletePast(ctx context.Context) (int, error) {
	now := s.timeProvider.Now()
	today := s.calendar.Today(now)

	ids, err := s.reservationRepo.CompletePast(ctx, today)
	if err != nil {
		s.logger.Error("CompletePast: repository error: %v", err)
		return 0, fmt.Errorf("%w: CompletePast - repository error: %v", ErrInternal, err)
	}

	for _, id := range ids {
		event := events.NewReservationEvent(&domain.Reservation{ID: id, Status: domain.StatusCompleted}, now)
		event.BookingDate = ""
		if err := s.publisher.PublishJSON(ctx, events.KeyReservationCompleted, event); err != nil {
			s.logger.Warn("CompletePast: failed to publish event for reservation id=%d: %v", id, err)
		}
	}

	if len(ids) > 0 {
		s.logger.Info("CompletePast: completed %d reservations before %s", len(ids), today.Format(domain.DateFormat))
	}
	return len(ids), nil
}

func (s *Service) get(ctx context.Context, id int64) (*domain.Reservation, error) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			s.logger.Warn("reservation id=%d not found", id)
			return nil, ErrReservationNotFound
		}
		s.logger.Error("repository error for reservation id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: repository error: %v", ErrInternal, err)
	}
	return res, nil
}

func filterByStatus(list []domain.Reservation, status domain.ReservationStatus) []domain.Reservation {
	out := list[:0]
	for _, r := range list {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}
