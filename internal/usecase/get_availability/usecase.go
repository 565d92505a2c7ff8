package get_availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
	facilityRepo "github.com/m04kA/SMC-FacilityBookingService/internal/infra/storage/facility"
)

// UseCase доступность слотов площадки на дату
type UseCase struct {
	loader       AvailabilityLoader
	calendar     Calendar
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(loader AvailabilityLoader, calendar Calendar, logger Logger) *UseCase {
	return &UseCase{
		loader:       loader,
		calendar:     calendar,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет часы
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case получения доступности
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailability: facility=%d, date=%s", req.FacilityID, req.Date.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if req.FacilityID <= 0 || req.Date.IsZero() {
		uc.logger.Warn("GetAvailability: validation failed: facility=%d, date=%v", req.FacilityID, req.Date)
		return nil, ErrInvalidInput
	}

	date := domain.CalendarDate(req.Date, uc.calendar.Location())
	if domain.DateBefore(date, uc.calendar.Today(uc.timeProvider.Now())) {
		uc.logger.Warn("GetAvailability: date %s is in the past", date.Format(domain.DateFormat))
		return nil, ErrInvalidDate
	}

	// 2. Читаем через тот же загрузчик, что и допуск
	facility, slots, closures, err := uc.loader.Availability(ctx, req.FacilityID, date)
	if err != nil {
		if errors.Is(err, facilityRepo.ErrFacilityNotFound) {
			uc.logger.Warn("GetAvailability: facility id=%d not found", req.FacilityID)
			return nil, ErrFacilityNotFound
		}
		uc.logger.Error("GetAvailability: failed to load facility id=%d: %v", req.FacilityID, err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if !facility.IsActive {
		uc.logger.Warn("GetAvailability: facility id=%d is not active", req.FacilityID)
		return nil, ErrFacilityInactive
	}

	closed := len(closures) > 0
	resp := &Response{
		Date:         date,
		FacilityID:   facility.ID,
		FacilityName: facility.Name,
		Closed:       closed,
		Closures:     make([]Closure, 0, len(closures)),
		Slots:        make([]Slot, 0, len(slots)),
	}

	for _, c := range closures {
		resp.Closures = append(resp.Closures, Closure{ID: c.ID, Global: c.IsGlobal(), Description: c.Description})
	}

	for _, s := range slots {
		remaining := s.Remaining()
		resp.Slots = append(resp.Slots, Slot{
			SlotID:    s.Slot.ID,
			StartTime: s.Slot.StartTime,
			EndTime:   s.Slot.EndTime,
			Session:   string(s.Slot.Session),
			Capacity:  s.Capacity,
			Booked:    s.Booked,
			Remaining: remaining,
			Occupancy: s.OccupancyRate(),
			Bookable:  !closed && remaining > 0,
		})
	}

	uc.logger.Info("GetAvailability: facility=%d, date=%s, slots=%d, closed=%t",
		facility.ID, date.Format(domain.DateFormat), len(resp.Slots), closed)

	return resp, nil
}
