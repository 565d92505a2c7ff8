package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
	closureRepo "github.com/m04kA/SMC-FacilityBookingService/internal/infra/storage/closure"
	facilityRepo "github.com/m04kA/SMC-FacilityBookingService/internal/infra/storage/facility"
	"github.com/m04kA/SMC-FacilityBookingService/internal/service/catalog/models"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/types"
)

// Service справочные данные: площадки, каталог слотов и реестр закрытий
type Service struct {
	facilityRepo FacilityRepository
	slotRepo     SlotRepository
	closureRepo  ClosureRepository
	logger       Logger
}

// NewService создает новый экземпляр сервиса каталога
func NewService(
	facilityRepo FacilityRepository,
	slotRepo SlotRepository,
	closureRepo ClosureRepository,
	logger Logger,
) *Service {
	return &Service{
		facilityRepo: facilityRepo,
		slotRepo:     slotRepo,
		closureRepo:  closureRepo,
		logger:       logger,
	}
}

// CreateFacility заводит площадку
func (s *Service) CreateFacility(ctx context.Context, req *models.CreateFacilityRequest) (*models.FacilityResponse, error) {
	if err := req.Validate(); err != nil {
		s.logger.Warn("CreateFacility: validation failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	created, err := s.facilityRepo.Create(ctx, req.ToDomain())
	if err != nil {
		if errors.Is(err, facilityRepo.ErrInvalidCapacity) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		s.logger.Error("CreateFacility: repository error: %v", err)
		return nil, fmt.Errorf("%w: CreateFacility - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("CreateFacility: created facility id=%d (%s), capacity=%d", created.ID, created.Name, created.CapacityPerSlot)
	resp := models.FromDomainFacility(created)
	return &resp, nil
}

// GetFacility площадка по ID
func (s *Service) GetFacility(ctx context.Context, id int64) (*models.FacilityResponse, error) {
	f, err := s.facilityRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, facilityRepo.ErrFacilityNotFound) {
			s.logger.Warn("GetFacility: facility id=%d not found", id)
			return nil, ErrFacilityNotFound
		}
		s.logger.Error("GetFacility: repository error for facility id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetFacility - repository error: %v", ErrInternal, err)
	}

	resp := models.FromDomainFacility(f)
	return &resp, nil
}

// ListFacilities список площадок
func (s *Service) ListFacilities(ctx context.Context, activeOnly bool) ([]models.FacilityResponse, error) {
	list, err := s.facilityRepo.List(ctx, activeOnly)
	if err != nil {
		s.logger.Error("ListFacilities: repository error: %v", err)
		return nil, fmt.Errorf("%w: ListFacilities - repository error: %v", ErrInternal, err)
	}

	resp := make([]models.FacilityResponse, 0, len(list))
	for i := range list {
		resp = append(resp, models.FromDomainFacility(&list[i]))
	}
	return resp, nil
}

// ListSlots каталог слотов по времени начала
func (s *Service) ListSlots(ctx context.Context) ([]models.SlotResponse, error) {
	slots, err := s.slotRepo.ListOrdered(ctx)
	if err != nil {
		s.logger.Error("ListSlots: repository error: %v", err)
		return nil, fmt.Errorf("%w: ListSlots - repository error: %v", ErrInternal, err)
	}

	resp := make([]models.SlotResponse, 0, len(slots))
	for i := range slots {
		resp = append(resp, models.FromDomainSlot(&slots[i]))
	}
	return resp, nil
}

// SeedSlots стандартная сетка: 45-минутные слоты с начала каждого часа
// утром и вечером. Повторный запуск ничего не меняет
func (s *Service) SeedSlots(ctx context.Context) (*models.SeedResponse, error) {
	resp := &models.SeedResponse{}

	for _, slot := range StandardGrid() {
		if err := slot.Validate(); err != nil {
			return nil, fmt.Errorf("%w: SeedSlots - %s: %v", ErrInvalidInput, slot.String(), err)
		}
		inserted, err := s.slotRepo.Ensure(ctx, &slot)
		if err != nil {
			s.logger.Error("SeedSlots: failed to ensure slot %s: %v", slot.String(), err)
			return nil, fmt.Errorf("%w: SeedSlots - repository error: %v", ErrInternal, err)
		}
		if inserted {
			resp.Inserted++
		} else {
			resp.Existing++
		}
	}

	s.logger.Info("SeedSlots: inserted=%d, existing=%d", resp.Inserted, resp.Existing)
	return resp, nil
}

// StandardGrid слоты стандартной сетки без ID
func StandardGrid() []domain.TimeSlot {
	grid := make([]domain.TimeSlot, 0)
	add := func(first, last int, session domain.Session) {
		for hour := first; hour <= last; hour++ {
			start := types.MustTimeString(fmt.Sprintf("%02d:00", hour))
			end, _ := start.AddMinutes(domain.StandardSlotMinutes)
			grid = append(grid, domain.TimeSlot{StartTime: start, EndTime: end, Session: session})
		}
	}
	add(domain.MorningFirstHour, domain.MorningLastHour, domain.SessionMorning)
	add(domain.EveningFirstHour, domain.EveningLastHour, domain.SessionEvening)
	return grid
}

// ClosuresOn закрытия на дату (глобальные и по площадкам)
func (s *Service) ClosuresOn(ctx context.Context, date string) ([]models.ClosureResponse, error) {
	d, err := domain.ParseDate(date, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, models.ErrInvalidDate)
	}

	closures, err := s.closureRepo.ListOn(ctx, d)
	if err != nil {
		s.logger.Error("ClosuresOn: repository error for %s: %v", date, err)
		return nil, fmt.Errorf("%w: ClosuresOn - repository error: %v", ErrInternal, err)
	}

	resp := make([]models.ClosureResponse, 0, len(closures))
	for i := range closures {
		resp = append(resp, models.FromDomainClosure(&closures[i]))
	}
	return resp, nil
}

// AddClosure закрывает дату для площадки или для всех
func (s *Service) AddClosure(ctx context.Context, req *models.AddClosureRequest) (*models.ClosureResponse, error) {
	c, err := req.ToDomain()
	if err != nil {
		s.logger.Warn("AddClosure: validation failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if c.FacilityID != nil {
		if _, err := s.GetFacility(ctx, *c.FacilityID); err != nil {
			return nil, err
		}
	}

	created, err := s.closureRepo.Create(ctx, c)
	if err != nil {
		s.logger.Error("AddClosure: repository error: %v", err)
		return nil, fmt.Errorf("%w: AddClosure - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("AddClosure: closure id=%d on %s, facility=%v", created.ID, req.Date, created.FacilityID)
	resp := models.FromDomainClosure(created)
	return &resp, nil
}

// DeleteClosure снимает закрытие
func (s *Service) DeleteClosure(ctx context.Context, id int64) error {
	if err := s.closureRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, closureRepo.ErrClosureNotFound) {
			s.logger.Warn("DeleteClosure: closure id=%d not found", id)
			return ErrClosureNotFound
		}
		s.logger.Error("DeleteClosure: repository error for closure id=%d: %v", id, err)
		return fmt.Errorf("%w: DeleteClosure - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("DeleteClosure: closure id=%d removed", id)
	return nil
}
