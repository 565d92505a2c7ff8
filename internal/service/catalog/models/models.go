package models

import (
	"errors"
	"strings"
	"time"

	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
)

var (
	// ErrInvalidDate возвращается при некорректной дате
	ErrInvalidDate = errors.New("invalid date format, expected YYYY-MM-DD")

	// ErrEmptyDescription описание закрытия обязательно
	ErrEmptyDescription = errors.New("closure description is required")

	// ErrEmptyName имя площадки обязательно
	ErrEmptyName = errors.New("facility name is required")

	// ErrInvalidCapacity capacity_per_slot < 1
	ErrInvalidCapacity = errors.New("capacity_per_slot must be at least 1")
)

// Request модели

// CreateFacilityRequest запрос на создание площадки
type CreateFacilityRequest struct {
	Name            string `json:"name"`
	CapacityPerSlot int    `json:"capacity_per_slot"`
	MaxDuration     int    `json:"max_duration_minutes"`
	IsActive        *bool  `json:"is_active,omitempty"`
}

// Validate проверяет поля площадки
func (r *CreateFacilityRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if r.CapacityPerSlot < domain.MinCapacityPerSlot {
		return ErrInvalidCapacity
	}
	return nil
}

// ToDomain конвертирует запрос в доменную модель
func (r *CreateFacilityRequest) ToDomain() *domain.Facility {
	f := &domain.Facility{
		Name:            strings.TrimSpace(r.Name),
		CapacityPerSlot: r.CapacityPerSlot,
		MaxDuration:     r.MaxDuration,
		IsActive:        true,
	}
	if f.MaxDuration <= 0 {
		f.MaxDuration = domain.StandardSlotMinutes
	}
	if r.IsActive != nil {
		f.IsActive = *r.IsActive
	}
	return f
}

// AddClosureRequest запрос на закрытие даты
// FacilityID == nil закрывает все площадки
type AddClosureRequest struct {
	Date        string `json:"date"` // "2025-10-15"
	FacilityID  *int64 `json:"facility_id,omitempty"`
	Description string `json:"description"`
}

// ToDomain валидирует и конвертирует запрос
func (r *AddClosureRequest) ToDomain() (*domain.Closure, error) {
	date, err := domain.ParseDate(r.Date, time.UTC)
	if err != nil {
		return nil, ErrInvalidDate
	}
	desc := strings.TrimSpace(r.Description)
	if desc == "" {
		return nil, ErrEmptyDescription
	}
	return &domain.Closure{Date: date, FacilityID: r.FacilityID, Description: desc}, nil
}

// Response модели

// FacilityResponse ответ с данными площадки
type FacilityResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	CapacityPerSlot int    `json:"capacity_per_slot"`
	MaxDuration     int    `json:"max_duration_minutes"`
	IsActive        bool   `json:"is_active"`
	CreatedAt       string `json:"created_at"`
}

// SlotResponse слот каталога
type SlotResponse struct {
	ID        int64  `json:"id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Session   string `json:"session"`
}

// ClosureResponse закрытие
type ClosureResponse struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	FacilityID  *int64 `json:"facility_id,omitempty"`
	Global      bool   `json:"global"`
	Description string `json:"description"`
}

// SeedResponse итог генерации стандартной сетки
type SeedResponse struct {
	Inserted int `json:"inserted"`
	Existing int `json:"existing"`
}

func FromDomainFacility(f *domain.Facility) FacilityResponse {
	return FacilityResponse{
		ID:              f.ID,
		Name:            f.Name,
		CapacityPerSlot: f.CapacityPerSlot,
		MaxDuration:     f.MaxDuration,
		IsActive:        f.IsActive,
		CreatedAt:       f.CreatedAt.Format(time.RFC3339),
	}
}

func FromDomainSlot(s *domain.TimeSlot) SlotResponse {
	return SlotResponse{
		ID:        s.ID,
		StartTime: s.StartTime.String(),
		EndTime:   s.EndTime.String(),
		Session:   string(s.Session),
	}
}

func FromDomainClosure(c *domain.Closure) ClosureResponse {
	return ClosureResponse{
		ID:          c.ID,
		Date:        c.Date.Format(domain.DateFormat),
		FacilityID:  c.FacilityID,
		Global:      c.IsGlobal(),
		Description: c.Description,
	}
}
