package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid reservation status")
)

// Request модели

// GetUserReservationsRequest запрос на получение бронирований пользователя
type GetUserReservationsRequest struct {
	UserID int64   `json:"user_id"`
	Status *string `json:"status,omitempty"`
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *GetUserReservationsRequest) ToDomainFilter() (domain.ReservationsFilter, error) {
	userID := r.UserID
	filter := domain.ReservationsFilter{UserID: &userID}

	if r.Status != nil {
		status, ok := domain.ParseReservationStatus(*r.Status)
		if !ok {
			return filter, ErrInvalidStatus
		}
		// единственный статус, который фильтр умеет выбирать на стороне БД
		if status != domain.StatusActive {
			return filter, nil
		}
		filter.ActiveOnly = true
	}

	return filter, nil
}

// Response модели

// ReservationResponse ответ с данными бронирования
type ReservationResponse struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user_id"`
	FacilityID  int64   `json:"facility_id"`
	SlotID      int64   `json:"slot_id"`
	BookingDate string  `json:"booking_date"` // "2025-10-15"
	StartTime   string  `json:"start_time"`   // "08:00"
	EndTime     string  `json:"end_time"`
	Session     string  `json:"session"`
	Status      string  `json:"status"`
	CancelledAt *string `json:"cancelled_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// ReservationListResponse список бронирований
type ReservationListResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
	Total        int                   `json:"total"`
}

// CalendarEntry занятость кортежа
type CalendarEntry struct {
	Date       string `json:"date"`
	FacilityID int64  `json:"facility_id"`
	SlotID     int64  `json:"slot_id"`
	Booked     int    `json:"booked"`
	Capacity   int    `json:"capacity"`
	Remaining  int    `json:"remaining"`
}

// CalendarClosure закрытие в календаре
type CalendarClosure struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	FacilityID  *int64 `json:"facility_id,omitempty"`
	Description string `json:"description"`
}

// CalendarResponse календарь занятости на горизонт
type CalendarResponse struct {
	From     string            `json:"from"`
	To       string            `json:"to"`
	Entries  []CalendarEntry   `json:"entries"`
	Closures []CalendarClosure `json:"closures"`
}

// FromDomainReservation конвертирует доменную модель в ответ
func FromDomainReservation(r *domain.Reservation) ReservationResponse {
	resp := ReservationResponse{
		ID:          r.ID,
		UserID:      r.UserID,
		FacilityID:  r.FacilityID,
		SlotID:      r.SlotID,
		BookingDate: r.BookingDate.Format(domain.DateFormat),
		StartTime:   r.SlotStart.String(),
		EndTime:     r.SlotEnd.String(),
		Session:     string(r.SlotSession),
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
	if r.CancelledAt != nil {
		at := r.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &at
	}
	return resp
}

// FromDomainReservations конвертирует список
func FromDomainReservations(list []domain.Reservation) *ReservationListResponse {
	resp := &ReservationListResponse{
		Reservations: make([]ReservationResponse, 0, len(list)),
		Total:        len(list),
	}
	for i := range list {
		resp.Reservations = append(resp.Reservations, FromDomainReservation(&list[i]))
	}
	return resp
}
