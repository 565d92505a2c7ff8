package domain

import (
	"time"

	"github.com/m04kA/SMC-FacilityBookingService/pkg/types"
)

// ReservationStatus статус бронирования
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusActive    ReservationStatus = "active"
	StatusCancelled ReservationStatus = "cancelled"
	StatusCompleted ReservationStatus = "completed"
)

// Reservation бронирование слота площадки на дату
// После создания меняется только статус (и отметка об отмене)
type Reservation struct {
	ID          int64
	UserID      int64
	FacilityID  int64
	SlotID      int64
	BookingDate time.Time // только дата, время 00:00
	Status      ReservationStatus

	// Денормализованные данные слота, нужны правилам смен и срочного исключения
	SlotStart   types.TimeString
	SlotEnd     types.TimeString
	SlotSession Session

	CancelledAt *time.Time
	CreatedAt   time.Time
}

// IsActive только active участвует в правилах допуска и в подсчёте вместимости
func (r *Reservation) IsActive() bool {
	return r.Status == StatusActive
}

// CanBeCancelled отменить можно только ещё не завершённую бронь
func (r *Reservation) CanBeCancelled() bool {
	return r.Status == StatusPending || r.Status == StatusActive
}

// SlotKey ключ сериализации (площадка, слот, дата)
func (r *Reservation) SlotKey() SlotKey {
	return SlotKey{FacilityID: r.FacilityID, SlotID: r.SlotID, Date: r.BookingDate}
}

// ReservationsFilter фильтр выборки бронирований
type ReservationsFilter struct {
	UserID     *int64
	FacilityID *int64
	SlotID     *int64
	DateFrom   *time.Time // включительно
	DateTo     *time.Time // включительно
	ActiveOnly bool
}

// ValidStatuses все известные статусы
var ValidStatuses = []ReservationStatus{
	StatusPending,
	StatusActive,
	StatusCancelled,
	StatusCompleted,
}

// ParseReservationStatus проверяет строку статуса
func ParseReservationStatus(s string) (ReservationStatus, bool) {
	for _, st := range ValidStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}
