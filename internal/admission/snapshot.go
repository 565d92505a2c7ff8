package admission

import (
	"time"

	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
)

// Request кандидат на бронирование
type Request struct {
	UserID      int64
	FacilityID  int64
	SlotID      int64
	BookingDate time.Time
	Now         time.Time
}

// Snapshot все чтения, нужные движку, собранные одним проходом внутри
// сериализованной области. nil-поля означают "не найдено"
type Snapshot struct {
	User          *domain.User
	HasMembership bool
	Facility      *domain.Facility
	Slot          *domain.TimeSlot

	// Closures закрытия на дату брони (все, включая чужие площадки)
	Closures []domain.Closure

	// UserReservations active брони пользователя с датой >= сегодня,
	// с денормализованными данными слота
	UserReservations []domain.Reservation

	// ActiveCount active брони на кортеж (площадка, слот, дата)
	ActiveCount int
}

// Remaining свободные места на кортеже
func (s *Snapshot) Remaining() int {
	if s.Facility == nil {
		return 0
	}
	return domain.RemainingCapacity(s.Facility.CapacityPerSlot, s.ActiveCount)
}

// ClosureFor первое закрытие, касающееся площадки
func ClosureFor(closures []domain.Closure, facilityID int64) (domain.Closure, bool) {
	for _, c := range closures {
		if c.Applies(facilityID) {
			return c, true
		}
	}
	return domain.Closure{}, false
}
