package create_reservation

import (
	"time"

	"github.com/m04kA/SMC-FacilityBookingService/pkg/types"
)

// Request модель запроса на создание бронирования
type Request struct {
	UserID     int64     // ID пользователя из заголовка X-User-ID
	FacilityID int64     // ID площадки
	SlotID     int64     // ID слота
	Date       time.Time // Дата бронирования (без времени)
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID          int64
	UserID      int64
	FacilityID  int64
	SlotID      int64
	BookingDate time.Time
	StartTime   types.TimeString
	EndTime     types.TimeString
	Session     string
	Status      string
	CreatedAt   time.Time
}
