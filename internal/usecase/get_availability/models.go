package get_availability

import (
	"time"

	"github.com/m04kA/SMC-FacilityBookingService/pkg/types"
)

// Request модель запроса доступности
type Request struct {
	FacilityID int64
	Date       time.Time
}

// Response остаток мест по слотам и закрытия на дату
type Response struct {
	Date         time.Time
	FacilityID   int64
	FacilityName string
	Closed       bool
	Closures     []Closure
	Slots        []Slot
}

// Slot модель временного слота
type Slot struct {
	SlotID    int64
	StartTime types.TimeString
	EndTime   types.TimeString
	Session   string
	Capacity  int
	Booked    int
	Remaining int
	Occupancy float64 // заполненность в процентах
	Bookable  bool    // есть места и площадка открыта
}

type Closure struct {
	ID          int64
	Global      bool
	Description string
}
