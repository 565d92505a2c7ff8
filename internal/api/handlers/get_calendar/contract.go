package get_calendar

import (
	"context"

	"github.com/m04kA/SMC-FacilityBookingService/internal/service/reservations/models"
)

type ReservationService interface {
	Calendar(ctx context.Context) (*models.CalendarResponse, error)
}

type Logger interface {
	Error(format string, v ...interface{})
}
