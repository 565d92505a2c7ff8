package get_availability

import (
	"context"
	"time"

	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
)

// AvailabilityLoader те же чтения, по которым принимает решения движок допуска
type AvailabilityLoader interface {
	Availability(ctx context.Context, facilityID int64, date time.Time) (*domain.Facility, []domain.SlotAvailability, []domain.Closure, error)
}

// Calendar часовой пояс и "сегодня"
type Calendar interface {
	Today(now time.Time) time.Time
	Location() *time.Location
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
