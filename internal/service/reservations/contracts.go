package reservations

import (
	"context"
	"time"

	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	List(ctx context.Context, filter domain.ReservationsFilter) ([]domain.Reservation, error)
	Occupancy(ctx context.Context, from, to time.Time) ([]domain.CalendarEntry, error)
	Cancel(ctx context.Context, id int64, at time.Time) error
	CompletePast(ctx context.Context, before time.Time) ([]int64, error)
}

// ClosureRepository закрытия для календаря
type ClosureRepository interface {
	ListRange(ctx context.Context, from, to time.Time) ([]domain.Closure, error)
}

// Calendar часовой пояс и "сегодня"
type Calendar interface {
	Today(now time.Time) time.Time
}

// EventPublisher best-effort публикация событий
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
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

func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
