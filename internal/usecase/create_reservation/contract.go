package create_reservation

import (
	"context"
	"time"

	"github.com/m04kA/SMC-FacilityBookingService/internal/admission"
	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
)

// ReservationRepository единственный путь записи бронирований
type ReservationRepository interface {
	Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error)
}

// SnapshotLoader собирает чтения для движка допуска
type SnapshotLoader interface {
	Collaborators(ctx context.Context, userID int64, asOf time.Time, snap *admission.Snapshot) error
	Store(ctx context.Context, req admission.Request, today time.Time, snap *admission.Snapshot) error
}

// Engine движок допуска
type Engine interface {
	Evaluate(req admission.Request, snap admission.Snapshot) admission.Decision
	Today(now time.Time) time.Time
	Location() *time.Location
}

// Serializer выполняет fn эксклюзивно по набору ключей.
// Memory: keylock.Locker, Postgres: SerializerFunc(txManager.DoKeyed)
type Serializer interface {
	Do(ctx context.Context, keys []string, fn func(ctx context.Context) error) error
}

// SerializerFunc адаптер функции к Serializer
type SerializerFunc func(ctx context.Context, keys []string, fn func(ctx context.Context) error) error

func (f SerializerFunc) Do(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
	return f(ctx, keys, fn)
}

// PaymentRecorder фиксирует оплату асинхронно, не блокируя ответ
type PaymentRecorder interface {
	Record(res *domain.Reservation)
}

// EventPublisher best-effort публикация событий
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// Metrics счетчик решений допуска
type Metrics interface {
	ObserveAdmission(outcome, reason string)
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
