package catalog

import (
	"context"
	"time"

	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
)

// FacilityRepository интерфейс репозитория площадок
type FacilityRepository interface {
	Create(ctx context.Context, f *domain.Facility) (*domain.Facility, error)
	GetByID(ctx context.Context, id int64) (*domain.Facility, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Facility, error)
}

// SlotRepository интерфейс каталога слотов
type SlotRepository interface {
	ListOrdered(ctx context.Context) ([]domain.TimeSlot, error)
	Ensure(ctx context.Context, s *domain.TimeSlot) (bool, error)
}

// ClosureRepository интерфейс реестра закрытий
type ClosureRepository interface {
	Create(ctx context.Context, c *domain.Closure) (*domain.Closure, error)
	ListOn(ctx context.Context, date time.Time) ([]domain.Closure, error)
	Delete(ctx context.Context, id int64) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
