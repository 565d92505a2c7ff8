package snapshot

import (
	"context"
	"time"

	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
)

// ReservationReader чтения бронирований для снимка
type ReservationReader interface {
	ActiveByUserFrom(ctx context.Context, userID int64, from time.Time) ([]domain.Reservation, error)
	CountActive(ctx context.Context, key domain.SlotKey) (int, error)
	CountActiveBySlot(ctx context.Context, facilityID int64, date time.Time) (map[int64]int, error)
}

type FacilityReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Facility, error)
}

type SlotReader interface {
	GetByID(ctx context.Context, id int64) (*domain.TimeSlot, error)
	ListOrdered(ctx context.Context) ([]domain.TimeSlot, error)
}

type ClosureReader interface {
	ListOn(ctx context.Context, date time.Time) ([]domain.Closure, error)
}

// UserDirectory внешний сервис пользователей
type UserDirectory interface {
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	HasValidMembership(ctx context.Context, userID int64, asOf time.Time) (bool, error)
}
