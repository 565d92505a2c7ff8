package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-FacilityBookingService/internal/admission"
	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
	facilityRepo "github.com/m04kA/SMC-FacilityBookingService/internal/infra/storage/facility"
	slotRepo "github.com/m04kA/SMC-FacilityBookingService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-FacilityBookingService/internal/integrations/userservice"
)

// Loader собирает все чтения, нужные движку допуска, и те же чтения для доступности
type Loader struct {
	reservations ReservationReader
	facilities   FacilityReader
	slots        SlotReader
	closures     ClosureReader
	users        UserDirectory
}

func NewLoader(
	reservations ReservationReader,
	facilities FacilityReader,
	slots SlotReader,
	closures ClosureReader,
	users UserDirectory,
) *Loader {
	return &Loader{
		reservations: reservations,
		facilities:   facilities,
		slots:        slots,
		closures:     closures,
		users:        users,
	}
}

// Collaborators данные внешнего сервиса пользователей.
// Неизвестный пользователь даёт User == nil, движок ответит INVALID_REQUEST
func (l *Loader) Collaborators(ctx context.Context, userID int64, asOf time.Time, snap *admission.Snapshot) error {
	user, err := l.users.GetUser(ctx, userID)
	if errors.Is(err, userservice.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: get user id=%d: %w", ErrLoad, userID, err)
	}

	membership, err := l.users.HasValidMembership(ctx, userID, asOf)
	if err != nil && !errors.Is(err, userservice.ErrUserNotFound) {
		return fmt.Errorf("%w: membership of user id=%d: %w", ErrLoad, userID, err)
	}

	snap.User = user
	snap.HasMembership = membership
	return nil
}

// Store чтения хранилища. Вызывается внутри сериализованной области,
// чтобы все проверки видели один согласованный мир
func (l *Loader) Store(ctx context.Context, req admission.Request, today time.Time, snap *admission.Snapshot) error {
	facility, err := l.facilities.GetByID(ctx, req.FacilityID)
	switch {
	case errors.Is(err, facilityRepo.ErrFacilityNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("%w: get facility id=%d: %w", ErrLoad, req.FacilityID, err)
	}
	snap.Facility = facility

	slot, err := l.slots.GetByID(ctx, req.SlotID)
	switch {
	case errors.Is(err, slotRepo.ErrSlotNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("%w: get slot id=%d: %w", ErrLoad, req.SlotID, err)
	}
	snap.Slot = slot

	if req.BookingDate.IsZero() {
		return nil
	}

	closures, err := l.closures.ListOn(ctx, req.BookingDate)
	if err != nil {
		return fmt.Errorf("%w: closures on %s: %w", ErrLoad, req.BookingDate.Format(domain.DateFormat), err)
	}
	snap.Closures = closures

	userReservations, err := l.reservations.ActiveByUserFrom(ctx, req.UserID, today)
	if err != nil {
		return fmt.Errorf("%w: reservations of user id=%d: %w", ErrLoad, req.UserID, err)
	}
	snap.UserReservations = userReservations

	count, err := l.reservations.CountActive(ctx, domain.SlotKey{
		FacilityID: req.FacilityID,
		SlotID:     req.SlotID,
		Date:       req.BookingDate,
	})
	if err != nil {
		return fmt.Errorf("%w: count active: %w", ErrLoad, err)
	}
	snap.ActiveCount = count

	return nil
}

// Availability остаток мест по всем слотам площадки на дату и закрытия, которые её касаются.
// Считается той же формулой вместимости, что и при допуске
func (l *Loader) Availability(ctx context.Context, facilityID int64, date time.Time) (*domain.Facility, []domain.SlotAvailability, []domain.Closure, error) {
	facility, err := l.facilities.GetByID(ctx, facilityID)
	if err != nil {
		return nil, nil, nil, err
	}

	slots, err := l.slots.ListOrdered(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: list slots: %w", ErrLoad, err)
	}

	closures, err := l.closures.ListOn(ctx, date)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: closures: %w", ErrLoad, err)
	}
	applicable := make([]domain.Closure, 0, len(closures))
	for _, c := range closures {
		if c.Applies(facilityID) {
			applicable = append(applicable, c)
		}
	}

	counts, err := l.reservations.CountActiveBySlot(ctx, facilityID, date)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: count active by slot: %w", ErrLoad, err)
	}

	result := make([]domain.SlotAvailability, 0, len(slots))
	for _, s := range slots {
		result = append(result, domain.SlotAvailability{
			Slot:     s,
			Capacity: facility.CapacityPerSlot,
			Booked:   counts[s.ID],
		})
	}

	return facility, result, applicable, nil
}
