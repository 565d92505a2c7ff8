// Package memory хранилище в памяти процесса для разработки и тестов.
// Методы повторяют постгресовые репозитории и возвращают те же ошибки
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
	"github.com/m04kA/SMC-FacilityBookingService/internal/infra/storage/closure"
	"github.com/m04kA/SMC-FacilityBookingService/internal/infra/storage/facility"
	"github.com/m04kA/SMC-FacilityBookingService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-FacilityBookingService/internal/infra/storage/slot"
)

// Store общее состояние. Репозитории - тонкие представления над ним
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	facilities   map[int64]domain.Facility
	slots        map[int64]domain.TimeSlot
	closures     map[int64]domain.Closure
	reservations map[int64]domain.Reservation
	payments     []domain.Payment

	seq int64
}

func NewStore() *Store {
	return &Store{
		now:          time.Now,
		facilities:   make(map[int64]domain.Facility),
		slots:        make(map[int64]domain.TimeSlot),
		closures:     make(map[int64]domain.Closure),
		reservations: make(map[int64]domain.Reservation),
	}
}

func (s *Store) Facilities() *Facilities     { return &Facilities{s: s} }
func (s *Store) Slots() *Slots               { return &Slots{s: s} }
func (s *Store) Closures() *Closures         { return &Closures{s: s} }
func (s *Store) Reservations() *Reservations { return &Reservations{s: s} }
func (s *Store) Payments() *Payments         { return &Payments{s: s} }

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// Facilities площадки
type Facilities struct{ s *Store }

func (r *Facilities) Create(_ context.Context, f *domain.Facility) (*domain.Facility, error) {
	if f.CapacityPerSlot < domain.MinCapacityPerSlot {
		return nil, facility.ErrInvalidCapacity
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	f.ID = r.s.nextID()
	f.CreatedAt = r.s.now()
	r.s.facilities[f.ID] = *f
	return f, nil
}

func (r *Facilities) GetByID(_ context.Context, id int64) (*domain.Facility, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	f, ok := r.s.facilities[id]
	if !ok {
		return nil, facility.ErrFacilityNotFound
	}
	return &f, nil
}

func (r *Facilities) List(_ context.Context, activeOnly bool) ([]domain.Facility, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Facility, 0, len(r.s.facilities))
	for _, f := range r.s.facilities {
		if activeOnly && !f.IsActive {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Slots каталог слотов
type Slots struct{ s *Store }

func (r *Slots) GetByID(_ context.Context, id int64) (*domain.TimeSlot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sl, ok := r.s.slots[id]
	if !ok {
		return nil, slot.ErrSlotNotFound
	}
	return &sl, nil
}

func (r *Slots) ListOrdered(_ context.Context) ([]domain.TimeSlot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.TimeSlot, 0, len(r.s.slots))
	for _, sl := range r.s.slots {
		out = append(out, sl)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime.IsBefore(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Ensure как ON CONFLICT (start_time) DO NOTHING
func (r *Slots) Ensure(_ context.Context, sl *domain.TimeSlot) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.slots {
		if existing.StartTime == sl.StartTime {
			return false, nil
		}
	}
	sl.ID = r.s.nextID()
	r.s.slots[sl.ID] = *sl
	return true, nil
}

// Closures реестр закрытий
type Closures struct{ s *Store }

func (r *Closures) Create(_ context.Context, c *domain.Closure) (*domain.Closure, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c.ID = r.s.nextID()
	c.CreatedAt = r.s.now()
	r.s.closures[c.ID] = *c
	return c, nil
}

func (r *Closures) ListOn(ctx context.Context, date time.Time) ([]domain.Closure, error) {
	return r.ListRange(ctx, date, date)
}

func (r *Closures) ListRange(_ context.Context, from, to time.Time) ([]domain.Closure, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Closure, 0)
	for _, c := range r.s.closures {
		if domain.DateBefore(c.Date, from) || domain.DateBefore(to, c.Date) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !domain.SameDate(out[i].Date, out[j].Date) {
			return domain.DateBefore(out[i].Date, out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Closures) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.closures[id]; !ok {
		return closure.ErrClosureNotFound
	}
	delete(r.s.closures, id)
	return nil
}

// Reservations бронирования
type Reservations struct{ s *Store }

// Create повторяет частичный уникальный индекс (user, slot, date) среди active
func (r *Reservations) Create(_ context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sl, ok := r.s.slots[res.SlotID]
	if !ok {
		return nil, slot.ErrSlotNotFound
	}
	if _, ok := r.s.facilities[res.FacilityID]; !ok {
		return nil, facility.ErrFacilityNotFound
	}

	if res.Status == domain.StatusActive {
		for _, existing := range r.s.reservations {
			if existing.IsActive() && existing.UserID == res.UserID && existing.SlotID == res.SlotID &&
				domain.SameDate(existing.BookingDate, res.BookingDate) {
				return nil, reservation.ErrDuplicateReservation
			}
		}
	}

	res.ID = r.s.nextID()
	res.CreatedAt = r.s.now()
	res.SlotStart, res.SlotEnd, res.SlotSession = sl.StartTime, sl.EndTime, sl.Session
	r.s.reservations[res.ID] = *res
	return res, nil
}

func (r *Reservations) GetByID(_ context.Context, id int64) (*domain.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	res, ok := r.s.reservations[id]
	if !ok {
		return nil, reservation.ErrReservationNotFound
	}
	return &res, nil
}

func (r *Reservations) List(_ context.Context, filter domain.ReservationsFilter) ([]domain.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Reservation, 0)
	for _, res := range r.s.reservations {
		if matches(res, filter) {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !domain.SameDate(a.BookingDate, b.BookingDate) {
			return domain.DateBefore(b.BookingDate, a.BookingDate)
		}
		if a.SlotStart != b.SlotStart {
			return a.SlotStart.IsBefore(b.SlotStart)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (r *Reservations) ActiveByUserFrom(ctx context.Context, userID int64, from time.Time) ([]domain.Reservation, error) {
	return r.List(ctx, domain.ReservationsFilter{UserID: &userID, DateFrom: &from, ActiveOnly: true})
}

func (r *Reservations) CountActive(_ context.Context, key domain.SlotKey) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	count := 0
	for _, res := range r.s.reservations {
		if res.IsActive() && res.FacilityID == key.FacilityID && res.SlotID == key.SlotID &&
			domain.SameDate(res.BookingDate, key.Date) {
			count++
		}
	}
	return count, nil
}

func (r *Reservations) CountActiveBySlot(_ context.Context, facilityID int64, date time.Time) (map[int64]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[int64]int)
	for _, res := range r.s.reservations {
		if res.IsActive() && res.FacilityID == facilityID && domain.SameDate(res.BookingDate, date) {
			counts[res.SlotID]++
		}
	}
	return counts, nil
}

func (r *Reservations) Occupancy(_ context.Context, from, to time.Time) ([]domain.CalendarEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	type tuple struct {
		facilityID, slotID int64
		date               string
	}
	index := make(map[tuple]int)
	entries := make([]domain.CalendarEntry, 0)

	for _, res := range r.s.reservations {
		if !res.IsActive() || domain.DateBefore(res.BookingDate, from) || domain.DateBefore(to, res.BookingDate) {
			continue
		}
		t := tuple{res.FacilityID, res.SlotID, res.BookingDate.Format(domain.DateFormat)}
		i, ok := index[t]
		if !ok {
			i = len(entries)
			index[t] = i
			entries = append(entries, domain.CalendarEntry{
				Key:      res.SlotKey(),
				Capacity: r.s.facilities[res.FacilityID].CapacityPerSlot,
			})
		}
		entries[i].Booked++
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].Key, entries[j].Key
		if !domain.SameDate(a.Date, b.Date) {
			return domain.DateBefore(a.Date, b.Date)
		}
		if a.FacilityID != b.FacilityID {
			return a.FacilityID < b.FacilityID
		}
		return r.s.slots[a.SlotID].StartTime.IsBefore(r.s.slots[b.SlotID].StartTime)
	})
	return entries, nil
}

func (r *Reservations) Cancel(_ context.Context, id int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, ok := r.s.reservations[id]
	if !ok || !res.CanBeCancelled() {
		return reservation.ErrCannotCancel
	}
	res.Status = domain.StatusCancelled
	res.CancelledAt = &at
	r.s.reservations[id] = res
	return nil
}

func (r *Reservations) CompletePast(_ context.Context, before time.Time) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := make([]int64, 0)
	for id, res := range r.s.reservations {
		if res.IsActive() && domain.DateBefore(res.BookingDate, before) {
			res.Status = domain.StatusCompleted
			r.s.reservations[id] = res
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func matches(res domain.Reservation, f domain.ReservationsFilter) bool {
	if f.UserID != nil && res.UserID != *f.UserID {
		return false
	}
	if f.FacilityID != nil && res.FacilityID != *f.FacilityID {
		return false
	}
	if f.SlotID != nil && res.SlotID != *f.SlotID {
		return false
	}
	if f.DateFrom != nil && domain.DateBefore(res.BookingDate, *f.DateFrom) {
		return false
	}
	if f.DateTo != nil && domain.DateBefore(*f.DateTo, res.BookingDate) {
		return false
	}
	if f.ActiveOnly && !res.IsActive() {
		return false
	}
	return true
}

// Payments журнал оплат
type Payments struct{ s *Store }

func (r *Payments) Create(_ context.Context, p *domain.Payment) (*domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p.ID = r.s.nextID()
	p.CreatedAt = r.s.now()
	r.s.payments = append(r.s.payments, *p)
	return p, nil
}

func (r *Payments) ListByReservation(_ context.Context, reservationID int64) ([]domain.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Payment, 0)
	for _, p := range r.s.payments {
		if p.ReservationID == reservationID {
			out = append(out, p)
		}
	}
	return out, nil
}
