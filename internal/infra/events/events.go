package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
)

// Ключи маршрутизации событий бронирования
const (
	KeyReservationCreated   = "reservation.created"
	KeyReservationCancelled = "reservation.cancelled"
	KeyReservationCompleted = "reservation.completed"
)

// ReservationEvent тело события
type ReservationEvent struct {
	EventID       string    `json:"event_id"`
	OccurredAt    time.Time `json:"occurred_at"`
	ReservationID int64     `json:"reservation_id"`
	UserID        int64     `json:"user_id,omitempty"`
	FacilityID    int64     `json:"facility_id,omitempty"`
	SlotID        int64     `json:"slot_id,omitempty"`
	BookingDate   string    `json:"booking_date,omitempty"`
	Status        string    `json:"status"`
}

// NewReservationEvent событие по брони
func NewReservationEvent(res *domain.Reservation, at time.Time) ReservationEvent {
	return ReservationEvent{
		EventID:       uuid.NewString(),
		OccurredAt:    at.UTC(),
		ReservationID: res.ID,
		UserID:        res.UserID,
		FacilityID:    res.FacilityID,
		SlotID:        res.SlotID,
		BookingDate:   res.BookingDate.Format(domain.DateFormat),
		Status:        string(res.Status),
	}
}

// Nop публикатор для выключенных событий
type Nop struct{}

func (Nop) PublishJSON(context.Context, string, any) error { return nil }
func (Nop) Close() error                                 { return nil }

// Recorder запоминает опубликованные события, для тестов и отладки
type Recorder struct {
	mu     sync.Mutex
	events []Published
}

type Published struct {
	Key  string
	Body any
}

func (r *Recorder) PublishJSON(_ context.Context, key string, v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Published{Key: key, Body: v})
	return nil
}

func (r *Recorder) Close() error { return nil }

// Keys ключи опубликованных событий по порядку
func (r *Recorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.events))
	for _, e := range r.events {
		keys = append(keys, e.Key)
	}
	return keys
}

func (r *Recorder) Events() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Published(nil), r.events...)
}
