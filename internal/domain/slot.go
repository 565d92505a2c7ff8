package domain

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-FacilityBookingService/pkg/types"
)

// Session смена
type Session string

const (
	SessionMorning Session = "morning"
	SessionEvening Session = "evening"
)

func (s Session) IsValid() bool {
	return s == SessionMorning || s == SessionEvening
}

// TimeSlot повторяющееся окно без даты. Смена слота не меняется, пока на него есть брони
type TimeSlot struct {
	ID        int64
	StartTime types.TimeString
	EndTime   types.TimeString
	Session   Session
}

// StartOn момент начала слота на конкретную дату
func (s *TimeSlot) StartOn(date time.Time, loc *time.Location) time.Time {
	return s.StartTime.On(date, loc)
}

// Validate смена morning или evening, начало раньше конца
func (s *TimeSlot) Validate() error {
	if !s.Session.IsValid() {
		return ErrInvalidSlot
	}
	if !s.StartTime.IsBefore(s.EndTime) {
		return ErrInvalidSlot
	}
	return nil
}

func (s *TimeSlot) String() string {
	return fmt.Sprintf("%s-%s (%s)", s.StartTime, s.EndTime, s.Session)
}

// SlotKey кортеж (площадка, слот, дата), на котором считается вместимость
type SlotKey struct {
	FacilityID int64
	SlotID     int64
	Date       time.Time
}

// LockKey строковый ключ для per-key блокировки
func (k SlotKey) LockKey() string {
	return fmt.Sprintf("slot:%d:%d:%s", k.FacilityID, k.SlotID, k.Date.Format(DateFormat))
}

// UserLockKey ключ, сериализующий запросы одного пользователя
func UserLockKey(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}
