package domain

import (
	"errors"
	"time"
)

const (
	MinCapacityPerSlot = 1

	// DefaultUrgentWindow окно срочного исключения из правила разнообразия
	DefaultUrgentWindow = 60 * time.Minute

	// DefaultCalendarDays горизонт календаря занятости
	DefaultCalendarDays = 30
)

// Стандартная сетка слотов
const (
	StandardSlotMinutes = 45
	MorningFirstHour    = 6
	MorningLastHour     = 11
	EveningFirstHour    = 16
	EveningLastHour     = 21
)

const (
	TimeFormat = "15:04"
	DateFormat = "2006-01-02"
)

var (
	ErrInvalidFacility = errors.New("domain: facility requires a name and capacity_per_slot >= 1")
	ErrInvalidSlot     = errors.New("domain: slot requires a known session and start before end")
)

// DateOnly отбрасывает время, оставляя календарную дату в loc
func DateOnly(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// CalendarDate та же календарная дата в loc, без пересчёта часового пояса.
// Для дат брони, которые уже хранятся как дата
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// ParseDate парсит YYYY-MM-DD в loc
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateFormat, s, loc)
}

// SameDate сравнивает календарные даты без учёта времени
func SameDate(a, b time.Time) bool {
	ya, ma, da := a.Date()
	yb, mb, db := b.Date()
	return ya == yb && ma == mb && da == db
}

// DateBefore true, если календарная дата a раньше b
func DateBefore(a, b time.Time) bool {
	ya, ma, da := a.Date()
	yb, mb, db := b.Date()
	if ya != yb {
		return ya < yb
	}
	if ma != mb {
		return ma < mb
	}
	return da < db
}
