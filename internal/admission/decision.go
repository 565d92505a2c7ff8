package admission

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
)

// Code машиночитаемая причина отказа
type Code string

const (
	CodeInvalidRequest             Code = "INVALID_REQUEST"
	CodeMembershipRequired         Code = "MEMBERSHIP_REQUIRED"
	CodeUserNotApproved            Code = "USER_NOT_APPROVED"
	CodeFacilityClosed             Code = "FACILITY_CLOSED"
	CodeFutureBookingLimitExceeded Code = "FUTURE_BOOKING_LIMIT_EXCEEDED"
	CodeShiftLimitExceeded         Code = "SHIFT_LIMIT_EXCEEDED"
	CodeGameDiversityViolation     Code = "GAME_DIVERSITY_VIOLATION"
	CodeDuplicateSlotBooking       Code = "DUPLICATE_SLOT_BOOKING"
	CodeSlotFull                   Code = "SLOT_FULL"
)

// Rejection отказ с контекстом для понятного сообщения.
// Реализует error, чтобы слой жизненного цикла мог вернуть его как есть
type Rejection struct {
	Code Code

	// Reason уточнение для INVALID_REQUEST
	Reason string
	// Description текст закрытия для FACILITY_CLOSED
	Description string
	// ExistingDate уже занятая будущая дата для FUTURE_BOOKING_LIMIT_EXCEEDED
	ExistingDate time.Time
	// Session смена для SHIFT_LIMIT_EXCEEDED
	Session domain.Session
	// Capacity вместимость для SLOT_FULL
	Capacity int
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("admission rejected: %s", r.Message())
}

// Message человекочитаемое описание отказа
func (r *Rejection) Message() string {
	switch r.Code {
	case CodeInvalidRequest:
		if r.Reason != "" {
			return "invalid request: " + r.Reason
		}
		return "invalid request"
	case CodeMembershipRequired:
		return "valid membership required"
	case CodeUserNotApproved:
		return "user is not approved"
	case CodeFacilityClosed:
		if r.Description != "" {
			return "facility is closed: " + r.Description
		}
		return "facility is closed"
	case CodeFutureBookingLimitExceeded:
		return fmt.Sprintf("user already has a future booking on %s", r.ExistingDate.Format(domain.DateFormat))
	case CodeShiftLimitExceeded:
		return fmt.Sprintf("user already has a booking in the %s session", r.Session)
	case CodeGameDiversityViolation:
		return "user already has a booking for this facility in another session"
	case CodeDuplicateSlotBooking:
		return "user already has a booking for this slot"
	case CodeSlotFull:
		return fmt.Sprintf("slot is full (capacity %d)", r.Capacity)
	default:
		return string(r.Code)
	}
}

// Details контекст отказа для ответа API
func (r *Rejection) Details() map[string]any {
	details := map[string]any{}
	switch r.Code {
	case CodeInvalidRequest:
		if r.Reason != "" {
			details["reason"] = r.Reason
		}
	case CodeFacilityClosed:
		details["description"] = r.Description
	case CodeFutureBookingLimitExceeded:
		details["existing_date"] = r.ExistingDate.Format(domain.DateFormat)
	case CodeShiftLimitExceeded:
		details["session"] = string(r.Session)
	case CodeSlotFull:
		details["capacity"] = r.Capacity
	}
	return details
}

// Decision результат оценки: Rejection == nil означает допуск
type Decision struct {
	Rejection *Rejection
}

func (d Decision) Admitted() bool {
	return d.Rejection == nil
}

// Code код отказа или пустая строка при допуске
func (d Decision) Code() Code {
	if d.Rejection == nil {
		return ""
	}
	return d.Rejection.Code
}

// Err nil при допуске, иначе *Rejection
func (d Decision) Err() error {
	if d.Rejection == nil {
		return nil
	}
	return d.Rejection
}

func admit() Decision {
	return Decision{}
}

func reject(r *Rejection) Decision {
	return Decision{Rejection: r}
}

func invalid(reason string) *Rejection {
	return &Rejection{Code: CodeInvalidRequest, Reason: reason}
}
