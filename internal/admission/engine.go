package admission

import (
	"sort"
	"time"

	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
)

// check одна ступень конвейера. nil - проверка пройдена
type check func(e *Engine, req Request, snap *Snapshot) *Rejection

// Порядок важен: дешёвые глобальные проверки раньше пользовательских,
// правила справедливости раньше вместимости
var pipeline = []check{
	checkRequest,
	checkMembership,
	checkApproval,
	checkClosure,
	checkFutureDays,
	checkShift,
	checkDiversity,
	checkDuplicate,
	checkCapacity,
}

// Engine чистая логика допуска: не пишет и не блокируется
type Engine struct {
	loc          *time.Location
	urgentWindow time.Duration
}

type Option func(*Engine)

// WithLocation часовой пояс, в котором считается "сегодня"
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithUrgentWindow окно срочного исключения из правила разнообразия
func WithUrgentWindow(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.urgentWindow = d
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		loc:          time.UTC,
		urgentWindow: domain.DefaultUrgentWindow,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Location() *time.Location {
	return e.loc
}

// Today текущая календарная дата в часовом поясе движка
func (e *Engine) Today(now time.Time) time.Time {
	return domain.DateOnly(now, e.loc)
}

// Evaluate возвращает ровно один исход для любого запроса
func (e *Engine) Evaluate(req Request, snap Snapshot) Decision {
	for _, c := range pipeline {
		if r := c(e, req, &snap); r != nil {
			return reject(r)
		}
	}
	return admit()
}

func checkRequest(e *Engine, req Request, snap *Snapshot) *Rejection {
	if req.BookingDate.IsZero() {
		return invalid("booking date is required")
	}
	if snap.User == nil {
		return invalid("user not found")
	}
	if snap.Facility == nil {
		return invalid("facility not found")
	}
	if !snap.Facility.IsActive {
		return invalid("facility is not active")
	}
	if snap.Slot == nil {
		return invalid("slot not found")
	}
	if domain.DateBefore(e.bookingDate(req), e.Today(req.Now)) {
		return invalid("booking date is in the past")
	}
	return nil
}

func checkMembership(_ *Engine, _ Request, snap *Snapshot) *Rejection {
	if !snap.HasMembership {
		return &Rejection{Code: CodeMembershipRequired}
	}
	return nil
}

func checkApproval(_ *Engine, _ Request, snap *Snapshot) *Rejection {
	if !snap.User.IsApproved() {
		return &Rejection{Code: CodeUserNotApproved}
	}
	return nil
}

func checkClosure(_ *Engine, req Request, snap *Snapshot) *Rejection {
	if c, ok := ClosureFor(snap.Closures, req.FacilityID); ok {
		return &Rejection{Code: CodeFacilityClosed, Description: c.Description}
	}
	return nil
}

// checkFutureDays не больше одной различной будущей даты. Сегодня не ограничено
func checkFutureDays(e *Engine, req Request, snap *Snapshot) *Rejection {
	today := e.Today(req.Now)
	date := e.bookingDate(req)
	if !domain.DateBefore(today, date) {
		return nil
	}

	var futureDates []time.Time
	for _, r := range e.activeOf(snap) {
		d := domain.CalendarDate(r.BookingDate, e.loc)
		if !domain.DateBefore(today, d) {
			continue
		}
		if domain.SameDate(d, date) {
			return nil
		}
		futureDates = append(futureDates, d)
	}
	if len(futureDates) == 0 {
		return nil
	}

	sort.Slice(futureDates, func(i, j int) bool { return futureDates[i].Before(futureDates[j]) })
	return &Rejection{Code: CodeFutureBookingLimitExceeded, ExistingDate: futureDates[0]}
}

// checkShift одна бронь на смену в день, на любой площадке
func checkShift(e *Engine, req Request, snap *Snapshot) *Rejection {
	for _, r := range e.sameDay(req, snap) {
		if r.SlotSession == snap.Slot.Session {
			return &Rejection{Code: CodeShiftLimitExceeded, Session: snap.Slot.Session}
		}
	}
	return nil
}

// checkDiversity одна площадка не в двух сменах одного дня, кроме срочных броней
func checkDiversity(e *Engine, req Request, snap *Snapshot) *Rejection {
	conflict := false
	for _, r := range e.sameDay(req, snap) {
		if r.FacilityID == req.FacilityID && r.SlotSession != snap.Slot.Session {
			conflict = true
			break
		}
	}
	if !conflict {
		return nil
	}

	start := snap.Slot.StartOn(e.bookingDate(req), e.loc)
	if start.Sub(req.Now) < e.urgentWindow {
		return nil
	}
	return &Rejection{Code: CodeGameDiversityViolation}
}

// checkDuplicate тот же слот и дата на любой площадке. Обычно раньше
// срабатывает правило смены, проверка остаётся страховкой инварианта
func checkDuplicate(e *Engine, req Request, snap *Snapshot) *Rejection {
	for _, r := range e.sameDay(req, snap) {
		if r.SlotID == req.SlotID {
			return &Rejection{Code: CodeDuplicateSlotBooking}
		}
	}
	return nil
}

func checkCapacity(_ *Engine, _ Request, snap *Snapshot) *Rejection {
	if snap.Remaining() == 0 {
		return &Rejection{Code: CodeSlotFull, Capacity: snap.Facility.CapacityPerSlot}
	}
	return nil
}

func (e *Engine) bookingDate(req Request) time.Time {
	return domain.CalendarDate(req.BookingDate, e.loc)
}

func (e *Engine) activeOf(snap *Snapshot) []domain.Reservation {
	active := make([]domain.Reservation, 0, len(snap.UserReservations))
	for _, r := range snap.UserReservations {
		if r.IsActive() {
			active = append(active, r)
		}
	}
	return active
}

func (e *Engine) sameDay(req Request, snap *Snapshot) []domain.Reservation {
	date := e.bookingDate(req)
	var out []domain.Reservation
	for _, r := range e.activeOf(snap) {
		if domain.SameDate(r.BookingDate, date) {
			out = append(out, r)
		}
	}
	return out
}
