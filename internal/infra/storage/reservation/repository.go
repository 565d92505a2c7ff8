package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/psqlbuilder"
)

const uniqueViolation = "23505"

var reservationColumns = []string{
	"r.id",
	"r.user_id",
	"r.facility_id",
	"r.slot_id",
	"r.booking_date",
	"r.status",
	"s.start_time",
	"s.end_time",
	"s.session",
	"r.cancelled_at",
	"r.created_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование.
// Вызывается внутри сериализованной транзакции, которую кладёт в контекст txmanager
func (r *Repository) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("reservations").
		Columns(
			"user_id",
			"facility_id",
			"slot_id",
			"booking_date",
			"status",
		).
		Values(
			res.UserID,
			res.FacilityID,
			res.SlotID,
			dateArg(res.BookingDate),
			res.Status,
		).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return nil, ErrDuplicateReservation
		}
		// ошибки сериализации отдаём как есть, чтобы txmanager мог повторить транзакцию
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	return res, nil
}

// GetByID получает бронирование по ID вместе с данными слота
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := selectReservations().
		Where(squirrel.Eq{"r.id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	res, err := scanReservation(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan reservation: %w", ErrScanRow, err)
	}

	return res, nil
}

// List бронирования по фильтру, сначала новые даты, внутри даты по времени слота
func (r *Repository) List(ctx context.Context, filter domain.ReservationsFilter) ([]domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := selectReservations()

	if filter.UserID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"r.user_id": *filter.UserID})
	}
	if filter.FacilityID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"r.facility_id": *filter.FacilityID})
	}
	if filter.SlotID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"r.slot_id": *filter.SlotID})
	}
	if filter.DateFrom != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"r.booking_date": dateArg(*filter.DateFrom)})
	}
	if filter.DateTo != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"r.booking_date": dateArg(*filter.DateTo)})
	}
	if filter.ActiveOnly {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"r.status": domain.StatusActive})
	}

	query, args, err := selectBuilder.
		OrderBy("r.booking_date DESC", "s.start_time ASC", "r.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// ActiveByUserFrom active брони пользователя начиная с даты (включительно).
// Основа снимка для правил будущего дня, смены, разнообразия и дублей
func (r *Repository) ActiveByUserFrom(ctx context.Context, userID int64, from time.Time) ([]domain.Reservation, error) {
	return r.List(ctx, domain.ReservationsFilter{
		UserID:     &userID,
		DateFrom:   &from,
		ActiveOnly: true,
	})
}

// CountActive количество active броней на кортеж (площадка, слот, дата)
func (r *Repository) CountActive(ctx context.Context, key domain.SlotKey) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From("reservations").
		Where(squirrel.Eq{
			"facility_id":  key.FacilityID,
			"slot_id":      key.SlotID,
			"booking_date": dateArg(key.Date),
			"status":       domain.StatusActive,
		}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: CountActive - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountActive - scan count: %w", ErrScanRow, err)
	}

	return count, nil
}

// CountActiveBySlot количество active броней по слотам площадки на дату
func (r *Repository) CountActiveBySlot(ctx context.Context, facilityID int64, date time.Time) (map[int64]int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("slot_id", "COUNT(*)").
		From("reservations").
		Where(squirrel.Eq{
			"facility_id":  facilityID,
			"booking_date": dateArg(date),
			"status":       domain.StatusActive,
		}).
		GroupBy("slot_id").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: CountActiveBySlot - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: CountActiveBySlot - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var slotID int64
		var count int
		if err := rows.Scan(&slotID, &count); err != nil {
			return nil, fmt.Errorf("%w: CountActiveBySlot - scan row: %w", ErrScanRow, err)
		}
		counts[slotID] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: CountActiveBySlot - rows error: %w", ErrScanRow, err)
	}

	return counts, nil
}

// Occupancy занятые кортежи (площадка, слот, дата) в диапазоне дат с вместимостью площадки
func (r *Repository) Occupancy(ctx context.Context, from, to time.Time) ([]domain.CalendarEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("r.facility_id", "r.slot_id", "r.booking_date", "COUNT(*)", "f.capacity_per_slot").
		From("reservations r").
		Join("facilities f ON f.id = r.facility_id").
		Join("time_slots s ON s.id = r.slot_id").
		Where(squirrel.Eq{"r.status": domain.StatusActive}).
		Where(squirrel.GtOrEq{"r.booking_date": dateArg(from)}).
		Where(squirrel.LtOrEq{"r.booking_date": dateArg(to)}).
		GroupBy("r.facility_id", "r.slot_id", "r.booking_date", "f.capacity_per_slot", "s.start_time").
		OrderBy("r.booking_date ASC", "r.facility_id ASC", "s.start_time ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Occupancy - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: Occupancy - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	entries := make([]domain.CalendarEntry, 0)
	for rows.Next() {
		var e domain.CalendarEntry
		if err := rows.Scan(&e.Key.FacilityID, &e.Key.SlotID, &e.Key.Date, &e.Booked, &e.Capacity); err != nil {
			return nil, fmt.Errorf("%w: Occupancy - scan row: %w", ErrScanRow, err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: Occupancy - rows error: %w", ErrScanRow, err)
	}

	return entries, nil
}

// Cancel мягкая отмена: статус cancelled и время отмены, строка остаётся для аудита
func (r *Repository) Cancel(ctx context.Context, id int64, at time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("reservations").
		Set("status", domain.StatusCancelled).
		Set("cancelled_at", at).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": []string{string(domain.StatusPending), string(domain.StatusActive)}}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Cancel - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Cancel - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Cancel - get rows affected: %w", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrCannotCancel
	}

	return nil
}

// CompletePast переводит active брони с датой раньше before в completed, возвращает их ID
func (r *Repository) CompletePast(ctx context.Context, before time.Time) ([]int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("reservations").
		Set("status", domain.StatusCompleted).
		Where(squirrel.Eq{"status": domain.StatusActive}).
		Where(squirrel.Lt{"booking_date": dateArg(before)}).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: CompletePast - build update query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: CompletePast - execute update: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: CompletePast - scan id: %w", ErrScanRow, err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: CompletePast - rows error: %w", ErrScanRow, err)
	}

	return ids, nil
}

func selectReservations() squirrel.SelectBuilder {
	return psqlbuilder.Select(reservationColumns...).
		From("reservations r").
		Join("time_slots s ON s.id = r.slot_id")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	var res domain.Reservation
	var cancelledAt sql.NullTime

	err := row.Scan(
		&res.ID,
		&res.UserID,
		&res.FacilityID,
		&res.SlotID,
		&res.BookingDate,
		&res.Status,
		&res.SlotStart,
		&res.SlotEnd,
		&res.SlotSession,
		&cancelledAt,
		&res.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if cancelledAt.Valid {
		t := cancelledAt.Time
		res.CancelledAt = &t
	}

	return &res, nil
}

// scanReservations сканирует результаты запроса в слайс бронирований
func scanReservations(rows *sql.Rows) ([]domain.Reservation, error) {
	reservations := make([]domain.Reservation, 0)

	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanReservations - scan row: %w", ErrScanRow, err)
		}
		reservations = append(reservations, *res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanReservations - rows error: %w", ErrScanRow, err)
	}

	return reservations, nil
}

// dateArg дата как строка, чтобы часовой пояс драйвера не сдвигал DATE
func dateArg(t time.Time) string {
	return t.Format(domain.DateFormat)
}
