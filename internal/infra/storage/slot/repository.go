package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/psqlbuilder"
)

// Repository каталог слотов
type Repository struct {
	db DBExecutor
}

func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает слот по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.TimeSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "start_time", "end_time", "session").
		From("time_slots").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var s domain.TimeSlot
	err = executor.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.StartTime, &s.EndTime, &s.Session)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan slot: %w", ErrScanRow, err)
	}

	return &s, nil
}

// ListOrdered все слоты по времени начала
func (r *Repository) ListOrdered(ctx context.Context) ([]domain.TimeSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "start_time", "end_time", "session").
		From("time_slots").
		OrderBy("start_time ASC", "id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListOrdered - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListOrdered - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	slots := make([]domain.TimeSlot, 0)
	for rows.Next() {
		var s domain.TimeSlot
		if err := rows.Scan(&s.ID, &s.StartTime, &s.EndTime, &s.Session); err != nil {
			return nil, fmt.Errorf("%w: ListOrdered - scan row: %v", ErrScanRow, err)
		}
		slots = append(slots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListOrdered - rows error: %v", ErrScanRow, err)
	}

	return slots, nil
}

// Ensure добавляет слот, если слота с таким началом ещё нет. Возвращает true, если вставлен
func (r *Repository) Ensure(ctx context.Context, s *domain.TimeSlot) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("time_slots").
		Columns("start_time", "end_time", "session").
		Values(s.StartTime, s.EndTime, s.Session).
		Suffix("ON CONFLICT (start_time) DO NOTHING").
		ToSql()

	if err != nil {
		return false, fmt.Errorf("%w: Ensure - build insert query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: Ensure - execute insert: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: Ensure - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected > 0, nil
}
