package closure

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/psqlbuilder"
)

// Repository реестр закрытий
type Repository struct {
	db DBExecutor
}

func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create добавляет закрытие. FacilityID == nil - закрыто всё
func (r *Repository) Create(ctx context.Context, c *domain.Closure) (*domain.Closure, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	var facilityID sql.NullInt64
	if c.FacilityID != nil {
		facilityID = sql.NullInt64{Int64: *c.FacilityID, Valid: true}
	}

	query, args, err := psqlbuilder.Insert("closures").
		Columns("closure_date", "facility_id", "description").
		Values(c.Date.Format(domain.DateFormat), facilityID, c.Description).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&c.ID, &c.CreatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return c, nil
}

// ListOn закрытия на дату: и конкретных площадок, и глобальные
func (r *Repository) ListOn(ctx context.Context, date time.Time) ([]domain.Closure, error) {
	return r.list(ctx, squirrel.Eq{"closure_date": date.Format(domain.DateFormat)})
}

// ListRange закрытия в диапазоне дат включительно
func (r *Repository) ListRange(ctx context.Context, from, to time.Time) ([]domain.Closure, error) {
	return r.list(ctx, squirrel.And{
		squirrel.GtOrEq{"closure_date": from.Format(domain.DateFormat)},
		squirrel.LtOrEq{"closure_date": to.Format(domain.DateFormat)},
	})
}

// Delete удаляет закрытие
func (r *Repository) Delete(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("closures").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Delete - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrClosureNotFound
	}

	return nil
}

func (r *Repository) list(ctx context.Context, where squirrel.Sqlizer) ([]domain.Closure, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "closure_date", "facility_id", "description", "created_at").
		From("closures").
		Where(where).
		OrderBy("closure_date ASC", "id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: list - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	closures := make([]domain.Closure, 0)
	for rows.Next() {
		var c domain.Closure
		var facilityID sql.NullInt64
		if err := rows.Scan(&c.ID, &c.Date, &facilityID, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: list - scan row: %w", ErrScanRow, err)
		}
		if facilityID.Valid {
			id := facilityID.Int64
			c.FacilityID = &id
		}
		closures = append(closures, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list - rows error: %w", ErrScanRow, err)
	}

	return closures, nil
}
