package facility

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

var facilityColumns = []string{
	"id",
	"name",
	"capacity_per_slot",
	"max_duration_minutes",
	"is_active",
	"created_at",
}

// Repository репозиторий площадок
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория площадок
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает площадку
func (r *Repository) Create(ctx context.Context, f *domain.Facility) (*domain.Facility, error) {
	if f.CapacityPerSlot < domain.MinCapacityPerSlot {
		return nil, ErrInvalidCapacity
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("facilities").
		Columns("name", "capacity_per_slot", "max_duration_minutes", "is_active").
		Values(f.Name, f.CapacityPerSlot, f.MaxDuration, f.IsActive).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&f.ID, &f.CreatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return f, nil
}

// GetByID получает площадку по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Facility, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(facilityColumns...).
		From("facilities").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var f domain.Facility
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&f.ID,
		&f.Name,
		&f.CapacityPerSlot,
		&f.MaxDuration,
		&f.IsActive,
		&f.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFacilityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan facility: %w", ErrScanRow, err)
	}

	return &f, nil
}

// List площадки по имени. activeOnly скрывает выключенные
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]domain.Facility, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(facilityColumns...).
		From("facilities").
		OrderBy("name ASC", "id ASC")

	if activeOnly {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"is_active": true})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	facilities := make([]domain.Facility, 0)
	for rows.Next() {
		var f domain.Facility
		if err := rows.Scan(&f.ID, &f.Name, &f.CapacityPerSlot, &f.MaxDuration, &f.IsActive, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: List - scan row: %v", ErrScanRow, err)
		}
		facilities = append(facilities, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - rows error: %v", ErrScanRow, err)
	}

	return facilities, nil
}
