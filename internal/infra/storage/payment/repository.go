package payment

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/psqlbuilder"
)

// Repository журнал оплат
type Repository struct {
	db DBExecutor
}

func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create записывает оплату
func (r *Repository) Create(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("payments").
		Columns("user_id", "reservation_id", "amount", "payment_type", "payment_status", "transaction_id").
		Values(p.UserID, p.ReservationID, p.Amount, p.Type, p.Status, p.TransactionID).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.CreatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return p, nil
}

// ListByReservation оплаты брони
func (r *Repository) ListByReservation(ctx context.Context, reservationID int64) ([]domain.Payment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "user_id", "reservation_id", "amount", "payment_type", "payment_status", "transaction_id", "created_at").
		From("payments").
		Where(squirrel.Eq{"reservation_id": reservationID}).
		OrderBy("created_at ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListByReservation - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByReservation - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.UserID, &p.ReservationID, &p.Amount, &p.Type, &p.Status, &p.TransactionID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: ListByReservation - scan row: %v", ErrScanRow, err)
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListByReservation - rows error: %v", ErrScanRow, err)
	}

	return payments, nil
}
