package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/gym_bot/internal/model"
	"github.com/Freeeeeet/gym_bot/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AttendanceRepository журнал записей: какой абонемент зарезервирован за клиентом
type AttendanceRepository struct {
	*base.Repository
}

func NewAttendanceRepository(pool *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{Repository: base.NewRepository(pool)}
}

// Add сохраняет запись
func (r *AttendanceRepository) Add(ctx context.Context, a *model.Attendance) error {
	query := `
		INSERT INTO attendances (series_id, start_at, client_id, payer_id, subscription_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.QueryRow(ctx, query,
		a.TrainingID.SeriesID,
		a.TrainingID.StartAt,
		a.ClientID,
		a.PayerID,
		a.SubscriptionID,
	).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("add attendance: %w", err)
	}

	return nil
}

// Get возвращает запись клиента на занятие
func (r *AttendanceRepository) Get(ctx context.Context, id model.TrainingID, clientID int64) (*model.Attendance, error) {
	query := `
		SELECT payer_id, subscription_id, created_at
		FROM attendances
		WHERE series_id = $1 AND start_at = $2 AND client_id = $3
	`

	a := model.Attendance{TrainingID: id, ClientID: clientID}
	err := r.QueryRow(ctx, query, id.SeriesID, id.StartAt, clientID).Scan(
		&a.PayerID,
		&a.SubscriptionID,
		&a.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get attendance: %w", err)
	}

	return &a, nil
}

// Delete удаляет запись клиента
func (r *AttendanceRepository) Delete(ctx context.Context, id model.TrainingID, clientID int64) error {
	_, err := r.ExecAffected(ctx,
		`DELETE FROM attendances WHERE series_id = $1 AND start_at = $2 AND client_id = $3`,
		id.SeriesID, id.StartAt, clientID)
	if err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}
	return nil
}
