package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/gym_bot/internal/model"
	"github.com/Freeeeeet/gym_bot/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const seriesColumns = `
	id, program_id, name, description, duration_min, instructor_id, capacity,
	type, is_free, keep_open, is_active, materialized_until, created_at, updated_at`

// RecurringSeriesRepository управляет регулярными сериями в базе данных
type RecurringSeriesRepository struct {
	*base.Repository
}

// NewRecurringSeriesRepository создаёт новый репозиторий
func NewRecurringSeriesRepository(pool *pgxpool.Pool) *RecurringSeriesRepository {
	return &RecurringSeriesRepository{Repository: base.NewRepository(pool)}
}

// Create регистрирует новую серию вместе с её шаблоном
func (r *RecurringSeriesRepository) Create(ctx context.Context, series *model.RecurringSeries) error {
	query := `
		INSERT INTO recurring_series (
			id, program_id, name, description, duration_min, instructor_id, capacity,
			type, is_free, keep_open, is_active, materialized_until
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	err := r.QueryRow(
		ctx,
		query,
		series.ID,
		nullUUID(series.ProgramID),
		series.Name,
		series.Description,
		int(series.Duration/time.Minute),
		series.InstructorID,
		series.Capacity,
		series.Type,
		series.IsFree,
		series.KeepOpen,
		series.IsActive,
		series.MaterializedUntil,
	).Scan(&series.CreatedAt, &series.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create recurring series: %w", err)
	}

	return nil
}

// GetByID возвращает серию или nil, если её нет
func (r *RecurringSeriesRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.RecurringSeries, error) {
	query := `SELECT ` + seriesColumns + `
		FROM recurring_series
		WHERE id = $1
		FOR UPDATE
	`

	series, err := scanSeries(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get recurring series: %w", err)
	}
	return series, nil
}

// GetAllActive возвращает все активные серии
func (r *RecurringSeriesRepository) GetAllActive(ctx context.Context) ([]*model.RecurringSeries, error) {
	query := `SELECT ` + seriesColumns + `
		FROM recurring_series
		WHERE is_active = TRUE
		ORDER BY created_at
	`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get active recurring series: %w", err)
	}
	defer rows.Close()

	var result []*model.RecurringSeries
	for rows.Next() {
		series, err := scanSeries(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring series: %w", err)
		}
		result = append(result, series)
	}

	return result, rows.Err()
}

// UpdateTemplate сохраняет шаблон, по которому создаются новые недели
func (r *RecurringSeriesRepository) UpdateTemplate(ctx context.Context, series *model.RecurringSeries) error {
	query := `
		UPDATE recurring_series
		SET name = $2, description = $3, duration_min = $4, instructor_id = $5,
		    capacity = $6, is_free = $7, keep_open = $8, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.ExecAffected(ctx, query,
		series.ID,
		series.Name,
		series.Description,
		int(series.Duration/time.Minute),
		series.InstructorID,
		series.Capacity,
		series.IsFree,
		series.KeepOpen,
	)
	if err != nil {
		return fmt.Errorf("update series template: %w", err)
	}
	return nil
}

// SetMaterializedUntil сдвигает отметку последнего созданного занятия
func (r *RecurringSeriesRepository) SetMaterializedUntil(ctx context.Context, id uuid.UUID, until time.Time) error {
	_, err := r.ExecAffected(ctx,
		`UPDATE recurring_series SET materialized_until = $2, updated_at = NOW() WHERE id = $1`,
		id, until)
	if err != nil {
		return fmt.Errorf("set materialized until: %w", err)
	}
	return nil
}

// Deactivate останавливает продление серии
func (r *RecurringSeriesRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	_, err := r.ExecAffected(ctx,
		`UPDATE recurring_series SET is_active = FALSE, updated_at = NOW() WHERE id = $1`,
		id)
	if err != nil {
		return fmt.Errorf("deactivate recurring series: %w", err)
	}
	return nil
}

func scanSeries(row pgx.Row) (*model.RecurringSeries, error) {
	var (
		series      model.RecurringSeries
		programID   *uuid.UUID
		durationMin int
	)
	err := row.Scan(
		&series.ID,
		&programID,
		&series.Name,
		&series.Description,
		&durationMin,
		&series.InstructorID,
		&series.Capacity,
		&series.Type,
		&series.IsFree,
		&series.KeepOpen,
		&series.IsActive,
		&series.MaterializedUntil,
		&series.CreatedAt,
		&series.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if programID != nil {
		series.ProgramID = *programID
	}
	series.Duration = time.Duration(durationMin) * time.Minute
	return &series, nil
}
