package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/gym_bot/internal/model"
	"github.com/Freeeeeet/gym_bot/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProgramRepository struct {
	*base.Repository
}

func NewProgramRepository(pool *pgxpool.Pool) *ProgramRepository {
	return &ProgramRepository{Repository: base.NewRepository(pool)}
}

// Create создаёт программу
func (r *ProgramRepository) Create(ctx context.Context, program *model.Program) error {
	query := `
		INSERT INTO programs (id, name, description, duration_min, capacity, type, is_free)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.QueryRow(ctx, query,
		program.ID,
		program.Name,
		program.Description,
		int(program.Duration/time.Minute),
		program.Capacity,
		program.Type,
		program.IsFree,
	).Scan(&program.CreatedAt)
	if err != nil {
		return fmt.Errorf("create program: %w", err)
	}

	return nil
}

// GetByID получает программу по ID
func (r *ProgramRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Program, error) {
	query := `
		SELECT id, name, description, duration_min, capacity, type, is_free, created_at
		FROM programs
		WHERE id = $1
	`

	var (
		program     model.Program
		durationMin int
	)
	err := r.QueryRow(ctx, query, id).Scan(
		&program.ID,
		&program.Name,
		&program.Description,
		&durationMin,
		&program.Capacity,
		&program.Type,
		&program.IsFree,
		&program.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get program: %w", err)
	}

	program.Duration = time.Duration(durationMin) * time.Minute
	return &program, nil
}
