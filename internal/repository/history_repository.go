package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/gym_bot/internal/model"
	"github.com/Freeeeeet/gym_bot/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type HistoryRepository struct {
	*base.Repository
}

func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{Repository: base.NewRepository(pool)}
}

// Store добавляет запись в журнал
func (r *HistoryRepository) Store(ctx context.Context, row *model.HistoryRow) error {
	query := `
		INSERT INTO history (id, actor, sub_actors, action, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.ExecAffected(ctx, query,
		row.ID,
		row.Actor,
		clientsParam(row.SubActors),
		row.Action,
		row.Payload,
		row.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("store history: %w", err)
	}

	return nil
}

// ListByActor возвращает последние записи пользователя
func (r *HistoryRepository) ListByActor(ctx context.Context, actor int64, limit int) ([]*model.HistoryRow, error) {
	query := `
		SELECT id, actor, sub_actors, action, payload, created_at
		FROM history
		WHERE actor = $1 OR $1 = ANY(sub_actors)
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.Query(ctx, query, actor, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var result []*model.HistoryRow
	for rows.Next() {
		var row model.HistoryRow
		err := rows.Scan(&row.ID, &row.Actor, &row.SubActors, &row.Action, &row.Payload, &row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		result = append(result, &row)
	}

	return result, rows.Err()
}
