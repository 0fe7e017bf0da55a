package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Freeeeeet/gym_bot/internal/model"
	"github.com/Freeeeeet/gym_bot/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const trainingColumns = `
	series_id, start_at, program_id, name, description, duration_min, instructor_id,
	capacity, clients, is_one_time, is_canceled, is_processed, keep_open, type, is_free, statistics
`

// CalendarRepository хранит занятия, сгруппированные по дням
type CalendarRepository struct {
	*base.Repository
	loc *time.Location
}

func NewCalendarRepository(pool *pgxpool.Pool, loc *time.Location) *CalendarRepository {
	return &CalendarRepository{
		Repository: base.NewRepository(pool),
		loc:        loc,
	}
}

// GetDay возвращает все занятия дня. Пустой день тоже валиден.
func (r *CalendarRepository) GetDay(ctx context.Context, id model.DayID) (*model.Day, error) {
	query := `SELECT ` + trainingColumns + `
		FROM trainings
		WHERE day_id = $1
		ORDER BY start_at
	`

	rows, err := r.Query(ctx, query, id.Time())
	if err != nil {
		return nil, fmt.Errorf("get day: %w", err)
	}

	trainings, err := r.collect(rows)
	if err != nil {
		return nil, fmt.Errorf("get day: %w", err)
	}

	return &model.Day{ID: id, Trainings: trainings}, nil
}

// GetTraining получает занятие и блокирует строку до конца транзакции
func (r *CalendarRepository) GetTraining(ctx context.Context, id model.TrainingID) (*model.Training, error) {
	query := `SELECT ` + trainingColumns + `
		FROM trainings
		WHERE series_id = $1 AND start_at = $2
		FOR UPDATE
	`

	training, err := r.scan(r.QueryRow(ctx, query, id.SeriesID, id.StartAt))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get training: %w", err)
	}

	return training, nil
}

// AddTraining сохраняет новое занятие
func (r *CalendarRepository) AddTraining(ctx context.Context, t *model.Training) error {
	query := `
		INSERT INTO trainings (
			series_id, start_at, day_id, program_id, name, description, duration_min, instructor_id,
			capacity, clients, is_one_time, is_canceled, is_processed, keep_open, type, is_free
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.ExecAffected(ctx, query,
		t.SeriesID,
		t.StartAt,
		t.DayID(r.loc).Time(),
		nullUUID(t.ProgramID),
		t.Name,
		t.Description,
		int(t.Duration/time.Minute),
		t.InstructorID,
		t.Capacity,
		clientsParam(t.Clients),
		t.IsOneTime,
		t.IsCanceled,
		t.IsProcessed,
		t.KeepOpen,
		t.Type,
		t.IsFree,
	)
	if err != nil {
		return fmt.Errorf("add training: %w", err)
	}

	return nil
}

// SetClients перезаписывает список клиентов занятия
func (r *CalendarRepository) SetClients(ctx context.Context, id model.TrainingID, clients []int64) error {
	return r.update(ctx, "set clients", `UPDATE trainings SET clients = $3 WHERE series_id = $1 AND start_at = $2`,
		id, clientsParam(clients))
}

func (r *CalendarRepository) SetCancelFlag(ctx context.Context, id model.TrainingID, canceled bool) error {
	return r.update(ctx, "set cancel flag", `UPDATE trainings SET is_canceled = $3 WHERE series_id = $1 AND start_at = $2`,
		id, canceled)
}

func (r *CalendarRepository) SetKeepOpen(ctx context.Context, id model.TrainingID, keepOpen bool) error {
	return r.update(ctx, "set keep open", `UPDATE trainings SET keep_open = $3 WHERE series_id = $1 AND start_at = $2`,
		id, keepOpen)
}

func (r *CalendarRepository) SetFree(ctx context.Context, id model.TrainingID, isFree bool) error {
	return r.update(ctx, "set free", `UPDATE trainings SET is_free = $3 WHERE series_id = $1 AND start_at = $2`,
		id, isFree)
}

func (r *CalendarRepository) ChangeInstructor(ctx context.Context, id model.TrainingID, instructorID int64) error {
	return r.update(ctx, "change instructor", `UPDATE trainings SET instructor_id = $3 WHERE series_id = $1 AND start_at = $2`,
		id, instructorID)
}

func (r *CalendarRepository) UpdateDuration(ctx context.Context, id model.TrainingID, duration time.Duration) error {
	return r.update(ctx, "update duration", `UPDATE trainings SET duration_min = $3 WHERE series_id = $1 AND start_at = $2`,
		id, int(duration/time.Minute))
}

// SetProcessed помечает занятие проведённым и сохраняет статистику
func (r *CalendarRepository) SetProcessed(ctx context.Context, id model.TrainingID, stats *model.Statistics) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal statistics: %w", err)
	}

	return r.update(ctx, "set processed",
		`UPDATE trainings SET is_processed = TRUE, statistics = $3 WHERE series_id = $1 AND start_at = $2 AND NOT is_processed`,
		id, payload)
}

func (r *CalendarRepository) DeleteTraining(ctx context.Context, id model.TrainingID) error {
	return r.update(ctx, "delete training", `DELETE FROM trainings WHERE series_id = $1 AND start_at = $2`, id)
}

// EditSeriesName меняет название всех будущих занятий серии
func (r *CalendarRepository) EditSeriesName(ctx context.Context, seriesID uuid.UUID, name string) error {
	_, err := r.ExecAffected(ctx,
		`UPDATE trainings SET name = $2 WHERE series_id = $1 AND NOT is_processed`,
		seriesID, name)
	if err != nil {
		return fmt.Errorf("edit series name: %w", err)
	}
	return nil
}

// EditSeriesDescription меняет описание всех будущих занятий серии
func (r *CalendarRepository) EditSeriesDescription(ctx context.Context, seriesID uuid.UUID, description string) error {
	_, err := r.ExecAffected(ctx,
		`UPDATE trainings SET description = $2 WHERE series_id = $1 AND NOT is_processed`,
		seriesID, description)
	if err != nil {
		return fmt.Errorf("edit series description: %w", err)
	}
	return nil
}

// SeriesTrainings возвращает занятия серии, начинающиеся не раньше from
func (r *CalendarRepository) SeriesTrainings(ctx context.Context, seriesID uuid.UUID, from time.Time) ([]*model.Training, error) {
	query := `SELECT ` + trainingColumns + `
		FROM trainings
		WHERE series_id = $1 AND start_at >= $2
		ORDER BY start_at
	`

	rows, err := r.Query(ctx, query, seriesID, from)
	if err != nil {
		return nil, fmt.Errorf("get series trainings: %w", err)
	}

	trainings, err := r.collect(rows)
	if err != nil {
		return nil, fmt.Errorf("get series trainings: %w", err)
	}
	return trainings, nil
}

// LastInSeries возвращает последнее занятие серии
func (r *CalendarRepository) LastInSeries(ctx context.Context, seriesID uuid.UUID) (*model.Training, error) {
	query := `SELECT ` + trainingColumns + `
		FROM trainings
		WHERE series_id = $1
		ORDER BY start_at DESC
		LIMIT 1
	`

	training, err := r.scan(r.QueryRow(ctx, query, seriesID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get last in series: %w", err)
	}
	return training, nil
}

// TrainingsToFinalize возвращает необработанные занятия, начавшиеся до now
func (r *CalendarRepository) TrainingsToFinalize(ctx context.Context, now time.Time) ([]model.TrainingID, error) {
	query := `
		SELECT series_id, start_at
		FROM trainings
		WHERE NOT is_processed AND start_at < $1
		ORDER BY start_at
	`

	rows, err := r.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("get trainings to finalize: %w", err)
	}
	defer rows.Close()

	var ids []model.TrainingID
	for rows.Next() {
		var id model.TrainingID
		if err := rows.Scan(&id.SeriesID, &id.StartAt); err != nil {
			return nil, fmt.Errorf("scan training id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// ClientTrainings возвращает будущие занятия клиента
func (r *CalendarRepository) ClientTrainings(ctx context.Context, clientID int64, from time.Time) ([]*model.Training, error) {
	query := `SELECT ` + trainingColumns + `
		FROM trainings
		WHERE $1 = ANY(clients) AND start_at >= $2
		ORDER BY start_at
	`

	rows, err := r.Query(ctx, query, clientID, from)
	if err != nil {
		return nil, fmt.Errorf("get client trainings: %w", err)
	}

	trainings, err := r.collect(rows)
	if err != nil {
		return nil, fmt.Errorf("get client trainings: %w", err)
	}
	return trainings, nil
}

func (r *CalendarRepository) update(ctx context.Context, op, query string, id model.TrainingID, args ...any) error {
	params := append([]any{id.SeriesID, id.StartAt}, args...)
	if _, err := r.ExecAffected(ctx, query, params...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *CalendarRepository) collect(rows pgx.Rows) ([]*model.Training, error) {
	defer rows.Close()

	var trainings []*model.Training
	for rows.Next() {
		training, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		trainings = append(trainings, training)
	}

	return trainings, rows.Err()
}

func (r *CalendarRepository) scan(row pgx.Row) (*model.Training, error) {
	var (
		t           model.Training
		programID   *uuid.UUID
		durationMin int
		stats       []byte
	)

	err := row.Scan(
		&t.SeriesID,
		&t.StartAt,
		&programID,
		&t.Name,
		&t.Description,
		&durationMin,
		&t.InstructorID,
		&t.Capacity,
		&t.Clients,
		&t.IsOneTime,
		&t.IsCanceled,
		&t.IsProcessed,
		&t.KeepOpen,
		&t.Type,
		&t.IsFree,
		&stats,
	)
	if err != nil {
		return nil, err
	}

	t.StartAt = t.StartAt.In(r.loc)
	t.Duration = time.Duration(durationMin) * time.Minute
	if programID != nil {
		t.ProgramID = *programID
	}
	if len(stats) > 0 {
		t.Statistics = &model.Statistics{}
		if err := json.Unmarshal(stats, t.Statistics); err != nil {
			return nil, fmt.Errorf("unmarshal statistics: %w", err)
		}
	}

	return &t, nil
}

func clientsParam(clients []int64) []int64 {
	if clients == nil {
		return []int64{}
	}
	return clients
}

func nullUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
