package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/gym_bot/internal/model"
	"github.com/google/uuid"
)

// Transactor выполняет функцию в одной транзакции хранилища
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// DayReader читает дни календаря
type DayReader interface {
	GetDay(ctx context.Context, id model.DayID) (*model.Day, error)
}

// CalendarStore хранилище занятий
type CalendarStore interface {
	DayReader
	GetTraining(ctx context.Context, id model.TrainingID) (*model.Training, error)
	AddTraining(ctx context.Context, t *model.Training) error
	SetClients(ctx context.Context, id model.TrainingID, clients []int64) error
	SetCancelFlag(ctx context.Context, id model.TrainingID, canceled bool) error
	SetKeepOpen(ctx context.Context, id model.TrainingID, keepOpen bool) error
	SetFree(ctx context.Context, id model.TrainingID, isFree bool) error
	ChangeInstructor(ctx context.Context, id model.TrainingID, instructorID int64) error
	UpdateDuration(ctx context.Context, id model.TrainingID, duration time.Duration) error
	SetProcessed(ctx context.Context, id model.TrainingID, stats *model.Statistics) error
	DeleteTraining(ctx context.Context, id model.TrainingID) error
	EditSeriesName(ctx context.Context, seriesID uuid.UUID, name string) error
	EditSeriesDescription(ctx context.Context, seriesID uuid.UUID, description string) error
	SeriesTrainings(ctx context.Context, seriesID uuid.UUID, from time.Time) ([]*model.Training, error)
	LastInSeries(ctx context.Context, seriesID uuid.UUID) (*model.Training, error)
	TrainingsToFinalize(ctx context.Context, now time.Time) ([]model.TrainingID, error)
	ClientTrainings(ctx context.Context, clientID int64, from time.Time) ([]*model.Training, error)
}

// UserStore хранилище пользователей вместе с абонементами
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	UsersWithStaleSubscriptions(ctx context.Context, now time.Time) ([]int64, error)
}

type ProgramStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Program, error)
}

type SeriesStore interface {
	Create(ctx context.Context, series *model.RecurringSeries) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.RecurringSeries, error)
	GetAllActive(ctx context.Context) ([]*model.RecurringSeries, error)
	UpdateTemplate(ctx context.Context, series *model.RecurringSeries) error
	SetMaterializedUntil(ctx context.Context, id uuid.UUID, until time.Time) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type AttendanceStore interface {
	Add(ctx context.Context, a *model.Attendance) error
	Get(ctx context.Context, id model.TrainingID, clientID int64) (*model.Attendance, error)
	Delete(ctx context.Context, id model.TrainingID, clientID int64) error
}

type HistoryStore interface {
	Store(ctx context.Context, row *model.HistoryRow) error
	ListByActor(ctx context.Context, actor int64, limit int) ([]*model.HistoryRow, error)
}

// Settings параметры календаря
type Settings struct {
	Location     *time.Location
	SignupCutoff time.Duration
	MaxWeeks     int
}

func (s Settings) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// horizon последний день, до которого материализуются регулярные серии
func (s Settings) horizon(now time.Time) model.DayID {
	return model.NewDayID(now.In(s.location())).AddDays(7 * s.MaxWeeks)
}
