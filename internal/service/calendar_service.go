package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/gym_bot/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const personalTrainingName = "Персональная тренировка"

// CalendarService создаёт и редактирует занятия и регулярные серии
type CalendarService struct {
	tx       Transactor
	calendar CalendarStore
	users    UserStore
	programs ProgramStore
	series   SeriesStore
	booking  *BookingService
	checker  *SlotCollisionChecker
	settings Settings
	logger   *zap.Logger
	now      func() time.Time
}

func NewCalendarService(
	tx Transactor,
	calendar CalendarStore,
	users UserStore,
	programs ProgramStore,
	series SeriesStore,
	booking *BookingService,
	settings Settings,
	logger *zap.Logger,
) *CalendarService {
	return &CalendarService{
		tx:       tx,
		calendar: calendar,
		users:    users,
		programs: programs,
		series:   series,
		booking:  booking,
		checker:  NewSlotCollisionChecker(calendar, settings.location()),
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// GetDay возвращает занятия дня
func (s *CalendarService) GetDay(ctx context.Context, id model.DayID) (*model.Day, error) {
	return s.calendar.GetDay(ctx, id)
}

// GetWeek возвращает занятия недели с понедельника по воскресенье
func (s *CalendarService) GetWeek(ctx context.Context, id model.WeekID) (*model.Week, error) {
	week := &model.Week{ID: id}
	for i, dayID := range id.Days() {
		day, err := s.calendar.GetDay(ctx, dayID)
		if err != nil {
			return nil, fmt.Errorf("get week: %w", err)
		}
		week.Days[i] = day
	}
	return week, nil
}

func (s *CalendarService) GetTraining(ctx context.Context, id model.TrainingID) (*model.Training, error) {
	training, err := s.calendar.GetTraining(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get training: %w", err)
	}
	if training == nil {
		return nil, ErrTrainingNotFound
	}
	return training, nil
}

// ClientTrainings возвращает будущие занятия клиента
func (s *CalendarService) ClientTrainings(ctx context.Context, clientID int64) ([]*model.Training, error) {
	return s.calendar.ClientTrainings(ctx, clientID, s.now())
}

// WeekDaysAfter возвращает курсор по тем же дням недели после day до горизонта
func (s *CalendarService) WeekDaysAfter(day model.DayID) *DayCursor {
	return NewDayCursor(s.calendar, day, s.settings.horizon(s.now()))
}

// ScheduleGroup создаёт групповое занятие по программе. Регулярное занятие
// создаётся на каждую неделю до горизонта одной транзакцией.
func (s *CalendarService) ScheduleGroup(
	ctx context.Context,
	programID uuid.UUID,
	startAt time.Time,
	instructorID int64,
	capacity int,
	isOneTime bool,
) (*model.Training, error) {
	var training *model.Training

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		program, err := s.programs.GetByID(ctx, programID)
		if err != nil {
			return fmt.Errorf("get program: %w", err)
		}
		if program == nil {
			return ErrProgramNotFound
		}

		if err := s.checkInstructor(ctx, instructorID); err != nil {
			return err
		}

		if capacity <= 0 {
			capacity = program.Capacity
		}

		training = &model.Training{
			SeriesID:     uuid.New(),
			ProgramID:    program.ID,
			Name:         program.Name,
			Description:  program.Description,
			StartAt:      startAt.Truncate(time.Minute).In(s.settings.location()),
			Duration:     program.Duration,
			InstructorID: instructorID,
			Capacity:     capacity,
			IsOneTime:    isOneTime,
			Type:         program.Type,
			IsFree:       program.IsFree,
		}

		return s.place(ctx, training)
	})
	if err != nil {
		logRejected(s.logger, "Schedule failed", err,
			zap.String("program_id", programID.String()),
			zap.Time("start_at", startAt),
		)
		return nil, err
	}

	s.logger.Info("Training scheduled",
		zap.String("training_id", training.ID().String()),
		zap.String("name", training.Name),
		zap.Int64("instructor_id", instructorID),
		zap.Bool("is_one_time", isOneTime),
	)
	return training, nil
}

// SchedulePersonal создаёт разовую персональную тренировку и сразу записывает на неё клиента
func (s *CalendarService) SchedulePersonal(
	ctx context.Context,
	clientID int64,
	instructorID int64,
	startAt time.Time,
	duration time.Duration,
) (*model.Training, error) {
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}

	var training *model.Training

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.checkInstructor(ctx, instructorID); err != nil {
			return err
		}

		client, err := s.users.GetByID(ctx, clientID)
		if err != nil {
			return fmt.Errorf("get client: %w", err)
		}
		if client == nil {
			return ErrClientNotFound
		}

		training = &model.Training{
			SeriesID:     uuid.New(),
			Name:         personalTrainingName,
			StartAt:      startAt.Truncate(time.Minute).In(s.settings.location()),
			Duration:     duration,
			InstructorID: instructorID,
			Capacity:     1,
			IsOneTime:    true,
			Type:         model.TrainingTypePersonal,
		}

		if err := s.place(ctx, training); err != nil {
			return err
		}

		if err := s.booking.signUp(ctx, training.ID(), clientID, true); err != nil {
			return err
		}
		training.AddClient(clientID)
		return nil
	})
	if err != nil {
		logRejected(s.logger, "Personal training schedule failed", err,
			zap.Int64("client_id", clientID),
			zap.Int64("instructor_id", instructorID),
			zap.Time("start_at", startAt),
		)
		return nil, err
	}

	s.logger.Info("Personal training scheduled",
		zap.String("training_id", training.ID().String()),
		zap.Int64("client_id", clientID),
		zap.Int64("instructor_id", instructorID),
	)
	return training, nil
}

// place проверяет пересечения и сохраняет занятие вместе со всеми будущими повторами
func (s *CalendarService) place(ctx context.Context, training *model.Training) error {
	var cursor *DayCursor
	if !training.IsOneTime {
		cursor = s.WeekDaysAfter(training.DayID(s.settings.location()))
	}

	collision, err := s.checker.Check(ctx, training.Slot(), cursor)
	if err != nil {
		return fmt.Errorf("check collisions: %w", err)
	}
	if collision != nil {
		return &CollisionError{Training: collision}
	}

	if !training.CanSignIn(s.now(), s.settings.SignupCutoff) {
		return &TooCloseToStartError{StartAt: training.StartAt}
	}

	if err := s.calendar.AddTraining(ctx, training); err != nil {
		return fmt.Errorf("add training: %w", err)
	}

	if cursor == nil {
		return nil
	}

	last := training.StartAt
	cursor.Reset()
	for {
		day, err := cursor.Next(ctx)
		if err != nil {
			return err
		}
		if day == nil {
			break
		}

		occurrence := training.Occurrence(day.ID)
		if err := s.calendar.AddTraining(ctx, occurrence); err != nil {
			return fmt.Errorf("add occurrence: %w", err)
		}
		last = occurrence.StartAt
	}

	return s.series.Create(ctx, model.NewRecurringSeries(training, last))
}

func (s *CalendarService) checkInstructor(ctx context.Context, instructorID int64) error {
	instructor, err := s.users.GetByID(ctx, instructorID)
	if err != nil {
		return fmt.Errorf("get instructor: %w", err)
	}
	if instructor == nil {
		return ErrInstructorNotFound
	}
	if !instructor.IsInstructor {
		return ErrInstructorHasNoRights
	}
	return nil
}

// EditDuration меняет длительность всех будущих занятий серии.
// Если хоть одно занятие начнёт пересекаться с другим, ничего не меняется.
func (s *CalendarService) EditDuration(ctx context.Context, seriesID uuid.UUID, duration time.Duration) error {
	if duration <= 0 {
		return ErrInvalidDuration
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		trainings, err := s.calendar.SeriesTrainings(ctx, seriesID, s.now())
		if err != nil {
			return fmt.Errorf("get series: %w", err)
		}
		trainings = unprocessed(trainings)
		if len(trainings) == 0 {
			return ErrTrainingNotFound
		}

		for _, training := range trainings {
			day, err := s.calendar.GetDay(ctx, training.DayID(s.settings.location()))
			if err != nil {
				return fmt.Errorf("get day: %w", err)
			}
			skip := training.ID()
			if collision := day.Collision(model.NewSlot(training.StartAt, duration), &skip); collision != nil {
				return &CollisionError{Training: collision}
			}
		}

		for _, training := range trainings {
			if err := s.calendar.UpdateDuration(ctx, training.ID(), duration); err != nil {
				return fmt.Errorf("update duration: %w", err)
			}
		}

		return s.updateTemplate(ctx, seriesID, func(series *model.RecurringSeries) {
			series.Duration = duration
		})
	})
	if err != nil {
		logRejected(s.logger, "Edit duration failed", err, zap.String("series_id", seriesID.String()))
		return err
	}

	s.logger.Info("Series duration changed",
		zap.String("series_id", seriesID.String()),
		zap.Duration("duration", duration),
	)
	return nil
}

// DeleteTraining удаляет занятие, а при all ещё и все следующие занятия серии
func (s *CalendarService) DeleteTraining(ctx context.Context, id model.TrainingID, all bool) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		targets, err := s.targets(ctx, id, all)
		if err != nil {
			return err
		}

		for _, training := range targets {
			if len(training.Clients) > 0 {
				return ErrTrainingHasClients
			}
		}

		for _, training := range targets {
			if err := s.calendar.DeleteTraining(ctx, training.ID()); err != nil {
				return fmt.Errorf("delete training: %w", err)
			}
		}

		if all && !targets[0].IsOneTime {
			if err := s.series.Deactivate(ctx, id.SeriesID); err != nil {
				return fmt.Errorf("deactivate series: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		logRejected(s.logger, "Delete training failed", err, zap.String("training_id", id.String()))
		return err
	}

	s.logger.Info("Training deleted", zap.String("training_id", id.String()), zap.Bool("all", all))
	return nil
}

// CancelTraining отменяет занятие и выписывает всех клиентов с возвратом единиц.
// Возвращает клиентов, которых нужно уведомить.
func (s *CalendarService) CancelTraining(ctx context.Context, id model.TrainingID, all bool) ([]int64, error) {
	var notify []int64

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		notify = nil

		training, err := s.calendar.GetTraining(ctx, id)
		if err != nil {
			return fmt.Errorf("get training: %w", err)
		}
		if training == nil {
			return ErrTrainingNotFound
		}

		now := s.now()
		if !training.CanBeCanceled(now, s.settings.SignupCutoff) {
			return ErrTrainingNotCancelable
		}

		targets := []*model.Training{training}
		if all {
			later, err := s.later(ctx, training)
			if err != nil {
				return err
			}
			for _, t := range later {
				if t.CanBeCanceled(now, s.settings.SignupCutoff) {
					targets = append(targets, t)
				}
			}
		}

		for _, target := range targets {
			for _, clientID := range target.Clients {
				if err := s.booking.signOut(ctx, target.ID(), clientID, true); err != nil {
					return fmt.Errorf("release client %d: %w", clientID, err)
				}
				notify = append(notify, clientID)
			}
			if err := s.calendar.SetCancelFlag(ctx, target.ID(), true); err != nil {
				return fmt.Errorf("set cancel flag: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		logRejected(s.logger, "Cancel training failed", err, zap.String("training_id", id.String()))
		return nil, err
	}

	s.logger.Info("Training canceled",
		zap.String("training_id", id.String()),
		zap.Bool("all", all),
		zap.Int("released_clients", len(notify)),
	)
	return notify, nil
}

// RestoreTraining снимает отмену, если время занятия всё ещё свободно
func (s *CalendarService) RestoreTraining(ctx context.Context, id model.TrainingID, all bool) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		training, err := s.calendar.GetTraining(ctx, id)
		if err != nil {
			return fmt.Errorf("get training: %w", err)
		}
		if training == nil {
			return ErrTrainingNotFound
		}

		now := s.now()
		if !training.CanBeUncanceled(now, s.settings.SignupCutoff) {
			return ErrTrainingNotRestorable
		}

		targets := []*model.Training{training}
		if all {
			later, err := s.later(ctx, training)
			if err != nil {
				return err
			}
			for _, t := range later {
				if t.CanBeUncanceled(now, s.settings.SignupCutoff) {
					targets = append(targets, t)
				}
			}
		}

		for _, target := range targets {
			day, err := s.calendar.GetDay(ctx, target.DayID(s.settings.location()))
			if err != nil {
				return fmt.Errorf("get day: %w", err)
			}
			skip := target.ID()
			if collision := day.Collision(target.Slot(), &skip); collision != nil {
				return &CollisionError{Training: collision}
			}
		}

		for _, target := range targets {
			if err := s.calendar.SetCancelFlag(ctx, target.ID(), false); err != nil {
				return fmt.Errorf("set cancel flag: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		logRejected(s.logger, "Restore training failed", err, zap.String("training_id", id.String()))
		return err
	}

	s.logger.Info("Training restored", zap.String("training_id", id.String()), zap.Bool("all", all))
	return nil
}

// ChangeInstructor назначает другого инструктора
func (s *CalendarService) ChangeInstructor(ctx context.Context, id model.TrainingID, instructorID int64, all bool) error {
	return s.apply(ctx, "change instructor", id, all,
		func(ctx context.Context) error {
			return s.checkInstructor(ctx, instructorID)
		},
		func(ctx context.Context, t *model.Training) error {
			return s.calendar.ChangeInstructor(ctx, t.ID(), instructorID)
		},
		func(series *model.RecurringSeries) {
			series.InstructorID = instructorID
		})
}

// SetKeepOpen оставляет запись открытой до начала занятия
func (s *CalendarService) SetKeepOpen(ctx context.Context, id model.TrainingID, keepOpen bool, all bool) error {
	return s.apply(ctx, "set keep open", id, all, nil,
		func(ctx context.Context, t *model.Training) error {
			return s.calendar.SetKeepOpen(ctx, t.ID(), keepOpen)
		},
		func(series *model.RecurringSeries) {
			series.KeepOpen = keepOpen
		})
}

// SetFree делает занятие бесплатным или платным
func (s *CalendarService) SetFree(ctx context.Context, id model.TrainingID, isFree bool, all bool) error {
	return s.apply(ctx, "set free", id, all, nil,
		func(ctx context.Context, t *model.Training) error {
			return s.calendar.SetFree(ctx, t.ID(), isFree)
		},
		func(series *model.RecurringSeries) {
			series.IsFree = isFree
		})
}

func (s *CalendarService) EditSeriesName(ctx context.Context, seriesID uuid.UUID, name string) error {
	return s.editSeries(ctx, seriesID,
		func(ctx context.Context) error {
			return s.calendar.EditSeriesName(ctx, seriesID, name)
		},
		func(series *model.RecurringSeries) {
			series.Name = name
		})
}

func (s *CalendarService) EditSeriesDescription(ctx context.Context, seriesID uuid.UUID, description string) error {
	return s.editSeries(ctx, seriesID,
		func(ctx context.Context) error {
			return s.calendar.EditSeriesDescription(ctx, seriesID, description)
		},
		func(series *model.RecurringSeries) {
			series.Description = description
		})
}

func (s *CalendarService) editSeries(
	ctx context.Context,
	seriesID uuid.UUID,
	edit func(ctx context.Context) error,
	template func(series *model.RecurringSeries),
) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		last, err := s.calendar.LastInSeries(ctx, seriesID)
		if err != nil {
			return fmt.Errorf("get series: %w", err)
		}
		if last == nil {
			return ErrTrainingNotFound
		}
		if err := edit(ctx); err != nil {
			return err
		}
		return s.updateTemplate(ctx, seriesID, template)
	})
}

// updateTemplate меняет шаблон регулярной серии. У разовых занятий шаблона нет.
func (s *CalendarService) updateTemplate(ctx context.Context, seriesID uuid.UUID, change func(series *model.RecurringSeries)) error {
	series, err := s.series.GetByID(ctx, seriesID)
	if err != nil {
		return fmt.Errorf("get series template: %w", err)
	}
	if series == nil {
		return nil
	}

	change(series)
	if err := s.series.UpdateTemplate(ctx, series); err != nil {
		return fmt.Errorf("update series template: %w", err)
	}
	return nil
}

// apply выполняет изменение для занятия и, при all, для следующих занятий серии
// и её шаблона. Изменение либо применяется ко всем, либо ни к одному.
func (s *CalendarService) apply(
	ctx context.Context,
	op string,
	id model.TrainingID,
	all bool,
	check func(ctx context.Context) error,
	change func(ctx context.Context, t *model.Training) error,
	template func(series *model.RecurringSeries),
) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if check != nil {
			if err := check(ctx); err != nil {
				return err
			}
		}

		targets, err := s.targets(ctx, id, all)
		if err != nil {
			return err
		}

		for _, t := range targets {
			if err := change(ctx, t); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}

		if !all {
			return nil
		}
		return s.updateTemplate(ctx, id.SeriesID, template)
	})
	if err != nil {
		logRejected(s.logger, "Training update failed", err,
			zap.String("op", op),
			zap.String("training_id", id.String()),
		)
		return err
	}

	s.logger.Info("Training updated",
		zap.String("op", op),
		zap.String("training_id", id.String()),
		zap.Bool("all", all),
	)
	return nil
}

// targets возвращает занятие и, при all, следующие необработанные занятия серии
func (s *CalendarService) targets(ctx context.Context, id model.TrainingID, all bool) ([]*model.Training, error) {
	training, err := s.calendar.GetTraining(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get training: %w", err)
	}
	if training == nil {
		return nil, ErrTrainingNotFound
	}

	targets := []*model.Training{training}
	if all {
		later, err := s.later(ctx, training)
		if err != nil {
			return nil, err
		}
		targets = append(targets, later...)
	}
	return targets, nil
}

// later возвращает необработанные занятия серии после training
func (s *CalendarService) later(ctx context.Context, training *model.Training) ([]*model.Training, error) {
	trainings, err := s.calendar.SeriesTrainings(ctx, training.SeriesID, training.StartAt.Add(time.Second))
	if err != nil {
		return nil, fmt.Errorf("get series: %w", err)
	}
	return unprocessed(trainings), nil
}

// ExtendSeries достраивает активные серии до горизонта.
// Недели, в которых время уже занято, пропускаются.
func (s *CalendarService) ExtendSeries(ctx context.Context) (int, error) {
	active, err := s.series.GetAllActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("get active series: %w", err)
	}

	horizon := s.settings.horizon(s.now())

	total := 0
	for _, series := range active {
		var count int
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			var err error
			count, err = s.extend(ctx, series, horizon)
			return err
		})
		if err != nil {
			s.logger.Error("Failed to extend series",
				zap.Error(err),
				zap.String("series_id", series.ID.String()),
			)
			continue
		}
		total += count
	}

	s.logger.Info("Extended recurring series",
		zap.Int("total_series", len(active)),
		zap.Int("total_trainings_created", total),
	)
	return total, nil
}

// extend создаёт недели по шаблону серии. От последнего занятия берётся
// только время суток.
func (s *CalendarService) extend(ctx context.Context, series *model.RecurringSeries, horizon model.DayID) (int, error) {
	last, err := s.calendar.LastInSeries(ctx, series.ID)
	if err != nil {
		return 0, fmt.Errorf("get last training: %w", err)
	}
	if last == nil {
		return 0, s.series.Deactivate(ctx, series.ID)
	}

	loc := s.settings.location()
	until := series.MaterializedUntil
	next := model.NewDayID(until.In(loc)).AddDays(7)

	created := 0
	for ; !next.After(horizon); next = next.AddDays(7) {
		occurrence := series.Occurrence(next, last.StartAt)
		until = occurrence.StartAt

		day, err := s.calendar.GetDay(ctx, next)
		if err != nil {
			return 0, fmt.Errorf("get day: %w", err)
		}
		if collision := day.Collision(occurrence.Slot(), nil); collision != nil {
			s.logger.Warn("Skipping occurrence due to collision",
				zap.String("series_id", series.ID.String()),
				zap.String("day", next.String()),
				zap.String("collides_with", collision.ID().String()),
			)
			continue
		}

		if err := s.calendar.AddTraining(ctx, occurrence); err != nil {
			return 0, fmt.Errorf("add occurrence: %w", err)
		}
		created++
	}

	if !until.Equal(series.MaterializedUntil) {
		if err := s.series.SetMaterializedUntil(ctx, series.ID, until); err != nil {
			return 0, err
		}
	}
	return created, nil
}

func unprocessed(trainings []*model.Training) []*model.Training {
	result := trainings[:0]
	for _, t := range trainings {
		if !t.IsProcessed {
			result = append(result, t)
		}
	}
	return result
}
