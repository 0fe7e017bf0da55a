package app

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron"
	"go.uber.org/zap"
)

// Job фоновая задача. Run возвращает количество обработанных объектов.
type Job struct {
	Name string
	Run  func(ctx context.Context) (int, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	jobs    []Job
	locker  Locker
	lockTTL time.Duration
	logger  *zap.Logger

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler создаёт новый планировщик. Задачи выполняются по порядку в одном проходе.
func NewScheduler(locker Locker, logger *zap.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{
		jobs:    jobs,
		locker:  locker,
		lockTTL: 10 * time.Minute,
		logger:  logger,
	}
}

// Start запускает первый проход сразу и дальше по расписанию schedule
func (s *Scheduler) Start(ctx context.Context, schedule string) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.cron = cron.New()
	if err := s.cron.AddFunc(schedule, s.tick); err != nil {
		s.cancel()
		return err
	}

	s.logger.Info("Starting background scheduler",
		zap.String("schedule", schedule),
		zap.Int("jobs", len(s.jobs)),
	)

	s.tick()
	s.cron.Start()
	return nil
}

// Stop останавливает расписание и дожидается текущего прохода
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) tick() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.RunOnce(s.ctx)
	}()
}

// RunOnce выполняет все задачи под общей блокировкой.
// Если блокировку держит другой экземпляр, проход пропускается.
func (s *Scheduler) RunOnce(ctx context.Context) {
	release, ok, err := s.locker.TryLock(ctx, "sweep", s.lockTTL)
	if err != nil {
		s.logger.Error("Failed to acquire sweep lock", zap.Error(err))
		return
	}
	if !ok {
		s.logger.Debug("Sweep is already running elsewhere")
		return
	}
	defer release()

	for _, job := range s.jobs {
		if ctx.Err() != nil {
			return
		}

		started := time.Now()
		count, err := job.Run(ctx)
		if err != nil {
			s.logger.Error("Background job failed", zap.String("job", job.Name), zap.Error(err))
			continue
		}

		s.logger.Debug("Background job completed",
			zap.String("job", job.Name),
			zap.Int("count", count),
			zap.Duration("took", time.Since(started)),
		)
	}
}
