package app

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/gym_bot/internal/config"
	"github.com/Freeeeeet/gym_bot/internal/repository"
	"github.com/Freeeeeet/gym_bot/internal/repository/base"
	"github.com/Freeeeeet/gym_bot/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Services собранный слой сервисов поверх PostgreSQL
type Services struct {
	Settings      service.Settings
	Programs      *repository.ProgramRepository
	Users         *service.UserService
	Calendar      *service.CalendarService
	Booking       *service.BookingService
	Finalization  *service.FinalizationService
	Subscriptions *service.SubscriptionService
}

// Connect открывает пул и применяет миграции
func Connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	migrator, err := NewMigrator(pool, cfg.MigrationsDir, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// NewServices связывает репозитории и сервисы
func NewServices(pool *pgxpool.Pool, cfg *config.Config, logger *zap.Logger) *Services {
	settings := service.Settings{
		Location:     cfg.Location(),
		SignupCutoff: cfg.SignupCutoff,
		MaxWeeks:     cfg.MaxWeeks,
	}

	tx := base.NewTxManager(pool, cfg.TxMaxRetries, logger)
	calendar := repository.NewCalendarRepository(pool, settings.Location)
	users := repository.NewUserRepository(pool)
	attendance := repository.NewAttendanceRepository(pool)
	programs := repository.NewProgramRepository(pool)
	series := repository.NewRecurringSeriesRepository(pool)
	history := service.NewHistory(repository.NewHistoryRepository(pool))
	family := service.NewFamilyResolver(users)

	booking := service.NewBookingService(tx, calendar, users, attendance, family, history, settings, logger)

	return &Services{
		Settings:      settings,
		Programs:      programs,
		Users:         service.NewUserService(users, family, history, logger),
		Calendar:      service.NewCalendarService(tx, calendar, users, programs, series, booking, settings, logger),
		Booking:       booking,
		Finalization:  service.NewFinalizationService(tx, calendar, users, attendance, family, history, settings, logger),
		Subscriptions: service.NewSubscriptionService(tx, users, history, logger),
	}
}

// Jobs фоновые задачи в порядке выполнения: сначала закрываются прошедшие
// занятия, затем чистятся абонементы, затем достраиваются серии
func (s *Services) Jobs() []Job {
	return []Job{
		{Name: "finalize", Run: s.Finalization.Sweep},
		{Name: "expire_subscriptions", Run: s.Subscriptions.ExpireSweep},
		{Name: "extend_series", Run: s.Calendar.ExtendSeries},
	}
}
