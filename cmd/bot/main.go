package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/gym_bot/internal/app"
	"github.com/Freeeeeet/gym_bot/internal/config"
	"github.com/Freeeeeet/gym_bot/internal/controller"
	"github.com/go-telegram/bot"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Bot stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting gym bot",
		zap.String("environment", cfg.Environment),
		zap.String("time_zone", cfg.TimeZone),
		zap.Duration("signup_cutoff", cfg.SignupCutoff),
		zap.Int("max_weeks", cfg.MaxWeeks),
	)

	pool, err := app.Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	services := app.NewServices(pool, cfg, logger)

	var locker app.Locker = app.NewLocalLocker()
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			return err
		}
		locker = app.NewRedisLocker(client)
		logger.Info("Using redis lock for background jobs", zap.String("addr", cfg.RedisAddr))
	}

	scheduler := app.NewScheduler(locker, logger, services.Jobs()...)
	if err := scheduler.Start(ctx, cfg.SweepSchedule); err != nil {
		return err
	}
	defer scheduler.Stop()

	if cfg.TelegramToken == "" {
		logger.Warn("TELEGRAM_TOKEN is not set, running background jobs only")
		<-ctx.Done()
		return nil
	}

	botInstance, err := bot.New(cfg.TelegramToken)
	if err != nil {
		return err
	}

	ctrl := controller.NewBotController(botInstance, services.Users, services.Calendar, services.Booking, services.Settings, logger)
	if err := ctrl.RegisterHandlers(ctx); err != nil {
		return err
	}

	return ctrl.Start(ctx)
}
