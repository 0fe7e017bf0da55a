// gymctl административные операции над расписанием без Telegram
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Freeeeeet/gym_bot/internal/app"
	"github.com/Freeeeeet/gym_bot/internal/config"
	"github.com/Freeeeeet/gym_bot/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const usage = `usage: gymctl <command> [flags]

commands:
  program   create a training program
  schedule  schedule a group training from a program
  personal  schedule a personal training and sign the client in
  cancel    cancel a training and release its clients
  sweep     run background jobs once`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx := context.Background()
	pool, err := app.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect", zap.Error(err))
	}
	defer pool.Close()

	services := app.NewServices(pool, cfg, logger)

	if err := run(ctx, services, os.Args[1], os.Args[2:]); err != nil {
		logger.Error("Command failed", zap.String("command", os.Args[1]), zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, s *app.Services, command string, args []string) error {
	fs := flag.NewFlagSet(command, flag.ExitOnError)
	loc := s.Settings.Location

	switch command {
	case "program":
		name := fs.String("name", "", "program name")
		description := fs.String("description", "", "program description")
		duration := fs.Duration("duration", time.Hour, "training duration")
		capacity := fs.Int("capacity", 10, "places per training")
		free := fs.Bool("free", false, "trainings are free")
		_ = fs.Parse(args)

		if *name == "" || *capacity <= 0 || *duration <= 0 {
			return fmt.Errorf("name, positive capacity and duration are required")
		}

		program := &model.Program{
			ID:          uuid.New(),
			Name:        *name,
			Description: *description,
			Duration:    *duration,
			Capacity:    *capacity,
			Type:        model.TrainingTypeGroup,
			IsFree:      *free,
		}
		if err := s.Programs.Create(ctx, program); err != nil {
			return err
		}
		fmt.Println(program.ID)

	case "schedule":
		programID := fs.String("program", "", "program id")
		at := fs.String("at", "", "start time, 2006-01-02 15:04 in studio time zone")
		instructor := fs.Int64("instructor", 0, "instructor user id")
		capacity := fs.Int("capacity", 0, "places, program capacity when zero")
		once := fs.Bool("once", false, "one-time training instead of weekly")
		_ = fs.Parse(args)

		id, err := uuid.Parse(*programID)
		if err != nil {
			return fmt.Errorf("parse program id: %w", err)
		}
		start, err := time.ParseInLocation("2006-01-02 15:04", *at, loc)
		if err != nil {
			return fmt.Errorf("parse start time: %w", err)
		}

		training, err := s.Calendar.ScheduleGroup(ctx, id, start, *instructor, *capacity, *once)
		if err != nil {
			return err
		}
		fmt.Println(training.ID())

	case "personal":
		client := fs.Int64("client", 0, "client user id")
		instructor := fs.Int64("instructor", 0, "instructor user id")
		at := fs.String("at", "", "start time, 2006-01-02 15:04 in studio time zone")
		duration := fs.Duration("duration", time.Hour, "training duration")
		_ = fs.Parse(args)

		start, err := time.ParseInLocation("2006-01-02 15:04", *at, loc)
		if err != nil {
			return fmt.Errorf("parse start time: %w", err)
		}

		training, err := s.Calendar.SchedulePersonal(ctx, *client, *instructor, start, *duration)
		if err != nil {
			return err
		}
		fmt.Println(training.ID())

	case "cancel":
		training := fs.String("training", "", "training id")
		all := fs.Bool("all", false, "cancel following trainings of the series too")
		_ = fs.Parse(args)

		id, err := model.ParseTrainingID(*training)
		if err != nil {
			return err
		}
		released, err := s.Calendar.CancelTraining(ctx, id, *all)
		if err != nil {
			return err
		}
		fmt.Printf("released clients: %v\n", released)

	case "sweep":
		_ = fs.Parse(args)
		for _, job := range s.Jobs() {
			count, err := job.Run(ctx)
			if err != nil {
				return fmt.Errorf("%s: %w", job.Name, err)
			}
			fmt.Printf("%s: %d\n", job.Name, count)
		}

	default:
		fmt.Fprintln(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}

	return nil
}
