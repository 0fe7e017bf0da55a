package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/gym_bot/internal/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FinalizationService переводит прошедшие занятия в окончательное состояние
// и списывает зарезервированные единицы абонементов
type FinalizationService struct {
	tx         Transactor
	calendar   CalendarStore
	users      UserStore
	attendance AttendanceStore
	family     *FamilyResolver
	history    *History
	settings   Settings
	logger     *zap.Logger
	now        func() time.Time
}

func NewFinalizationService(
	tx Transactor,
	calendar CalendarStore,
	users UserStore,
	attendance AttendanceStore,
	family *FamilyResolver,
	history *History,
	settings Settings,
	logger *zap.Logger,
) *FinalizationService {
	return &FinalizationService{
		tx:         tx,
		calendar:   calendar,
		users:      users,
		attendance: attendance,
		family:     family,
		history:    history,
		settings:   settings,
		logger:     logger,
		now:        time.Now,
	}
}

// Sweep обрабатывает все прошедшие необработанные занятия.
// Каждое занятие обрабатывается в своей транзакции, ошибка одного не останавливает остальные.
func (s *FinalizationService) Sweep(ctx context.Context) (int, error) {
	now := s.now()

	ids, err := s.calendar.TrainingsToFinalize(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("get trainings to finalize: %w", err)
	}

	processed := 0
	for _, id := range ids {
		var done bool
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			var err error
			done, err = s.finalize(ctx, id, now)
			return err
		})
		if err != nil {
			s.logger.Error("Failed to finalize training",
				zap.Error(err),
				zap.String("training_id", id.String()),
			)
			continue
		}
		if done {
			processed++
		}
	}

	if processed > 0 {
		s.logger.Info("Finalization sweep completed",
			zap.Int("candidates", len(ids)),
			zap.Int("processed", processed),
		)
	}
	return processed, nil
}

func (s *FinalizationService) finalize(ctx context.Context, id model.TrainingID, now time.Time) (bool, error) {
	training, err := s.calendar.GetTraining(ctx, id)
	if err != nil {
		return false, fmt.Errorf("get training: %w", err)
	}
	if training == nil || training.IsProcessed {
		return false, nil
	}

	switch training.Status(now, s.settings.SignupCutoff) {
	case model.TrainingStatusCancelled:
		if training.StartAt.After(now) {
			return false, nil
		}

		training.Statistics = &model.Statistics{}
		if err := s.calendar.SetProcessed(ctx, id, training.Statistics); err != nil {
			return false, fmt.Errorf("set processed: %w", err)
		}
		if err := s.history.FinalizedCanceled(ctx, now, training); err != nil {
			return false, fmt.Errorf("record history: %w", err)
		}

	case model.TrainingStatusFinished:
		stats, err := s.settle(ctx, training)
		if err != nil {
			return false, err
		}

		training.Statistics = stats
		if err := s.calendar.SetProcessed(ctx, id, stats); err != nil {
			return false, fmt.Errorf("set processed: %w", err)
		}
		if err := s.history.Finalized(ctx, now, training); err != nil {
			return false, fmt.Errorf("record history: %w", err)
		}

	default:
		return false, nil
	}

	return true, nil
}

// settle списывает единицу за каждого клиента и начисляет вознаграждение инструктору
func (s *FinalizationService) settle(ctx context.Context, training *model.Training) (*model.Statistics, error) {
	stats := &model.Statistics{
		Earned:           decimal.Zero,
		Clients:          len(training.Clients),
		InstructorReward: decimal.Zero,
	}

	// один пользователь может платить за нескольких клиентов
	loaded := make(map[int64]*model.User)
	var order []int64
	load := func(id int64) (*model.User, error) {
		if user, ok := loaded[id]; ok {
			return user, nil
		}
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get user %d: %w", id, err)
		}
		if user != nil {
			loaded[id] = user
			order = append(order, id)
		}
		return user, nil
	}

	for _, clientID := range training.Clients {
		attendance, err := s.attendance.Get(ctx, training.ID(), clientID)
		if err != nil {
			return nil, fmt.Errorf("get attendance: %w", err)
		}

		var payerUser *model.User
		switch {
		case attendance != nil && attendance.SubscriptionID == nil:
			continue
		case attendance != nil:
			if payerUser, err = load(attendance.PayerID); err != nil {
				return nil, err
			}
		case training.IsFree:
			continue
		default:
			client, err := load(clientID)
			if err != nil {
				return nil, err
			}
			if client == nil {
				return nil, ErrUserNotFound
			}
			view, err := s.family.ResolvePayer(ctx, client)
			if err != nil {
				return nil, fmt.Errorf("resolve payer: %w", err)
			}
			if view.Payer != nil {
				if payerUser, err = load(view.Payer.ID); err != nil {
					return nil, err
				}
			}
		}
		if payerUser == nil {
			return nil, model.ErrPayerNotResolved
		}

		payer := model.NewPayer(payerUser)
		var sub *model.UserSubscription
		if attendance != nil {
			sub = payer.SubscriptionByID(*attendance.SubscriptionID)
		}
		if sub == nil || sub.LockedBalance == 0 {
			sub = payer.FindSubscription(model.ReasonCharge, training)
		}
		if sub == nil {
			return nil, fmt.Errorf("charge client %d: %w", clientID, ErrNotEnoughReservedBalance)
		}

		price := sub.UnitPrice()
		if err := sub.Charge(); err != nil {
			return nil, fmt.Errorf("charge client %d: %w", clientID, err)
		}
		stats.Earned = stats.Earned.Add(price)
	}

	instructor, err := load(training.InstructorID)
	if err != nil {
		return nil, err
	}
	if instructor != nil && stats.Clients > 0 {
		stats.InstructorReward = instructor.RewardRate.Mul(decimal.NewFromInt(int64(stats.Clients)))
		instructor.Reward = instructor.Reward.Add(stats.InstructorReward)
	}

	for _, id := range order {
		if err := s.users.Update(ctx, loaded[id]); err != nil {
			return nil, fmt.Errorf("update user %d: %w", id, err)
		}
	}

	return stats, nil
}
