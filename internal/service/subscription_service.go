package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/gym_bot/internal/model"
	"go.uber.org/zap"
)

// SubscriptionService убирает истёкшие и исчерпанные абонементы
type SubscriptionService struct {
	tx      Transactor
	users   UserStore
	history *History
	logger  *zap.Logger
	now     func() time.Time
}

func NewSubscriptionService(tx Transactor, users UserStore, history *History, logger *zap.Logger) *SubscriptionService {
	return &SubscriptionService{
		tx:      tx,
		users:   users,
		history: history,
		logger:  logger,
		now:     time.Now,
	}
}

// ExpireSweep удаляет истёкшие абонементы без резерва и исчерпанные абонементы.
// Возвращает количество удалённых абонементов.
func (s *SubscriptionService) ExpireSweep(ctx context.Context) (int, error) {
	now := s.now()

	ids, err := s.users.UsersWithStaleSubscriptions(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("get users with stale subscriptions: %w", err)
	}

	total := 0
	for _, userID := range ids {
		var removed int
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			var err error
			removed, err = s.expire(ctx, userID, now)
			return err
		})
		if err != nil {
			s.logger.Error("Failed to expire subscriptions",
				zap.Error(err),
				zap.Int64("user_id", userID),
			)
			continue
		}
		total += removed
	}

	if total > 0 {
		s.logger.Info("Subscriptions cleaned up", zap.Int("removed", total))
	}
	return total, nil
}

func (s *SubscriptionService) expire(ctx context.Context, userID int64, now time.Time) (int, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return 0, nil
	}

	payer := model.NewPayer(user)

	expired := payer.Expire(now)
	for _, sub := range expired {
		if err := s.history.ExpireSubscription(ctx, now, user.ID, sub); err != nil {
			return 0, fmt.Errorf("record history: %w", err)
		}
	}

	empty := payer.CollectEmpty()
	for _, sub := range empty {
		s.logger.Info("Exhausted subscription removed",
			zap.Int64("user_id", user.ID),
			zap.String("subscription_id", sub.ID.String()),
		)
	}

	removed := len(expired) + len(empty)
	if removed == 0 {
		return 0, nil
	}

	if err := s.users.Update(ctx, user); err != nil {
		return 0, fmt.Errorf("update user: %w", err)
	}
	return removed, nil
}
