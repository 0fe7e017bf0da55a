package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/gym_bot/internal/model"
	"go.uber.org/zap"
)

type UserService struct {
	users   UserStore
	family  *FamilyResolver
	history *History
	logger  *zap.Logger
}

func NewUserService(users UserStore, family *FamilyResolver, history *History, logger *zap.Logger) *UserService {
	return &UserService{
		users:   users,
		family:  family,
		history: history,
		logger:  logger,
	}
}

// RegisterUser регистрирует или обновляет пользователя
func (s *UserService) RegisterUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*model.User, error) {
	existingUser, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	if existingUser != nil {
		existingUser.Username = username
		existingUser.FirstName = firstName
		existingUser.LastName = lastName

		if err := s.users.Update(ctx, existingUser); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}

		return existingUser, nil
	}

	user := &model.User{
		TelegramID: telegramID,
		Username:   username,
		FirstName:  firstName,
		LastName:   lastName,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("New user registered",
		zap.Int64("user_id", user.ID),
		zap.Int64("telegram_id", telegramID),
		zap.String("username", username),
	)

	return user, nil
}

// GetByTelegramID получает пользователя по Telegram ID
func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.users.GetByTelegramID(ctx, telegramID)
}

// Family возвращает семью пользователя с плательщиком и иждивенцами
func (s *UserService) Family(ctx context.Context, user *model.User) (*model.FamilyView, error) {
	return s.family.Resolve(ctx, user)
}

// History возвращает последние действия пользователя
func (s *UserService) History(ctx context.Context, userID int64, limit int) ([]*model.HistoryRow, error) {
	return s.history.ListByActor(ctx, userID, limit)
}

// TelegramID возвращает чат пользователя для уведомлений
func (s *UserService) TelegramID(ctx context.Context, userID int64) (int64, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return 0, ErrUserNotFound
	}
	return user.TelegramID, nil
}
