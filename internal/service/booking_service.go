package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/gym_bot/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingService записывает клиентов на занятия и выписывает их,
// резервируя единицы абонемента плательщика
type BookingService struct {
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

func NewBookingService(
	tx Transactor,
	calendar CalendarStore,
	users UserStore,
	attendance AttendanceStore,
	family *FamilyResolver,
	history *History,
	settings Settings,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
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

// SignUp записывает клиента на занятие. forced отключает проверку статуса.
func (s *BookingService) SignUp(ctx context.Context, id model.TrainingID, clientID int64, forced bool) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.signUp(ctx, id, clientID, forced)
	})
	if err != nil {
		logRejected(s.logger, "Sign up failed", err,
			zap.String("training_id", id.String()),
			zap.Int64("client_id", clientID),
		)
		return err
	}

	s.logger.Info("Client signed up",
		zap.String("training_id", id.String()),
		zap.Int64("client_id", clientID),
		zap.Bool("forced", forced),
	)
	return nil
}

// SignOut выписывает клиента и возвращает зарезервированную единицу
func (s *BookingService) SignOut(ctx context.Context, id model.TrainingID, clientID int64, forced bool) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.signOut(ctx, id, clientID, forced)
	})
	if err != nil {
		logRejected(s.logger, "Sign out failed", err,
			zap.String("training_id", id.String()),
			zap.Int64("client_id", clientID),
		)
		return err
	}

	s.logger.Info("Client signed out",
		zap.String("training_id", id.String()),
		zap.Int64("client_id", clientID),
		zap.Bool("forced", forced),
	)
	return nil
}

func (s *BookingService) signUp(ctx context.Context, id model.TrainingID, clientID int64, forced bool) error {
	training, err := s.calendar.GetTraining(ctx, id)
	if err != nil {
		return fmt.Errorf("get training: %w", err)
	}
	if training == nil {
		return ErrTrainingNotFound
	}

	if !forced {
		status := training.Status(s.now(), s.settings.SignupCutoff)
		if status != model.TrainingStatusOpenToSignup {
			return &TrainingNotOpenError{Status: status}
		}
	}
	if training.IsProcessed {
		return &TrainingNotOpenError{Status: model.TrainingStatusFinished}
	}
	// на отменённое занятие не записывают даже принудительно
	if training.IsCanceled {
		return &TrainingNotOpenError{Status: model.TrainingStatusCancelled}
	}
	if training.HasClient(clientID) {
		return ErrClientAlreadySignedUp
	}
	if training.IsFull() {
		return ErrTrainingIsFull
	}

	client, err := s.users.GetByID(ctx, clientID)
	if err != nil {
		return fmt.Errorf("get client: %w", err)
	}
	if client == nil {
		return ErrUserNotFound
	}
	if client.IsInstructor {
		return ErrUserIsCouch
	}

	view, err := s.family.ResolvePayer(ctx, client)
	if err != nil {
		return fmt.Errorf("resolve payer: %w", err)
	}
	payer, err := view.PayerMut()
	if err != nil {
		return err
	}

	attendance := &model.Attendance{
		TrainingID: id,
		ClientID:   clientID,
		PayerID:    payer.User().ID,
	}

	if !training.IsFree {
		sub := payer.FindSubscription(model.ReasonLock, training)
		if sub == nil {
			return ErrNotEnoughBalance
		}
		if err := sub.Lock(training); err != nil {
			return err
		}
		if err := s.users.Update(ctx, payer.User()); err != nil {
			return fmt.Errorf("update payer: %w", err)
		}
		subID := sub.ID
		attendance.SubscriptionID = &subID
	}

	if err := s.attendance.Add(ctx, attendance); err != nil {
		return fmt.Errorf("add attendance: %w", err)
	}

	training.AddClient(clientID)
	if err := s.calendar.SetClients(ctx, id, training.Clients); err != nil {
		return fmt.Errorf("add client: %w", err)
	}

	if err := s.history.SignUp(ctx, s.now(), clientID, training, attendance.SubscriptionID); err != nil {
		return fmt.Errorf("record history: %w", err)
	}

	return nil
}

func (s *BookingService) signOut(ctx context.Context, id model.TrainingID, clientID int64, forced bool) error {
	training, err := s.calendar.GetTraining(ctx, id)
	if err != nil {
		return fmt.Errorf("get training: %w", err)
	}
	if training == nil {
		return ErrTrainingNotFound
	}

	if training.IsProcessed {
		return ErrTrainingNotOpenToSignOut
	}
	if !forced && !training.Status(s.now(), s.settings.SignupCutoff).CanSignOut() {
		return ErrTrainingNotOpenToSignOut
	}
	if !training.HasClient(clientID) {
		return ErrClientNotSignedUp
	}

	client, err := s.users.GetByID(ctx, clientID)
	if err != nil {
		return fmt.Errorf("get client: %w", err)
	}
	if client == nil {
		return ErrUserNotFound
	}

	attendance, err := s.attendance.Get(ctx, id, clientID)
	if err != nil {
		return fmt.Errorf("get attendance: %w", err)
	}

	released, err := s.release(ctx, training, client, attendance)
	if err != nil {
		return err
	}

	if attendance != nil {
		if err := s.attendance.Delete(ctx, id, clientID); err != nil {
			return fmt.Errorf("delete attendance: %w", err)
		}
	}

	training.RemoveClient(clientID)
	if err := s.calendar.SetClients(ctx, id, training.Clients); err != nil {
		return fmt.Errorf("remove client: %w", err)
	}

	var releasedID *uuid.UUID
	if released != nil {
		releasedID = &released.ID
	}
	if err := s.history.SignOut(ctx, s.now(), clientID, training, releasedID); err != nil {
		return fmt.Errorf("record history: %w", err)
	}

	return nil
}

// release возвращает единицу, зарезервированную за клиентом.
// Сначала используется абонемент из записи, затем общий выбор по плательщику.
func (s *BookingService) release(ctx context.Context, training *model.Training, client *model.User, attendance *model.Attendance) (*model.UserSubscription, error) {
	var payerUser *model.User

	switch {
	case attendance != nil && attendance.SubscriptionID == nil:
		return nil, nil
	case attendance != nil && attendance.PayerID == client.ID:
		payerUser = client
	case attendance != nil:
		user, err := s.users.GetByID(ctx, attendance.PayerID)
		if err != nil {
			return nil, fmt.Errorf("get payer: %w", err)
		}
		payerUser = user
	case training.IsFree:
		return nil, nil
	}

	if payerUser == nil {
		view, err := s.family.ResolvePayer(ctx, client)
		if err != nil {
			return nil, fmt.Errorf("resolve payer: %w", err)
		}
		if payerUser = view.Payer; payerUser == nil {
			return nil, model.ErrPayerNotResolved
		}
	}

	payer := model.NewPayer(payerUser)

	var sub *model.UserSubscription
	if attendance != nil {
		sub = payer.SubscriptionByID(*attendance.SubscriptionID)
	}
	if sub == nil || sub.LockedBalance == 0 {
		sub = payer.FindSubscription(model.ReasonUnlock, training)
	}
	if sub == nil {
		return nil, ErrNotEnoughReservedBalance
	}

	if err := sub.Unlock(); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, payerUser); err != nil {
		return nil, fmt.Errorf("update payer: %w", err)
	}

	return sub, nil
}

// logRejected пишет бизнес-отказы в Warn, а сбои инфраструктуры в Error
func logRejected(logger *zap.Logger, msg string, err error, fields ...zap.Field) {
	kind := KindOf(err)
	fields = append(fields, zap.Error(err), zap.Stringer("kind", kind))
	if kind == KindInfrastructure {
		logger.Error(msg, fields...)
		return
	}
	logger.Warn(msg, fields...)
}
