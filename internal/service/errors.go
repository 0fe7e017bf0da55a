package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/gym_bot/internal/model"
)

var (
	ErrTrainingNotFound   = errors.New("training not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrClientNotFound     = errors.New("client not found")
	ErrInstructorNotFound = errors.New("instructor not found")
	ErrProgramNotFound    = errors.New("program not found")

	ErrClientAlreadySignedUp    = errors.New("client already signed up")
	ErrClientNotSignedUp        = errors.New("client not signed up")
	ErrTrainingNotOpenToSignOut = errors.New("training is not open to sign out")
	ErrTrainingHasClients       = errors.New("training has clients")
	ErrTrainingNotCancelable    = errors.New("training cannot be canceled")
	ErrTrainingNotRestorable    = errors.New("training is not canceled")
	ErrInvalidDuration          = errors.New("duration must be positive")

	ErrTrainingIsFull           = errors.New("training is full")
	ErrNotEnoughBalance         = model.ErrNotEnoughBalance
	ErrNotEnoughReservedBalance = model.ErrNotEnoughReservedBalance

	ErrUserIsCouch           = errors.New("user is an instructor")
	ErrInstructorHasNoRights = errors.New("instructor has no rights")
)

// TrainingNotOpenError запись закрыта в текущем статусе занятия
type TrainingNotOpenError struct {
	Status model.TrainingStatus
}

func (e *TrainingNotOpenError) Error() string {
	return fmt.Sprintf("training is not open to sign up: %s", e.Status)
}

// CollisionError новый слот пересекается с существующим занятием
type CollisionError struct {
	Training *model.Training
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("time slot collides with %q at %s",
		e.Training.Name, e.Training.StartAt.Format("2006-01-02 15:04"))
}

// TooCloseToStartError на занятие уже нельзя было бы записаться
type TooCloseToStartError struct {
	StartAt time.Time
}

func (e *TooCloseToStartError) Error() string {
	return fmt.Sprintf("training at %s is too close to start", e.StartAt.Format("2006-01-02 15:04"))
}

type ErrorKind int

const (
	KindInfrastructure ErrorKind = iota
	KindNotFound
	KindPreconditionFailed
	KindInsufficientResource
	KindCollision
	KindAuthorizationDenied
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindPreconditionFailed:
		return "precondition_failed"
	case KindInsufficientResource:
		return "insufficient_resource"
	case KindCollision:
		return "collision"
	case KindAuthorizationDenied:
		return "authorization_denied"
	default:
		return "infrastructure"
	}
}

// KindOf классифицирует ошибку операции
func KindOf(err error) ErrorKind {
	var (
		notOpen   *TrainingNotOpenError
		collision *CollisionError
		tooClose  *TooCloseToStartError
	)

	switch {
	case err == nil:
		return KindInfrastructure
	case errors.Is(err, ErrTrainingNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrClientNotFound),
		errors.Is(err, ErrInstructorNotFound),
		errors.Is(err, ErrProgramNotFound):
		return KindNotFound
	case errors.As(err, &notOpen),
		errors.As(err, &tooClose),
		errors.Is(err, ErrClientAlreadySignedUp),
		errors.Is(err, ErrClientNotSignedUp),
		errors.Is(err, ErrTrainingNotOpenToSignOut),
		errors.Is(err, ErrTrainingHasClients),
		errors.Is(err, ErrTrainingNotCancelable),
		errors.Is(err, ErrTrainingNotRestorable),
		errors.Is(err, ErrInvalidDuration):
		return KindPreconditionFailed
	case errors.Is(err, ErrTrainingIsFull),
		errors.Is(err, ErrNotEnoughBalance),
		errors.Is(err, ErrNotEnoughReservedBalance):
		return KindInsufficientResource
	case errors.As(err, &collision):
		return KindCollision
	case errors.Is(err, ErrUserIsCouch),
		errors.Is(err, ErrInstructorHasNoRights):
		return KindAuthorizationDenied
	default:
		return KindInfrastructure
	}
}
