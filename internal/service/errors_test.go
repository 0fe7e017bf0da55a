package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Freeeeeet/gym_bot/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"training not found", ErrTrainingNotFound, KindNotFound},
		{"wrapped program not found", fmt.Errorf("schedule: %w", ErrProgramNotFound), KindNotFound},
		{"closed to signup", &TrainingNotOpenError{Status: model.TrainingStatusClosedToSignup}, KindPreconditionFailed},
		{"too close", &TooCloseToStartError{StartAt: wednesdayEvening}, KindPreconditionFailed},
		{"already signed up", ErrClientAlreadySignedUp, KindPreconditionFailed},
		{"has clients", ErrTrainingHasClients, KindPreconditionFailed},
		{"full", ErrTrainingIsFull, KindInsufficientResource},
		{"balance", model.ErrNotEnoughBalance, KindInsufficientResource},
		{"reserved balance", fmt.Errorf("charge client 1: %w", ErrNotEnoughReservedBalance), KindInsufficientResource},
		{"collision", fmt.Errorf("place: %w", &CollisionError{Training: &model.Training{Name: "Йога", StartAt: wednesdayEvening}}), KindCollision},
		{"instructor", ErrUserIsCouch, KindAuthorizationDenied},
		{"no rights", ErrInstructorHasNoRights, KindAuthorizationDenied},
		{"payer not resolved", model.ErrPayerNotResolved, KindInfrastructure},
		{"storage", errors.New("connection reset"), KindInfrastructure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	start := time.Date(2025, 3, 12, 18, 0, 0, 0, time.UTC)

	collision := &CollisionError{Training: &model.Training{Name: "Йога", StartAt: start}}
	assert.Equal(t, `time slot collides with "Йога" at 2025-03-12 18:00`, collision.Error())

	notOpen := &TrainingNotOpenError{Status: model.TrainingStatusCancelled}
	assert.Equal(t, "training is not open to sign up: cancelled", notOpen.Error())

	assert.Equal(t, "collision", KindCollision.String())
	assert.Equal(t, "infrastructure", KindInfrastructure.String())
}
