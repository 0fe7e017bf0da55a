package controller

import (
	"errors"
	"fmt"

	"github.com/Freeeeeet/gym_bot/internal/model"
	"github.com/Freeeeeet/gym_bot/internal/service"
)

var (
	ErrNoMessage     = errors.New("no message in callback")
	ErrInvalidFormat = errors.New("invalid callback format")
	ErrNotRegistered = errors.New("user is not registered")
)

// ErrorMessage возвращает пользовательское сообщение для ошибки
func ErrorMessage(err error) string {
	var (
		notOpen   *service.TrainingNotOpenError
		collision *service.CollisionError
		tooClose  *service.TooCloseToStartError
	)

	switch {
	case errors.Is(err, ErrNotRegistered), errors.Is(err, service.ErrUserNotFound):
		return "❌ Пользователь не найден. Используйте /start"
	case errors.Is(err, ErrNoMessage):
		return "❌ Ошибка обработки сообщения"
	case errors.Is(err, ErrInvalidFormat):
		return "❌ Неверный формат данных"
	case errors.Is(err, service.ErrTrainingNotFound):
		return "❌ Занятие не найдено"
	case errors.As(err, &notOpen):
		return "❌ Запись закрыта: " + StatusText(notOpen.Status)
	case errors.Is(err, service.ErrClientAlreadySignedUp):
		return "ℹ️ Вы уже записаны на это занятие"
	case errors.Is(err, service.ErrClientNotSignedUp):
		return "ℹ️ Вы не записаны на это занятие"
	case errors.Is(err, service.ErrTrainingNotOpenToSignOut):
		return "❌ Выписаться уже нельзя"
	case errors.Is(err, service.ErrTrainingIsFull):
		return "❌ Свободных мест нет"
	case errors.Is(err, service.ErrNotEnoughBalance):
		return "❌ Нет подходящего абонемента с остатком занятий"
	case errors.Is(err, service.ErrNotEnoughReservedBalance):
		return "❌ Не найдено зарезервированное занятие в абонементе"
	case errors.Is(err, model.ErrPayerNotResolved):
		return "❌ Не найден плательщик семьи. Обратитесь к администратору"
	case errors.Is(err, service.ErrUserIsCouch):
		return "❌ Инструктор не может записываться на занятия"
	case errors.Is(err, service.ErrInstructorHasNoRights):
		return "❌ Эта функция доступна только инструкторам"
	case errors.Is(err, service.ErrTrainingNotCancelable):
		return "❌ Занятие нельзя отменить"
	case errors.As(err, &collision):
		return fmt.Sprintf("❌ Время занято: %s, %s",
			collision.Training.Name, FormatDateTime(collision.Training.StartAt))
	case errors.As(err, &tooClose):
		return "❌ До начала занятия слишком мало времени"
	default:
		return "❌ Произошла ошибка"
	}
}
