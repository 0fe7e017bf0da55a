package controller

import (
	"time"

	"github.com/Freeeeeet/gym_bot/internal/model"
	"github.com/go-telegram/bot/models"
)

// Builder упрощает создание inline клавиатур
type Builder struct {
	rows [][]models.InlineKeyboardButton
}

func NewBuilder() *Builder {
	return &Builder{
		rows: make([][]models.InlineKeyboardButton, 0),
	}
}

// Row добавляет новый ряд кнопок
func (b *Builder) Row(buttons ...models.InlineKeyboardButton) *Builder {
	if len(buttons) > 0 {
		b.rows = append(b.rows, buttons)
	}
	return b
}

func (b *Builder) Build() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: b.rows,
	}
}

func Button(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// WeekKeyboard кнопки занятий недели и навигация по неделям
func WeekKeyboard(week *model.Week) *models.InlineKeyboardMarkup {
	kb := NewBuilder()
	for _, day := range week.Days {
		if day == nil {
			continue
		}
		for _, t := range day.Trainings {
			label := FormatDayHeader(day.ID) + " " + t.StartAt.Format("15:04") + " " + t.Name
			kb.Row(Button(label, trainingData(actionTraining, t.ID())))
		}
	}
	kb.Row(
		Button("◀️", weekData(week.ID.Prev())),
		Button("▶️", weekData(week.ID.Next())),
	)
	return kb.Build()
}

// TrainingKeyboard действия, доступные пользователю на карточке занятия
func TrainingKeyboard(t *model.Training, user *model.User, now time.Time, cutoff time.Duration) *models.InlineKeyboardMarkup {
	kb := NewBuilder()
	id := t.ID()

	switch {
	case user.IsInstructor:
		if t.InstructorID == user.ID && t.CanBeCanceled(now, cutoff) {
			kb.Row(Button("🚫 Отменить занятие", trainingData(actionCancel, id)))
		}
	case t.HasClient(user.ID):
		if t.CanSignOut(user.ID, now, cutoff) {
			kb.Row(Button("❌ Выписаться", trainingData(actionSignOut, id)))
		}
	case t.CanSignIn(now, cutoff):
		kb.Row(Button("✅ Записаться", trainingData(actionSignUp, id)))
	}

	kb.Row(Button("⬅️ К неделе", weekData(model.NewDayID(t.StartAt).WeekID())))
	return kb.Build()
}
