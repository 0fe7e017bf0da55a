package controller

import (
	"strings"
	"time"

	"github.com/Freeeeeet/gym_bot/internal/model"
)

// Префиксы callback data. Telegram ограничивает данные 64 байтами,
// поэтому префиксы короткие.
const (
	actionWeek     = "wk"
	actionTraining = "tr"
	actionSignUp   = "su"
	actionSignOut  = "so"
	actionCancel   = "cx"
)

func trainingData(action string, id model.TrainingID) string {
	return action + ":" + id.String()
}

func weekData(id model.WeekID) string {
	return actionWeek + ":" + id.Monday().String()
}

// parseCallback разбирает "<action>:<payload>"
func parseCallback(data string) (action, payload string, err error) {
	action, payload, ok := strings.Cut(data, ":")
	if !ok || action == "" || payload == "" {
		return "", "", ErrInvalidFormat
	}
	return action, payload, nil
}

func parseTrainingPayload(payload string) (model.TrainingID, error) {
	id, err := model.ParseTrainingID(payload)
	if err != nil {
		return model.TrainingID{}, ErrInvalidFormat
	}
	return id, nil
}

func parseWeekPayload(payload string, loc *time.Location) (model.WeekID, error) {
	day, err := model.ParseDayID(payload, loc)
	if err != nil {
		return model.WeekID{}, ErrInvalidFormat
	}
	return day.WeekID(), nil
}
