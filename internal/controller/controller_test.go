package controller

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Freeeeeet/gym_bot/internal/model"
	"github.com/Freeeeeet/gym_bot/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2025, 3, 12, 18, 0, 0, 0, time.UTC)

func TestCallbackDataRoundTrip(t *testing.T) {
	id := model.TrainingID{SeriesID: uuid.New(), StartAt: start}

	data := trainingData(actionSignUp, id)
	assert.LessOrEqual(t, len(data), 64, "telegram limits callback data")

	action, payload, err := parseCallback(data)
	require.NoError(t, err)
	assert.Equal(t, actionSignUp, action)

	parsed, err := parseTrainingPayload(payload)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(id))

	week := model.NewWeekID(start)
	action, payload, err = parseCallback(weekData(week))
	require.NoError(t, err)
	assert.Equal(t, actionWeek, action)

	parsedWeek, err := parseWeekPayload(payload, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, week.String(), parsedWeek.String())
}

func TestParseCallbackRejectsGarbage(t *testing.T) {
	for _, data := range []string{"", "su", "su:", ":x"} {
		_, _, err := parseCallback(data)
		assert.ErrorIs(t, err, ErrInvalidFormat, data)
	}

	_, err := parseTrainingPayload("not-a-uuid:1")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = parseWeekPayload("12.03.2025", time.UTC)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{service.ErrTrainingIsFull, "❌ Свободных мест нет"},
		{fmt.Errorf("sign up: %w", service.ErrNotEnoughBalance), "❌ Нет подходящего абонемента с остатком занятий"},
		{&service.TrainingNotOpenError{Status: model.TrainingStatusClosedToSignup}, "❌ Запись закрыта: запись закрыта"},
		{ErrNotRegistered, "❌ Пользователь не найден. Используйте /start"},
		{fmt.Errorf("db is down"), "❌ Произошла ошибка"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorMessage(tt.err))
	}

	collision := &service.CollisionError{Training: &model.Training{Name: "Йога", StartAt: start}}
	assert.Equal(t, "❌ Время занято: Йога, 12.03.2025 18:00", ErrorMessage(collision))
}

func TestPluralizePlaces(t *testing.T) {
	cases := map[int]string{1: "место", 2: "места", 5: "мест", 11: "мест", 21: "место", 24: "места"}
	for count, want := range cases {
		assert.Equal(t, want, PluralizePlaces(count), count)
	}
}

func TestFormatWeek(t *testing.T) {
	training := &model.Training{
		SeriesID: uuid.New(),
		Name:     "Йога <утро>",
		StartAt:  start,
		Duration: time.Hour,
		Capacity: 5,
		Clients:  []int64{1, 2},
	}

	week := &model.Week{ID: model.NewWeekID(start)}
	for i, dayID := range week.ID.Days() {
		week.Days[i] = model.NewDay(dayID)
	}
	week.Days[2].Add(training)

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	text := FormatWeek(week, now, 3*time.Hour)
	assert.Contains(t, text, "Ср 12.03")
	assert.Contains(t, text, "18:00-19:00 Йога &lt;утро&gt; (3 места)")

	text = FormatWeek(week, start.Add(30*time.Minute), 3*time.Hour)
	assert.Contains(t, text, "(идёт)")

	kb := WeekKeyboard(week)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.True(t, strings.HasPrefix(kb.InlineKeyboard[0][0].CallbackData, actionTraining+":"))
}

func TestTrainingKeyboard(t *testing.T) {
	training := &model.Training{
		SeriesID:     uuid.New(),
		Name:         "Йога",
		StartAt:      start,
		Duration:     time.Hour,
		Capacity:     5,
		InstructorID: 10,
	}
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	first := func(user *model.User) string {
		kb := TrainingKeyboard(training, user, now, 3*time.Hour)
		action, _, _ := parseCallback(kb.InlineKeyboard[0][0].CallbackData)
		return action
	}

	client := &model.User{ID: 1}
	assert.Equal(t, actionSignUp, first(client))

	training.Clients = []int64{1}
	assert.Equal(t, actionSignOut, first(client))

	instructor := &model.User{ID: 10, IsInstructor: true}
	assert.Equal(t, actionCancel, first(instructor))

	other := &model.User{ID: 11, IsInstructor: true}
	assert.Equal(t, actionWeek, first(other))
}

func TestFormatSubscriptions(t *testing.T) {
	end := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	text := FormatSubscriptions([]model.UserSubscription{
		{Name: "8 занятий", Balance: 3, LockedBalance: 1, EndDate: &end, StartDate: &end},
		{Name: "Безлимит", Unlimited: true},
	})

	assert.Contains(t, text, "8 занятий: осталось 3, в резерве 1, до 01.04.2025")
	assert.Contains(t, text, "Безлимит: безлимит, не активирован")
	assert.Equal(t, "Абонементов нет", FormatSubscriptions(nil))
}
