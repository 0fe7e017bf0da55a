package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/gym_bot/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// понедельник, 09:00
var mondayMorning = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// среда той же недели, 18:00
var wednesdayEvening = time.Date(2025, 3, 12, 18, 0, 0, 0, time.UTC)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *memStore
	now   time.Time

	calendar      *CalendarService
	booking       *BookingService
	finalization  *FinalizationService
	subscriptions *SubscriptionService
	users         *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		store: newMemStore(time.UTC),
		now:   mondayMorning,
	}

	settings := Settings{
		Location:     time.UTC,
		SignupCutoff: 3 * time.Hour,
		MaxWeeks:     4,
	}
	logger := zap.NewNop()
	clock := func() time.Time { return f.now }

	calendar := memCalendar{f.store}
	users := memUsers{f.store}
	attendance := memAttendance{f.store}
	history := NewHistory(memHistory{f.store})
	family := NewFamilyResolver(users)

	f.booking = NewBookingService(f.store, calendar, users, attendance, family, history, settings, logger)
	f.booking.now = clock

	f.calendar = NewCalendarService(f.store, calendar, users, memPrograms{f.store}, memSeries{f.store}, f.booking, settings, logger)
	f.calendar.now = clock

	f.finalization = NewFinalizationService(f.store, calendar, users, attendance, family, history, settings, logger)
	f.finalization.now = clock

	f.subscriptions = NewSubscriptionService(f.store, users, history, logger)
	f.subscriptions.now = clock

	f.users = NewUserService(users, family, history, logger)

	return f
}

func (f *fixture) addUser(name string, subs ...model.UserSubscription) *model.User {
	f.t.Helper()

	user := &model.User{
		TelegramID:    int64(len(f.store.state.users) + 1000),
		FirstName:     name,
		Subscriptions: subs,
	}
	require.NoError(f.t, memUsers{f.store}.Create(f.ctx, user))
	return user
}

func (f *fixture) addDependent(name string, payerID int64) *model.User {
	f.t.Helper()

	user := f.addUser(name)
	f.store.state.users[user.ID].Family.PayerID = &payerID
	return f.user(user.ID)
}

func (f *fixture) addInstructor(name string) *model.User {
	f.t.Helper()

	user := f.addUser(name)
	stored := f.store.state.users[user.ID]
	stored.IsInstructor = true
	stored.RewardRate = decimal.NewFromInt(300)
	return f.user(user.ID)
}

func (f *fixture) addProgram(name string, capacity int) *model.Program {
	program := &model.Program{
		ID:       uuid.New(),
		Name:     name,
		Duration: time.Hour,
		Capacity: capacity,
		Type:     model.TrainingTypeGroup,
	}
	f.store.state.programs[program.ID] = program
	return program
}

// addTraining кладёт занятие в календарь в обход проверок
func (f *fixture) addTraining(name string, start time.Time, instructorID int64) *model.Training {
	training := &model.Training{
		SeriesID:     uuid.New(),
		Name:         name,
		StartAt:      start,
		Duration:     time.Hour,
		InstructorID: instructorID,
		Capacity:     5,
		IsOneTime:    true,
		Type:         model.TrainingTypeGroup,
	}
	f.store.state.trainings[trainingKey(training.ID())] = training.Clone()
	return training
}

func (f *fixture) user(id int64) *model.User {
	return f.store.state.users[id].Clone()
}

func (f *fixture) training(id model.TrainingID) *model.Training {
	t, ok := f.store.state.trainings[trainingKey(id)]
	if !ok {
		return nil
	}
	return t.Clone()
}

func (f *fixture) seriesTrainings(seriesID uuid.UUID) []*model.Training {
	trainings, _ := memCalendar{f.store}.SeriesTrainings(f.ctx, seriesID, time.Time{})
	return trainings
}

func (f *fixture) historyActions() []model.HistoryAction {
	actions := make([]model.HistoryAction, 0, len(f.store.state.history))
	for _, row := range f.store.state.history {
		actions = append(actions, row.Action)
	}
	return actions
}

func groupSubscription(name string, balance int, end time.Time) model.UserSubscription {
	start := end.AddDate(0, 0, -30)
	return model.UserSubscription{
		ID:        uuid.New(),
		PlanID:    uuid.New(),
		Name:      name,
		Items:     8,
		Days:      30,
		Price:     decimal.NewFromInt(4000),
		Balance:   balance,
		Type:      model.SubscriptionTypeGroup,
		StartDate: &start,
		EndDate:   &end,
	}
}

func findSubscription(user *model.User, name string) model.UserSubscription {
	for _, sub := range user.Subscriptions {
		if sub.Name == name {
			return sub
		}
	}
	return model.UserSubscription{}
}
