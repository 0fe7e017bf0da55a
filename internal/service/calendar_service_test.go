package service

import (
	"testing"
	"time"

	"github.com/Freeeeeet/gym_bot/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleRecurringCreatesOccurrencesUntilHorizon(t *testing.T) {
	f := newFixture(t)
	couch := f.addInstructor("Анна")
	program := f.addProgram("Пилатес", 8)

	training, err := f.calendar.ScheduleGroup(f.ctx, program.ID, wednesdayEvening, couch.ID, 0, false)
	require.NoError(t, err)
	assert.Equal(t, 8, training.Capacity)

	occurrences := f.seriesTrainings(training.SeriesID)
	require.Len(t, occurrences, 4)

	expected := []time.Time{
		wednesdayEvening,
		wednesdayEvening.AddDate(0, 0, 7),
		wednesdayEvening.AddDate(0, 0, 14),
		wednesdayEvening.AddDate(0, 0, 21),
	}
	for i, occurrence := range occurrences {
		assert.True(t, expected[i].Equal(occurrence.StartAt), "occurrence %d starts at %s", i, occurrence.StartAt)
		assert.Equal(t, training.SeriesID, occurrence.SeriesID)
		assert.Equal(t, "Пилатес", occurrence.Name)
		assert.False(t, occurrence.IsOneTime)
	}

	series := f.store.state.series[training.SeriesID]
	require.NotNil(t, series)
	assert.True(t, series.IsActive)
	assert.True(t, expected[3].Equal(series.MaterializedUntil))
}

func TestScheduleRecurringCollisionInLaterWeekCreatesNothing(t *testing.T) {
	f := newFixture(t)
	couch := f.addInstructor("Анна")
	program := f.addProgram("Пилатес", 8)

	blocker := f.addTraining("Бокс", wednesdayEvening.AddDate(0, 0, 14).Add(30*time.Minute), couch.ID)

	_, err := f.calendar.ScheduleGroup(f.ctx, program.ID, wednesdayEvening, couch.ID, 0, false)

	var collision *CollisionError
	require.ErrorAs(t, err, &collision)
	assert.True(t, collision.Training.ID().Equal(blocker.ID()))
	assert.Equal(t, KindCollision, KindOf(err))

	assert.Len(t, f.store.state.trainings, 1, "no occurrence may be written")
	assert.Empty(t, f.store.state.series)
}

func TestScheduleOneTimeIgnoresLaterWeeks(t *testing.T) {
	f := newFixture(t)
	couch := f.addInstructor("Анна")
	program := f.addProgram("Пилатес", 8)
	f.addTraining("Бокс", wednesdayEvening.AddDate(0, 0, 7), couch.ID)

	training, err := f.calendar.ScheduleGroup(f.ctx, program.ID, wednesdayEvening, couch.ID, 4, true)
	require.NoError(t, err)
	assert.Equal(t, 4, training.Capacity)
	assert.Len(t, f.seriesTrainings(training.SeriesID), 1)
	assert.Empty(t, f.store.state.series)
}

func TestScheduleBackToBackIsAllowed(t *testing.T) {
	f := newFixture(t)
	couch := f.addInstructor("Анна")
	program := f.addProgram("Пилатес", 8)
	f.addTraining("Бокс", wednesdayEvening.Add(-time.Hour), couch.ID)
	f.addTraining("Растяжка", wednesdayEvening.Add(time.Hour), couch.ID)

	_, err := f.calendar.ScheduleGroup(f.ctx, program.ID, wednesdayEvening, couch.ID, 0, true)
	assert.NoError(t, err)
}

func TestScheduleErrors(t *testing.T) {
	tests := []struct {
		name  string
		run   func(f *fixture, program *model.Program, couch *model.User) error
		check func(t *testing.T, err error)
	}{
		{
			name: "program not found",
			run: func(f *fixture, program *model.Program, couch *model.User) error {
				_, err := f.calendar.ScheduleGroup(f.ctx, uuid.New(), wednesdayEvening, couch.ID, 0, true)
				return err
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrProgramNotFound)
			},
		},
		{
			name: "instructor not found",
			run: func(f *fixture, program *model.Program, couch *model.User) error {
				_, err := f.calendar.ScheduleGroup(f.ctx, program.ID, wednesdayEvening, 404, 0, true)
				return err
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrInstructorNotFound)
			},
		},
		{
			name: "instructor has no rights",
			run: func(f *fixture, program *model.Program, couch *model.User) error {
				client := f.addUser("Иван")
				_, err := f.calendar.ScheduleGroup(f.ctx, program.ID, wednesdayEvening, client.ID, 0, true)
				return err
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrInstructorHasNoRights)
				assert.Equal(t, KindAuthorizationDenied, KindOf(err))
			},
		},
		{
			name: "too close to start",
			run: func(f *fixture, program *model.Program, couch *model.User) error {
				_, err := f.calendar.ScheduleGroup(f.ctx, program.ID, mondayMorning.Add(time.Hour), couch.ID, 0, true)
				return err
			},
			check: func(t *testing.T, err error) {
				var tooClose *TooCloseToStartError
				require.ErrorAs(t, err, &tooClose)
				assert.True(t, tooClose.StartAt.Equal(mondayMorning.Add(time.Hour)))
			},
		},
		{
			name: "same day overlap",
			run: func(f *fixture, program *model.Program, couch *model.User) error {
				f.addTraining("Бокс", wednesdayEvening.Add(30*time.Minute), couch.ID)
				_, err := f.calendar.ScheduleGroup(f.ctx, program.ID, wednesdayEvening, couch.ID, 0, true)
				return err
			},
			check: func(t *testing.T, err error) {
				var collision *CollisionError
				require.ErrorAs(t, err, &collision)
				assert.Equal(t, "Бокс", collision.Training.Name)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			couch := f.addInstructor("Анна")
			program := f.addProgram("Пилатес", 8)

			before := len(f.store.state.trainings)
			err := tt.run(f, program, couch)
			tt.check(t, err)

			added := len(f.store.state.trainings) - before
			assert.LessOrEqual(t, added, 1, "only the explicit blocker may be added")
			for _, training := range f.store.state.trainings {
				assert.NotEqual(t, "Пилатес", training.Name)
			}
		})
	}
}

func TestEditDuration(t *testing.T) {
	f := newFixture(t)
	couch := f.addInstructor("Анна")
	program := f.addProgram("Пилатес", 8)

	training, err := f.calendar.ScheduleGroup(f.ctx, program.ID, wednesdayEvening, couch.ID, 0, false)
	require.NoError(t, err)

	f.addTraining("Бокс", wednesdayEvening.AddDate(0, 0, 7).Add(75*time.Minute), couch.ID)

	err = f.calendar.EditDuration(f.ctx, training.SeriesID, 90*time.Minute)
	var collision *CollisionError
	require.ErrorAs(t, err, &collision)
	assert.Equal(t, "Бокс", collision.Training.Name)
	for _, occurrence := range f.seriesTrainings(training.SeriesID) {
		assert.Equal(t, time.Hour, occurrence.Duration, "rejected edit must not change anything")
	}

	require.NoError(t, f.calendar.EditDuration(f.ctx, training.SeriesID, 75*time.Minute))
	for _, occurrence := range f.seriesTrainings(training.SeriesID) {
		assert.Equal(t, 75*time.Minute, occurrence.Duration)
	}

	assert.ErrorIs(t, f.calendar.EditDuration(f.ctx, training.SeriesID, 0), ErrInvalidDuration)
	assert.ErrorIs(t, f.calendar.EditDuration(f.ctx, uuid.New(), time.Hour), ErrTrainingNotFound)
}

func TestDeleteTraining(t *testing.T) {
	f := newFixture(t)
	couch := f.addInstructor("Анна")
	program := f.addProgram("Пилатес", 8)
	client := f.addUser("Иван", groupSubscription("main", 5, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)))

	training, err := f.calendar.ScheduleGroup(f.ctx, program.ID, wednesdayEvening, couch.ID, 0, false)
	require.NoError(t, err)
	occurrences := f.seriesTrainings(training.SeriesID)
	require.Len(t, occurrences, 4)

	third := occurrences[2].ID()
	require.NoError(t, f.booking.SignUp(f.ctx, third, client.ID, false))

	err = f.calendar.DeleteTraining(f.ctx, occurrences[1].ID(), true)
	assert.ErrorIs(t, err, ErrTrainingHasClients)
	assert.Len(t, f.seriesTrainings(training.SeriesID), 4, "rejected delete keeps every occurrence")

	require.NoError(t, f.calendar.DeleteTraining(f.ctx, occurrences[3].ID(), false))
	assert.Len(t, f.seriesTrainings(training.SeriesID), 3)
	assert.True(t, f.store.state.series[training.SeriesID].IsActive)

	require.NoError(t, f.booking.SignOut(f.ctx, third, client.ID, false))
	require.NoError(t, f.calendar.DeleteTraining(f.ctx, occurrences[1].ID(), true))

	remaining := f.seriesTrainings(training.SeriesID)
	require.Len(t, remaining, 1)
	assert.True(t, remaining[0].StartAt.Equal(wednesdayEvening))
	assert.False(t, f.store.state.series[training.SeriesID].IsActive)

	assert.ErrorIs(t, f.calendar.DeleteTraining(f.ctx, occurrences[1].ID(), false), ErrTrainingNotFound)
}

func TestCancelReleasesClientsAndRestore(t *testing.T) {
	f := newFixture(t)
	couch := f.addInstructor("Анна")
	program := f.addProgram("Пилатес", 8)
	end := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	a := f.addUser("A", groupSubscription("main", 2, end))
	b := f.addUser("B", groupSubscription("main", 2, end))

	training, err := f.calendar.ScheduleGroup(f.ctx, program.ID, wednesdayEvening, couch.ID, 0, true)
	require.NoError(t, err)
	require.NoError(t, f.booking.SignUp(f.ctx, training.ID(), a.ID, false))
	require.NoError(t, f.booking.SignUp(f.ctx, training.ID(), b.ID, false))

	notify, err := f.calendar.CancelTraining(f.ctx, training.ID(), false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{a.ID, b.ID}, notify)

	stored := f.training(training.ID())
	assert.True(t, stored.IsCanceled)
	assert.Empty(t, stored.Clients)
	for _, id := range []int64{a.ID, b.ID} {
		sub := findSubscription(f.user(id), "main")
		assert.Equal(t, 2, sub.Balance)
		assert.Equal(t, 0, sub.LockedBalance)
	}

	_, err = f.calendar.CancelTraining(f.ctx, training.ID(), false)
	assert.ErrorIs(t, err, ErrTrainingNotCancelable)

	var notOpen *TrainingNotOpenError
	require.ErrorAs(t, f.booking.SignUp(f.ctx, training.ID(), a.ID, false), &notOpen)
	assert.Equal(t, model.TrainingStatusCancelled, notOpen.Status)

	require.NoError(t, f.calendar.RestoreTraining(f.ctx, training.ID(), false))
	assert.False(t, f.training(training.ID()).IsCanceled)
	assert.ErrorIs(t, f.calendar.RestoreTraining(f.ctx, training.ID(), false), ErrTrainingNotRestorable)
}

func TestCancelAllOccurrences(t *testing.T) {
	f := newFixture(t)
	couch := f.addInstructor("Анна")
	program := f.addProgram("Пилатес", 8)

	training, err := f.calendar.ScheduleGroup(f.ctx, program.ID, wednesdayEvening, couch.ID, 0, false)
	require.NoError(t, err)
	occurrences := f.seriesTrainings(training.SeriesID)

	_, err = f.calendar.CancelTraining(f.ctx, occurrences[1].ID(), true)
	require.NoError(t, err)

	canceled := 0
	for _, occurrence := range f.seriesTrainings(training.SeriesID) {
		if occurrence.IsCanceled {
			canceled++
		}
	}
	assert.Equal(t, 3, canceled)
	assert.False(t, f.training(occurrences[0].ID()).IsCanceled)

	require.NoError(t, f.calendar.RestoreTraining(f.ctx, occurrences[1].ID(), true))
	for _, occurrence := range f.seriesTrainings(training.SeriesID) {
		assert.False(t, occurrence.IsCanceled)
	}
}

func TestRestoreRejectsCollision(t *testing.T) {
	f := newFixture(t)
	couch := f.addInstructor("Анна")
	program := f.addProgram("Пилатес", 8)

	training, err := f.calendar.ScheduleGroup(f.ctx, program.ID, wednesdayEvening, couch.ID, 0, true)
	require.NoError(t, err)
	_, err = f.calendar.CancelTraining(f.ctx, training.ID(), false)
	require.NoError(t, err)

	replacement, err := f.calendar.ScheduleGroup(f.ctx, program.ID, wednesdayEvening.Add(30*time.Minute), couch.ID, 0, true)
	require.NoError(t, err, "canceled training frees its slot")

	err = f.calendar.RestoreTraining(f.ctx, training.ID(), false)
	var collision *CollisionError
	require.ErrorAs(t, err, &collision)
	assert.True(t, collision.Training.ID().Equal(replacement.ID()))
	assert.True(t, f.training(training.ID()).IsCanceled)
}

func TestChangeInstructor(t *testing.T) {
	f := newFixture(t)
	couch := f.addInstructor("Анна")
	other := f.addInstructor("Пётр")
	program := f.addProgram("Пилатес", 8)

	training, err := f.calendar.ScheduleGroup(f.ctx, program.ID, wednesdayEvening, couch.ID, 0, false)
	require.NoError(t, err)

	client := f.addUser("Иван")
	err = f.calendar.ChangeInstructor(f.ctx, training.ID(), client.ID, true)
	assert.ErrorIs(t, err, ErrInstructorHasNoRights)

	require.NoError(t, f.calendar.ChangeInstructor(f.ctx, training.ID(), other.ID, true))
	for _, occurrence := range f.seriesTrainings(training.SeriesID) {
		assert.Equal(t, other.ID, occurrence.InstructorID)
	}
}

func TestSetKeepOpenAndFree(t *testing.T) {
	f := newFixture(t)
	couch := f.addInstructor("Анна")
	program := f.addProgram("Пилатес", 8)
	client := f.addUser("Иван")

	training, err := f.calendar.ScheduleGroup(f.ctx, program.ID, wednesdayEvening, couch.ID, 0, false)
	require.NoError(t, err)

	require.NoError(t, f.calendar.SetFree(f.ctx, training.ID(), true, false))
	require.NoError(t, f.calendar.SetKeepOpen(f.ctx, training.ID(), true, false))

	f.now = wednesdayEvening.Add(-30 * time.Minute)
	require.NoError(t, f.booking.SignUp(f.ctx, training.ID(), client.ID, false))

	next := f.seriesTrainings(training.SeriesID)[1]
	assert.False(t, next.IsFree)
	assert.False(t, next.KeepOpen)
}

func TestEditSeriesNameAndDescription(t *testing.T) {
	f := newFixture(t)
	couch := f.addInstructor("Анна")
	program := f.addProgram("Пилатес", 8)

	training, err := f.calendar.ScheduleGroup(f.ctx, program.ID, wednesdayEvening, couch.ID, 0, false)
	require.NoError(t, err)

	require.NoError(t, f.calendar.EditSeriesName(f.ctx, training.SeriesID, "Пилатес для начинающих"))
	require.NoError(t, f.calendar.EditSeriesDescription(f.ctx, training.SeriesID, "Коврики выдаём"))

	for _, occurrence := range f.seriesTrainings(training.SeriesID) {
		assert.Equal(t, "Пилатес для начинающих", occurrence.Name)
		assert.Equal(t, "Коврики выдаём", occurrence.Description)
	}

	assert.ErrorIs(t, f.calendar.EditSeriesName(f.ctx, uuid.New(), "x"), ErrTrainingNotFound)
}

func TestSchedulePersonal(t *testing.T) {
	f := newFixture(t)
	couch := f.addInstructor("Анна")

	sub := groupSubscription("personal", 3, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	sub.Type = model.SubscriptionTypePersonal
	client := f.addUser("Иван", sub)

	training, err := f.calendar.SchedulePersonal(f.ctx, client.ID, couch.ID, wednesdayEvening, 90*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []int64{client.ID}, training.Clients)
	assert.True(t, training.IsPersonal())

	stored := f.training(training.ID())
	require.NotNil(t, stored)
	assert.Equal(t, []int64{client.ID}, stored.Clients)
	assert.Equal(t, 1, findSubscription(f.user(client.ID), "personal").LockedBalance)

	_, err = f.calendar.SchedulePersonal(f.ctx, 404, couch.ID, wednesdayEvening.AddDate(0, 0, 1), time.Hour)
	assert.ErrorIs(t, err, ErrClientNotFound)

	poor := f.addUser("Пётр")
	_, err = f.calendar.SchedulePersonal(f.ctx, poor.ID, couch.ID, wednesdayEvening.AddDate(0, 0, 1), time.Hour)
	assert.ErrorIs(t, err, ErrNotEnoughBalance)
	assert.Len(t, f.store.state.trainings, 1, "failed personal booking leaves no training")
}

func TestExtendSeries(t *testing.T) {
	f := newFixture(t)
	couch := f.addInstructor("Анна")
	program := f.addProgram("Пилатес", 8)

	training, err := f.calendar.ScheduleGroup(f.ctx, program.ID, wednesdayEvening, couch.ID, 0, false)
	require.NoError(t, err)

	created, err := f.calendar.ExtendSeries(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, created, "series is already materialized up to the horizon")

	blocked := wednesdayEvening.AddDate(0, 0, 28)
	f.addTraining("Бокс", blocked, couch.ID)

	f.now = mondayMorning.AddDate(0, 0, 14)
	created, err = f.calendar.ExtendSeries(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, created, "week with collision is skipped")

	occurrences := f.seriesTrainings(training.SeriesID)
	require.Len(t, occurrences, 5)
	assert.True(t, occurrences[4].StartAt.Equal(wednesdayEvening.AddDate(0, 0, 35)))
	assert.True(t, f.store.state.series[training.SeriesID].MaterializedUntil.Equal(wednesdayEvening.AddDate(0, 0, 35)))

	created, err = f.calendar.ExtendSeries(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestExtendSeriesIgnoresSingleOccurrenceEdits(t *testing.T) {
	f := newFixture(t)
	couch := f.addInstructor("Анна")
	other := f.addInstructor("Пётр")
	program := f.addProgram("Пилатес", 8)

	training, err := f.calendar.ScheduleGroup(f.ctx, program.ID, wednesdayEvening, couch.ID, 0, false)
	require.NoError(t, err)

	occurrences := f.seriesTrainings(training.SeriesID)
	require.Len(t, occurrences, 4)
	last := occurrences[3].ID()

	require.NoError(t, f.calendar.ChangeInstructor(f.ctx, last, other.ID, false))
	require.NoError(t, f.calendar.SetFree(f.ctx, last, true, false))
	require.NoError(t, f.calendar.SetKeepOpen(f.ctx, last, true, false))

	f.now = mondayMorning.AddDate(0, 0, 14)
	created, err := f.calendar.ExtendSeries(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	occurrences = f.seriesTrainings(training.SeriesID)
	require.Len(t, occurrences, 6)

	edited := occurrences[3]
	assert.Equal(t, other.ID, edited.InstructorID)
	assert.True(t, edited.IsFree)

	for _, occurrence := range occurrences[4:] {
		assert.Equal(t, couch.ID, occurrence.InstructorID, "occurrence %s", occurrence.StartAt)
		assert.False(t, occurrence.IsFree, "occurrence %s", occurrence.StartAt)
		assert.False(t, occurrence.KeepOpen, "occurrence %s", occurrence.StartAt)
		assert.Equal(t, 8, occurrence.Capacity)
		assert.Equal(t, "Пилатес", occurrence.Name)
		assert.Equal(t, 18, occurrence.StartAt.Hour())
	}
}

func TestExtendSeriesFollowsSeriesEdits(t *testing.T) {
	f := newFixture(t)
	couch := f.addInstructor("Анна")
	other := f.addInstructor("Пётр")
	program := f.addProgram("Пилатес", 8)

	training, err := f.calendar.ScheduleGroup(f.ctx, program.ID, wednesdayEvening, couch.ID, 0, false)
	require.NoError(t, err)

	second := f.seriesTrainings(training.SeriesID)[1].ID()
	require.NoError(t, f.calendar.ChangeInstructor(f.ctx, second, other.ID, true))
	require.NoError(t, f.calendar.SetFree(f.ctx, second, true, true))
	require.NoError(t, f.calendar.EditDuration(f.ctx, training.SeriesID, 90*time.Minute))
	require.NoError(t, f.calendar.EditSeriesName(f.ctx, training.SeriesID, "Пилатес+"))
	require.NoError(t, f.calendar.EditSeriesDescription(f.ctx, training.SeriesID, "для продолжающих"))

	series := f.store.state.series[training.SeriesID]
	assert.Equal(t, other.ID, series.InstructorID)
	assert.True(t, series.IsFree)
	assert.Equal(t, 90*time.Minute, series.Duration)

	f.now = mondayMorning.AddDate(0, 0, 7)
	created, err := f.calendar.ExtendSeries(f.ctx)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	occurrences := f.seriesTrainings(training.SeriesID)
	require.Len(t, occurrences, 5)

	extended := occurrences[4]
	assert.True(t, extended.StartAt.Equal(wednesdayEvening.AddDate(0, 0, 28)))
	assert.Equal(t, other.ID, extended.InstructorID)
	assert.True(t, extended.IsFree)
	assert.Equal(t, 90*time.Minute, extended.Duration)
	assert.Equal(t, "Пилатес+", extended.Name)
	assert.Equal(t, "для продолжающих", extended.Description)
}

func TestScheduleTruncatesStartToMinute(t *testing.T) {
	f := newFixture(t)
	couch := f.addInstructor("Анна")
	sub := groupSubscription("personal", 3, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	sub.Type = model.SubscriptionTypePersonal
	client := f.addUser("Иван", sub)
	program := f.addProgram("Пилатес", 8)

	training, err := f.calendar.ScheduleGroup(f.ctx, program.ID, wednesdayEvening.Add(42*time.Second+500*time.Millisecond), couch.ID, 0, true)
	require.NoError(t, err)
	assert.True(t, training.StartAt.Equal(wednesdayEvening))

	id, err := model.ParseTrainingID(training.ID().String())
	require.NoError(t, err)
	found, err := f.calendar.GetTraining(f.ctx, id)
	require.NoError(t, err)
	assert.True(t, found.ID().Equal(training.ID()))

	personal, err := f.calendar.SchedulePersonal(f.ctx, client.ID, couch.ID, wednesdayEvening.Add(2*time.Hour+time.Millisecond), time.Hour)
	require.NoError(t, err)
	assert.True(t, personal.StartAt.Equal(wednesdayEvening.Add(2*time.Hour)))

	id, err = model.ParseTrainingID(personal.ID().String())
	require.NoError(t, err)
	_, err = f.calendar.GetTraining(f.ctx, id)
	assert.NoError(t, err)
}

func TestGetWeek(t *testing.T) {
	f := newFixture(t)
	couch := f.addInstructor("Анна")
	training := f.addTraining("Йога", wednesdayEvening, couch.ID)
	f.addTraining("Бокс", wednesdayEvening.AddDate(0, 0, 7), couch.ID)

	week, err := f.calendar.GetWeek(f.ctx, model.NewWeekID(wednesdayEvening))
	require.NoError(t, err)

	total := 0
	for _, day := range week.Days {
		total += len(day.Trainings)
	}
	assert.Equal(t, 1, total)
	require.Len(t, week.Days[2].Trainings, 1)
	assert.True(t, week.Days[2].Trainings[0].ID().Equal(training.ID()))
}
