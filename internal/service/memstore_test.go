package service

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Freeeeeet/gym_bot/internal/model"
	"github.com/google/uuid"
)

// memState содержимое хранилища, копируемое целиком для отката транзакции
type memState struct {
	trainings   map[string]*model.Training
	users       map[int64]*model.User
	programs    map[uuid.UUID]*model.Program
	series      map[uuid.UUID]*model.RecurringSeries
	attendances map[string]*model.Attendance
	history     []*model.HistoryRow
	nextUserID  int64
}

func newMemState() *memState {
	return &memState{
		trainings:   make(map[string]*model.Training),
		users:       make(map[int64]*model.User),
		programs:    make(map[uuid.UUID]*model.Program),
		series:      make(map[uuid.UUID]*model.RecurringSeries),
		attendances: make(map[string]*model.Attendance),
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.trainings {
		c.trainings[k] = v.Clone()
	}
	for k, v := range s.users {
		c.users[k] = v.Clone()
	}
	for k, v := range s.programs {
		p := *v
		c.programs[k] = &p
	}
	for k, v := range s.series {
		sr := *v
		c.series[k] = &sr
	}
	for k, v := range s.attendances {
		a := *v
		c.attendances[k] = &a
	}
	c.history = append(c.history, s.history...)
	c.nextUserID = s.nextUserID
	return c
}

type memTxKey struct{}

// memStore хранилище в памяти. Транзакции выполняются строго по очереди,
// при ошибке состояние откатывается к снимку.
type memStore struct {
	txMu  sync.Mutex
	state *memState
	loc   *time.Location

	commits   int
	rollbacks int
}

func newMemStore(loc *time.Location) *memStore {
	return &memStore{state: newMemState(), loc: loc}
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	snapshot := m.state.clone()
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		m.state = snapshot
		m.rollbacks++
		return err
	}
	m.commits++
	return nil
}

func trainingKey(id model.TrainingID) string {
	return id.SeriesID.String() + "@" + strconv.FormatInt(id.StartAt.UnixNano(), 10)
}

func attendanceKey(id model.TrainingID, clientID int64) string {
	return trainingKey(id) + "/" + strconv.FormatInt(clientID, 10)
}

func sortTrainings(trainings []*model.Training) {
	sort.Slice(trainings, func(i, j int) bool {
		return trainings[i].StartAt.Before(trainings[j].StartAt)
	})
}

// memCalendar реализует CalendarStore
type memCalendar struct{ *memStore }

func (m memCalendar) GetDay(_ context.Context, id model.DayID) (*model.Day, error) {
	day := model.NewDay(id)
	for _, t := range m.state.trainings {
		if t.DayID(m.loc).Equal(id) {
			day.Trainings = append(day.Trainings, t.Clone())
		}
	}
	sortTrainings(day.Trainings)
	return day, nil
}

func (m memCalendar) GetTraining(_ context.Context, id model.TrainingID) (*model.Training, error) {
	t, ok := m.state.trainings[trainingKey(id)]
	if !ok {
		return nil, nil
	}
	return t.Clone(), nil
}

func (m memCalendar) AddTraining(_ context.Context, t *model.Training) error {
	m.state.trainings[trainingKey(t.ID())] = t.Clone()
	return nil
}

func (m memCalendar) modify(id model.TrainingID, fn func(t *model.Training)) error {
	if t, ok := m.state.trainings[trainingKey(id)]; ok {
		fn(t)
	}
	return nil
}

func (m memCalendar) SetClients(_ context.Context, id model.TrainingID, clients []int64) error {
	return m.modify(id, func(t *model.Training) { t.Clients = append([]int64(nil), clients...) })
}

func (m memCalendar) SetCancelFlag(_ context.Context, id model.TrainingID, canceled bool) error {
	return m.modify(id, func(t *model.Training) { t.IsCanceled = canceled })
}

func (m memCalendar) SetKeepOpen(_ context.Context, id model.TrainingID, keepOpen bool) error {
	return m.modify(id, func(t *model.Training) { t.KeepOpen = keepOpen })
}

func (m memCalendar) SetFree(_ context.Context, id model.TrainingID, isFree bool) error {
	return m.modify(id, func(t *model.Training) { t.IsFree = isFree })
}

func (m memCalendar) ChangeInstructor(_ context.Context, id model.TrainingID, instructorID int64) error {
	return m.modify(id, func(t *model.Training) { t.InstructorID = instructorID })
}

func (m memCalendar) UpdateDuration(_ context.Context, id model.TrainingID, duration time.Duration) error {
	return m.modify(id, func(t *model.Training) { t.Duration = duration })
}

func (m memCalendar) SetProcessed(_ context.Context, id model.TrainingID, stats *model.Statistics) error {
	return m.modify(id, func(t *model.Training) {
		t.IsProcessed = true
		copied := *stats
		t.Statistics = &copied
	})
}

func (m memCalendar) DeleteTraining(_ context.Context, id model.TrainingID) error {
	delete(m.state.trainings, trainingKey(id))
	return nil
}

func (m memCalendar) EditSeriesName(_ context.Context, seriesID uuid.UUID, name string) error {
	for _, t := range m.state.trainings {
		if t.SeriesID == seriesID && !t.IsProcessed {
			t.Name = name
		}
	}
	return nil
}

func (m memCalendar) EditSeriesDescription(_ context.Context, seriesID uuid.UUID, description string) error {
	for _, t := range m.state.trainings {
		if t.SeriesID == seriesID && !t.IsProcessed {
			t.Description = description
		}
	}
	return nil
}

func (m memCalendar) SeriesTrainings(_ context.Context, seriesID uuid.UUID, from time.Time) ([]*model.Training, error) {
	var result []*model.Training
	for _, t := range m.state.trainings {
		if t.SeriesID == seriesID && !t.StartAt.Before(from) {
			result = append(result, t.Clone())
		}
	}
	sortTrainings(result)
	return result, nil
}

func (m memCalendar) LastInSeries(ctx context.Context, seriesID uuid.UUID) (*model.Training, error) {
	all, _ := m.SeriesTrainings(ctx, seriesID, time.Time{})
	if len(all) == 0 {
		return nil, nil
	}
	return all[len(all)-1], nil
}

func (m memCalendar) TrainingsToFinalize(_ context.Context, now time.Time) ([]model.TrainingID, error) {
	var trainings []*model.Training
	for _, t := range m.state.trainings {
		if !t.IsProcessed && t.StartAt.Before(now) {
			trainings = append(trainings, t)
		}
	}
	sortTrainings(trainings)

	ids := make([]model.TrainingID, 0, len(trainings))
	for _, t := range trainings {
		ids = append(ids, t.ID())
	}
	return ids, nil
}

func (m memCalendar) ClientTrainings(_ context.Context, clientID int64, from time.Time) ([]*model.Training, error) {
	var result []*model.Training
	for _, t := range m.state.trainings {
		if t.HasClient(clientID) && !t.StartAt.Before(from) {
			result = append(result, t.Clone())
		}
	}
	sortTrainings(result)
	return result, nil
}

// memUsers реализует UserStore
type memUsers struct{ *memStore }

func (m memUsers) Create(_ context.Context, user *model.User) error {
	m.state.nextUserID++
	user.ID = m.state.nextUserID
	m.state.users[user.ID] = user.Clone()
	return nil
}

func (m memUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	user, ok := m.state.users[id]
	if !ok {
		return nil, nil
	}
	return m.withChildren(user.Clone()), nil
}

func (m memUsers) GetByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	for _, user := range m.state.users {
		if user.TelegramID == telegramID {
			return m.withChildren(user.Clone()), nil
		}
	}
	return nil, nil
}

func (m memUsers) withChildren(user *model.User) *model.User {
	user.Family.ChildrenIDs = nil
	for _, other := range m.state.users {
		if other.Family.PayerID != nil && *other.Family.PayerID == user.ID {
			user.Family.ChildrenIDs = append(user.Family.ChildrenIDs, other.ID)
		}
	}
	sort.Slice(user.Family.ChildrenIDs, func(i, j int) bool {
		return user.Family.ChildrenIDs[i] < user.Family.ChildrenIDs[j]
	})
	return user
}

func (m memUsers) Update(_ context.Context, user *model.User) error {
	for _, sub := range user.Subscriptions {
		if sub.Balance < 0 || sub.LockedBalance < 0 {
			panic("negative balance stored")
		}
	}
	m.state.users[user.ID] = user.Clone()
	return nil
}

func (m memUsers) UsersWithStaleSubscriptions(_ context.Context, now time.Time) ([]int64, error) {
	var ids []int64
	for id, user := range m.state.users {
		for _, sub := range user.Subscriptions {
			if (sub.IsExpired(now) && sub.LockedBalance == 0) || sub.IsEmpty() {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// memPrograms реализует ProgramStore
type memPrograms struct{ *memStore }

func (m memPrograms) GetByID(_ context.Context, id uuid.UUID) (*model.Program, error) {
	p, ok := m.state.programs[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

// memSeries реализует SeriesStore
type memSeries struct{ *memStore }

func (m memSeries) Create(_ context.Context, series *model.RecurringSeries) error {
	copied := *series
	m.state.series[series.ID] = &copied
	return nil
}

func (m memSeries) GetByID(_ context.Context, id uuid.UUID) (*model.RecurringSeries, error) {
	sr, ok := m.state.series[id]
	if !ok {
		return nil, nil
	}
	copied := *sr
	return &copied, nil
}

func (m memSeries) UpdateTemplate(_ context.Context, series *model.RecurringSeries) error {
	if sr, ok := m.state.series[series.ID]; ok {
		updated := *series
		updated.IsActive = sr.IsActive
		updated.MaterializedUntil = sr.MaterializedUntil
		m.state.series[series.ID] = &updated
	}
	return nil
}

func (m memSeries) GetAllActive(_ context.Context) ([]*model.RecurringSeries, error) {
	var result []*model.RecurringSeries
	for _, sr := range m.state.series {
		if sr.IsActive {
			copied := *sr
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m memSeries) SetMaterializedUntil(_ context.Context, id uuid.UUID, until time.Time) error {
	if sr, ok := m.state.series[id]; ok {
		sr.MaterializedUntil = until
	}
	return nil
}

func (m memSeries) Deactivate(_ context.Context, id uuid.UUID) error {
	if sr, ok := m.state.series[id]; ok {
		sr.IsActive = false
	}
	return nil
}

// memAttendance реализует AttendanceStore
type memAttendance struct{ *memStore }

func (m memAttendance) Add(_ context.Context, a *model.Attendance) error {
	copied := *a
	m.state.attendances[attendanceKey(a.TrainingID, a.ClientID)] = &copied
	return nil
}

func (m memAttendance) Get(_ context.Context, id model.TrainingID, clientID int64) (*model.Attendance, error) {
	a, ok := m.state.attendances[attendanceKey(id, clientID)]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (m memAttendance) Delete(_ context.Context, id model.TrainingID, clientID int64) error {
	delete(m.state.attendances, attendanceKey(id, clientID))
	return nil
}

// memHistory реализует HistoryStore
type memHistory struct{ *memStore }

func (m memHistory) Store(_ context.Context, row *model.HistoryRow) error {
	copied := *row
	m.state.history = append(m.state.history, &copied)
	return nil
}

func (m memHistory) ListByActor(_ context.Context, actor int64, limit int) ([]*model.HistoryRow, error) {
	var result []*model.HistoryRow
	for i := len(m.state.history) - 1; i >= 0 && len(result) < limit; i-- {
		if m.state.history[i].Actor == actor {
			result = append(result, m.state.history[i])
		}
	}
	return result, nil
}
