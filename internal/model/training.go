package model

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TrainingType string

const (
	TrainingTypeGroup    TrainingType = "group"
	TrainingTypePersonal TrainingType = "personal"
)

// TrainingID идентификатор занятия: серия + время начала
type TrainingID struct {
	SeriesID uuid.UUID
	StartAt  time.Time
}

func (id TrainingID) Equal(other TrainingID) bool {
	return id.SeriesID == other.SeriesID && id.StartAt.Equal(other.StartAt)
}

// String кодирует идентификатор в компактный вид "<series>:<unix>"
func (id TrainingID) String() string {
	return id.SeriesID.String() + ":" + strconv.FormatInt(id.StartAt.Unix(), 10)
}

// ParseTrainingID разбирает результат TrainingID.String
func ParseTrainingID(value string) (TrainingID, error) {
	series, unix, ok := strings.Cut(value, ":")
	if !ok {
		return TrainingID{}, fmt.Errorf("invalid training id %q", value)
	}

	seriesID, err := uuid.Parse(series)
	if err != nil {
		return TrainingID{}, fmt.Errorf("parse series id: %w", err)
	}

	sec, err := strconv.ParseInt(unix, 10, 64)
	if err != nil {
		return TrainingID{}, fmt.Errorf("parse start time: %w", err)
	}

	return TrainingID{SeriesID: seriesID, StartAt: time.Unix(sec, 0)}, nil
}

// Statistics итоги проведённого занятия
type Statistics struct {
	Earned           decimal.Decimal `json:"earned"`
	Clients          int             `json:"clients"`
	InstructorReward decimal.Decimal `json:"instructor_reward"`
}

// Training одно занятие в календаре
type Training struct {
	SeriesID     uuid.UUID     `json:"series_id"`
	ProgramID    uuid.UUID     `json:"program_id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	StartAt      time.Time     `json:"start_at"`
	Duration     time.Duration `json:"duration"`
	InstructorID int64         `json:"instructor_id"`
	Capacity     int           `json:"capacity"`
	Clients      []int64       `json:"clients"`
	IsOneTime    bool          `json:"is_one_time"`
	IsCanceled   bool          `json:"is_canceled"`
	IsProcessed  bool          `json:"is_processed"`
	KeepOpen     bool          `json:"keep_open"` // запись открыта до самого начала
	Type         TrainingType  `json:"type"`
	IsFree       bool          `json:"is_free"`
	Statistics   *Statistics   `json:"statistics,omitempty"`
}

func (t *Training) ID() TrainingID {
	return TrainingID{SeriesID: t.SeriesID, StartAt: t.StartAt}
}

func (t *Training) Slot() Slot {
	return NewSlot(t.StartAt, t.Duration)
}

func (t *Training) EndAt() time.Time {
	return t.StartAt.Add(t.Duration)
}

// DayID день занятия в часовом поясе loc
func (t *Training) DayID(loc *time.Location) DayID {
	return NewDayID(t.StartAt.In(loc))
}

func (t *Training) IsPersonal() bool {
	return t.Type == TrainingTypePersonal
}

func (t *Training) IsFull() bool {
	return len(t.Clients) >= t.Capacity
}

func (t *Training) HasClient(clientID int64) bool {
	return slices.Contains(t.Clients, clientID)
}

// AddClient добавляет клиента без проверок статуса
func (t *Training) AddClient(clientID int64) {
	if !t.HasClient(clientID) {
		t.Clients = append(t.Clients, clientID)
	}
}

// RemoveClient удаляет клиента, возвращает false если его не было
func (t *Training) RemoveClient(clientID int64) bool {
	idx := slices.Index(t.Clients, clientID)
	if idx < 0 {
		return false
	}
	t.Clients = slices.Delete(t.Clients, idx, idx+1)
	return true
}

// Clone глубокая копия занятия
func (t *Training) Clone() *Training {
	c := *t
	c.Clients = slices.Clone(t.Clients)
	if t.Statistics != nil {
		stats := *t.Statistics
		c.Statistics = &stats
	}
	return &c
}

// Occurrence возвращает новое занятие той же серии на другой день:
// время суток сохраняется, клиенты и флаги жизненного цикла сбрасываются.
func (t *Training) Occurrence(day DayID) *Training {
	c := t.Clone()
	c.StartAt = day.At(t.StartAt)
	c.Clients = nil
	c.IsCanceled = false
	c.IsProcessed = false
	c.Statistics = nil
	return c
}
