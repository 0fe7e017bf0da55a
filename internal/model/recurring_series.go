package model

import (
	"time"

	"github.com/google/uuid"
)

// RecurringSeries регулярная еженедельная серия занятий.
// MaterializedUntil хранит время начала последнего созданного занятия серии.
// Остальные поля шаблон, по которому создаются новые недели: их меняют
// только операции над всей серией.
type RecurringSeries struct {
	ID                uuid.UUID     `json:"id"`
	ProgramID         uuid.UUID     `json:"program_id"`
	Name              string        `json:"name"`
	Description       string        `json:"description"`
	Duration          time.Duration `json:"duration"`
	InstructorID      int64         `json:"instructor_id"`
	Capacity          int           `json:"capacity"`
	Type              TrainingType  `json:"type"`
	IsFree            bool          `json:"is_free"`
	KeepOpen          bool          `json:"keep_open"`
	IsActive          bool          `json:"is_active"`
	MaterializedUntil time.Time     `json:"materialized_until"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// NewRecurringSeries запоминает шаблон серии по первому занятию
func NewRecurringSeries(first *Training, materializedUntil time.Time) *RecurringSeries {
	return &RecurringSeries{
		ID:                first.SeriesID,
		ProgramID:         first.ProgramID,
		Name:              first.Name,
		Description:       first.Description,
		Duration:          first.Duration,
		InstructorID:      first.InstructorID,
		Capacity:          first.Capacity,
		Type:              first.Type,
		IsFree:            first.IsFree,
		KeepOpen:          first.KeepOpen,
		IsActive:          true,
		MaterializedUntil: materializedUntil,
	}
}

// Occurrence создаёт занятие серии на день. Из clock берётся только время суток.
func (s *RecurringSeries) Occurrence(day DayID, clock time.Time) *Training {
	return &Training{
		SeriesID:     s.ID,
		ProgramID:    s.ProgramID,
		Name:         s.Name,
		Description:  s.Description,
		StartAt:      day.At(clock),
		Duration:     s.Duration,
		InstructorID: s.InstructorID,
		Capacity:     s.Capacity,
		KeepOpen:     s.KeepOpen,
		Type:         s.Type,
		IsFree:       s.IsFree,
	}
}
