package model

import (
	"time"

	"github.com/google/uuid"
)

// Program шаблон занятия, по которому создаются серии
type Program struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Duration    time.Duration `json:"duration"`
	Capacity    int           `json:"capacity"`
	Type        TrainingType  `json:"type"`
	IsFree      bool          `json:"is_free"`
	CreatedAt   time.Time     `json:"created_at"`
}
