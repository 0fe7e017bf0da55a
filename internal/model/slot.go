package model

import "time"

// Slot интервал времени [Start, Start+Duration)
type Slot struct {
	Start    time.Time
	Duration time.Duration
}

// NewSlot создаёт слот
func NewSlot(start time.Time, duration time.Duration) Slot {
	return Slot{Start: start, Duration: duration}
}

// End возвращает момент окончания слота (не включительно)
func (s Slot) End() time.Time {
	return s.Start.Add(s.Duration)
}

// HasConflict проверяет строгое пересечение интервалов.
// Слоты, идущие встык, не конфликтуют.
func (s Slot) HasConflict(other Slot) bool {
	start := s.Start
	if other.Start.After(start) {
		start = other.Start
	}

	end := s.End()
	if other.End().Before(end) {
		end = other.End()
	}

	return start.Before(end)
}

// Contains проверяет что момент t попадает в [Start, End)
func (s Slot) Contains(t time.Time) bool {
	return !t.Before(s.Start) && t.Before(s.End())
}
