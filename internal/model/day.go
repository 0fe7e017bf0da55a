package model

import (
	"slices"
)

// Day занятия одного дня, упорядоченные по времени начала
type Day struct {
	ID        DayID
	Trainings []*Training
}

func NewDay(id DayID) *Day {
	return &Day{ID: id}
}

// Add вставляет занятие с сохранением порядка
func (d *Day) Add(t *Training) {
	idx, _ := slices.BinarySearchFunc(d.Trainings, t, func(a, b *Training) int {
		return a.StartAt.Compare(b.StartAt)
	})
	d.Trainings = slices.Insert(d.Trainings, idx, t)
}

// Training ищет занятие по идентификатору
func (d *Day) Training(id TrainingID) *Training {
	for _, t := range d.Trainings {
		if t.ID().Equal(id) {
			return t
		}
	}
	return nil
}

// Remove удаляет занятие, возвращает false если его не было
func (d *Day) Remove(id TrainingID) bool {
	idx := slices.IndexFunc(d.Trainings, func(t *Training) bool {
		return t.ID().Equal(id)
	})
	if idx < 0 {
		return false
	}
	d.Trainings = slices.Delete(d.Trainings, idx, idx+1)
	return true
}

// Collision возвращает первое занятие дня, пересекающееся со slot.
// Отменённые занятия и занятие skip не учитываются.
func (d *Day) Collision(slot Slot, skip *TrainingID) *Training {
	for _, t := range d.Trainings {
		if t.IsCanceled {
			continue
		}
		if skip != nil && t.ID().Equal(*skip) {
			continue
		}
		if t.Slot().HasConflict(slot) {
			return t
		}
	}
	return nil
}

// Week семь дней с понедельника
type Week struct {
	ID   WeekID
	Days [7]*Day
}
