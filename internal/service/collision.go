package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/gym_bot/internal/model"
)

// SlotCollisionChecker ищет занятия, пересекающиеся с новым слотом
type SlotCollisionChecker struct {
	store DayReader
	loc   *time.Location
}

func NewSlotCollisionChecker(store DayReader, loc *time.Location) *SlotCollisionChecker {
	return &SlotCollisionChecker{store: store, loc: loc}
}

// Check возвращает первое пересекающееся занятие в дне слота, а для
// регулярного занятия ещё и в днях курсора с тем же временем суток.
func (c *SlotCollisionChecker) Check(ctx context.Context, slot model.Slot, cursor *DayCursor) (*model.Training, error) {
	day, err := c.store.GetDay(ctx, model.NewDayID(slot.Start.In(c.loc)))
	if err != nil {
		return nil, fmt.Errorf("get day: %w", err)
	}
	if collision := day.Collision(slot, nil); collision != nil {
		return collision, nil
	}

	if cursor == nil {
		return nil, nil
	}

	cursor.Reset()
	for {
		day, err := cursor.Next(ctx)
		if err != nil {
			return nil, err
		}
		if day == nil {
			return nil, nil
		}

		projected := model.NewSlot(day.ID.At(slot.Start), slot.Duration)
		if collision := day.Collision(projected, nil); collision != nil {
			return collision, nil
		}
	}
}
