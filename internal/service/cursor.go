package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/gym_bot/internal/model"
)

// DayCursor обходит тот же день недели в следующих неделях, не дальше until.
// Обход конечный и может быть перезапущен через Reset.
type DayCursor struct {
	store DayReader
	from  model.DayID
	until model.DayID
	next  model.DayID
}

func NewDayCursor(store DayReader, from, until model.DayID) *DayCursor {
	c := &DayCursor{store: store, from: from, until: until}
	c.Reset()
	return c
}

// Next возвращает следующий день или nil, когда обход закончен
func (c *DayCursor) Next(ctx context.Context) (*model.Day, error) {
	if c.next.After(c.until) {
		return nil, nil
	}

	day, err := c.store.GetDay(ctx, c.next)
	if err != nil {
		return nil, fmt.Errorf("get day %s: %w", c.next, err)
	}
	c.next = c.next.AddDays(7)

	return day, nil
}

func (c *DayCursor) Reset() {
	c.next = c.from.AddDays(7)
}
