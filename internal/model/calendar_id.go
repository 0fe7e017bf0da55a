package model

import (
	"time"
)

const dayLayout = "2006-01-02"

// DayID идентификатор дня: локальная полночь в часовом поясе студии
type DayID struct {
	t time.Time
}

// NewDayID возвращает день, которому принадлежит момент t (в его часовом поясе)
func NewDayID(t time.Time) DayID {
	y, m, d := t.Date()
	return DayID{t: time.Date(y, m, d, 0, 0, 0, 0, t.Location())}
}

// ParseDayID разбирает дату формата 2006-01-02 в указанном часовом поясе
func ParseDayID(value string, loc *time.Location) (DayID, error) {
	t, err := time.ParseInLocation(dayLayout, value, loc)
	if err != nil {
		return DayID{}, err
	}
	return DayID{t: t}, nil
}

func (d DayID) Time() time.Time {
	return d.t
}

func (d DayID) Location() *time.Location {
	return d.t.Location()
}

func (d DayID) Weekday() time.Weekday {
	return d.t.Weekday()
}

// AddDays сдвигает день на n календарных дней (корректно при переходе на летнее время)
func (d DayID) AddDays(n int) DayID {
	y, m, day := d.t.Date()
	return DayID{t: time.Date(y, m, day+n, 0, 0, 0, 0, d.t.Location())}
}

func (d DayID) Equal(other DayID) bool {
	return d.t.Equal(other.t)
}

func (d DayID) Before(other DayID) bool {
	return d.t.Before(other.t)
}

func (d DayID) After(other DayID) bool {
	return d.t.After(other.t)
}

// At переносит время суток момента clock на этот день
func (d DayID) At(clock time.Time) time.Time {
	clock = clock.In(d.t.Location())
	y, m, day := d.t.Date()
	return time.Date(y, m, day, clock.Hour(), clock.Minute(), clock.Second(), 0, d.t.Location())
}

// WeekID возвращает неделю, которой принадлежит день
func (d DayID) WeekID() WeekID {
	offset := (int(d.t.Weekday()) + 6) % 7
	return WeekID{monday: d.AddDays(-offset)}
}

func (d DayID) String() string {
	return d.t.Format(dayLayout)
}

// WeekID идентификатор недели: понедельник
type WeekID struct {
	monday DayID
}

// NewWeekID возвращает неделю, которой принадлежит момент t
func NewWeekID(t time.Time) WeekID {
	return NewDayID(t).WeekID()
}

func (w WeekID) Monday() DayID {
	return w.monday
}

// Days возвращает дни недели с понедельника по воскресенье
func (w WeekID) Days() [7]DayID {
	var days [7]DayID
	for i := range days {
		days[i] = w.monday.AddDays(i)
	}
	return days
}

func (w WeekID) Next() WeekID {
	return WeekID{monday: w.monday.AddDays(7)}
}

func (w WeekID) Prev() WeekID {
	return WeekID{monday: w.monday.AddDays(-7)}
}

func (w WeekID) String() string {
	return w.monday.String()
}
