package controller

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Freeeeeet/gym_bot/internal/model"
)

var weekdayShort = [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

// FormatDateTime форматирует дату и время
func FormatDateTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

// FormatTimeRange форматирует диапазон времени
func FormatTimeRange(start, end time.Time) string {
	return fmt.Sprintf("%s-%s", start.Format("15:04"), end.Format("15:04"))
}

// FormatDayHeader заголовок дня: "Ср 12.03"
func FormatDayHeader(day model.DayID) string {
	return weekdayShort[day.Weekday()] + " " + day.Time().Format("02.01")
}

func StatusText(status model.TrainingStatus) string {
	switch status {
	case model.TrainingStatusOpenToSignup:
		return "открыта запись"
	case model.TrainingStatusClosedToSignup:
		return "запись закрыта"
	case model.TrainingStatusInProgress:
		return "идёт"
	case model.TrainingStatusCancelled:
		return "отменено"
	case model.TrainingStatusFinished:
		return "завершено"
	default:
		return string(status)
	}
}

// PluralizePlaces возвращает правильное склонение слова "место"
func PluralizePlaces(count int) string {
	if count%10 == 1 && count%100 != 11 {
		return "место"
	}
	if count%10 >= 2 && count%10 <= 4 && (count%100 < 10 || count%100 >= 20) {
		return "места"
	}
	return "мест"
}

// FormatTraining строка занятия в списке недели
func FormatTraining(t *model.Training, now time.Time, cutoff time.Duration) string {
	free := t.Capacity - len(t.Clients)
	line := fmt.Sprintf("%s %s", FormatTimeRange(t.StartAt, t.EndAt()), html.EscapeString(t.Name))

	switch status := t.Status(now, cutoff); status {
	case model.TrainingStatusOpenToSignup:
		line += fmt.Sprintf(" (%d %s)", free, PluralizePlaces(free))
	default:
		line += " (" + StatusText(status) + ")"
	}
	return line
}

// FormatWeek текст расписания недели
func FormatWeek(week *model.Week, now time.Time, cutoff time.Duration) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🗓 Неделя с %s\n", week.ID.Monday().Time().Format("02.01.2006")))

	empty := true
	for _, day := range week.Days {
		if day == nil || len(day.Trainings) == 0 {
			continue
		}
		empty = false
		sb.WriteString("\n<b>" + FormatDayHeader(day.ID) + "</b>\n")
		for _, t := range day.Trainings {
			sb.WriteString("• " + FormatTraining(t, now, cutoff) + "\n")
		}
	}

	if empty {
		sb.WriteString("\nЗанятий нет")
	}
	return sb.String()
}

// FormatSubscriptions список абонементов пользователя
func FormatSubscriptions(subs []model.UserSubscription) string {
	if len(subs) == 0 {
		return "Абонементов нет"
	}

	var sb strings.Builder
	for _, sub := range subs {
		sb.WriteString("• " + sub.Name + ": ")
		if sub.Unlimited {
			sb.WriteString("безлимит")
		} else {
			sb.WriteString(fmt.Sprintf("осталось %d", sub.Balance))
		}
		if sub.LockedBalance > 0 {
			sb.WriteString(fmt.Sprintf(", в резерве %d", sub.LockedBalance))
		}
		if sub.EndDate != nil {
			sb.WriteString(", до " + sub.EndDate.Format("02.01.2006"))
		} else {
			sb.WriteString(", не активирован")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
