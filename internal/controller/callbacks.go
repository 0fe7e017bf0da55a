package controller

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/Freeeeeet/gym_bot/internal/model"
	"github.com/Freeeeeet/gym_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleCallbackQuery маршрутизирует нажатия на inline кнопки
func (c *BotController) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	query := update.CallbackQuery
	if query == nil {
		return
	}

	if err := c.route(ctx, query); err != nil {
		c.answer(ctx, query.ID, ErrorMessage(err), true)
		return
	}
}

func (c *BotController) route(ctx context.Context, query *models.CallbackQuery) error {
	message := query.Message.Message
	if message == nil {
		return ErrNoMessage
	}

	action, payload, err := parseCallback(query.Data)
	if err != nil {
		return err
	}

	if action == actionWeek {
		week, err := parseWeekPayload(payload, c.loc)
		if err != nil {
			return err
		}
		c.answer(ctx, query.ID, "", false)
		return c.showWeek(ctx, message, week)
	}

	id, err := parseTrainingPayload(payload)
	if err != nil {
		return err
	}

	user, err := c.user(ctx, query.From.ID)
	if err != nil {
		return err
	}
	ctx = withActor(ctx, user)

	switch action {
	case actionTraining:
		c.answer(ctx, query.ID, "", false)
	case actionSignUp:
		if err := c.booking.SignUp(ctx, id, user.ID, false); err != nil {
			return err
		}
		c.answer(ctx, query.ID, "✅ Вы записаны", false)
	case actionSignOut:
		if err := c.booking.SignOut(ctx, id, user.ID, false); err != nil {
			return err
		}
		c.answer(ctx, query.ID, "✅ Вы выписаны, занятие возвращено на абонемент", false)
	case actionCancel:
		if err := c.cancel(ctx, id, user); err != nil {
			return err
		}
		c.answer(ctx, query.ID, "🚫 Занятие отменено", false)
	default:
		return ErrInvalidFormat
	}

	return c.showTraining(ctx, message, id, user)
}

// cancel отменяет занятие инструктора и уведомляет выписанных клиентов
func (c *BotController) cancel(ctx context.Context, id model.TrainingID, user *model.User) error {
	training, err := c.calendar.GetTraining(ctx, id)
	if err != nil {
		return err
	}
	if !user.IsInstructor || training.InstructorID != user.ID {
		return service.ErrInstructorHasNoRights
	}

	released, err := c.calendar.CancelTraining(ctx, id, false)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("🚫 Занятие %s %s отменено. Занятие возвращено на абонемент.",
		html.EscapeString(training.Name), FormatDateTime(training.StartAt.In(c.loc)))
	for _, clientID := range released {
		c.notify(ctx, clientID, text)
	}
	return nil
}

// notify отправляет сообщение пользователю по внутреннему ID
func (c *BotController) notify(ctx context.Context, userID int64, text string) {
	chatID, err := c.users.TelegramID(ctx, userID)
	if err != nil {
		c.logger.Warn("Failed to resolve chat for notification", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	c.send(ctx, chatID, text, nil)
}

func (c *BotController) showWeek(ctx context.Context, message *models.Message, id model.WeekID) error {
	week, err := c.calendar.GetWeek(ctx, id)
	if err != nil {
		return err
	}
	return c.edit(ctx, message, FormatWeek(week, c.now(), c.cutoff), WeekKeyboard(week))
}

func (c *BotController) showTraining(ctx context.Context, message *models.Message, id model.TrainingID, user *model.User) error {
	training, err := c.calendar.GetTraining(ctx, id)
	if err != nil {
		return err
	}

	now := c.now()
	start := training.StartAt.In(c.loc)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>%s</b>\n", html.EscapeString(training.Name)))
	if training.Description != "" {
		sb.WriteString(html.EscapeString(training.Description) + "\n")
	}
	sb.WriteString(fmt.Sprintf("\n🕐 %s, %s\n", FormatDayHeader(model.NewDayID(start)), FormatTimeRange(start, training.EndAt().In(c.loc))))
	sb.WriteString(fmt.Sprintf("👥 %d из %d\n", len(training.Clients), training.Capacity))
	sb.WriteString("📌 " + StatusText(training.Status(now, c.cutoff)) + "\n")
	if training.IsFree {
		sb.WriteString("🎁 Бесплатное занятие\n")
	}
	if training.HasClient(user.ID) {
		sb.WriteString("\n✅ Вы записаны")
	}

	return c.edit(ctx, message, sb.String(), TrainingKeyboard(training, user, now, c.cutoff))
}

func (c *BotController) edit(ctx context.Context, message *models.Message, text string, markup *models.InlineKeyboardMarkup) error {
	_, err := c.bot.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      message.Chat.ID,
		MessageID:   message.ID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		c.logger.Warn("Failed to edit message", zap.Int("message_id", message.ID), zap.Error(err))
	}
	return nil
}

func (c *BotController) answer(ctx context.Context, callbackID, text string, alert bool) {
	_, err := c.bot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		c.logger.Debug("Failed to answer callback", zap.Error(err))
	}
}
