package controller

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Freeeeeet/gym_bot/internal/model"
	"github.com/Freeeeeet/gym_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const historyLimit = 10

// HandleStart обрабатывает команду /start
func (c *BotController) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From
	user, err := c.users.RegisterUser(ctx, from.ID, from.Username, from.FirstName, from.LastName)
	if err != nil {
		c.logger.Error("Failed to register user", zap.Error(err))
		c.send(ctx, update.Message.Chat.ID, "❌ Произошла ошибка при регистрации. Попробуйте позже.", nil)
		return
	}

	text := fmt.Sprintf(
		"👋 Привет, %s!\n\n"+
			"Здесь можно записаться на тренировки и следить за абонементами.\n\n"+
			"/week - Расписание недели\n"+
			"/my - Мои занятия и абонементы\n"+
			"/history - История действий",
		html.EscapeString(user.FirstName),
	)
	c.send(ctx, update.Message.Chat.ID, text, nil)
}

// HandleHelp обрабатывает команду /help
func (c *BotController) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	text := "📚 Справка по командам:\n\n" +
		"/start - Начать работу с ботом\n" +
		"/week - Расписание недели, запись и выписка\n" +
		"/my - Ближайшие занятия и остаток абонементов\n" +
		"/history - Последние действия\n\n" +
		fmt.Sprintf("Запись закрывается за %s до начала занятия.", formatCutoff(c.cutoff))
	c.send(ctx, update.Message.Chat.ID, text, nil)
}

// HandleWeek показывает расписание текущей недели
func (c *BotController) HandleWeek(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	week, err := c.calendar.GetWeek(ctx, model.NewWeekID(c.now().In(c.loc)))
	if err != nil {
		c.logger.Error("Failed to get week", zap.Error(err))
		c.send(ctx, update.Message.Chat.ID, ErrorMessage(err), nil)
		return
	}

	c.send(ctx, update.Message.Chat.ID, FormatWeek(week, c.now(), c.cutoff), WeekKeyboard(week))
}

// HandleMyTrainings показывает будущие занятия и абонементы пользователя
func (c *BotController) HandleMyTrainings(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	user, err := c.user(ctx, update.Message.From.ID)
	if err != nil {
		c.send(ctx, chatID, ErrorMessage(err), nil)
		return
	}

	trainings, err := c.calendar.ClientTrainings(ctx, user.ID)
	if err != nil {
		c.logger.Error("Failed to get client trainings", zap.Error(err), zap.Int64("user_id", user.ID))
		c.send(ctx, chatID, ErrorMessage(err), nil)
		return
	}

	view, err := c.users.Family(ctx, user)
	if err != nil {
		c.logger.Error("Failed to resolve family", zap.Error(err), zap.Int64("user_id", user.ID))
		c.send(ctx, chatID, ErrorMessage(err), nil)
		return
	}

	var sb strings.Builder
	sb.WriteString("📅 <b>Мои занятия</b>\n")
	if len(trainings) == 0 {
		sb.WriteString("Записей нет\n")
	}
	kb := NewBuilder()
	for _, t := range trainings {
		sb.WriteString(fmt.Sprintf("• %s %s\n", FormatDateTime(t.StartAt.In(c.loc)), html.EscapeString(t.Name)))
		kb.Row(Button(FormatDateTime(t.StartAt.In(c.loc))+" "+t.Name, trainingData(actionTraining, t.ID())))
	}

	sb.WriteString("\n💳 <b>Абонементы</b>\n")
	if view.Payer != nil && view.Payer.ID != user.ID {
		sb.WriteString(fmt.Sprintf("Оплачивает %s\n", html.EscapeString(view.Payer.FullName())))
	}
	if view.Payer != nil {
		sb.WriteString(html.EscapeString(FormatSubscriptions(view.Payer.Subscriptions)))
	}

	c.send(ctx, chatID, sb.String(), kb.Build())
}

// HandleHistory показывает последние действия пользователя
func (c *BotController) HandleHistory(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	user, err := c.user(ctx, update.Message.From.ID)
	if err != nil {
		c.send(ctx, chatID, ErrorMessage(err), nil)
		return
	}

	rows, err := c.users.History(ctx, user.ID, historyLimit)
	if err != nil {
		c.logger.Error("Failed to get history", zap.Error(err), zap.Int64("user_id", user.ID))
		c.send(ctx, chatID, ErrorMessage(err), nil)
		return
	}

	if len(rows) == 0 {
		c.send(ctx, chatID, "📜 История пуста", nil)
		return
	}

	var sb strings.Builder
	sb.WriteString("📜 <b>Последние действия</b>\n")
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("• %s %s", FormatDateTime(row.CreatedAt.In(c.loc)), historyActionText(row.Action)))
		if name, ok := row.Payload["name"].(string); ok {
			sb.WriteString(": " + html.EscapeString(name))
		}
		sb.WriteString("\n")
	}
	c.send(ctx, chatID, sb.String(), nil)
}

func (c *BotController) user(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := c.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		c.logger.Error("Failed to get user", zap.Error(err), zap.Int64("telegram_id", telegramID))
		return nil, err
	}
	if user == nil {
		return nil, ErrNotRegistered
	}
	return user, nil
}

func historyActionText(action model.HistoryAction) string {
	switch action {
	case model.HistoryActionSignUp:
		return "запись"
	case model.HistoryActionSignOut:
		return "выписка"
	case model.HistoryActionExpireSubscription:
		return "абонемент истёк"
	case model.HistoryActionFinalized:
		return "занятие проведено"
	case model.HistoryActionFinalizedCanceled:
		return "занятие отменено"
	default:
		return string(action)
	}
}

func formatCutoff(cutoff time.Duration) string {
	minutes := int(cutoff.Minutes())
	if minutes%60 == 0 {
		return fmt.Sprintf("%d ч", minutes/60)
	}
	return fmt.Sprintf("%d мин", minutes)
}

// withActor помечает операцию пользователем, нажавшим кнопку
func withActor(ctx context.Context, user *model.User) context.Context {
	return service.WithActor(ctx, user.ID)
}
