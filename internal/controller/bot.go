package controller

import (
	"context"
	"time"

	"github.com/Freeeeeet/gym_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type BotController struct {
	bot      *bot.Bot
	users    *service.UserService
	calendar *service.CalendarService
	booking  *service.BookingService
	loc      *time.Location
	cutoff   time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewBotController(
	botInstance *bot.Bot,
	users *service.UserService,
	calendar *service.CalendarService,
	booking *service.BookingService,
	settings service.Settings,
	logger *zap.Logger,
) *BotController {
	loc := settings.Location
	if loc == nil {
		loc = time.UTC
	}

	return &BotController{
		bot:      botInstance,
		users:    users,
		calendar: calendar,
		booking:  booking,
		loc:      loc,
		cutoff:   settings.SignupCutoff,
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/week", bot.MatchTypeExact, c.HandleWeek)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/my", bot.MatchTypeExact, c.HandleMyTrainings)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/history", bot.MatchTypeExact, c.HandleHistory)

	// Обработчик нажатий на inline кнопки
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.HandleCallbackQuery)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "week", Description: "🗓 Расписание недели"},
		{Command: "my", Description: "📅 Мои занятия и абонементы"},
		{Command: "history", Description: "📜 История действий"},
		{Command: "help", Description: "❓ Справка по командам"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start запускает бота и блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}

// send отправляет HTML сообщение и логирует ошибку отправки
func (c *BotController) send(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) {
	_, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		c.logger.Warn("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
