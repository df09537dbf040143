package bot

import (
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Telegram is the Bot API transport
type Telegram struct {
	api    *tgbotapi.BotAPI
	logger *zap.Logger
}

// NewTelegram authenticates the bot token against the Bot API
func NewTelegram(token string, logger *zap.Logger) (*Telegram, error) {
	return NewTelegramWithEndpoint(token, tgbotapi.APIEndpoint, &http.Client{}, logger)
}

// NewTelegramWithEndpoint is NewTelegram against a custom API endpoint.
// endpoint is a format string taking the token and the method name.
func NewTelegramWithEndpoint(token, endpoint string, client *http.Client, logger *zap.Logger) (*Telegram, error) {
	logger.Info("connecting to telegram bot api...")

	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		logger.Error("telegram authentication failed", zap.Error(err))
		return nil, fmt.Errorf("[TELEGRAM AUTH FAILED] cannot reach the bot api. Please check TELEGRAM_BOT_TOKEN. Error: %w", err)
	}

	logger.Info("telegram bot authorized", zap.String("username", api.Self.UserName))
	return &Telegram{
		api:    api,
		logger: logger,
	}, nil
}

// SendReport posts text as a new Markdown message with the refresh button
func (t *Telegram) SendReport(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = refreshKeyboard()

	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// EditReport replaces a message's text in place, keeping the refresh button
func (t *Telegram) EditReport(chatID int64, messageID int, text string) error {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, refreshKeyboard())
	edit.ParseMode = tgbotapi.ModeMarkdown

	if _, err := t.api.Send(edit); err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// AnswerCallback acknowledges a button press without showing a notification
func (t *Telegram) AnswerCallback(callbackID string) error {
	if _, err := t.api.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		return fmt.Errorf("failed to answer callback: %w", err)
	}
	return nil
}

// Updates starts long polling for updates
func (t *Telegram) Updates(pollTimeout int) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	return t.api.GetUpdatesChan(u)
}

// Stop ends long polling and closes the updates channel
func (t *Telegram) Stop() {
	t.api.StopReceivingUpdates()
}

func refreshKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(RefreshLabel, RefreshData),
		),
	)
}
