package bot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// UpdateSource yields incoming Telegram updates until stopped
type UpdateSource interface {
	Updates(pollTimeout int) tgbotapi.UpdatesChannel
	Stop()
}

// Listener consumes updates and dispatches each one in its own goroutine
type Listener struct {
	source      UpdateSource
	dispatcher  *Dispatcher
	pollTimeout int
	logger      *zap.Logger

	wg sync.WaitGroup
}

// NewListener creates a new update listener
func NewListener(source UpdateSource, dispatcher *Dispatcher, pollTimeout int, logger *zap.Logger) *Listener {
	return &Listener{
		source:      source,
		dispatcher:  dispatcher,
		pollTimeout: pollTimeout,
		logger:      logger,
	}
}

// Start starts consuming updates. The loop ends when ctx is cancelled or the
// update channel closes.
func (l *Listener) Start(ctx context.Context) error {
	updates := l.source.Updates(l.pollTimeout)

	l.logger.Info("listener started", zap.Int("poll_timeout", l.pollTimeout))

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		for {
			select {
			case <-ctx.Done():
				l.logger.Info("listener context cancelled, stopping")
				return
			case update, ok := <-updates:
				if !ok {
					l.logger.Warn("update channel closed")
					return
				}
				l.wg.Add(1)
				go func() {
					defer l.wg.Done()
					l.route(ctx, update)
				}()
			}
		}
	}()

	return nil
}

func (l *Listener) route(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.IsCommand():
		if update.Message.Command() != "start" {
			l.logger.Debug("ignoring unknown command", zap.String("command", update.Message.Command()))
			return
		}
		l.dispatcher.HandleStart(ctx, update.Message.Chat.ID)
	case update.CallbackQuery != nil:
		cb := Callback{
			ID:   update.CallbackQuery.ID,
			Data: update.CallbackQuery.Data,
		}
		if msg := update.CallbackQuery.Message; msg != nil {
			cb.MessageID = msg.MessageID
			if msg.Chat != nil {
				cb.ChatID = msg.Chat.ID
			}
		}
		l.dispatcher.HandleCallback(ctx, cb)
	default:
		l.logger.Debug("ignoring update", zap.Int("update_id", update.UpdateID))
	}
}

// Close stops polling and waits for in-flight handlers to finish
func (l *Listener) Close() error {
	l.source.Stop()
	l.wg.Wait()
	l.logger.Info("listener stopped")
	return nil
}
