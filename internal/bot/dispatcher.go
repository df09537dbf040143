// Package bot serves status reports over Telegram.
package bot

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/septivank/octobot/internal/logging"
	"go.uber.org/zap"
)

const (
	// RefreshData is the callback data carried by the refresh button
	RefreshData = "refresh"
	// RefreshLabel is the refresh button's text
	RefreshLabel = "🔄 Refresh"
)

// Messenger delivers reports to a chat. Every report it sends or edits
// carries the refresh button.
type Messenger interface {
	SendReport(chatID int64, text string) error
	EditReport(chatID int64, messageID int, text string) error
	AnswerCallback(callbackID string) error
}

// Reporter builds the status report text. It always returns displayable
// text, falling back to an error message itself.
type Reporter interface {
	BuildStatusReport(ctx context.Context) string
}

// Callback is a button press on a previously sent report
type Callback struct {
	ID        string
	ChatID    int64
	MessageID int
	Data      string
}

// Dispatcher turns chat commands into reports
type Dispatcher struct {
	reporter  Reporter
	messenger Messenger
	allowed   mapset.Set[int64]
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher. An empty allowlist admits every chat.
func NewDispatcher(reporter Reporter, messenger Messenger, allowedChatIDs []int64, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		reporter:  reporter,
		messenger: messenger,
		logger:    logger.With(zap.String("component", "dispatcher")),
	}
	if len(allowedChatIDs) > 0 {
		d.allowed = mapset.NewSet[int64](allowedChatIDs...)
	}
	return d
}

// Allowed reports whether chatID may request reports
func (d *Dispatcher) Allowed(chatID int64) bool {
	return d.allowed == nil || d.allowed.Contains(chatID)
}

// HandleStart sends a fresh report to the chat
func (d *Dispatcher) HandleStart(ctx context.Context, chatID int64) {
	ctx, logger := d.requestScope(ctx, "start", chatID)

	if !d.Allowed(chatID) {
		logger.Warn("ignoring command from chat outside allowlist")
		return
	}

	text := d.reporter.BuildStatusReport(ctx)
	if err := d.messenger.SendReport(chatID, text); err != nil {
		logger.Error("failed to send report", zap.Error(err))
		return
	}
	logger.Info("report sent")
}

// HandleCallback replaces the pressed report with a fresh one, then answers
// the callback so the client stops its progress indicator.
func (d *Dispatcher) HandleCallback(ctx context.Context, cb Callback) {
	ctx, logger := d.requestScope(ctx, "callback", cb.ChatID)
	logger = logger.With(zap.String("callback_data", cb.Data), zap.Int("message_id", cb.MessageID))

	defer func() {
		if err := d.messenger.AnswerCallback(cb.ID); err != nil {
			logger.Error("failed to answer callback", zap.Error(err))
		}
	}()

	if !d.Allowed(cb.ChatID) {
		logger.Warn("ignoring callback from chat outside allowlist")
		return
	}

	if cb.Data != RefreshData || cb.MessageID == 0 {
		logger.Debug("ignoring unknown callback")
		return
	}

	text := d.reporter.BuildStatusReport(ctx)
	if err := d.messenger.EditReport(cb.ChatID, cb.MessageID, text); err != nil {
		logger.Error("failed to edit report", zap.Error(err))
		return
	}
	logger.Info("report refreshed")
}

func (d *Dispatcher) requestScope(ctx context.Context, command string, chatID int64) (context.Context, *zap.Logger) {
	logger := logging.WithRequestID(d.logger, uuid.NewString()).With(
		zap.String("command", command),
		zap.Int64("chat_id", chatID),
	)
	return logging.WithContext(ctx, logger), logger
}
