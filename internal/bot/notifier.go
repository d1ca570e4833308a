package bot

import (
	"context"

	"github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/rs/zerolog"

	"github.com/t1ery/ParrainageBot/internal/wizard"
)

// Notifier показывает уведомления мастера сообщениями в чате
type Notifier struct {
	api botAPI
	log zerolog.Logger
}

// NewNotifier создаёт уведомитель поверх Telegram API
func NewNotifier(api *tgbotapi.BotAPI, log zerolog.Logger) *Notifier {
	return newNotifier(api, log)
}

func newNotifier(api botAPI, log zerolog.Logger) *Notifier {
	return &Notifier{api: api, log: log.With().Str("component", "notifier").Logger()}
}

// Notify отправляет уведомление. Ошибка отправки только логируется.
func (n *Notifier) Notify(_ context.Context, userID int64, notice wizard.Notice) {
	if _, err := n.api.Send(tgbotapi.NewMessage(userID, noticePrefix(notice.Level)+notice.Text)); err != nil {
		n.log.Error().Err(err).Int64("user_id", userID).Msg("Ошибка при отправке уведомления")
	}
}

func noticePrefix(level wizard.Level) string {
	switch level {
	case wizard.LevelSuccess:
		return "✅ "
	case wizard.LevelError:
		return "❌ "
	}
	return "ℹ️ "
}
