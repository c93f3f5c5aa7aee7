package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// typingRefreshInterval refreshes the indicator comfortably inside
// Telegram's roughly five second typing display window.
const typingRefreshInterval = 4 * time.Second

// keepTyping shows the typing indicator for a chat and keeps refreshing
// it until the returned stop function is called. Queued generation can
// outlive a single indicator, so one-shot actions go stale mid-wait.
func keepTyping(ctx context.Context, b *bot.Bot, chatID int64, log *slog.Logger) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)

	sendAction := func() {
		_, err := b.SendChatAction(ctx, &bot.SendChatActionParams{
			ChatID: chatID,
			Action: models.ChatActionTyping,
		})
		if err != nil && ctx.Err() == nil {
			log.DebugContext(ctx, "Failed to send typing action", "error", err, "chat_id", chatID)
		}
	}

	go func() {
		sendAction()

		ticker := time.NewTicker(typingRefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sendAction()
			}
		}
	}()

	return cancel
}
