package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/aethery0y/vryzen/internal/autoreply"
	"github.com/aethery0y/vryzen/internal/dispatch"
)

const sendMessageTimeout = 10 * time.Second

type messageHandler struct {
	deps HandlerDeps
}

// NewMessageHandler creates the default handler answering every inbound
// text message: auto-reply rules first, then the generative responder.
func NewMessageHandler(deps HandlerDeps) bot.HandlerFunc {
	return messageHandler{deps}.Handle
}

func (h messageHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	deps := h.deps
	log := deps.Logger.With("handler", "message")

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		log.DebugContext(ctx, "Ignoring update with nil message, empty text, or nil sender", "update_id", update.ID)
		return
	}
	// Commands are routed by their own handlers.
	if strings.HasPrefix(msg.Text, "/") {
		return
	}

	chat := chatContextFromMessage(msg)
	log.DebugContext(ctx, "Handling message", "chat_id", chat.ChatID, "is_group", chat.IsGroup)

	result, err := deps.Engine.Match(ctx, msg.Text, chat)
	if err != nil {
		log.ErrorContext(ctx, "Auto-reply matching failed", "error", err, "chat_id", chat.ChatID)
	} else if result.Matched {
		log.InfoContext(ctx, "Auto-reply rule fired", "rule_id", result.RuleID, "chat_id", chat.ChatID)
		h.sendReply(ctx, b, msg, result.Response)
		return
	}

	stopTyping := keepTyping(ctx, b, msg.Chat.ID, log)
	response, err := deps.Responder.Respond(ctx, msg.Text, chat)
	stopTyping()
	if err != nil {
		log.ErrorContext(ctx, "Response generation failed", "error", err, "chat_id", chat.ChatID)
		h.sendReply(ctx, b, msg, h.apology(err))
		return
	}

	if response == "" {
		log.WarnContext(ctx, "Empty response received, using fallback", "chat_id", chat.ChatID)
		response = deps.Config.Messages.EmptyReply
	}
	h.sendReply(ctx, b, msg, response)
}

// apology maps a terminal dispatch failure to a human-readable message,
// distinguishing quota exhaustion from connectivity trouble.
func (h messageHandler) apology(err error) string {
	var exhausted *dispatch.RetriesExhaustedError
	if errors.As(err, &exhausted) {
		if errors.Is(err, dispatch.ErrRateLimited) {
			return h.deps.Config.Messages.RateLimited
		}
		return h.deps.Config.Messages.ConnectionTrouble
	}
	return h.deps.Config.Messages.GeneralError
}

func (h messageHandler) sendReply(ctx context.Context, b *bot.Bot, msg *models.Message, text string) {
	log := h.deps.Logger.With("handler", "message")

	sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
	defer cancel()

	_, err := b.SendMessage(sendCtx, &bot.SendMessageParams{
		ChatID:          msg.Chat.ID,
		Text:            text,
		ReplyParameters: &models.ReplyParameters{MessageID: msg.ID},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send reply message", "error", err, "chat_id", msg.Chat.ID)
	}
}

// chatContextFromMessage maps a Telegram message onto the transport-neutral
// chat context the engine and responder consume.
func chatContextFromMessage(msg *models.Message) autoreply.ChatContext {
	isGroup := msg.Chat.Type == models.ChatTypeGroup || msg.Chat.Type == models.ChatTypeSupergroup

	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	chat := autoreply.ChatContext{
		ChatID:  chatID,
		Sender:  strconv.FormatInt(msg.From.ID, 10),
		IsGroup: isGroup,
	}
	if isGroup {
		chat.GroupID = chatID
	}
	return chat
}
