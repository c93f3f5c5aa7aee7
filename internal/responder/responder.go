package responder

import (
	"context"
	"io"
	"log/slog"

	"github.com/aethery0y/vryzen/internal/autoreply"
	"github.com/aethery0y/vryzen/internal/conversation"
)

// Dispatcher is the dispatch queue surface the responder consumes.
type Dispatcher interface {
	Enqueue(ctx context.Context, message string, history []conversation.Turn) (string, error)
}

// Responder produces a reply for a message that no auto-reply rule
// matched: canned answers first, then the generative backend through
// the dispatch queue with the chat's bounded context.
type Responder struct {
	contexts *conversation.Store
	queue    Dispatcher
	logger   *slog.Logger
}

// NewResponder creates a responder around the context store and queue.
func NewResponder(contexts *conversation.Store, queue Dispatcher, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Responder{
		contexts: contexts,
		queue:    queue,
		logger:   logger.With("component", "responder"),
	}
}

// Respond generates a reply for the message. Canned hits return
// immediately without recording context. Otherwise the chat's context
// conditions a queued backend call; on success the exchange is appended
// to the context, on terminal failure the context is left untouched and
// the classified error is returned for the handler to map to a
// user-facing apology.
func (r *Responder) Respond(ctx context.Context, text string, chat autoreply.ChatContext) (string, error) {
	if answer, ok := TryCanned(text); ok {
		r.logger.DebugContext(ctx, "Canned response hit", "chat_id", chat.ChatID)
		return answer, nil
	}

	key := conversation.ChatKey(chat.ChatID, chat.Sender, chat.IsGroup)
	history := r.contexts.Get(key)

	response, err := r.queue.Enqueue(ctx, text, history)
	if err != nil {
		r.logger.WarnContext(ctx, "Generation failed", "chat_id", chat.ChatID, "error", err)
		return "", err
	}

	r.contexts.Append(key, text, response)
	return response, nil
}
