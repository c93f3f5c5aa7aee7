package responder

import (
	"context"
	"errors"
	"testing"

	"github.com/aethery0y/vryzen/internal/autoreply"
	"github.com/aethery0y/vryzen/internal/conversation"
	"github.com/aethery0y/vryzen/internal/dispatch"
)

// fakeDispatcher records Enqueue calls and returns a scripted result.
type fakeDispatcher struct {
	calls    int
	lastText string
	lastHist []conversation.Turn
	response string
	err      error
}

func (f *fakeDispatcher) Enqueue(_ context.Context, message string, history []conversation.Turn) (string, error) {
	f.calls++
	f.lastText = message
	f.lastHist = history
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestRespondCannedBypassesQueue(t *testing.T) {
	t.Parallel()

	contexts := conversation.NewStore()
	queue := &fakeDispatcher{response: "should not be used"}
	r := NewResponder(contexts, queue, nil)

	chat := autoreply.ChatContext{ChatID: "c1", Sender: "u1"}
	answer, err := r.Respond(context.Background(), "hello", chat)
	if err != nil {
		t.Fatalf("Respond returned unexpected error: %v", err)
	}
	if answer != cannedWords["hello"] {
		t.Errorf("Respond = %q, want canned answer %q", answer, cannedWords["hello"])
	}
	if queue.calls != 0 {
		t.Errorf("dispatcher was called %d times for a canned hit, want 0", queue.calls)
	}
	if got := contexts.Len("c1"); got != 0 {
		t.Errorf("context length after canned hit = %d, want 0", got)
	}
}

func TestRespondAppendsContextOnSuccess(t *testing.T) {
	t.Parallel()

	contexts := conversation.NewStore()
	queue := &fakeDispatcher{response: "Sure, here is a plan."}
	r := NewResponder(contexts, queue, nil)

	chat := autoreply.ChatContext{ChatID: "c1", Sender: "u1"}
	answer, err := r.Respond(context.Background(), "help me plan my week", chat)
	if err != nil {
		t.Fatalf("Respond returned unexpected error: %v", err)
	}
	if answer != queue.response {
		t.Errorf("Respond = %q, want %q", answer, queue.response)
	}
	if queue.calls != 1 {
		t.Fatalf("dispatcher calls = %d, want 1", queue.calls)
	}

	turns := contexts.Get("c1")
	if len(turns) != 2 {
		t.Fatalf("context length after success = %d, want 2", len(turns))
	}
	if turns[0].Text != "help me plan my week" || turns[1].Text != queue.response {
		t.Errorf("stored exchange = %+v, want the dispatched question and answer", turns)
	}
}

func TestRespondPassesHistoryToQueue(t *testing.T) {
	t.Parallel()

	contexts := conversation.NewStore()
	contexts.Append("c1", "earlier question", "earlier answer")
	queue := &fakeDispatcher{response: "follow-up answer"}
	r := NewResponder(contexts, queue, nil)

	chat := autoreply.ChatContext{ChatID: "c1", Sender: "u1"}
	if _, err := r.Respond(context.Background(), "follow-up question", chat); err != nil {
		t.Fatalf("Respond returned unexpected error: %v", err)
	}

	if len(queue.lastHist) != 2 {
		t.Fatalf("history passed to dispatcher had %d turns, want 2", len(queue.lastHist))
	}
	if queue.lastHist[0].Text != "earlier question" {
		t.Errorf("history[0] = %+v, want the earlier user turn", queue.lastHist[0])
	}
}

func TestRespondLeavesContextOnFailure(t *testing.T) {
	t.Parallel()

	contexts := conversation.NewStore()
	contexts.Append("c1", "earlier question", "earlier answer")
	wantErr := errors.New("backend unavailable")
	queue := &fakeDispatcher{err: wantErr}
	r := NewResponder(contexts, queue, nil)

	chat := autoreply.ChatContext{ChatID: "c1", Sender: "u1"}
	_, err := r.Respond(context.Background(), "new question", chat)
	if !errors.Is(err, wantErr) {
		t.Fatalf("Respond error = %v, want %v", err, wantErr)
	}

	if got := contexts.Len("c1"); got != 2 {
		t.Errorf("context length after failure = %d, want the pre-existing 2", got)
	}
}

func TestRespondPreservesDispatchErrorType(t *testing.T) {
	t.Parallel()

	contexts := conversation.NewStore()
	queue := &fakeDispatcher{err: &dispatch.RetriesExhaustedError{Attempts: 3, Last: dispatch.ErrRateLimited}}
	r := NewResponder(contexts, queue, nil)

	chat := autoreply.ChatContext{ChatID: "c1", Sender: "u1"}
	_, err := r.Respond(context.Background(), "new question", chat)

	var exhausted *dispatch.RetriesExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Respond error = %T, want *dispatch.RetriesExhaustedError passed through", err)
	}
	if !errors.Is(err, dispatch.ErrRateLimited) {
		t.Errorf("errors.Is(err, ErrRateLimited) = false, want the cause visible to the handler")
	}
}

func TestRespondUsesGroupScopedContext(t *testing.T) {
	t.Parallel()

	contexts := conversation.NewStore()
	queue := &fakeDispatcher{response: "answer"}
	r := NewResponder(contexts, queue, nil)

	chat := autoreply.ChatContext{ChatID: "g1", Sender: "u1", GroupID: "g1", IsGroup: true}
	if _, err := r.Respond(context.Background(), "group question", chat); err != nil {
		t.Fatalf("Respond returned unexpected error: %v", err)
	}

	if got := contexts.Len("g1-u1"); got != 2 {
		t.Errorf("context length for group key = %d, want 2", got)
	}
	if got := contexts.Len("g1"); got != 0 {
		t.Errorf("context length for bare chat key = %d, want 0", got)
	}
}
