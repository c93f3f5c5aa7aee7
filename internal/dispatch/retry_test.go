package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aethery0y/vryzen/internal/conversation"
)

// stubGenerator records every request and fails a scripted number of
// times before succeeding.
type stubGenerator struct {
	failFirst int
	err       error
	response  string
	requests  []GenerateRequest
}

func (s *stubGenerator) Generate(_ context.Context, req GenerateRequest) (string, error) {
	s.requests = append(s.requests, req)
	if len(s.requests) <= s.failFirst {
		if s.err != nil {
			return "", s.err
		}
		return "", errors.New("backend failure")
	}
	return s.response, nil
}

func TestCallWithRetrySucceedsFirstAttempt(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{response: "All good."}
	c := NewRetryController(gen, 10*time.Millisecond, nil)

	history := []conversation.Turn{{Role: conversation.RoleUser, Text: "earlier"}}
	text, err := c.CallWithRetry(context.Background(), "question", history)
	if err != nil {
		t.Fatalf("CallWithRetry returned unexpected error: %v", err)
	}
	if text != "All good." {
		t.Errorf("CallWithRetry = %q, want %q", text, "All good.")
	}
	if len(gen.requests) != 1 {
		t.Fatalf("generator called %d times, want 1", len(gen.requests))
	}
	if gen.requests[0].Stateless {
		t.Errorf("first attempt was stateless, want conversational")
	}
	if len(gen.requests[0].History) != 1 {
		t.Errorf("first attempt history had %d turns, want 1", len(gen.requests[0].History))
	}
}

func TestCallWithRetryFallsBackToStateless(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{failFirst: 2, response: "Recovered."}
	c := NewRetryController(gen, 5*time.Millisecond, nil)

	history := []conversation.Turn{{Role: conversation.RoleUser, Text: "earlier"}}
	text, err := c.CallWithRetry(context.Background(), "question", history)
	if err != nil {
		t.Fatalf("CallWithRetry returned unexpected error: %v", err)
	}
	if text != "Recovered." {
		t.Errorf("CallWithRetry = %q, want %q", text, "Recovered.")
	}
	if len(gen.requests) != 3 {
		t.Fatalf("generator called %d times, want 3", len(gen.requests))
	}

	// Attempt 1 carries history; the fallback attempts drop it and go
	// stateless instead.
	if gen.requests[0].Stateless || len(gen.requests[0].History) == 0 {
		t.Errorf("attempt 1 = %+v, want conversational with history", gen.requests[0])
	}
	for i, req := range gen.requests[1:] {
		if !req.Stateless {
			t.Errorf("attempt %d stateless = false, want true", i+2)
		}
		if len(req.History) != 0 {
			t.Errorf("attempt %d carried %d history turns, want 0", i+2, len(req.History))
		}
	}
}

func TestCallWithRetryExhaustsAttempts(t *testing.T) {
	t.Parallel()

	cause := errors.New("backend down")
	gen := &stubGenerator{failFirst: 3, err: cause}
	c := NewRetryController(gen, 5*time.Millisecond, nil)

	_, err := c.CallWithRetry(context.Background(), "question", nil)
	if err == nil {
		t.Fatal("CallWithRetry returned nil error after three failures")
	}

	var exhausted *RetriesExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("CallWithRetry error = %T, want *RetriesExhaustedError", err)
	}
	if exhausted.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", exhausted.Attempts)
	}
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false, want the last failure reachable through Unwrap")
	}
	if len(gen.requests) != 3 {
		t.Errorf("generator called %d times, want 3", len(gen.requests))
	}
}

func TestCallWithRetryRateLimitedCauseIsClassified(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{failFirst: 3, err: ErrRateLimited}
	c := NewRetryController(gen, 5*time.Millisecond, nil)

	_, err := c.CallWithRetry(context.Background(), "question", nil)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("errors.Is(err, ErrRateLimited) = false, want rate limit cause visible through the wrapper")
	}
}

func TestCallWithRetryBacksOffBetweenAttempts(t *testing.T) {
	t.Parallel()

	const base = 10 * time.Millisecond
	gen := &stubGenerator{failFirst: 2, response: "ok"}
	c := NewRetryController(gen, base, nil)

	start := time.Now()
	if _, err := c.CallWithRetry(context.Background(), "question", nil); err != nil {
		t.Fatalf("CallWithRetry returned unexpected error: %v", err)
	}

	// Waits are 2*base after attempt 1 and 4*base after attempt 2.
	if elapsed := time.Since(start); elapsed < 6*base-time.Millisecond {
		t.Errorf("CallWithRetry finished in %v, want at least %v of backoff", elapsed, 6*base)
	}
}

func TestCallWithRetryStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{failFirst: 3}
	c := NewRetryController(gen, time.Minute, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.CallWithRetry(ctx, "question", nil)
	if err == nil {
		t.Fatal("CallWithRetry returned nil error on cancelled context")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("errors.Is(err, DeadlineExceeded) = false, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("CallWithRetry took %v after cancellation, want prompt return", elapsed)
	}
	if len(gen.requests) != 1 {
		t.Errorf("generator called %d times before cancellation, want 1", len(gen.requests))
	}
}

func TestPostProcess(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain reply untouched",
			input: "Sure, I can do that.",
			want:  "Sure, I can do that.",
		},
		{
			name:  "lowercase first letter capitalized",
			input: "sure, I can do that.",
			want:  "Sure, I can do that.",
		},
		{
			name:  "self intro sentence stripped",
			input: "I'm a helpful assistant. the weather looks fine today.",
			want:  "The weather looks fine today.",
		},
		{
			name:  "as-an-AI prefix stripped",
			input: "As an AI language model, here is what I found.",
			want:  "Here is what I found.",
		},
		{
			name:  "only the intro clause is removed, not the reply",
			input: "As a language model, I can help with this, that, and more.",
			want:  "I can help with this, that, and more.",
		},
		{
			name:  "as-an-assistant sentence stripped before a comma-heavy reply",
			input: "As an assistant. Monday, Tuesday, and Wednesday all work.",
			want:  "Monday, Tuesday, and Wednesday all work.",
		},
		{
			name:  "greeting intro stripped",
			input: "Hello! I'm here to help. your meeting is at noon.",
			want:  "Your meeting is at noon.",
		},
		{
			name:  "stacked intros stripped",
			input: "Hi, I'm your assistant. I'm an AI model. yes, that works.",
			want:  "Yes, that works.",
		},
		{
			name:  "self mention mid-sentence kept",
			input: "People say I'm an assistant, but that's fine.",
			want:  "People say I'm an assistant, but that's fine.",
		},
		{
			name:  "surrounding whitespace and newline runs normalized",
			input: "\n\nFirst paragraph.\n\n\n\nSecond paragraph.  \n",
			want:  "First paragraph.\n\nSecond paragraph.",
		},
		{
			name:  "empty reply",
			input: "",
			want:  "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := postProcess(tc.input); got != tc.want {
				t.Errorf("postProcess(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
