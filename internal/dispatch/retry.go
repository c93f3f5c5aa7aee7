package dispatch

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/aethery0y/vryzen/internal/conversation"
)

const (
	maxAttempts = 3

	// DefaultBackoffBase yields waits of 2s then 4s (2^attempt * base).
	DefaultBackoffBase = time.Second
)

// selfIntroPatterns match leading self-introduction sentences that some
// models prepend despite the system instruction. Matched prefixes are
// stripped from the reply before it reaches the user.
var selfIntroPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(i'?m|i am) (a|an|your) [^.!?\n]{0,80}(assistant|ai|bot|model)[^.!?\n]*[.!?]\s*`),
	regexp.MustCompile(`(?i)^as (a|an) (ai|language model|assistant)[^.!?,\n]*[.!?,]\s*`),
	regexp.MustCompile(`(?i)^(hello|hi)[!.,]? (i'?m|i am) [^.!?\n]{0,80}[.!?]\s*`),
}

// multipleNewlines matches runs of three or more newlines, which chat
// clients render as awkward gaps.
var multipleNewlines = regexp.MustCompile(`\n{3,}`)

// RetryController calls the backend with bounded retries. The first
// attempt uses full conversational mode; after a failure the remaining
// attempts switch to stateless generation, trading context-awareness for
// resilience once the primary path has failed.
type RetryController struct {
	generator   Generator
	backoffBase time.Duration
	logger      *slog.Logger
}

// NewRetryController creates a controller around the given backend.
// A non-positive backoffBase falls back to DefaultBackoffBase.
func NewRetryController(generator Generator, backoffBase time.Duration, logger *slog.Logger) *RetryController {
	if backoffBase <= 0 {
		backoffBase = DefaultBackoffBase
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &RetryController{
		generator:   generator,
		backoffBase: backoffBase,
		logger:      logger.With("component", "retry_controller"),
	}
}

// CallWithRetry attempts the backend call up to three times, waiting
// 2^attempt * base between attempts. Exhausting every attempt yields a
// *RetriesExhaustedError carrying the last underlying error.
func (c *RetryController) CallWithRetry(ctx context.Context, message string, history []conversation.Turn) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req := GenerateRequest{Message: message}
		if attempt == 1 {
			req.History = history
		} else {
			req.Stateless = true
		}

		text, err := c.generator.Generate(ctx, req)
		if err == nil {
			return postProcess(text), nil
		}
		lastErr = err

		c.logger.WarnContext(ctx, "Backend call failed",
			"attempt", attempt, "max_attempts", maxAttempts, "stateless", req.Stateless, "error", err)

		if attempt == maxAttempts {
			break
		}

		wait := (1 << attempt) * c.backoffBase
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", &RetriesExhaustedError{Attempts: attempt, Last: ctx.Err()}
		case <-timer.C:
		}
	}

	c.logger.ErrorContext(ctx, "Backend call failed after max attempts", "attempts", maxAttempts, "error", lastErr)
	return "", &RetriesExhaustedError{Attempts: maxAttempts, Last: lastErr}
}

// postProcess normalizes whitespace, strips leading self-introduction
// sentences, and capitalizes the first letter of the reply.
func postProcess(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = multipleNewlines.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	for changed := true; changed; {
		changed = false
		for _, re := range selfIntroPatterns {
			if loc := re.FindStringIndex(text); loc != nil && loc[0] == 0 {
				text = text[loc[1]:]
				changed = true
			}
		}
	}

	r, size := utf8.DecodeRuneInString(text)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return text
	}
	return string(unicode.ToUpper(r)) + text[size:]
}
