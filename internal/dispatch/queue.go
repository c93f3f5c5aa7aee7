package dispatch

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/aethery0y/vryzen/internal/conversation"
)

// DefaultQueueSize is the default capacity of the dispatch queue.
const DefaultQueueSize = 128

type result struct {
	text string
	err  error
}

type queuedRequest struct {
	message string
	history []conversation.Turn
	done    chan result
}

// Queue serializes every backend call system-wide. A single worker
// goroutine drains requests in FIFO order, acquiring the rate limiter
// before each dispatch, so at most one backend call is ever in flight
// and dispatch start times follow enqueue order regardless of which
// chat a request came from.
//
// A request that ultimately fails still occupies its queue slot for the
// full retry duration, blocking everything behind it. That is a
// deliberate trade-off protecting the shared backend, not a bug.
type Queue struct {
	requests chan queuedRequest
	limiter  *RateLimiter
	retry    *RetryController
	logger   *slog.Logger
}

// NewQueue creates a dispatch queue. A non-positive size falls back to
// DefaultQueueSize.
func NewQueue(limiter *RateLimiter, retry *RetryController, size int, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Queue{
		requests: make(chan queuedRequest, size),
		limiter:  limiter,
		retry:    retry,
		logger:   logger.With("component", "dispatch_queue"),
	}
}

// Run drains the queue until the context is cancelled. It must be
// running for Enqueue to make progress. On shutdown, requests still
// waiting in the queue are settled with the context error.
func (q *Queue) Run(ctx context.Context) error {
	q.logger.Info("Dispatch worker started")

	for {
		select {
		case <-ctx.Done():
			q.drain(ctx.Err())
			q.logger.Info("Dispatch worker stopped")
			return ctx.Err()

		case req := <-q.requests:
			q.dispatch(ctx, req)
		}
	}
}

func (q *Queue) dispatch(ctx context.Context, req queuedRequest) {
	start := time.Now()

	if err := q.limiter.Acquire(ctx); err != nil {
		req.done <- result{err: err}
		return
	}

	text, err := q.retry.CallWithRetry(ctx, req.message, req.history)
	if err != nil {
		q.logger.WarnContext(ctx, "Dispatch failed", "error", err, "queued_for", time.Since(start))
	} else {
		q.logger.DebugContext(ctx, "Dispatch completed", "duration", time.Since(start))
	}

	req.done <- result{text: text, err: err}
}

// drain settles every request still queued after shutdown.
func (q *Queue) drain(err error) {
	for {
		select {
		case req := <-q.requests:
			req.done <- result{err: err}
		default:
			return
		}
	}
}

// Enqueue appends a request to the queue and blocks until the worker
// settles it. Queued and in-flight requests cannot be aborted; ctx only
// covers the wait for a queue slot and the final wait for the result.
func (q *Queue) Enqueue(ctx context.Context, message string, history []conversation.Turn) (string, error) {
	req := queuedRequest{
		message: message,
		history: history,
		done:    make(chan result, 1),
	}

	select {
	case q.requests <- req:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case res := <-req.done:
		return res.text, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Pending reports the number of requests currently waiting in the queue.
func (q *Queue) Pending() int {
	return len(q.requests)
}
