// Package query implements the four best-effort query-understanding stages
// from spec.md §4.2: intent recognition, constraint detection, sub-query
// expansion, and HyDE synthetic review generation. Each is grounded on
// Tangerg-lynx's ai/rag query transformer/expander shape (chat.Client +
// PromptTemplate) adapted to this system's JSON-output contracts.
package query

import (
	"context"
	"log/slog"
	"time"
)

// retryDelay is the fixed backoff between a stage's first attempt and its
// single retry, per spec.md §4.2 ("1 retry, ~100 ms backoff").
const retryDelay = 100 * time.Millisecond

// withRetry runs fn once, and on failure waits retryDelay and runs it once
// more. It returns the second attempt's result regardless of outcome,
// unless ctx is cancelled first.
func withRetry[T any](ctx context.Context, log *slog.Logger, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	result, err := fn(ctx)
	if err == nil {
		return result, nil
	}
	log.WarnContext(ctx, "query stage attempt failed, retrying", "op", op, "error", err)

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-time.After(retryDelay):
	}

	result, err = fn(ctx)
	if err != nil {
		log.WarnContext(ctx, "query stage retry failed, using fallback", "op", op, "error", err)
	}
	return result, err
}
