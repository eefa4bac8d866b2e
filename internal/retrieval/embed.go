package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/hotelrag/concierge/internal/llm"
)

// embedOnce batch-embeds texts exactly once and reports the elapsed time so
// callers can attribute it to each consuming route (spec.md §4.3).
func embedOnce(ctx context.Context, model llm.EmbeddingModel, texts []string) ([][]float32, time.Duration, error) {
	if len(texts) == 0 {
		return nil, 0, nil
	}
	start := time.Now()
	vectors, err := model.EmbedBatch(ctx, texts)
	elapsed := time.Since(start)
	if err != nil {
		return nil, elapsed, fmt.Errorf("retrieval: embed batch: %w", err)
	}
	return vectors, elapsed, nil
}
