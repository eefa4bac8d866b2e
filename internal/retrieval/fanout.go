package retrieval

import (
	"context"

	"github.com/hotelrag/concierge/internal/domain"
	"github.com/hotelrag/concierge/internal/flow"
)

// indexedItem pairs a fan-out item with its position in the caller's
// slice, since flow.Batch's processor only sees the segment value.
type indexedItem[T any] struct {
	idx   int
	value T
}

// fanOutIndexed runs process once per item concurrently, in the item's
// original order, and flattens the results. Individual item failures are
// tolerated: a failed item simply contributes no hits rather than failing
// the whole route. Grounded on flow.Batch, the concurrent
// segment-process-aggregate primitive the reference corpus's RAG pipeline
// builds its own fan-out stages on.
func fanOutIndexed[T any](ctx context.Context, items []T, process func(context.Context, int, T) ([]domain.RouteHit, error)) ([]domain.RouteHit, error) {
	indexed := make([]indexedItem[T], len(items))
	for i, item := range items {
		indexed[i] = indexedItem[T]{idx: i, value: item}
	}

	batch := (&flow.Batch[[]indexedItem[T], []domain.RouteHit, indexedItem[T], []domain.RouteHit]{}).
		WithSegmenter(func(_ context.Context, in []indexedItem[T]) ([]indexedItem[T], error) {
			return in, nil
		}).
		WithProcessor(flow.AsProcessor(func(ctx context.Context, it indexedItem[T]) ([]domain.RouteHit, error) {
			return process(ctx, it.idx, it.value)
		})).
		WithAggregator(func(_ context.Context, results [][]domain.RouteHit) ([]domain.RouteHit, error) {
			var flat []domain.RouteHit
			for _, r := range results {
				flat = append(flat, r...)
			}
			return flat, nil
		}).
		WithContinueOnError().
		WithConcurrencyLimit(max(1, len(items)))

	return batch.Run(ctx, indexed)
}

// fanOutSubQueries is fanOutIndexed specialized for the common case of
// fanning out one task per sub-query.
func fanOutSubQueries(ctx context.Context, subQueries []domain.SubQuery, process func(context.Context, int, domain.SubQuery) ([]domain.RouteHit, error)) ([]domain.RouteHit, error) {
	return fanOutIndexed(ctx, subQueries, process)
}
