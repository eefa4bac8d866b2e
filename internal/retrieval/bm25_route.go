package retrieval

import (
	"context"
	"time"

	"github.com/hotelrag/concierge/internal/bm25"
	"github.com/hotelrag/concierge/internal/domain"
)

// bm25Route runs §4.1's search once per sub-query, in-process and
// CPU-bound (spec.md §5), and is not subject to the constraint filter
// (out of design scope for that index).
func bm25Route(ctx context.Context, index *bm25.Index, subQueries []domain.SubQuery, topK int) routeOutcome {
	start := time.Now()

	hits, err := fanOutSubQueries(ctx, subQueries, func(_ context.Context, queryIdx int, sq domain.SubQuery) ([]domain.RouteHit, error) {
		results := index.Search(sq.Text, topK)
		out := make([]domain.RouteHit, 0, len(results))
		for rank, r := range results {
			out = append(out, domain.RouteHit{
				CommentID: r.CommentID,
				Route:     domain.RouteBM25,
				Rank:      rank + 1,
				QueryIdx:  queryIdx,
			})
		}
		return out, nil
	})
	if err != nil {
		hits = nil
	}

	return routeOutcome{
		route:  domain.RouteBM25,
		hits:   hits,
		timing: RouteTiming{Total: time.Since(start)},
	}
}
