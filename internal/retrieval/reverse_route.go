package retrieval

import (
	"context"
	"time"

	"github.com/hotelrag/concierge/internal/domain"
	"github.com/hotelrag/concierge/internal/vectorstore"
)

// reverseRoute queries the reverse-query vector store once per sub-query
// embedding; each hit's comment_id is already resolved by the store
// adapter from the matched point's payload (spec.md §4.3 route 3).
func reverseRoute(ctx context.Context, store vectorstore.ReverseQueryStore, vectors [][]float32, filter string, topK int) routeOutcome {
	start := time.Now()

	hits, err := fanOutIndexed(ctx, vectors, func(ctx context.Context, idx int, vec []float32) ([]domain.RouteHit, error) {
		reverseHits, err := store.Query(ctx, vec, topK, filter)
		if err != nil {
			return nil, err
		}
		out := make([]domain.RouteHit, 0, len(reverseHits))
		for rank, h := range reverseHits {
			out = append(out, domain.RouteHit{
				CommentID: h.CommentID,
				Route:     domain.RouteReverse,
				Rank:      rank + 1,
				QueryIdx:  idx,
			})
		}
		return out, nil
	})
	if err != nil {
		hits = nil
	}

	return routeOutcome{
		route:  domain.RouteReverse,
		hits:   hits,
		timing: RouteTiming{Total: time.Since(start)},
	}
}
