package retrieval

import (
	"context"
	"time"

	"github.com/hotelrag/concierge/internal/domain"
	"github.com/hotelrag/concierge/internal/vectorstore"
)

// vectorRoute queries the comment vector store once per sub-query
// embedding under the resolved constraint filter.
func vectorRoute(ctx context.Context, store vectorstore.CommentStore, vectors [][]float32, filter string, topK int) routeOutcome {
	start := time.Now()

	hits, err := fanOutIndexed(ctx, vectors, func(ctx context.Context, idx int, vec []float32) ([]domain.RouteHit, error) {
		commentHits, err := store.Query(ctx, vec, topK, filter)
		if err != nil {
			return nil, err
		}
		out := make([]domain.RouteHit, 0, len(commentHits))
		for rank, h := range commentHits {
			out = append(out, domain.RouteHit{
				CommentID: h.CommentID,
				Route:     domain.RouteVector,
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
		route:  domain.RouteVector,
		hits:   hits,
		timing: RouteTiming{Total: time.Since(start)},
	}
}
