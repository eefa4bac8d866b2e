package retrieval

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hotelrag/concierge/internal/domain"
	"github.com/hotelrag/concierge/internal/llm"
	"github.com/hotelrag/concierge/internal/query"
	"github.com/hotelrag/concierge/internal/vectorstore"
)

type hydeSubQueryResult struct {
	hits       []domain.RouteHit
	generation time.Duration
	retrieval  time.Duration
	passages   []string
}

// hydeRoute generates synthetic reviews per sub-query, embeds them, and
// vector-searches the comment store per hypothesis (spec.md §4.3 route 4).
// It returns both the RRF-eligible hits and the full HyDE text log for
// observability.
func hydeRoute(ctx context.Context, hydeGen *query.HydeGenerator, embedModel llm.EmbeddingModel, commentStore vectorstore.CommentStore, subQueries []domain.SubQuery, filter string, topK int) (routeOutcome, []string) {
	start := time.Now()
	results := make([]hydeSubQueryResult, len(subQueries))

	g, gctx := errgroup.WithContext(ctx)
	for i, sq := range subQueries {
		g.Go(func() error {
			results[i] = hydeForSubQuery(gctx, hydeGen, embedModel, commentStore, i, sq, filter, topK)
			return nil
		})
	}
	_ = g.Wait() // hydeForSubQuery never returns an error; failures degrade to empty hits

	var (
		allHits       []domain.RouteHit
		hydeLog       []string
		maxGeneration time.Duration
		maxRetrieval  time.Duration
	)
	for _, r := range results {
		allHits = append(allHits, r.hits...)
		hydeLog = append(hydeLog, r.passages...)
		if r.generation > maxGeneration {
			maxGeneration = r.generation
		}
		if r.retrieval > maxRetrieval {
			maxRetrieval = r.retrieval
		}
	}

	outcome := routeOutcome{
		route: domain.RouteHyde,
		hits:  allHits,
		timing: RouteTiming{
			Total:      time.Since(start),
			Generation: maxGeneration,
			Retrieval:  maxRetrieval,
		},
	}
	return outcome, hydeLog
}

func hydeForSubQuery(ctx context.Context, hydeGen *query.HydeGenerator, embedModel llm.EmbeddingModel, commentStore vectorstore.CommentStore, queryIdx int, sq domain.SubQuery, filter string, topK int) hydeSubQueryResult {
	genStart := time.Now()
	passages := hydeGen.Generate(ctx, sq.Text)
	generation := time.Since(genStart)

	retStart := time.Now()
	vectors, _, err := embedOnce(ctx, embedModel, passages)
	if err != nil {
		return hydeSubQueryResult{generation: generation, retrieval: time.Since(retStart), passages: passages}
	}

	hits, err := fanOutIndexed(ctx, vectors, func(ctx context.Context, hydeIdx int, vec []float32) ([]domain.RouteHit, error) {
		commentHits, err := commentStore.Query(ctx, vec, topK, filter)
		if err != nil {
			return nil, err
		}
		out := make([]domain.RouteHit, 0, len(commentHits))
		for rank, h := range commentHits {
			out = append(out, domain.RouteHit{
				CommentID: h.CommentID,
				Route:     domain.RouteHyde,
				Rank:      rank + 1,
				QueryIdx:  queryIdx,
				HydeIdx:   hydeIdx,
				HasHyde:   true,
			})
		}
		return out, nil
	})
	retrieval := time.Since(retStart)
	if err != nil {
		hits = nil
	}

	return hydeSubQueryResult{
		hits:       dedupeHydeHits(hits),
		generation: generation,
		retrieval:  retrieval,
		passages:   passages,
	}
}

// dedupeHydeHits keeps, for each comment recalled by multiple hypotheses of
// the same sub-query, only the hit with the best (lowest) rank, preventing
// one sub-query from dominating RRF by multiplying its votes (spec.md
// §4.3.4).
func dedupeHydeHits(hits []domain.RouteHit) []domain.RouteHit {
	best := make(map[string]domain.RouteHit, len(hits))
	for _, h := range hits {
		existing, ok := best[h.CommentID]
		if !ok || h.Rank < existing.Rank {
			best[h.CommentID] = h
		}
	}

	deduped := make([]domain.RouteHit, 0, len(best))
	for _, h := range best {
		deduped = append(deduped, h)
	}
	sort.Slice(deduped, func(i, j int) bool {
		return deduped[i].CommentID < deduped[j].CommentID
	})
	return deduped
}
