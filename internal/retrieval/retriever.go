package retrieval

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hotelrag/concierge/internal/apperr"
	"github.com/hotelrag/concierge/internal/bm25"
	"github.com/hotelrag/concierge/internal/domain"
	"github.com/hotelrag/concierge/internal/llm"
	"github.com/hotelrag/concierge/internal/query"
	"github.com/hotelrag/concierge/internal/vectorstore"
)

// Retriever is the hybrid retriever from spec.md §4.3: it fans out to up
// to five retrieval routes, fuses four of them with weighted RRF, and
// passes the fifth (summaries) straight through.
//
// Grounded on Tangerg-lynx's ai/rag Pipeline.retrieveByQueries, which
// fans a document retriever out across queries with errgroup and merges
// under a mutex; this type fans out across routes instead of retrievers,
// since each route here has its own internal per-sub-query concurrency.
type Retriever struct {
	BM25Index      *bm25.Index
	EmbeddingModel llm.EmbeddingModel
	CommentStore   vectorstore.CommentStore
	ReverseStore   vectorstore.ReverseQueryStore
	SummaryStore   vectorstore.SummaryStore
	HydeGenerator  *query.HydeGenerator
	Reviews        *domain.Table
}

// Retrieve runs the configured routes for subQueries under constraints and
// returns fused candidates plus summaries, timing, and the HyDE text log.
func (r *Retriever) Retrieve(ctx context.Context, subQueries []domain.SubQuery, constraints domain.Constraints, cfg Config) (Result, error) {
	if !cfg.EnableBM25 && !cfg.EnableVector && !cfg.EnableReverse && !cfg.EnableHyde && !cfg.EnableSummary {
		return Result{}, apperr.New(apperr.KindInput, "retrieve", fmt.Errorf("at least one retrieval route must be enabled"))
	}

	filter := constraints.Filter()
	texts := make([]string, len(subQueries))
	for i, sq := range subQueries {
		texts[i] = sq.Text
	}

	var (
		vectors      [][]float32
		embedElapsed time.Duration
	)
	needsEmbedding := cfg.EnableVector || cfg.EnableReverse || cfg.EnableSummary
	if needsEmbedding {
		var err error
		vectors, embedElapsed, err = embedOnce(ctx, r.EmbeddingModel, texts)
		if err != nil {
			// Embedding failure disables every route that depends on it;
			// BM25 and HyDE (which embeds its own synthetic passages) are
			// unaffected.
			vectors = nil
			needsEmbedding = false
		}
	}

	var (
		mu        sync.Mutex
		hits      []domain.RouteHit
		timing    = make(map[domain.Route]RouteTiming)
		summaries []domain.CategorySummary
		summaryT  RouteTiming
		hydeLog   []string
	)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.EnableBM25 {
		g.Go(func() error {
			outcome := bm25Route(gctx, r.BM25Index, subQueries, cfg.PerRouteTopK)
			mu.Lock()
			hits = append(hits, outcome.hits...)
			timing[outcome.route] = outcome.timing
			mu.Unlock()
			return nil
		})
	}

	if cfg.EnableVector && needsEmbedding {
		g.Go(func() error {
			outcome := vectorRoute(gctx, r.CommentStore, vectors, filter, cfg.PerRouteTopK)
			outcome.timing.Total += embedElapsed
			mu.Lock()
			hits = append(hits, outcome.hits...)
			timing[outcome.route] = outcome.timing
			mu.Unlock()
			return nil
		})
	}

	if cfg.EnableReverse && needsEmbedding {
		g.Go(func() error {
			outcome := reverseRoute(gctx, r.ReverseStore, vectors, filter, cfg.PerRouteTopK)
			outcome.timing.Total += embedElapsed
			mu.Lock()
			hits = append(hits, outcome.hits...)
			timing[outcome.route] = outcome.timing
			mu.Unlock()
			return nil
		})
	}

	if cfg.EnableHyde {
		g.Go(func() error {
			outcome, log := hydeRoute(gctx, r.HydeGenerator, r.EmbeddingModel, r.CommentStore, subQueries, filter, cfg.PerRouteTopK)
			mu.Lock()
			hits = append(hits, outcome.hits...)
			timing[outcome.route] = outcome.timing
			hydeLog = append(hydeLog, log...)
			mu.Unlock()
			return nil
		})
	}

	if cfg.EnableSummary && needsEmbedding {
		g.Go(func() error {
			s, t := summaryRoute(gctx, r.SummaryStore, vectors)
			t.Total += embedElapsed
			mu.Lock()
			summaries = s
			summaryT = t
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait() // every route goroutine above always returns nil

	weights := make([]float64, len(subQueries))
	for i, sq := range subQueries {
		weights[i] = sq.Weight
	}

	candidates := fuse(hits, weights)
	if cfg.FinalTopK > 0 && len(candidates) > cfg.FinalTopK {
		candidates = candidates[:cfg.FinalTopK]
	}
	for i := range candidates {
		candidates[i].Review = r.Reviews.Get(candidates[i].CommentID)
		if candidates[i].Review != nil {
			candidates[i].Text = candidates[i].Review.Text
		}
	}

	return Result{
		Candidates:    candidates,
		Summaries:     summaries,
		Timing:        timing,
		SummaryTiming: summaryT,
		HydeLog:       hydeLog,
	}, nil
}
