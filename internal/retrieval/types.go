// Package retrieval implements the five-route hybrid retriever from
// spec.md §4.3: BM25, vector, reverse-query, and HyDE routes feed weighted
// RRF fusion, while the summary route flows straight to the generator.
package retrieval

import (
	"time"

	"github.com/hotelrag/concierge/internal/domain"
)

// RouteTiming captures one route's elapsed time. HyDE additionally splits
// generation (synthetic passage authoring) from retrieval (vector search).
type RouteTiming struct {
	Total      time.Duration
	Generation time.Duration
	Retrieval  time.Duration
}

// Config bounds one retrieval call.
type Config struct {
	PerRouteTopK int
	FinalTopK    int

	EnableBM25    bool
	EnableVector  bool
	EnableReverse bool
	EnableHyde    bool
	EnableSummary bool
}

// Result is the hybrid retriever's output for one request.
type Result struct {
	Candidates    []domain.Candidate
	Summaries     []domain.CategorySummary
	Timing        map[domain.Route]RouteTiming
	SummaryTiming RouteTiming
	HydeLog       []string
}

// routeOutcome is the internal per-route product consumed by fusion: the
// RRF-eligible hits plus the timing to report regardless of success.
type routeOutcome struct {
	route  domain.Route
	hits   []domain.RouteHit
	timing RouteTiming
}
