package retrieval

import (
	"context"
	"time"

	"github.com/hotelrag/concierge/internal/domain"
	"github.com/hotelrag/concierge/internal/vectorstore"
)

const summaryCategoryField = "category"
const summaryKeywordsField = "keywords"
const summaryCountField = "comment_count"

// summaryRoute queries the summary store with n=1 per sub-query embedding
// and merges hits by category; it never feeds RRF (spec.md §4.3 route 5).
func summaryRoute(ctx context.Context, store vectorstore.SummaryStore, vectors [][]float32) ([]domain.CategorySummary, RouteTiming) {
	start := time.Now()

	byCategory := make(map[string]*domain.CategorySummary)
	order := make([]string, 0)

	for idx, vec := range vectors {
		result, err := store.Query(ctx, [][]float32{vec}, 1)
		if err != nil {
			continue
		}
		for i, id := range result.IDs {
			category := id
			var keywords []string
			commentCount := 0
			if i < len(result.Metadatas) && result.Metadatas[i] != nil {
				if c, ok := result.Metadatas[i][summaryCategoryField].(string); ok && c != "" {
					category = c
				}
				if kw, ok := result.Metadatas[i][summaryKeywordsField].([]string); ok {
					keywords = kw
				}
				commentCount = intFromAny(result.Metadatas[i][summaryCountField])
			}

			existing, ok := byCategory[category]
			if !ok {
				var text string
				if i < len(result.Documents) {
					text = result.Documents[i]
				}
				existing = &domain.CategorySummary{
					Category:     category,
					Keywords:     keywords,
					SummaryText:  text,
					CommentCount: commentCount,
				}
				byCategory[category] = existing
				order = append(order, category)
			}
			existing.RetrievedByQueries = append(existing.RetrievedByQueries, idx)
		}
	}

	summaries := make([]domain.CategorySummary, 0, len(order))
	for _, category := range order {
		summaries = append(summaries, *byCategory[category])
	}

	return summaries, RouteTiming{Total: time.Since(start)}
}

func intFromAny(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
