package retrieval

import (
	"sort"

	"github.com/hotelrag/concierge/internal/domain"
)

// rrfK is the reciprocal-rank-fusion rank offset (spec.md §4.3).
const rrfK = 60.0

// fuse applies weighted RRF across every route hit and returns candidates
// sorted by rrf_score descending, ties broken by comment_id ascending, with
// ranks assigned 1..N. Each candidate's RouteRanks records every hit that
// contributed to it, grouped by route.
func fuse(hits []domain.RouteHit, subQueryWeights []float64) []domain.Candidate {
	scores := make(map[string]float64)
	routeRanks := make(map[string]map[domain.Route][]domain.RouteHit, len(hits))

	for _, hit := range hits {
		weight := 1.0
		if hit.QueryIdx >= 0 && hit.QueryIdx < len(subQueryWeights) {
			weight = subQueryWeights[hit.QueryIdx]
		}
		scores[hit.CommentID] += weight * (1.0 / (rrfK + float64(hit.Rank)))

		if routeRanks[hit.CommentID] == nil {
			routeRanks[hit.CommentID] = make(map[domain.Route][]domain.RouteHit)
		}
		routeRanks[hit.CommentID][hit.Route] = append(routeRanks[hit.CommentID][hit.Route], hit)
	}

	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})

	candidates := make([]domain.Candidate, 0, len(ids))
	for rank, id := range ids {
		candidates = append(candidates, domain.Candidate{
			CommentID:  id,
			RRFScore:   scores[id],
			RRFRank:    rank + 1,
			RouteRanks: routeRanks[id],
		})
	}
	return candidates
}
