// Package rank implements the multi-factor ranker from spec.md §4.4: a
// cross-encoder relevance score blended with quality, length, review
// count, useful count, and a time-sensitivity-aware recency decay.
package rank

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/hotelrag/concierge/internal/domain"
	"github.com/hotelrag/concierge/internal/llm"
)

const (
	lengthNormalizer = 7.51
	reviewNormalizer = 6.32
	usefulNormalizer = 3.64
)

// Weights controls how the feature vector combines into a final score.
// Weights are not required to sum to 1 (spec.md §4.4).
type Weights struct {
	Relevance float64
	Quality   float64
	Length    float64
	Review    float64
	Useful    float64
	Recency   float64
}

// DefaultWeights returns spec.md §4.4's default weighting.
func DefaultWeights() Weights {
	return Weights{Relevance: 0.40, Quality: 0.25, Length: 0.05, Review: 0.05, Useful: 0.05, Recency: 0.20}
}

// DecayConfig controls the time-sensitivity-aware recency half-life.
type DecayConfig struct {
	BaseDecay    float64
	ImpliedBoost float64
	ClearBoost   float64
	HalfLifeDays float64
}

// DefaultDecayConfig returns spec.md §4.4's default decay parameters.
func DefaultDecayConfig() DecayConfig {
	return DecayConfig{BaseDecay: 0.5, ImpliedBoost: 0.5, ClearBoost: 0.5, HalfLifeDays: 180}
}

// decay returns the effective decay rate for a time sensitivity level:
// 0.5 for none, 1.0 for implied, 1.5 for clear (spec.md §4.4).
func (d DecayConfig) decay(ts domain.TimeSensitivity) float64 {
	decay := d.BaseDecay
	switch ts {
	case domain.TimeSensitivityImplied:
		decay += d.ImpliedBoost
	case domain.TimeSensitivityClear:
		decay += d.ImpliedBoost + d.ClearBoost
	}
	return decay
}

// Timing reports the ranker's elapsed time, split out so the rerank call
// (the only external I/O in this stage) is separately observable.
type Timing struct {
	Total  time.Duration
	Rerank time.Duration
}

// Ranker scores and orders hybrid-retriever candidates.
type Ranker struct {
	Reranker llm.Reranker
	Weights  Weights
	Decay    DecayConfig
}

// New builds a Ranker with the given reranker and default weights/decay.
func New(reranker llm.Reranker) *Ranker {
	return &Ranker{Reranker: reranker, Weights: DefaultWeights(), Decay: DefaultDecayConfig()}
}

// Rank scores candidates against query, orders them, and truncates to
// topK. An empty candidate list returns an empty result with zeroed
// timings, not an error (spec.md §4.4 "Empty input").
func (r *Ranker) Rank(ctx context.Context, query string, candidates []domain.Candidate, ts domain.TimeSensitivity, today time.Time, topK int) ([]domain.RankedCandidate, Timing, error) {
	start := time.Now()
	if len(candidates) == 0 {
		return nil, Timing{}, nil
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
	}

	rerankStart := time.Now()
	relevance, err := r.Reranker.Rerank(ctx, query, texts, len(texts))
	rerankElapsed := time.Since(rerankStart)
	if err != nil {
		return nil, Timing{}, fmt.Errorf("rank: rerank: %w", err)
	}

	decay := r.Decay.decay(ts)
	ranked := make([]domain.RankedCandidate, len(candidates))
	for i, c := range candidates {
		rel := relevance[i] // missing indices default to 0 (spec.md §4.4)
		features := r.features(c, rel, decay, today)
		final := r.Weights.Relevance*features.Relevance +
			r.Weights.Quality*features.Quality +
			r.Weights.Length*features.Length +
			r.Weights.Review*features.Review +
			r.Weights.Useful*features.Useful +
			r.Weights.Recency*features.Recency

		ranked[i] = domain.RankedCandidate{
			Candidate:     c,
			RerankScore:   rel,
			FeatureScores: features,
			FinalScore:    final,
		}
	}

	assignRerankRanks(ranked)
	sortByFinalScore(ranked)
	for i := range ranked {
		ranked[i].FinalRank = i + 1
	}

	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}

	return ranked, Timing{Total: time.Since(start), Rerank: rerankElapsed}, nil
}

// features builds the normalized [0,1] feature vector for one candidate
// (spec.md §4.4's feature table).
func (r *Ranker) features(c domain.Candidate, relevance, decay float64, today time.Time) domain.FeatureScores {
	var quality, reviewCount, usefulCount float64
	var publishDate time.Time
	if c.Review != nil {
		quality = c.Review.QualityScore
		reviewCount = float64(c.Review.ReviewCount)
		usefulCount = float64(c.Review.UsefulCount)
		publishDate = c.Review.PublishDate
	}

	daysAgo := 0.0
	if !publishDate.IsZero() {
		d := today.Sub(publishDate).Hours() / 24
		if d > 0 {
			daysAgo = math.Floor(d)
		}
	}

	return domain.FeatureScores{
		Relevance: relevance,
		Quality:   quality / 10,
		Length:    math.Log(float64(utf8.RuneCountInString(c.Text))+1) / lengthNormalizer,
		Review:    math.Log(reviewCount+1) / reviewNormalizer,
		Useful:    math.Log(usefulCount+1) / usefulNormalizer,
		Recency:   math.Exp(-decay * daysAgo / r.Decay.HalfLifeDays),
	}
}

// assignRerankRanks computes rerank_rank over the full candidate list,
// independent of the eventual final-score sort (spec.md §4.4 "Sort").
func assignRerankRanks(ranked []domain.RankedCandidate) {
	order := make([]int, len(ranked))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := ranked[order[i]], ranked[order[j]]
		if a.RerankScore != b.RerankScore {
			return a.RerankScore > b.RerankScore
		}
		return a.CommentID < b.CommentID
	})
	for rank, idx := range order {
		ranked[idx].RerankRank = rank + 1
	}
}

// sortByFinalScore orders ranked descending by final score, ties broken
// by rerank score descending, then comment_id ascending (spec.md §4.4).
func sortByFinalScore(ranked []domain.RankedCandidate) {
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].FinalScore != ranked[j].FinalScore {
			return ranked[i].FinalScore > ranked[j].FinalScore
		}
		if ranked[i].RerankScore != ranked[j].RerankScore {
			return ranked[i].RerankScore > ranked[j].RerankScore
		}
		return ranked[i].CommentID < ranked[j].CommentID
	})
}
