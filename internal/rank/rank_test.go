package rank

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotelrag/concierge/internal/domain"
)

type fakeReranker struct {
	scores map[int]float64
	err    error
}

func (f *fakeReranker) Rerank(_ context.Context, _ string, _ []string, _ int) (map[int]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.scores, nil
}

func review(id string, quality float64, reviewCount, usefulCount int, publishDate time.Time) domain.Candidate {
	return domain.Candidate{
		CommentID: id,
		Text:      "房间干净，位置不错",
		Review: &domain.Review{
			CommentID:    id,
			Text:         "房间干净，位置不错",
			QualityScore: quality,
			ReviewCount:  reviewCount,
			UsefulCount:  usefulCount,
			PublishDate:  publishDate,
		},
	}
}

func TestRank_EmptyInputReturnsEmptyNotError(t *testing.T) {
	r := New(&fakeReranker{})
	ranked, timing, err := r.Rank(context.Background(), "q", nil, domain.TimeSensitivityNone, time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, ranked)
	assert.Zero(t, timing.Total)
}

func TestRank_OrdersByFinalScoreDescending(t *testing.T) {
	today := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	candidates := []domain.Candidate{
		review("c1", 9, 10, 5, today.AddDate(0, 0, -5)),
		review("c2", 2, 1, 0, today.AddDate(0, 0, -400)),
	}
	r := New(&fakeReranker{scores: map[int]float64{0: 0.9, 1: 0.1}})

	ranked, timing, err := r.Rank(context.Background(), "q", candidates, domain.TimeSensitivityNone, today, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "c1", ranked[0].CommentID)
	assert.Equal(t, 1, ranked[0].FinalRank)
	assert.Greater(t, timing.Total, time.Duration(0))
}

func TestRank_MissingRerankIndexDefaultsToZero(t *testing.T) {
	candidates := []domain.Candidate{review("c1", 5, 0, 0, time.Time{})}
	r := New(&fakeReranker{scores: map[int]float64{}})

	ranked, _, err := r.Rank(context.Background(), "q", candidates, domain.TimeSensitivityNone, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, 0.0, ranked[0].RerankScore)
	assert.Equal(t, 0.0, ranked[0].FeatureScores.Relevance)
}

func TestRank_TiesBrokenByRerankScoreThenCommentID(t *testing.T) {
	today := time.Now()
	candidates := []domain.Candidate{
		review("b", 5, 0, 0, today),
		review("a", 5, 0, 0, today),
	}
	// Identical quality/length/review/useful/recency inputs and identical
	// rerank scores force a final-score tie, exercising the comment_id
	// tiebreak.
	r := New(&fakeReranker{scores: map[int]float64{0: 0.5, 1: 0.5}})

	ranked, _, err := r.Rank(context.Background(), "q", candidates, domain.TimeSensitivityNone, today, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "a", ranked[0].CommentID)
	assert.Equal(t, "b", ranked[1].CommentID)
}

func TestRank_RerankRankIndependentOfFinalSort(t *testing.T) {
	today := time.Now()
	candidates := []domain.Candidate{
		review("low-relevance-high-quality", 10, 100, 100, today),
		review("high-relevance-low-quality", 0, 0, 0, today.AddDate(-2, 0, 0)),
	}
	r := New(&fakeReranker{scores: map[int]float64{0: 0.1, 1: 0.9}})

	ranked, _, err := r.Rank(context.Background(), "q", candidates, domain.TimeSensitivityNone, today, 10)
	require.NoError(t, err)

	byID := make(map[string]domain.RankedCandidate)
	for _, c := range ranked {
		byID[c.CommentID] = c
	}
	assert.Equal(t, 1, byID["high-relevance-low-quality"].RerankRank)
	assert.Equal(t, 2, byID["low-relevance-high-quality"].RerankRank)
}

func TestRank_TimeSensitivityIncreasesDecayForOlderReviews(t *testing.T) {
	today := time.Now()
	old := review("old", 5, 0, 0, today.AddDate(-1, 0, 0))
	r := New(&fakeReranker{scores: map[int]float64{0: 0.5}})

	noneRanked, _, err := r.Rank(context.Background(), "q", []domain.Candidate{old}, domain.TimeSensitivityNone, today, 10)
	require.NoError(t, err)
	clearRanked, _, err := r.Rank(context.Background(), "q", []domain.Candidate{old}, domain.TimeSensitivityClear, today, 10)
	require.NoError(t, err)

	assert.Greater(t, noneRanked[0].FeatureScores.Recency, clearRanked[0].FeatureScores.Recency)
}

func TestRank_TruncatesToTopK(t *testing.T) {
	today := time.Now()
	candidates := []domain.Candidate{
		review("c1", 5, 0, 0, today),
		review("c2", 5, 0, 0, today),
		review("c3", 5, 0, 0, today),
	}
	r := New(&fakeReranker{scores: map[int]float64{0: 0.9, 1: 0.5, 2: 0.1}})

	ranked, _, err := r.Rank(context.Background(), "q", candidates, domain.TimeSensitivityNone, today, 2)
	require.NoError(t, err)
	assert.Len(t, ranked, 2)
}

func TestRank_RerankErrorPropagates(t *testing.T) {
	r := New(&fakeReranker{err: errors.New("rerank service down")})
	_, _, err := r.Rank(context.Background(), "q", []domain.Candidate{review("c1", 5, 0, 0, time.Now())}, domain.TimeSensitivityNone, time.Now(), 10)
	require.Error(t, err)
}
