package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotelrag/concierge/internal/domain"
	"github.com/hotelrag/concierge/internal/vectorstore"
)

func TestReverseRoute_UsesStoreResolvedCommentID(t *testing.T) {
	store := &fakeReverseStore{byVec: map[float32][]vectorstore.ReverseHit{
		1: {{CommentID: "c9", Score: 0.9}},
	}}
	outcome := reverseRoute(context.Background(), store, [][]float32{{1}}, "", 5)
	require.Equal(t, domain.RouteReverse, outcome.route)
	require.Len(t, outcome.hits, 1)
	assert.Equal(t, "c9", outcome.hits[0].CommentID)
	assert.Equal(t, 1, outcome.hits[0].Rank)
}
