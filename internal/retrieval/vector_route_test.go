package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotelrag/concierge/internal/domain"
	"github.com/hotelrag/concierge/internal/vectorstore"
)

func TestVectorRoute_QueriesOncePerEmbedding(t *testing.T) {
	store := &fakeCommentStore{byVec: map[float32][]vectorstore.CommentHit{
		1: hitsFor("c1", "c2"),
		2: hitsFor("c3"),
	}}
	vectors := [][]float32{{1}, {2}}

	outcome := vectorRoute(context.Background(), store, vectors, "", 10)
	require.Equal(t, domain.RouteVector, outcome.route)
	require.Len(t, outcome.hits, 3)

	byQuery := map[int][]string{}
	for _, h := range outcome.hits {
		byQuery[h.QueryIdx] = append(byQuery[h.QueryIdx], h.CommentID)
	}
	assert.ElementsMatch(t, []string{"c1", "c2"}, byQuery[0])
	assert.ElementsMatch(t, []string{"c3"}, byQuery[1])
}

func TestVectorRoute_StoreErrorDegradesToEmptyHits(t *testing.T) {
	store := &fakeCommentStore{err: errors.New("store down")}
	outcome := vectorRoute(context.Background(), store, [][]float32{{1}}, "", 10)
	assert.Empty(t, outcome.hits)
}

func TestVectorRoute_NoVectorsReturnsEmpty(t *testing.T) {
	store := &fakeCommentStore{}
	outcome := vectorRoute(context.Background(), store, nil, "", 10)
	assert.Empty(t, outcome.hits)
}
