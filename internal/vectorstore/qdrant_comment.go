package vectorstore

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

var _ CommentStore = (*QdrantCommentStore)(nil)

// QdrantCommentStore queries a Qdrant collection indexing review text
// directly, adapted from Tangerg-lynx's ai/providers/vectorstores/qdrant
// VectorStore.buildQueryPoints. Unlike the reference adapter, the query
// vector is supplied pre-computed (the hybrid retriever batch-embeds all
// sub-queries once, per spec.md §4.3) rather than embedded inside this
// call.
type QdrantCommentStore struct {
	client         *qdrant.Client
	collectionName string
}

// NewQdrantCommentStore builds a CommentStore bound to collectionName.
func NewQdrantCommentStore(client *qdrant.Client, collectionName string) *QdrantCommentStore {
	return &QdrantCommentStore{client: client, collectionName: collectionName}
}

func (s *QdrantCommentStore) Query(ctx context.Context, vector []float32, topK int, filter string) ([]CommentHit, error) {
	qp := &qdrant.QueryPoints{
		CollectionName: s.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(false),
	}

	if filter != "" {
		f, err := parseEqualityFilter(filter)
		if err != nil {
			return nil, fmt.Errorf("vectorstore: comment filter: %w", err)
		}
		qp.Filter = f
	}

	points, err := s.client.Query(ctx, qp)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: comment query: %w", err)
	}

	hits := make([]CommentHit, 0, len(points))
	for _, p := range points {
		hits = append(hits, CommentHit{
			CommentID: p.Id.GetUuid(),
			Score:     float64(p.Score),
		})
	}
	return hits, nil
}
