package vectorstore

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

var _ ReverseQueryStore = (*QdrantReverseQueryStore)(nil)

// reverseCommentIDField is the payload key each reverse-query point stores
// the comment it was synthesized from under (spec.md §4.3 route 3).
const reverseCommentIDField = "comment_id"

// QdrantReverseQueryStore queries a Qdrant collection of synthetic queries
// generated offline for each comment, then maps every hit back to its
// source comment via the stored comment_id payload field.
type QdrantReverseQueryStore struct {
	client         *qdrant.Client
	collectionName string
}

// NewQdrantReverseQueryStore builds a ReverseQueryStore bound to collectionName.
func NewQdrantReverseQueryStore(client *qdrant.Client, collectionName string) *QdrantReverseQueryStore {
	return &QdrantReverseQueryStore{client: client, collectionName: collectionName}
}

func (s *QdrantReverseQueryStore) Query(ctx context.Context, vector []float32, topK int, filter string) ([]ReverseHit, error) {
	qp := &qdrant.QueryPoints{
		CollectionName: s.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	}

	if filter != "" {
		f, err := parseEqualityFilter(filter)
		if err != nil {
			return nil, fmt.Errorf("vectorstore: reverse filter: %w", err)
		}
		qp.Filter = f
	}

	points, err := s.client.Query(ctx, qp)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: reverse query: %w", err)
	}

	hits := make([]ReverseHit, 0, len(points))
	for _, p := range points {
		commentID := payloadString(p.Payload, reverseCommentIDField)
		if commentID == "" {
			continue
		}
		hits = append(hits, ReverseHit{CommentID: commentID, Score: float64(p.Score)})
	}
	return hits, nil
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	return v.GetStringValue()
}
