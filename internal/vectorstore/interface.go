// Package vectorstore defines the three dense-retrieval backends the
// hybrid retriever fans out to (spec.md §6) and adapts two real client
// libraries from the reference corpus to them.
package vectorstore

import "context"

// CommentHit is one result from the comment vector store.
type CommentHit struct {
	CommentID string
	Score     float64
}

// CommentStore is CommentVectorStore.query from spec.md §6: indexes review
// text directly.
type CommentStore interface {
	Query(ctx context.Context, vector []float32, topK int, filter string) ([]CommentHit, error)
}

// ReverseHit is one result from the reverse-query vector store; CommentID
// is read back from the stored comment_id field on the matched point
// (spec.md §4.3 route 3).
type ReverseHit struct {
	CommentID string
	Score     float64
}

// ReverseQueryStore is ReverseQueryVectorStore.query from spec.md §6: indexes
// synthetic queries previously generated for each comment.
type ReverseQueryStore interface {
	Query(ctx context.Context, vector []float32, topK int, filter string) ([]ReverseHit, error)
}

// SummaryQueryResult mirrors the {ids, documents, metadatas} shape of
// SummaryVectorStore.query from spec.md §6.
type SummaryQueryResult struct {
	IDs       []string
	Documents []string
	Metadatas []map[string]any
}

// SummaryStore is SummaryVectorStore.query from spec.md §6: queried with
// n_results=1 per sub-query embedding, never fused with comment candidates.
type SummaryStore interface {
	Query(ctx context.Context, embeddings [][]float32, nResults int) (SummaryQueryResult, error)
}
