package vectorstore

import (
	"context"
	"fmt"

	"github.com/liliang-cn/sqvect/v2/pkg/core"
)

var _ SummaryStore = (*SqvectSummaryStore)(nil)

// SqvectSummaryStore queries an embedded SQLite vector store holding one
// entry per review category summary (spec.md §4.3 route 5, §6
// SummaryVectorStore). Unlike the comment and reverse-query stores, a
// summary lookup runs once per sub-query embedding with n_results=1 and is
// never fused into the RRF ranking.
type SqvectSummaryStore struct {
	store      *core.SQLiteStore
	collection string
}

// NewSqvectSummaryStore builds a SummaryStore over an already-open sqvect
// SQLiteStore, scoped to the given collection name.
func NewSqvectSummaryStore(store *core.SQLiteStore, collection string) *SqvectSummaryStore {
	return &SqvectSummaryStore{store: store, collection: collection}
}

func (s *SqvectSummaryStore) Query(ctx context.Context, embeddings [][]float32, nResults int) (SummaryQueryResult, error) {
	result := SummaryQueryResult{
		IDs:       make([]string, 0, len(embeddings)),
		Documents: make([]string, 0, len(embeddings)),
		Metadatas: make([]map[string]any, 0, len(embeddings)),
	}

	for _, vec := range embeddings {
		scored, err := s.store.Search(ctx, vec, core.SearchOptions{
			Collection: s.collection,
			TopK:       nResults,
		})
		if err != nil {
			return SummaryQueryResult{}, fmt.Errorf("vectorstore: summary search: %w", err)
		}
		for _, e := range scored {
			result.IDs = append(result.IDs, e.ID)
			result.Documents = append(result.Documents, e.Content)
			result.Metadatas = append(result.Metadatas, metadataToAny(e.Metadata))
		}
	}

	return result, nil
}

func metadataToAny(md map[string]string) map[string]any {
	if md == nil {
		return nil
	}
	out := make(map[string]any, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}
