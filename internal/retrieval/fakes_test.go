package retrieval

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hotelrag/concierge/internal/llm"
	"github.com/hotelrag/concierge/internal/vectorstore"
)

func discardTestLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fakeEmbeddingModel maps each text deterministically to a 1-dimensional
// vector derived from its position, so tests can trace which sub-query or
// HyDE passage produced which hit without asserting on real embeddings.
type fakeEmbeddingModel struct {
	failOn map[string]bool
	dim    int
}

func (f *fakeEmbeddingModel) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if f.failOn[t] {
			return nil, errors.New("fakeEmbeddingModel: forced failure")
		}
		dim := f.dim
		if dim == 0 {
			dim = 1
		}
		vec := make([]float32, dim)
		vec[0] = float32(i + 1)
		out[i] = vec
	}
	return out, nil
}

func (f *fakeEmbeddingModel) Dimensions() int {
	if f.dim == 0 {
		return 1
	}
	return f.dim
}

var _ llm.EmbeddingModel = (*fakeEmbeddingModel)(nil)

// fakeCommentStore returns, for a given query vector, a fixed ordered hit
// list keyed by the vector's first component (so each sub-query/hypothesis
// embedding can be routed to distinct canned results).
type fakeCommentStore struct {
	byVec map[float32][]vectorstore.CommentHit
	err   error
}

func (f *fakeCommentStore) Query(_ context.Context, vector []float32, topK int, _ string) ([]vectorstore.CommentHit, error) {
	if f.err != nil {
		return nil, f.err
	}
	hits := f.byVec[vector[0]]
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

var _ vectorstore.CommentStore = (*fakeCommentStore)(nil)

type fakeReverseStore struct {
	byVec map[float32][]vectorstore.ReverseHit
}

func (f *fakeReverseStore) Query(_ context.Context, vector []float32, topK int, _ string) ([]vectorstore.ReverseHit, error) {
	hits := f.byVec[vector[0]]
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

var _ vectorstore.ReverseQueryStore = (*fakeReverseStore)(nil)

type fakeSummaryStore struct {
	byVec map[float32]vectorstore.SummaryQueryResult
}

func (f *fakeSummaryStore) Query(_ context.Context, embeddings [][]float32, nResults int) (vectorstore.SummaryQueryResult, error) {
	if len(embeddings) != 1 {
		return vectorstore.SummaryQueryResult{}, errors.New("fakeSummaryStore: expected a single embedding per call")
	}
	res := f.byVec[embeddings[0][0]]
	if nResults > 0 && len(res.IDs) > nResults {
		res.IDs = res.IDs[:nResults]
		res.Documents = res.Documents[:nResults]
		res.Metadatas = res.Metadatas[:nResults]
	}
	return res, nil
}

var _ vectorstore.SummaryStore = (*fakeSummaryStore)(nil)

// fakeChatModel drives HydeGenerator in retriever-level tests: each call
// returns a canned JSON passages payload keyed by the prompt's call index.
type fakeChatModel struct {
	responses []string
	calls     int
}

func (f *fakeChatModel) Generate(_ context.Context, _ llm.GenerateRequest) (string, error) {
	i := f.calls
	f.calls++
	if i >= len(f.responses) {
		return "", errors.New("fakeChatModel: no more responses queued")
	}
	return f.responses[i], nil
}

func (f *fakeChatModel) Stream(_ context.Context, _ llm.GenerateRequest) (<-chan string, <-chan error) {
	panic("fakeChatModel: Stream not used by retrieval tests")
}

var _ llm.ChatModel = (*fakeChatModel)(nil)

func hitsFor(ids ...string) []vectorstore.CommentHit {
	out := make([]vectorstore.CommentHit, len(ids))
	for i, id := range ids {
		out[i] = vectorstore.CommentHit{CommentID: id, Score: 1.0 / float64(i+1)}
	}
	return out
}
