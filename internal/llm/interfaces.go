// Package llm defines the abstract LLM/embedding/rerank contracts the
// pipeline consumes (spec.md §6 "External services consumed") and an
// OpenAI-backed implementation of each.
package llm

import "context"

// GenerateRequest is a one-shot or streaming completion request.
type GenerateRequest struct {
	Prompt      string
	Temperature float64
	JSON        bool // request structured JSON output
}

// ChatModel is LLM.generate from spec.md §6, in both call shapes.
type ChatModel interface {
	// Generate blocks until the full completion is available.
	Generate(ctx context.Context, req GenerateRequest) (string, error)

	// Stream returns a channel of incremental text chunks. The channel is
	// closed when generation ends; a send on errc (buffered, capacity 1)
	// reports a terminal error, if any.
	Stream(ctx context.Context, req GenerateRequest) (chunks <-chan string, errc <-chan error)
}

// EmbeddingModel is Embedding.embed_batch from spec.md §6. Every vector has
// the fixed dimension (1024 per spec.md §4.3).
type EmbeddingModel interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Reranker is Rerank from spec.md §6: scores (query, doc) pairs jointly and
// returns relevance in [0,1] keyed by the input doc's index. Indices the
// service does not return are treated as relevance 0 by the caller.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []string, topN int) (map[int]float64, error)
}
