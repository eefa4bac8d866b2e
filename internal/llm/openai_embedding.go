package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

var _ EmbeddingModel = (*OpenAIEmbeddingModel)(nil)

// OpenAIEmbeddingModel batch-embeds text via the OpenAI embeddings
// endpoint, adapted from Tangerg-lynx ai/extensions/models/openai's
// EmbeddingModel to the fixed-1024-dimension contract of spec.md §4.3.
type OpenAIEmbeddingModel struct {
	client     *openai.Client
	model      string
	dimensions int
}

// NewOpenAIEmbeddingModel builds an embedding model bound to apiKey, model
// name, and output dimension (1024 per spec.md §4.3).
func NewOpenAIEmbeddingModel(apiKey, model string, dimensions int, opts ...option.RequestOption) *OpenAIEmbeddingModel {
	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := openai.NewClient(reqOpts...)
	return &OpenAIEmbeddingModel{client: &client, model: model, dimensions: dimensions}
}

func (m *OpenAIEmbeddingModel) Dimensions() int { return m.dimensions }

func (m *OpenAIEmbeddingModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	params := openai.EmbeddingNewParams{
		Model: m.model,
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Dimensions: openai.Int(int64(m.dimensions)),
	}

	resp, err := m.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("llm: embed batch: %w", err)
	}

	vectors := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		vectors[d.Index] = vec
	}
	return vectors, nil
}
