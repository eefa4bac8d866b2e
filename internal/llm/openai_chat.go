package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	syncutil "github.com/hotelrag/concierge/pkg/sync"
)

var _ ChatModel = (*OpenAIChatModel)(nil)

// OpenAIChatModel is a thin ChatModel adapter over the OpenAI chat
// completions API, adapted from the reference repo's openaiv2 provider
// (Tangerg-lynx ai/providers/openaiv2): a slim Api wrapper plus
// request/response translation, generalized here to the single
// generate/stream contract this system's query-understanding and
// generation stages need.
type OpenAIChatModel struct {
	client *openai.Client
	model  string
}

// NewOpenAIChatModel builds a chat model bound to apiKey and model name.
func NewOpenAIChatModel(apiKey, model string, opts ...option.RequestOption) *OpenAIChatModel {
	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := openai.NewClient(reqOpts...)
	return &OpenAIChatModel{client: &client, model: model}
}

func (m *OpenAIChatModel) buildParams(req GenerateRequest) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model: m.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		Temperature: openai.Float(req.Temperature),
	}
	if req.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}
	return params
}

func (m *OpenAIChatModel) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	params := m.buildParams(req)
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("llm: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm: chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (m *OpenAIChatModel) Stream(ctx context.Context, req GenerateRequest) (<-chan string, <-chan error) {
	chunks := make(chan string)
	errc := make(chan error, 1)

	params := m.buildParams(req)
	apiStream := m.client.Chat.Completions.NewStreaming(ctx, params)

	syncutil.Go(func() {
		defer close(chunks)
		defer apiStream.Close()

		for apiStream.Next() {
			chunk := apiStream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			content := chunk.Choices[0].Delta.Content
			if content == "" {
				continue
			}
			select {
			case chunks <- content:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
		if err := apiStream.Err(); err != nil {
			errc <- fmt.Errorf("llm: stream: %w", err)
		}
	}, func(err error) {
		errc <- fmt.Errorf("llm: stream: %w", err)
	})

	return chunks, errc
}
