package query

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/hotelrag/concierge/internal/domain"
	"github.com/hotelrag/concierge/internal/llm"
	"github.com/hotelrag/concierge/pkg/text"
)

const expanderPromptTemplate = `You are an expert at hotel review retrieval. Decompose the guest's
message into 1 to 3 weighted sub-queries that together cover what they are
asking about. A specific, narrow message needs only one sub-query; a vague
or multi-topic message benefits from more.

Message: {{.Query}}

Respond with a single JSON object: {"sub_queries": [{"text": "...", "weight": 0.N}, ...]}.
Each weight must be one of 0.2, 0.4, 0.6, 0.8, 1.0, and all weights must
sum to exactly 1.0. Respond with JSON only.`

type expanderOutput struct {
	SubQueries []struct {
		Text   string  `json:"text"`
		Weight float64 `json:"weight"`
	} `json:"sub_queries"`
}

// Expander produces 1-3 weighted sub-queries from a user message via a
// JSON-output LLM call. On failure, or when the model's output violates
// the weight invariants, the caller should substitute the identity
// sub-query (spec.md §4.2); this package signals that by returning nil.
type Expander struct {
	chatModel llm.ChatModel
	log       *slog.Logger
}

// NewExpander builds an Expander backed by chatModel.
func NewExpander(chatModel llm.ChatModel, log *slog.Logger) *Expander {
	if log == nil {
		log = slog.Default()
	}
	return &Expander{chatModel: chatModel, log: log}
}

// Expand returns weighted sub-queries, or nil if expansion failed or
// produced an invalid set after the bounded retry.
func (e *Expander) Expand(ctx context.Context, userQuery string) []domain.SubQuery {
	subQueries, err := withRetry(ctx, e.log, "intent_expand", func(ctx context.Context) ([]domain.SubQuery, error) {
		prompt, err := text.NewRenderer().
			WithTemplate(expanderPromptTemplate).
			WithVariable("Query", userQuery).
			Render()
		if err != nil {
			return nil, fmt.Errorf("query: render expander prompt: %w", err)
		}

		raw, err := e.chatModel.Generate(ctx, llm.GenerateRequest{Prompt: prompt, Temperature: 0.3, JSON: true})
		if err != nil {
			return nil, fmt.Errorf("query: expander generate: %w", err)
		}

		var out expanderOutput
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, fmt.Errorf("query: decode expander output: %w", err)
		}

		subQueries := lo.FilterMap(out.SubQueries, func(sq struct {
			Text   string  `json:"text"`
			Weight float64 `json:"weight"`
		}, _ int) (domain.SubQuery, bool) {
			return domain.SubQuery{Text: sq.Text, Weight: sq.Weight}, sq.Text != ""
		})

		if !domain.ValidSubQueries(subQueries) {
			return nil, fmt.Errorf("query: expander produced invalid sub-queries: %+v", subQueries)
		}

		return subQueries, nil
	})
	if err != nil {
		return nil
	}
	return subQueries
}
