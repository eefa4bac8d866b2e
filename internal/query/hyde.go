package query

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hotelrag/concierge/internal/llm"
	"github.com/hotelrag/concierge/pkg/text"
)

const hydePromptTemplate = `Write three short hypothetical hotel review snippets that would be
highly relevant to the search query below: two positive in tone, one
negative. Each snippet must be 50 to 100 characters and read like a real
guest review, not a summary of the query.

Query: {{.Query}}

Respond with a single JSON object: {"passages": ["...", "...", "..."]}.
Respond with JSON only.`

type hydeOutput struct {
	Passages []string `json:"passages"`
}

// HydeGenerator produces synthetic review passages for hypothetical-document
// embedding retrieval (spec.md §4.2, §4.3 route 4). On failure it falls
// back to a single-element slice containing the original sub-query text,
// degrading the HyDE route to a plain vector search.
type HydeGenerator struct {
	chatModel llm.ChatModel
	log       *slog.Logger
}

// NewHydeGenerator builds a HydeGenerator backed by chatModel.
func NewHydeGenerator(chatModel llm.ChatModel, log *slog.Logger) *HydeGenerator {
	if log == nil {
		log = slog.Default()
	}
	return &HydeGenerator{chatModel: chatModel, log: log}
}

// Generate returns up to three synthetic review passages for subQueryText,
// or []string{subQueryText} on failure.
func (h *HydeGenerator) Generate(ctx context.Context, subQueryText string) []string {
	passages, err := withRetry(ctx, h.log, "hyde_generate", func(ctx context.Context) ([]string, error) {
		prompt, err := text.NewRenderer().
			WithTemplate(hydePromptTemplate).
			WithVariable("Query", subQueryText).
			Render()
		if err != nil {
			return nil, fmt.Errorf("query: render hyde prompt: %w", err)
		}

		raw, err := h.chatModel.Generate(ctx, llm.GenerateRequest{Prompt: prompt, Temperature: 0.7, JSON: true})
		if err != nil {
			return nil, fmt.Errorf("query: hyde generate: %w", err)
		}

		var out hydeOutput
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, fmt.Errorf("query: decode hyde output: %w", err)
		}

		if len(out.Passages) == 0 {
			return nil, fmt.Errorf("query: hyde produced no passages")
		}

		if len(out.Passages) > 3 {
			out.Passages = out.Passages[:3]
		}

		return out.Passages, nil
	})
	if err != nil {
		return []string{subQueryText}
	}
	return passages
}
