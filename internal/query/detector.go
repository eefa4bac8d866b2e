package query

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hotelrag/concierge/internal/domain"
	"github.com/hotelrag/concierge/internal/llm"
	"github.com/hotelrag/concierge/pkg/text"
)

const detectorPromptTemplate = `Extract hotel-room constraints mentioned in the guest's message, if any.

Message: {{.Query}}

Respond with a single JSON object with exactly these keys:
  "room_type": one of {{.ExactRoomTypes}} or null
  "fuzzy_room_type": one of {{.FuzzyRoomTypes}} or null
  "time_sensitivity": one of "clear", "implied" or null

Use null for anything not clearly stated. Respond with JSON only.`

type detectorOutput struct {
	RoomType        *string `json:"room_type"`
	FuzzyRoomType   *string `json:"fuzzy_room_type"`
	TimeSensitivity *string `json:"time_sensitivity"`
}

// Detector extracts room-type and recency constraints from a query via a
// JSON-output LLM call, coercing anything outside the closed sets to null
// rather than failing (spec.md §4.2).
type Detector struct {
	chatModel llm.ChatModel
	log       *slog.Logger
}

// NewDetector builds a Detector backed by chatModel.
func NewDetector(chatModel llm.ChatModel, log *slog.Logger) *Detector {
	if log == nil {
		log = slog.Default()
	}
	return &Detector{chatModel: chatModel, log: log}
}

// Detect returns extracted constraints, or all-null on failure after retry.
// Detect never returns an error: it is always best-effort.
func (d *Detector) Detect(ctx context.Context, userQuery string) domain.Constraints {
	constraints, err := withRetry(ctx, d.log, "intent_detect", func(ctx context.Context) (domain.Constraints, error) {
		prompt, err := text.NewRenderer().
			WithTemplate(detectorPromptTemplate).
			WithVariable("Query", userQuery).
			WithVariable("ExactRoomTypes", exactRoomTypeList()).
			WithVariable("FuzzyRoomTypes", fuzzyRoomTypeList()).
			Render()
		if err != nil {
			return domain.Constraints{}, fmt.Errorf("query: render detector prompt: %w", err)
		}

		raw, err := d.chatModel.Generate(ctx, llm.GenerateRequest{Prompt: prompt, Temperature: 0, JSON: true})
		if err != nil {
			return domain.Constraints{}, fmt.Errorf("query: detector generate: %w", err)
		}

		var out detectorOutput
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return domain.Constraints{}, fmt.Errorf("query: decode detector output: %w", err)
		}

		return validateDetectorOutput(out), nil
	})
	if err != nil {
		return domain.Constraints{}
	}
	return constraints
}

func validateDetectorOutput(out detectorOutput) domain.Constraints {
	var c domain.Constraints

	if out.RoomType != nil {
		rt := domain.RoomType(*out.RoomType)
		if domain.IsValidRoomType(rt) {
			c.RoomType = rt
		}
	}
	if out.FuzzyRoomType != nil {
		frt := domain.FuzzyRoomType(*out.FuzzyRoomType)
		if domain.IsValidFuzzyRoomType(frt) {
			c.FuzzyRoomType = frt
		}
	}
	if out.TimeSensitivity != nil {
		ts := domain.TimeSensitivity(*out.TimeSensitivity)
		if domain.IsValidTimeSensitivity(ts) {
			c.TimeSensitivity = ts
		}
	}

	return c.Resolve()
}

func exactRoomTypeList() []domain.RoomType {
	types := make([]domain.RoomType, 0, len(domain.ExactRoomTypes))
	for t := range domain.ExactRoomTypes {
		types = append(types, t)
	}
	return types
}

func fuzzyRoomTypeList() []domain.FuzzyRoomType {
	types := make([]domain.FuzzyRoomType, 0, len(domain.FuzzyRoomTypes))
	for t := range domain.FuzzyRoomTypes {
		types = append(types, t)
	}
	return types
}
