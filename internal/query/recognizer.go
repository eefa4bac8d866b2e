package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hotelrag/concierge/internal/apperr"
	"github.com/hotelrag/concierge/internal/llm"
	"github.com/hotelrag/concierge/pkg/text"
)

const recognizerPromptTemplate = `You are classifying whether a hotel guest's message requires
searching hotel reviews to answer ("RETRIEVAL") or can be answered directly
without any lookup, e.g. greetings or chit-chat ("DIRECT").

{{if .PreviousTurn}}Previous turn: {{.PreviousTurn}}
{{end}}Current message: {{.Query}}

Respond with exactly one word: RETRIEVAL or DIRECT.`

// Recognizer classifies an utterance as requiring retrieval or not. It is
// the one stage in this package whose failure is fatal (spec.md §4.2):
// the orchestrator cannot choose a branch without this decision.
type Recognizer struct {
	chatModel llm.ChatModel
	log       *slog.Logger
}

// NewRecognizer builds a Recognizer backed by chatModel.
func NewRecognizer(chatModel llm.ChatModel, log *slog.Logger) *Recognizer {
	if log == nil {
		log = slog.Default()
	}
	return &Recognizer{chatModel: chatModel, log: log}
}

// Recognize returns true when the query requires retrieval. On failure
// after the bounded retry it returns a fatal *apperr.Error instead of a
// fallback value.
func (r *Recognizer) Recognize(ctx context.Context, userQuery, previousTurn string) (bool, error) {
	needRetrieval, err := withRetry(ctx, r.log, "intent_recognize", func(ctx context.Context) (bool, error) {
		prompt, err := text.NewRenderer().
			WithTemplate(recognizerPromptTemplate).
			WithVariable("Query", userQuery).
			WithVariable("PreviousTurn", previousTurn).
			Render()
		if err != nil {
			return false, fmt.Errorf("query: render recognizer prompt: %w", err)
		}

		raw, err := r.chatModel.Generate(ctx, llm.GenerateRequest{Prompt: prompt, Temperature: 0})
		if err != nil {
			return false, fmt.Errorf("query: recognizer generate: %w", err)
		}

		return parseRecognizerOutput(raw)
	})
	if err != nil {
		return false, apperr.New(apperr.KindFatal, "intent_recognize", err)
	}
	return needRetrieval, nil
}

func parseRecognizerOutput(raw string) (bool, error) {
	label := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case strings.Contains(label, "RETRIEVAL"):
		return true, nil
	case strings.Contains(label, "DIRECT"):
		return false, nil
	default:
		return false, fmt.Errorf("query: unrecognized recognizer output %q", raw)
	}
}
