package generate

import (
	"context"
	"time"

	"github.com/hotelrag/concierge/internal/llm"
)

// Timing captures the three generation latencies from spec.md §4.5.
type Timing struct {
	TTFTModel  time.Duration // prompt submission -> first non-empty chunk
	Subsequent time.Duration // first chunk -> last chunk
	Generation time.Duration // total
}

// StreamEvent is one item from GenerateStream: either a content chunk, a
// terminal error, or the terminal Done summary carrying Timing.
type StreamEvent struct {
	Content string
	Done    bool
	Timing  Timing
	Err     error
}

// Generator streams answers from a ChatModel and measures the timing
// contract spec.md §4.5 requires (ttft_model, subsequent, generation).
type Generator struct {
	ChatModel llm.ChatModel
}

// New builds a Generator backed by chatModel.
func New(chatModel llm.ChatModel) *Generator {
	return &Generator{ChatModel: chatModel}
}

// GenerateStream streams the answer for prompt, emitting a StreamEvent per
// content chunk followed by exactly one terminal event (Done=true on
// success, Err set on failure). The returned channel is always closed
// after the terminal event.
func (g *Generator) GenerateStream(ctx context.Context, prompt string) <-chan StreamEvent {
	out := make(chan StreamEvent)

	go func() {
		defer close(out)

		start := time.Now()
		chunks, errc := g.ChatModel.Stream(ctx, llm.GenerateRequest{Prompt: prompt, Temperature: 0.3})

		var firstChunkAt, lastChunkAt time.Time
		for chunk := range chunks {
			now := time.Now()
			if firstChunkAt.IsZero() {
				firstChunkAt = now
			}
			lastChunkAt = now
			select {
			case out <- StreamEvent{Content: chunk}:
			case <-ctx.Done():
				out <- StreamEvent{Err: ctx.Err()}
				return
			}
		}

		if err := <-errc; err != nil {
			out <- StreamEvent{Err: err}
			return
		}

		timing := Timing{Generation: time.Since(start)}
		if !firstChunkAt.IsZero() {
			timing.TTFTModel = firstChunkAt.Sub(start)
			timing.Subsequent = lastChunkAt.Sub(firstChunkAt)
		}
		out <- StreamEvent{Done: true, Timing: timing}
	}()

	return out
}

// Generate drains GenerateStream and returns the concatenated answer text
// plus its timing. Used by the non-streaming orchestrator branch
// (enable_generation=false still needs a final answer internally for
// some callers; SSE callers use GenerateStream directly).
func (g *Generator) Generate(ctx context.Context, prompt string) (string, Timing, error) {
	var text string
	var timing Timing
	for event := range g.GenerateStream(ctx, prompt) {
		if event.Err != nil {
			return "", Timing{}, event.Err
		}
		if event.Done {
			timing = event.Timing
			break
		}
		text += event.Content
	}
	return text, timing, nil
}
