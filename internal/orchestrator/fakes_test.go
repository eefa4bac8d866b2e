package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/hotelrag/concierge/internal/llm"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeChatModel returns canned Generate responses in call order and never
// streams; used for the recognizer/detector/expander stages, which only
// call Generate.
type fakeChatModel struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeChatModel) Generate(_ context.Context, _ llm.GenerateRequest) (string, error) {
	i := f.calls
	f.calls++
	var resp string
	var err error
	if i < len(f.responses) {
		resp = f.responses[i]
	} else if len(f.responses) > 0 {
		resp = f.responses[len(f.responses)-1]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return resp, err
}

func (f *fakeChatModel) Stream(context.Context, llm.GenerateRequest) (<-chan string, <-chan error) {
	panic("fakeChatModel: Stream not used by this stage")
}

// panicChatModel fails the test loudly if Generate or Stream is ever
// called, for asserting a stage is skipped entirely (e.g. detector/expander
// on the DIRECT branch).
type panicChatModel struct{}

func (panicChatModel) Generate(context.Context, llm.GenerateRequest) (string, error) {
	panic("panicChatModel: Generate must not be called")
}

func (panicChatModel) Stream(context.Context, llm.GenerateRequest) (<-chan string, <-chan error) {
	panic("panicChatModel: Stream must not be called")
}

// fakeStreamChatModel streams fixed chunks for the generator stage.
type fakeStreamChatModel struct {
	chunks    []string
	streamErr error
}

func (f *fakeStreamChatModel) Generate(context.Context, llm.GenerateRequest) (string, error) {
	panic("fakeStreamChatModel: Generate not used by generator stage")
}

func (f *fakeStreamChatModel) Stream(ctx context.Context, _ llm.GenerateRequest) (<-chan string, <-chan error) {
	chunks := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(chunks)
		for _, c := range f.chunks {
			select {
			case chunks <- c:
			case <-ctx.Done():
				return
			}
		}
		if f.streamErr != nil {
			errc <- f.streamErr
		}
	}()
	return chunks, errc
}

type fakeReranker struct {
	scores map[int]float64
	err    error
}

func (f *fakeReranker) Rerank(context.Context, string, []string, int) (map[int]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.scores, nil
}

var errRerank = errors.New("rerank service unavailable")
