package query

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/hotelrag/concierge/internal/llm"
)

// fakeChatModel drives deterministic stage tests without a real LLM. Each
// call consumes the next entry in responses in order; an entry's err, if
// non-nil, is returned instead of text.
type fakeChatModel struct {
	responses []fakeResponse
	calls     int32
}

type fakeResponse struct {
	text string
	err  error
}

func (f *fakeChatModel) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	i := atomic.AddInt32(&f.calls, 1) - 1
	if int(i) >= len(f.responses) {
		return "", errors.New("fakeChatModel: no more responses queued")
	}
	r := f.responses[i]
	return r.text, r.err
}

func (f *fakeChatModel) Stream(ctx context.Context, req llm.GenerateRequest) (<-chan string, <-chan error) {
	panic("fakeChatModel: Stream not used by query stage tests")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
