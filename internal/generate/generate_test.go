package generate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotelrag/concierge/internal/llm"
)

type fakeStreamingChatModel struct {
	chunks    []string
	chunkGap  time.Duration
	streamErr error
}

func (f *fakeStreamingChatModel) Generate(context.Context, llm.GenerateRequest) (string, error) {
	panic("fakeStreamingChatModel: Generate not used by generate package tests")
}

func (f *fakeStreamingChatModel) Stream(ctx context.Context, _ llm.GenerateRequest) (<-chan string, <-chan error) {
	chunks := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(chunks)
		for _, c := range f.chunks {
			if f.chunkGap > 0 {
				time.Sleep(f.chunkGap)
			}
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

func TestGenerate_ConcatenatesChunks(t *testing.T) {
	model := &fakeStreamingChatModel{chunks: []string{"你", "好"}}
	g := New(model)

	text, timing, err := g.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "你好", text)
	assert.Greater(t, timing.Generation, time.Duration(0))
}

func TestGenerate_PropagatesStreamError(t *testing.T) {
	model := &fakeStreamingChatModel{streamErr: errors.New("upstream failure")}
	g := New(model)

	_, _, err := g.Generate(context.Background(), "prompt")
	require.Error(t, err)
}

func TestGenerateStream_EmitsChunksThenDone(t *testing.T) {
	model := &fakeStreamingChatModel{chunks: []string{"a", "b", "c"}, chunkGap: time.Millisecond}
	g := New(model)

	var content string
	var sawDone bool
	for event := range g.GenerateStream(context.Background(), "prompt") {
		require.NoError(t, event.Err)
		if event.Done {
			sawDone = true
			assert.Greater(t, event.Timing.TTFTModel, time.Duration(0))
			assert.GreaterOrEqual(t, event.Timing.Subsequent, time.Duration(0))
			continue
		}
		content += event.Content
	}
	assert.True(t, sawDone)
	assert.Equal(t, "abc", content)
}

func TestGenerateStream_NoChunksStillEmitsDoneWithZeroTTFT(t *testing.T) {
	model := &fakeStreamingChatModel{}
	g := New(model)

	var sawDone bool
	for event := range g.GenerateStream(context.Background(), "prompt") {
		require.NoError(t, event.Err)
		if event.Done {
			sawDone = true
			assert.Zero(t, event.Timing.TTFTModel)
		}
	}
	assert.True(t, sawDone)
}
