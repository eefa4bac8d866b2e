package flow

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func doubler() Processor[int, int] {
	return Processor[int, int](func(_ context.Context, input int) (int, error) {
		return input * 2, nil
	})
}

func identitySegmenter() func(context.Context, []int) ([]int, error) {
	return func(_ context.Context, in []int) ([]int, error) {
		return in, nil
	}
}

func sumAggregator() func(context.Context, []int) (int, error) {
	return func(_ context.Context, results []int) (int, error) {
		sum := 0
		for _, r := range results {
			sum += r
		}
		return sum, nil
	}
}

func TestBatch_validate(t *testing.T) {
	t.Run("missing processor", func(t *testing.T) {
		b := (&Batch[[]int, int, int, int]{}).
			WithSegmenter(identitySegmenter()).
			WithAggregator(sumAggregator())

		err := b.validate()
		if err == nil {
			t.Fatal("expected error for missing processor, got nil")
		}
	})

	t.Run("missing segmenter", func(t *testing.T) {
		b := (&Batch[[]int, int, int, int]{}).
			WithProcessor(doubler()).
			WithAggregator(sumAggregator())

		err := b.validate()
		if err == nil || !strings.Contains(err.Error(), "segmenter is required") {
			t.Fatalf("expected segmenter-required error, got %v", err)
		}
	})

	t.Run("missing aggregator", func(t *testing.T) {
		b := (&Batch[[]int, int, int, int]{}).
			WithProcessor(doubler()).
			WithSegmenter(identitySegmenter())

		err := b.validate()
		if err == nil || !strings.Contains(err.Error(), "aggregator is required") {
			t.Fatalf("expected aggregator-required error, got %v", err)
		}
	})

	t.Run("fully configured", func(t *testing.T) {
		b := (&Batch[[]int, int, int, int]{}).
			WithProcessor(doubler()).
			WithSegmenter(identitySegmenter()).
			WithAggregator(sumAggregator())

		if err := b.validate(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}

func TestBatch_Run_Sequential(t *testing.T) {
	b := (&Batch[[]int, int, int, int]{}).
		WithProcessor(doubler()).
		WithSegmenter(identitySegmenter()).
		WithAggregator(sumAggregator())

	out, err := b.Run(context.Background(), []int{1, 2, 3})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != 12 {
		t.Errorf("expected 12, got %d", out)
	}
}

func TestBatch_Run_Concurrent(t *testing.T) {
	b := (&Batch[[]int, int, int, int]{}).
		WithProcessor(doubler()).
		WithSegmenter(identitySegmenter()).
		WithAggregator(sumAggregator()).
		WithConcurrencyLimit(4)

	out, err := b.Run(context.Background(), []int{1, 2, 3, 4, 5})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != 30 {
		t.Errorf("expected 30, got %d", out)
	}
}

func TestBatch_Run_PreservesOrderConcurrently(t *testing.T) {
	concat := Processor[int, []int](func(_ context.Context, input int) ([]int, error) {
		return []int{input}, nil
	})
	b := (&Batch[[]int, []int, int, []int]{}).
		WithProcessor(concat).
		WithSegmenter(identitySegmenter()).
		WithAggregator(func(_ context.Context, results [][]int) ([]int, error) {
			var flat []int
			for _, r := range results {
				flat = append(flat, r...)
			}
			return flat, nil
		}).
		WithConcurrencyLimit(8)

	out, err := b.Run(context.Background(), []int{5, 4, 3, 2, 1})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	expected := []int{5, 4, 3, 2, 1}
	if len(out) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, out)
	}
	for i := range expected {
		if out[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, out)
		}
	}
}

func TestBatch_Run_StopsOnFirstErrorByDefault(t *testing.T) {
	boom := errors.New("boom")
	failOnThree := Processor[int, int](func(_ context.Context, input int) (int, error) {
		if input == 3 {
			return 0, boom
		}
		return input, nil
	})
	b := (&Batch[[]int, int, int, int]{}).
		WithProcessor(failOnThree).
		WithSegmenter(identitySegmenter()).
		WithAggregator(sumAggregator())

	_, err := b.Run(context.Background(), []int{1, 2, 3, 4})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom error, got %v", err)
	}
}

func TestBatch_Run_ContinueOnErrorSkipsFailedSegments(t *testing.T) {
	boom := errors.New("boom")
	failOnThree := Processor[int, int](func(_ context.Context, input int) (int, error) {
		if input == 3 {
			return 0, boom
		}
		return input, nil
	})
	b := (&Batch[[]int, int, int, int]{}).
		WithProcessor(failOnThree).
		WithSegmenter(identitySegmenter()).
		WithAggregator(sumAggregator()).
		WithContinueOnError()

	out, err := b.Run(context.Background(), []int{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != 7 {
		t.Errorf("expected 7 (1+2+4, segment 3 dropped), got %d", out)
	}
}

func TestBatch_Run_SegmenterErrorPropagates(t *testing.T) {
	boom := errors.New("segmenter boom")
	b := (&Batch[[]int, int, int, int]{}).
		WithProcessor(doubler()).
		WithSegmenter(func(_ context.Context, _ []int) ([]int, error) {
			return nil, boom
		}).
		WithAggregator(sumAggregator())

	_, err := b.Run(context.Background(), []int{1})
	if !errors.Is(err, boom) {
		t.Fatalf("expected segmenter error, got %v", err)
	}
}

func TestBatch_Run_AggregatorErrorPropagates(t *testing.T) {
	boom := errors.New("aggregator boom")
	b := (&Batch[[]int, int, int, int]{}).
		WithProcessor(doubler()).
		WithSegmenter(identitySegmenter()).
		WithAggregator(func(_ context.Context, _ []int) (int, error) {
			return 0, boom
		})

	_, err := b.Run(context.Background(), []int{1, 2})
	if !errors.Is(err, boom) {
		t.Fatalf("expected aggregator error, got %v", err)
	}
}

func TestBatch_Run_ContextCanceledBeforeSegmenting(t *testing.T) {
	b := (&Batch[[]int, int, int, int]{}).
		WithProcessor(doubler()).
		WithSegmenter(identitySegmenter()).
		WithAggregator(sumAggregator())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Run(ctx, []int{1, 2})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func BenchmarkBatch_Run_Concurrent(b *testing.B) {
	batch := (&Batch[[]int, int, int, int]{}).
		WithProcessor(doubler()).
		WithSegmenter(identitySegmenter()).
		WithAggregator(sumAggregator()).
		WithConcurrencyLimit(8)

	input := []int{1, 2, 3, 4, 5, 6, 7, 8}
	ctx := context.Background()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = batch.Run(ctx, input)
	}
}
