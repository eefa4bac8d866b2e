// Package flow provides the concurrent segment/process/aggregate primitive
// (Batch) that internal/retrieval's route fan-out is built on.
package flow

import (
	"context"
	"errors"
)

// Processor represents a function that transforms input data into output data.
// It is the unit of work Batch applies to each segment.
type Processor[I any, O any] func(context.Context, I) (O, error)

// AsProcessor converts a regular function to a Processor type.
//
// Example:
//
//	validateData := flow.AsProcessor(func(ctx context.Context, data Record) (ValidatedRecord, error) {
//		return validated, nil
//	})
func AsProcessor[I any, O any](fn func(context.Context, I) (O, error)) Processor[I, O] {
	return fn
}

// Run invokes the processor, guarding against a nil value.
func (p Processor[I, O]) Run(ctx context.Context, input I) (O, error) {
	if p == nil {
		var zero O
		return zero, errors.New("processor cannot be nil")
	}
	return p(ctx, input)
}

// checkContextCancellation reports whether ctx has already been canceled,
// without blocking. Batch calls this before segmenting and before
// aggregating so a canceled request doesn't do either unnecessarily.
func (p Processor[I, O]) checkContextCancellation(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// validateProcessor reports an error if p is nil.
func validateProcessor[I any, O any](p Processor[I, O]) error {
	if p == nil {
		return errors.New("processor is required: batch processing needs a function to handle each segment")
	}
	return nil
}
