package sync

import (
	"errors"
	"testing"

	"github.com/hotelrag/concierge/pkg/safe"
)

func TestGo_RunsFunction(t *testing.T) {
	done := make(chan struct{})
	Go(func() {
		close(done)
	})
	<-done
}

func TestGo_RecoversPanicAndInvokesHandler(t *testing.T) {
	caught := make(chan error, 1)
	Go(func() {
		panic("custom panic error")
	}, func(err error) {
		caught <- err
	})

	err := <-caught
	if err == nil {
		t.Fatal("expected panic handler to receive a non-nil error")
	}
	var panicErr *safe.PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("expected a *safe.PanicError, got %T: %v", err, err)
	}
}

func TestGo_NoHandlersSwallowsPanic(t *testing.T) {
	done := make(chan struct{})
	Go(func() {
		defer close(done)
		panic("no one is listening")
	})
	<-done
}
