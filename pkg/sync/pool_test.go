package sync

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gammazero/workerpool"
	"github.com/panjf2000/ants/v2"
	conc "github.com/sourcegraph/conc/pool"
)

func TestDefaultPool_RunsSubmittedTasks(t *testing.T) {
	pool := DefaultPool()
	if pool == nil {
		t.Fatal("DefaultPool() returned nil")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var executed int32
	if err := pool.Submit(func() {
		atomic.StoreInt32(&executed, 1)
		wg.Done()
	}); err != nil {
		t.Fatalf("Submit() error = %v, want nil", err)
	}
	wg.Wait()

	if atomic.LoadInt32(&executed) != 1 {
		t.Error("task was not executed")
	}
}

func TestSetDefaultPool_IgnoresNil(t *testing.T) {
	original := DefaultPool()
	defer SetDefaultPool(original)

	SetDefaultPool(nil)
	if DefaultPool() != original {
		t.Error("SetDefaultPool(nil) should not replace the current default pool")
	}
}

func TestSetDefaultPool_SwapsPool(t *testing.T) {
	original := DefaultPool()
	defer SetDefaultPool(original)

	custom := PoolOfNoPool()
	SetDefaultPool(custom)
	if DefaultPool() != custom {
		t.Error("SetDefaultPool() did not take effect")
	}
}

func TestPoolOfNoPool_ExecutesConcurrently(t *testing.T) {
	pool := PoolOfNoPool()

	const numTasks = 20
	var counter int32
	var wg sync.WaitGroup
	wg.Add(numTasks)

	for i := 0; i < numTasks; i++ {
		if err := pool.Submit(func() {
			atomic.AddInt32(&counter, 1)
			wg.Done()
		}); err != nil {
			t.Fatalf("Submit() error = %v, want nil", err)
		}
	}
	wg.Wait()

	if counter != numTasks {
		t.Errorf("counter = %d, want %d", counter, numTasks)
	}
}

func TestPoolOfNoPool_RecoversPanic(t *testing.T) {
	pool := PoolOfNoPool()

	var wg sync.WaitGroup
	wg.Add(1)
	if err := pool.Submit(func() {
		defer wg.Done()
		panic("task panic must not crash the caller")
	}); err != nil {
		t.Fatalf("Submit() error = %v, want nil", err)
	}
	wg.Wait()
}

func TestPoolOfConc_ExecutesTasks(t *testing.T) {
	concPool := conc.New()
	pool := PoolOfConc(concPool)

	const numTasks = 10
	var counter int32
	for i := 0; i < numTasks; i++ {
		if err := pool.Submit(func() {
			atomic.AddInt32(&counter, 1)
		}); err != nil {
			t.Fatalf("Submit() error = %v, want nil", err)
		}
	}
	concPool.Wait()

	if counter != numTasks {
		t.Errorf("counter = %d, want %d", counter, numTasks)
	}
}

func TestPoolOfConc_PanicsOnNilPool(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("PoolOfConc(nil) should panic")
		}
	}()
	_ = PoolOfConc(nil)
}

func TestPoolOfAnts_ExecutesTasks(t *testing.T) {
	antsPool, err := ants.NewPool(5)
	if err != nil {
		t.Fatalf("ants.NewPool() error = %v", err)
	}
	defer antsPool.Release()

	pool := PoolOfAnts(antsPool)

	const numTasks = 20
	var counter int32
	var wg sync.WaitGroup
	wg.Add(numTasks)
	for i := 0; i < numTasks; i++ {
		if err := pool.Submit(func() {
			atomic.AddInt32(&counter, 1)
			wg.Done()
		}); err != nil {
			t.Fatalf("Submit() error = %v, want nil", err)
		}
	}
	wg.Wait()

	if counter != numTasks {
		t.Errorf("counter = %d, want %d", counter, numTasks)
	}
}

func TestPoolOfAnts_PanicsOnNilPool(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("PoolOfAnts(nil) should panic")
		}
	}()
	_ = PoolOfAnts(nil)
}

func TestPoolOfWorkerpool_ExecutesTasks(t *testing.T) {
	wp := workerpool.New(5)
	defer wp.StopWait()

	pool := PoolOfWorkerpool(wp)

	const numTasks = 20
	var counter int32
	var wg sync.WaitGroup
	wg.Add(numTasks)
	for i := 0; i < numTasks; i++ {
		if err := pool.Submit(func() {
			atomic.AddInt32(&counter, 1)
			wg.Done()
		}); err != nil {
			t.Fatalf("Submit() error = %v, want nil", err)
		}
	}
	wg.Wait()

	if counter != numTasks {
		t.Errorf("counter = %d, want %d", counter, numTasks)
	}
}

func TestPoolOfWorkerpool_PanicsOnNilPool(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("PoolOfWorkerpool(nil) should panic")
		}
	}()
	_ = PoolOfWorkerpool(nil)
}

func TestPoolAdapter_PropagatesError(t *testing.T) {
	boom := &submitError{"boom"}
	adapter := poolAdapter(func(f func()) error {
		return boom
	})

	if err := adapter.Submit(func() {}); err != boom {
		t.Errorf("Submit() error = %v, want %v", err, boom)
	}
}

type submitError struct{ msg string }

func (e *submitError) Error() string { return e.msg }
