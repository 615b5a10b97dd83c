package requestcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestConcurrentRunsCoalesce(t *testing.T) {
	t.Parallel()

	c := New()
	var calls int32
	release := make(chan struct{})
	fn := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "saved", nil
	}

	const n = 2
	var wg sync.WaitGroup
	vals := make([]any, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			vals[i], errs[i] = c.Run(context.Background(), "layout:user1", fn)
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("saveFn invoked %d times, want exactly 1", got)
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if vals[i] != "saved" {
			t.Fatalf("caller %d got %v, want shared value", i, vals[i])
		}
	}
}

func TestDistinctKeysDoNotCoalesce(t *testing.T) {
	t.Parallel()

	c := New()
	var calls int32
	fn := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	}
	if _, err := c.Run(context.Background(), "layout:user1", fn); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Run(context.Background(), "layout:user2", fn); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}
}

func TestEntryClearedAfterCompletion(t *testing.T) {
	t.Parallel()

	c := New()
	var calls int32
	fn := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("transient")
	}
	if _, err := c.Run(context.Background(), "k", fn); err == nil {
		t.Fatal("expected error")
	}
	// Failure is not cached: a later call runs fn again.
	if _, err := c.Run(context.Background(), "k", fn); err == nil {
		t.Fatal("expected error")
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("calls = %d, want 2 (no negative caching)", got)
	}
}

func TestCallerCancellationDetachesCallerOnly(t *testing.T) {
	t.Parallel()

	c := New()
	started := make(chan struct{})
	release := make(chan struct{})
	var startedOnce sync.Once
	fn := func(ctx context.Context) (any, error) {
		startedOnce.Do(func() { close(started) })
		<-release
		return "done", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	var canceledErr error
	go func() {
		defer wg.Done()
		_, canceledErr = c.Run(ctx, "k", fn)
	}()
	<-started
	cancel()
	wg.Wait()
	if !errors.Is(canceledErr, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", canceledErr)
	}

	// The shared call is still in flight; a second caller picks it up.
	done := make(chan struct{})
	go func() {
		defer close(done)
		v, err := c.Run(context.Background(), "k", fn)
		if err != nil || v != "done" {
			t.Errorf("second caller got (%v, %v)", v, err)
		}
	}()
	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second caller never completed")
	}
}
