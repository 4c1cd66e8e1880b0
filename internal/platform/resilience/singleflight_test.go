package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_Do(t *testing.T) {
	var g SingleFlight
	var counter int32

	const workers = 50
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	results := make([]any, workers)
	for i := 0; i < workers; i++ {
		go func(idx int) {
			defer wg.Done()
			<-start
			val, err, _ := g.Do("schedule-key", func() (any, error) {
				atomic.AddInt32(&counter, 1)
				time.Sleep(20 * time.Millisecond)
				return "snapshot", nil
			})
			if err != nil {
				t.Errorf("singleflight call failed: %v", err)
			}
			results[idx] = val
		}(i)
	}

	close(start)
	wg.Wait()

	if got := atomic.LoadInt32(&counter); got != 1 {
		t.Fatalf("expected function to run once, got %d", got)
	}
	for i, val := range results {
		if val != "snapshot" {
			t.Fatalf("worker %d got %v, want shared result", i, val)
		}
	}
}

func TestSingleFlight_DoContextWaiterTimeout(t *testing.T) {
	var g SingleFlight
	var counter int32
	release := make(chan struct{})

	leaderDone := make(chan struct{})
	go func() {
		defer close(leaderDone)
		_, _, _ = g.DoContext(context.Background(), "k", func() (any, error) {
			atomic.AddInt32(&counter, 1)
			<-release
			return "late", nil
		})
	}()

	// Wait until the call is registered so the second caller joins it.
	for {
		g.mu.Lock()
		registered := len(g.calls) == 1
		g.mu.Unlock()
		if registered {
			break
		}
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err, shared := g.DoContext(ctx, "k", func() (any, error) {
		atomic.AddInt32(&counter, 1)
		return "dup", nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if !shared {
		t.Fatalf("expected waiter to join the in-flight call")
	}

	close(release)
	<-leaderDone

	if got := atomic.LoadInt32(&counter); got != 1 {
		t.Fatalf("abandoning a wait must not start a second call, got %d calls", got)
	}
}

func TestSingleFlight_DoContextCallSurvivesWaiters(t *testing.T) {
	var g SingleFlight
	finished := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err, _ := g.DoContext(ctx, "k", func() (any, error) {
		defer close(finished)
		time.Sleep(10 * time.Millisecond)
		return "done", nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled error, got %v", err)
	}

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("in-flight call did not run to completion after waiter gave up")
	}
}
