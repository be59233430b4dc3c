package batch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestExecuteKeepsOrderAndSettlesAll(t *testing.T) {
	requests := []int{1, 2, 3, 4}
	boom := errors.New("boom")

	results := Execute(context.Background(), requests, 2, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n * 10, nil
	})

	if len(results) != len(requests) {
		t.Fatalf("expected %d results, got %d", len(requests), len(results))
	}
	for i, res := range results {
		if res.Index != i {
			t.Fatalf("result %d has index %d", i, res.Index)
		}
	}
	if !errors.Is(results[1].Err, boom) {
		t.Fatalf("expected boom for request 2, got %v", results[1].Err)
	}
	if results[3].Value != 40 || results[3].Err != nil {
		t.Fatalf("failure should not cancel other requests: %+v", results[3])
	}

	ok, failed := Count(results)
	if ok != 3 || failed != 1 {
		t.Fatalf("unexpected counts ok=%d failed=%d", ok, failed)
	}
}

func TestExecuteRespectsLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	requests := make([]int, 10)

	Execute(context.Background(), requests, 3, func(_ context.Context, _ int) (struct{}, error) {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return struct{}{}, nil
	})

	if peak.Load() > 3 {
		t.Fatalf("expected at most 3 concurrent requests, saw %d", peak.Load())
	}
}

func TestExecuteRecoversPanics(t *testing.T) {
	results := Execute(context.Background(), []string{"ok", "panic"}, 0, func(_ context.Context, s string) (string, error) {
		if s == "panic" {
			panic("bad request")
		}
		return s, nil
	})
	if results[0].Err != nil || results[0].Value != "ok" {
		t.Fatalf("unexpected first result %+v", results[0])
	}
	if results[1].Err == nil {
		t.Fatalf("panic should be reported as error")
	}
}

func TestExecuteWithCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	results := Execute(ctx, []int{1, 2}, 1, func(_ context.Context, n int) (int, error) {
		calls.Add(1)
		return n, nil
	})
	if calls.Load() != 0 {
		t.Fatalf("fn should not run after cancellation, ran %d times", calls.Load())
	}
	for _, res := range results {
		if !errors.Is(res.Err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", res.Err)
		}
	}
}
