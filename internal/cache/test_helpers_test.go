package cache

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dashcache/dashcache/internal/storage"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// bytesToMB 将字节预算换算为 MaxSizeMB，小整数换算是精确的。
func bytesToMB(n int64) float64 {
	return float64(n) / bytesPerMB
}

func newTestCache[T any](t *testing.T, cfg Config, clock *fakeClock, store storage.Store) *Cache[T] {
	t.Helper()
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 1
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = time.Minute
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = -1
	}
	opts := Options{Name: "test", Store: store, Logger: quietLogger()}
	if clock != nil {
		opts.Clock = clock.Now
	}
	c, err := New[T](cfg, opts)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func value[T any](v T) Fetcher[T] {
	return func(context.Context) (T, error) { return v, nil }
}

var errFetcherCalled = errors.New("fetcher must not be called")

func throwing[T any]() Fetcher[T] {
	return func(context.Context) (T, error) {
		var zero T
		return zero, errFetcherCalled
	}
}

// eventually 轮询 cond 直到成立或超时。
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met: %s", msg)
}

// failingStore 的所有操作都返回错误。
type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, error) { return "", errors.New("disk gone") }
func (failingStore) Set(context.Context, string, string) error   { return errors.New("disk gone") }
func (failingStore) Remove(context.Context, string) error        { return errors.New("disk gone") }
