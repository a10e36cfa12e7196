package callqueue

import (
	"bytes"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// checkNumGoroutines returns a func that fails the test unless the number of
// goroutines returns to at most its value as at the initial call, within
// timeout, e.g. to guard against leaked workers.
func checkNumGoroutines(timeout time.Duration) func(t *testing.T) {
	start := runtime.NumGoroutine()
	return func(t *testing.T) {
		t.Helper()
		deadline := time.Now().Add(timeout)
		n := runtime.NumGoroutine()
		for n > start && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond * 10)
			n = runtime.NumGoroutine()
		}
		if n > start {
			t.Errorf(`expected at most %d goroutines, got %d`, start, n)
		}
	}
}

// testBuffer is a goroutine-safe [bytes.Buffer], as the worker logs
// concurrently with test assertions.
type testBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (x *testBuffer) Write(p []byte) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.b.Write(p)
}

func (x *testBuffer) String() string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.b.String()
}

// newTestLogger configures a generified stumpy logger writing JSON lines to
// w, without a time field, for deterministic assertions.
func newTestLogger(w *testBuffer, level logiface.Level) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(
			stumpy.WithWriter(w),
			stumpy.WithTimeField(``),
		),
		stumpy.L.WithLevel(level),
	).Logger()
}

// waitFor polls fn until it returns true, or the timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !fn() {
		if time.Now().After(deadline) {
			t.Fatal(`condition not reached within`, timeout)
		}
		time.Sleep(time.Millisecond * 5)
	}
}
