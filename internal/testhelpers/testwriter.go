package testhelpers

import (
	"io"
	"strings"
	"sync"
	"testing"
)

// Writer implements io.Writer and writes to t.Log so that logs are shown only for failed tests.
type Writer struct {
	t    testing.TB
	mu   sync.Mutex
	done bool
}

// NewWriter creates a Writer bound to the lifetime of t.
func NewWriter(t testing.TB) io.Writer {
	w := &Writer{t: t, mu: sync.Mutex{}, done: false}
	t.Cleanup(func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.done = true
	})
	return w
}

// Write implements io.Writer by writing to t.Log.
//
// Output written after the test has finished is discarded because t.Log panics at that point. Background
// goroutines such as the database optimizer may still be winding down.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return len(p), nil
	}
	if output := strings.TrimSuffix(string(p), "\n"); output != "" {
		w.t.Log(output)
	}
	return len(p), nil
}
