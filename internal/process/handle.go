package process

import (
	"bytes"
	"context"
	"strings"
	"sync"
)

// Handle tracks one running external process.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	code   int
	pid    int
}

// Done is closed once the process has exited or failed to start.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the process exits and returns its exit code.
func (h *Handle) Wait() int {
	<-h.done
	return h.code
}

// ExitCode returns the exit code, or ExitRunning until Done is closed.
func (h *Handle) ExitCode() int {
	select {
	case <-h.done:
		return h.code
	default:
		return ExitRunning
	}
}

// Exited reports whether the process has finished.
func (h *Handle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Pid returns the operating system process id, or 0 if the spawn failed.
func (h *Handle) Pid() int {
	return h.pid
}

// Kill requests termination and returns immediately. The process first gets
// an interrupt and is killed outright after the runner's grace period. Kill
// after exit is a no-op.
func (h *Handle) Kill() {
	h.cancel()
}

// lineWriter splits a byte stream into lines and hands each one to fn.
type lineWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
	fn  func(string)
}

func newLineWriter(fn func(string)) *lineWriter {
	return &lineWriter{fn: fn}
}

// Write implements io.Writer.
func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Incomplete line; keep it for the next write.
			w.buf.Reset()
			w.buf.WriteString(line)
			return len(p), nil
		}
		w.fn(strings.TrimRight(line, "\r\n"))
	}
}

// Flush emits any trailing data that was not terminated by a newline.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() == 0 {
		return
	}
	w.fn(strings.TrimRight(w.buf.String(), "\r\n"))
	w.buf.Reset()
}
