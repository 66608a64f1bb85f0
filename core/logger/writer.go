package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// asyncWriter moves formatting off the hot path: lines are queued and a single
// goroutine writes them to every sink.
type asyncWriter struct {
	lines chan []byte
	flush chan chan error
	done  chan struct{}

	state  sync.RWMutex
	closed bool

	mu    sync.Mutex
	sinks []*bufio.Writer
	err   error
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		lines: make(chan []byte, 256),
		flush: make(chan chan error),
		done:  make(chan struct{}),
	}
	for _, out := range writers {
		if out != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
		}
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				w.setErr(w.flushSinks())
				return
			}
			w.writeLine(line)
			if len(w.lines) == 0 {
				w.setErr(w.flushSinks())
			}
		case ack := <-w.flush:
			// drain what is already queued so Flush observes every earlier Write
			for n := len(w.lines); n > 0; n-- {
				w.writeLine(<-w.lines)
			}
			ack <- w.flushSinks()
		}
	}
}

// Write copies p and queues it. It blocks when the queue is full.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.lastErr(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	w.state.RLock()
	defer w.state.RUnlock()
	if w.closed {
		return io.ErrClosedPipe
	}
	w.lines <- append([]byte(nil), p...)
	return nil
}

// Flush waits until queued lines reach the sinks.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	select {
	case w.flush <- ack:
		return <-ack
	case <-w.done:
		return w.lastErr()
	}
}

// Close drains the queue and reports the first write error.
func (w *asyncWriter) Close() error {
	w.state.Lock()
	if !w.closed {
		w.closed = true
		close(w.lines)
	}
	w.state.Unlock()
	<-w.done
	return w.lastErr()
}

func (w *asyncWriter) writeLine(p []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range w.sinks {
		if _, err := s.Write(p); err != nil && w.err == nil {
			w.err = err
		}
	}
}

func (w *asyncWriter) flushSinks() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, s := range w.sinks {
		if err := s.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) setErr(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		w.err = err
	}
}

func (w *asyncWriter) lastErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}
