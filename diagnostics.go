package tmplog

import (
	"errors"
	"io"
	"sync"
	"time"
)

// ErrorHandler receives internal faults: template parse errors, sink and
// queue worker failures, and panics recovered from log calls. A handler must
// not block for long. A nil handler drops the error.
type ErrorHandler func(error)

var (
	// ErrQueueFull is returned by Queue.Enqueue under the FullError policy.
	ErrQueueFull = errors.New("tmplog: queue full")
	// ErrQueueClosed is returned when enqueueing into a closed queue.
	ErrQueueClosed = errors.New("tmplog: queue closed")
	// ErrDrainTimeout reports that a queue consumer had not exited when the
	// shutdown wait ended.
	ErrDrainTimeout = errors.New("tmplog: queue drain timed out")
	// ErrDrainIncomplete reports records left behind by a failing final drain.
	ErrDrainIncomplete = errors.New("tmplog: queue drain incomplete")
	// ErrHandleRejected reports a sink that declined a record without an error.
	ErrHandleRejected = errors.New("tmplog: sink rejected record")
	// ErrFactoryClosed is returned when configuring a closed Factory.
	ErrFactoryClosed = errors.New("tmplog: factory closed")
	// ErrDuplicateSink is returned when a sink name is registered twice.
	ErrDuplicateSink = errors.New("tmplog: duplicate sink name")
	// ErrSinkClosed is returned by sinks that received a record after Close.
	ErrSinkClosed = errors.New("tmplog: sink closed")
)

// report hands err to h. A panicking handler is swallowed so diagnostics can
// never break a log call.
func report(h ErrorHandler, err error) {
	if h == nil || err == nil {
		return
	}
	defer func() { _ = recover() }()
	h(err)
}

// DiagnosticsTo returns an ErrorHandler writing one console line per error to
// w. Colour follows terminal detection on w.
func DiagnosticsTo(w io.Writer) ErrorHandler {
	if w == nil {
		w = io.Discard
	}
	enc := NewConsoleEncoder(EncoderOptions{NoColor: !isTerminal(w)})
	var mu sync.Mutex
	return func(err error) {
		rec := &Record{
			Timestamp: time.Now(),
			Level:     ErrorLevel,
			Category:  "tmplog",
			Message:   err.Error(),
		}
		buf := acquireLineWriter()
		buf.buf = enc.Encode(buf.buf, rec)
		mu.Lock()
		_, _ = w.Write(buf.buf)
		mu.Unlock()
		releaseLineWriter(buf)
	}
}
