package tmplog

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// Sink consumes finished records. Handle reports whether the record was
// accepted; a record that was not accepted stays at the head of an async
// sink's queue and is retried on the next flush. A returned error is routed
// to the factory's ErrorHandler. Handle may be called from a queue consumer
// goroutine and must treat rec as read-only.
type Sink interface {
	Handle(rec *Record) (bool, error)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(rec *Record) (bool, error)

// Handle implements Sink.
func (f SinkFunc) Handle(rec *Record) (bool, error) { return f(rec) }

// Flusher is implemented by sinks buffering output. Async sinks are flushed
// after every queue flush pass and on shutdown.
type Flusher interface {
	Flush() error
}

// LevelFilter is implemented by sinks that filter records themselves on top
// of SinkOptions.MinLevel.
type LevelFilter interface {
	Enabled(level Level) bool
}

// invokeSink calls s.Handle, turning a panic into a failed attempt.
func invokeSink(s Sink, rec *Record) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = fmt.Errorf("tmplog: sink panic: %v", r)
		}
	}()
	return s.Handle(rec)
}

// WriterSink encodes records with an Encoder and writes each one to an
// io.Writer in a single Write call. It is safe for concurrent use.
type WriterSink struct {
	mu       sync.Mutex
	w        io.Writer
	enc      Encoder
	lineHint atomic.Int64
}

// NewWriterSink returns a sink writing enc output to w.
func NewWriterSink(w io.Writer, enc Encoder) *WriterSink {
	if w == nil {
		w = io.Discard
	}
	return &WriterSink{w: w, enc: enc}
}

// NewConsoleSink returns a console sink on w. Colour is enabled when w is a
// terminal or opts.ForceColor is set, unless opts.NoColor.
func NewConsoleSink(w io.Writer, opts EncoderOptions) *WriterSink {
	return NewSink(w, FormatConsole, opts)
}

// NewJSONSink returns a JSON sink on w.
func NewJSONSink(w io.Writer, opts EncoderOptions) *WriterSink {
	return NewSink(w, FormatJSON, opts)
}

// NewCLEFSink returns a CLEF sink on w.
func NewCLEFSink(w io.Writer, opts EncoderOptions) *WriterSink {
	return NewSink(w, FormatCLEF, opts)
}

// NewSink returns a WriterSink on w using the built-in encoder for format.
func NewSink(w io.Writer, format Format, opts EncoderOptions) *WriterSink {
	if format == FormatConsole {
		opts.NoColor = opts.NoColor || !(opts.ForceColor || isTerminal(w))
	}
	return NewWriterSink(w, NewEncoder(format, opts))
}

// Handle implements Sink.
func (s *WriterSink) Handle(rec *Record) (bool, error) {
	lw := acquireLineWriter()
	lw.preallocate(&s.lineHint)
	lw.buf = s.enc.Encode(lw.buf, rec)
	n := len(lw.buf)
	s.mu.Lock()
	written, err := s.w.Write(lw.buf)
	s.mu.Unlock()
	releaseLineWriter(lw)
	updateLineHint(&s.lineHint, n)
	if err == nil && written != n {
		err = io.ErrShortWrite
	}
	if err != nil {
		return false, fmt.Errorf("tmplog: write: %w", err)
	}
	return true, nil
}

// Flush flushes the writer when it buffers.
func (s *WriterSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.w.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// Close closes the writer when the sink owns it (see output.go); stdout and
// stderr are never closed.
func (s *WriterSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return closeOutput(s.w)
}
