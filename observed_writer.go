package tmplog

import (
	"io"
	"sync/atomic"
)

// WriteFailure describes one failed write observed by ObservedWriter.
type WriteFailure struct {
	Err       error
	Written   int
	Attempted int
}

// ObservedWriterStats captures aggregated counters for ObservedWriter.
type ObservedWriterStats struct {
	Writes      uint64
	Bytes       uint64
	Failures    uint64
	ShortWrites uint64
}

// ObservedWriter wraps an io.Writer and records write failures so log loss
// can be observed without changing sink signatures. Counters survive
// retargeting with Reset, which FileSink uses when the output path changes.
type ObservedWriter struct {
	dst        io.Writer
	onFailure  func(WriteFailure)
	writes     atomic.Uint64
	bytes      atomic.Uint64
	failures   atomic.Uint64
	shortWrite atomic.Uint64
}

// NewObservedWriter wraps dst with failure observation hooks.
func NewObservedWriter(dst io.Writer, onFailure func(WriteFailure)) *ObservedWriter {
	if dst == nil {
		dst = io.Discard
	}
	return &ObservedWriter{
		dst:       dst,
		onFailure: onFailure,
	}
}

func (w *ObservedWriter) Write(p []byte) (int, error) {
	if w == nil || w.dst == nil {
		return len(p), nil
	}

	n, err := w.dst.Write(p)
	w.writes.Add(1)
	if n > 0 {
		w.bytes.Add(uint64(n))
	}
	if n != len(p) {
		w.shortWrite.Add(1)
		if err == nil {
			err = io.ErrShortWrite
		}
	}

	if err != nil {
		w.failures.Add(1)
		if w.onFailure != nil {
			w.onFailure(WriteFailure{
				Err:       err,
				Written:   n,
				Attempted: len(p),
			})
		}
	}

	return n, err
}

// Reset points the writer at dst. It is not safe to call concurrently with
// Write.
func (w *ObservedWriter) Reset(dst io.Writer) {
	if dst == nil {
		dst = io.Discard
	}
	w.dst = dst
}

// Stats returns cumulative counters.
func (w *ObservedWriter) Stats() ObservedWriterStats {
	if w == nil {
		return ObservedWriterStats{}
	}
	return ObservedWriterStats{
		Writes:      w.writes.Load(),
		Bytes:       w.bytes.Load(),
		Failures:    w.failures.Load(),
		ShortWrites: w.shortWrite.Load(),
	}
}

// Close closes the wrapped destination when the library owns it.
func (w *ObservedWriter) Close() error {
	if w == nil {
		return nil
	}
	return closeOutput(w.dst)
}

func (w *ObservedWriter) ownedClose() error {
	return w.Close()
}
