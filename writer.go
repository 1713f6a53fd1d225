package tmplog

import (
	"sync"
	"sync/atomic"
)

const (
	lineWriterDefaultCap = 1024
	lineWriterMaxCap     = 64 << 10

	lineHintMaxPrealloc   = 8 << 10
	lineHintDecayShift    = 3
	lineHintDecayMinDelta = 64
)

// lineWriter is a pooled encode buffer. Encoders append one record to buf;
// the owner writes it out in a single Write call.
type lineWriter struct {
	buf []byte
}

var lineWriterPool = sync.Pool{
	New: func() any {
		return &lineWriter{buf: make([]byte, 0, lineWriterDefaultCap)}
	},
}

func acquireLineWriter() *lineWriter {
	lw := lineWriterPool.Get().(*lineWriter)
	lw.buf = lw.buf[:0]
	return lw
}

func releaseLineWriter(lw *lineWriter) {
	if cap(lw.buf) > lineWriterMaxCap {
		lw.buf = make([]byte, 0, lineWriterDefaultCap)
	} else {
		lw.buf = lw.buf[:0]
	}
	lineWriterPool.Put(lw)
}

func (lw *lineWriter) reserve(n int) {
	if n <= 0 {
		return
	}
	need := len(lw.buf) + n
	if need <= cap(lw.buf) {
		return
	}
	newCap := max(cap(lw.buf)*2+n, need)
	if newCap > lineWriterMaxCap {
		newCap = need
	}
	newBuf := make([]byte, len(lw.buf), newCap)
	copy(newBuf, lw.buf)
	lw.buf = newBuf
}

func (lw *lineWriter) preallocate(hint *atomic.Int64) {
	if hint == nil || len(lw.buf) != 0 {
		return
	}
	if n := int(hint.Load()); n > 0 {
		lw.reserve(min(n, lineWriterMaxCap))
	}
}

// updateLineHint keeps preallocation hints bounded while gradually adapting
// down after transient long lines.
func updateLineHint(hint *atomic.Int64, lineLen int) {
	if hint == nil || lineLen <= 0 {
		return
	}
	if lineLen > lineHintMaxPrealloc {
		lineLen = lineHintMaxPrealloc
	}
	next := int64(lineLen)
	current := hint.Load()
	if current <= 0 || next > current {
		hint.Store(next)
		return
	}
	// Ignore normal line-length jitter; only decay after substantial drops.
	if next == current || next*2 > current {
		return
	}
	delta := current - next
	if delta < lineHintDecayMinDelta {
		return
	}
	decayed := max(current-(delta>>lineHintDecayShift), next)
	if decayed == current {
		decayed--
	}
	hint.Store(decayed)
}
