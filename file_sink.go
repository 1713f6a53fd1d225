package tmplog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/klauspost/compress/zstd"
)

// PathFunc names the file a record is written to. It is evaluated on every
// write and must be cheap; a changed name closes the current file and opens
// the new one.
type PathFunc func(rec *Record) string

// TimePath returns a PathFunc formatting the record timestamp with the file
// name of pattern as a time layout, e.g. TimePath("logs/app-2006-01-02.log")
// for one file per day. The directory part is used verbatim.
func TimePath(pattern string) PathFunc {
	dir, layout := filepath.Split(pattern)
	return func(rec *Record) string {
		return dir + rec.Timestamp.Format(layout)
	}
}

// FileOptions configures a FileSink.
type FileOptions struct {
	// Path is the output file when PathFunc is nil.
	Path string
	// PathFunc overrides Path.
	PathFunc PathFunc
	// Compress writes a zstd stream. Each open of a file starts a new zstd
	// frame; concatenated frames decode as one stream.
	Compress bool
	// Perm is the mode for new files. Default 0644.
	Perm os.FileMode
	// OnWriteFailure observes failed writes in addition to the error
	// returned from Handle.
	OnWriteFailure func(WriteFailure)
}

// FileSink encodes records into a file whose name may change between
// writes. It implements Flusher and io.Closer.
type FileSink struct {
	enc      Encoder
	pathFunc PathFunc
	compress bool
	perm     os.FileMode
	lineHint atomic.Int64

	mu     sync.Mutex
	path   string
	file   *os.File
	zw     *zstd.Encoder
	out    *ObservedWriter
	closed bool
}

// NewFileSink returns a file sink. The first file is opened on the first
// record.
func NewFileSink(enc Encoder, opts FileOptions) (*FileSink, error) {
	if enc == nil {
		return nil, errors.New("tmplog: file sink needs an encoder")
	}
	pathFunc := opts.PathFunc
	if pathFunc == nil {
		if opts.Path == "" {
			return nil, errors.New("tmplog: file sink needs Path or PathFunc")
		}
		path := opts.Path
		pathFunc = func(*Record) string { return path }
	}
	perm := opts.Perm
	if perm == 0 {
		perm = 0o644
	}
	return &FileSink{
		enc:      enc,
		pathFunc: pathFunc,
		compress: opts.Compress,
		perm:     perm,
		out:      NewObservedWriter(io.Discard, opts.OnWriteFailure),
	}, nil
}

// Handle implements Sink.
func (s *FileSink) Handle(rec *Record) (bool, error) {
	path := s.pathFunc(rec)
	if path == "" {
		return false, errors.New("tmplog: file sink path is empty")
	}
	lw := acquireLineWriter()
	defer releaseLineWriter(lw)
	lw.preallocate(&s.lineHint)
	lw.buf = s.enc.Encode(lw.buf, rec)
	updateLineHint(&s.lineHint, len(lw.buf))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrSinkClosed
	}
	if s.file == nil || path != s.path {
		if err := s.openLocked(path); err != nil {
			return false, err
		}
	}
	if _, err := s.out.Write(lw.buf); err != nil {
		return false, fmt.Errorf("tmplog: write %q: %w", s.path, err)
	}
	return true, nil
}

func (s *FileSink) openLocked(path string) error {
	if err := s.closeFileLocked(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("tmplog: create log directory %q: %w", dir, err)
		}
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, s.perm)
	if err != nil {
		return fmt.Errorf("tmplog: open log file %q: %w", path, err)
	}
	s.file = file
	s.path = path
	if s.compress {
		zw, err := zstd.NewWriter(file)
		if err != nil {
			_ = file.Close()
			s.file = nil
			return fmt.Errorf("tmplog: zstd writer: %w", err)
		}
		s.zw = zw
		s.out.Reset(zw)
		return nil
	}
	s.out.Reset(file)
	return nil
}

func (s *FileSink) closeFileLocked() error {
	var errs []error
	if s.zw != nil {
		errs = append(errs, s.zw.Close())
		s.zw = nil
	}
	if s.file != nil {
		errs = append(errs, s.file.Close())
		s.file = nil
	}
	s.out.Reset(io.Discard)
	return errors.Join(errs...)
}

// Flush pushes compressed data buffered by the zstd encoder to the file.
func (s *FileSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.zw != nil {
		return s.zw.Flush()
	}
	return nil
}

// Close closes the current file. Later records are rejected with
// ErrSinkClosed.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.closeFileLocked()
}

// Path returns the name of the currently open file, or "".
func (s *FileSink) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return ""
	}
	return s.path
}

// Stats returns write counters across all files opened by the sink.
func (s *FileSink) Stats() ObservedWriterStats {
	return s.out.Stats()
}
