package tmplog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// FullPolicy selects what Enqueue does when a bounded queue is at capacity.
type FullPolicy uint8

const (
	// FullDiscard evicts the oldest buffered item to make room. It is the
	// default.
	FullDiscard FullPolicy = iota
	// FullError rejects the new item with ErrQueueFull.
	FullError
	// FullIgnore silently drops the new item.
	FullIgnore
)

// ParseFullPolicy parses "discard", "error" or "ignore" (case insensitive).
func ParseFullPolicy(value string) (FullPolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "discard", "drop-oldest", "dropoldest":
		return FullDiscard, true
	case "error", "fail":
		return FullError, true
	case "ignore", "drop", "drop-newest":
		return FullIgnore, true
	default:
		return FullDiscard, false
	}
}

func (p FullPolicy) String() string {
	switch p {
	case FullError:
		return "error"
	case FullIgnore:
		return "ignore"
	default:
		return "discard"
	}
}

const (
	DefaultMinQueueSize = 8
	DefaultMaxQueueTime = time.Second
	DefaultMaxQueueSize = 1024
	DefaultDrainTimeout = 5 * time.Second

	// Unbounded disables the capacity bound when used as MaxQueueSize.
	Unbounded = -1
)

// QueueObserver receives queue events, e.g. for metrics. Calls are made
// outside the queue lock and must be cheap.
type QueueObserver interface {
	Enqueued(depth int)
	Dropped(policy FullPolicy)
	Delivered(depth int)
	Failed()
	Flushed(delivered int, took time.Duration)
}

// QueueOptions configures a Queue. Zero fields take the documented defaults.
type QueueOptions struct {
	// MinQueueSize flushes once this many items are buffered. Default 8.
	MinQueueSize int
	// MaxQueueTime flushes when this long has passed since the last flush.
	// Default one second.
	MaxQueueTime time.Duration
	// MaxQueueSize bounds the buffer. Zero means DefaultMaxQueueSize, a
	// negative value (Unbounded) disables the bound.
	MaxQueueSize int
	// WhenFull is applied once MaxQueueSize items are buffered.
	WhenFull FullPolicy
	// OnWorkerError receives handler errors, recovered panics and shutdown
	// warnings.
	OnWorkerError ErrorHandler
	// AfterFlush runs on the consumer after every flush pass that delivered
	// at least one item.
	AfterFlush func() error
	// DrainTimeout bounds Close. Default five seconds.
	DrainTimeout time.Duration
	// Observer is optional.
	Observer QueueObserver
}

func (o QueueOptions) withDefaults() QueueOptions {
	if o.MinQueueSize <= 0 {
		o.MinQueueSize = DefaultMinQueueSize
	}
	if o.MaxQueueTime <= 0 {
		o.MaxQueueTime = DefaultMaxQueueTime
	}
	if o.MaxQueueSize == 0 {
		o.MaxQueueSize = DefaultMaxQueueSize
	}
	if o.DrainTimeout <= 0 {
		o.DrainTimeout = DefaultDrainTimeout
	}
	return o
}

// HandleFunc delivers one item. Returning false keeps the item at the head of
// the queue for the next flush pass; a non-nil error is reported either way.
type HandleFunc[T any] func(item T) (bool, error)

type queueItem[T any] struct {
	seq   uint64
	value T
}

// Queue is a bounded FIFO drained by a single background consumer. Producers
// never block on delivery: Enqueue appends under the lock and signals the
// consumer, which hands items to the HandleFunc outside the lock, strictly in
// order, removing an item only once it was delivered.
type Queue[T any] struct {
	handle HandleFunc[T]
	opts   QueueOptions

	mu      sync.Mutex
	items   []queueItem[T]
	head    int
	nextSeq uint64
	started bool
	closed  bool

	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewQueue returns a queue delivering to handle. The consumer goroutine
// starts on the first Enqueue.
func NewQueue[T any](handle HandleFunc[T], opts QueueOptions) *Queue[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue[T]{
		handle: handle,
		opts:   opts.withDefaults(),
		wake:   make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Options returns the effective options.
func (q *Queue[T]) Options() QueueOptions {
	return q.opts
}

// Enqueue appends item. On a full queue the configured FullPolicy decides:
// FullError returns ErrQueueFull, FullIgnore drops item, FullDiscard evicts
// the oldest buffered item.
func (q *Queue[T]) Enqueue(item T) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	if !q.started {
		q.started = true
		go q.run()
	}
	dropped := false
	if q.opts.MaxQueueSize > 0 && q.lenLocked() >= q.opts.MaxQueueSize {
		switch q.opts.WhenFull {
		case FullError:
			q.mu.Unlock()
			q.observeDrop()
			return ErrQueueFull
		case FullIgnore:
			q.mu.Unlock()
			q.observeDrop()
			return nil
		default:
			q.popHeadLocked()
			dropped = true
		}
	}
	q.items = append(q.items, queueItem[T]{seq: q.nextSeq, value: item})
	q.nextSeq++
	depth := q.lenLocked()
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	if dropped {
		q.observeDrop()
	}
	if q.opts.Observer != nil {
		q.opts.Observer.Enqueued(depth)
	}
	return nil
}

// Len returns the number of buffered items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lenLocked()
}

// Buffered returns a copy of the buffered items, oldest first.
func (q *Queue[T]) Buffered() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]T, 0, q.lenLocked())
	for _, it := range q.items[q.head:] {
		out = append(out, it.value)
	}
	return out
}

// Shutdown stops accepting items, lets the consumer finish its current pass
// and drain the buffer once more, and waits for it to exit or for ctx to end.
// A wait cut short by ctx returns an error wrapping ErrDrainTimeout; the
// consumer keeps draining in the background.
func (q *Queue[T]) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	started := q.started
	q.mu.Unlock()
	q.cancel()
	if !started {
		return nil
	}
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrDrainTimeout, ctx.Err())
	}
}

// Close is Shutdown bounded by the configured DrainTimeout. A timeout is also
// reported to OnWorkerError.
func (q *Queue[T]) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), q.opts.DrainTimeout)
	defer cancel()
	err := q.Shutdown(ctx)
	if err != nil {
		report(q.opts.OnWorkerError, err)
	}
	return err
}

func (q *Queue[T]) lenLocked() int {
	return len(q.items) - q.head
}

func (q *Queue[T]) popHeadLocked() {
	var zero queueItem[T]
	q.items[q.head] = zero
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
		return
	}
	if q.head > 64 && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		for i := n; i < len(q.items); i++ {
			q.items[i] = zero
		}
		q.items = q.items[:n]
		q.head = 0
	}
}

func (q *Queue[T]) run() {
	defer close(q.done)
	timer := time.NewTimer(q.opts.MaxQueueTime)
	defer timer.Stop()
	lastFlush := time.Now()
	for {
		select {
		case <-q.ctx.Done():
			q.drain()
			return
		case <-q.wake:
		case <-timer.C:
		}
		elapsed := time.Since(lastFlush)
		if elapsed >= q.opts.MaxQueueTime || q.Len() >= q.opts.MinQueueSize {
			q.flushPass()
			lastFlush = time.Now()
			elapsed = 0
		}
		timer.Reset(q.opts.MaxQueueTime - elapsed)
	}
}

// flushPass delivers buffered items head first until the buffer is empty or
// a delivery fails. The head is peeked under the lock, handled outside it,
// and removed only if it is still the head; a FullDiscard eviction racing
// with the handler leaves the new head alone.
func (q *Queue[T]) flushPass() (delivered int, failed bool) {
	start := time.Now()
	for {
		q.mu.Lock()
		if q.lenLocked() == 0 {
			q.mu.Unlock()
			break
		}
		head := q.items[q.head]
		q.mu.Unlock()

		ok, err := q.invoke(head.value)
		if !ok && err == nil {
			err = ErrHandleRejected
		}
		if err != nil {
			report(q.opts.OnWorkerError, err)
		}
		if !ok {
			if q.opts.Observer != nil {
				q.opts.Observer.Failed()
			}
			failed = true
			break
		}

		q.mu.Lock()
		if q.lenLocked() > 0 && q.items[q.head].seq == head.seq {
			q.popHeadLocked()
		}
		depth := q.lenLocked()
		q.mu.Unlock()
		delivered++
		if q.opts.Observer != nil {
			q.opts.Observer.Delivered(depth)
		}
	}
	if delivered > 0 && q.opts.AfterFlush != nil {
		if err := q.afterFlush(); err != nil {
			report(q.opts.OnWorkerError, err)
		}
	}
	if q.opts.Observer != nil {
		q.opts.Observer.Flushed(delivered, time.Since(start))
	}
	return delivered, failed
}

func (q *Queue[T]) drain() {
	_, failed := q.flushPass()
	if !failed {
		return
	}
	if n := q.Len(); n > 0 {
		report(q.opts.OnWorkerError, fmt.Errorf("%w: %d item(s) not delivered", ErrDrainIncomplete, n))
	}
}

func (q *Queue[T]) invoke(item T) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = fmt.Errorf("tmplog: queue handler panic: %v", r)
		}
	}()
	return q.handle(item)
}

func (q *Queue[T]) afterFlush() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tmplog: flush hook panic: %v", r)
		}
	}()
	return q.opts.AfterFlush()
}

func (q *Queue[T]) observeDrop() {
	if q.opts.Observer != nil {
		q.opts.Observer.Dropped(q.opts.WhenFull)
	}
}
