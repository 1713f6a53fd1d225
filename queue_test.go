package tmplog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
)

type deliveryLog[T any] struct {
	mu    sync.Mutex
	items []T
	ch    chan T
}

func newDeliveryLog[T any]() *deliveryLog[T] {
	return &deliveryLog[T]{ch: make(chan T, 1024)}
}

func (d *deliveryLog[T]) handle(item T) (bool, error) {
	d.mu.Lock()
	d.items = append(d.items, item)
	d.mu.Unlock()
	d.ch <- item
	return true, nil
}

func (d *deliveryLog[T]) snapshot() []T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.items)
}

func (d *deliveryLog[T]) wait(t *testing.T, n int) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for range n {
		select {
		case <-d.ch:
		case <-deadline:
			t.Fatalf("timed out waiting for %d deliveries, got %v", n, d.snapshot())
		}
	}
}

type errorLog struct {
	mu   sync.Mutex
	errs []error
}

func (e *errorLog) handle(err error) {
	e.mu.Lock()
	e.errs = append(e.errs, err)
	e.mu.Unlock()
}

func (e *errorLog) list() []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.errs)
}

func (e *errorLog) count(target error) int {
	n := 0
	for _, err := range e.list() {
		if errors.Is(err, target) {
			n++
		}
	}
	return n
}

// idle options never flush on their own; only Close drains.
func idleOptions() QueueOptions {
	return QueueOptions{MinQueueSize: 1 << 20, MaxQueueTime: time.Hour}
}

func TestQueueDeliversInOrder(t *testing.T) {
	log := newDeliveryLog[int]()
	q := NewQueue[int](log.handle, QueueOptions{MinQueueSize: 7, MaxQueueTime: 10 * time.Millisecond})
	for i := range 100 {
		if err := q.Enqueue(i); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	got := log.snapshot()
	if len(got) != 100 {
		t.Fatalf("delivered %d items, want 100", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("item %d out of order: got %d", i, v)
		}
	}
}

func TestQueueFullPolicies(t *testing.T) {
	cases := []struct {
		policy   FullPolicy
		wantErr  error
		buffered []string
	}{
		{FullDiscard, nil, []string{"B", "C"}},
		{FullError, ErrQueueFull, []string{"A", "B"}},
		{FullIgnore, nil, []string{"A", "B"}},
	}
	for _, tc := range cases {
		t.Run(tc.policy.String(), func(t *testing.T) {
			log := newDeliveryLog[string]()
			opts := idleOptions()
			opts.MaxQueueSize = 2
			opts.WhenFull = tc.policy
			q := NewQueue[string](log.handle, opts)
			for _, item := range []string{"A", "B"} {
				if err := q.Enqueue(item); err != nil {
					t.Fatalf("enqueue %s: %v", item, err)
				}
			}
			err := q.Enqueue("C")
			if !errors.Is(err, tc.wantErr) || (tc.wantErr == nil && err != nil) {
				t.Fatalf("enqueue C: got %v want %v", err, tc.wantErr)
			}
			if got := q.Buffered(); !slices.Equal(got, tc.buffered) {
				t.Fatalf("buffered: got %v want %v", got, tc.buffered)
			}
			if err := q.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}
			if got := log.snapshot(); !slices.Equal(got, tc.buffered) {
				t.Fatalf("delivered: got %v want %v", got, tc.buffered)
			}
		})
	}
}

func TestQueueDiscardWhileHeadInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	log := newDeliveryLog[string]()
	handle := func(item string) (bool, error) {
		if item == "A" {
			close(started)
			<-release
		}
		return log.handle(item)
	}
	q := NewQueue[string](handle, QueueOptions{MinQueueSize: 1, MaxQueueTime: time.Hour, MaxQueueSize: 2, WhenFull: FullDiscard})
	if err := q.Enqueue("A"); err != nil {
		t.Fatalf("enqueue A: %v", err)
	}
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatalf("consumer never picked up A")
	}
	for _, item := range []string{"B", "C"} {
		if err := q.Enqueue(item); err != nil {
			t.Fatalf("enqueue %s: %v", item, err)
		}
	}
	if got := q.Buffered(); !slices.Equal(got, []string{"B", "C"}) {
		t.Fatalf("buffered while A in flight: %v", got)
	}
	close(release)
	log.wait(t, 3)
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := log.snapshot(); !slices.Equal(got, []string{"A", "B", "C"}) {
		t.Fatalf("delivered: got %v want [A B C]", got)
	}
}

func TestQueueUnbounded(t *testing.T) {
	opts := idleOptions()
	opts.MaxQueueSize = Unbounded
	q := NewQueue[int](func(int) (bool, error) { return true, nil }, opts)
	for i := range 5000 {
		if err := q.Enqueue(i); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	if q.Len() != 5000 {
		t.Fatalf("len: got %d want 5000", q.Len())
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if q.Len() != 0 {
		t.Fatalf("expected drained queue, %d left", q.Len())
	}
}

func TestQueueDefaults(t *testing.T) {
	q := NewQueue[int](func(int) (bool, error) { return true, nil }, QueueOptions{})
	opts := q.Options()
	if opts.MinQueueSize != DefaultMinQueueSize || opts.MaxQueueTime != DefaultMaxQueueTime ||
		opts.MaxQueueSize != DefaultMaxQueueSize || opts.WhenFull != FullDiscard || opts.DrainTimeout != DefaultDrainTimeout {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
	if err := q.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown of unstarted queue: %v", err)
	}
}

func TestQueueFlushesOnMinQueueSize(t *testing.T) {
	log := newDeliveryLog[int]()
	q := NewQueue[int](log.handle, QueueOptions{MinQueueSize: 5, MaxQueueTime: time.Hour})
	defer q.Close()
	for i := range 4 {
		_ = q.Enqueue(i)
	}
	time.Sleep(50 * time.Millisecond)
	if got := log.snapshot(); len(got) != 0 {
		t.Fatalf("flushed below MinQueueSize: %v", got)
	}
	_ = q.Enqueue(4)
	log.wait(t, 5)
}

func TestQueueFlushesOnMaxQueueTime(t *testing.T) {
	log := newDeliveryLog[string]()
	q := NewQueue[string](log.handle, QueueOptions{MinQueueSize: 100, MaxQueueTime: 50 * time.Millisecond})
	defer q.Close()
	start := time.Now()
	_ = q.Enqueue("tick")
	log.wait(t, 1)
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("flushed after %s, before MaxQueueTime", elapsed)
	}
}

func TestQueueRetainsFailedItem(t *testing.T) {
	errs := &errorLog{}
	log := newDeliveryLog[string]()
	var mu sync.Mutex
	attempts := map[string]int{}
	handle := func(item string) (bool, error) {
		mu.Lock()
		attempts[item]++
		n := attempts[item]
		mu.Unlock()
		switch {
		case item == "A" && n == 1:
			return false, errors.New("disk full")
		case item == "A" && n == 2:
			panic("sink exploded")
		case item == "A" && n == 3:
			return false, nil
		}
		return log.handle(item)
	}
	q := NewQueue[string](handle, QueueOptions{MinQueueSize: 1, MaxQueueTime: 10 * time.Millisecond, OnWorkerError: errs.handle})
	_ = q.Enqueue("A")
	_ = q.Enqueue("B")
	log.wait(t, 2)
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := log.snapshot(); !slices.Equal(got, []string{"A", "B"}) {
		t.Fatalf("delivered: got %v want [A B]", got)
	}
	reported := errs.list()
	if len(reported) != 3 {
		t.Fatalf("reported errors: got %v", reported)
	}
	if !strings.Contains(reported[0].Error(), "disk full") {
		t.Fatalf("first error: %v", reported[0])
	}
	if !strings.Contains(reported[1].Error(), "panic") {
		t.Fatalf("second error: %v", reported[1])
	}
	if !errors.Is(reported[2], ErrHandleRejected) {
		t.Fatalf("third error: %v", reported[2])
	}
}

func TestQueueRejectsAfterClose(t *testing.T) {
	q := NewQueue[int](func(int) (bool, error) { return true, nil }, QueueOptions{})
	_ = q.Enqueue(1)
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := q.Enqueue(2); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("enqueue after close: got %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestQueueShutdownTimeout(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	errs := &errorLog{}
	q := NewQueue[int](func(int) (bool, error) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		return true, nil
	}, QueueOptions{MinQueueSize: 1, DrainTimeout: 20 * time.Millisecond, OnWorkerError: errs.handle})
	_ = q.Enqueue(1)
	<-entered

	err := q.Close()
	if !errors.Is(err, ErrDrainTimeout) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("close: got %v", err)
	}
	if errs.count(ErrDrainTimeout) != 1 {
		t.Fatalf("timeout not reported: %v", errs.list())
	}
	close(release)
	if err := q.Shutdown(context.Background()); err != nil {
		t.Fatalf("consumer did not finish after release: %v", err)
	}
}

func TestQueueDrainIncomplete(t *testing.T) {
	errs := &errorLog{}
	opts := idleOptions()
	opts.OnWorkerError = errs.handle
	q := NewQueue[int](func(int) (bool, error) { return false, nil }, opts)
	_ = q.Enqueue(1)
	_ = q.Enqueue(2)
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if errs.count(ErrDrainIncomplete) != 1 {
		t.Fatalf("expected ErrDrainIncomplete, got %v", errs.list())
	}
	if q.Len() != 2 {
		t.Fatalf("undelivered items should stay buffered, len %d", q.Len())
	}
}

func TestQueueAfterFlush(t *testing.T) {
	flushed := make(chan struct{}, 16)
	q := NewQueue[int](func(int) (bool, error) { return true, nil }, QueueOptions{
		MinQueueSize: 1,
		AfterFlush: func() error {
			flushed <- struct{}{}
			return nil
		},
	})
	defer q.Close()
	_ = q.Enqueue(1)
	select {
	case <-flushed:
	case <-time.After(5 * time.Second):
		t.Fatalf("AfterFlush not called")
	}
}

type countingObserver struct {
	mu        sync.Mutex
	enqueued  int
	dropped   map[FullPolicy]int
	delivered int
	failed    int
	flushes   int
}

func (o *countingObserver) Enqueued(int) {
	o.mu.Lock()
	o.enqueued++
	o.mu.Unlock()
}

func (o *countingObserver) Dropped(p FullPolicy) {
	o.mu.Lock()
	if o.dropped == nil {
		o.dropped = map[FullPolicy]int{}
	}
	o.dropped[p]++
	o.mu.Unlock()
}

func (o *countingObserver) Delivered(int) {
	o.mu.Lock()
	o.delivered++
	o.mu.Unlock()
}

func (o *countingObserver) Failed() {
	o.mu.Lock()
	o.failed++
	o.mu.Unlock()
}

func (o *countingObserver) Flushed(delivered int, _ time.Duration) {
	o.mu.Lock()
	if delivered > 0 {
		o.flushes++
	}
	o.mu.Unlock()
}

func TestQueueObserver(t *testing.T) {
	obs := &countingObserver{}
	opts := idleOptions()
	opts.MaxQueueSize = 2
	opts.Observer = obs
	q := NewQueue[string](func(string) (bool, error) { return true, nil }, opts)
	for _, item := range []string{"A", "B", "C"} {
		_ = q.Enqueue(item)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	obs.mu.Lock()
	defer obs.mu.Unlock()
	if obs.enqueued != 3 || obs.dropped[FullDiscard] != 1 || obs.delivered != 2 || obs.failed != 0 || obs.flushes != 1 {
		t.Fatalf("unexpected observations: %+v", obs)
	}
}

func TestParseFullPolicy(t *testing.T) {
	cases := map[string]FullPolicy{
		"discard":     FullDiscard,
		" Error ":     FullError,
		"IGNORE":      FullIgnore,
		"drop-oldest": FullDiscard,
	}
	for input, want := range cases {
		got, ok := ParseFullPolicy(input)
		if !ok || got != want {
			t.Fatalf("ParseFullPolicy(%q) = %v, %v", input, got, ok)
		}
	}
	if _, ok := ParseFullPolicy("block"); ok {
		t.Fatalf("unknown policy accepted")
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	q := NewQueue[string](func(item string) (bool, error) {
		mu.Lock()
		seen[item]++
		mu.Unlock()
		return true, nil
	}, QueueOptions{MinQueueSize: 16, MaxQueueTime: 5 * time.Millisecond, MaxQueueSize: Unbounded})
	var wg sync.WaitGroup
	for p := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 250 {
				_ = q.Enqueue(fmt.Sprintf("%d-%d", p, i))
			}
		}()
	}
	wg.Wait()
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2000 {
		t.Fatalf("delivered %d distinct items, want 2000", len(seen))
	}
	for item, n := range seen {
		if n != 1 {
			t.Fatalf("item %s delivered %d times", item, n)
		}
	}
}
