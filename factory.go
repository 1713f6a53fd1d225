package tmplog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
)

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithErrorHandler routes internal faults (template parse errors, sink
// failures, queue warnings, recovered panics) to h.
func WithErrorHandler(h ErrorHandler) FactoryOption {
	return func(f *Factory) { f.onError = h }
}

// WithFormatter replaces the value formatter used to render template holes.
func WithFormatter(format ValueFormatter) FactoryOption {
	return func(f *Factory) {
		if format != nil {
			f.format = format
		}
	}
}

// WithLocale renders hole values with the number and date conventions of tag.
func WithLocale(tag language.Tag) FactoryOption {
	return func(f *Factory) { f.format = NewFormatter(tag) }
}

// WithClock replaces time.Now as the record timestamp source.
func WithClock(now func() time.Time) FactoryOption {
	return func(f *Factory) {
		if now != nil {
			f.clock = now
		}
	}
}

// WithInstanceID adds a random UUID identifying this process as the static
// property name.
func WithInstanceID(name string) FactoryOption {
	return func(f *Factory) {
		if name == "" {
			name = "InstanceId"
		}
		f.instanceID = uuid.New().String()
		f.initial = append(f.initial, Property{Name: name, Value: StringValue(f.instanceID)})
	}
}

// WithTemplateCache shares cache between factories.
func WithTemplateCache(cache *TemplateCache) FactoryOption {
	return func(f *Factory) { f.cache = cache }
}

// WithCallerProperty adds the name of the calling function, outside this
// module, as property key on every record. The stack walk costs a few hundred
// nanoseconds per call.
func WithCallerProperty(key string) FactoryOption {
	return func(f *Factory) {
		if key == "" {
			key = "fn"
		}
		f.callerKey = key
	}
}

// SinkOptions configures how a sink is attached to a Factory.
type SinkOptions struct {
	// MinLevel drops records below it. The zero value is TraceLevel.
	MinLevel Level
	// IncludeScopes gives the sink its own ScopeStack; scopes begun while the
	// sink is registered are pushed to it and attached to its records.
	IncludeScopes bool
	// Async delivers through a private Queue instead of calling Handle on
	// the logging goroutine.
	Async bool
	// Queue configures the async queue. OnWorkerError defaults to the
	// factory error handler and AfterFlush to the sink's Flush method.
	Queue QueueOptions
}

type provider struct {
	name   string
	sink   Sink
	opts   SinkOptions
	filter LevelFilter
	scopes *ScopeStack
	queue  *Queue[*Record]
}

func (p *provider) enabled(level Level) bool {
	if !level.Enabled(p.opts.MinLevel) {
		return false
	}
	return p.filter == nil || p.filter.Enabled(level)
}

type dynamicProperty struct {
	name string
	fn   func() any
}

// factoryState is replaced wholesale on every configuration change so the
// logging path reads it without locking.
type factoryState struct {
	providers []*provider
	static    Properties
	dynamic   []dynamicProperty
}

// Factory owns the sinks, the enrichment properties and the template cache
// shared by the loggers it creates. It replaces process-global logger
// registries: construct one at startup, pass it around, Close it on exit.
type Factory struct {
	onError    ErrorHandler
	format     ValueFormatter
	clock      func() time.Time
	cache      *TemplateCache
	callerKey  string
	instanceID string
	initial    []Property

	mu     sync.Mutex
	closed bool
	state  atomic.Pointer[factoryState]
}

// NewFactory returns a Factory without sinks.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		format: DefaultFormatter,
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.cache == nil {
		f.cache = NewTemplateCache(f.onError)
	}
	f.state.Store(&factoryState{static: NewProperties(f.initial...)})
	f.initial = nil
	return f
}

// InstanceID returns the identifier added by WithInstanceID, or "".
func (f *Factory) InstanceID() string { return f.instanceID }

// Templates returns the factory's template cache.
func (f *Factory) Templates() *TemplateCache { return f.cache }

// AddSink registers s under name.
func (f *Factory) AddSink(name string, s Sink, opts SinkOptions) error {
	if s == nil {
		return errors.New("tmplog: nil sink")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFactoryClosed
	}
	cur := f.state.Load()
	for _, p := range cur.providers {
		if p.name == name {
			return fmt.Errorf("%w: %q", ErrDuplicateSink, name)
		}
	}
	p := &provider{name: name, sink: s, opts: opts}
	if lf, ok := s.(LevelFilter); ok {
		p.filter = lf
	}
	if opts.IncludeScopes {
		p.scopes = &ScopeStack{}
	}
	if opts.Async {
		p.queue = NewQueue[*Record](s.Handle, f.queueOptions(name, s, opts.Queue))
	}
	next := *cur
	next.providers = append(append([]*provider(nil), cur.providers...), p)
	f.state.Store(&next)
	return nil
}

func (f *Factory) queueOptions(name string, s Sink, qo QueueOptions) QueueOptions {
	if qo.OnWorkerError == nil {
		qo.OnWorkerError = func(err error) {
			report(f.onError, fmt.Errorf("tmplog: sink %q: %w", name, err))
		}
	}
	if qo.AfterFlush == nil {
		if fl, ok := s.(Flusher); ok {
			qo.AfterFlush = fl.Flush
		}
	}
	return qo
}

// Queue returns the delivery queue of an async sink.
func (f *Factory) Queue(name string) (*Queue[*Record], bool) {
	for _, p := range f.state.Load().providers {
		if p.name == name && p.queue != nil {
			return p.queue, true
		}
	}
	return nil, false
}

// SetProperty sets a static property added to every record. Setting a name
// again replaces its value.
func (f *Factory) SetProperty(name string, value any) {
	v := ValueOf(value)
	f.update(func(st *factoryState) {
		var b propertyBuilder
		b.setAll(st.static)
		b.set(name, v)
		st.static = b.build()
	})
}

// AddDynamicProperty adds a property whose value fn produces on every log
// call. A panic in fn is reported and the property is skipped for that call.
func (f *Factory) AddDynamicProperty(name string, fn func() any) {
	if fn == nil {
		return
	}
	f.update(func(st *factoryState) {
		dyn := make([]dynamicProperty, 0, len(st.dynamic)+1)
		for _, d := range st.dynamic {
			if d.name != name {
				dyn = append(dyn, d)
			}
		}
		st.dynamic = append(dyn, dynamicProperty{name: name, fn: fn})
	})
}

func (f *Factory) update(mutate func(*factoryState)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := *f.state.Load()
	mutate(&next)
	f.state.Store(&next)
}

// Logger returns a logger for category. Loggers are cheap; keep one per
// component rather than creating one per call.
func (f *Factory) Logger(category string) *Logger {
	return &Logger{f: f, category: category}
}

// Shutdown detaches every sink, drains async queues and flushes and closes
// the sinks concurrently. ctx bounds the wait for queue consumers; an
// expired ctx is reported as ErrDrainTimeout for each queue still draining.
func (f *Factory) Shutdown(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	cur := f.state.Load()
	next := *cur
	next.providers = nil
	f.state.Store(&next)
	f.mu.Unlock()

	// g.Wait keeps only the first error; errs keeps every provider's.
	errs := make([]error, len(cur.providers))
	var g errgroup.Group
	for i, p := range cur.providers {
		g.Go(func() error {
			errs[i] = p.shutdown(ctx)
			return errs[i]
		})
	}
	_ = g.Wait()
	err := errors.Join(errs...)
	if err != nil {
		report(f.onError, err)
	}
	return err
}

// Close is Shutdown bounded by DefaultDrainTimeout.
func (f *Factory) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultDrainTimeout)
	defer cancel()
	return f.Shutdown(ctx)
}

func (p *provider) shutdown(ctx context.Context) error {
	var errs []error
	if p.queue != nil {
		if err := p.queue.Shutdown(ctx); err != nil {
			// Consumer still running: leave the sink open.
			return fmt.Errorf("tmplog: sink %q: %w", p.name, err)
		}
	}
	if fl, ok := p.sink.(Flusher); ok {
		if err := fl.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	if c, ok := p.sink.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("tmplog: sink %q: %w", p.name, err)
	}
	return nil
}

// deliver hands rec to p inline or through its queue. Failures never reach
// the caller.
func (f *Factory) deliver(p *provider, rec *Record) {
	if p.queue != nil {
		if err := p.queue.Enqueue(rec); err != nil {
			report(f.onError, fmt.Errorf("tmplog: sink %q: %w", p.name, err))
		}
		return
	}
	ok, err := invokeSink(p.sink, rec)
	if !ok && err == nil {
		err = ErrHandleRejected
	}
	if err != nil {
		report(f.onError, fmt.Errorf("tmplog: sink %q: %w", p.name, err))
	}
}

// baseProperties merges static and dynamic properties, static first.
func (f *Factory) baseProperties(st *factoryState, b *propertyBuilder) {
	b.setAll(st.static)
	for _, d := range st.dynamic {
		v, err := evalDynamic(d.fn)
		if err != nil {
			report(f.onError, fmt.Errorf("tmplog: dynamic property %q: %w", d.name, err))
			continue
		}
		b.set(d.name, v)
	}
}

func evalDynamic(fn func() any) (v Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return ValueOf(fn()), nil
}
