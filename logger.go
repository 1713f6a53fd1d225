package tmplog

import (
	"context"
	"fmt"
	"strconv"
)

// Logger renders log calls for one category and hands the resulting records
// to the sinks of its Factory. A nil or zero Logger discards everything.
// Loggers are safe for concurrent use and never panic into the caller.
type Logger struct {
	f        *Factory
	category string
}

// Category returns the logger's category.
func (l *Logger) Category() string {
	if l == nil {
		return ""
	}
	return l.category
}

// Enabled reports whether any sink accepts records at level.
func (l *Logger) Enabled(level Level) bool {
	if l == nil || l.f == nil {
		return false
	}
	for _, p := range l.f.state.Load().providers {
		if p.enabled(level) {
			return true
		}
	}
	return false
}

// Log renders template against args and delivers the record. id and err are
// optional (zero EventID, nil error).
func (l *Logger) Log(level Level, id EventID, err error, template string, args ...any) {
	if l == nil || l.f == nil {
		return
	}
	l.emit(level, id, err, template, nil, args)
}

// Trace logs template at TraceLevel.
func (l *Logger) Trace(template string, args ...any) {
	l.Log(TraceLevel, EventID{}, nil, template, args...)
}

// Debug logs template at DebugLevel.
func (l *Logger) Debug(template string, args ...any) {
	l.Log(DebugLevel, EventID{}, nil, template, args...)
}

// Info logs template at InfoLevel.
func (l *Logger) Info(template string, args ...any) {
	l.Log(InfoLevel, EventID{}, nil, template, args...)
}

// Warn logs template at WarnLevel.
func (l *Logger) Warn(template string, args ...any) {
	l.Log(WarnLevel, EventID{}, nil, template, args...)
}

// Error logs template at ErrorLevel.
func (l *Logger) Error(template string, args ...any) {
	l.Log(ErrorLevel, EventID{}, nil, template, args...)
}

// Critical logs template at CriticalLevel.
func (l *Logger) Critical(template string, args ...any) {
	l.Log(CriticalLevel, EventID{}, nil, template, args...)
}

// LogError logs err at ErrorLevel.
func (l *Logger) LogError(err error, template string, args ...any) {
	l.Log(ErrorLevel, EventID{}, err, template, args...)
}

// logLiteral logs message verbatim, bypassing the template cache. Used for
// text that does not come from source code.
func (l *Logger) logLiteral(level Level, message string) {
	if l == nil || l.f == nil {
		return
	}
	l.emit(level, EventID{}, nil, message, literalTemplate(message), nil)
}

func (l *Logger) emit(level Level, id EventID, err error, text string, tmpl *Template, args []any) {
	f := l.f
	st := f.state.Load()
	var buf [4]*provider
	targets := buf[:0]
	for _, p := range st.providers {
		if p.enabled(level) {
			targets = append(targets, p)
		}
	}
	if len(targets) == 0 {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			report(f.onError, fmt.Errorf("tmplog: log call panic: %v", r))
		}
	}()

	if tmpl == nil {
		tmpl = f.cache.GetOrCreate(text)
	}
	message, holes := tmpl.Render(valuesOf(args), f.format)
	var base propertyBuilder
	f.baseProperties(st, &base)
	if f.callerKey != "" {
		base.set(f.callerKey, StringValue(callerFunctionName()))
	}
	proto := Record{
		Timestamp:       f.clock(),
		Level:           level,
		Category:        l.category,
		EventID:         id,
		Message:         message,
		MessageTemplate: tmpl.Text(),
		Renderings:      renderingsOf(holes),
	}
	proto.ExceptionMessage, proto.ExceptionStack = exceptionDetails(err)
	baseProps := base.build()

	var shared *Record
	for _, p := range targets {
		if p.scopes == nil {
			if shared == nil {
				shared = assemble(proto, baseProps, nil, holes)
			}
			f.deliver(p, shared)
			continue
		}
		f.deliver(p, assemble(proto, baseProps, p.scopes.Snapshot(), holes))
	}
}

// assemble merges properties static, dynamic, scopes bottom to top, then the
// template holes; later sources win. A hole without an argument is null only
// when no earlier source set the name.
func assemble(proto Record, base Properties, scopes []ScopeSnapshot, holes []RenderedValue) *Record {
	var b propertyBuilder
	b.setAll(base)
	for _, s := range scopes {
		b.setAll(s.Properties)
	}
	for _, h := range holes {
		if h.Missing {
			if _, ok := b.lookup(h.Name); ok {
				continue
			}
		}
		b.set(h.Name, h.Value)
	}
	rec := proto
	rec.Properties = b.build()
	rec.Scopes = scopes
	return &rec
}

func renderingsOf(holes []RenderedValue) []Rendering {
	if len(holes) == 0 {
		return nil
	}
	out := make([]Rendering, len(holes))
	for i, h := range holes {
		out[i] = Rendering{Name: h.Name, Format: h.Format, Text: h.Text}
	}
	return out
}

func valuesOf(args []any) []Value {
	if len(args) == 0 {
		return nil
	}
	out := make([]Value, len(args))
	for i, a := range args {
		out[i] = ValueOf(a)
	}
	return out
}

// BeginScope renders template against args and pushes the result onto the
// scope stack of every sink that includes scopes. The hole values become
// scope properties. Call End on the returned handle when the scope exits.
func (l *Logger) BeginScope(template string, args ...any) *ScopeHandle {
	if l == nil || l.f == nil {
		return &ScopeHandle{}
	}
	f := l.f
	snap := ScopeSnapshot{Template: template}
	func() {
		defer func() {
			if r := recover(); r != nil {
				report(f.onError, fmt.Errorf("tmplog: scope panic: %v", r))
			}
		}()
		message, holes := f.cache.GetOrCreate(template).Render(valuesOf(args), f.format)
		var b propertyBuilder
		for _, h := range holes {
			b.set(h.Name, h.Value)
		}
		snap.Message = message
		snap.Properties = b.build()
	}()
	return l.push(snap)
}

// BeginScopeKV pushes a scope made of key/value pairs and no message. A key
// that is not a string is stringified; a trailing value without a key is
// stored as "argN".
func (l *Logger) BeginScopeKV(keyvals ...any) *ScopeHandle {
	if l == nil || l.f == nil {
		return &ScopeHandle{}
	}
	var snap ScopeSnapshot
	func() {
		defer func() {
			if r := recover(); r != nil {
				report(l.f.onError, fmt.Errorf("tmplog: scope panic: %v", r))
			}
		}()
		snap.Properties = collectProperties(keyvals)
	}()
	return l.push(snap)
}

func (l *Logger) push(snap ScopeSnapshot) *ScopeHandle {
	h := &ScopeHandle{}
	for _, p := range l.f.state.Load().providers {
		if p.scopes != nil {
			p.scopes.Push(snap)
			h.stacks = append(h.stacks, p.scopes)
		}
	}
	return h
}

func collectProperties(keyvals []any) Properties {
	if len(keyvals) == 0 {
		return Properties{}
	}
	var b propertyBuilder
	b.grow((len(keyvals) + 1) / 2)
	pair := 0
	for i := 0; i < len(keyvals); {
		if i+1 < len(keyvals) {
			b.set(keyFromValue(keyvals[i], pair), ValueOf(keyvals[i+1]))
			i += 2
			pair++
			continue
		}
		b.set(argKeyName(pair), ValueOf(keyvals[i]))
		i++
		pair++
	}
	return b.build()
}

func keyFromValue(v any, pair int) string {
	switch k := v.(type) {
	case nil:
		return argKeyName(pair)
	case string:
		if k == "" {
			return argKeyName(pair)
		}
		return k
	case fmt.Stringer:
		return k.String()
	default:
		return fmt.Sprint(v)
	}
}

func argKeyName(pair int) string {
	return "arg" + strconv.Itoa(pair)
}

type loggerContextKey struct{}

// ContextWithLogger returns a child context carrying l.
func ContextWithLogger(ctx context.Context, l *Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if l == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerContextKey{}, l)
}

// LoggerFromContext returns the logger stored in ctx, or a logger that
// discards everything.
func LoggerFromContext(ctx context.Context) *Logger {
	if ctx == nil {
		return &Logger{}
	}
	if l, ok := ctx.Value(loggerContextKey{}).(*Logger); ok && l != nil {
		return l
	}
	return &Logger{}
}

// Ctx is shorthand for LoggerFromContext.
func Ctx(ctx context.Context) *Logger {
	return LoggerFromContext(ctx)
}
