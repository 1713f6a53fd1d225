package tmplog

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"pkt.systems/tmplog/ansi"
)

// FromEnvOption customizes FactoryFromEnv.
type FromEnvOption func(*fromEnvConfig)

type fromEnvConfig struct {
	prefix    string
	sinkName  string
	format    Format
	encoder   EncoderOptions
	sink      SinkOptions
	writer    io.Writer
	factory   []FactoryOption
	callerKey string
}

// WithEnvPrefix overrides the variable prefix, "LOG_" by default.
func WithEnvPrefix(prefix string) FromEnvOption {
	return func(cfg *fromEnvConfig) { cfg.prefix = prefix }
}

// WithEnvFormat seeds the output format.
func WithEnvFormat(format Format) FromEnvOption {
	return func(cfg *fromEnvConfig) { cfg.format = format }
}

// WithEnvEncoderOptions seeds the encoder options.
func WithEnvEncoderOptions(opts EncoderOptions) FromEnvOption {
	return func(cfg *fromEnvConfig) { cfg.encoder = opts }
}

// WithEnvSinkOptions seeds the sink options.
func WithEnvSinkOptions(opts SinkOptions) FromEnvOption {
	return func(cfg *fromEnvConfig) { cfg.sink = opts }
}

// WithEnvWriter sets the writer used for OUTPUT=default, stdout otherwise.
func WithEnvWriter(w io.Writer) FromEnvOption {
	return func(cfg *fromEnvConfig) { cfg.writer = w }
}

// WithEnvSinkName names the sink registered by FactoryFromEnv, "default" by
// default.
func WithEnvSinkName(name string) FromEnvOption {
	return func(cfg *fromEnvConfig) { cfg.sinkName = name }
}

// WithEnvFactoryOptions passes opts to NewFactory. They are applied after
// the environment, so an explicit option wins.
func WithEnvFactoryOptions(opts ...FactoryOption) FromEnvOption {
	return func(cfg *fromEnvConfig) { cfg.factory = append(cfg.factory, opts...) }
}

// FactoryFromEnv builds a Factory with one sink configured from environment
// variables. Environment values override seeded options. Internal faults go
// to stderr unless WithErrorHandler is passed through WithEnvFactoryOptions.
//
// Recognised variables ({prefix} defaults to LOG_): LEVEL, FORMAT
// (console|json|clef), OUTPUT, TIME_FORMAT, DISABLE_TIMESTAMP, UTC, NO_COLOR,
// FORCE_COLOR, PALETTE, LOCALE, CALLER_KEYVAL, CALLER_KEY, INCLUDE_SCOPES,
// ASYNC, MIN_QUEUE_SIZE, MAX_QUEUE_TIME (milliseconds), MAX_QUEUE_SIZE (zero or
// less is unbounded) and WHEN_FULL (discard|error|ignore). OUTPUT accepts
// stdout, stderr, default, a file path, or stdout+/stderr+/default+<path> to
// tee. A file that cannot be opened is logged through the new factory and the
// default writer is used instead.
func FactoryFromEnv(opts ...FromEnvOption) *Factory {
	cfg := fromEnvConfig{prefix: "LOG_", sinkName: "default", sink: SinkOptions{MinLevel: InfoLevel}}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	base := cfg.writer
	if base == nil {
		base = os.Stdout
	}
	cfg.apply()

	factoryOpts := []FactoryOption{WithErrorHandler(DiagnosticsTo(os.Stderr))}
	if value, ok := lookupEnv(cfg.prefix, "LOCALE"); ok {
		if tag, err := language.Parse(strings.TrimSpace(value)); err == nil {
			factoryOpts = append(factoryOpts, WithLocale(tag))
		}
	}
	if cfg.callerKey != "" {
		factoryOpts = append(factoryOpts, WithCallerProperty(cfg.callerKey))
	}
	factory := NewFactory(append(factoryOpts, cfg.factory...)...)

	writer := base
	outputValue, hasOutput := lookupEnv(cfg.prefix, "OUTPUT")
	var outputErr error
	if hasOutput {
		if resolved, err := writerFromEnvOutput(outputValue, base); err != nil {
			outputErr = err
		} else {
			writer = resolved
		}
	}
	if err := factory.AddSink(cfg.sinkName, NewSink(writer, cfg.format, cfg.encoder), cfg.sink); err != nil {
		report(factory.onError, err)
	}
	if outputErr != nil {
		factory.Logger("tmplog").LogError(outputErr, "Could not open log output {Output}", strings.TrimSpace(outputValue))
	}
	return factory
}

func (cfg *fromEnvConfig) apply() {
	prefix := cfg.prefix
	if value, ok := lookupEnv(prefix, "LEVEL"); ok {
		if level, ok := ParseLevel(value); ok {
			cfg.sink.MinLevel = level
		}
	}
	if value, ok := lookupEnv(prefix, "FORMAT"); ok {
		if format, ok := ParseFormat(value); ok {
			cfg.format = format
		}
	}
	if value, ok := lookupEnv(prefix, "TIME_FORMAT"); ok {
		if parsed := strings.TrimSpace(value); parsed != "" {
			cfg.encoder.TimeFormat = parsed
		}
	}
	envBool(prefix, "DISABLE_TIMESTAMP", &cfg.encoder.DisableTimestamp)
	envBool(prefix, "UTC", &cfg.encoder.UTC)
	envBool(prefix, "NO_COLOR", &cfg.encoder.NoColor)
	envBool(prefix, "FORCE_COLOR", &cfg.encoder.ForceColor)
	if value, ok := lookupEnv(prefix, "PALETTE"); ok {
		cfg.encoder.Palette = ansi.PaletteByName(value)
	}
	var caller bool
	if envBool(prefix, "CALLER_KEYVAL", &caller) && caller {
		cfg.callerKey = "fn"
	}
	if value, ok := lookupEnv(prefix, "CALLER_KEY"); ok && cfg.callerKey != "" {
		if parsed := strings.TrimSpace(value); parsed != "" {
			cfg.callerKey = parsed
		}
	}
	envBool(prefix, "INCLUDE_SCOPES", &cfg.sink.IncludeScopes)
	envBool(prefix, "ASYNC", &cfg.sink.Async)
	if n, ok := envInt(prefix, "MIN_QUEUE_SIZE"); ok && n > 0 {
		cfg.sink.Queue.MinQueueSize = n
	}
	if n, ok := envInt(prefix, "MAX_QUEUE_TIME"); ok && n > 0 {
		cfg.sink.Queue.MaxQueueTime = time.Duration(n) * time.Millisecond
	}
	if n, ok := envInt(prefix, "MAX_QUEUE_SIZE"); ok {
		if n <= 0 {
			n = Unbounded
		}
		cfg.sink.Queue.MaxQueueSize = n
	}
	if value, ok := lookupEnv(prefix, "WHEN_FULL"); ok {
		if policy, ok := ParseFullPolicy(value); ok {
			cfg.sink.Queue.WhenFull = policy
		}
	}
}

func lookupEnv(prefix, key string) (string, bool) {
	return os.LookupEnv(prefix + key)
}

// envBool stores a parseable boolean in dst and reports whether it did.
func envBool(prefix, key string, dst *bool) bool {
	value, ok := lookupEnv(prefix, key)
	if !ok {
		return false
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false
	}
	*dst = parsed
	return true
}

func envInt(prefix, key string) (int, bool) {
	value, ok := lookupEnv(prefix, key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, false
	}
	return n, true
}

func writerFromEnvOutput(value string, base io.Writer) (io.Writer, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return base, nil
	}
	switch strings.ToLower(trimmed) {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	case "default":
		return base, nil
	}
	tees := []struct {
		prefix string
		w      io.Writer
	}{
		{"stdout+", os.Stdout},
		{"stderr+", os.Stderr},
		{"default+", base},
	}
	for _, tee := range tees {
		if len(trimmed) < len(tee.prefix) || !strings.EqualFold(trimmed[:len(tee.prefix)], tee.prefix) {
			continue
		}
		path := strings.TrimSpace(trimmed[len(tee.prefix):])
		if path == "" {
			return tee.w, nil
		}
		file, err := openLogOutputFile(path)
		if err != nil {
			return base, err
		}
		return newOwnedOutput(newTeeWriter(tee.w, file), file), nil
	}
	file, err := openLogOutputFile(trimmed)
	if err != nil {
		return base, err
	}
	return newOwnedOutput(file, file), nil
}
