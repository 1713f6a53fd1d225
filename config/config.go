// Package config builds a tmplog.Factory from a YAML file.
//
//	locale: de-DE
//	instance_id: InstanceId
//	properties:
//	  service: billing
//	sinks:
//	  - name: console
//	    format: console
//	    output: stderr
//	    level: info
//	  - name: audit
//	    format: clef
//	    output: logs/audit-2006-01-02.clef.zst
//	    path_layout: true
//	    compress: true
//	    async: true
//	    scopes: true
//	    metrics: true
//	    queue:
//	      min_size: 64
//	      max_time: 500ms
//	      max_size: 4096
//	      when_full: discard
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"pkt.systems/tmplog"
	"pkt.systems/tmplog/ansi"
	"pkt.systems/tmplog/metrics"
)

// Config is the root of a logging configuration file.
type Config struct {
	// Locale selects number and date conventions for template holes.
	Locale string `yaml:"locale"`
	// InstanceID, when set, names a static property holding a random UUID.
	InstanceID string `yaml:"instance_id"`
	// CallerKey, when set, adds the calling function under this property.
	CallerKey string `yaml:"caller_key"`
	// Properties are static properties added to every record.
	Properties map[string]any `yaml:"properties"`
	// Sinks lists the outputs. At least one is required.
	Sinks []SinkConfig `yaml:"sinks"`
}

// SinkConfig describes one output.
type SinkConfig struct {
	// Name identifies the sink; defaults to "<format><index>".
	Name string `yaml:"name"`
	// Format is console, json or clef. Default console.
	Format string `yaml:"format"`
	// Output is stdout, stderr or a file path. Default stdout.
	Output string `yaml:"output"`
	// PathLayout treats Output as a Go time layout applied to each record's
	// timestamp, producing one file per period.
	PathLayout bool `yaml:"path_layout"`
	// Compress writes files as zstd streams.
	Compress bool `yaml:"compress"`
	// Level is the minimum level. Default info.
	Level string `yaml:"level"`
	// Scopes attaches active scopes to records.
	Scopes bool `yaml:"scopes"`
	// Async delivers through a background queue.
	Async bool `yaml:"async"`
	// Queue tunes the async queue.
	Queue QueueConfig `yaml:"queue"`
	// Metrics publishes queue metrics for an async sink.
	Metrics bool `yaml:"metrics"`

	TimeFormat       string `yaml:"time_format"`
	DisableTimestamp bool   `yaml:"disable_timestamp"`
	UTC              bool   `yaml:"utc"`
	NoColor          bool   `yaml:"no_color"`
	ForceColor       bool   `yaml:"force_color"`
	Palette          string `yaml:"palette"`
}

// QueueConfig mirrors tmplog.QueueOptions.
type QueueConfig struct {
	MinSize int           `yaml:"min_size"`
	MaxTime time.Duration `yaml:"max_time"`
	// MaxSize bounds the queue; zero or less is unbounded, unset is the
	// library default.
	MaxSize      *int          `yaml:"max_size"`
	WhenFull     string        `yaml:"when_full"`
	DrainTimeout time.Duration `yaml:"drain_timeout"`
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates YAML. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	for i := range c.Sinks {
		s := &c.Sinks[i]
		if s.Format == "" {
			s.Format = "console"
		}
		if s.Output == "" {
			s.Output = "stdout"
		}
		if s.Level == "" {
			s.Level = "info"
		}
		if s.Name == "" {
			s.Name = fmt.Sprintf("%s%d", strings.ToLower(s.Format), i)
		}
	}
}

// Validate checks names, enumerations and the locale.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Sinks) == 0 {
		errs = append(errs, errors.New("no sinks configured"))
	}
	if c.Locale != "" {
		if _, err := language.Parse(c.Locale); err != nil {
			errs = append(errs, fmt.Errorf("locale %q: %w", c.Locale, err))
		}
	}
	seen := make(map[string]struct{}, len(c.Sinks))
	for _, s := range c.Sinks {
		if _, dup := seen[s.Name]; dup {
			errs = append(errs, fmt.Errorf("sink %q: duplicate name", s.Name))
		}
		seen[s.Name] = struct{}{}
		if _, ok := tmplog.ParseFormat(s.Format); !ok {
			errs = append(errs, fmt.Errorf("sink %q: unknown format %q", s.Name, s.Format))
		}
		if _, ok := tmplog.ParseLevel(s.Level); !ok {
			errs = append(errs, fmt.Errorf("sink %q: unknown level %q", s.Name, s.Level))
		}
		if s.Queue.WhenFull != "" {
			if _, ok := tmplog.ParseFullPolicy(s.Queue.WhenFull); !ok {
				errs = append(errs, fmt.Errorf("sink %q: unknown when_full %q", s.Name, s.Queue.WhenFull))
			}
		}
		if s.Palette != "" {
			if _, ok := ansi.LookupPalette(s.Palette); !ok {
				errs = append(errs, fmt.Errorf("sink %q: unknown palette %q", s.Name, s.Palette))
			}
		}
		if s.Metrics && !s.Async {
			errs = append(errs, fmt.Errorf("sink %q: metrics need async", s.Name))
		}
	}
	return errors.Join(errs...)
}

// BuildOption customizes Build.
type BuildOption func(*buildConfig)

type buildConfig struct {
	registerer prometheus.Registerer
	stdout     io.Writer
	stderr     io.Writer
	factory    []tmplog.FactoryOption
}

// WithRegisterer registers queue metrics on reg instead of the default
// registerer.
func WithRegisterer(reg prometheus.Registerer) BuildOption {
	return func(b *buildConfig) { b.registerer = reg }
}

// WithStdio replaces the writers used for stdout and stderr outputs.
func WithStdio(stdout, stderr io.Writer) BuildOption {
	return func(b *buildConfig) {
		b.stdout = stdout
		b.stderr = stderr
	}
}

// WithFactoryOptions passes opts to tmplog.NewFactory after the options
// derived from the file.
func WithFactoryOptions(opts ...tmplog.FactoryOption) BuildOption {
	return func(b *buildConfig) { b.factory = append(b.factory, opts...) }
}

// Build creates a Factory with every configured sink. On error, sinks already
// opened are closed.
func (c *Config) Build(opts ...BuildOption) (*tmplog.Factory, error) {
	b := buildConfig{stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		if opt != nil {
			opt(&b)
		}
	}
	var factoryOpts []tmplog.FactoryOption
	if c.Locale != "" {
		tag, err := language.Parse(c.Locale)
		if err != nil {
			return nil, fmt.Errorf("locale %q: %w", c.Locale, err)
		}
		factoryOpts = append(factoryOpts, tmplog.WithLocale(tag))
	}
	if c.InstanceID != "" {
		factoryOpts = append(factoryOpts, tmplog.WithInstanceID(c.InstanceID))
	}
	if c.CallerKey != "" {
		factoryOpts = append(factoryOpts, tmplog.WithCallerProperty(c.CallerKey))
	}
	f := tmplog.NewFactory(append(factoryOpts, b.factory...)...)

	names := make([]string, 0, len(c.Properties))
	for name := range c.Properties {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		f.SetProperty(name, c.Properties[name])
	}

	var collector *metrics.Collector
	for _, sc := range c.Sinks {
		if sc.Metrics && collector == nil {
			collector = metrics.NewCollector(b.registerer)
		}
		sink, err := sc.sink(b)
		if err == nil {
			err = f.AddSink(sc.Name, sink, sc.options(collector))
		}
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("sink %q: %w", sc.Name, err)
		}
	}
	return f, nil
}

func (s SinkConfig) encoderOptions() tmplog.EncoderOptions {
	opts := tmplog.EncoderOptions{
		TimeFormat:       s.TimeFormat,
		DisableTimestamp: s.DisableTimestamp,
		UTC:              s.UTC,
		NoColor:          s.NoColor,
		ForceColor:       s.ForceColor,
	}
	if s.Palette != "" {
		opts.Palette = ansi.PaletteByName(s.Palette)
	}
	return opts
}

func (s SinkConfig) sink(b buildConfig) (tmplog.Sink, error) {
	format, _ := tmplog.ParseFormat(s.Format)
	encOpts := s.encoderOptions()
	switch strings.ToLower(s.Output) {
	case "stdout":
		return tmplog.NewSink(b.stdout, format, encOpts), nil
	case "stderr":
		return tmplog.NewSink(b.stderr, format, encOpts), nil
	}
	if format == tmplog.FormatConsole && !encOpts.ForceColor {
		encOpts.NoColor = true
	}
	fileOpts := tmplog.FileOptions{Path: s.Output, Compress: s.Compress}
	if s.PathLayout {
		fileOpts.PathFunc = tmplog.TimePath(s.Output)
	}
	return tmplog.NewFileSink(tmplog.NewEncoder(format, encOpts), fileOpts)
}

func (s SinkConfig) options(collector *metrics.Collector) tmplog.SinkOptions {
	level, _ := tmplog.ParseLevel(s.Level)
	opts := tmplog.SinkOptions{
		MinLevel:      level,
		IncludeScopes: s.Scopes,
		Async:         s.Async,
		Queue: tmplog.QueueOptions{
			MinQueueSize: s.Queue.MinSize,
			MaxQueueTime: s.Queue.MaxTime,
			DrainTimeout: s.Queue.DrainTimeout,
		},
	}
	if s.Queue.MaxSize != nil {
		opts.Queue.MaxQueueSize = *s.Queue.MaxSize
		if opts.Queue.MaxQueueSize <= 0 {
			opts.Queue.MaxQueueSize = tmplog.Unbounded
		}
	}
	if s.Queue.WhenFull != "" {
		opts.Queue.WhenFull, _ = tmplog.ParseFullPolicy(s.Queue.WhenFull)
	}
	if s.Metrics && collector != nil {
		opts.Queue.Observer = collector.Observer(s.Name)
	}
	return opts
}
