package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/prometheus/client_golang/prometheus"

	"pkt.systems/tmplog"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
sinks:
  - format: json
  - name: audit
    format: clef
    output: audit.log
    level: warning
    async: true
    queue:
      min_size: 3
      max_time: 250ms
      max_size: 0
      when_full: error
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cfg.Sinks) != 2 {
		t.Fatalf("sinks = %d", len(cfg.Sinks))
	}
	first := cfg.Sinks[0]
	if first.Name != "json0" || first.Output != "stdout" || first.Level != "info" {
		t.Fatalf("defaults not applied: %+v", first)
	}
	opts := cfg.Sinks[1].options(nil)
	if opts.MinLevel != tmplog.WarnLevel || !opts.Async {
		t.Fatalf("unexpected sink options: %+v", opts)
	}
	if opts.Queue.MinQueueSize != 3 || opts.Queue.MaxQueueTime != 250*time.Millisecond {
		t.Fatalf("queue options: %+v", opts.Queue)
	}
	if opts.Queue.MaxQueueSize != tmplog.Unbounded {
		t.Fatalf("max_size 0 should be unbounded, got %d", opts.Queue.MaxQueueSize)
	}
	if opts.Queue.WhenFull != tmplog.FullError {
		t.Fatalf("when_full = %v", opts.Queue.WhenFull)
	}
	if cfg.Sinks[0].options(nil).Queue.MaxQueueSize != 0 {
		t.Fatalf("unset max_size should keep the library default")
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"no sinks":       "locale: en\n",
		"unknown key":    "sinks:\n  - format: json\n    colour: red\n",
		"bad format":     "sinks:\n  - format: xml\n",
		"bad level":      "sinks:\n  - level: loud\n",
		"bad policy":     "sinks:\n  - async: true\n    queue:\n      when_full: panic\n",
		"duplicate name": "sinks:\n  - name: a\n  - name: a\n",
		"bad palette":    "sinks:\n  - palette: nope\n",
		"sync metrics":   "sinks:\n  - metrics: true\n",
		"bad locale":     "locale: \"!!\"\nsinks:\n  - format: json\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Fatalf("expected error for %q", doc)
			}
		})
	}
}

func TestBuildWritesToConfiguredSinks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.json")
	cfg, err := Parse([]byte(`
properties:
  service: billing
  shard: 3
sinks:
  - name: out
    format: console
    disable_timestamp: true
    no_color: true
  - name: file
    format: json
    output: ` + path + `
    level: warning
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var stdout bytes.Buffer
	f, err := cfg.Build(WithStdio(&stdout, &stdout))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	log := f.Logger("billing.invoices")
	log.Info("Invoice {Number} created", 42)
	log.Warn("Invoice {Number} overdue", 7)
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	console := stdout.String()
	if !strings.Contains(console, "INF [billing.invoices] Invoice 42 created") {
		t.Fatalf("console output missing info line:\n%s", console)
	}
	if !strings.Contains(console, "service=billing") || !strings.Contains(console, "shard=3") {
		t.Fatalf("console output missing static properties:\n%s", console)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file sink: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("file sink got %d lines, want 1:\n%s", len(lines), data)
	}
	if !strings.Contains(lines[0], `"message":"Invoice 7 overdue"`) {
		t.Fatalf("unexpected file line: %s", lines[0])
	}
}

func TestBuildCompressedAsyncSinkWithMetrics(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Parse([]byte(`
instance_id: InstanceId
sinks:
  - name: audit
    format: clef
    output: ` + filepath.Join(dir, "audit-2006.clef.zst") + `
    path_layout: true
    compress: true
    async: true
    metrics: true
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	reg := prometheus.NewRegistry()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	f, err := cfg.Build(WithRegisterer(reg), WithFactoryOptions(tmplog.WithClock(func() time.Time { return now })))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	f.Logger("audit").Info("User {User} signed in", "alice")
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "audit-2024.clef.zst"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()
	plain, err := dec.DecodeAll(raw, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	line := string(plain)
	if !strings.Contains(line, `"@mt":"User {User} signed in"`) || !strings.Contains(line, `"User":"alice"`) {
		t.Fatalf("unexpected CLEF line: %s", line)
	}
	if !strings.Contains(line, `"InstanceId":"`+f.InstanceID()+`"`) {
		t.Fatalf("instance id missing: %s", line)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() == "tmplog_queue_delivered_total" {
			found = mf.GetMetric()[0].GetCounter().GetValue() == 1
		}
	}
	if !found {
		t.Fatalf("delivered_total not reported as 1")
	}
}
