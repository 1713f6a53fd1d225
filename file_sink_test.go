package tmplog

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
)

func TestFileSinkWritesAndReopensOnPathChange(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(NewJSONEncoder(EncoderOptions{DisableTimestamp: true}), FileOptions{
		PathFunc: func(rec *Record) string { return filepath.Join(dir, rec.Category, "app.log") },
	})
	if err != nil {
		t.Fatalf("new file sink: %v", err)
	}
	for _, rec := range []*Record{
		{Category: "orders", Message: "first"},
		{Category: "billing", Message: "second"},
		{Category: "orders", Message: "third"},
	} {
		if ok, err := sink.Handle(rec); !ok || err != nil {
			t.Fatalf("handle %s: ok=%v err=%v", rec.Message, ok, err)
		}
	}
	if sink.Path() != filepath.Join(dir, "orders", "app.log") {
		t.Fatalf("current path: %q", sink.Path())
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	orders := readLines(t, filepath.Join(dir, "orders", "app.log"))
	billing := readLines(t, filepath.Join(dir, "billing", "app.log"))
	if len(orders) != 2 || !strings.Contains(orders[1], `"message":"third"`) {
		t.Fatalf("orders file: %q", orders)
	}
	if len(billing) != 1 || !strings.Contains(billing[0], `"message":"second"`) {
		t.Fatalf("billing file: %q", billing)
	}
	if stats := sink.Stats(); stats.Writes != 3 || stats.Failures != 0 {
		t.Fatalf("stats: %+v", stats)
	}
}

func TestFileSinkRejectsAfterClose(t *testing.T) {
	sink, err := NewFileSink(NewJSONEncoder(EncoderOptions{}), FileOptions{Path: filepath.Join(t.TempDir(), "app.log")})
	if err != nil {
		t.Fatalf("new file sink: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if ok, err := sink.Handle(&Record{Message: "late"}); ok || !errors.Is(err, ErrSinkClosed) {
		t.Fatalf("handle after close: ok=%v err=%v", ok, err)
	}
	if sink.Path() != "" {
		t.Fatalf("closed sink reports path %q", sink.Path())
	}
}

func TestFileSinkCompress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.clef.zst")
	sink, err := NewFileSink(NewCLEFEncoder(EncoderOptions{}), FileOptions{Path: path, Compress: true})
	if err != nil {
		t.Fatalf("new file sink: %v", err)
	}
	when := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)
	for _, msg := range []string{"one", "two"} {
		if _, err := sink.Handle(&Record{Timestamp: when, Message: msg, MessageTemplate: msg}); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}
	if err := sink.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	dec, err := zstd.NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()
	var lines []string
	scanner := bufio.NewScanner(dec)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := `{"@t":"2024-03-05T14:07:09Z","@mt":"two","@m":"two"}`
	if len(lines) != 2 || lines[1] != want {
		t.Fatalf("decoded lines: %q", lines)
	}
}

func TestFileSinkOptionsValidation(t *testing.T) {
	if _, err := NewFileSink(nil, FileOptions{Path: "x.log"}); err == nil {
		t.Fatalf("expected error for nil encoder")
	}
	if _, err := NewFileSink(NewJSONEncoder(EncoderOptions{}), FileOptions{}); err == nil {
		t.Fatalf("expected error without path")
	}
	sink, err := NewFileSink(NewJSONEncoder(EncoderOptions{}), FileOptions{PathFunc: func(*Record) string { return "" }})
	if err != nil {
		t.Fatalf("new file sink: %v", err)
	}
	if ok, err := sink.Handle(&Record{}); ok || err == nil {
		t.Fatalf("empty path accepted")
	}
}

func TestFileSinkOpenFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	sink, err := NewFileSink(NewJSONEncoder(EncoderOptions{}), FileOptions{Path: filepath.Join(blocker, "app.log")})
	if err != nil {
		t.Fatalf("new file sink: %v", err)
	}
	if ok, err := sink.Handle(&Record{Message: "x"}); ok || err == nil {
		t.Fatalf("expected open failure, ok=%v", ok)
	}
}

func TestTimePath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs-2006")
	pf := TimePath(filepath.Join(dir, "app-2006-01-02.log"))
	rec := &Record{Timestamp: time.Date(2024, time.March, 5, 23, 0, 0, 0, time.UTC)}
	if got, want := pf(rec), filepath.Join(dir, "app-2024-03-05.log"); got != want {
		t.Fatalf("time path: got %q want %q", got, want)
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}
