package tmplog

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestTemplateCacheReturnsSameTemplate(t *testing.T) {
	cache := NewTemplateCache(nil)
	a := cache.GetOrCreate("Order {Id} shipped")
	b := cache.GetOrCreate("Order {Id} shipped")
	if a != b {
		t.Fatalf("expected identical template pointers")
	}
	if cache.Len() != 1 {
		t.Fatalf("cache len: got %d want 1", cache.Len())
	}
	if _, ok := cache.Lookup("never seen"); ok {
		t.Fatalf("lookup must not parse")
	}
}

func TestTemplateCacheZeroValue(t *testing.T) {
	var cache TemplateCache
	tmpl := cache.GetOrCreate("Hello {Name}")
	if tmpl.Holes() != 1 {
		t.Fatalf("holes: got %d", tmpl.Holes())
	}
	if got, ok := cache.Lookup("Hello {Name}"); !ok || got != tmpl {
		t.Fatalf("zero value cache did not store template")
	}
}

func TestTemplateCacheConcurrentFirstUse(t *testing.T) {
	var parses atomic.Int32
	parseTemplate = func(text string) (*Template, error) {
		parses.Add(1)
		return ParseTemplate(text)
	}
	t.Cleanup(func() { parseTemplate = ParseTemplate })
	cache := NewTemplateCache(nil)
	const workers = 32
	results := make([]*Template, workers)
	var start sync.WaitGroup
	start.Add(1)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start.Wait()
			results[i] = cache.GetOrCreate("Job {JobId} finished in {Elapsed:F2} s")
		}()
	}
	start.Done()
	wg.Wait()
	for i, r := range results {
		if r != results[0] {
			t.Fatalf("worker %d got a different template", i)
		}
	}
	if cache.Len() != 1 {
		t.Fatalf("cache len: got %d want 1", cache.Len())
	}
	if n := parses.Load(); n != 1 {
		t.Fatalf("parsed %d times, want 1", n)
	}
}

func TestTemplateCacheParseErrorNotCached(t *testing.T) {
	var reported atomic.Int32
	var last error
	var mu sync.Mutex
	cache := NewTemplateCache(func(err error) {
		reported.Add(1)
		mu.Lock()
		last = err
		mu.Unlock()
	})
	for range 3 {
		tmpl := cache.GetOrCreate("Broken {}")
		if !tmpl.Literal() {
			t.Fatalf("expected literal fallback")
		}
		if msg, _ := tmpl.Render([]Value{StringValue("x")}, nil); msg != "Broken {}" {
			t.Fatalf("fallback render: got %q", msg)
		}
	}
	if reported.Load() != 3 {
		t.Fatalf("parse error reports: got %d want 3", reported.Load())
	}
	if cache.Len() != 0 {
		t.Fatalf("broken template must not be cached")
	}
	mu.Lock()
	defer mu.Unlock()
	var pe *ParseError
	if !errors.As(last, &pe) {
		t.Fatalf("expected *ParseError, got %v", last)
	}
}
