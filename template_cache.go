package tmplog

import "sync"

// parseTemplate is swapped by tests counting parses.
var parseTemplate = ParseTemplate

// TemplateCache maps template text to its parsed Template. Entries are never
// evicted: template text comes from source code, so the key set is bounded.
// The zero value is ready to use.
type TemplateCache struct {
	mu      sync.RWMutex
	entries map[string]*Template
	onError ErrorHandler
}

// NewTemplateCache returns an empty cache reporting parse failures to onError.
func NewTemplateCache(onError ErrorHandler) *TemplateCache {
	return &TemplateCache{entries: make(map[string]*Template), onError: onError}
}

// GetOrCreate returns the cached Template for text, parsing it on first use.
// Concurrent first-time callers with identical text share exactly one parse.
// A parse failure is reported to the error handler, nothing is cached, and a
// literal template rendering text verbatim is returned.
func (c *TemplateCache) GetOrCreate(text string) *Template {
	if t, ok := c.Lookup(text); ok {
		return t
	}
	c.mu.Lock()
	if t, ok := c.entries[text]; ok {
		c.mu.Unlock()
		return t
	}
	t, err := parseTemplate(text)
	if err != nil {
		c.mu.Unlock()
		report(c.onError, err)
		return literalTemplate(text)
	}
	if c.entries == nil {
		c.entries = make(map[string]*Template)
	}
	c.entries[text] = t
	c.mu.Unlock()
	return t
}

// Lookup returns the cached Template for text without parsing.
func (c *TemplateCache) Lookup(text string) (*Template, bool) {
	c.mu.RLock()
	t, ok := c.entries[text]
	c.mu.RUnlock()
	return t, ok
}

// Len returns the number of cached templates.
func (c *TemplateCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
