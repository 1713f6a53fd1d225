package tmplog

import (
	"sync"
	"sync/atomic"
	"time"
)

// DTGTimeFormat is the default Date Time Group format (DDHHMM) for console
// output.
var DTGTimeFormat = "021504"

var (
	cacheableLayouts sync.Map
	nonCacheLayouts  sync.Map
)

func init() {
	for _, layout := range []string{
		DTGTimeFormat,
		time.ANSIC,
		time.UnixDate,
		time.RFC822,
		time.RFC822Z,
		time.RFC1123,
		time.RFC1123Z,
		time.RFC3339,
		time.Kitchen,
		time.Stamp,
		time.DateTime,
		time.DateOnly,
		time.TimeOnly,
	} {
		cacheableLayouts.Store(layout, struct{}{})
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.StampMilli,
		time.StampMicro,
		time.StampNano,
	} {
		nonCacheLayouts.Store(layout, struct{}{})
	}
}

// timeCache formats record timestamps for one encoder. Layouts without a
// sub-second component are memoized per second, so a burst of records
// logged within the same second formats the timestamp once.
type timeCache struct {
	layout    string
	utc       bool
	cacheable bool
	formatter func(time.Time) string
	last      atomic.Pointer[timeCacheEntry]
}

type timeCacheEntry struct {
	sec    int64
	offset int
	str    string
}

func newTimeCache(layout string, utc bool) *timeCache {
	return &timeCache{
		layout:    layout,
		utc:       utc,
		cacheable: isCacheableLayout(layout),
		formatter: formatterForLayout(layout),
	}
}

func (c *timeCache) format(t time.Time) string {
	if c.utc {
		t = t.UTC()
	}
	if !c.cacheable {
		return c.formatUncached(t)
	}
	sec := t.Unix()
	_, offset := t.Zone()
	if e := c.last.Load(); e != nil && e.sec == sec && e.offset == offset {
		return e.str
	}
	str := c.formatUncached(t)
	c.last.Store(&timeCacheEntry{sec: sec, offset: offset, str: str})
	return str
}

func (c *timeCache) formatUncached(t time.Time) string {
	if c.formatter != nil {
		return c.formatter(t)
	}
	return t.Format(c.layout)
}

func isCacheableLayout(layout string) bool {
	if _, ok := cacheableLayouts.Load(layout); ok {
		return true
	}
	if _, ok := nonCacheLayouts.Load(layout); ok {
		return false
	}
	if hasSubSecondPrecision(layout) {
		nonCacheLayouts.Store(layout, struct{}{})
		return false
	}
	cacheableLayouts.Store(layout, struct{}{})
	return true
}

func hasSubSecondPrecision(layout string) bool {
	base := time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)
	// If formatting changes within the same second, layout depends on sub-second precision.
	return base.Format(layout) != base.Add(time.Millisecond).Format(layout)
}
