package aggregate

import (
	"fmt"
	"slices"
	"sort"

	"github.com/tinytelemetry/ripple/internal/model"
)

type counterEntry struct {
	value string
	count uint64
	first uint64 // first-seen order
}

// Counter is a frequency table reporting its top entries. Entries are kept
// in buckets keyed by count so an update is O(1); ordering is resolved when
// a summary is built.
type Counter struct {
	entries map[string]*counterEntry
	buckets map[uint64]map[*counterEntry]struct{}
	total   uint64
	seen    uint64
	limit   int
	frozen  bool
}

// NewCounter returns a counter reporting the top limit entries.
func NewCounter(limit int) *Counter {
	if limit <= 0 {
		limit = model.DefaultAggregationLimit
	}
	return &Counter{
		entries: make(map[string]*counterEntry),
		buckets: make(map[uint64]map[*counterEntry]struct{}),
		limit:   limit,
	}
}

// NewMode returns a counter that only ever reports its most frequent entry.
func NewMode() *Counter {
	c := NewCounter(1)
	c.frozen = true
	return c
}

func (c *Counter) Kind() Kind {
	if c.frozen {
		return KindMode
	}
	return KindCount
}

func (c *Counter) sealed() {}

// SetLimit changes the number of reported entries. Mode counters ignore it.
func (c *Counter) SetLimit(n int) {
	if c.frozen || n <= 0 {
		return
	}
	c.limit = n
}

// Limit returns the number of reported entries.
func (c *Counter) Limit() int { return c.limit }

// Total returns the number of updates seen.
func (c *Counter) Total() uint64 { return c.total }

// Count returns how often value was seen.
func (c *Counter) Count(value string) uint64 {
	if e, ok := c.entries[value]; ok {
		return e.count
	}
	return 0
}

func (c *Counter) Update(value string) {
	e, ok := c.entries[value]
	if !ok {
		c.seen++
		e = &counterEntry{value: value, first: c.seen}
		c.entries[value] = e
	} else {
		c.unbucket(e)
	}
	e.count++
	c.total++
	b := c.buckets[e.count]
	if b == nil {
		b = make(map[*counterEntry]struct{})
		c.buckets[e.count] = b
	}
	b[e] = struct{}{}
}

func (c *Counter) unbucket(e *counterEntry) {
	b := c.buckets[e.count]
	delete(b, e)
	if len(b) == 0 {
		delete(c.buckets, e.count)
	}
}

// Entry is one reported value.
type Entry struct {
	Value   string
	Count   uint64
	Percent float64
}

// Top returns up to the limit most frequent entries, by descending count
// and then first-seen order.
func (c *Counter) Top() []Entry {
	if c.total == 0 {
		return nil
	}
	counts := make([]uint64, 0, len(c.buckets))
	for n := range c.buckets {
		counts = append(counts, n)
	}
	slices.Sort(counts)

	out := make([]Entry, 0, c.limit)
	for i := len(counts) - 1; i >= 0 && len(out) < c.limit; i-- {
		bucket := make([]*counterEntry, 0, len(c.buckets[counts[i]]))
		for e := range c.buckets[counts[i]] {
			bucket = append(bucket, e)
		}
		sort.Slice(bucket, func(a, b int) bool { return bucket[a].first < bucket[b].first })
		for _, e := range bucket {
			if len(out) == c.limit {
				break
			}
			out = append(out, Entry{
				Value:   e.value,
				Count:   e.count,
				Percent: float64(e.count) / float64(c.total) * 100,
			})
		}
	}
	return out
}

func (c *Counter) Summary() []string {
	top := c.Top()
	if len(top) == 0 {
		return []string{"No data"}
	}
	out := make([]string, len(top))
	for i, e := range top {
		out[i] = fmt.Sprintf("%s: %d (%.4g%%)", e.Value, e.Count, e.Percent)
	}
	return out
}
