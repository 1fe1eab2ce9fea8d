package selection

import "slices"

// Entry is the remembered selection for one list.
type Entry struct {
	Cursor   *int
	Selected []int
}

func (e Entry) clone() Entry {
	out := Entry{Selected: slices.Clone(e.Selected)}
	if e.Cursor != nil {
		c := *e.Cursor
		out.Cursor = &c
	}
	return out
}

// Cache remembers the last selection per key. It never evicts; entries for
// keys that drop out of the query store are simply never read again.
type Cache[K comparable] struct {
	entries map[K]Entry
}

// NewCache returns an empty cache.
func NewCache[K comparable]() *Cache[K] {
	return &Cache[K]{entries: make(map[K]Entry)}
}

// Get returns a copy of the entry stored under key.
func (c *Cache[K]) Get(key K) (Entry, bool) {
	e, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// Put overwrites the entry for key.
func (c *Cache[K]) Put(key K, e Entry) {
	c.entries[key] = e.clone()
}

// Len returns the number of remembered keys.
func (c *Cache[K]) Len() int { return len(c.entries) }
