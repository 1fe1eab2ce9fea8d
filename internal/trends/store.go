package trends

import "slices"

// MaxSaved is how many charts the dashboard keeps for comparison.
const MaxSaved = 5

// Store maps identities to charts and remembers insertion order, oldest
// first. It does not bound itself; callers evict with EvictOldest until
// Len() <= MaxSaved.
type Store struct {
	charts map[Identity]*Chart
	order  []Identity
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{charts: make(map[Identity]*Chart)}
}

// Insert sets the chart for id. A new identity is appended to the order;
// an existing one keeps its position.
func (s *Store) Insert(id Identity, c *Chart) {
	if _, ok := s.charts[id]; !ok {
		s.order = append(s.order, id)
	}
	s.charts[id] = c
}

// EvictOldest removes the earliest inserted identity.
func (s *Store) EvictOldest() (Identity, bool) {
	if len(s.order) == 0 {
		return "", false
	}
	id := s.order[0]
	s.order = slices.Delete(s.order, 0, 1)
	delete(s.charts, id)
	return id, true
}

// Len returns the number of stored charts.
func (s *Store) Len() int { return len(s.order) }

// Get returns the chart for id.
func (s *Store) Get(id Identity) (*Chart, bool) {
	c, ok := s.charts[id]
	return c, ok
}

// Last returns the most recently inserted entry.
func (s *Store) Last() (Identity, *Chart, bool) {
	if len(s.order) == 0 {
		return "", nil, false
	}
	id := s.order[len(s.order)-1]
	return id, s.charts[id], true
}

// Identities returns the stored identities, oldest first.
func (s *Store) Identities() []Identity {
	return slices.Clone(s.order)
}

// Index returns the position of id in insertion order, or -1.
func (s *Store) Index(id Identity) int {
	return slices.Index(s.order, id)
}

// At returns the identity at position i in insertion order.
func (s *Store) At(i int) (Identity, bool) {
	if i < 0 || i >= len(s.order) {
		return "", false
	}
	return s.order[i], true
}

// Overview combines the primary series of every stored chart, in insertion
// order, on the month axis of the most recently inserted chart. Y bounds
// cover all series; callers showing a subset rescale with ScaleY.
func (s *Store) Overview() *Chart {
	_, last, ok := s.Last()
	if !ok {
		return nil
	}
	datasets := make([]Points, 0, len(s.order))
	for _, id := range s.order {
		if c := s.charts[id]; c != nil && len(c.Datasets) > 0 {
			datasets = append(datasets, c.Datasets[0])
		}
	}
	return newChart(datasets, last.XLabels)
}
