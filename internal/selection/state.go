// Package selection tracks cursor and multi-select state for list panels.
package selection

import "slices"

// DefaultCount is how many leading items a freshly shown facet list checks.
const DefaultCount = 5

// Op is a user-level operation on a list.
type Op int

const (
	OpNext Op = iota
	OpPrevious
	OpUnselectCursor
	OpToggle
	OpSelectAll
	OpClearAll
)

func (o Op) String() string {
	switch o {
	case OpNext:
		return "next"
	case OpPrevious:
		return "previous"
	case OpUnselectCursor:
		return "unselect"
	case OpToggle:
		return "toggle"
	case OpSelectAll:
		return "select-all"
	case OpClearAll:
		return "clear-all"
	default:
		return "unknown"
	}
}

// State is an optional cursor plus a set of checked indices over a list of
// n items. Selected indices are kept in ascending order, which is also the
// order series are rendered and exported in.
type State struct {
	n        int
	cursor   int // -1 when unset
	selected []int
}

// New returns an empty state over n items with no cursor.
func New(n int) State {
	return State{n: n, cursor: -1}
}

// Reset replaces the item count and discards cursor and selection.
func (s *State) Reset(n int) {
	s.n = n
	s.cursor = -1
	s.selected = nil
}

// Len returns the number of items the state covers.
func (s *State) Len() int { return s.n }

// Cursor returns the cursor position and whether one is set.
func (s *State) Cursor() (int, bool) {
	if s.cursor < 0 || s.cursor >= s.n {
		return 0, false
	}
	return s.cursor, true
}

// SetCursor moves the cursor. Out-of-range values clear it.
func (s *State) SetCursor(i int) {
	if i < 0 || i >= s.n {
		s.cursor = -1
		return
	}
	s.cursor = i
}

// Selected returns a copy of the checked indices in ascending order.
func (s *State) Selected() []int {
	return slices.Clone(s.selected)
}

// IsSelected reports whether index i is checked.
func (s *State) IsSelected(i int) bool {
	_, found := slices.BinarySearch(s.selected, i)
	return found
}

// Count returns the number of checked indices.
func (s *State) Count() int { return len(s.selected) }

// SetSelected replaces the checked set. Indices outside [0, n) and
// duplicates are dropped.
func (s *State) SetSelected(indices []int) {
	out := make([]int, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < s.n {
			out = append(out, i)
		}
	}
	slices.Sort(out)
	s.selected = slices.Compact(out)
}

// MoveNext advances the cursor, wrapping to the first item.
func (s *State) MoveNext() {
	if s.n == 0 {
		return
	}
	i, ok := s.Cursor()
	if !ok {
		s.cursor = 0
		return
	}
	s.cursor = (i + 1) % s.n
}

// MovePrevious moves the cursor back, wrapping to the last item.
func (s *State) MovePrevious() {
	if s.n == 0 {
		return
	}
	i, ok := s.Cursor()
	if !ok {
		s.cursor = 0
		return
	}
	s.cursor = (i - 1 + s.n) % s.n
}

// UnselectCursor clears the cursor, leaving the checked set alone.
func (s *State) UnselectCursor() {
	if s.n == 0 {
		return
	}
	s.cursor = -1
}

// Toggle flips membership of the item under the cursor.
func (s *State) Toggle() {
	i, ok := s.Cursor()
	if !ok {
		return
	}
	pos, found := slices.BinarySearch(s.selected, i)
	if found {
		s.selected = slices.Delete(s.selected, pos, pos+1)
		return
	}
	s.selected = slices.Insert(s.selected, pos, i)
}

// SelectAll checks every item. A missing cursor lands on the last item.
func (s *State) SelectAll() {
	if s.n == 0 {
		return
	}
	s.selected = make([]int, s.n)
	for i := range s.selected {
		s.selected[i] = i
	}
	if _, ok := s.Cursor(); !ok {
		s.cursor = s.n - 1
	}
}

// ClearAll unchecks everything and clears the cursor.
func (s *State) ClearAll() {
	if s.n == 0 {
		return
	}
	s.selected = nil
	s.cursor = -1
}

// Do applies op.
func (s *State) Do(op Op) {
	switch op {
	case OpNext:
		s.MoveNext()
	case OpPrevious:
		s.MovePrevious()
	case OpUnselectCursor:
		s.UnselectCursor()
	case OpToggle:
		s.Toggle()
	case OpSelectAll:
		s.SelectAll()
	case OpClearAll:
		s.ClearAll()
	}
}

// Entry snapshots the state for the cache.
func (s *State) Entry() Entry {
	e := Entry{Selected: s.Selected()}
	if i, ok := s.Cursor(); ok {
		e.Cursor = &i
	}
	return e
}

// Restore loads a cached entry, discarding anything out of range for the
// current item count.
func (s *State) Restore(e Entry) {
	s.cursor = -1
	if e.Cursor != nil {
		s.SetCursor(*e.Cursor)
	}
	s.SetSelected(e.Selected)
}

// Default returns the initial checked set for a list of n items:
// the first min(DefaultCount, n) indices.
func Default(n int) []int {
	k := min(DefaultCount, n)
	out := make([]int, k)
	for i := range out {
		out[i] = i
	}
	return out
}
