package trends

import (
	"fmt"
	"testing"

	"github.com/wesm/strend/internal/testutil"
)

func testChart(id Identity, ys ...float64) *Chart {
	labels := make([]string, len(ys))
	data := make([]Point, len(ys))
	for i, y := range ys {
		labels[i] = fmt.Sprintf("M%d", i)
		data[i] = Point{X: float64(i), Y: y}
	}
	return newChart([]Points{{Label: id.String(), Total: 1, Data: data}}, labels)
}

func identities(ids []Identity) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func TestStoreEvictsOldestBeyondMax(t *testing.T) {
	s := NewStore()
	var evicted []string
	for i := range 7 {
		id := Identity(fmt.Sprintf("q%d", i))
		s.Insert(id, testChart(id, 1))
		for s.Len() > MaxSaved {
			old, ok := s.EvictOldest()
			if !ok {
				t.Fatal("EvictOldest on non-empty store failed")
			}
			evicted = append(evicted, old.String())
		}
		if s.Len() > MaxSaved {
			t.Fatalf("store has %d entries", s.Len())
		}
	}
	testutil.AssertStrings(t, evicted, "q0", "q1")
	testutil.AssertStrings(t, identities(s.Identities()), "q2", "q3", "q4", "q5", "q6")
	if _, ok := s.Get("q0"); ok {
		t.Error("evicted chart still retrievable")
	}
	id, _, ok := s.Last()
	if !ok || id != "q6" {
		t.Errorf("Last = %q, %v", id, ok)
	}
}

func TestStoreReinsertKeepsPosition(t *testing.T) {
	s := NewStore()
	s.Insert("a", testChart("a", 1))
	s.Insert("b", testChart("b", 1))
	replacement := testChart("a", 9)
	s.Insert("a", replacement)

	testutil.AssertStrings(t, identities(s.Identities()), "a", "b")
	got, _ := s.Get("a")
	if got != replacement {
		t.Error("Insert did not replace the chart")
	}
	if s.Index("b") != 1 || s.Index("zzz") != -1 {
		t.Errorf("Index mismatch: b=%d zzz=%d", s.Index("b"), s.Index("zzz"))
	}
}

func TestStoreEmpty(t *testing.T) {
	s := NewStore()
	if _, ok := s.EvictOldest(); ok {
		t.Error("EvictOldest on empty store reported success")
	}
	if _, _, ok := s.Last(); ok {
		t.Error("Last on empty store reported success")
	}
	if s.Overview() != nil {
		t.Error("Overview of empty store should be nil")
	}
}

func TestStoreOverview(t *testing.T) {
	s := NewStore()
	s.Insert("a", testChart("a", 1, 2, 3))
	s.Insert("b", testChart("b", 10, 20, 30))

	c := s.Overview()
	if len(c.Datasets) != 2 {
		t.Fatalf("datasets = %d, want 2", len(c.Datasets))
	}
	if c.Datasets[0].Label != "a" || c.Datasets[1].Label != "b" {
		t.Errorf("labels = %q, %q", c.Datasets[0].Label, c.Datasets[1].Label)
	}
	if c.YBounds[1] != 30 {
		t.Errorf("YBounds = %v", c.YBounds)
	}
	testutil.AssertStrings(t, c.XLabels, "M0", "M1", "M2")

	bounds, ticks := ScaleY(c.Select([]int{0}))
	if bounds[1] != 3 {
		t.Errorf("subset bounds = %v", bounds)
	}
	testutil.AssertStrings(t, ticks[:], "0", "1", "3")
}
