// Package dashboard holds the state shared by the dashboard panels: saved
// charts, the saved-query and facet selections, remembered facet selections
// per query, and the status of the last search.
package dashboard

import (
	"errors"
	"log/slog"

	"github.com/wesm/strend/internal/search"
	"github.com/wesm/strend/internal/selection"
	"github.com/wesm/strend/internal/trends"
)

// Phase is what the main area shows when no search is running.
type Phase int

const (
	PhaseWelcome Phase = iota
	PhaseResults
	PhaseNoResults
	PhaseError
)

// State is the dashboard context. It is owned by the UI goroutine.
type State struct {
	store  *trends.Store
	cache  *selection.Cache[trends.Identity]
	saved  selection.State
	facets selection.State
	active trends.Identity

	errMsg    string
	noResults bool

	status      string
	statusTicks int

	logger *slog.Logger
}

// Option configures a State.
type Option func(*State)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *State) {
		s.logger = logger
	}
}

// New returns an empty dashboard.
func New(opts ...Option) *State {
	s := &State{
		store:  trends.NewStore(),
		cache:  selection.NewCache[trends.Identity](),
		saved:  selection.New(0),
		facets: selection.New(0),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the saved charts.
func (s *State) Store() *trends.Store { return s.store }

// Saved returns the saved-query list selection.
func (s *State) Saved() *selection.State { return &s.saved }

// Facets returns the facet-value list selection of the active query.
func (s *State) Facets() *selection.State { return &s.facets }

// Active returns the identity whose facets are listed, or "".
func (s *State) Active() trends.Identity { return s.active }

// ActiveChart returns the chart of the active identity.
func (s *State) ActiveChart() *trends.Chart {
	if s.active == "" {
		return nil
	}
	c, _ := s.store.Get(s.active)
	return c
}

// Err returns the message for the last failed search, or "".
func (s *State) Err() string { return s.errMsg }

// Phase reports what the main area should show.
func (s *State) Phase() Phase {
	switch {
	case s.errMsg != "":
		return PhaseError
	case s.noResults:
		return PhaseNoResults
	case s.store.Len() == 0:
		return PhaseWelcome
	default:
		return PhaseResults
	}
}

// Submit validates the inputs. An invalid query sets the error message and
// changes nothing else.
func (s *State) Submit(query, facets string) (search.Request, error) {
	req, err := search.NewRequest(query, facets)
	if err != nil {
		s.errMsg = search.Describe(err)
		s.noResults = false
		return search.Request{}, err
	}
	return req, nil
}

// Apply routes a finished search. Failures only change the error message;
// saved charts and selections stay as they were.
func (s *State) Apply(res search.Result) {
	if res.Err != nil {
		s.fail(res.Err)
		return
	}
	chart, err := trends.BuildChart(res.Body, res.Request.Identity)
	if errors.Is(err, trends.ErrNoResults) {
		s.errMsg = ""
		s.noResults = true
		return
	}
	if err != nil {
		s.fail(err)
		return
	}
	s.errMsg = ""
	s.noResults = false

	id := res.Request.Identity
	s.store.Insert(id, chart)
	for s.store.Len() > trends.MaxSaved {
		evicted, _ := s.store.EvictOldest()
		s.logger.Debug("evicted saved query", "identity", evicted)
	}

	idx := s.store.Index(id)
	s.saved.Reset(s.store.Len())
	s.saved.SetSelected([]int{idx})
	s.saved.SetCursor(idx)
	s.Activate(id)
}

func (s *State) fail(err error) {
	s.errMsg = search.Describe(err)
	s.noResults = false
	s.logger.Warn("search failed", "err", err)
}

// Activate makes id the query whose facets are listed. The facet selection
// comes from the cache, or defaults to the leading values. It reports
// whether id is stored.
func (s *State) Activate(id trends.Identity) bool {
	chart, ok := s.store.Get(id)
	if !ok {
		return false
	}
	s.active = id
	n := 0
	if chart.HasFacets() {
		n = len(chart.Facets.Datasets)
	}
	s.facets.Reset(n)
	if e, ok := s.cache.Get(id); ok {
		s.facets.Restore(e)
	} else {
		s.facets.SetSelected(selection.Default(n))
	}
	return true
}

// FacetEvent applies op to the facet list and remembers the result for the
// active query.
func (s *State) FacetEvent(op selection.Op) {
	if s.active == "" {
		return
	}
	s.facets.Do(op)
	s.cache.Put(s.active, s.facets.Entry())
}

// SavedEvent applies op to the saved-query list. Moving the cursor onto
// another query activates it; the return value reports that. Any list
// interaction dismisses a stale error or empty-result notice.
func (s *State) SavedEvent(op selection.Op) bool {
	s.saved.Do(op)
	s.errMsg = ""
	s.noResults = false

	i, ok := s.saved.Cursor()
	if !ok {
		return false
	}
	id, ok := s.store.At(i)
	if !ok || id == s.active {
		return false
	}
	return s.Activate(id)
}

// AggregateChart returns the primary series of every saved query on the
// axis of the most recent one.
func (s *State) AggregateChart() *trends.Chart {
	return s.store.Overview()
}

// FacetChart returns the facet breakdown of the active query.
func (s *State) FacetChart() *trends.Chart {
	c := s.ActiveChart()
	if !c.HasFacets() {
		return nil
	}
	return c.Facets
}

// View is a chart restricted to the checked series.
type View struct {
	Chart *trends.Chart
	// Highlight indexes Chart.Datasets for the series under the list
	// cursor, -1 when the cursor is not on a checked series.
	Highlight int
}

// AggregateView returns the checked saved queries, rescaled to their own
// maximum.
func (s *State) AggregateView() View {
	full := s.AggregateChart()
	if full == nil {
		return View{Highlight: -1}
	}
	view := subset(full, &s.saved)
	view.Chart.YBounds, view.Chart.YTicks = trends.ScaleY(view.Chart.Datasets)
	return view
}

// FacetView returns the checked facet values, rescaled to their own maximum.
func (s *State) FacetView() View {
	full := s.FacetChart()
	if full == nil {
		return View{Highlight: -1}
	}
	view := subset(full, &s.facets)
	view.Chart.YBounds, view.Chart.YTicks = trends.ScaleY(view.Chart.Datasets)
	return view
}

func subset(full *trends.Chart, sel *selection.State) View {
	selected := sel.Selected()
	c := *full
	c.Datasets = full.Select(selected)
	c.Facets = nil

	highlight := -1
	if cur, ok := sel.Cursor(); ok {
		for i, idx := range selected {
			if idx == cur {
				highlight = i
				break
			}
		}
	}
	return View{Chart: &c, Highlight: highlight}
}

// Export builds the export table for the chart on screen: the facet chart
// when facetView is set, the aggregate chart otherwise.
func (s *State) Export(facetView bool) (trends.Table, error) {
	var table trends.Table
	if facetView {
		table = trends.BuildExport(s.FacetChart(), s.facets.Selected())
	} else {
		table = trends.BuildExport(s.AggregateChart(), s.saved.Selected())
	}
	if table.Empty() {
		return nil, trends.ErrNothingToExport
	}
	return table, nil
}

// Status returns the transient status line.
func (s *State) Status() string { return s.status }

// SetStatus shows msg until it expires.
func (s *State) SetStatus(msg string) {
	s.status = msg
	s.statusTicks = 0
}

// TickStatus counts one tick and clears the status line once it has been
// shown for expiry ticks.
func (s *State) TickStatus(expiry int) {
	if s.status == "" {
		return
	}
	s.statusTicks++
	if s.statusTicks >= expiry {
		s.status = ""
		s.statusTicks = 0
	}
}
