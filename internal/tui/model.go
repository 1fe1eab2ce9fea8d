// Package tui provides the terminal dashboard for browsing Shodan Trends
// results.
package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/wesm/strend/internal/dashboard"
	"github.com/wesm/strend/internal/search"
	"github.com/wesm/strend/internal/trends"
)

const (
	defaultTickInterval = 250 * time.Millisecond
	defaultStatusTicks  = 40
	defaultExportPath   = "./data.csv"

	// maxDots is the longest run of dots in the "Searching" animation.
	maxDots = 3
)

// panel identifies a focusable region of the dashboard.
type panel int

const (
	panelNone panel = iota
	panelQuery
	panelFacets
	panelSavedQueries
	panelFacetValues
	panelChart
)

func (p panel) String() string {
	switch p {
	case panelQuery:
		return "query"
	case panelFacets:
		return "facets"
	case panelSavedQueries:
		return "saved queries"
	case panelFacetValues:
		return "facet values"
	case panelChart:
		return "chart"
	default:
		return "none"
	}
}

// tickMsg drives result polling, the loading animation and status expiry.
type tickMsg time.Time

type exportResultMsg struct {
	path string
	err  error
}

// Options configures a Model.
type Options struct {
	// Query and Facets prefill the inputs. A non-empty Query is searched
	// immediately.
	Query  string
	Facets string

	ExportPath   string
	TickInterval time.Duration
	// StatusTicks is how many ticks the status line stays visible.
	StatusTicks int

	Logger *slog.Logger
}

// Model is the dashboard's bubbletea model.
type Model struct {
	state *dashboard.State
	coord *search.Coordinator

	keys keyMap
	help help.Model

	queryInput textinput.Model
	facetInput textinput.Model

	focus panel
	// lastList is the list panel most recently focused; it decides which
	// chart the chart panel shows.
	lastList panel

	exportPath   string
	tickInterval time.Duration
	statusTicks  int
	dotFrame     int

	width  int
	height int

	logger   *slog.Logger
	quitting bool
}

// New creates a dashboard that fetches through coord.
func New(coord *search.Coordinator, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ExportPath == "" {
		opts.ExportPath = defaultExportPath
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = defaultTickInterval
	}
	if opts.StatusTicks <= 0 {
		opts.StatusTicks = defaultStatusTicks
	}

	qi := textinput.New()
	qi.Prompt = ""
	qi.Placeholder = "apache country:US"
	qi.CharLimit = 512
	qi.SetValue(opts.Query)

	fi := textinput.New()
	fi.Prompt = ""
	fi.Placeholder = "os, product, port"
	fi.CharLimit = 256
	fi.SetValue(opts.Facets)

	m := Model{
		state:        dashboard.New(dashboard.WithLogger(opts.Logger)),
		coord:        coord,
		keys:         defaultKeyMap(),
		help:         help.New(),
		queryInput:   qi,
		facetInput:   fi,
		lastList:     panelSavedQueries,
		exportPath:   opts.ExportPath,
		tickInterval: opts.TickInterval,
		statusTicks:  opts.StatusTicks,
		logger:       opts.Logger,
	}

	if opts.Query != "" {
		if req, err := m.state.Submit(opts.Query, opts.Facets); err == nil {
			coord.Dispatch(req)
		}
	}
	return m
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resizeInputs()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case exportResultMsg:
		m.handleExportResult(msg)
		return m, nil
	}

	// Cursor blink and other input-owned messages.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.queryInput, cmd = m.queryInput.Update(msg)
	cmds = append(cmds, cmd)
	m.facetInput, cmd = m.facetInput.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleTick drains a finished search, if any, and schedules the next tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	if res, ok := m.coord.Poll(); ok {
		m.state.Apply(res)
		if res.Err == nil && m.state.Active() == res.Request.Identity {
			m.syncInputs()
			if !m.isVisible(m.focus) {
				m.focus = panelNone
			}
		}
	}
	if m.coord.Busy() {
		m.dotFrame = (m.dotFrame + 1) % (maxDots + 1)
	}
	m.state.TickStatus(m.statusTicks)
	return m, m.tick()
}

func (m *Model) handleExportResult(msg exportResultMsg) {
	switch {
	case msg.err == nil:
		m.logger.Info("chart exported", "path", msg.path)
		m.state.SetStatus(fmt.Sprintf("Exported chart to %s", msg.path))
	case errors.Is(msg.err, trends.ErrNothingToExport):
		m.state.SetStatus("No chart to export")
	default:
		m.logger.Warn("export failed", "path", msg.path, "err", msg.err)
		m.state.SetStatus(fmt.Sprintf("Export failed: %v", msg.err))
	}
}

// syncInputs loads the active query back into the inputs.
func (m *Model) syncInputs() {
	id := m.state.Active()
	if id == "" {
		return
	}
	m.queryInput.SetValue(id.Query())
	m.facetInput.SetValue(id.Facets())
	m.queryInput.CursorEnd()
	m.facetInput.CursorEnd()
}

func (m *Model) resizeInputs() {
	w := m.width/2 - 14
	if w < 10 {
		w = 10
	}
	m.queryInput.Width = w
	m.facetInput.Width = w
}

// visiblePanels lists the panels Tab cycles through, in screen order.
func (m Model) visiblePanels() []panel {
	panels := []panel{panelQuery, panelFacets}
	if m.state.Store().Len() > 0 {
		panels = append(panels, panelSavedQueries)
	}
	if m.state.FacetChart() != nil {
		panels = append(panels, panelFacetValues)
	}
	if m.state.Phase() == dashboard.PhaseResults {
		panels = append(panels, panelChart)
	}
	return panels
}

func (m Model) isVisible(p panel) bool {
	for _, v := range m.visiblePanels() {
		if v == p {
			return true
		}
	}
	return false
}

// cycleFocus moves focus dir steps through the visible panels. From no
// focus, forward lands on the first panel and backward on the last.
func (m Model) cycleFocus(dir int) (tea.Model, tea.Cmd) {
	panels := m.visiblePanels()
	cur := -1
	for i, p := range panels {
		if p == m.focus {
			cur = i
			break
		}
	}
	var next int
	switch {
	case cur < 0 && dir > 0:
		next = 0
	case cur < 0:
		next = len(panels) - 1
	default:
		next = (cur + dir + len(panels)) % len(panels)
	}
	return m.setFocus(panels[next])
}

func (m Model) setFocus(p panel) (tea.Model, tea.Cmd) {
	m.focus = p
	m.queryInput.Blur()
	m.facetInput.Blur()

	var cmd tea.Cmd
	switch p {
	case panelQuery:
		cmd = m.queryInput.Focus()
	case panelFacets:
		cmd = m.facetInput.Focus()
	case panelSavedQueries, panelFacetValues:
		m.lastList = p
	}
	return m, cmd
}

// showingFacets reports whether the chart pane shows the facet chart.
func (m Model) showingFacets() bool {
	if m.state.FacetChart() == nil {
		return false
	}
	switch m.focus {
	case panelFacetValues:
		return true
	case panelChart:
		return m.lastList == panelFacetValues
	}
	return false
}

// Quitting reports whether the user asked to quit.
func (m Model) Quitting() bool {
	return m.quitting
}
